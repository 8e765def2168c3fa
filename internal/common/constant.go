package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token on
// protected routes.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the expected scheme prefix of the authorization header.
const BearerPrefix = "Bearer"

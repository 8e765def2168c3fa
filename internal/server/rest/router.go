package rest

import (
	"github.com/gin-gonic/gin"
)

// NewRouter wires the routes. Registration, login and the health probes are
// public; everything else sits behind the bearer-token gate.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/server_health", h.serverHealth)
	router.GET("/db_health", h.dbHealth)

	api := router.Group("/api")
	{
		api.POST("/register", h.register)
		api.POST("/login", h.login)
	}

	gated := router.Group("")
	gated.Use(AuthMiddleware(h.accounts))
	{
		gated.GET("/check_auth", h.checkAuth)

		profile := gated.Group("/api")
		{
			profile.GET("/get_profile", h.getProfile)
			profile.POST("/update_profile", h.updateProfile)
			profile.GET("/discover_profiles", h.discoverProfiles)
		}
	}

	return router
}

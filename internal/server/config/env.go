package config

import (
	"github.com/caarlos0/env/v11"
)

// parseEnv overlays Config fields from environment variables declared in the
// struct's env tags. Variables that are unset leave the current values
// untouched, so defaults and JSON-file values survive the overlay.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}

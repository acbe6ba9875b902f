package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays PORTAL_* environment variables. Unset variables leave
// the current value untouched; malformed ones (e.g. a bad duration) panic.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(fmt.Errorf("parse env: %w", err))
	}
}

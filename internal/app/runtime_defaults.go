package app

import (
	"fmt"
	"strings"

	"github.com/palanikathirvel/realestatefinal-sub000/pkg/crypto"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/logger"
)

// ApplyRuntimeDefaults fills configuration gaps that need runtime values. A
// missing JWT secret is generated on the spot so single-node setups start out
// of the box; sessions then do not survive restarts, which the log calls out.
func ApplyRuntimeDefaults(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		secret, err := crypto.GenerateToken(32)
		if err != nil {
			return fmt.Errorf("config: generate jwt secret: %w", err)
		}
		cfg.Auth.JWTSecret = secret
		logger.Warn("auth.jwt_secret not configured, generated an ephemeral secret; tokens will not survive restarts")
	}

	return nil
}

// ConfigureLogging initialises the global logger from configuration.
func ConfigureLogging(cfg *Config) error {
	level := "info"
	if cfg != nil {
		level = cfg.Logging.Level
	}
	return logger.Init(level)
}

package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New builds a zap logger for the given environment. Production gets the
// JSON encoder, everything else the human-readable development encoder.
func New(environment string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(environment) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

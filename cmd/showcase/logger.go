package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/HerbHall/showcase/internal/config"
)

// newLogger builds the process logger: JSON production output by default,
// the colored console encoder when log.development is set.
func newLogger(s config.LogSettings) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(s.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	if s.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level
	return cfg.Build()
}

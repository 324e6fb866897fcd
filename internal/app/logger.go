package app

import (
	"go.uber.org/zap"
)

// NewLogger builds a production logger, or a development one for local runs,
// at the given level. An unknown level falls back to info.
func NewLogger(level string, development bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if development {
		zc = zap.NewDevelopmentConfig()
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zc.Level = lvl

	return zc.Build()
}

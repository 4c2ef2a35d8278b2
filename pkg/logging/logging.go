package logging

import (
	"fmt"

	"github.com/example/freshgrocers/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger from the log section. An empty section gives the
// stock production logger.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Level == "" && cfg.Encoding == "" && len(cfg.OutputPaths) == 0 {
		return zap.NewProduction()
	}

	zcfg := zap.NewProductionConfig()

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	if cfg.Encoding != "" {
		zcfg.Encoding = cfg.Encoding
	}
	if len(cfg.OutputPaths) > 0 {
		zcfg.OutputPaths = cfg.OutputPaths
	}

	return zcfg.Build()
}

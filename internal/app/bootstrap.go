package service

import (
	"context"
	"fmt"

	"github.com/okian/consolidator/internal/config"
	"github.com/okian/consolidator/pkg/logger"
	"github.com/okian/consolidator/pkg/metrics"
)

// FromEnv builds a Service the way a host process would at start-up:
// initialise the global logger, load configuration (defaults -> optional file
// -> env), apply the log level and pick the metrics manager for the configured
// namespace. opts are applied last and may override any of these.
func FromEnv(ctx context.Context, opts ...Option) (*Service, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	log := logger.Get()

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	base := []Option{
		WithConfig(cfg),
		WithLogger(log),
		WithMetrics(metrics.ForNamespace(cfg.MetricsNamespace)),
	}
	svc := New(append(base, opts...)...)

	log.Info(ctx, "consolidation service ready",
		logger.String("log_level", cfg.LogLevel),
		logger.String("metrics_namespace", cfg.MetricsNamespace),
		logger.Int("display_names", len(cfg.DisplayNames)),
	)
	return svc, nil
}

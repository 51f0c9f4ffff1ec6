package main

import (
	"context"
	"net"

	"github.com/vyrodovalexey/pathhint/internal/admin"
	"github.com/vyrodovalexey/pathhint/internal/admission"
	"github.com/vyrodovalexey/pathhint/internal/config"
	"github.com/vyrodovalexey/pathhint/internal/content"
	"github.com/vyrodovalexey/pathhint/internal/observability"
	"github.com/vyrodovalexey/pathhint/internal/router"
	"github.com/vyrodovalexey/pathhint/internal/server"
)

// application holds all application components.
type application struct {
	server  *server.Server
	admin   *admin.Server
	metrics *observability.Metrics
	tracer  *observability.Tracer
	table   *router.Table
	config  *config.ServerConfig
}

// newApplication builds the route table and every component around it.
// The table is fixed from here on.
func newApplication(cfg *config.ServerConfig, logger observability.Logger) (*application, error) {
	metrics := observability.NewMetrics("pathhint")
	metrics.SetBuildInfo(version, gitCommit, buildTime)

	tracer, err := initTracer(cfg)
	if err != nil {
		return nil, err
	}

	entries, err := content.BuildEntries(cfg.Spec.Routes)
	if err != nil {
		return nil, err
	}

	table, err := router.NewTable(entries)
	if err != nil {
		return nil, err
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(metrics),
		server.WithTracer(tracer),
	}
	if cfg.Spec.Admission.Enabled() {
		admissionCfg := cfg.Spec.Admission
		opts = append(opts, server.WithListenerWrapper(func(ln net.Listener) net.Listener {
			return admission.Wrap(ln, admissionCfg, admission.WithLogger(logger))
		}))
	}

	srv := server.New(cfg.Spec.Listener.Address, router.NewResolver(table), opts...)

	app := &application{
		server:  srv,
		metrics: metrics,
		tracer:  tracer,
		table:   table,
		config:  cfg,
	}

	if cfg.MetricsEnabled() {
		app.admin = admin.New(cfg.MetricsAddress(), srv, table, metrics,
			admin.WithLogger(logger),
			admin.WithVersion(version),
		)
	}

	return app, nil
}

// initTracer initializes the tracer.
func initTracer(cfg *config.ServerConfig) (*observability.Tracer, error) {
	tracerCfg := observability.TracerConfig{
		ServiceName:    config.DefaultServiceName,
		ServiceVersion: version,
		SamplingRate:   1.0,
	}

	if cfg.Spec.Observability != nil && cfg.Spec.Observability.Tracing != nil {
		tracing := cfg.Spec.Observability.Tracing
		tracerCfg.Enabled = tracing.Enabled
		tracerCfg.SamplingRate = tracing.SamplingRate
		tracerCfg.OTLPEndpoint = tracing.OTLPEndpoint
		if tracing.ServiceName != "" {
			tracerCfg.ServiceName = tracing.ServiceName
		}
	}

	return observability.NewTracer(tracerCfg)
}

// shutdown stops every component. Errors are logged, not returned, so
// one failing component does not keep the others running.
func (app *application) shutdown(ctx context.Context, watcher *config.Watcher, logger observability.Logger) {
	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			logger.Warn("failed to stop config watcher", observability.Error(err))
		}
	}

	if err := app.server.Stop(ctx); err != nil {
		logger.Error("failed to drain connections", observability.Error(err))
	}

	if app.admin != nil {
		if err := app.admin.Stop(ctx); err != nil {
			logger.Error("failed to stop admin endpoint", observability.Error(err))
		}
	}

	if err := app.tracer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}
}

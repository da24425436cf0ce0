package app

import (
	"context"
	"fmt"

	"github.com/yungbote/clipfinder/internal/analyzer"
	"github.com/yungbote/clipfinder/internal/config"
	clipHTTP "github.com/yungbote/clipfinder/internal/http"
	"github.com/yungbote/clipfinder/internal/observability"
	"github.com/yungbote/clipfinder/internal/platform/logger"
	"github.com/yungbote/clipfinder/internal/resolve"
)

type App struct {
	Log      *logger.Logger
	Cfg      *config.Config
	Metrics  *observability.Metrics
	Clients  Clients
	Pipeline *resolve.Pipeline
	Analyzer *analyzer.Service

	version      string
	otelShutdown func(context.Context) error
}

// New wires config into every component. Optional backends (LLM, Redis) that
// are not configured or not reachable are left out rather than failing.
func New(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Info("Wiring clipfinder...", "env", cfg.Env, "version", version)

	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Observability.TracingEnabled,
		ServiceName: cfg.Observability.ServiceName,
		Environment: cfg.Env,
		Version:     version,
		Endpoint:    cfg.Observability.OTLPEndpoint,
		Insecure:    cfg.Observability.OTLPInsecure,
		SampleRatio: cfg.Observability.SampleRatio,
		Headers:     cfg.Observability.OTLPHeaders,
	})
	metrics := observability.Init(cfg.Observability.MetricsEnabled)

	pipeline, err := NewPipeline(cfg, log, metrics)
	if err != nil {
		log.Sync()
		return nil, err
	}

	clients := wireClients(ctx, log, cfg, metrics)
	svc := wireAnalyzer(log, cfg, clients, pipeline, metrics)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Metrics:      metrics,
		Clients:      clients,
		Pipeline:     pipeline,
		Analyzer:     svc,
		version:      version,
		otelShutdown: shutdown,
	}, nil
}

// Serve runs the HTTP API until ctx is canceled.
func (a *App) Serve(ctx context.Context) error {
	if a == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server().Run(ctx)
}

func (a *App) Server() *clipHTTP.Server {
	return wireServer(a)
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

package app

import (
	clipHTTP "github.com/yungbote/clipfinder/internal/http"
	httpH "github.com/yungbote/clipfinder/internal/http/handlers"
)

func wireServer(a *App) *clipHTTP.Server {
	cfg := a.Cfg
	segDeps := httpH.SegmentHandlerDeps{
		Log:              a.Log,
		Pipeline:         a.Pipeline,
		BatchConcurrency: cfg.Batch.Concurrency,
		BatchMaxItems:    cfg.Batch.MaxItems,
	}
	if a.Metrics != nil {
		segDeps.Observer = a.Metrics
	}
	rc := clipHTTP.RouterConfig{
		Log:               a.Log,
		Metrics:           a.Metrics,
		ServiceName:       cfg.Observability.ServiceName,
		CORSOrigins:       cfg.HTTP.CORSOrigins,
		MaxRequestBytes:   cfg.HTTP.MaxRequestBytes,
		HealthHandler:     httpH.NewHealthHandler(a.Metrics),
		SegmentHandler:    httpH.NewSegmentHandler(segDeps),
		TranscriptHandler: httpH.NewTranscriptHandler(a.Analyzer),
	}
	return clipHTTP.NewServer(a.Log, clipHTTP.ServerConfig{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout.Duration,
		IdleTimeout:       cfg.HTTP.IdleTimeout.Duration,
		ShutdownTimeout:   cfg.HTTP.ShutdownTimeout.Duration,
	}, rc)
}

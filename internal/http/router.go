package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/clipfinder/internal/http/handlers"
	httpMW "github.com/yungbote/clipfinder/internal/http/middleware"
	"github.com/yungbote/clipfinder/internal/observability"
	"github.com/yungbote/clipfinder/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string
	// MaxRequestBytes caps request bodies; <= 0 disables the cap.
	MaxRequestBytes int64

	HealthHandler     *httpH.HealthHandler
	SegmentHandler    *httpH.SegmentHandler
	TranscriptHandler *httpH.TranscriptHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.LimitBody(cfg.MaxRequestBytes))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/metrics", cfg.HealthHandler.Metrics)
	}

	v1 := r.Group("/api/v1")
	{
		// Segments
		if cfg.SegmentHandler != nil {
			v1.POST("/segments/resolve", cfg.SegmentHandler.Resolve)
			v1.POST("/segments/resolve-content", cfg.SegmentHandler.ResolveContent)
			v1.POST("/segments/batch", cfg.SegmentHandler.Batch)
		}

		// Transcripts
		if cfg.TranscriptHandler != nil {
			v1.POST("/transcripts/analyze", cfg.TranscriptHandler.Analyze)
		}
	}

	return r
}

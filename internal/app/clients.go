package app

import (
	"context"

	"github.com/yungbote/clipfinder/internal/cache"
	"github.com/yungbote/clipfinder/internal/config"
	"github.com/yungbote/clipfinder/internal/llm"
	"github.com/yungbote/clipfinder/internal/observability"
	"github.com/yungbote/clipfinder/internal/platform/logger"
)

type Clients struct {
	LLM   *llm.Client
	Cache cache.Cache
	redis *cache.Redis
}

func wireClients(ctx context.Context, log *logger.Logger, cfg *config.Config, metrics *observability.Metrics) Clients {
	log.Info("Wiring clients...")
	var out Clients

	if cfg.LLM.Enabled() {
		c, err := llm.New(llm.Config{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Referer:     cfg.LLM.Referer,
			AppTitle:    cfg.LLM.AppTitle,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout.Duration,
			MaxRetries:  cfg.LLM.MaxRetries,
		}, log)
		if err != nil {
			log.Warn("llm client disabled", "error", err)
		} else {
			if metrics != nil {
				c = c.WithObserver(metrics)
			}
			out.LLM = c
		}
	} else {
		log.Info("llm client disabled (no api key)")
	}

	out.Cache = fallbackCache(log, cfg)
	if cfg.Cache.Enabled() {
		r, err := cache.NewRedis(ctx, log, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   cfg.Cache.Prefix,
		})
		if err != nil {
			log.Warn("envelope cache disabled", "addr", cfg.Cache.RedisAddr, "error", err)
		} else {
			out.Cache = r
			out.redis = r
		}
	}
	return out
}

// fallbackCache is used when Redis is not configured or unreachable. Development
// runs keep envelopes in process memory; other environments do not cache.
func fallbackCache(log *logger.Logger, cfg *config.Config) cache.Cache {
	if cfg.Env == "development" && cfg.Cache.TTL.Duration > 0 {
		log.Info("envelope cache in memory", "ttl", cfg.Cache.TTL.Duration.String())
		return cache.NewMemory()
	}
	return cache.Nop{}
}

func (c Clients) Close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
}

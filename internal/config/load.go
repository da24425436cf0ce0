package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/clipfinder/internal/platform/envutil"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "openai/gpt-4.1"
)

// UnmarshalYAML accepts "5m"-style strings or an integer number of seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar (line %d)", node.Line)
	}
	s := strings.TrimSpace(node.Value)
	if s == "" || s == "null" || s == "~" {
		d.Duration = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		d.Duration = time.Duration(n) * time.Second
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration must be like \"5s\" or integer seconds (line %d): %w", node.Line, err)
	}
	d.Duration = dd
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return d.Duration.String(), nil }

func Default() *Config {
	return &Config{
		Env: "development",
		Log: LogConfig{Mode: "development", Level: "info"},
		Resolver: ResolverConfig{
			TerminalPolicy:    "fail_empty",
			PlaceholderWindow: Duration{Duration: 60 * time.Second},
			DurationTolerance: 0.5,
			TitleMaxLen:       70,
			Platforms:         []string{"TikTok", "YouTube_Shorts", "Instagram_Reels"},
		},
		LLM: LLMConfig{
			BaseURL:     DefaultBaseURL,
			Model:       DefaultModel,
			Referer:     "https://github.com/yungbote/clipfinder",
			AppTitle:    "clipfinder",
			Temperature: 0.7,
			Timeout:     Duration{Duration: 300 * time.Second},
			MaxRetries:  3,
		},
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			IdleTimeout:       Duration{Duration: 2 * time.Minute},
			ShutdownTimeout:   Duration{Duration: 15 * time.Second},
			MaxRequestBytes:   10 << 20,
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
		},
		Batch: BatchConfig{Concurrency: 4, MaxItems: 64},
		Cache: CacheConfig{Prefix: "clipfinder:envelope:", TTL: Duration{Duration: 24 * time.Hour}},
		Observability: ObservabilityConfig{
			ServiceName: "clipfinder",
			SampleRatio: 0.1,
		},
	}
}

// Load reads the YAML file named by CLIPFINDER_CONFIG (or ./config/clipfinder.yaml
// when present), applies environment overrides and validates the result.
func Load() (*Config, error) {
	path := strings.TrimSpace(os.Getenv("CLIPFINDER_CONFIG"))
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "clipfinder.yaml")
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit path; an empty path means defaults plus env.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	if err := normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("CLIPFINDER_ENV", cfg.Env)
	cfg.Log.Mode = envutil.String("LOG_MODE", cfg.Log.Mode)
	cfg.Log.Level = envutil.String("LOG_LEVEL", cfg.Log.Level)

	cfg.Resolver.TerminalPolicy = envutil.String("CLIPFINDER_TERMINAL_POLICY", cfg.Resolver.TerminalPolicy)
	cfg.Resolver.PlaceholderWindow.Duration = envutil.Duration("CLIPFINDER_PLACEHOLDER_WINDOW", cfg.Resolver.PlaceholderWindow.Duration)
	cfg.Resolver.DurationTolerance = envutil.Float("CLIPFINDER_DURATION_TOLERANCE", cfg.Resolver.DurationTolerance)

	cfg.LLM.APIKey = envutil.String("OPENROUTER_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = envutil.String("OPENROUTER_MODEL", cfg.LLM.Model)
	cfg.LLM.BaseURL = envutil.String("OPENROUTER_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Timeout.Duration = envutil.Duration("OPENROUTER_TIMEOUT", cfg.LLM.Timeout.Duration)
	cfg.LLM.MaxRetries = envutil.Int("OPENROUTER_MAX_RETRIES", cfg.LLM.MaxRetries)

	cfg.HTTP.Addr = envutil.String("CLIPFINDER_HTTP_ADDR", cfg.HTTP.Addr)
	cfg.Batch.Concurrency = envutil.Int("CLIPFINDER_BATCH_CONCURRENCY", cfg.Batch.Concurrency)

	cfg.Cache.RedisAddr = envutil.String("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = envutil.String("REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = envutil.Int("REDIS_DB", cfg.Cache.RedisDB)
	cfg.Cache.TTL.Duration = envutil.Duration("CLIPFINDER_CACHE_TTL", cfg.Cache.TTL.Duration)

	cfg.Observability.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.Observability.MetricsEnabled)
	cfg.Observability.TracingEnabled = envutil.Bool("OTEL_ENABLED", cfg.Observability.TracingEnabled)
	cfg.Observability.OTLPEndpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Observability.OTLPEndpoint)
	cfg.Observability.OTLPInsecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Observability.OTLPInsecure)
	cfg.Observability.OTLPHeaders = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Observability.OTLPHeaders)
	cfg.Observability.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", cfg.Observability.SampleRatio)
}

func normalize(cfg *Config) error {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.Log.Mode) == "" {
		cfg.Log.Mode = cfg.Env
	}

	r := &cfg.Resolver
	r.TerminalPolicy = strings.ToLower(strings.TrimSpace(r.TerminalPolicy))
	switch r.TerminalPolicy {
	case "":
		r.TerminalPolicy = "fail_empty"
	case "fail_empty", "synthesize_placeholder":
	default:
		return fmt.Errorf("invalid resolver.terminal_policy=%q", r.TerminalPolicy)
	}
	if r.PlaceholderWindow.Duration <= 0 {
		r.PlaceholderWindow = Duration{Duration: 60 * time.Second}
	}
	if r.DurationTolerance < 0 {
		return errors.New("resolver.duration_tolerance must be >= 0")
	}
	if r.TitleMaxLen < 0 {
		return errors.New("resolver.title_max_len must be >= 0")
	}

	l := &cfg.LLM
	l.BaseURL = strings.TrimRight(strings.TrimSpace(l.BaseURL), "/")
	if l.BaseURL == "" {
		l.BaseURL = DefaultBaseURL
	}
	l.Model = strings.TrimSpace(l.Model)
	if l.Model == "" {
		l.Model = DefaultModel
	}
	l.APIKey = strings.TrimSpace(l.APIKey)
	if l.Timeout.Duration <= 0 {
		l.Timeout = Duration{Duration: 300 * time.Second}
	}
	if l.MaxRetries < 0 {
		return errors.New("llm.max_retries must be >= 0")
	}

	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 10 << 20
	}
	if cfg.HTTP.ShutdownTimeout.Duration <= 0 {
		cfg.HTTP.ShutdownTimeout = Duration{Duration: 15 * time.Second}
	}

	if cfg.Batch.Concurrency <= 0 {
		cfg.Batch.Concurrency = 4
	}
	if cfg.Batch.MaxItems <= 0 {
		cfg.Batch.MaxItems = 64
	}

	if cfg.Cache.TTL.Duration <= 0 {
		cfg.Cache.TTL = Duration{Duration: 24 * time.Hour}
	}

	o := &cfg.Observability
	if strings.TrimSpace(o.ServiceName) == "" {
		o.ServiceName = "clipfinder"
	}
	if o.SampleRatio < 0 {
		o.SampleRatio = 0
	}
	if o.SampleRatio > 1 {
		o.SampleRatio = 1
	}
	return nil
}

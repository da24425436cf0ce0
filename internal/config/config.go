package config

import "time"

type Duration struct {
	Duration time.Duration
}

type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

type ResolverConfig struct {
	// TerminalPolicy is "fail_empty" or "synthesize_placeholder".
	TerminalPolicy    string   `yaml:"terminal_policy"`
	PlaceholderWindow Duration `yaml:"placeholder_window"`
	// DurationTolerance is in seconds.
	DurationTolerance float64  `yaml:"duration_tolerance"`
	TitleMaxLen       int      `yaml:"title_max_len"`
	Platforms         []string `yaml:"platforms"`
}

type LLMConfig struct {
	// BaseURL is an OpenAI-compatible API root; requests go to {base_url}/chat/completions.
	BaseURL     string   `yaml:"base_url"`
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model"`
	Referer     string   `yaml:"referer"`
	AppTitle    string   `yaml:"app_title"`
	Temperature float64  `yaml:"temperature"`
	Timeout     Duration `yaml:"timeout"`
	MaxRetries  int      `yaml:"max_retries"`
}

// Enabled reports whether an upstream model can be called at all.
func (c LLMConfig) Enabled() bool { return c.APIKey != "" }

type HTTPConfig struct {
	Addr              string   `yaml:"addr"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	IdleTimeout       Duration `yaml:"idle_timeout"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
	MaxRequestBytes   int64    `yaml:"max_request_bytes"`
	CORSOrigins       []string `yaml:"cors_origins"`
}

type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
	MaxItems    int `yaml:"max_items"`
}

type CacheConfig struct {
	RedisAddr     string   `yaml:"redis_addr"`
	RedisPassword string   `yaml:"redis_password"`
	RedisDB       int      `yaml:"redis_db"`
	Prefix        string   `yaml:"prefix"`
	TTL           Duration `yaml:"ttl"`
}

func (c CacheConfig) Enabled() bool { return c.RedisAddr != "" }

type ObservabilityConfig struct {
	ServiceName    string  `yaml:"service_name"`
	MetricsEnabled bool    `yaml:"metrics_enabled"`
	TracingEnabled bool    `yaml:"tracing_enabled"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint"`
	OTLPInsecure   bool    `yaml:"otlp_insecure"`
	OTLPHeaders    string  `yaml:"otlp_headers"`
	SampleRatio    float64 `yaml:"sample_ratio"`
}

type Config struct {
	Env           string              `yaml:"env"`
	Log           LogConfig           `yaml:"log"`
	Resolver      ResolverConfig      `yaml:"resolver"`
	LLM           LLMConfig           `yaml:"llm"`
	HTTP          HTTPConfig          `yaml:"http"`
	Batch         BatchConfig         `yaml:"batch"`
	Cache         CacheConfig         `yaml:"cache"`
	Observability ObservabilityConfig `yaml:"observability"`
}

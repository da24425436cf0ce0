package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "clipfinder.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadFileDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.LLM.BaseURL != DefaultBaseURL || cfg.LLM.Model != DefaultModel {
		t.Fatalf("llm=%+v", cfg.LLM)
	}
	if cfg.LLM.Timeout.Duration != 300*time.Second {
		t.Fatalf("timeout=%v", cfg.LLM.Timeout.Duration)
	}
	if cfg.Resolver.TerminalPolicy != "fail_empty" || cfg.Resolver.TitleMaxLen != 70 || cfg.Resolver.DurationTolerance != 0.5 {
		t.Fatalf("resolver=%+v", cfg.Resolver)
	}
	if len(cfg.Resolver.Platforms) != 3 {
		t.Fatalf("platforms=%v", cfg.Resolver.Platforms)
	}
	if cfg.LLM.Enabled() || cfg.Cache.Enabled() {
		t.Fatalf("llm and cache must be disabled without credentials")
	}
}

func TestLoadFileYAML(t *testing.T) {
	p := writeConfig(t, `
env: production
resolver:
  terminal_policy: SYNTHESIZE_PLACEHOLDER
  placeholder_window: 45s
  platforms: [TikTok]
llm:
  base_url: http://upstream/api/v1/
  api_key: sk-file
  timeout: 30
http:
  addr: ":9999"
cache:
  redis_addr: localhost:6379
  ttl: 1h
`)
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Env != "production" || cfg.Log.Mode != "development" {
		t.Fatalf("env=%q log=%+v", cfg.Env, cfg.Log)
	}
	if cfg.Resolver.TerminalPolicy != "synthesize_placeholder" {
		t.Fatalf("policy=%q", cfg.Resolver.TerminalPolicy)
	}
	if cfg.Resolver.PlaceholderWindow.Duration != 45*time.Second {
		t.Fatalf("window=%v", cfg.Resolver.PlaceholderWindow.Duration)
	}
	if cfg.LLM.BaseURL != "http://upstream/api/v1" {
		t.Fatalf("base url=%q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Timeout.Duration != 30*time.Second {
		t.Fatalf("integer timeout should mean seconds, got %v", cfg.LLM.Timeout.Duration)
	}
	if !cfg.LLM.Enabled() || !cfg.Cache.Enabled() || cfg.Cache.TTL.Duration != time.Hour {
		t.Fatalf("llm=%+v cache=%+v", cfg.LLM, cfg.Cache)
	}
	if cfg.HTTP.Addr != ":9999" || cfg.HTTP.MaxRequestBytes != 10<<20 {
		t.Fatalf("http=%+v", cfg.HTTP)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	p := writeConfig(t, "llm:\n  model: from-file\n")
	t.Setenv("OPENROUTER_MODEL", "from-env")
	t.Setenv("OPENROUTER_API_KEY", "sk-env")
	t.Setenv("CLIPFINDER_HTTP_ADDR", ":7000")
	t.Setenv("CLIPFINDER_TERMINAL_POLICY", "synthesize_placeholder")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.LLM.Model != "from-env" || cfg.LLM.APIKey != "sk-env" {
		t.Fatalf("llm=%+v", cfg.LLM)
	}
	if cfg.HTTP.Addr != ":7000" || cfg.Resolver.TerminalPolicy != "synthesize_placeholder" || cfg.Cache.RedisAddr != "redis:6379" {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"policy":    "resolver:\n  terminal_policy: blend\n",
		"duration":  "llm:\n  timeout: soon\n",
		"tolerance": "resolver:\n  duration_tolerance: -1\n",
		"retries":   "llm:\n  max_retries: -2\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadFile(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadUsesConfigEnvPath(t *testing.T) {
	p := writeConfig(t, "http:\n  addr: \":1234\"\n")
	t.Setenv("CLIPFINDER_CONFIG", p)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":1234" {
		t.Fatalf("addr=%q", cfg.HTTP.Addr)
	}

	t.Setenv("CLIPFINDER_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("err=%v, want read error", err)
	}
}

func TestExampleConfigLoads(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")
	cfg, err := LoadFile("../../config/clipfinder.example.yaml")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.MaxRequestBytes != 4194304 || cfg.Resolver.PlaceholderWindow.Duration != 60*time.Second {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.LLM.Timeout.Duration != 300*time.Second {
		t.Fatalf("integer timeout should be seconds, got %v", cfg.LLM.Timeout.Duration)
	}
}

package app

import (
	"fmt"

	"github.com/yungbote/clipfinder/internal/analyzer"
	"github.com/yungbote/clipfinder/internal/config"
	"github.com/yungbote/clipfinder/internal/observability"
	"github.com/yungbote/clipfinder/internal/platform/logger"
	"github.com/yungbote/clipfinder/internal/prompt"
	"github.com/yungbote/clipfinder/internal/resolve"
	"github.com/yungbote/clipfinder/internal/segment"
)

// NewPipeline builds the resolver from the resolver section of cfg.
func NewPipeline(cfg *config.Config, log *logger.Logger, metrics *observability.Metrics) (*resolve.Pipeline, error) {
	policy, err := resolve.ParseTerminalPolicy(cfg.Resolver.TerminalPolicy)
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}
	opts := resolve.DefaultOptions()
	opts.TerminalPolicy = policy
	opts.PlaceholderWindow = cfg.Resolver.PlaceholderWindow.Duration.Seconds()
	opts.Validation = segment.Policy{
		DurationTolerance: cfg.Resolver.DurationTolerance,
		TitleMaxLen:       cfg.Resolver.TitleMaxLen,
		DefaultPlatforms:  platforms(log, cfg.Resolver.Platforms),
	}
	if metrics != nil {
		opts.Recorder = metrics
	}
	return resolve.New(log, opts), nil
}

func platforms(log *logger.Logger, raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		canon, ok := segment.CanonicalPlatform(p)
		if !ok {
			log.Warn("ignoring unsupported default platform", "platform", p)
			continue
		}
		out = append(out, canon)
	}
	return out
}

func wireAnalyzer(log *logger.Logger, cfg *config.Config, clients Clients, pipeline *resolve.Pipeline, metrics *observability.Metrics) *analyzer.Service {
	deps := analyzer.Deps{
		Log:      log,
		Prompts:  prompt.NewBuilder(cfg.Resolver.Platforms, cfg.Resolver.TitleMaxLen),
		Pipeline: pipeline,
		Cache:    clients.Cache,
		CacheTTL: cfg.Cache.TTL.Duration,
	}
	if clients.LLM != nil {
		deps.Completer = clients.LLM
	}
	if metrics != nil {
		deps.Observer = metrics
	}
	return analyzer.New(deps)
}

package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/clipfinder/internal/cache"
	"github.com/yungbote/clipfinder/internal/llm"
	"github.com/yungbote/clipfinder/internal/platform/logger"
	"github.com/yungbote/clipfinder/internal/prompt"
	"github.com/yungbote/clipfinder/internal/resolve"
)

var (
	ErrUnavailable = errors.New("analyzer: no llm configured")
	ErrTransport   = errors.New("analyzer: llm transport failed")
)

type Completer interface {
	Complete(ctx context.Context, messages []llm.Message) ([]byte, error)
	Model() string
}

// CacheObserver counts envelope cache lookups.
type CacheObserver interface {
	IncCacheLookup(hit bool)
}

type noopCacheObserver struct{}

func (noopCacheObserver) IncCacheLookup(bool) {}

type Service struct {
	log       *logger.Logger
	completer Completer
	prompts   *prompt.Builder
	pipeline  *resolve.Pipeline
	cache     cache.Cache
	ttl       time.Duration
	observer  CacheObserver
}

type Deps struct {
	Log       *logger.Logger
	Completer Completer
	Prompts   *prompt.Builder
	Pipeline  *resolve.Pipeline
	Cache     cache.Cache
	CacheTTL  time.Duration
	Observer  CacheObserver
}

func New(d Deps) *Service {
	s := &Service{
		log:       d.Log,
		completer: d.Completer,
		prompts:   d.Prompts,
		pipeline:  d.Pipeline,
		cache:     d.Cache,
		ttl:       d.CacheTTL,
		observer:  d.Observer,
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	s.log = s.log.With("service", "Analyzer")
	if s.prompts == nil {
		s.prompts = prompt.NewBuilder(nil, 0)
	}
	if s.pipeline == nil {
		s.pipeline = resolve.New(d.Log, resolve.DefaultOptions())
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.observer == nil {
		s.observer = noopCacheObserver{}
	}
	return s
}

func (s *Service) Available() bool { return s != nil && s.completer != nil }

// AnalyzeTranscript asks the model for segments and resolves its answer. A
// resolved envelope is cached so re-running a transcript skips the model call.
func (s *Service) AnalyzeTranscript(ctx context.Context, transcript string) (*resolve.Result, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}
	messages, err := s.prompts.Build(transcript)
	if err != nil {
		return nil, err
	}

	key := CacheKey(s.completer.Model(), transcript)
	cached, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("envelope cache read failed", "key", key, "error", err)
	} else {
		s.observer.IncCacheLookup(hit)
	}
	if hit {
		s.log.Info("envelope cache hit", "key", key, "bytes", len(cached))
		return s.pipeline.ResolveRaw(ctx, cached)
	}

	start := time.Now()
	body, err := s.completer.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	s.log.Info("transcript analyzed", "model", s.completer.Model(), "duration_ms", time.Since(start).Milliseconds())

	res, err := s.pipeline.ResolveRaw(ctx, body)
	if err != nil {
		return res, err
	}
	if err := s.cache.Set(ctx, key, body, s.ttl); err != nil {
		s.log.Warn("envelope cache write failed", "key", key, "error", err)
	}
	return res, nil
}

// CacheKey fingerprints one (model, transcript) request.
func CacheKey(model, transcript string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(transcript))
	return hex.EncodeToString(h.Sum(nil))
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/yungbote/clipfinder/internal/platform/logger"
)

const chatCompletionsPath = "/chat/completions"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Referer     string
	AppTitle    string
	Temperature float64
	// Timeout bounds one HTTP attempt.
	Timeout    time.Duration
	MaxRetries int
	// InitialBackoff is the first retry delay; it grows exponentially.
	InitialBackoff time.Duration
}

// Observer receives one call per HTTP attempt. observability.Metrics implements it.
type Observer interface {
	ObserveLLMRequest(model, status string, dur time.Duration)
}

// Client talks to an OpenAI-compatible chat completions endpoint and returns
// the raw response envelope. It does not interpret the answer.
type Client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
	observer   Observer
}

func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("llm: base_url required")
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		return nil, errors.New("llm: model required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if log == nil {
		log = logger.NewNop()
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		log:        log,
		cfg:        cfg,
		httpClient: &http.Client{Transport: tr},
	}, nil
}

// NewWithHTTPClient is intended for tests; it avoids network access by using a custom RoundTripper.
func NewWithHTTPClient(cfg Config, log *logger.Logger, httpClient *http.Client) (*Client, error) {
	c, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c, nil
}

func (c *Client) WithObserver(o Observer) *Client {
	c.observer = o
	return c
}

func (c *Client) Model() string { return c.cfg.Model }

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream"`
}

// Complete posts the conversation and returns the raw envelope bytes. 429 and
// 5xx responses and network failures are retried with exponential backoff;
// any other 4xx is returned at once.
func (c *Client) Complete(ctx context.Context, messages []Message) ([]byte, error) {
	if len(messages) == 0 {
		return nil, errors.New("llm: no messages")
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		Stream:      false,
	}); err != nil {
		return nil, fmt.Errorf("llm: encode request: %w", err)
	}
	payload := buf.Bytes()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.cfg.InitialBackoff
	eb.MaxInterval = 30 * time.Second

	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		body, err := c.do(ctx, payload)
		if err == nil {
			return body, nil
		}
		var herr *HTTPError
		switch {
		case errors.As(err, &herr) && !herr.Retryable():
			return nil, backoff.Permanent(err)
		case ctx.Err() != nil:
			return nil, backoff.Permanent(err)
		}
		c.log.Warn("llm request failed", "attempt", attempt, "model", c.cfg.Model, "error", err)
		return nil, err
	}

	body, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries+1)),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: chat completion after %d attempt(s): %w", attempt, err)
	}
	c.log.Info("llm response received", "model", c.cfg.Model, "attempts", attempt, "bytes", len(body))
	return body, nil
}

func (c *Client) do(ctx context.Context, payload []byte) ([]byte, error) {
	ctx2, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx2, http.MethodPost, c.cfg.BaseURL+chatCompletionsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe("error", start)
		return nil, err
	}
	defer resp.Body.Close()
	c.observe(strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.AppTitle != "" {
		req.Header.Set("X-Title", c.cfg.AppTitle)
	}
}

func (c *Client) observe(status string, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveLLMRequest(c.cfg.Model, status, time.Since(start))
}

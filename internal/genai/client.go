package genai

import (
	"context"
	"log/slog"
	"time"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/knowledge"
)

// Default model names and call timeout.
const (
	DefaultModel         = "gemini-2.5-flash"
	DefaultFallbackModel = "gemini-2.5-flash-lite"
	DefaultTimeout       = 30 * time.Second
)

// Opts holds configuration options for the generation client.
type Opts struct {
	Model         string
	FallbackModel string
	Timeout       time.Duration
	RateWindow    *RateWindow
	Knowledge     *knowledge.Base
}

// Option defines a function for configuring Opts.
type Option func(*Opts)

// WithModel sets the primary model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithFallbackModel sets the model retried on transient failures. An empty
// name disables the retry.
func WithFallbackModel(model string) Option {
	return func(o *Opts) { o.FallbackModel = model }
}

// WithTimeout bounds each backend attempt.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// WithRateWindow injects the admission gate shared by all operations.
func WithRateWindow(w *RateWindow) Option {
	return func(o *Opts) { o.RateWindow = w }
}

// WithKnowledge appends the corpus to the system instructions.
func WithKnowledge(kb *knowledge.Base) Option {
	return func(o *Opts) { o.Knowledge = kb }
}

// Client is the resilient front of a Backend. A nil *Client is valid and
// behaves as a disabled client.
type Client struct {
	backend       Backend
	model         string
	fallbackModel string
	timeout       time.Duration
	window        *RateWindow
	systemPrompt  string
}

// NewClient wraps backend with the configured resilience policy.
func NewClient(backend Backend, opts ...Option) *Client {
	cfg := Opts{
		Model:         DefaultModel,
		FallbackModel: DefaultFallbackModel,
		Timeout:       DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.RateWindow == nil {
		cfg.RateWindow = NewRateWindow(DefaultRateLimit, DefaultRateWindow, nil)
	}
	slog.Debug("Client.NewClient: creating generation client", "model", cfg.Model, "fallback", cfg.FallbackModel, "timeout", cfg.Timeout)
	return &Client{
		backend:       backend,
		model:         cfg.Model,
		fallbackModel: cfg.FallbackModel,
		timeout:       cfg.Timeout,
		window:        cfg.RateWindow,
		systemPrompt:  BuildSystemPrompt(cfg.Knowledge),
	}
}

// Enabled reports whether the client can reach a backend at all.
func (c *Client) Enabled() bool {
	return c != nil && c.backend != nil
}

// RateLimitStatus exposes the admission window for health reporting.
func (c *Client) RateLimitStatus() RateStatus {
	if c == nil {
		return RateStatus{}
	}
	return c.window.Status()
}

// SystemPrompt returns the instructions sent ahead of legal answers.
func (c *Client) SystemPrompt() string {
	if c == nil {
		return ""
	}
	return c.systemPrompt
}

// call runs one admitted logical request: the primary model, then at most
// one retry on the fallback model. Failures never escape.
func (c *Client) call(ctx context.Context, op string, turns []Turn) (string, bool) {
	if !c.Enabled() {
		return "", false
	}
	if !c.window.Admit() {
		slog.Debug("Client.call: request not admitted", "op", op, "backoff", c.window.InBackoff())
		return "", false
	}

	out, err := c.attempt(ctx, turns, c.model)
	if err == nil {
		return out, true
	}
	slog.Warn("Client.call: primary model failed", "op", op, "model", c.model, "error", clip(err.Error(), 120))

	if IsRetriable(err) && c.fallbackModel != "" {
		out, fbErr := c.attempt(ctx, turns, c.fallbackModel)
		if fbErr == nil {
			return out, true
		}
		slog.Warn("Client.call: fallback model failed", "op", op, "model", c.fallbackModel, "error", clip(fbErr.Error(), 120))
		if IsQuota(fbErr) || IsQuota(err) {
			c.backoff(fbErr)
		}
		return "", false
	}
	if IsQuota(err) {
		c.backoff(err)
	}
	return "", false
}

func (c *Client) attempt(ctx context.Context, turns []Turn, model string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.backend.GenerateText(ctx, turns, model)
}

func (c *Client) backoff(err error) {
	d := QuotaBackoff(err)
	until := c.window.Backoff(d)
	slog.Warn("Client.backoff: quota backoff activated", "duration", d, "until", until)
}

// clip shortens s to at most n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Package textgen is the text-generation collaborator used by the copy and
// deliverable features. Generate never panics and never returns an error
// value: failures come back in Response.Error.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"offer-harvester/utils"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	defaultTimeout = 60 * time.Second
)

// Options tunes a single request. Zero fields take the client defaults.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
	System      string
}

// Response is the outcome of Generate. Exactly one of Text and Error is set.
type Response struct {
	Text     string `json:"text,omitempty"`
	Provider string `json:"provider"`
	Error    string `json:"error,omitempty"`
}

// OK reports whether the request produced text.
func (r Response) OK() bool { return r.Error == "" }

// Provider talks to one text-generation backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Config selects and configures the provider.
type Config struct {
	Provider     string
	Model        string
	Temperature  float64
	OpenAIKey    string
	GoogleAPIKey string
	// BaseURL overrides the provider endpoint.
	BaseURL string
	Timeout time.Duration
}

// Client is a provider-selectable text generator.
type Client struct {
	provider Provider
	initErr  error
	defaults Options
	timeout  time.Duration
	logger   *utils.Logger
}

// New builds a Client. A misconfigured provider does not fail here; every
// Generate call reports the problem instead.
func New(cfg Config, logger *utils.Logger) *Client {
	if logger == nil {
		logger = utils.Discard()
	}
	c := &Client{
		defaults: Options{Model: cfg.Model, Temperature: float32(cfg.Temperature)},
		timeout:  cfg.Timeout,
		logger:   logger,
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}

	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		c.provider, c.initErr = newOpenAI(cfg.OpenAIKey, cfg.BaseURL)
	case ProviderGemini:
		c.provider, c.initErr = newGemini(cfg.GoogleAPIKey, cfg.BaseURL)
	default:
		c.initErr = fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	return c
}

// NewWithProvider wraps an already built provider.
func NewWithProvider(p Provider, defaults Options, logger *utils.Logger) *Client {
	if logger == nil {
		logger = utils.Discard()
	}
	return &Client{provider: p, defaults: defaults, timeout: defaultTimeout, logger: logger}
}

// Generate sends prompt to the provider and waits for the reply.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (resp Response) {
	if c.provider != nil {
		resp.Provider = c.provider.Name()
	}
	defer func() {
		if r := recover(); r != nil {
			resp = Response{Provider: resp.Provider, Error: fmt.Sprintf("provider panicked: %v", r)}
			c.logger.Error("[textgen] %s", resp.Error)
		}
	}()

	if err := c.check(prompt); err != nil {
		return Response{Provider: resp.Provider, Error: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.provider.Complete(ctx, prompt, c.merge(opts))
	if err != nil {
		c.logger.Warn("[textgen] %s request failed: %v", resp.Provider, err)
		return Response{Provider: resp.Provider, Error: err.Error()}
	}
	if strings.TrimSpace(text) == "" {
		return Response{Provider: resp.Provider, Error: "provider returned no text"}
	}
	resp.Text = text
	return resp
}

func (c *Client) check(prompt string) error {
	if c.initErr != nil {
		return c.initErr
	}
	if c.provider == nil {
		return errors.New("no provider configured")
	}
	if strings.TrimSpace(prompt) == "" {
		return errors.New("empty prompt")
	}
	return nil
}

func (c *Client) merge(opts Options) Options {
	if opts.Model == "" {
		opts.Model = c.defaults.Model
	}
	if opts.Temperature == 0 {
		opts.Temperature = c.defaults.Temperature
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = c.defaults.MaxTokens
	}
	if opts.System == "" {
		opts.System = c.defaults.System
	}
	return opts
}

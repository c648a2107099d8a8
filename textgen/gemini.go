package textgen

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// geminiProvider creates its SDK client on first use because the SDK needs
// a context to build one.
type geminiProvider struct {
	apiKey  string
	baseURL string

	once   sync.Once
	client *genai.Client
	err    error
}

func newGemini(apiKey, baseURL string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New("GOOGLE_API_KEY is not set")
	}
	return &geminiProvider{apiKey: apiKey, baseURL: baseURL}, nil
}

func (p *geminiProvider) Name() string { return ProviderGemini }

func (p *geminiProvider) init(ctx context.Context) error {
	p.once.Do(func() {
		cfg := &genai.ClientConfig{APIKey: p.apiKey, Backend: genai.BackendGeminiAPI}
		if p.baseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
		}
		p.client, p.err = genai.NewClient(ctx, cfg)
		if p.err != nil {
			p.err = fmt.Errorf("failed to create gemini client: %w", p.err)
		}
	})
	return p.err
}

func (p *geminiProvider) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := p.init(ctx); err != nil {
		return "", err
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}
	cfg := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		cfg.Temperature = genai.Ptr(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(opts.System, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return resp.Text(), nil
}

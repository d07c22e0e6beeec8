// Package gemini loads Google Gemini models through google.golang.org/genai.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"cold-message/internal/domain"
	"cold-message/internal/integrations/paramstore"
)

const DefaultModel = "gemini-2.0-flash"

// Loader creates a genai client on Load and checks that the model exists.
// It satisfies model.Loader.
type Loader struct {
	model       string
	apiKey      string
	baseURL     string
	getter      paramstore.Getter
	paramPrefix string

	keyOnce sync.Once
	key     string
	keyErr  error
}

type Option func(*Loader)

func WithAPIKey(key string) Option {
	return func(l *Loader) {
		l.apiKey = strings.TrimSpace(key)
	}
}

// WithBaseURL overrides the Gemini API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(l *Loader) {
		l.baseURL = strings.TrimSpace(baseURL)
	}
}

// WithParamStore fetches the API key from "<prefix>/gemini-token" on first use.
func WithParamStore(g paramstore.Getter, paramPrefix string) Option {
	return func(l *Loader) {
		l.getter = g
		l.paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	}
}

func NewLoader(model string, opts ...Option) (*Loader, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	l := &Loader{model: model}
	for _, opt := range opts {
		opt(l)
	}
	if l.apiKey == "" && l.getter == nil {
		return nil, errors.New("gemini: an API key or parameter store is required")
	}
	if l.getter != nil && l.paramPrefix == "" {
		return nil, errors.New("gemini: parameter prefix must not be empty")
	}
	return l, nil
}

func (l *Loader) ModelID() string {
	return l.model
}

func (l *Loader) resolveAPIKey(ctx context.Context) (string, error) {
	l.keyOnce.Do(func() {
		if l.apiKey != "" {
			l.key = l.apiKey
			return
		}
		l.key, l.keyErr = paramstore.FetchToken(ctx, l.getter, l.paramPrefix+"/gemini-token")
	})
	return l.key, l.keyErr
}

// clientConfig builds the genai client configuration for apiKey.
func (l *Loader) clientConfig(apiKey string) *genai.ClientConfig {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if l.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: l.baseURL}
	}
	return cfg
}

func (l *Loader) Load(ctx context.Context) (domain.ModelHandle, error) {
	apiKey, err := l.resolveAPIKey(ctx)
	if err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, l.clientConfig(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	if _, err := client.Models.Get(ctx, l.model, nil); err != nil {
		return nil, fmt.Errorf("gemini: get model %q: %w", l.model, err)
	}
	return &handle{client: client, model: l.model}, nil
}

type handle struct {
	client *genai.Client
	model  string
}

func (h *handle) ModelID() string {
	return h.model
}

func (h *handle) Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	resp, err := h.client.Models.GenerateContent(ctx, h.model, genai.Text(prompt), generateConfig(opts))
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("gemini: response has no text")
	}
	return text, nil
}

// generateConfig maps sampling options to genai; zero values are left unset.
func generateConfig(opts domain.GenerationOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(opts.Temperature))
	}
	if opts.TopP > 0 {
		cfg.TopP = genai.Ptr(float32(opts.TopP))
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	return cfg
}

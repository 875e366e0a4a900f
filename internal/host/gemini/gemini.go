// Package gemini supplies the three host capabilities using a Gemini model.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/hpungsan/parley/internal/config"
	"github.com/hpungsan/parley/internal/host"
)

// ErrNoAPIKey is returned by New when the configured key variable is empty.
var ErrNoAPIKey = errors.New("gemini API key not set")

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error)
}

// Client is a Generator backed by the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini API client for model.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = config.DefaultConfig().GeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Generate implements Generator.
func (c *Client) Generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		var b strings.Builder
		for _, part := range result.Candidates[0].Content.Parts {
			if part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			return b.String(), nil
		}
	}
	return "", fmt.Errorf("empty response from Gemini")
}

// New builds a Surface from config. Without an API key it returns an empty
// surface and ErrNoAPIKey, so callers can still start and report the
// capabilities as missing.
func New(ctx context.Context, cfg *config.Config) (host.Surface, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	client, err := NewClient(ctx, os.Getenv(cfg.GeminiAPIKeyEnv), cfg.GeminiModel)
	if err != nil {
		return host.Surface{}, err
	}
	return NewSurface(client, cfg), nil
}

// NewSurface wires gen into all capabilities not disabled in cfg.
func NewSurface(gen Generator, cfg *config.Config) host.Surface {
	var s host.Surface
	if !cfg.CapabilityDisabled(config.CapabilityDetector) {
		s.Detector = &Detector{gen: gen}
	}
	if !cfg.CapabilityDisabled(config.CapabilitySummarizer) {
		s.Summarizer = &Summarizer{gen: gen}
	}
	if !cfg.CapabilityDisabled(config.CapabilityTranslator) {
		s.Translator = &Translator{gen: gen}
	}
	return s
}

// lowTemperature keeps classification and translation output stable.
func lowTemperature() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.1)}
}

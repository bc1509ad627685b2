package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

const geminiDefault = "gemini-2.0-flash"

type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGemini(ctx context.Context, cfg Config) (*geminiProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client init: %w", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = geminiDefault
	}
	return &geminiProvider{client: c, model: model}, nil
}

func (p *geminiProvider) Name() string { return "gemini:" + p.model }

func (p *geminiProvider) GenerateJSON(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	if p.client == nil {
		return "", ErrNotInitialized
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if schema != nil {
		cfg.ResponseJsonSchema = schema
	}
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate json: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return StripFences(resp.Candidates[0].Content.Parts[0].Text), nil
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const ollamaDefault = "phi4:latest"

type ollamaProvider struct {
	client *api.Client
	model  string
}

func newOllama(cfg Config) (*ollamaProvider, error) {
	var c *api.Client
	if cfg.OllamaHost != "" {
		u, err := url.Parse(cfg.OllamaHost)
		if err != nil {
			return nil, fmt.Errorf("ollama: bad host %q: %w", cfg.OllamaHost, err)
		}
		c = api.NewClient(u, http.DefaultClient)
	} else {
		var err error
		c, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama client init: %w", err)
		}
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = ollamaDefault
	}
	return &ollamaProvider{client: c, model: model}, nil
}

func (p *ollamaProvider) Name() string { return "ollama:" + p.model }

func (p *ollamaProvider) GenerateJSON(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	if p.client == nil {
		return "", ErrNotInitialized
	}
	format := json.RawMessage(`"json"`)
	if schema != nil {
		b, err := json.Marshal(schema)
		if err != nil {
			return "", fmt.Errorf("ollama marshal schema: %w", err)
		}
		format = b
	}

	stream := false
	req := &api.GenerateRequest{
		Model:  p.model,
		Prompt: prompt + "\n\nReturn ONLY strict JSON. No extra text.",
		Format: format,
		Stream: &stream,
	}
	var out strings.Builder
	if err := p.client.Generate(ctx, req, func(gr api.GenerateResponse) error {
		out.WriteString(gr.Response)
		return nil
	}); err != nil {
		return "", fmt.Errorf("ollama generate json: %w", err)
	}
	if out.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return StripFences(out.String()), nil
}

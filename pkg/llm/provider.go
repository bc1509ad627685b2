// Package llm expõe o colaborador de inferência usado pelo caminho primário
// do resolvedor de intenções. Há dois backends: Gemini e Ollama.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotInitialized = errors.New("llm provider not initialized")
	ErrEmptyResponse  = errors.New("llm returned an empty response")
)

// Config seleciona o backend e o modelo
type Config struct {
	Backend    string
	Model      string
	APIKey     string
	OllamaHost string
}

// Provider gera uma resposta JSON para um prompt
type Provider interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, schema map[string]any) (string, error)
}

// New cria o provider do backend configurado ("gemini" por padrão)
func New(ctx context.Context, cfg Config) (Provider, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch backend {
	case "", "gemini":
		return newGemini(ctx, cfg)
	case "ollama":
		return newOllama(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM backend: %s", cfg.Backend)
	}
}

// StripFences remove cercas de markdown que alguns modelos insistem em devolver
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

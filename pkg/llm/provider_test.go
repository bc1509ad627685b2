package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences(" {\"a\":1} "))
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), Config{Backend: "markov"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestNewOllamaWithExplicitHost(t *testing.T) {
	p, err := New(context.Background(), Config{Backend: "ollama", OllamaHost: "http://127.0.0.1:11434", Model: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "ollama:llama3", p.Name())
}

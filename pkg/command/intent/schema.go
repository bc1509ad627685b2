package intent

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed intent.schema.json
var intentSchemaJSON []byte

const intentSchemaURL = "https://kommand.local/schemas/intent.schema.json"

// responseSchema é a forma esperada da resposta do colaborador de inferência
type responseSchema struct {
	compiled *jsonschema.Schema
	// raw vai junto no pedido ao modelo (structured output)
	raw map[string]any
}

func loadResponseSchema() (*responseSchema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(intentSchemaURL, bytes.NewReader(intentSchemaJSON)); err != nil {
		return nil, fmt.Errorf("intent schema load failed: %w", err)
	}
	compiled, err := c.Compile(intentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("intent schema compile failed: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(intentSchemaJSON, &raw); err != nil {
		return nil, fmt.Errorf("intent schema decode failed: %w", err)
	}
	// os provedores não aceitam a chave $schema
	delete(raw, "$schema")
	return &responseSchema{compiled: compiled, raw: raw}, nil
}

// decode valida o JSON bruto contra o schema e o converte na resposta tipada
func (s *responseSchema) decode(raw string) (*inferenceResponse, error) {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("inference response is not JSON: %w", err)
	}
	if err := s.compiled.Validate(doc); err != nil {
		return nil, fmt.Errorf("inference response schema validation failed: %w", err)
	}

	var resp inferenceResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("inference response decode failed: %w", err)
	}
	return &resp, nil
}

type inferenceResponse struct {
	Confidence float64         `json:"confidence"`
	Steps      []inferenceStep `json:"steps"`
}

type inferenceStep struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

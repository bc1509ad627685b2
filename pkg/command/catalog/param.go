package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hugohenrick/kommand/pkg/command"
)

// ParamType é o tipo declarado de um parâmetro
type ParamType string

const (
	TypeInt    ParamType = "int"
	TypeFloat  ParamType = "float"
	TypeString ParamType = "string"
	TypeEnum   ParamType = "enum"
	TypeBool   ParamType = "bool"
	TypeDate   ParamType = "date"
)

// Valores relativos aceitos por parâmetros de data; a capacidade resolve
// contra o relógio
const (
	DateToday     = "today"
	DateYesterday = "yesterday"
	DateLayout    = "2006-01-02"
)

var dateAliases = map[string]string{
	"today":     DateToday,
	"aaj":       DateToday,
	"आज":        DateToday,
	"yesterday": DateYesterday,
	"kal":       DateYesterday,
	"कल":        DateYesterday,
}

// ErrInvalidValue indica que um valor não respeita o ParamSpec
var ErrInvalidValue = errors.New("invalid parameter value")

// ParamSpec descreve um parâmetro de ação
type ParamSpec struct {
	Name     string    `yaml:"name" json:"name"`
	Type     ParamType `yaml:"type" json:"type"`
	Required bool      `yaml:"required" json:"required"`
	// Entity liga o parâmetro a um tipo de entidade da memória de sessão
	Entity string   `yaml:"entity,omitempty" json:"entity,omitempty"`
	Enum   []string `yaml:"enum,omitempty" json:"enum,omitempty"`
	Min    *float64 `yaml:"min,omitempty" json:"min,omitempty"`
}

// Expected descreve o formato aceito, usado nas falhas de validação
func (p ParamSpec) Expected() string {
	var base string
	switch p.Type {
	case TypeInt:
		base = "integer"
	case TypeFloat:
		base = "number"
	case TypeEnum:
		return fmt.Sprintf("one of [%s]", strings.Join(p.Enum, ", "))
	case TypeBool:
		return "boolean"
	case TypeDate:
		return "date YYYY-MM-DD, today or yesterday"
	default:
		return "non-empty text"
	}
	if p.Min != nil {
		return fmt.Sprintf("%s >= %s", base, strconv.FormatFloat(*p.Min, 'f', -1, 64))
	}
	return base
}

// Validate converte o valor para o tipo declarado e verifica faixa e formato.
// Inteiros saem como int64 e números como float64.
func (p ParamSpec) Validate(v any) (any, error) {
	switch p.Type {
	case TypeInt:
		n, err := toInt(v)
		if err != nil {
			return nil, err
		}
		if p.Min != nil && float64(n) < *p.Min {
			return nil, fmt.Errorf("%w: %d below minimum", ErrInvalidValue, n)
		}
		return n, nil
	case TypeFloat:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if p.Min != nil && f < *p.Min {
			return nil, fmt.Errorf("%w: %v below minimum", ErrInvalidValue, f)
		}
		return f, nil
	case TypeEnum:
		s, err := toString(v)
		if err != nil {
			return nil, err
		}
		s = strings.ToLower(s)
		if !slices.Contains(p.Enum, s) {
			return nil, fmt.Errorf("%w: %q not allowed", ErrInvalidValue, s)
		}
		return s, nil
	case TypeBool:
		return toBool(v)
	case TypeDate:
		return toDate(v)
	default:
		return toString(v)
	}
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidValue, n)
		}
		// fora de [-2^63, 2^63) a conversão não é definida
		if n < -(1<<63) || n >= 1<<63 {
			return 0, fmt.Errorf("%w: %v out of range", ErrInvalidValue, n)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidValue, n)
		}
		return i, nil
	case string:
		s := strings.TrimPrefix(strings.TrimSpace(command.ASCIIDigits(n)), "#")
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, n)
		}
		return i, nil
	}
	return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, v)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: not a finite number", ErrInvalidValue)
		}
		return n, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidValue, n)
		}
		return f, nil
	case string:
		s := strings.TrimSpace(command.ASCIIDigits(n))
		s = strings.TrimLeft(s, "₹$")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, v)
}

func toString(v any) (string, error) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case int, int64, float64, json.Number:
		s = fmt.Sprint(t)
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty text", ErrInvalidValue)
	}
	return s, nil
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "1", "haan", "हाँ", "हां":
			return true, nil
		case "false", "no", "0", "nahi", "नहीं":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: %v is not a boolean", ErrInvalidValue, v)
}

// toDate aceita YYYY-MM-DD ou uma data relativa; devolve a forma canônica
func toDate(v any) (string, error) {
	s, err := toString(v)
	if err != nil {
		return "", err
	}
	s = strings.ToLower(command.ASCIIDigits(s))
	if rel, ok := dateAliases[s]; ok {
		return rel, nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q is not a date", ErrInvalidValue, s)
	}
	return s, nil
}

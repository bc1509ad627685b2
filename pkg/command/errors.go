package command

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifica as falhas do pipeline
type Kind string

const (
	KindParseFailure         Kind = "parse_failure"
	KindClarificationNeeded  Kind = "clarification_needed"
	KindValidationFailure    Kind = "validation_failure"
	KindPermissionDenied     Kind = "permission_denied"
	KindNotFound             Kind = "not_found"
	KindConfirmationExpired  Kind = "confirmation_expired"
	KindConfirmationConsumed Kind = "confirmation_already_consumed"
	KindConfirmationUnknown  Kind = "confirmation_unknown"
	KindDomainFailure        Kind = "domain_failure"
	KindRateLimited          Kind = "rate_limited"
)

// Error é a falha tipada devolvida por todos os estágios
type Error struct {
	Kind    Kind
	Action  string
	Message string
	// Fields lista campos ausentes (clarification) ou o campo inválido (validation)
	Fields []string
	// Expected descreve o formato esperado em falhas de validação
	Expected string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Action != "" {
		b.WriteString(" [")
		b.WriteString(e.Action)
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil && e.Message == "" {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is permite errors.Is(err, &Error{Kind: ...}) comparando apenas o tipo
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Action == "" || t.Action == e.Action)
}

// NewError cria um erro do pipeline
func NewError(kind Kind, action, message string) *Error {
	return &Error{Kind: kind, Action: action, Message: message}
}

// ParseFailure indica que nenhum comando foi reconhecido
func ParseFailure(message string) *Error {
	return &Error{Kind: KindParseFailure, Message: message}
}

// ClarificationNeeded lista os parâmetros obrigatórios que faltam
func ClarificationNeeded(action string, fields []string) *Error {
	return &Error{
		Kind:    KindClarificationNeeded,
		Action:  action,
		Fields:  fields,
		Message: fmt.Sprintf("missing required parameters: %s", strings.Join(fields, ", ")),
	}
}

// ValidationFailure nomeia o campo inválido e o formato esperado
func ValidationFailure(action, field, expected string, cause error) *Error {
	return &Error{
		Kind:     KindValidationFailure,
		Action:   action,
		Fields:   []string{field},
		Expected: expected,
		Message:  fmt.Sprintf("invalid value for %s: expected %s", field, expected),
		Err:      cause,
	}
}

// PermissionDenied indica que o papel não pode executar a ação
func PermissionDenied(action string, role Role) *Error {
	return &Error{
		Kind:    KindPermissionDenied,
		Action:  action,
		Message: fmt.Sprintf("role %s is not allowed to run %s", role, action),
	}
}

// KindOf extrai o tipo de um erro; erros desconhecidos viram domain_failure
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return KindDomainFailure
}

// AsError converte qualquer erro em *Error, preenchendo a ação se faltar
func AsError(err error, action string) *Error {
	var cerr *Error
	if errors.As(err, &cerr) {
		if cerr.Action == "" && action != "" {
			cp := *cerr
			cp.Action = action
			return &cp
		}
		return cerr
	}
	msg := "operation failed"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: KindDomainFailure, Action: action, Message: msg, Err: err}
}

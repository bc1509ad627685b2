// Package domain reúne os erros compartilhados pelas entidades do marketplace
// e pelos seus repositórios.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indica que o registro não existe ou está fora do escopo do usuário
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indica violação de unicidade
	ErrDuplicate = errors.New("already exists")
)

// RuleError é a violação de uma regra de negócio. Reason é exibido ao usuário.
type RuleError struct {
	Entity string
	Reason string
}

func (e *RuleError) Error() string {
	return e.Reason
}

// NewRuleError cria um RuleError com mensagem formatada
func NewRuleError(entity, format string, args ...any) *RuleError {
	return &RuleError{Entity: entity, Reason: fmt.Sprintf(format, args...)}
}

// NotFound envolve ErrNotFound com a entidade e o id
func NotFound(entity string, id int64) error {
	return fmt.Errorf("%s %d %w", entity, id, ErrNotFound)
}

// IsRule informa se o erro é uma violação de regra de negócio
func IsRule(err error) bool {
	var rerr *RuleError
	return errors.As(err, &rerr)
}

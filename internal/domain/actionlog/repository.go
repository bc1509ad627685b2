package actionlog

import (
	"context"
)

// Repository define a interface para o log de comandos
type Repository interface {
	// Create grava o registro e preenche o ID
	Create(ctx context.Context, e *Entry) error

	// ListByUser lista os registros do usuário, mais recentes primeiro
	ListByUser(ctx context.Context, userID int64, limit int) ([]*Entry, error)
}

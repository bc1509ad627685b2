package user

import (
	"context"

	"github.com/hugohenrick/kommand/pkg/command"
)

// Repository define a interface para operações de repositório de usuários
type Repository interface {
	// Create cria um novo usuário e preenche o ID
	Create(ctx context.Context, u *User) error

	// FindByID busca um usuário pelo ID
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByEmail busca um usuário pelo email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// List lista usuários, opcionalmente de um papel, com paginação
	List(ctx context.Context, role command.Role, limit, offset int) ([]*User, error)

	// CountByRole conta os usuários de cada papel
	CountByRole(ctx context.Context) (map[command.Role]int, error)

	// UpdateLastLogin atualiza o timestamp de último login do usuário
	UpdateLastLogin(ctx context.Context, id int64) error
}

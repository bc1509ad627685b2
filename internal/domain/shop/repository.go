package shop

import (
	"context"
)

// Filter restringe a listagem de lojas
type Filter struct {
	Status Status
	City   string
}

// Counts agrega as lojas por estado
type Counts struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Pending   int `json:"pending"`
	Suspended int `json:"suspended"`
}

// Repository define a interface para operações de repositório de lojas
type Repository interface {
	// Create cria uma nova loja e preenche o ID
	Create(ctx context.Context, s *Shop) error

	// FindByID busca uma loja pelo ID
	FindByID(ctx context.Context, id int64) (*Shop, error)

	// List lista lojas com filtro e paginação
	List(ctx context.Context, f Filter, limit, offset int) ([]*Shop, error)

	// Update atualiza os dados de uma loja existente
	Update(ctx context.Context, s *Shop) error

	// Delete remove uma loja
	Delete(ctx context.Context, id int64) error

	// Count agrega as lojas por estado
	Count(ctx context.Context) (Counts, error)
}

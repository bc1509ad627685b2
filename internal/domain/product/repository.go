package product

import (
	"context"
)

// Filter restringe a listagem de produtos. ShopID zero lista todas as lojas.
type Filter struct {
	ShopID     int64
	Search     string
	ActiveOnly bool
}

// Repository define a interface para operações de repositório de produtos
type Repository interface {
	// Create cria um novo produto e preenche o ID
	Create(ctx context.Context, p *Product) error

	// FindByID busca um produto pelo ID
	FindByID(ctx context.Context, id int64) (*Product, error)

	// List lista produtos com filtro e paginação
	List(ctx context.Context, f Filter, limit, offset int) ([]*Product, error)

	// LowStock lista os produtos ativos da loja com estoque no limite ou abaixo.
	// threshold zero usa o limite de cada produto.
	LowStock(ctx context.Context, shopID int64, threshold int) ([]*Product, error)

	// Update atualiza os dados de um produto existente
	Update(ctx context.Context, p *Product) error

	// Delete remove um produto
	Delete(ctx context.Context, id int64) error
}

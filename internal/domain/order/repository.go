package order

import (
	"context"
	"time"
)

// Filter restringe a listagem de pedidos. Campos zero não filtram.
type Filter struct {
	ShopID     int64
	CustomerID int64
	Status     Status
}

// Stats agrega pedidos de uma loja (ShopID zero agrega a plataforma)
type Stats struct {
	TotalOrders   int     `json:"total_orders"`
	PendingOrders int     `json:"pending_orders"`
	TodayOrders   int     `json:"today_orders"`
	TotalRevenue  float64 `json:"total_revenue"`
	TodayRevenue  float64 `json:"today_revenue"`
	TotalProfit   float64 `json:"total_profit"`
	Customers     int     `json:"total_customers"`
}

// CustomerSummary resume os pedidos de um cliente em uma loja
type CustomerSummary struct {
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Orders     int       `json:"orders"`
	TotalSpent float64   `json:"total_spent"`
	LastOrder  time.Time `json:"last_order"`
}

// Repository define a interface para operações de repositório de pedidos
type Repository interface {
	// Place grava o pedido e baixa o estoque do produto de forma atômica.
	// Falha com RuleError se o estoque não for suficiente.
	Place(ctx context.Context, o *Order) error

	// FindByID busca um pedido pelo ID
	FindByID(ctx context.Context, id int64) (*Order, error)

	// List lista pedidos com filtro e paginação, mais recentes primeiro
	List(ctx context.Context, f Filter, limit, offset int) ([]*Order, error)

	// Update grava a mudança de estado de um pedido
	Update(ctx context.Context, o *Order) error

	// Cancel grava o cancelamento e devolve o estoque de forma atômica
	Cancel(ctx context.Context, o *Order) error

	// Stats agrega os pedidos da loja; since delimita o "hoje"
	Stats(ctx context.Context, shopID int64, since time.Time) (Stats, error)

	// Customers resume os clientes que compraram na loja
	Customers(ctx context.Context, shopID int64, limit int) ([]CustomerSummary, error)

	// Totals soma os pedidos contados da loja criados em [from, to);
	// instantes zero não limitam
	Totals(ctx context.Context, shopID int64, from, to time.Time) (Totals, error)

	// ProductProfits agrega os pedidos contados da loja por produto, maior
	// lucro primeiro
	ProductProfits(ctx context.Context, shopID int64, limit int) ([]ProductProfit, error)
}

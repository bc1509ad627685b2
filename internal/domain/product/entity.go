package product

import (
	"errors"
	"strings"
	"time"

	"github.com/hugohenrick/kommand/pkg/domain"
)

var (
	ErrEmptyName     = errors.New("product name cannot be empty")
	ErrInvalidPrice  = errors.New("price cannot be negative")
	ErrInvalidAmount = errors.New("quantity cannot be negative")
)

// DefaultMinStockLevel é o limite de estoque baixo quando o produto não define um
const DefaultMinStockLevel = 5

// Product representa um produto de uma loja
type Product struct {
	ID            int64     `json:"id"`
	ShopID        int64     `json:"shop_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         float64   `json:"price"`
	CostPrice     float64   `json:"cost_price,omitempty"`
	MinPrice      float64   `json:"min_price,omitempty"`
	Quantity      int       `json:"quantity"`
	MinStockLevel int       `json:"min_stock_level"`
	Active        bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewProduct cria um novo produto ativo
func NewProduct(shopID int64, name string, price, costPrice float64, quantity int) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if price < 0 || costPrice < 0 {
		return nil, ErrInvalidPrice
	}
	if quantity < 0 {
		return nil, ErrInvalidAmount
	}
	now := time.Now()
	return &Product{
		ShopID:        shopID,
		Name:          name,
		Price:         price,
		CostPrice:     costPrice,
		Quantity:      quantity,
		MinStockLevel: DefaultMinStockLevel,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Restock soma unidades ao estoque
func (p *Product) Restock(quantity int) error {
	if quantity <= 0 {
		return domain.NewRuleError("product", "restock quantity must be positive")
	}
	p.Quantity += quantity
	p.UpdatedAt = time.Now()
	return nil
}

// SetPrice altera o preço de venda
func (p *Product) SetPrice(price float64) error {
	if price < 0 {
		return domain.NewRuleError("product", "price cannot be negative")
	}
	p.Price = price
	p.UpdatedAt = time.Now()
	return nil
}

// CanSupply verifica o estoque disponível para um pedido
func (p *Product) CanSupply(quantity int) error {
	if !p.Active {
		return domain.NewRuleError("product", "product %d is not available", p.ID)
	}
	if p.Quantity < quantity {
		return domain.NewRuleError("product", "not enough stock for %s: available %d, requested %d", p.Name, p.Quantity, quantity)
	}
	return nil
}

// LowStock informa se o estoque está no limite ou abaixo
func (p *Product) LowStock(threshold int) bool {
	if threshold <= 0 {
		threshold = p.MinStockLevel
	}
	return p.Quantity <= threshold
}

// Margin é o lucro unitário ao preço de tabela
func (p *Product) Margin() float64 {
	return p.Price - p.CostPrice
}

// Changes lista os campos alterados por Apply; nil mantém o valor atual
type Changes struct {
	Name          *string
	Description   *string
	Price         *float64
	CostPrice     *float64
	MinPrice      *float64
	MinStockLevel *int
}

// Empty informa se nenhum campo foi informado
func (c Changes) Empty() bool {
	return c.Name == nil && c.Description == nil && c.Price == nil &&
		c.CostPrice == nil && c.MinPrice == nil && c.MinStockLevel == nil
}

// Apply aplica as alterações validando todas antes de mudar o produto
func (p *Product) Apply(c Changes) error {
	if c.Empty() {
		return domain.NewRuleError("product", "nothing to update for product %d", p.ID)
	}
	next := *p
	if c.Name != nil {
		next.Name = strings.TrimSpace(*c.Name)
		if next.Name == "" {
			return domain.NewRuleError("product", "product name cannot be empty")
		}
	}
	if c.Description != nil {
		next.Description = strings.TrimSpace(*c.Description)
	}
	for _, v := range []*float64{c.Price, c.CostPrice, c.MinPrice} {
		if v != nil && *v < 0 {
			return domain.NewRuleError("product", "prices cannot be negative")
		}
	}
	if c.Price != nil {
		next.Price = *c.Price
	}
	if c.CostPrice != nil {
		next.CostPrice = *c.CostPrice
	}
	if c.MinPrice != nil {
		next.MinPrice = *c.MinPrice
	}
	if c.MinStockLevel != nil {
		if *c.MinStockLevel < 0 {
			return domain.NewRuleError("product", "minimum stock level cannot be negative")
		}
		next.MinStockLevel = *c.MinStockLevel
	}
	if next.MinPrice > 0 && next.MinPrice > next.Price {
		return domain.NewRuleError("product", "minimum price %.2f is above the listed price %.2f", next.MinPrice, next.Price)
	}
	next.UpdatedAt = time.Now()
	*p = next
	return nil
}

// SetActive liga ou desliga a venda do produto
func (p *Product) SetActive(active bool) {
	p.Active = active
	p.UpdatedAt = time.Now()
}

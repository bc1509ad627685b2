package order

import (
	"math"
	"slices"
	"time"

	"github.com/hugohenrick/kommand/internal/domain/product"
	"github.com/hugohenrick/kommand/pkg/domain"
)

// Status representa o estado do pedido
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// Order representa um pedido de um produto
type Order struct {
	ID             int64     `json:"id"`
	ShopID         int64     `json:"shop_id"`
	ProductID      int64     `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Quantity       int       `json:"quantity"`
	CostPrice      float64   `json:"cost_price,omitempty"`
	ListedPrice    float64   `json:"listed_price"`
	UnitPrice      float64   `json:"unit_price"`
	TotalAmount    float64   `json:"total_amount"`
	TotalCost      float64   `json:"total_cost,omitempty"`
	Profit         float64   `json:"profit,omitempty"`
	DiscountGiven  float64   `json:"discount_given,omitempty"`
	Status         Status    `json:"status"`
	CustomerID     int64     `json:"customer_id,omitempty"`
	CustomerName   string    `json:"customer_name"`
	CustomerEmail  string    `json:"customer_email,omitempty"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	RefundReason   string    `json:"refund_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Customer identifica quem fez o pedido
type Customer struct {
	ID    int64
	Name  string
	Email string
}

// NewOrder cria um pedido pendente para o produto ao preço unitário informado
func NewOrder(p *product.Product, quantity int, unitPrice float64, c Customer) (*Order, error) {
	if quantity <= 0 {
		return nil, domain.NewRuleError("order", "quantity must be positive")
	}
	if err := p.CanSupply(quantity); err != nil {
		return nil, err
	}
	if c.Name == "" {
		c.Name = "Customer"
	}

	qty := float64(quantity)
	total := round2(unitPrice * qty)
	cost := round2(p.CostPrice * qty)
	now := time.Now()
	o := &Order{
		ShopID:        p.ShopID,
		ProductID:     p.ID,
		ProductName:   p.Name,
		Quantity:      quantity,
		CostPrice:     p.CostPrice,
		ListedPrice:   p.Price,
		UnitPrice:     unitPrice,
		TotalAmount:   total,
		TotalCost:     cost,
		Profit:        round2(total - cost),
		DiscountGiven: round2(math.Max(0, (p.Price-unitPrice)*qty)),
		Status:        StatusPending,
		CustomerID:    c.ID,
		CustomerName:  c.Name,
		CustomerEmail: c.Email,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return o, nil
}

func (o *Order) transition(to Status, from ...Status) error {
	if !slices.Contains(from, o.Status) {
		return domain.NewRuleError("order", "order %d cannot be %s, current status: %s", o.ID, to, o.Status)
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return nil
}

// Confirm aceita um pedido pendente
func (o *Order) Confirm() error {
	return o.transition(StatusConfirmed, StatusPending)
}

// Ship despacha um pedido pendente ou confirmado
func (o *Order) Ship(tracking string) error {
	if err := o.transition(StatusShipped, StatusPending, StatusConfirmed); err != nil {
		return err
	}
	o.TrackingNumber = tracking
	return nil
}

// Deliver marca um pedido enviado como entregue
func (o *Order) Deliver() error {
	return o.transition(StatusDelivered, StatusShipped)
}

// Cancel cancela um pedido que ainda não saiu da loja
func (o *Order) Cancel() error {
	return o.transition(StatusCancelled, StatusPending, StatusConfirmed)
}

// Refund devolve o valor de um pedido pago
func (o *Order) Refund(reason string) error {
	if o.Status == StatusRefunded {
		return domain.NewRuleError("order", "order %d has already been refunded", o.ID)
	}
	if err := o.transition(StatusRefunded, StatusConfirmed, StatusShipped, StatusDelivered); err != nil {
		return err
	}
	if reason == "" {
		reason = "Customer request"
	}
	o.RefundReason = reason
	return nil
}

// Counted informa se o pedido entra nas métricas de receita
func (o *Order) Counted() bool {
	return o.Status != StatusCancelled && o.Status != StatusRefunded
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

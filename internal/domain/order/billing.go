package order

import "time"

// BillType escolhe a visão da nota
type BillType string

const (
	// BillCustomer é a nota do cliente, sem custo nem lucro
	BillCustomer BillType = "customer"
	// BillAdmin traz o detalhamento de custo e lucro para a loja
	BillAdmin BillType = "admin"
)

// Totals soma receita, custo, lucro e desconto de um conjunto de pedidos
type Totals struct {
	Orders   int     `json:"orders"`
	Revenue  float64 `json:"revenue"`
	Cost     float64 `json:"cost"`
	Profit   float64 `json:"profit"`
	Discount float64 `json:"discount_given"`
}

// Add soma um pedido; pedidos que não contam para a receita são ignorados
func (t *Totals) Add(o *Order) {
	if !o.Counted() {
		return
	}
	t.Orders++
	t.Revenue += o.TotalAmount
	t.Cost += o.TotalCost
	t.Profit += o.Profit
	t.Discount += o.DiscountGiven
}

// Rounded arredonda os valores em centavos
func (t Totals) Rounded() Totals {
	t.Revenue = round2(t.Revenue)
	t.Cost = round2(t.Cost)
	t.Profit = round2(t.Profit)
	t.Discount = round2(t.Discount)
	return t
}

// Margin é o lucro percentual sobre o custo
func (t Totals) Margin() float64 {
	if t.Cost <= 0 {
		return 0
	}
	return round2(t.Profit / t.Cost * 100)
}

// ProductProfit agrega as vendas de um produto
type ProductProfit struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitsSold   int     `json:"units_sold"`
	Revenue     float64 `json:"total_revenue"`
	Cost        float64 `json:"total_cost"`
	Profit      float64 `json:"total_profit"`
}

// Rounded arredonda os valores em centavos
func (p ProductProfit) Rounded() ProductProfit {
	p.Revenue = round2(p.Revenue)
	p.Cost = round2(p.Cost)
	p.Profit = round2(p.Profit)
	return p
}

// AvgSellingPrice é a receita média por unidade
func (p ProductProfit) AvgSellingPrice() float64 {
	if p.UnitsSold == 0 {
		return 0
	}
	return round2(p.Revenue / float64(p.UnitsSold))
}

// AvgProfitPerUnit é o lucro médio por unidade
func (p ProductProfit) AvgProfitPerUnit() float64 {
	if p.UnitsSold == 0 {
		return 0
	}
	return round2(p.Profit / float64(p.UnitsSold))
}

// BillItem é uma linha da nota. Os campos de custo só aparecem na visão admin.
type BillItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
	CostPrice float64 `json:"cost_price,omitempty"`
	MRP       float64 `json:"mrp,omitempty"`
	TotalCost float64 `json:"total_cost,omitempty"`
	Profit    float64 `json:"profit,omitempty"`
}

// BillSummary fecha a nota admin
type BillSummary struct {
	Subtotal      float64 `json:"subtotal"`
	TotalCost     float64 `json:"total_cost"`
	TotalProfit   float64 `json:"total_profit"`
	DiscountGiven float64 `json:"discount_given"`
	MarginPercent float64 `json:"profit_margin_percent"`
}

// Bill é a nota de um pedido
type Bill struct {
	Type          BillType     `json:"bill_type"`
	OrderID       int64        `json:"order_id"`
	ShopName      string       `json:"shop_name"`
	Date          string       `json:"date"`
	Items         []BillItem   `json:"items"`
	Subtotal      float64      `json:"subtotal"`
	Tax           float64      `json:"tax"`
	GrandTotal    float64      `json:"grand_total"`
	Summary       *BillSummary `json:"summary,omitempty"`
	CustomerName  string       `json:"customer_name"`
	CustomerEmail string       `json:"customer_email,omitempty"`
	Status        Status       `json:"status"`
}

// Bill monta a nota do pedido na visão pedida
func (o *Order) Bill(t BillType, shopName string) Bill {
	item := BillItem{
		Name:      o.ProductName,
		Quantity:  o.Quantity,
		UnitPrice: o.UnitPrice,
		Total:     o.TotalAmount,
	}
	b := Bill{
		Type:          t,
		OrderID:       o.ID,
		ShopName:      shopName,
		Date:          o.CreatedAt.Format("2006-01-02 15:04"),
		Subtotal:      o.TotalAmount,
		GrandTotal:    o.TotalAmount,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Status:        o.Status,
	}
	if t == BillAdmin {
		item.CostPrice = o.CostPrice
		item.MRP = o.ListedPrice
		item.TotalCost = o.TotalCost
		item.Profit = o.Profit
		totals := Totals{Cost: o.TotalCost, Profit: o.Profit}
		b.Summary = &BillSummary{
			Subtotal:      o.TotalAmount,
			TotalCost:     o.TotalCost,
			TotalProfit:   o.Profit,
			DiscountGiven: o.DiscountGiven,
			MarginPercent: totals.Margin(),
		}
	}
	b.Items = []BillItem{item}
	return b
}

// DayRange devolve [meia-noite, meia-noite seguinte) do dia de t
func DayRange(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

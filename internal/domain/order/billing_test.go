package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalsSkipsUncountedOrders(t *testing.T) {
	orders := []*Order{
		{Status: StatusPending, TotalAmount: 240, TotalCost: 180, Profit: 60},
		{Status: StatusDelivered, TotalAmount: 100.01, TotalCost: 90, Profit: 10.01, DiscountGiven: 20},
		{Status: StatusCancelled, TotalAmount: 999, TotalCost: 1, Profit: 998},
		{Status: StatusRefunded, TotalAmount: 999, TotalCost: 1, Profit: 998},
	}
	var totals Totals
	for _, o := range orders {
		totals.Add(o)
	}
	totals = totals.Rounded()

	assert.Equal(t, 2, totals.Orders)
	assert.InDelta(t, 340.01, totals.Revenue, 0.001)
	assert.InDelta(t, 270.0, totals.Cost, 0.001)
	assert.InDelta(t, 70.01, totals.Profit, 0.001)
	assert.InDelta(t, 20.0, totals.Discount, 0.001)
	assert.InDelta(t, 25.93, totals.Margin(), 0.001)
}

func TestMarginWithoutCost(t *testing.T) {
	assert.Zero(t, Totals{Profit: 50}.Margin())
	assert.Zero(t, Totals{}.Margin())
}

func TestProductProfitAverages(t *testing.T) {
	p := ProductProfit{UnitsSold: 3, Revenue: 100, Profit: 10}
	assert.InDelta(t, 33.33, p.AvgSellingPrice(), 0.001)
	assert.InDelta(t, 3.33, p.AvgProfitPerUnit(), 0.001)

	var none ProductProfit
	assert.Zero(t, none.AvgSellingPrice())
	assert.Zero(t, none.AvgProfitPerUnit())
}

func TestBillViews(t *testing.T) {
	o := &Order{
		ID: 7, ProductName: "Atta 10kg", Quantity: 2,
		CostPrice: 360, ListedPrice: 420, UnitPrice: 400,
		TotalAmount: 800, TotalCost: 720, Profit: 80, DiscountGiven: 40,
		Status: StatusConfirmed, CustomerName: "Priya Verma",
		CreatedAt: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	}

	tests := []struct {
		name    string
		billTyp BillType
		cost    float64
		summary bool
	}{
		{"customer hides cost", BillCustomer, 0, false},
		{"admin shows cost", BillAdmin, 360, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := o.Bill(tt.billTyp, "Sharma General Store")
			assert.Equal(t, tt.billTyp, b.Type)
			assert.Equal(t, "2026-03-01 10:30", b.Date)
			assert.InDelta(t, 800.0, b.GrandTotal, 0.001)
			require.Len(t, b.Items, 1)
			assert.InDelta(t, tt.cost, b.Items[0].CostPrice, 0.001)
			assert.Equal(t, tt.summary, b.Summary != nil)
			if tt.summary {
				assert.InDelta(t, 11.11, b.Summary.MarginPercent, 0.001)
				assert.InDelta(t, 40.0, b.Summary.DiscountGiven, 0.001)
			}
		})
	}
}

func TestDayRange(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	from, to := DayRange(time.Date(2026, 3, 1, 23, 59, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, loc), to)
}

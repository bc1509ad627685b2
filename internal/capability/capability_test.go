package capability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugohenrick/kommand/internal/adapter/repository/memory"
	"github.com/hugohenrick/kommand/internal/domain/order"
	"github.com/hugohenrick/kommand/internal/domain/shop"
	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/catalog"
	"github.com/hugohenrick/kommand/pkg/command/executor"
	"github.com/hugohenrick/kommand/pkg/logger"
)

var (
	superAdmin = command.Caller{UserID: 1, Role: command.RoleSuperAdmin, SessionID: "sa"}
	ravi       = command.Caller{UserID: 2, Role: command.RoleShopAdmin, ShopID: 1, SessionID: "ravi"}
	nisha      = command.Caller{UserID: 4, Role: command.RoleShopAdmin, ShopID: 3, SessionID: "nisha"}
	priya      = command.Caller{UserID: 3, Role: command.RoleCustomer, SessionID: "priya"}
)

type harness struct {
	store *memory.Store
	exec  *executor.Executor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, memory.Seed(context.Background(), store))

	svc := New(Repositories{
		Shops:    store.Shops(),
		Products: store.Products(),
		Orders:   store.Orders(),
		Users:    store.Users(),
	}, logger.NewNop())
	reg := executor.NewRegistry()
	require.NoError(t, svc.Register(reg))

	return &harness{store: store, exec: executor.New(catalog.MustDefault(), reg, logger.NewNop())}
}

func (h *harness) run(c command.Caller, action string, params map[string]any) *command.ActionResult {
	if params == nil {
		params = map[string]any{}
	}
	return h.exec.Execute(context.Background(), command.Step{ID: "s1", Action: action, Params: params}, c)
}

func TestEveryCatalogActionIsRegistered(t *testing.T) {
	svc := New(Repositories{}, logger.NewNop())
	reg := executor.NewRegistry()
	require.NoError(t, svc.Register(reg))
	assert.Empty(t, reg.Missing(catalog.MustDefault()))
}

func TestShopAdminScope(t *testing.T) {
	h := newHarness(t)

	res := h.run(ravi, "get_product", map[string]any{"product_id": int64(1)})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, int64(1), res.Data["id"])
	assert.Equal(t, int64(1), res.Data["product_id"])

	// produto 5 pertence à loja 3
	res = h.run(ravi, "get_product", map[string]any{"product_id": int64(5)})
	assert.False(t, res.Success)
	assert.Equal(t, command.KindNotFound, res.Err.Kind)
	assert.Equal(t, "product 5 not found", res.Message)

	res = h.run(nisha, "list_products", nil)
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Data["count"])

	res = h.run(nisha, "get_order", map[string]any{"order_id": int64(1)})
	assert.Equal(t, command.KindNotFound, res.Err.Kind)
}

func TestCustomerScope(t *testing.T) {
	h := newHarness(t)

	res := h.run(priya, "list_shops", map[string]any{"status": "all"})
	require.True(t, res.Success)
	assert.Equal(t, 2, res.Data["count"])

	res = h.run(priya, "get_shop", map[string]any{"shop_id": int64(2)})
	assert.Equal(t, command.KindNotFound, res.Err.Kind)

	res = h.run(priya, "list_my_orders", nil)
	require.True(t, res.Success)
	assert.Equal(t, 2, res.Data["count"])

	res = h.run(priya, "get_order", map[string]any{"order_id": int64(2)})
	require.True(t, res.Success)
	assert.Equal(t, order.StatusConfirmed, res.Data["status"])
}

func TestRestockAndPrice(t *testing.T) {
	h := newHarness(t)

	res := h.run(ravi, "restock_product", map[string]any{"product_id": int64(2), "quantity": int64(20)})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 23, res.Data["quantity"])
	assert.Equal(t, "Added 20 units to 'Toor Dal 1kg'. New stock: 23", res.Message)
	require.NotNil(t, res.Change)
	assert.Equal(t, command.EntityChange{Entity: "product", Operation: command.OperationUpdated, ID: 2}, *res.Change)

	res = h.run(ravi, "set_product_price", map[string]any{"product_id": int64(2), "price": 150.0})
	require.True(t, res.Success)
	assert.Equal(t, "Updated 'Toor Dal 1kg' price from ₹140.00 to ₹150.00", res.Message)
}

func TestLowStockAndDashboard(t *testing.T) {
	h := newHarness(t)

	res := h.run(ravi, "get_low_stock", nil)
	require.True(t, res.Success)
	assert.Equal(t, 2, res.Data["count"])

	res = h.run(ravi, "get_shop_dashboard", nil)
	require.True(t, res.Success)
	d, ok := res.Data["dashboard"].(Dashboard)
	require.True(t, ok)
	assert.Equal(t, 4, d.TotalProducts)
	assert.Equal(t, 1, d.LowStock)
	assert.Equal(t, 1, d.OutOfStock)
	assert.Equal(t, 2, d.Orders.TotalOrders)
	assert.Equal(t, 1, d.Orders.PendingOrders)
	assert.InDelta(t, 660.0, d.Orders.TotalRevenue, 0.001)
}

func TestOrderLifecycle(t *testing.T) {
	h := newHarness(t)

	steps := []struct {
		action  string
		params  map[string]any
		success bool
		message string
	}{
		{"ship_order", map[string]any{"order_id": int64(1), "tracking_number": "TRK1"}, true, "Order #1 has been marked as shipped (Tracking: TRK1)"},
		{"cancel_order", map[string]any{"order_id": int64(1)}, false, "order 1 cannot be cancelled, current status: shipped"},
		{"deliver_order", map[string]any{"order_id": int64(1)}, true, "Order #1 has been delivered to Priya Verma"},
		{"refund_order", map[string]any{"order_id": int64(1)}, true, "Order #1 has been refunded. Reason: Customer request"},
		{"refund_order", map[string]any{"order_id": int64(1)}, false, "order 1 has already been refunded"},
	}
	for _, st := range steps {
		res := h.run(ravi, st.action, st.params)
		assert.Equal(t, st.success, res.Success, st.action)
		assert.Equal(t, st.message, res.Message, st.action)
	}
}

func TestCancelThenRefundFails(t *testing.T) {
	h := newHarness(t)

	res := h.run(ravi, "cancel_order", map[string]any{"order_id": int64(2)})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, order.StatusCancelled, res.Data["status"])

	p, err := h.store.Products().FindByID(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 25, p.Quantity)

	res = h.run(ravi, "refund_order", map[string]any{"order_id": int64(2)})
	assert.False(t, res.Success)
	assert.Equal(t, command.KindDomainFailure, res.Err.Kind)
	assert.Equal(t, "order 2 cannot be refunded, current status: cancelled", res.Message)
}

func TestPlaceOrder(t *testing.T) {
	h := newHarness(t)

	res := h.run(priya, "place_order", map[string]any{"product_id": int64(5), "quantity": int64(3)})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Order placed successfully! Order #3 for 3x Kaju Katli 500g", res.Message)
	assert.Equal(t, int64(3), res.Data["order_id"])
	assert.Equal(t, command.OperationCreated, res.Change.Operation)

	p, err := h.store.Products().FindByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Quantity)

	res = h.run(priya, "place_order", map[string]any{"product_id": int64(5), "quantity": int64(8)})
	assert.False(t, res.Success)
	assert.Equal(t, command.KindDomainFailure, res.Err.Kind)
	assert.Contains(t, res.Message, "not enough stock")
}

func TestSellAtPrice(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name    string
		params  map[string]any
		success bool
		message string
	}{
		{
			name:    "below minimum",
			params:  map[string]any{"product_id": int64(4), "price": 370.0},
			message: "price ₹370.00 is below minimum ₹380.00, repeat with force to sell anyway",
		},
		{
			name:    "at a loss",
			params:  map[string]any{"product_id": int64(1), "price": 80.0},
			message: "selling at ₹80.00 results in loss of ₹10.00/unit, repeat with force to sell anyway",
		},
		{
			name:    "forced loss",
			params:  map[string]any{"product_id": int64(1), "price": 80.0, "force": true},
			success: true,
			message: "Sale completed! Order #3 - Sold at ₹80.00 (Profit: ₹-10.00)",
		},
		{
			name:    "bargained",
			params:  map[string]any{"product_id": int64(1), "price": 100.0, "quantity": int64(2), "customer_name": "Mohan"},
			success: true,
			message: "Sale completed! Order #4 - Sold at ₹100.00 (Profit: ₹20.00)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.run(ravi, "sell_at_price", tt.params)
			assert.Equal(t, tt.success, res.Success)
			assert.Equal(t, tt.message, res.Message)
		})
	}

	o, err := h.store.Orders().FindByID(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Mohan", o.CustomerName)
	assert.InDelta(t, 40.0, o.DiscountGiven, 0.001)
}

func TestSuperAdminActions(t *testing.T) {
	h := newHarness(t)

	res := h.run(superAdmin, "get_pending_shops", nil)
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Data["count"])

	res = h.run(superAdmin, "verify_shop", map[string]any{"shop_id": int64(2)})
	require.True(t, res.Success)
	assert.Equal(t, "Shop 'Gupta Electronics' has been verified and approved", res.Message)

	res = h.run(superAdmin, "verify_shop", map[string]any{"shop_id": int64(2)})
	assert.Equal(t, "shop 2 is already verified", res.Message)

	res = h.run(superAdmin, "suspend_shop", map[string]any{"shop_id": int64(3)})
	require.True(t, res.Success)

	res = h.run(superAdmin, "get_platform_stats", nil)
	require.True(t, res.Success)
	ps := res.Data["stats"].(PlatformStats)
	assert.Equal(t, 4, ps.TotalUsers)
	assert.Equal(t, 2, ps.TotalShopOwners)
	assert.Equal(t, shop.Counts{Total: 3, Active: 2, Pending: 0, Suspended: 1}, ps.Shops)

	res = h.run(superAdmin, "list_users", map[string]any{"role": "customer"})
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Data["count"])

	res = h.run(superAdmin, "delete_shop", map[string]any{"shop_id": int64(3)})
	require.True(t, res.Success)
	assert.Equal(t, command.OperationDeleted, res.Change.Operation)
}

func TestListCustomers(t *testing.T) {
	h := newHarness(t)

	res := h.run(ravi, "list_customers", nil)
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Data["count"])
	customers := res.Data["customers"].([]order.CustomerSummary)
	assert.Equal(t, "Priya Verma", customers[0].Name)
	assert.Equal(t, 2, customers[0].Orders)
}

func TestUpdateProduct(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name    string
		params  map[string]any
		success bool
		message string
	}{
		{
			name:    "price and cost",
			params:  map[string]any{"product_id": int64(2), "price": 150.0, "cost_price": 120.0},
			success: true,
			message: "Updated product 2 ('Toor Dal 1kg')",
		},
		{
			name:    "rename",
			params:  map[string]any{"product_id": int64(3), "name": "Sugar 2kg", "min_stock_level": int64(8)},
			success: true,
			message: "Updated product 3 ('Sugar 2kg')",
		},
		{
			name:    "nothing to change",
			params:  map[string]any{"product_id": int64(2)},
			message: "nothing to update for product 2",
		},
		{
			name:    "price below minimum",
			params:  map[string]any{"product_id": int64(4), "price": 300.0},
			message: "minimum price 380.00 is above the listed price 300.00",
		},
		{
			name:    "blank name",
			params:  map[string]any{"product_id": int64(1), "name": "  "},
			message: "product name cannot be empty",
		},
		{
			name:    "other shop",
			params:  map[string]any{"product_id": int64(5), "price": 10.0},
			message: "product 5 not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.run(ravi, "update_product", tt.params)
			assert.Equal(t, tt.success, res.Success)
			assert.Equal(t, tt.message, res.Message)
		})
	}

	ctx := context.Background()
	p, err := h.store.Products().FindByID(ctx, 2)
	require.NoError(t, err)
	assert.InDelta(t, 150.0, p.Price, 0.001)
	assert.InDelta(t, 120.0, p.CostPrice, 0.001)

	p, err = h.store.Products().FindByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Sugar 2kg", p.Name)
	assert.Equal(t, 8, p.MinStockLevel)

	// alteração rejeitada não deixa rastro
	p, err = h.store.Products().FindByID(ctx, 4)
	require.NoError(t, err)
	assert.InDelta(t, 420.0, p.Price, 0.001)
}

func TestToggleProductStatus(t *testing.T) {
	h := newHarness(t)

	steps := []struct {
		params  map[string]any
		active  bool
		message string
	}{
		{map[string]any{"product_id": int64(3)}, false, "Product 'Sugar 1kg' is now inactive"},
		{map[string]any{"product_id": int64(3)}, true, "Product 'Sugar 1kg' is now active"},
		{map[string]any{"product_id": int64(3), "status": "inactive"}, false, "Product 'Sugar 1kg' is now inactive"},
		{map[string]any{"product_id": int64(3), "status": "inactive"}, false, "Product 'Sugar 1kg' is now inactive"},
	}
	for _, st := range steps {
		res := h.run(ravi, "toggle_product_status", st.params)
		require.True(t, res.Success, res.Message)
		assert.Equal(t, st.message, res.Message)
		assert.Equal(t, st.active, res.Data["active"])
	}

	// inativo some para o cliente
	res := h.run(priya, "get_product", map[string]any{"product_id": int64(3)})
	assert.Equal(t, command.KindNotFound, res.Err.Kind)
}

func TestGenerateBill(t *testing.T) {
	h := newHarness(t)

	res := h.run(priya, "generate_bill", map[string]any{"order_id": int64(2)})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Generated customer bill for Order #2", res.Message)
	bill := res.Data["bill"].(order.Bill)
	assert.Equal(t, "Sharma General Store", bill.ShopName)
	assert.Nil(t, bill.Summary)
	require.Len(t, bill.Items, 1)
	assert.Zero(t, bill.Items[0].CostPrice)
	assert.InDelta(t, 420.0, bill.GrandTotal, 0.001)

	res = h.run(priya, "generate_bill", map[string]any{"order_id": int64(2), "bill_type": "admin"})
	assert.False(t, res.Success)
	assert.Equal(t, command.KindPermissionDenied, res.Err.Kind)

	res = h.run(ravi, "generate_bill", map[string]any{"order_id": int64(2), "bill_type": "admin"})
	require.True(t, res.Success, res.Message)
	bill = res.Data["bill"].(order.Bill)
	require.NotNil(t, bill.Summary)
	assert.InDelta(t, 360.0, bill.Summary.TotalCost, 0.001)
	assert.InDelta(t, 60.0, bill.Summary.TotalProfit, 0.001)
	assert.InDelta(t, 16.67, bill.Summary.MarginPercent, 0.001)

	res = h.run(nisha, "generate_bill", map[string]any{"order_id": int64(2)})
	assert.Equal(t, command.KindNotFound, res.Err.Kind)
}

func TestProfitReports(t *testing.T) {
	h := newHarness(t)

	res := h.run(ravi, "get_daily_profit", map[string]any{"date": "today"})
	require.True(t, res.Success, res.Message)
	report := res.Data["report"].(ProfitReport)
	assert.Equal(t, 2, report.Orders)
	assert.InDelta(t, 660.0, report.Revenue, 0.001)
	assert.InDelta(t, 120.0, report.Profit, 0.001)
	assert.InDelta(t, 22.22, report.Margin, 0.001)

	res = h.run(ravi, "get_daily_profit", map[string]any{"date": "yesterday"})
	require.True(t, res.Success, res.Message)
	report = res.Data["report"].(ProfitReport)
	assert.Zero(t, report.Orders)
	assert.Zero(t, report.Margin)

	// pedido cancelado sai da soma
	require.True(t, h.run(ravi, "cancel_order", map[string]any{"order_id": int64(1)}).Success)

	res = h.run(ravi, "get_product_profit", nil)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 1, res.Data["count"])
	rows := res.Data["products"].([]ProductProfitRow)
	assert.Equal(t, int64(4), rows[0].ProductID)
	assert.InDelta(t, 420.0, rows[0].AvgSellingPrice, 0.001)
	assert.InDelta(t, 60.0, rows[0].AvgProfitPerUnit, 0.001)
	assert.InDelta(t, 60.0, res.Data["total_profit"], 0.001)

	res = h.run(ravi, "get_profit_summary", nil)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Today: ₹60.00 profit (1 orders) | All time: ₹60.00 profit (1 orders)", res.Message)

	res = h.run(nisha, "get_profit_summary", nil)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 0, res.Data["all_time"].(ProfitReport).Orders)
}

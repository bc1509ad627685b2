package capability

import (
	"context"
	"fmt"
	"time"

	"github.com/hugohenrick/kommand/internal/domain/order"
	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/catalog"
	"github.com/hugohenrick/kommand/pkg/command/executor"
)

// ProfitReport é o total de um período com a margem média
type ProfitReport struct {
	Date string `json:"date,omitempty"`
	order.Totals
	Margin float64 `json:"avg_profit_margin"`
}

func newProfitReport(date string, t order.Totals) ProfitReport {
	return ProfitReport{Date: date, Totals: t, Margin: t.Margin()}
}

// ProductProfitRow acrescenta as médias por unidade ao agregado do produto
type ProductProfitRow struct {
	order.ProductProfit
	AvgSellingPrice  float64 `json:"avg_selling_price"`
	AvgProfitPerUnit float64 `json:"avg_profit_per_unit"`
}

// generateBill monta a nota do pedido. A visão admin, com custo e lucro, é
// negada a clientes.
func (s *Service) generateBill(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	billType := order.BillType(stringParam(p, "bill_type"))
	if billType == "" {
		billType = order.BillCustomer
	}
	if billType == order.BillAdmin && scope.Role == command.RoleCustomer {
		return nil, command.PermissionDenied("generate_bill", scope.Role)
	}

	o, err := s.scopedOrder(ctx, scope, intParam(p, "order_id"))
	if err != nil {
		return nil, err
	}
	shopName := "Shop"
	if sh, err := s.shops.FindByID(ctx, o.ShopID); err == nil {
		shopName = sh.Name
	}

	bill := o.Bill(billType, shopName)
	return command.Succeeded("",
		fmt.Sprintf("Generated %s bill for Order #%d", billType, o.ID),
		orderData(o, map[string]any{"bill": bill, "grand_total": bill.GrandTotal}),
		nil,
	), nil
}

// reportDay resolve o parâmetro de data contra o relógio do serviço
func (s *Service) reportDay(value string) (time.Time, error) {
	now := s.now()
	switch value {
	case "", catalog.DateToday:
		return now, nil
	case catalog.DateYesterday:
		return now.AddDate(0, 0, -1), nil
	}
	return time.ParseInLocation(catalog.DateLayout, value, now.Location())
}

func (s *Service) getDailyProfit(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	sh, err := s.scopedShop(ctx, scope, scope.ShopID)
	if err != nil {
		return nil, err
	}
	day, err := s.reportDay(stringParam(p, "date"))
	if err != nil {
		return nil, fmt.Errorf("data inválida: %w", err)
	}
	from, to := order.DayRange(day)
	totals, err := s.orders.Totals(ctx, sh.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("erro ao somar pedidos do dia: %w", err)
	}

	report := newProfitReport(from.Format(catalog.DateLayout), totals)
	return command.Succeeded("",
		fmt.Sprintf("Profit report for %s: Revenue %s, Profit %s (%.2f%% margin)",
			report.Date, money(report.Revenue), money(report.Profit), report.Margin),
		map[string]any{"id": sh.ID, "shop_id": sh.ID, "report": report},
		nil,
	), nil
}

func (s *Service) getProductProfit(ctx context.Context, scope executor.Scope, _ map[string]any) (*command.ActionResult, error) {
	sh, err := s.scopedShop(ctx, scope, scope.ShopID)
	if err != nil {
		return nil, err
	}
	profits, err := s.orders.ProductProfits(ctx, sh.ID, DefaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("erro ao agregar lucro por produto: %w", err)
	}

	rows := make([]ProductProfitRow, 0, len(profits))
	var total order.Totals
	for _, pp := range profits {
		rows = append(rows, ProductProfitRow{
			ProductProfit:    pp,
			AvgSellingPrice:  pp.AvgSellingPrice(),
			AvgProfitPerUnit: pp.AvgProfitPerUnit(),
		})
		total.Profit += pp.Profit
	}
	total = total.Rounded()

	data := listData("products", rows, len(rows))
	data["total_profit"] = total.Profit
	return command.Succeeded("",
		fmt.Sprintf("Product profit report: %d products, total profit %s", len(rows), money(total.Profit)),
		data,
		nil,
	), nil
}

func (s *Service) getProfitSummary(ctx context.Context, scope executor.Scope, _ map[string]any) (*command.ActionResult, error) {
	sh, err := s.scopedShop(ctx, scope, scope.ShopID)
	if err != nil {
		return nil, err
	}
	from, to := order.DayRange(s.now())
	today, err := s.orders.Totals(ctx, sh.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("erro ao somar pedidos do dia: %w", err)
	}
	allTime, err := s.orders.Totals(ctx, sh.ID, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("erro ao somar pedidos: %w", err)
	}

	return command.Succeeded("",
		fmt.Sprintf("Today: %s profit (%d orders) | All time: %s profit (%d orders)",
			money(today.Profit), today.Orders, money(allTime.Profit), allTime.Orders),
		map[string]any{
			"id":       sh.ID,
			"shop_id":  sh.ID,
			"today":    newProfitReport(from.Format(catalog.DateLayout), today),
			"all_time": newProfitReport("", allTime),
		},
		nil,
	), nil
}

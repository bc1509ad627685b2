package capability

import (
	"context"
	"fmt"

	"github.com/hugohenrick/kommand/internal/domain/order"
	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/executor"
	"github.com/hugohenrick/kommand/pkg/domain"
)

const walkInCustomer = "Walk-in Customer"

func orderData(o *order.Order, extra map[string]any) map[string]any {
	data := entityData("order", o.ID, o, map[string]any{"status": o.Status})
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func (s *Service) listOrders(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	f := order.Filter{Status: order.Status(stringParam(p, "status"))}
	if scope.Role == command.RoleShopAdmin {
		f.ShopID = scope.ShopID
	}
	orders, err := s.orders.List(ctx, f, DefaultListLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar pedidos: %w", err)
	}
	return command.Succeeded("", fmt.Sprintf("Found %d orders", len(orders)), listData("orders", orders, len(orders)), nil), nil
}

func (s *Service) listMyOrders(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	f := order.Filter{CustomerID: scope.UserID, Status: order.Status(stringParam(p, "status"))}
	orders, err := s.orders.List(ctx, f, DefaultListLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar pedidos do cliente: %w", err)
	}
	return command.Succeeded("", fmt.Sprintf("Found %d orders", len(orders)), listData("orders", orders, len(orders)), nil), nil
}

func (s *Service) getOrder(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	o, err := s.scopedOrder(ctx, scope, intParam(p, "order_id"))
	if err != nil {
		return nil, err
	}
	return command.Succeeded("", fmt.Sprintf("Found order #%d", o.ID), orderData(o, nil), nil), nil
}

// transitionOrder aplica a transição de estado e grava o pedido
func (s *Service) transitionOrder(ctx context.Context, scope executor.Scope, p map[string]any, apply func(*order.Order) error, message func(*order.Order) string) (*command.ActionResult, error) {
	o, err := s.scopedOrder(ctx, scope, intParam(p, "order_id"))
	if err != nil {
		return nil, err
	}
	if err := apply(o); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("erro ao atualizar pedido: %w", err)
	}
	return command.Succeeded("", message(o), orderData(o, nil), changed("order", command.OperationUpdated, o.ID)), nil
}

func (s *Service) confirmOrder(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	return s.transitionOrder(ctx, scope, p, (*order.Order).Confirm, func(o *order.Order) string {
		return fmt.Sprintf("Order #%d has been confirmed", o.ID)
	})
}

func (s *Service) shipOrder(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	tracking := stringParam(p, "tracking_number")
	return s.transitionOrder(ctx, scope, p,
		func(o *order.Order) error { return o.Ship(tracking) },
		func(o *order.Order) string {
			if tracking != "" {
				return fmt.Sprintf("Order #%d has been marked as shipped (Tracking: %s)", o.ID, tracking)
			}
			return fmt.Sprintf("Order #%d has been marked as shipped", o.ID)
		})
}

func (s *Service) deliverOrder(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	return s.transitionOrder(ctx, scope, p, (*order.Order).Deliver, func(o *order.Order) string {
		return fmt.Sprintf("Order #%d has been delivered to %s", o.ID, o.CustomerName)
	})
}

func (s *Service) refundOrder(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	reason := stringParam(p, "reason")
	return s.transitionOrder(ctx, scope, p,
		func(o *order.Order) error { return o.Refund(reason) },
		func(o *order.Order) string {
			return fmt.Sprintf("Order #%d has been refunded. Reason: %s", o.ID, o.RefundReason)
		})
}

func (s *Service) cancelOrder(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	o, err := s.scopedOrder(ctx, scope, intParam(p, "order_id"))
	if err != nil {
		return nil, err
	}
	if err := o.Cancel(); err != nil {
		return nil, err
	}
	if err := s.orders.Cancel(ctx, o); err != nil {
		return nil, fmt.Errorf("erro ao cancelar pedido: %w", err)
	}
	return command.Succeeded("",
		fmt.Sprintf("Cancelled order #%d", o.ID),
		orderData(o, nil),
		changed("order", command.OperationUpdated, o.ID),
	), nil
}

func (s *Service) placeOrder(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	pr, err := s.scopedProduct(ctx, scope, intParam(p, "product_id"))
	if err != nil {
		return nil, err
	}
	qty := int(intParam(p, "quantity"))
	if qty == 0 {
		qty = 1
	}

	customer := order.Customer{ID: scope.UserID}
	if s.users != nil {
		if u, err := s.users.FindByID(ctx, scope.UserID); err == nil {
			customer.Name, customer.Email = u.Name, u.Email
		}
	}

	o, err := order.NewOrder(pr, qty, pr.Price, customer)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Place(ctx, o); err != nil {
		return nil, err
	}
	return command.Succeeded("",
		fmt.Sprintf("Order placed successfully! Order #%d for %dx %s", o.ID, qty, pr.Name),
		orderData(o, map[string]any{"product_id": pr.ID, "total": o.TotalAmount}),
		changed("order", command.OperationCreated, o.ID),
	), nil
}

// sellAtPrice registra uma venda negociada. Venda abaixo do preço mínimo ou
// do custo só passa com force.
func (s *Service) sellAtPrice(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	pr, err := s.scopedProduct(ctx, scope, intParam(p, "product_id"))
	if err != nil {
		return nil, err
	}
	price := floatParam(p, "price")
	qty := int(intParam(p, "quantity"))
	if qty == 0 {
		qty = 1
	}
	name := stringParam(p, "customer_name")
	if name == "" {
		name = walkInCustomer
	}

	if !boolParam(p, "force") {
		if pr.MinPrice > 0 && price < pr.MinPrice {
			return nil, domain.NewRuleError("order", "price %s is below minimum %s, repeat with force to sell anyway", money(price), money(pr.MinPrice))
		}
		if pr.CostPrice > 0 && price < pr.CostPrice {
			return nil, domain.NewRuleError("order", "selling at %s results in loss of %s/unit, repeat with force to sell anyway", money(price), money(pr.CostPrice-price))
		}
	}

	o, err := order.NewOrder(pr, qty, price, order.Customer{Name: name})
	if err != nil {
		return nil, err
	}
	if err := s.orders.Place(ctx, o); err != nil {
		return nil, err
	}

	s.log.Info("Venda registrada",
		"order_id", o.ID,
		"product_id", pr.ID,
		"shop_id", pr.ShopID,
		"profit", o.Profit,
	)
	return command.Succeeded("",
		fmt.Sprintf("Sale completed! Order #%d - Sold at %s (Profit: %s)", o.ID, money(price), money(o.Profit)),
		orderData(o, map[string]any{
			"product_id":     pr.ID,
			"product":        pr.Name,
			"quantity":       qty,
			"cost_price":     pr.CostPrice,
			"listed_price":   pr.Price,
			"sold_at":        price,
			"profit":         o.Profit,
			"discount_given": o.DiscountGiven,
		}),
		changed("order", command.OperationCreated, o.ID),
	), nil
}

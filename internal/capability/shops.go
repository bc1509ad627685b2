package capability

import (
	"context"
	"fmt"

	"github.com/hugohenrick/kommand/internal/domain/order"
	"github.com/hugohenrick/kommand/internal/domain/shop"
	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/executor"
)

func (s *Service) listShops(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	f := shop.Filter{Status: shop.Status(stringParam(p, "status")), City: stringParam(p, "city")}
	// clientes só veem lojas ativas e verificadas
	if scope.Role == command.RoleCustomer {
		f.Status = shop.StatusActive
	}
	shops, err := s.shops.List(ctx, f, DefaultListLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar lojas: %w", err)
	}
	return command.Succeeded("", fmt.Sprintf("Found %d shops", len(shops)), listData("shops", shops, len(shops)), nil), nil
}

func (s *Service) getShop(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	sh, err := s.scopedShop(ctx, scope, intParam(p, "shop_id"))
	if err != nil {
		return nil, err
	}
	return command.Succeeded("", "Found shop: "+sh.Name, entityData("shop", sh.ID, sh, map[string]any{"status": sh.Status()}), nil), nil
}

func (s *Service) getPendingShops(ctx context.Context, _ executor.Scope, _ map[string]any) (*command.ActionResult, error) {
	shops, err := s.shops.List(ctx, shop.Filter{Status: shop.StatusPending}, DefaultListLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar lojas pendentes: %w", err)
	}
	return command.Succeeded("", fmt.Sprintf("Found %d shops pending verification", len(shops)), listData("shops", shops, len(shops)), nil), nil
}

// updateShop aplica uma transição à loja e grava
func (s *Service) updateShop(ctx context.Context, scope executor.Scope, p map[string]any, apply func(*shop.Shop) error, message string) (*command.ActionResult, error) {
	sh, err := s.scopedShop(ctx, scope, intParam(p, "shop_id"))
	if err != nil {
		return nil, err
	}
	if err := apply(sh); err != nil {
		return nil, err
	}
	if err := s.shops.Update(ctx, sh); err != nil {
		return nil, fmt.Errorf("erro ao atualizar loja: %w", err)
	}
	return command.Succeeded("",
		fmt.Sprintf(message, sh.Name),
		entityData("shop", sh.ID, sh, map[string]any{"status": sh.Status()}),
		changed("shop", command.OperationUpdated, sh.ID),
	), nil
}

func (s *Service) verifyShop(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	return s.updateShop(ctx, scope, p, (*shop.Shop).Verify, "Shop '%s' has been verified and approved")
}

func (s *Service) suspendShop(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	return s.updateShop(ctx, scope, p, (*shop.Shop).Suspend, "Shop '%s' has been suspended")
}

func (s *Service) activateShop(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	return s.updateShop(ctx, scope, p, (*shop.Shop).Activate, "Shop '%s' has been activated")
}

func (s *Service) deleteShop(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	sh, err := s.scopedShop(ctx, scope, intParam(p, "shop_id"))
	if err != nil {
		return nil, err
	}
	if err := s.shops.Delete(ctx, sh.ID); err != nil {
		return nil, fmt.Errorf("erro ao remover loja: %w", err)
	}
	return command.Succeeded("",
		fmt.Sprintf("Deleted shop %d", sh.ID),
		map[string]any{"id": sh.ID, "shop_id": sh.ID, "name": sh.Name},
		changed("shop", command.OperationDeleted, sh.ID),
	), nil
}

// Dashboard resume a loja do shop_admin
type Dashboard struct {
	ShopID         int64       `json:"shop_id"`
	ShopName       string      `json:"shop_name"`
	TotalProducts  int         `json:"total_products"`
	ActiveProducts int         `json:"active_products"`
	LowStock       int         `json:"low_stock"`
	OutOfStock     int         `json:"out_of_stock"`
	InventoryValue float64     `json:"inventory_value"`
	Orders         order.Stats `json:"orders"`
}

func (s *Service) getShopDashboard(ctx context.Context, scope executor.Scope, _ map[string]any) (*command.ActionResult, error) {
	sh, err := s.scopedShop(ctx, scope, scope.ShopID)
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx, productFilter(scope.ShopID), 0, 0)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar produtos: %w", err)
	}
	stats, err := s.orders.Stats(ctx, sh.ID, startOfDay(s.now()))
	if err != nil {
		return nil, fmt.Errorf("erro ao calcular estatísticas: %w", err)
	}

	d := Dashboard{ShopID: sh.ID, ShopName: sh.Name, TotalProducts: len(products), Orders: stats}
	for _, pr := range products {
		if !pr.Active {
			continue
		}
		d.ActiveProducts++
		d.InventoryValue += pr.Price * float64(pr.Quantity)
		switch {
		case pr.Quantity == 0:
			d.OutOfStock++
		case pr.LowStock(0):
			d.LowStock++
		}
	}
	return command.Succeeded("", fmt.Sprintf("Dashboard stats for '%s'", sh.Name),
		map[string]any{"id": sh.ID, "shop_id": sh.ID, "dashboard": d}, nil), nil
}

// PlatformStats resume a plataforma para o super_admin
type PlatformStats struct {
	TotalUsers      int         `json:"total_users"`
	TotalShopOwners int         `json:"total_shop_owners"`
	TotalCustomers  int         `json:"total_customers"`
	Shops           shop.Counts `json:"shops"`
	Orders          order.Stats `json:"orders"`
}

func (s *Service) getPlatformStats(ctx context.Context, _ executor.Scope, _ map[string]any) (*command.ActionResult, error) {
	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao contar usuários: %w", err)
	}
	counts, err := s.shops.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao contar lojas: %w", err)
	}
	stats, err := s.orders.Stats(ctx, 0, startOfDay(s.now()))
	if err != nil {
		return nil, fmt.Errorf("erro ao calcular estatísticas: %w", err)
	}

	ps := PlatformStats{
		TotalShopOwners: byRole[command.RoleShopAdmin],
		TotalCustomers:  byRole[command.RoleCustomer],
		Shops:           counts,
		Orders:          stats,
	}
	for _, n := range byRole {
		ps.TotalUsers += n
	}
	return command.Succeeded("", "Platform statistics retrieved", map[string]any{"stats": ps}, nil), nil
}

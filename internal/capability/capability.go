// Package capability implementa as ações de domínio do marketplace e as
// registra no executor. Cada capacidade aplica o escopo do chamador: um
// shop_admin só enxerga a própria loja e um cliente só os próprios pedidos.
package capability

import (
	"context"
	"fmt"
	"time"

	"github.com/hugohenrick/kommand/internal/domain/order"
	"github.com/hugohenrick/kommand/internal/domain/product"
	"github.com/hugohenrick/kommand/internal/domain/shop"
	"github.com/hugohenrick/kommand/internal/domain/user"
	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/executor"
	"github.com/hugohenrick/kommand/pkg/domain"
	"github.com/hugohenrick/kommand/pkg/logger"
)

// DefaultListLimit limita as listagens feitas por comando
const DefaultListLimit = 50

// Repositories agrupa os repositórios usados pelas capacidades
type Repositories struct {
	Shops    shop.Repository
	Products product.Repository
	Orders   order.Repository
	Users    user.Repository
}

// Service reúne as capacidades de domínio
type Service struct {
	shops    shop.Repository
	products product.Repository
	orders   order.Repository
	users    user.Repository
	log      logger.Logger
	now      func() time.Time
}

// New cria o serviço de capacidades
func New(repos Repositories, log logger.Logger) *Service {
	return &Service{
		shops:    repos.Shops,
		products: repos.Products,
		orders:   repos.Orders,
		users:    repos.Users,
		log:      log,
		now:      time.Now,
	}
}

// Register registra todas as capacidades no registro do executor
func (s *Service) Register(reg *executor.Registry) error {
	caps := map[string]executor.Capability{
		// lojas e plataforma
		"list_shops":         s.listShops,
		"get_shop":           s.getShop,
		"get_pending_shops":  s.getPendingShops,
		"verify_shop":        s.verifyShop,
		"suspend_shop":       s.suspendShop,
		"activate_shop":      s.activateShop,
		"delete_shop":        s.deleteShop,
		"get_shop_dashboard": s.getShopDashboard,
		"get_platform_stats": s.getPlatformStats,
		"list_users":         s.listUsers,
		"get_user":           s.getUser,
		"list_customers":     s.listCustomers,

		// produtos
		"create_product":        s.createProduct,
		"list_products":         s.listProducts,
		"get_product":           s.getProduct,
		"search_products":       s.searchProducts,
		"get_low_stock":         s.getLowStock,
		"restock_product":       s.restockProduct,
		"set_product_price":     s.setProductPrice,
		"update_product":        s.updateProduct,
		"toggle_product_status": s.toggleProductStatus,
		"delete_product":        s.deleteProduct,

		// pedidos
		"sell_at_price":  s.sellAtPrice,
		"list_orders":    s.listOrders,
		"get_order":      s.getOrder,
		"confirm_order":  s.confirmOrder,
		"ship_order":     s.shipOrder,
		"deliver_order":  s.deliverOrder,
		"cancel_order":   s.cancelOrder,
		"refund_order":   s.refundOrder,
		"place_order":    s.placeOrder,
		"list_my_orders": s.listMyOrders,

		// nota e lucro
		"generate_bill":      s.generateBill,
		"get_daily_profit":   s.getDailyProfit,
		"get_product_profit": s.getProductProfit,
		"get_profit_summary": s.getProfitSummary,
	}
	for name, c := range caps {
		if err := reg.Register(name, c); err != nil {
			return err
		}
	}
	return nil
}

// Parâmetros chegam validados pelo binder: int64, float64, string ou bool

func intParam(p map[string]any, name string) int64 {
	v, _ := p[name].(int64)
	return v
}

func floatParam(p map[string]any, name string) float64 {
	v, _ := p[name].(float64)
	return v
}

func stringParam(p map[string]any, name string) string {
	v, _ := p[name].(string)
	return v
}

func boolParam(p map[string]any, name string) bool {
	v, _ := p[name].(bool)
	return v
}

// entityData monta os dados de resultado de uma entidade com "id" e
// "<entidade>_id", consumidos pela memória de sessão e pelos planos
func entityData(entity string, id int64, value any, extra map[string]any) map[string]any {
	data := map[string]any{
		"id":            id,
		entity + "_id": id,
		entity:         value,
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func listData(key string, items any, count int) map[string]any {
	return map[string]any{key: items, "count": count}
}

func changed(entity string, op command.Operation, id int64) *command.EntityChange {
	return &command.EntityChange{Entity: entity, Operation: op, ID: id}
}

// scopedProduct carrega o produto e esconde produtos de outras lojas
func (s *Service) scopedProduct(ctx context.Context, scope executor.Scope, id int64) (*product.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch scope.Role {
	case command.RoleShopAdmin:
		if p.ShopID != scope.ShopID {
			return nil, domain.NotFound("product", id)
		}
	case command.RoleCustomer:
		if !p.Active {
			return nil, domain.NotFound("product", id)
		}
	}
	return p, nil
}

// scopedOrder carrega o pedido respeitando loja e cliente
func (s *Service) scopedOrder(ctx context.Context, scope executor.Scope, id int64) (*order.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch scope.Role {
	case command.RoleShopAdmin:
		if o.ShopID != scope.ShopID {
			return nil, domain.NotFound("order", id)
		}
	case command.RoleCustomer:
		if o.CustomerID != scope.UserID {
			return nil, domain.NotFound("order", id)
		}
	}
	return o, nil
}

func (s *Service) scopedShop(ctx context.Context, scope executor.Scope, id int64) (*shop.Shop, error) {
	sh, err := s.shops.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope.Role == command.RoleCustomer && !sh.Visible() {
		return nil, domain.NotFound("shop", id)
	}
	if scope.Role == command.RoleShopAdmin && sh.ID != scope.ShopID {
		return nil, domain.NotFound("shop", id)
	}
	return sh, nil
}

// startOfDay devolve a meia-noite local do instante informado
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func money(v float64) string {
	return fmt.Sprintf("₹%.2f", v)
}

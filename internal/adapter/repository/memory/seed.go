package memory

import (
	"context"
	"fmt"

	"github.com/hugohenrick/kommand/internal/domain/order"
	"github.com/hugohenrick/kommand/internal/domain/product"
	"github.com/hugohenrick/kommand/internal/domain/shop"
	"github.com/hugohenrick/kommand/internal/domain/user"
	"github.com/hugohenrick/kommand/pkg/command"
)

// SeedPassword é a senha dos usuários de demonstração
const SeedPassword = "kommand123"

// Repositories é o conjunto de repositórios que Seed preenche; Store e o
// adaptador Postgres o implementam
type Repositories interface {
	Shops() shop.Repository
	Products() product.Repository
	Orders() order.Repository
	Users() user.Repository
}

// Seed carrega dados de demonstração: três lojas (uma pendente), um usuário
// por papel, cinco produtos e dois pedidos. Os IDs assumem repositórios vazios.
func Seed(ctx context.Context, s Repositories) error {
	shops := []struct {
		name, category, owner, email, city string
		verified                           bool
	}{
		{"Sharma General Store", "Grocery", "Ravi Sharma", "ravi@sharma.in", "Mumbai", true},
		{"Gupta Electronics", "Electronics", "Amit Gupta", "amit@gupta.in", "Delhi", false},
		{"Patel Sweets", "Sweets", "Nisha Patel", "nisha@patel.in", "Ahmedabad", true},
	}
	for _, x := range shops {
		sh, err := shop.NewShop(x.name, x.category, x.owner, x.email, x.city)
		if err != nil {
			return err
		}
		sh.Verified = x.verified
		if err := s.Shops().Create(ctx, sh); err != nil {
			return fmt.Errorf("erro ao criar loja %s: %w", x.name, err)
		}
	}

	users := []struct {
		email, name string
		role        command.Role
		shopID      int64
	}{
		{"admin@kommand.dev", "Platform Admin", command.RoleSuperAdmin, 0},
		{"ravi@sharma.in", "Ravi Sharma", command.RoleShopAdmin, 1},
		{"priya@example.in", "Priya Verma", command.RoleCustomer, 0},
		{"nisha@patel.in", "Nisha Patel", command.RoleShopAdmin, 3},
	}
	for _, x := range users {
		u, err := user.NewUser(x.email, x.name, SeedPassword, x.role, x.shopID)
		if err != nil {
			return err
		}
		u.Verified = true
		if err := s.Users().Create(ctx, u); err != nil {
			return fmt.Errorf("erro ao criar usuário %s: %w", x.email, err)
		}
	}

	products := []struct {
		shopID      int64
		name        string
		price, cost float64
		qty         int
		minPrice    float64
	}{
		{1, "Basmati Rice 5kg", 120, 90, 50, 0},
		{1, "Toor Dal 1kg", 140, 110, 3, 0},
		{1, "Sugar 1kg", 45, 38, 0, 0},
		{1, "Atta 10kg", 420, 360, 25, 380},
		{3, "Kaju Katli 500g", 800, 550, 10, 0},
	}
	for _, x := range products {
		p, err := product.NewProduct(x.shopID, x.name, x.price, x.cost, x.qty)
		if err != nil {
			return err
		}
		p.MinPrice = x.minPrice
		if err := s.Products().Create(ctx, p); err != nil {
			return fmt.Errorf("erro ao criar produto %s: %w", x.name, err)
		}
	}

	customer := order.Customer{ID: 3, Name: "Priya Verma", Email: "priya@example.in"}
	for i, x := range []struct {
		productID int64
		qty       int
		confirm   bool
	}{{1, 2, false}, {4, 1, true}} {
		p, err := s.Products().FindByID(ctx, x.productID)
		if err != nil {
			return err
		}
		o, err := order.NewOrder(p, x.qty, p.Price, customer)
		if err != nil {
			return err
		}
		if err := s.Orders().Place(ctx, o); err != nil {
			return fmt.Errorf("erro ao criar pedido %d: %w", i+1, err)
		}
		if x.confirm {
			if err := o.Confirm(); err != nil {
				return err
			}
			if err := s.Orders().Update(ctx, o); err != nil {
				return err
			}
		}
	}
	return nil
}

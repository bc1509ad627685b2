// Package memory implementa os repositórios em memória, usados pelo console
// e pelos testes. Todas as entidades são copiadas na entrada e na saída.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hugohenrick/kommand/internal/domain/actionlog"
	"github.com/hugohenrick/kommand/internal/domain/order"
	"github.com/hugohenrick/kommand/internal/domain/product"
	"github.com/hugohenrick/kommand/internal/domain/shop"
	"github.com/hugohenrick/kommand/internal/domain/user"
	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/domain"
)

// Store guarda todas as entidades sob um único lock, o que torna atômicas
// as operações que tocam pedido e estoque
type Store struct {
	mu       sync.RWMutex
	shops    map[int64]shop.Shop
	products map[int64]product.Product
	orders   map[int64]order.Order
	users    map[int64]user.User
	logs     []actionlog.Entry
	seq      map[string]int64
}

// NewStore cria um armazenamento vazio
func NewStore() *Store {
	return &Store{
		shops:    make(map[int64]shop.Shop),
		products: make(map[int64]product.Product),
		orders:   make(map[int64]order.Order),
		users:    make(map[int64]user.User),
		seq:      make(map[string]int64),
	}
}

func (s *Store) next(kind string) int64 {
	s.seq[kind]++
	return s.seq[kind]
}

// Shops devolve o repositório de lojas
func (s *Store) Shops() shop.Repository { return &ShopRepository{s} }

// Products devolve o repositório de produtos
func (s *Store) Products() product.Repository { return &ProductRepository{s} }

// Orders devolve o repositório de pedidos
func (s *Store) Orders() order.Repository { return &OrderRepository{s} }

// Users devolve o repositório de usuários
func (s *Store) Users() user.Repository { return &UserRepository{s} }

// ActionLogs devolve o repositório do log de comandos
func (s *Store) ActionLogs() actionlog.Repository { return &ActionLogRepository{s} }

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ShopRepository implementa shop.Repository em memória
type ShopRepository struct{ s *Store }

// Create implementa shop.Repository.Create
func (r *ShopRepository) Create(_ context.Context, sh *shop.Shop) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sh.ID = r.s.next("shop")
	r.s.shops[sh.ID] = *sh
	return nil
}

// FindByID implementa shop.Repository.FindByID
func (r *ShopRepository) FindByID(_ context.Context, id int64) (*shop.Shop, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sh, ok := r.s.shops[id]
	if !ok {
		return nil, domain.NotFound("shop", id)
	}
	return &sh, nil
}

// List implementa shop.Repository.List
func (r *ShopRepository) List(_ context.Context, f shop.Filter, limit, offset int) ([]*shop.Shop, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*shop.Shop, 0, len(r.s.shops))
	for _, sh := range r.s.shops {
		if f.Status != "" && f.Status != shop.StatusAll && sh.Status() != f.Status {
			continue
		}
		if f.City != "" && !strings.EqualFold(sh.City, f.City) {
			continue
		}
		out = append(out, &sh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

// Update implementa shop.Repository.Update
func (r *ShopRepository) Update(_ context.Context, sh *shop.Shop) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.shops[sh.ID]; !ok {
		return domain.NotFound("shop", sh.ID)
	}
	r.s.shops[sh.ID] = *sh
	return nil
}

// Delete implementa shop.Repository.Delete; os produtos da loja saem junto
func (r *ShopRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.shops[id]; !ok {
		return domain.NotFound("shop", id)
	}
	delete(r.s.shops, id)
	for pid, p := range r.s.products {
		if p.ShopID == id {
			delete(r.s.products, pid)
		}
	}
	return nil
}

// Count implementa shop.Repository.Count
func (r *ShopRepository) Count(_ context.Context) (shop.Counts, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var c shop.Counts
	for _, sh := range r.s.shops {
		c.Total++
		switch sh.Status() {
		case shop.StatusActive:
			c.Active++
		case shop.StatusPending:
			c.Pending++
		case shop.StatusSuspended:
			c.Suspended++
		}
	}
	return c, nil
}

// ProductRepository implementa product.Repository em memória
type ProductRepository struct{ s *Store }

// Create implementa product.Repository.Create
func (r *ProductRepository) Create(_ context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.shops[p.ShopID]; !ok {
		return domain.NotFound("shop", p.ShopID)
	}
	p.ID = r.s.next("product")
	r.s.products[p.ID] = *p
	return nil
}

// FindByID implementa product.Repository.FindByID
func (r *ProductRepository) FindByID(_ context.Context, id int64) (*product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.NotFound("product", id)
	}
	return &p, nil
}

// List implementa product.Repository.List
func (r *ProductRepository) List(_ context.Context, f product.Filter, limit, offset int) ([]*product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]*product.Product, 0)
	for _, p := range r.s.products {
		if f.ShopID != 0 && p.ShopID != f.ShopID {
			continue
		}
		if f.ActiveOnly && !p.Active {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

// LowStock implementa product.Repository.LowStock
func (r *ProductRepository) LowStock(_ context.Context, shopID int64, threshold int) ([]*product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*product.Product, 0)
	for _, p := range r.s.products {
		if p.ShopID != shopID || !p.Active || !p.LowStock(threshold) {
			continue
		}
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Update implementa product.Repository.Update
func (r *ProductRepository) Update(_ context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; !ok {
		return domain.NotFound("product", p.ID)
	}
	r.s.products[p.ID] = *p
	return nil
}

// Delete implementa product.Repository.Delete
func (r *ProductRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return domain.NotFound("product", id)
	}
	delete(r.s.products, id)
	return nil
}

// OrderRepository implementa order.Repository em memória
type OrderRepository struct{ s *Store }

// Place implementa order.Repository.Place
func (r *OrderRepository) Place(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[o.ProductID]
	if !ok {
		return domain.NotFound("product", o.ProductID)
	}
	if err := p.CanSupply(o.Quantity); err != nil {
		return err
	}
	p.Quantity -= o.Quantity
	p.UpdatedAt = time.Now()
	r.s.products[p.ID] = p

	if sh, ok := r.s.shops[o.ShopID]; ok {
		sh.RecordSale(o.TotalAmount)
		r.s.shops[sh.ID] = sh
	}

	o.ID = r.s.next("order")
	r.s.orders[o.ID] = *o
	return nil
}

// FindByID implementa order.Repository.FindByID
func (r *OrderRepository) FindByID(_ context.Context, id int64) (*order.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.NotFound("order", id)
	}
	return &o, nil
}

// List implementa order.Repository.List
func (r *OrderRepository) List(_ context.Context, f order.Filter, limit, offset int) ([]*order.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*order.Order, 0)
	for _, o := range r.s.orders {
		if f.ShopID != 0 && o.ShopID != f.ShopID {
			continue
		}
		if f.CustomerID != 0 && o.CustomerID != f.CustomerID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, &o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, limit, offset), nil
}

// Update implementa order.Repository.Update
func (r *OrderRepository) Update(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[o.ID]; !ok {
		return domain.NotFound("order", o.ID)
	}
	r.s.orders[o.ID] = *o
	return nil
}

// Cancel implementa order.Repository.Cancel
func (r *OrderRepository) Cancel(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[o.ID]; !ok {
		return domain.NotFound("order", o.ID)
	}
	if p, ok := r.s.products[o.ProductID]; ok {
		p.Quantity += o.Quantity
		p.UpdatedAt = time.Now()
		r.s.products[p.ID] = p
	}
	r.s.orders[o.ID] = *o
	return nil
}

// Stats implementa order.Repository.Stats
func (r *OrderRepository) Stats(_ context.Context, shopID int64, since time.Time) (order.Stats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var st order.Stats
	customers := make(map[string]struct{})
	for _, o := range r.s.orders {
		if shopID != 0 && o.ShopID != shopID {
			continue
		}
		st.TotalOrders++
		if o.Status == order.StatusPending {
			st.PendingOrders++
		}
		customers[customerKey(&o)] = struct{}{}
		if !o.Counted() {
			continue
		}
		st.TotalRevenue += o.TotalAmount
		st.TotalProfit += o.Profit
		if !o.CreatedAt.Before(since) {
			st.TodayOrders++
			st.TodayRevenue += o.TotalAmount
		}
	}
	st.Customers = len(customers)
	return st, nil
}

// Customers implementa order.Repository.Customers
func (r *OrderRepository) Customers(_ context.Context, shopID int64, limit int) ([]order.CustomerSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	byKey := make(map[string]*order.CustomerSummary)
	for _, o := range r.s.orders {
		if o.ShopID != shopID {
			continue
		}
		k := customerKey(&o)
		c, ok := byKey[k]
		if !ok {
			c = &order.CustomerSummary{Name: o.CustomerName, Email: o.CustomerEmail}
			byKey[k] = c
		}
		c.Orders++
		if o.Counted() {
			c.TotalSpent += o.TotalAmount
		}
		if o.CreatedAt.After(c.LastOrder) {
			c.LastOrder = o.CreatedAt
		}
	}
	out := make([]order.CustomerSummary, 0, len(byKey))
	for _, c := range byKey {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSpent != out[j].TotalSpent {
			return out[i].TotalSpent > out[j].TotalSpent
		}
		return out[i].Name < out[j].Name
	})
	return page(out, limit, 0), nil
}

// Totals implementa order.Repository.Totals
func (r *OrderRepository) Totals(_ context.Context, shopID int64, from, to time.Time) (order.Totals, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var t order.Totals
	for _, o := range r.s.orders {
		if o.ShopID != shopID {
			continue
		}
		if !from.IsZero() && o.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !o.CreatedAt.Before(to) {
			continue
		}
		t.Add(&o)
	}
	return t.Rounded(), nil
}

// ProductProfits implementa order.Repository.ProductProfits
func (r *OrderRepository) ProductProfits(_ context.Context, shopID int64, limit int) ([]order.ProductProfit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	byProduct := make(map[int64]*order.ProductProfit)
	for _, o := range r.s.orders {
		if o.ShopID != shopID || !o.Counted() {
			continue
		}
		p, ok := byProduct[o.ProductID]
		if !ok {
			p = &order.ProductProfit{ProductID: o.ProductID, ProductName: o.ProductName}
			byProduct[o.ProductID] = p
		}
		p.UnitsSold += o.Quantity
		p.Revenue += o.TotalAmount
		p.Cost += o.TotalCost
		p.Profit += o.Profit
	}
	out := make([]order.ProductProfit, 0, len(byProduct))
	for _, p := range byProduct {
		out = append(out, p.Rounded())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Profit != out[j].Profit {
			return out[i].Profit > out[j].Profit
		}
		return out[i].ProductID < out[j].ProductID
	})
	return page(out, limit, 0), nil
}

func customerKey(o *order.Order) string {
	if o.CustomerEmail != "" {
		return strings.ToLower(o.CustomerEmail)
	}
	return strings.ToLower(o.CustomerName)
}

// UserRepository implementa user.Repository em memória
type UserRepository struct{ s *Store }

// Create implementa user.Repository.Create
func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicate
		}
	}
	u.ID = r.s.next("user")
	r.s.users[u.ID] = *u
	return nil
}

// FindByID implementa user.Repository.FindByID
func (r *UserRepository) FindByID(_ context.Context, id int64) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.NotFound("user", id)
	}
	return &u, nil
}

// FindByEmail implementa user.Repository.FindByEmail
func (r *UserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List implementa user.Repository.List
func (r *UserRepository) List(_ context.Context, role command.Role, limit, offset int) ([]*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

// CountByRole implementa user.Repository.CountByRole
func (r *UserRepository) CountByRole(_ context.Context) (map[command.Role]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[command.Role]int)
	for _, u := range r.s.users {
		counts[u.Role]++
	}
	return counts, nil
}

// UpdateLastLogin implementa user.Repository.UpdateLastLogin
func (r *UserRepository) UpdateLastLogin(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.NotFound("user", id)
	}
	now := time.Now()
	u.LastLoginAt = &now
	r.s.users[id] = u
	return nil
}

// ActionLogRepository implementa actionlog.Repository em memória
type ActionLogRepository struct{ s *Store }

// Create implementa actionlog.Repository.Create
func (r *ActionLogRepository) Create(_ context.Context, e *actionlog.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = r.s.next("action_log")
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	r.s.logs = append(r.s.logs, *e)
	return nil
}

// ListByUser implementa actionlog.Repository.ListByUser
func (r *ActionLogRepository) ListByUser(_ context.Context, userID int64, limit int) ([]*actionlog.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*actionlog.Entry, 0)
	for i := len(r.s.logs) - 1; i >= 0; i-- {
		if r.s.logs[i].UserID != userID {
			continue
		}
		e := r.s.logs[i]
		out = append(out, &e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hugohenrick/kommand/internal/domain/shop"
	"github.com/hugohenrick/kommand/pkg/domain"
)

const shopColumns = `id, name, description, category, owner_name, owner_email, owner_phone,
	address, city, pincode, rating, total_orders, total_revenue, is_active, is_verified,
	created_at, updated_at`

// ShopRepository implementa a interface shop.Repository usando PostgreSQL
type ShopRepository struct {
	db *pgxpool.Pool
}

// NewShopRepository cria uma nova instância de ShopRepository
func NewShopRepository(db *pgxpool.Pool) shop.Repository {
	return &ShopRepository{db: db}
}

func scanShop(row pgx.Row) (*shop.Shop, error) {
	var s shop.Shop
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.Category, &s.OwnerName, &s.OwnerEmail, &s.OwnerPhone,
		&s.Address, &s.City, &s.Pincode, &s.Rating, &s.TotalOrders, &s.TotalRevenue, &s.Active, &s.Verified,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create implementa shop.Repository.Create
func (r *ShopRepository) Create(ctx context.Context, s *shop.Shop) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	err = conn.QueryRow(ctx, `
		INSERT INTO shops (
			name, description, category, owner_name, owner_email, owner_phone, address, city, pincode,
			rating, total_orders, total_revenue, is_active, is_verified, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`,
		s.Name, s.Description, s.Category, s.OwnerName, s.OwnerEmail, s.OwnerPhone, s.Address, s.City, s.Pincode,
		s.Rating, s.TotalOrders, s.TotalRevenue, s.Active, s.Verified, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("falha ao inserir loja: %w", err)
	}
	return nil
}

// FindByID implementa shop.Repository.FindByID
func (r *ShopRepository) FindByID(ctx context.Context, id int64) (*shop.Shop, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	s, err := scanShop(conn.QueryRow(ctx, "SELECT "+shopColumns+" FROM shops WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("shop", id)
		}
		return nil, fmt.Errorf("falha ao buscar loja: %w", err)
	}
	return s, nil
}

// List implementa shop.Repository.List
func (r *ShopRepository) List(ctx context.Context, f shop.Filter, limit, offset int) ([]*shop.Shop, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	status := string(f.Status)
	if f.Status == shop.StatusAll {
		status = ""
	}

	// o estado é derivado dos flags, na mesma ordem de shop.Status
	rows, err := conn.Query(ctx, `
		SELECT `+shopColumns+` FROM shops
		WHERE ($1 = '' OR CASE
				WHEN NOT is_active THEN 'suspended'
				WHEN NOT is_verified THEN 'pending'
				ELSE 'active' END = $1)
		  AND ($2 = '' OR LOWER(city) = LOWER($2))
		ORDER BY id
		LIMIT $3 OFFSET $4`,
		status, f.City, limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar lojas: %w", err)
	}
	defer rows.Close()

	shops := make([]*shop.Shop, 0)
	for rows.Next() {
		s, err := scanShop(rows)
		if err != nil {
			return nil, fmt.Errorf("falha ao ler loja: %w", err)
		}
		shops = append(shops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar lojas: %w", err)
	}
	return shops, nil
}

// Update implementa shop.Repository.Update
func (r *ShopRepository) Update(ctx context.Context, s *shop.Shop) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
		UPDATE shops SET
			name = $2, description = $3, category = $4, owner_name = $5, owner_email = $6,
			owner_phone = $7, address = $8, city = $9, pincode = $10, rating = $11,
			total_orders = $12, total_revenue = $13, is_active = $14, is_verified = $15, updated_at = $16
		WHERE id = $1`,
		s.ID, s.Name, s.Description, s.Category, s.OwnerName, s.OwnerEmail,
		s.OwnerPhone, s.Address, s.City, s.Pincode, s.Rating,
		s.TotalOrders, s.TotalRevenue, s.Active, s.Verified, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("falha ao atualizar loja: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("shop", s.ID)
	}
	return nil
}

// Delete implementa shop.Repository.Delete; os produtos saem por cascata
func (r *ShopRepository) Delete(ctx context.Context, id int64) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, "DELETE FROM shops WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("falha ao excluir loja: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("shop", id)
	}
	return nil
}

// Count implementa shop.Repository.Count
func (r *ShopRepository) Count(ctx context.Context) (shop.Counts, error) {
	var c shop.Counts
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return c, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	err = conn.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_active AND is_verified),
			COUNT(*) FILTER (WHERE is_active AND NOT is_verified),
			COUNT(*) FILTER (WHERE NOT is_active)
		FROM shops`).Scan(&c.Total, &c.Active, &c.Pending, &c.Suspended)
	if err != nil {
		return c, fmt.Errorf("falha ao contar lojas: %w", err)
	}
	return c, nil
}

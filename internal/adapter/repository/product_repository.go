package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hugohenrick/kommand/internal/domain/product"
	"github.com/hugohenrick/kommand/pkg/domain"
)

const productColumns = `id, shop_id, name, description, price, cost_price, min_price, quantity,
	min_stock_level, is_active, created_at, updated_at`

// ProductRepository implementa a interface product.Repository usando PostgreSQL
type ProductRepository struct {
	db *pgxpool.Pool
}

// NewProductRepository cria uma nova instância de ProductRepository
func NewProductRepository(db *pgxpool.Pool) product.Repository {
	return &ProductRepository{db: db}
}

func scanProduct(row pgx.Row) (*product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.ShopID, &p.Name, &p.Description, &p.Price, &p.CostPrice, &p.MinPrice, &p.Quantity,
		&p.MinStockLevel, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]*product.Product, error) {
	defer rows.Close()
	products := make([]*product.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("falha ao ler produto: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar produtos: %w", err)
	}
	return products, nil
}

// Create implementa product.Repository.Create
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	err = conn.QueryRow(ctx, `
		INSERT INTO products (
			shop_id, name, description, price, cost_price, min_price, quantity,
			min_stock_level, is_active, created_at, updated_at
		)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		WHERE EXISTS (SELECT 1 FROM shops WHERE id = $1)
		RETURNING id`,
		p.ShopID, p.Name, p.Description, p.Price, p.CostPrice, p.MinPrice, p.Quantity,
		p.MinStockLevel, p.Active, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotFound("shop", p.ShopID)
		}
		return fmt.Errorf("falha ao inserir produto: %w", err)
	}
	return nil
}

// FindByID implementa product.Repository.FindByID
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*product.Product, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	p, err := scanProduct(conn.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("product", id)
		}
		return nil, fmt.Errorf("falha ao buscar produto: %w", err)
	}
	return p, nil
}

// List implementa product.Repository.List
func (r *ProductRepository) List(ctx context.Context, f product.Filter, limit, offset int) ([]*product.Product, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	search := strings.TrimSpace(f.Search)
	rows, err := conn.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE ($1 = 0 OR shop_id = $1)
		  AND (NOT $2 OR is_active)
		  AND ($3 = '' OR name ILIKE '%' || $3 || '%' OR description ILIKE '%' || $3 || '%')
		ORDER BY id
		LIMIT $4 OFFSET $5`,
		f.ShopID, f.ActiveOnly, search, limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar produtos: %w", err)
	}
	return collectProducts(rows)
}

// LowStock implementa product.Repository.LowStock
func (r *ProductRepository) LowStock(ctx context.Context, shopID int64, threshold int) ([]*product.Product, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE shop_id = $1 AND is_active
		  AND quantity <= CASE WHEN $2 > 0 THEN $2 ELSE min_stock_level END
		ORDER BY quantity, id`,
		shopID, threshold)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar estoque baixo: %w", err)
	}
	return collectProducts(rows)
}

// Update implementa product.Repository.Update
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
		UPDATE products SET
			name = $2, description = $3, price = $4, cost_price = $5, min_price = $6,
			quantity = $7, min_stock_level = $8, is_active = $9, updated_at = $10
		WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Price, p.CostPrice, p.MinPrice,
		p.Quantity, p.MinStockLevel, p.Active, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("falha ao atualizar produto: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("product", p.ID)
	}
	return nil
}

// Delete implementa product.Repository.Delete
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("falha ao excluir produto: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("product", id)
	}
	return nil
}

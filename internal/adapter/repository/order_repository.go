package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hugohenrick/kommand/internal/domain/order"
	"github.com/hugohenrick/kommand/internal/infrastructure/database"
	"github.com/hugohenrick/kommand/pkg/domain"
	"github.com/hugohenrick/kommand/pkg/logger"
)

const orderColumns = `id, shop_id, product_id, product_name, quantity, cost_price, listed_price,
	unit_price, total_amount, total_cost, profit, discount_given, status, customer_id,
	customer_name, customer_email, tracking_number, refund_reason, created_at, updated_at`

// pedidos cancelados e reembolsados não entram na receita
const countedOrders = "status NOT IN ('cancelled', 'refunded')"

// OrderRepository implementa a interface order.Repository usando PostgreSQL
type OrderRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

// NewOrderRepository cria uma nova instância de OrderRepository
func NewOrderRepository(db *pgxpool.Pool, log logger.Logger) order.Repository {
	return &OrderRepository{db: db, log: log}
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o          order.Order
		productID  pgtype.Int8
		customerID pgtype.Int8
		status     string
	)
	err := row.Scan(
		&o.ID, &o.ShopID, &productID, &o.ProductName, &o.Quantity, &o.CostPrice, &o.ListedPrice,
		&o.UnitPrice, &o.TotalAmount, &o.TotalCost, &o.Profit, &o.DiscountGiven, &status, &customerID,
		&o.CustomerName, &o.CustomerEmail, &o.TrackingNumber, &o.RefundReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.ProductID = productID.Int64
	o.CustomerID = customerID.Int64
	o.Status = order.Status(status)
	return &o, nil
}

// Place implementa order.Repository.Place. O produto fica travado até o
// commit para que dois pedidos não vendam o mesmo estoque.
func (r *OrderRepository) Place(ctx context.Context, o *order.Order) error {
	return database.Transaction(ctx, r.db, r.log, func(tx pgx.Tx) error {
		p, err := scanProduct(tx.QueryRow(ctx,
			"SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE", o.ProductID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.NotFound("product", o.ProductID)
			}
			return fmt.Errorf("falha ao travar produto: %w", err)
		}
		if err := p.CanSupply(o.Quantity); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			"UPDATE products SET quantity = quantity - $2, updated_at = $3 WHERE id = $1",
			p.ID, o.Quantity, time.Now()); err != nil {
			return fmt.Errorf("falha ao baixar estoque: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE shops SET total_orders = total_orders + 1, total_revenue = total_revenue + $2, updated_at = $3
			WHERE id = $1`,
			o.ShopID, o.TotalAmount, time.Now()); err != nil {
			return fmt.Errorf("falha ao atualizar métricas da loja: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO orders (
				shop_id, product_id, product_name, quantity, cost_price, listed_price, unit_price,
				total_amount, total_cost, profit, discount_given, status, customer_id, customer_name,
				customer_email, tracking_number, refund_reason, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			RETURNING id`,
			o.ShopID, o.ProductID, o.ProductName, o.Quantity, o.CostPrice, o.ListedPrice, o.UnitPrice,
			o.TotalAmount, o.TotalCost, o.Profit, o.DiscountGiven, string(o.Status), nullableID(o.CustomerID), o.CustomerName,
			o.CustomerEmail, o.TrackingNumber, o.RefundReason, o.CreatedAt, o.UpdatedAt,
		).Scan(&o.ID)
		if err != nil {
			return fmt.Errorf("falha ao inserir pedido: %w", err)
		}
		return nil
	})
}

// FindByID implementa order.Repository.FindByID
func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*order.Order, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	o, err := scanOrder(conn.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("order", id)
		}
		return nil, fmt.Errorf("falha ao buscar pedido: %w", err)
	}
	return o, nil
}

// List implementa order.Repository.List
func (r *OrderRepository) List(ctx context.Context, f order.Filter, limit, offset int) ([]*order.Order, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE ($1 = 0 OR shop_id = $1)
		  AND ($2 = 0 OR customer_id = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY id DESC
		LIMIT $4 OFFSET $5`,
		f.ShopID, f.CustomerID, string(f.Status), limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar pedidos: %w", err)
	}
	defer rows.Close()

	orders := make([]*order.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("falha ao ler pedido: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar pedidos: %w", err)
	}
	return orders, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func updateOrder(ctx context.Context, q execer, o *order.Order) error {
	tag, err := q.Exec(ctx, `
		UPDATE orders SET status = $2, tracking_number = $3, refund_reason = $4, updated_at = $5
		WHERE id = $1`,
		o.ID, string(o.Status), o.TrackingNumber, o.RefundReason, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("falha ao atualizar pedido: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("order", o.ID)
	}
	return nil
}

// Update implementa order.Repository.Update
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()
	return updateOrder(ctx, conn, o)
}

// Cancel implementa order.Repository.Cancel
func (r *OrderRepository) Cancel(ctx context.Context, o *order.Order) error {
	return database.Transaction(ctx, r.db, r.log, func(tx pgx.Tx) error {
		if err := updateOrder(ctx, tx, o); err != nil {
			return err
		}
		// o produto pode ter sido excluído depois do pedido
		if _, err := tx.Exec(ctx,
			"UPDATE products SET quantity = quantity + $2, updated_at = $3 WHERE id = $1",
			o.ProductID, o.Quantity, time.Now()); err != nil {
			return fmt.Errorf("falha ao devolver estoque: %w", err)
		}
		return nil
	})
}

// Stats implementa order.Repository.Stats
func (r *OrderRepository) Stats(ctx context.Context, shopID int64, since time.Time) (order.Stats, error) {
	var st order.Stats
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return st, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	err = conn.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE `+countedOrders+` AND created_at >= $2),
			COALESCE(SUM(total_amount) FILTER (WHERE `+countedOrders+`), 0)::float8,
			COALESCE(SUM(total_amount) FILTER (WHERE `+countedOrders+` AND created_at >= $2), 0)::float8,
			COALESCE(SUM(profit) FILTER (WHERE `+countedOrders+`), 0)::float8,
			COUNT(DISTINCT LOWER(COALESCE(NULLIF(customer_email, ''), customer_name)))
		FROM orders
		WHERE ($1 = 0 OR shop_id = $1)`,
		shopID, since,
	).Scan(&st.TotalOrders, &st.PendingOrders, &st.TodayOrders,
		&st.TotalRevenue, &st.TodayRevenue, &st.TotalProfit, &st.Customers)
	if err != nil {
		return st, fmt.Errorf("falha ao agregar pedidos: %w", err)
	}
	return st, nil
}

// Customers implementa order.Repository.Customers
func (r *OrderRepository) Customers(ctx context.Context, shopID int64, limit int) ([]order.CustomerSummary, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT MIN(customer_name), MIN(customer_email), COUNT(*),
			COALESCE(SUM(total_amount) FILTER (WHERE `+countedOrders+`), 0)::float8 AS spent,
			MAX(created_at)
		FROM orders
		WHERE shop_id = $1
		GROUP BY LOWER(COALESCE(NULLIF(customer_email, ''), customer_name))
		ORDER BY spent DESC, MIN(customer_name)
		LIMIT $2`,
		shopID, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("falha ao listar clientes: %w", err)
	}
	defer rows.Close()

	customers := make([]order.CustomerSummary, 0)
	for rows.Next() {
		var c order.CustomerSummary
		if err := rows.Scan(&c.Name, &c.Email, &c.Orders, &c.TotalSpent, &c.LastOrder); err != nil {
			return nil, fmt.Errorf("falha ao ler cliente: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar clientes: %w", err)
	}
	return customers, nil
}

// Totals implementa order.Repository.Totals
func (r *OrderRepository) Totals(ctx context.Context, shopID int64, from, to time.Time) (order.Totals, error) {
	var t order.Totals
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return t, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	err = conn.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(total_amount), 0)::float8,
			COALESCE(SUM(total_cost), 0)::float8,
			COALESCE(SUM(profit), 0)::float8,
			COALESCE(SUM(discount_given), 0)::float8
		FROM orders
		WHERE shop_id = $1 AND `+countedOrders+`
			AND ($2::timestamptz IS NULL OR created_at >= $2)
			AND ($3::timestamptz IS NULL OR created_at < $3)`,
		shopID, timeArg(from), timeArg(to),
	).Scan(&t.Orders, &t.Revenue, &t.Cost, &t.Profit, &t.Discount)
	if err != nil {
		return t, fmt.Errorf("falha ao somar pedidos: %w", err)
	}
	return t.Rounded(), nil
}

// ProductProfits implementa order.Repository.ProductProfits
func (r *OrderRepository) ProductProfits(ctx context.Context, shopID int64, limit int) ([]order.ProductProfit, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT product_id, MIN(product_name), COALESCE(SUM(quantity), 0)::int8,
			COALESCE(SUM(total_amount), 0)::float8,
			COALESCE(SUM(total_cost), 0)::float8,
			COALESCE(SUM(profit), 0)::float8 AS total_profit
		FROM orders
		WHERE shop_id = $1 AND `+countedOrders+`
		GROUP BY product_id
		ORDER BY total_profit DESC, product_id
		LIMIT $2`,
		shopID, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("falha ao agregar lucro por produto: %w", err)
	}
	defer rows.Close()

	out := make([]order.ProductProfit, 0)
	for rows.Next() {
		var (
			p         order.ProductProfit
			productID pgtype.Int8
		)
		if err := rows.Scan(&productID, &p.ProductName, &p.UnitsSold, &p.Revenue, &p.Cost, &p.Profit); err != nil {
			return nil, fmt.Errorf("falha ao ler lucro por produto: %w", err)
		}
		p.ProductID = productID.Int64
		out = append(out, p.Rounded())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar lucro por produto: %w", err)
	}
	return out, nil
}

// Package repository implementa os repositórios do domínio sobre PostgreSQL
package repository

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hugohenrick/kommand/internal/domain/actionlog"
	"github.com/hugohenrick/kommand/internal/domain/order"
	"github.com/hugohenrick/kommand/internal/domain/product"
	"github.com/hugohenrick/kommand/internal/domain/shop"
	"github.com/hugohenrick/kommand/internal/domain/user"
	"github.com/hugohenrick/kommand/pkg/logger"
)

// Postgres agrupa os repositórios que compartilham o pool
type Postgres struct {
	db  *pgxpool.Pool
	log logger.Logger
}

// NewPostgres cria o conjunto de repositórios sobre o pool
func NewPostgres(db *pgxpool.Pool, log logger.Logger) *Postgres {
	return &Postgres{db: db, log: log}
}

// Shops devolve o repositório de lojas
func (p *Postgres) Shops() shop.Repository { return NewShopRepository(p.db) }

// Products devolve o repositório de produtos
func (p *Postgres) Products() product.Repository { return NewProductRepository(p.db) }

// Orders devolve o repositório de pedidos
func (p *Postgres) Orders() order.Repository { return NewOrderRepository(p.db, p.log) }

// Users devolve o repositório de usuários
func (p *Postgres) Users() user.Repository { return NewUserRepository(p.db) }

// ActionLogs devolve o repositório do log de comandos
func (p *Postgres) ActionLogs() actionlog.Repository { return NewActionLogRepository(p.db) }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullableID(id int64) pgtype.Int8 {
	return pgtype.Int8{Int64: id, Valid: id != 0}
}

// limitArg converte o limite zero em "sem limite"
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

// timeArg passa instantes zero como NULL
func timeArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

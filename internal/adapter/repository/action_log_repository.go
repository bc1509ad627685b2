package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hugohenrick/kommand/internal/domain/actionlog"
)

// ActionLogRepository implementa a interface actionlog.Repository usando PostgreSQL
type ActionLogRepository struct {
	db *pgxpool.Pool
}

// NewActionLogRepository cria uma nova instância de ActionLogRepository
func NewActionLogRepository(db *pgxpool.Pool) actionlog.Repository {
	return &ActionLogRepository{db: db}
}

// Create implementa actionlog.Repository.Create
func (r *ActionLogRepository) Create(ctx context.Context, e *actionlog.Entry) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	err = conn.QueryRow(ctx, `
		INSERT INTO action_logs (
			user_id, role, shop_id, session_id, input, action, intent, status, error_kind, message, result, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		e.UserID, e.Role, nullableID(e.ShopID), e.SessionID, e.Input, e.Action, jsonArg(e.Intent),
		string(e.Status), e.ErrorKind, e.Message, jsonArg(e.Result), e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("falha ao gravar log de comando: %w", err)
	}
	return nil
}

// ListByUser implementa actionlog.Repository.ListByUser
func (r *ActionLogRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*actionlog.Entry, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT id, user_id, role, shop_id, session_id, input, action, intent, status, error_kind, message, result, created_at
		FROM action_logs
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2`,
		userID, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("falha ao listar log de comandos: %w", err)
	}
	defer rows.Close()

	entries := make([]*actionlog.Entry, 0)
	for rows.Next() {
		var (
			e              actionlog.Entry
			shopID         pgtype.Int8
			status         string
			intent, result []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Role, &shopID, &e.SessionID, &e.Input, &e.Action,
			&intent, &status, &e.ErrorKind, &e.Message, &result, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("falha ao ler log de comando: %w", err)
		}
		e.ShopID = shopID.Int64
		e.Status = actionlog.Status(status)
		e.Intent, e.Result = intent, result
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar log de comandos: %w", err)
	}
	return entries, nil
}

// jsonArg grava NULL quando não há documento
func jsonArg(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

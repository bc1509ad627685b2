package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hugohenrick/kommand/internal/domain/user"
	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/domain"
)

const userColumns = `id, email, password, name, phone, role, shop_id, is_active, is_verified,
	last_login_at, created_at, updated_at`

// UserRepository implementa a interface user.Repository usando PostgreSQL
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository cria uma nova instância de UserRepository
func NewUserRepository(db *pgxpool.Pool) user.Repository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		u             user.User
		role          string
		shopID        pgtype.Int8
		lastLoginTime pgtype.Timestamptz
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Password, &u.Name, &u.Phone, &role, &shopID, &u.Active, &u.Verified,
		&lastLoginTime, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = command.Role(role)
	u.ShopID = shopID.Int64
	if lastLoginTime.Valid {
		t := lastLoginTime.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

// Create implementa user.Repository.Create
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	err = conn.QueryRow(ctx, `
		INSERT INTO users (
			email, password, name, phone, role, shop_id, is_active, is_verified, last_login_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		u.Email, u.Password, u.Name, u.Phone, string(u.Role), nullableID(u.ShopID), u.Active, u.Verified,
		u.LastLoginAt, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("falha ao inserir usuário: %w", err)
	}
	return nil
}

// FindByID implementa user.Repository.FindByID
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	u, err := scanUser(conn.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("user", id)
		}
		return nil, fmt.Errorf("falha ao buscar usuário: %w", err)
	}
	return u, nil
}

// FindByEmail implementa user.Repository.FindByEmail
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(conn.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s %w", email, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("falha ao buscar usuário por email: %w", err)
	}
	return u, nil
}

// List implementa user.Repository.List
func (r *UserRepository) List(ctx context.Context, role command.Role, limit, offset int) ([]*user.User, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY id
		LIMIT $2 OFFSET $3`,
		string(role), limitArg(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar usuários: %w", err)
	}
	defer rows.Close()

	users := make([]*user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("falha ao ler usuário: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar usuários: %w", err)
	}
	return users, nil
}

// CountByRole implementa user.Repository.CountByRole
func (r *UserRepository) CountByRole(ctx context.Context) (map[command.Role]int, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, "SELECT role, COUNT(*) FROM users GROUP BY role")
	if err != nil {
		return nil, fmt.Errorf("falha ao contar usuários: %w", err)
	}
	defer rows.Close()

	counts := make(map[command.Role]int)
	for rows.Next() {
		var (
			role string
			n    int
		)
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("falha ao ler contagem: %w", err)
		}
		counts[command.Role(role)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar contagens: %w", err)
	}
	return counts, nil
}

// UpdateLastLogin implementa user.Repository.UpdateLastLogin
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao obter conexão: %w", err)
	}
	defer conn.Release()

	now := time.Now()
	tag, err := conn.Exec(ctx,
		"UPDATE users SET last_login_at = $1, updated_at = $1 WHERE id = $2",
		now, id)
	if err != nil {
		return fmt.Errorf("falha ao atualizar último login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("user", id)
	}
	return nil
}

package user

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hugohenrick/kommand/pkg/command"
)

var (
	ErrEmptyEmail   = errors.New("email cannot be empty")
	ErrEmptyName    = errors.New("name cannot be empty")
	ErrShopRequired = errors.New("shop admin must be linked to a shop")
)

// User representa um usuário do marketplace
type User struct {
	ID       int64        `json:"id"`
	Email    string       `json:"email"`
	Password string       `json:"-"` // O campo senha não é retornado nas respostas JSON
	Name     string       `json:"name"`
	Phone    string       `json:"phone,omitempty"`
	Role     command.Role `json:"role"`
	// ShopID é zero para quem não administra loja
	ShopID      int64      `json:"shop_id,omitempty"`
	Active      bool       `json:"is_active"`
	Verified    bool       `json:"is_verified"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewUser cria um usuário ativo com a senha já com hash
func NewUser(email, name, password string, role command.Role, shopID int64) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrEmptyEmail
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if role == command.RoleShopAdmin && shopID == 0 {
		return nil, ErrShopRequired
	}
	now := time.Now()
	u := &User{
		Email:     email,
		Name:      name,
		Role:      role,
		ShopID:    shopID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword configura a senha do usuário com hash
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifica se a senha fornecida é válida
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Caller monta o contexto de execução de comandos do usuário
func (u *User) Caller(sessionID string) command.Caller {
	return command.Caller{UserID: u.ID, Role: u.Role, ShopID: u.ShopID, SessionID: sessionID}
}

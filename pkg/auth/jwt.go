package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hugohenrick/kommand/internal/domain/user"
	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/config"
)

// Erros específicos
var (
	ErrInvalidToken  = errors.New("token inválido")
	ErrExpiredToken  = errors.New("token expirado")
	ErrInvalidClaims = errors.New("claims inválidas")
	ErrMissingJWTKey = errors.New("chave secreta JWT não configurada")
)

// JWTClaims representa as claims personalizadas do token JWT. O ID do token
// (jti) é usado como id da sessão de comandos.
type JWTClaims struct {
	UserID int64        `json:"user_id"`
	Email  string       `json:"email"`
	Name   string       `json:"name"`
	Role   command.Role `json:"role"`
	ShopID int64        `json:"shop_id,omitempty"`
	jwt.RegisteredClaims
}

// Caller monta o contexto de execução de comandos a partir das claims
func (c *JWTClaims) Caller() command.Caller {
	return command.Caller{UserID: c.UserID, Role: c.Role, ShopID: c.ShopID, SessionID: c.ID}
}

// JWTService implementa serviços relacionados a tokens JWT
type JWTService struct {
	secretKey  []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewJWTService cria uma nova instância de JWTService
func NewJWTService(cfg config.AuthConfig) (*JWTService, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTKey
	}
	expiration := cfg.TokenTTL
	if expiration <= 0 {
		// Duração padrão de 24 horas se não for configurado
		expiration = 24 * time.Hour
	}
	return &JWTService{
		secretKey:  []byte(cfg.JWTSecret),
		issuer:     cfg.Issuer,
		expiration: expiration,
		now:        time.Now,
	}, nil
}

// GenerateToken gera um token JWT para o usuário, abrindo uma nova sessão
func (s *JWTService) GenerateToken(u *user.User) (string, *JWTClaims, error) {
	now := s.now()
	claims := &JWTClaims{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
		ShopID: u.ShopID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ValidateToken valida um token JWT e retorna as claims se for válido
func (s *JWTService) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Verificar o método de assinatura
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if _, known := command.ParseRole(string(claims.Role)); !known || claims.ID == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

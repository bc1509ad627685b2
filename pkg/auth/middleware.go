package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hugohenrick/kommand/internal/adapter/api/dto"
	"github.com/hugohenrick/kommand/pkg/command"
)

const callerKey = "caller"

// JWTAuthMiddleware cria um middleware para autenticação JWT. O WebSocket
// aceita o token também na query string (?token=), já que o navegador não
// envia cabeçalhos no upgrade.
func JWTAuthMiddleware(svc *JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				http.StatusUnauthorized,
				"Autenticação requerida",
				"Use o formato 'Bearer <token>'",
			))
			return
		}

		claims, err := svc.ValidateToken(token)
		if err != nil {
			message := "Token inválido"
			if errors.Is(err, ErrExpiredToken) {
				message = "Token expirado"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				http.StatusUnauthorized,
				message,
				err.Error(),
			))
			return
		}

		c.Set(callerKey, claims.Caller())
		c.Set("user_email", claims.Email)
		c.Set("user_name", claims.Name)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if q := c.Query("token"); q != "" {
			return q, true
		}
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RoleAuthMiddleware cria um middleware para verificação de papel do usuário
func RoleAuthMiddleware(roles ...command.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CurrentCaller(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				http.StatusUnauthorized,
				"Autenticação requerida",
				"",
			))
			return
		}

		for _, r := range roles {
			if caller.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
			http.StatusForbidden,
			"Acesso negado",
			"Você não tem permissão para acessar este recurso",
		))
	}
}

// CurrentCaller obtém o chamador autenticado do contexto
func CurrentCaller(c *gin.Context) (command.Caller, bool) {
	v, exists := c.Get(callerKey)
	if !exists {
		return command.Caller{}, false
	}
	caller, ok := v.(command.Caller)
	return caller, ok
}

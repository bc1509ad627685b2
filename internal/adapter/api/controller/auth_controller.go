package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hugohenrick/kommand/internal/adapter/api/dto"
	"github.com/hugohenrick/kommand/internal/domain/user"
	"github.com/hugohenrick/kommand/pkg/auth"
	"github.com/hugohenrick/kommand/pkg/command/session"
	"github.com/hugohenrick/kommand/pkg/domain"
	"github.com/hugohenrick/kommand/pkg/logger"
)

// AuthController gerencia as requisições relacionadas à autenticação
type AuthController struct {
	userRepository user.Repository
	jwtService     *auth.JWTService
	sessions       session.Store
	log            logger.Logger
}

// NewAuthController cria uma nova instância de AuthController
func NewAuthController(userRepository user.Repository, jwtService *auth.JWTService, sessions session.Store, log logger.Logger) *AuthController {
	return &AuthController{
		userRepository: userRepository,
		jwtService:     jwtService,
		sessions:       sessions,
		log:            log,
	}
}

// Login autentica um usuário e retorna um token JWT
// @Summary Autentica um usuário
// @Description Verifica as credenciais do usuário e retorna um token JWT. Cada login abre uma nova sessão de comandos.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Credenciais de login"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var request dto.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	// Buscar o usuário pelo email
	u, err := c.userRepository.FindByEmail(ctx.Request.Context(), request.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Credenciais inválidas", "Email ou senha incorretos"))
			return
		}
		c.log.Error("Erro ao buscar usuário", "error", err)
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao autenticar usuário", err.Error()))
		return
	}

	// Verificar a senha
	if !u.CheckPassword(request.Password) {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Credenciais inválidas", "Email ou senha incorretos"))
		return
	}

	// Verificar se o usuário está ativo
	if !u.Active {
		ctx.JSON(http.StatusForbidden, dto.NewErrorResponse(http.StatusForbidden, "Usuário inativo", "Sua conta está desativada"))
		return
	}

	token, claims, err := c.jwtService.GenerateToken(u)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao gerar token", err.Error()))
		return
	}

	// Apenas logar o erro, não impedir o login
	if err := c.userRepository.UpdateLastLogin(ctx.Request.Context(), u.ID); err != nil {
		c.log.Warn("Erro ao atualizar último login", "user_id", u.ID, "error", err)
	}

	ctx.JSON(http.StatusOK, dto.LoginResponse{
		User:        dto.ToUserResponse(u),
		AccessToken: token,
		SessionID:   claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
	})
}

// Me retorna o usuário autenticado
// @Summary Usuário autenticado
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	caller, ok := auth.CurrentCaller(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Autenticação requerida", ""))
		return
	}

	u, err := c.userRepository.FindByID(ctx.Request.Context(), caller.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Usuário não encontrado", err.Error()))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar usuário", err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, dto.ToUserResponse(u))
}

// Logout descarta a memória de sessão do token
// @Summary Encerra a sessão de comandos
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	caller, ok := auth.CurrentCaller(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Autenticação requerida", ""))
		return
	}
	if err := c.sessions.Forget(ctx.Request.Context(), caller.SessionID); err != nil {
		c.log.Error("Erro ao descartar sessão", "session_id", caller.SessionID, "error", err)
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao encerrar sessão", err.Error()))
		return
	}
	ctx.Status(http.StatusNoContent)
}

package route

import (
	"github.com/gin-gonic/gin"

	"github.com/hugohenrick/kommand/internal/adapter/api/controller"
	"github.com/hugohenrick/kommand/pkg/auth"
	"github.com/hugohenrick/kommand/pkg/middleware"
)

// SetupAuthRoutes configura as rotas para autenticação
func SetupAuthRoutes(router *gin.RouterGroup, authController *controller.AuthController, jwtService *auth.JWTService, loginLimiter *middleware.KeyedLimiter) {
	authRouter := router.Group("/auth")
	{
		// Rota de login (não requer autenticação, limitada por IP)
		authRouter.POST("/login", middleware.RateLimit(loginLimiter, nil), authController.Login)

		// Rota para obter informações do usuário logado (requer autenticação)
		authRouter.GET("/me", auth.JWTAuthMiddleware(jwtService), authController.Me)
		authRouter.POST("/logout", auth.JWTAuthMiddleware(jwtService), authController.Logout)
	}
}

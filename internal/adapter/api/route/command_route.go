package route

import (
	"github.com/gin-gonic/gin"

	"github.com/hugohenrick/kommand/internal/adapter/api/controller"
	"github.com/hugohenrick/kommand/pkg/auth"
)

// SetupCommandRoutes configura as rotas de comandos
func SetupCommandRoutes(router *gin.RouterGroup, commandController *controller.CommandController, jwtService *auth.JWTService) {
	commandRouter := router.Group("/commands")
	commandRouter.Use(auth.JWTAuthMiddleware(jwtService))
	{
		commandRouter.POST("", commandController.Execute)

		// Confirmação e cancelamento de ações destrutivas
		commandRouter.POST("/confirm/:id", commandController.Confirm)
		commandRouter.DELETE("/confirm/:id", commandController.Cancel)

		// Descoberta de comandos
		commandRouter.GET("/suggestions", commandController.Suggestions)
		commandRouter.GET("/quick-actions", commandController.QuickActions)
		commandRouter.GET("/help/:action", commandController.Help)
		commandRouter.GET("/history", commandController.History)
	}
}

// SetupBroadcastRoutes configura o canal WebSocket
func SetupBroadcastRoutes(router *gin.RouterGroup, broadcastController *controller.BroadcastController, jwtService *auth.JWTService) {
	router.GET("/ws", auth.JWTAuthMiddleware(jwtService), broadcastController.Subscribe)
}

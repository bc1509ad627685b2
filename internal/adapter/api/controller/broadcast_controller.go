package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/hugohenrick/kommand/internal/adapter/api/dto"
	"github.com/hugohenrick/kommand/pkg/broadcast"
	"github.com/hugohenrick/kommand/pkg/logger"
)

// BroadcastController abre o canal WebSocket de atualizações
type BroadcastController struct {
	hub      *broadcast.Hub
	upgrader *websocket.Upgrader
	log      logger.Logger
}

// NewBroadcastController cria uma nova instância de BroadcastController
func NewBroadcastController(hub *broadcast.Hub, origins []string, log logger.Logger) *BroadcastController {
	return &BroadcastController{
		hub:      hub,
		upgrader: broadcast.NewUpgrader(origins),
		log:      log,
	}
}

// Subscribe faz o upgrade e mantém a conexão até o cliente sair
// @Summary Canal de atualizações
// @Description Recebe action_result e data_update; responde "ping" com "pong".
// @Tags broadcast
// @Security BearerAuth
// @Param token query string false "Token JWT (navegadores não enviam cabeçalho no upgrade)"
// @Router /ws [get]
func (c *BroadcastController) Subscribe(ctx *gin.Context) {
	conn, err := broadcast.Accept(c.hub, c.upgrader, ctx.Writer, ctx.Request, c.log)
	if err != nil {
		c.log.Warn("Falha no upgrade do websocket", "error", err)
		// o upgrader já respondeu quando o handshake falha
		if !ctx.Writer.Written() {
			ctx.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(http.StatusServiceUnavailable, "Canal indisponível", err.Error()))
		}
		return
	}
	conn.Serve()
}

package controller

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hugohenrick/kommand/internal/adapter/api/dto"
	"github.com/hugohenrick/kommand/internal/domain/actionlog"
	"github.com/hugohenrick/kommand/pkg/auth"
	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/engine"
	"github.com/hugohenrick/kommand/pkg/command/suggest"
	"github.com/hugohenrick/kommand/pkg/logger"
)

// CommandService é o motor que interpreta e executa os comandos
type CommandService interface {
	Execute(ctx context.Context, req command.Request) engine.Response
	Confirm(ctx context.Context, token string, caller command.Caller) engine.Response
	Cancel(ctx context.Context, token string, caller command.Caller) engine.Response
}

// CommandController gerencia as requisições de comandos em linguagem natural
type CommandController struct {
	service      CommandService
	suggest      *suggest.Engine
	history      actionlog.Repository
	defaultLimit int
	log          logger.Logger
}

// maxSuggestions limita o parâmetro limit das sugestões
const maxSuggestions = 20

// NewCommandController cria uma nova instância de CommandController
func NewCommandController(service CommandService, sug *suggest.Engine, history actionlog.Repository, defaultLimit int, log logger.Logger) *CommandController {
	if defaultLimit <= 0 {
		defaultLimit = suggest.DefaultLimit
	}
	return &CommandController{
		service:      service,
		suggest:      sug,
		history:      history,
		defaultLimit: defaultLimit,
		log:          log,
	}
}

// Execute interpreta e executa um comando
// @Summary Executa um comando
// @Description Interpreta o texto (inglês, hindi ou hinglish) e executa a ação. Ações destrutivas devolvem um token de confirmação.
// @Tags commands
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param command body dto.CommandRequest true "Comando"
// @Success 200 {object} engine.Response
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 429 {object} engine.Response
// @Router /commands [post]
func (c *CommandController) Execute(ctx *gin.Context) {
	caller, ok := auth.CurrentCaller(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Autenticação requerida", ""))
		return
	}

	var request dto.CommandRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	resp := c.service.Execute(ctx.Request.Context(), command.Request{
		Text:              request.Text,
		Caller:            caller,
		ConfirmationToken: request.ConfirmationID,
	})
	respond(ctx, resp)
}

// Confirm executa a ação pendente do token
// @Summary Confirma uma ação destrutiva
// @Tags commands
// @Produce json
// @Security BearerAuth
// @Param id path string true "Token de confirmação"
// @Success 200 {object} engine.Response
// @Failure 401 {object} dto.ErrorResponse
// @Router /commands/confirm/{id} [post]
func (c *CommandController) Confirm(ctx *gin.Context) {
	caller, ok := auth.CurrentCaller(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Autenticação requerida", ""))
		return
	}
	respond(ctx, c.service.Confirm(ctx.Request.Context(), ctx.Param("id"), caller))
}

// Cancel descarta a ação pendente do token
// @Summary Cancela uma ação pendente
// @Tags commands
// @Produce json
// @Security BearerAuth
// @Param id path string true "Token de confirmação"
// @Success 200 {object} engine.Response
// @Failure 401 {object} dto.ErrorResponse
// @Router /commands/confirm/{id} [delete]
func (c *CommandController) Cancel(ctx *gin.Context) {
	caller, ok := auth.CurrentCaller(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Autenticação requerida", ""))
		return
	}
	respond(ctx, c.service.Cancel(ctx.Request.Context(), ctx.Param("id"), caller))
}

// Suggestions sugere comandos para o texto parcial
// @Summary Sugestões de comandos
// @Tags commands
// @Produce json
// @Security BearerAuth
// @Param q query string false "Texto parcial"
// @Param limit query int false "Máximo de sugestões"
// @Success 200 {array} suggest.Suggestion
// @Router /commands/suggestions [get]
func (c *CommandController) Suggestions(ctx *gin.Context) {
	caller, ok := auth.CurrentCaller(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Autenticação requerida", ""))
		return
	}
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	limit = dto.ClampLimit(limit, c.defaultLimit, maxSuggestions)
	ctx.JSON(http.StatusOK, c.suggest.Suggest(ctx.Query("q"), caller.Role, limit))
}

// QuickActions lista os atalhos do papel
// @Summary Atalhos por papel
// @Tags commands
// @Produce json
// @Security BearerAuth
// @Success 200 {array} catalog.QuickAction
// @Router /commands/quick-actions [get]
func (c *CommandController) QuickActions(ctx *gin.Context) {
	caller, ok := auth.CurrentCaller(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Autenticação requerida", ""))
		return
	}
	ctx.JSON(http.StatusOK, c.suggest.QuickActions(caller.Role))
}

// Help descreve uma ação
// @Summary Ajuda de uma ação
// @Tags commands
// @Produce json
// @Security BearerAuth
// @Param action path string true "Nome da ação"
// @Success 200 {object} suggest.Help
// @Failure 404 {object} dto.ErrorResponse
// @Router /commands/help/{action} [get]
func (c *CommandController) Help(ctx *gin.Context) {
	caller, ok := auth.CurrentCaller(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Autenticação requerida", ""))
		return
	}
	action := strings.ToLower(strings.TrimSpace(ctx.Param("action")))
	help, found := c.suggest.Help(action, caller.Role)
	if !found {
		ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Ação não encontrada", action))
		return
	}
	ctx.JSON(http.StatusOK, help)
}

// History lista os últimos comandos do usuário
// @Summary Histórico de comandos
// @Tags commands
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Máximo de registros"
// @Success 200 {array} dto.HistoryEntry
// @Router /commands/history [get]
func (c *CommandController) History(ctx *gin.Context) {
	caller, ok := auth.CurrentCaller(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Autenticação requerida", ""))
		return
	}
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	entries, err := c.history.ListByUser(ctx.Request.Context(), caller.UserID, dto.ClampLimit(limit, 20, 100))
	if err != nil {
		c.log.Error("Erro ao listar histórico", "user_id", caller.UserID, "error", err)
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao listar histórico", err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, dto.ToHistory(entries))
}

// respond devolve a resposta do motor; só o limite de taxa muda o status HTTP
func respond(ctx *gin.Context, resp engine.Response) {
	status := http.StatusOK
	if resp.ErrorKind == command.KindRateLimited {
		ctx.Header("Retry-After", "1")
		status = http.StatusTooManyRequests
	}
	ctx.JSON(status, resp)
}

package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger verifica uma dependência externa
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController informa o estado da API e das dependências
type HealthController struct {
	checks map[string]Pinger
}

// NewHealthController cria o controlador; dependências nulas são ignoradas
func NewHealthController(checks map[string]Pinger) *HealthController {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthController{checks: active}
}

// Health verifica as dependências
// @Summary Estado da API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(c.checks))
	for name, p := range c.checks {
		if err := p.Ping(checkCtx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	ctx.JSON(status, gin.H{
		"status":       state,
		"time":         time.Now().Format(time.RFC3339),
		"dependencies": deps,
	})
}

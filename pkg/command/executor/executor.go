// Package executor despacha um passo validado para a capacidade de domínio
// registrada com o nome da ação.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/catalog"
	"github.com/hugohenrick/kommand/pkg/domain"
	"github.com/hugohenrick/kommand/pkg/logger"
)

// Scope é o escopo do chamador repassado às capacidades
type Scope struct {
	UserID int64
	ShopID int64
	Role   command.Role
}

// ScopeOf extrai o escopo do chamador
func ScopeOf(c command.Caller) Scope {
	return Scope{UserID: c.UserID, ShopID: c.ShopID, Role: c.Role}
}

// Capability executa uma ação de domínio com parâmetros já validados
type Capability func(ctx context.Context, scope Scope, params map[string]any) (*command.ActionResult, error)

// Registry associa nomes de ação a capacidades
type Registry struct {
	mu   sync.RWMutex
	caps map[string]Capability
}

// NewRegistry cria um registro vazio
func NewRegistry() *Registry {
	return &Registry{caps: make(map[string]Capability)}
}

// Register associa a capacidade à ação; registrar duas vezes é erro
func (r *Registry) Register(action string, c Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.caps[action]; exists {
		return fmt.Errorf("capability for %q already registered", action)
	}
	r.caps[action] = c
	return nil
}

// Lookup devolve a capacidade registrada
func (r *Registry) Lookup(action string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caps[action]
	return c, ok
}

// Actions lista as ações registradas em ordem alfabética
func (r *Registry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.caps))
	for name := range r.caps {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Missing lista as ações do catálogo sem capacidade registrada
func (r *Registry) Missing(cat *catalog.Catalog) []string {
	var missing []string
	for _, d := range cat.All() {
		if _, ok := r.Lookup(d.Name); !ok {
			missing = append(missing, d.Name)
		}
	}
	return missing
}

// Executor aplica a tabela de permissões e invoca a capacidade
type Executor struct {
	catalog  *catalog.Catalog
	registry *Registry
	log      logger.Logger
}

// New cria o executor
func New(cat *catalog.Catalog, reg *Registry, log logger.Logger) *Executor {
	return &Executor{catalog: cat, registry: reg, log: log}
}

// Execute roda um passo para o chamador. A capacidade não é cancelada se a
// requisição cair no meio; não há nova tentativa.
func (e *Executor) Execute(ctx context.Context, step command.Step, caller command.Caller) *command.ActionResult {
	if _, ok := e.catalog.Allowed(caller.Role, step.Action); !ok {
		if _, known := e.catalog.Lookup(step.Action); !known {
			return command.Failed(step.Action, command.ParseFailure("unknown action "+step.Action))
		}
		return command.Failed(step.Action, command.PermissionDenied(step.Action, caller.Role))
	}

	capability, ok := e.registry.Lookup(step.Action)
	if !ok {
		return command.Failed(step.Action, command.NewError(command.KindDomainFailure, step.Action, "action is not supported yet"))
	}

	start := time.Now()
	result, err := capability(context.WithoutCancel(ctx), ScopeOf(caller), step.Params)
	if err != nil {
		mapped := e.mapError(step.Action, err)
		e.log.Warn("Falha ao executar ação",
			"action", step.Action,
			"user_id", caller.UserID,
			"kind", mapped.Kind,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return command.Failed(step.Action, mapped)
	}
	if result == nil {
		result = command.Succeeded(step.Action, "done", nil, nil)
	}
	result.Action = step.Action

	e.log.Debug("Ação executada",
		"action", step.Action,
		"user_id", caller.UserID,
		"success", result.Success,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result
}

func (e *Executor) mapError(action string, err error) *command.Error {
	var cerr *command.Error
	if errors.As(err, &cerr) {
		return command.AsError(cerr, action)
	}
	var rerr *domain.RuleError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return &command.Error{Kind: command.KindNotFound, Action: action, Message: err.Error(), Err: err}
	case errors.As(err, &rerr):
		return &command.Error{Kind: command.KindDomainFailure, Action: action, Message: rerr.Reason, Err: err}
	default:
		return &command.Error{Kind: command.KindDomainFailure, Action: action, Message: "the operation could not be completed", Err: err}
	}
}

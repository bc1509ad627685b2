// Package broadcast distribui resultados de comandos e mudanças de entidades
// para os observadores conectados.
package broadcast

import (
	"errors"
	"sync"

	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/logger"
)

// Tipos de evento
const (
	TypeActionResult = "action_result"
	TypeDataUpdate   = "data_update"
	TypePong         = "pong"
)

// ErrClosed indica que o hub já foi encerrado
var ErrClosed = errors.New("broadcast hub closed")

// Event é a mensagem entregue aos observadores
type Event struct {
	Type      string            `json:"type"`
	Action    string            `json:"action,omitempty"`
	Entity    string            `json:"entity,omitempty"`
	Operation command.Operation `json:"operation,omitempty"`
	Success   *bool             `json:"success,omitempty"`
	Message   string            `json:"message,omitempty"`
	Data      any               `json:"data"`
}

// Subscriber recebe eventos; um erro em Send remove o observador
type Subscriber interface {
	ID() string
	Send(Event) error
}

// Hub mantém o registro de observadores
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]Subscriber
	closed bool
	log    logger.Logger
}

// NewHub cria um hub vazio
func NewHub(log logger.Logger) *Hub {
	return &Hub{subs: make(map[string]Subscriber), log: log}
}

// Register adiciona o observador
func (h *Hub) Register(s Subscriber) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.subs[s.ID()] = s
	h.log.Debug("Observador registrado", "subscriber", s.ID(), "total", len(h.subs))
	return nil
}

// Unregister remove o observador; remover um ausente não é erro
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[id]; ok {
		delete(h.subs, id)
		h.log.Debug("Observador removido", "subscriber", id, "total", len(h.subs))
	}
}

// Len devolve o número de observadores registrados
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish entrega o evento a todos os observadores e devolve quantos o
// receberam. O envio acontece fora do lock; quem falhar é removido.
func (h *Hub) Publish(ev Event) int {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return 0
	}
	snapshot := make([]Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		snapshot = append(snapshot, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range snapshot {
		if err := s.Send(ev); err != nil {
			h.log.Warn("Falha ao enviar evento, removendo observador",
				"subscriber", s.ID(),
				"type", ev.Type,
				"error", err,
			)
			h.Unregister(s.ID())
			closeSubscriber(s)
			continue
		}
		delivered++
	}
	return delivered
}

// PublishChange publica um data_update para a mutação
func (h *Hub) PublishChange(change *command.EntityChange, data any) int {
	if change == nil {
		return 0
	}
	return h.Publish(Event{
		Type:      TypeDataUpdate,
		Entity:    change.Entity,
		Operation: change.Operation,
		Data:      data,
	})
}

// PublishResult publica o action_result de um comando
func (h *Hub) PublishResult(res *command.ActionResult) int {
	if res == nil {
		return 0
	}
	success := res.Success
	return h.Publish(Event{
		Type:    TypeActionResult,
		Action:  res.Action,
		Success: &success,
		Message: res.Message,
		Data:    res.Data,
	})
}

// Close encerra o hub e fecha os observadores que suportam Close
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.subs
	h.subs = make(map[string]Subscriber)
	h.mu.Unlock()

	for _, s := range subs {
		closeSubscriber(s)
	}
	h.log.Info("Hub de broadcast encerrado", "subscribers", len(subs))
}

func closeSubscriber(s Subscriber) {
	if c, ok := s.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

package broadcast

import (
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hugohenrick/kommand/pkg/logger"
)

const (
	// DefaultWriteWait limita cada escrita no socket
	DefaultWriteWait = 10 * time.Second
	maxMessageSize   = 4096
)

// NewUpgrader cria o upgrader aceitando as origens informadas; "*" ou lista
// vazia aceitam qualquer origem
func NewUpgrader(origins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 || slices.Contains(origins, "*") {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, origin)
		},
	}
}

// Conn é um observador ligado por WebSocket
type Conn struct {
	id        string
	ws        *websocket.Conn
	hub       *Hub
	log       logger.Logger
	writeWait time.Duration

	mu        sync.Mutex
	closeOnce sync.Once
}

// Accept faz o upgrade da requisição e registra a conexão no hub
func Accept(hub *Hub, up *websocket.Upgrader, w http.ResponseWriter, r *http.Request, log logger.Logger) (*Conn, error) {
	ws, err := up.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir websocket: %w", err)
	}
	c := &Conn{
		id:        uuid.NewString(),
		ws:        ws,
		hub:       hub,
		log:       log,
		writeWait: DefaultWriteWait,
	}
	if err := hub.Register(c); err != nil {
		_ = ws.Close()
		return nil, err
	}
	return c, nil
}

// ID identifica a conexão no hub
func (c *Conn) ID() string {
	return c.id
}

// Send escreve o evento como JSON respeitando o prazo de escrita
func (c *Conn) Send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(ev)
}

// Close fecha o socket; chamadas repetidas são ignoradas
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ws.Close()
	})
	return err
}

// Serve lê mensagens até a desconexão. Toda mensagem de texto é respondida
// com um pong ecoando o conteúdo.
func (c *Conn) Serve() {
	defer func() {
		c.hub.Unregister(c.id)
		_ = c.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	for {
		kind, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("Conexão websocket encerrada", "subscriber", c.id, "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if err := c.Send(Event{Type: TypePong, Data: string(msg)}); err != nil {
			c.log.Debug("Falha ao responder ping", "subscriber", c.id, "error", err)
			return
		}
	}
}

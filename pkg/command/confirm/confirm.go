// Package confirm guarda as confirmações pendentes de ações destrutivas.
// Cada token é de uso único e expira após o TTL configurado.
package confirm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/logger"
)

// Valores padrão
const (
	DefaultTTL           = 5 * time.Minute
	DefaultSweepInterval = time.Minute
)

var (
	// ErrUnknown indica token inexistente ou de outro solicitante
	ErrUnknown = command.NewError(command.KindConfirmationUnknown, "", "confirmation not found")
	// ErrExpired indica token vencido
	ErrExpired = command.NewError(command.KindConfirmationExpired, "", "confirmation expired, please run the command again")
	// ErrAlreadyConsumed indica token já utilizado
	ErrAlreadyConsumed = command.NewError(command.KindConfirmationConsumed, "", "confirmation already used")
)

// Pending é uma ação (ou plano) aguardando confirmação
type Pending struct {
	Token       string
	Fingerprint string
	Steps       []command.Step
	Requester   command.Caller
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Consumed    bool
}

// Action é o identificador estável da primeira ação pendente
func (p *Pending) Action() string {
	if len(p.Steps) == 0 {
		return ""
	}
	return p.Steps[0].Action
}

func (p *Pending) clone() *Pending {
	cp := *p
	cp.Steps = make([]command.Step, len(p.Steps))
	for i, s := range p.Steps {
		cp.Steps[i] = s.Clone()
	}
	return &cp
}

// Manager é o registro de confirmações do processo. Criado na subida do
// serviço e encerrado com Close.
type Manager struct {
	mu      sync.Mutex
	pending map[string]*Pending

	ttl   time.Duration
	sweep time.Duration
	now   func() time.Time
	log   logger.Logger

	stop      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// NewManager cria o gerenciador
func NewManager(ttl, sweepInterval time.Duration, log logger.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &Manager{
		pending: make(map[string]*Pending),
		ttl:     ttl,
		sweep:   sweepInterval,
		now:     time.Now,
		log:     log,
		stop:    make(chan struct{}),
	}
}

// Fingerprint identifica o conteúdo de um plano (ações e parâmetros)
func Fingerprint(steps []command.Step) string {
	type entry struct {
		Action string         `json:"a"`
		Params map[string]any `json:"p"`
	}
	entries := make([]entry, len(steps))
	for i, s := range steps {
		entries[i] = entry{Action: s.Action, Params: s.Params}
	}
	// json.Marshal ordena as chaves dos mapas
	raw, _ := json.Marshal(entries)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Create registra uma confirmação pendente e devolve uma cópia
func (m *Manager) Create(steps []command.Step, requester command.Caller) (*Pending, error) {
	if len(steps) == 0 {
		return nil, command.ParseFailure("nothing to confirm")
	}
	now := m.now()
	p := &Pending{
		Token:       uuid.NewString(),
		Fingerprint: Fingerprint(steps),
		Requester:   requester,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
	}
	p.Steps = make([]command.Step, len(steps))
	for i, s := range steps {
		p.Steps[i] = s.Clone()
	}

	m.mu.Lock()
	m.pending[p.Token] = p
	m.mu.Unlock()

	m.log.Debug("Confirmação criada", "token", p.Token, "action", p.Action(), "user_id", requester.UserID)
	return p.clone(), nil
}

// Confirm consome o token. Apenas um chamador concorrente vence; os demais
// recebem ErrAlreadyConsumed.
func (m *Manager) Confirm(token string, requester command.Caller) (*Pending, error) {
	return m.consume(token, "", requester)
}

// Match consome o token apenas se o plano reenviado for o mesmo que gerou a
// confirmação
func (m *Manager) Match(token, fingerprint string, requester command.Caller) (*Pending, error) {
	return m.consume(token, fingerprint, requester)
}

func (m *Manager) consume(token, fingerprint string, requester command.Caller) (*Pending, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pending[token]
	if !ok || !sameRequester(p.Requester, requester) {
		return nil, ErrUnknown
	}
	if fingerprint != "" && p.Fingerprint != fingerprint {
		return nil, ErrUnknown
	}
	if p.Consumed {
		return nil, ErrAlreadyConsumed
	}
	if !m.now().Before(p.ExpiresAt) {
		delete(m.pending, token)
		return nil, ErrExpired
	}

	// mantido até a varredura para que a repetição responda "já usado"
	p.Consumed = true
	return p.clone(), nil
}

// Cancel descarta uma confirmação ainda não usada
func (m *Manager) Cancel(token string, requester command.Caller) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pending[token]
	if !ok || !sameRequester(p.Requester, requester) {
		return ErrUnknown
	}
	if p.Consumed {
		return ErrAlreadyConsumed
	}
	delete(m.pending, token)
	if !m.now().Before(p.ExpiresAt) {
		return ErrExpired
	}
	return nil
}

// Sweep remove as entradas vencidas e devolve quantas saíram
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for token, p := range m.pending {
		if !now.Before(p.ExpiresAt) {
			delete(m.pending, token)
			removed++
		}
	}
	return removed
}

// Len devolve o número de entradas guardadas
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Start sobe a varredura periódica; termina com Close ou com o ctx
func (m *Manager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			ticker := time.NewTicker(m.sweep)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.stop:
					return
				case <-ticker.C:
					if n := m.Sweep(); n > 0 {
						m.log.Debug("Confirmações vencidas removidas", "count", n)
					}
				}
			}
		}()
	})
}

// Close encerra a varredura e espera a goroutine terminar
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.stop)
		m.wg.Wait()
	})
}

func sameRequester(a, b command.Caller) bool {
	return a.UserID == b.UserID && a.Role == b.Role && a.ShopID == b.ShopID
}

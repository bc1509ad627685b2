// Package command define os tipos compartilhados pelo pipeline de
// interpretação e execução de comandos em linguagem natural.
package command

import (
	"strings"
)

// Role representa o papel de quem emite o comando
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleShopAdmin  Role = "shop_admin"
	RoleCustomer   Role = "customer"
)

// ParseRole converte o papel vindo do token ou da configuração.
// "admin" é aceito como sinônimo de shop_admin.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "super_admin", "superadmin":
		return RoleSuperAdmin, true
	case "shop_admin", "admin":
		return RoleShopAdmin, true
	case "customer":
		return RoleCustomer, true
	}
	return "", false
}

// Caller identifica quem emitiu o comando e o escopo de tenant
type Caller struct {
	UserID    int64  `json:"user_id"`
	Role      Role   `json:"role"`
	ShopID    int64  `json:"shop_id,omitempty"`
	SessionID string `json:"session_id"`
}

// Request é uma requisição de comando, efêmera, uma por chamada
type Request struct {
	Text              string `json:"text"`
	Caller            Caller `json:"caller"`
	ConfirmationToken string `json:"confirmation_id,omitempty"`
}

// Ref é uma referência simbólica a uma entidade ("that order", "वो ऑर्डर")
// que o binder resolve a partir da memória de sessão.
type Ref struct {
	Entity string `json:"entity"`
}

// Source indica qual caminho do resolvedor produziu a intenção
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)

// Step é uma invocação de ação dentro de uma intenção
type Step struct {
	ID     string         `json:"id"`
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// Clone devolve uma cópia rasa do passo com mapa de parâmetros próprio
func (s Step) Clone() Step {
	params := make(map[string]any, len(s.Params))
	for k, v := range s.Params {
		params[k] = v
	}
	return Step{ID: s.ID, Action: s.Action, Params: params}
}

// Intent é o resultado estruturado da interpretação de um texto
type Intent struct {
	Steps      []Step   `json:"steps"`
	Source     Source   `json:"source"`
	Confidence float64  `json:"confidence"`
	Missing    []string `json:"missing,omitempty"`
}

// Compound indica se a intenção gera um plano com mais de um passo
func (i *Intent) Compound() bool {
	return len(i.Steps) > 1
}

// Action retorna o nome da primeira ação (identificador estável da resposta)
func (i *Intent) Action() string {
	if i == nil || len(i.Steps) == 0 {
		return ""
	}
	return i.Steps[0].Action
}

// Operation é o tipo de mutação de uma entidade
type Operation string

const (
	OperationCreated Operation = "created"
	OperationUpdated Operation = "updated"
	OperationDeleted Operation = "deleted"
)

// EntityChange descreve a mutação usada no broadcast
type EntityChange struct {
	Entity    string    `json:"entity"`
	Operation Operation `json:"operation"`
	ID        int64     `json:"id"`
}

// ActionResult é produzido uma vez por invocação e não é alterado depois
type ActionResult struct {
	Success bool           `json:"success"`
	Action  string         `json:"action"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	Change  *EntityChange  `json:"change,omitempty"`

	// Err carrega a classificação da falha quando Success é false
	Err *Error `json:"-"`
}

// Succeeded monta um resultado de sucesso
func Succeeded(action, message string, data map[string]any, change *EntityChange) *ActionResult {
	return &ActionResult{
		Success: true,
		Action:  action,
		Message: message,
		Data:    data,
		Change:  change,
	}
}

// Failed monta um resultado de falha a partir de um erro do pipeline
func Failed(action string, err error) *ActionResult {
	cerr := AsError(err, action)
	return &ActionResult{
		Success: false,
		Action:  action,
		Message: cerr.Message,
		Err:     cerr,
	}
}

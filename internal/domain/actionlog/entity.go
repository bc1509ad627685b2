package actionlog

import (
	"encoding/json"
	"time"
)

// Status é o desfecho registrado para o comando
type Status string

const (
	StatusSucceeded            Status = "succeeded"
	StatusFailed               Status = "failed"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusCancelled            Status = "cancelled"
)

// Entry é o registro de auditoria de um comando
type Entry struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Role      string          `json:"role"`
	ShopID    int64           `json:"shop_id,omitempty"`
	SessionID string          `json:"session_id"`
	Input     string          `json:"input"`
	Action    string          `json:"action"`
	Intent    json.RawMessage `json:"intent,omitempty"`
	Status    Status          `json:"status"`
	ErrorKind string          `json:"error_kind,omitempty"`
	Message   string          `json:"message"`
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

package dto

import (
	"time"

	"github.com/hugohenrick/kommand/internal/domain/actionlog"
)

// CommandRequest representa o texto livre enviado pelo usuário. O token de
// confirmação pode acompanhar o próprio comando.
type CommandRequest struct {
	Text           string `json:"text" binding:"required"`
	ConfirmationID string `json:"confirmation_id"`
}

// HistoryEntry é um item do histórico de comandos do usuário
type HistoryEntry struct {
	ID        int64            `json:"id"`
	Input     string           `json:"input"`
	Action    string           `json:"action"`
	Status    actionlog.Status `json:"status"`
	ErrorKind string           `json:"error_kind,omitempty"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
}

// ToHistory converte os registros de auditoria para o histórico
func ToHistory(entries []*actionlog.Entry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{
			ID:        e.ID,
			Input:     e.Input,
			Action:    e.Action,
			Status:    e.Status,
			ErrorKind: e.ErrorKind,
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

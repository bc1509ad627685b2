package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hugohenrick/kommand/internal/domain/actionlog"
	"github.com/hugohenrick/kommand/pkg/command/engine"
)

// AuditSink grava os registros de auditoria do motor no log de comandos
type AuditSink struct {
	repo actionlog.Repository
}

// NewAuditSink cria o destino de auditoria sobre qualquer actionlog.Repository
func NewAuditSink(repo actionlog.Repository) *AuditSink {
	return &AuditSink{repo: repo}
}

// Record implementa engine.AuditSink
func (a *AuditSink) Record(ctx context.Context, rec engine.AuditRecord) error {
	entry, err := EntryFromRecord(rec)
	if err != nil {
		return err
	}
	return a.repo.Create(ctx, entry)
}

// EntryFromRecord converte o registro do motor na linha de auditoria
func EntryFromRecord(rec engine.AuditRecord) (*actionlog.Entry, error) {
	e := &actionlog.Entry{
		UserID:    rec.Caller.UserID,
		Role:      string(rec.Caller.Role),
		ShopID:    rec.Caller.ShopID,
		SessionID: rec.Caller.SessionID,
		Input:     rec.Input,
		Action:    rec.Response.Action,
		Status:    actionlog.Status(rec.Status),
		ErrorKind: string(rec.Response.ErrorKind),
		Message:   rec.Response.Message,
		CreatedAt: rec.At,
	}
	if rec.Intent != nil {
		raw, err := json.Marshal(rec.Intent)
		if err != nil {
			return nil, fmt.Errorf("erro ao serializar intenção: %w", err)
		}
		e.Intent = raw
	}
	// a intenção já vai na própria coluna
	resp := rec.Response
	resp.Intent = nil
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("erro ao serializar resposta: %w", err)
	}
	e.Result = raw
	return e, nil
}

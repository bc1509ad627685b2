package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugohenrick/kommand/internal/adapter/repository/memory"
	"github.com/hugohenrick/kommand/internal/domain/actionlog"
	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/engine"
)

func TestEntryFromRecord(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	rec := engine.AuditRecord{
		Caller: command.Caller{UserID: 2, Role: command.RoleShopAdmin, ShopID: 1, SessionID: "s-1"},
		Input:  "delete product 4",
		Intent: &command.Intent{
			Steps:  []command.Step{{ID: "s1", Action: "delete_product", Params: map[string]any{"product_id": int64(4)}}},
			Source: command.SourceFallback,
		},
		Status: engine.AuditAwaitingConfirmation,
		Response: engine.Response{
			Action:               "delete_product",
			Message:              "Delete product 4? This cannot be undone.",
			RequiresConfirmation: true,
			ConfirmationID:       "tok",
			Intent:               &command.Intent{},
		},
		At: at,
	}

	e, err := EntryFromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, int64(2), e.UserID)
	assert.Equal(t, "shop_admin", e.Role)
	assert.Equal(t, "s-1", e.SessionID)
	assert.Equal(t, "delete_product", e.Action)
	assert.Equal(t, actionlog.StatusAwaitingConfirmation, e.Status)
	assert.Equal(t, at, e.CreatedAt)

	var intent command.Intent
	require.NoError(t, json.Unmarshal(e.Intent, &intent))
	assert.Equal(t, "delete_product", intent.Action())

	var result map[string]any
	require.NoError(t, json.Unmarshal(e.Result, &result))
	assert.Equal(t, "tok", result["confirmation_id"])
	assert.NotContains(t, result, "intent")
}

func TestAuditSinkWritesEntries(t *testing.T) {
	store := memory.NewStore()
	sink := NewAuditSink(store.ActionLogs())

	for _, status := range []engine.AuditStatus{engine.AuditFailed, engine.AuditSucceeded} {
		err := sink.Record(context.Background(), engine.AuditRecord{
			Caller:   command.Caller{UserID: 3, Role: command.RoleCustomer},
			Input:    "show my orders",
			Status:   status,
			Response: engine.Response{Action: "list_orders"},
			At:       time.Now(),
		})
		require.NoError(t, err)
	}

	entries, err := store.ActionLogs().ListByUser(context.Background(), 3, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, actionlog.StatusSucceeded, entries[0].Status)
	assert.Nil(t, entries[0].Intent)
}

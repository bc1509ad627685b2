package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugohenrick/kommand/internal/adapter/repository/memory"
	"github.com/hugohenrick/kommand/internal/capability"
	"github.com/hugohenrick/kommand/pkg/broadcast"
	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/binder"
	"github.com/hugohenrick/kommand/pkg/command/catalog"
	"github.com/hugohenrick/kommand/pkg/command/confirm"
	"github.com/hugohenrick/kommand/pkg/command/executor"
	"github.com/hugohenrick/kommand/pkg/command/intent"
	"github.com/hugohenrick/kommand/pkg/command/plan"
	"github.com/hugohenrick/kommand/pkg/command/session"
	"github.com/hugohenrick/kommand/pkg/domain"
	"github.com/hugohenrick/kommand/pkg/logger"
)

var (
	ravi  = command.Caller{UserID: 2, Role: command.RoleShopAdmin, ShopID: 1, SessionID: "ravi"}
	nisha = command.Caller{UserID: 4, Role: command.RoleShopAdmin, ShopID: 3, SessionID: "nisha"}
	priya = command.Caller{UserID: 3, Role: command.RoleCustomer, SessionID: "priya"}
)

type recorder struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (r *recorder) ID() string { return "recorder" }

func (r *recorder) Send(ev broadcast.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) ofType(typ string) []broadcast.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []broadcast.Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

type fixture struct {
	svc      *Service
	store    *memory.Store
	sessions *session.MemoryStore
	confirm  *confirm.Manager
	events   *recorder
	mu       sync.Mutex
	audit    []AuditRecord
}

func (f *fixture) records() []AuditRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]AuditRecord(nil), f.audit...)
}

func newFixture(t *testing.T, limiter Limiter) *fixture {
	t.Helper()
	log := logger.NewNop()
	cat := catalog.MustDefault()

	store := memory.NewStore()
	require.NoError(t, memory.Seed(context.Background(), store))

	reg := executor.NewRegistry()
	caps := capability.New(capability.Repositories{
		Shops:    store.Shops(),
		Products: store.Products(),
		Orders:   store.Orders(),
		Users:    store.Users(),
	}, log)
	require.NoError(t, caps.Register(reg))

	resolver, err := intent.NewResolver(cat, nil, log, intent.Options{})
	require.NoError(t, err)

	hub := broadcast.NewHub(log)
	t.Cleanup(hub.Close)
	events := &recorder{}
	require.NoError(t, hub.Register(events))

	f := &fixture{
		store:    store,
		sessions: session.NewMemoryStore(time.Hour, 0),
		confirm:  confirm.NewManager(time.Minute, time.Minute, log),
		events:   events,
	}

	svc, err := New(Deps{
		Catalog:   cat,
		Resolver:  resolver,
		Binder:    binder.New(cat),
		Executor:  executor.New(cat, reg, log),
		Confirm:   f.confirm,
		Sessions:  f.sessions,
		Publisher: hub,
		Limiter:   limiter,
		Audit: AuditFunc(func(_ context.Context, rec AuditRecord) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.audit = append(f.audit, rec)
			return nil
		}),
		Log: log,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) exec(c command.Caller, text string) Response {
	return f.svc.Execute(context.Background(), command.Request{Text: text, Caller: c})
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestPendingOrdersWithinShopScope(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.exec(ravi, "show pending orders")
	require.True(t, resp.Success, resp.Message)
	assert.False(t, resp.RequiresConfirmation)
	assert.Equal(t, "list_orders", resp.Action)
	assert.Equal(t, 1, resp.Data["count"])

	resp = f.exec(nisha, "show pending orders")
	require.True(t, resp.Success)
	assert.Equal(t, 0, resp.Data["count"])

	assert.Empty(t, f.events.ofType(broadcast.TypeDataUpdate))
	assert.Len(t, f.events.ofType(broadcast.TypeActionResult), 2)
}

func TestDestructiveActionNeedsConfirmation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	resp := f.exec(nisha, "delete product 5")
	assert.False(t, resp.Success)
	require.True(t, resp.RequiresConfirmation)
	require.NotEmpty(t, resp.ConfirmationID)
	require.NotNil(t, resp.ExpiresAt)
	assert.Equal(t, "delete_product", resp.Action)
	assert.Equal(t, "Delete product 5? This cannot be undone.", resp.Message)

	// nada foi aplicado ainda
	_, err := f.store.Products().FindByID(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, f.events.ofType(broadcast.TypeDataUpdate))

	resp = f.svc.Confirm(ctx, resp.ConfirmationID, nisha)
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, "delete_product", resp.Action)

	_, err = f.store.Products().FindByID(ctx, 5)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	updates := f.events.ofType(broadcast.TypeDataUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, "product", updates[0].Entity)
	assert.Equal(t, command.OperationDeleted, updates[0].Operation)
	assert.Equal(t, int64(5), updates[0].Data.(map[string]any)["id"])

	statuses := []AuditStatus{}
	for _, rec := range f.records() {
		statuses = append(statuses, rec.Status)
	}
	assert.Equal(t, []AuditStatus{AuditAwaitingConfirmation, AuditSucceeded}, statuses)
}

func TestConfirmationTokenIsSingleUse(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	resp := f.exec(ravi, "cancel order 1")
	require.True(t, resp.RequiresConfirmation)
	token := resp.ConfirmationID

	first := f.svc.Confirm(ctx, token, ravi)
	require.True(t, first.Success, first.Message)

	again := f.svc.Confirm(ctx, token, ravi)
	assert.False(t, again.Success)
	assert.Equal(t, command.KindConfirmationConsumed, again.ErrorKind)
	assert.Equal(t, ActionConfirm, again.Action)
}

func TestUnknownConfirmation(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.svc.Confirm(context.Background(), "not-a-real-token", ravi)
	assert.False(t, resp.Success)
	assert.Equal(t, command.KindConfirmationUnknown, resp.ErrorKind)

	// token de outro usuário também é desconhecido
	pending := f.exec(ravi, "cancel order 1")
	require.True(t, pending.RequiresConfirmation)
	resp = f.svc.Confirm(context.Background(), pending.ConfirmationID, nisha)
	assert.Equal(t, command.KindConfirmationUnknown, resp.ErrorKind)
}

func TestInlineConfirmationToken(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	pending := f.exec(ravi, "cancel order 1")
	require.True(t, pending.RequiresConfirmation)

	// o token só vale para o mesmo plano
	resp := f.svc.Execute(ctx, command.Request{Text: "cancel order 2", Caller: ravi, ConfirmationToken: pending.ConfirmationID})
	assert.Equal(t, command.KindConfirmationUnknown, resp.ErrorKind)

	resp = f.svc.Execute(ctx, command.Request{Text: "cancel order 1", Caller: ravi, ConfirmationToken: pending.ConfirmationID})
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, "Cancelled order #1", resp.Message)
}

func TestCompoundPlanStopsAtFailedStep(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.sessions.Remember(ctx, ravi.SessionID, session.EntityRef{Entity: "order", ID: 2, At: time.Now()}))

	pending := f.exec(ravi, "cancel that order and refund")
	require.True(t, pending.RequiresConfirmation)
	require.NotNil(t, pending.Intent)
	require.Len(t, pending.Intent.Steps, 2)
	assert.Equal(t, int64(2), pending.Intent.Steps[0].Params["order_id"])
	assert.Equal(t, "@results.s1.order_id", pending.Intent.Steps[1].Params["order_id"])

	resp := f.svc.Confirm(ctx, pending.ConfirmationID, ravi)
	assert.False(t, resp.Success)
	assert.Equal(t, "cancel_order", resp.Action)
	assert.Equal(t, command.KindDomainFailure, resp.ErrorKind)
	require.Len(t, resp.Steps, 2)
	assert.Equal(t, plan.StatusSucceeded, resp.Steps[0].Status)
	assert.Equal(t, plan.StatusFailed, resp.Steps[1].Status)
	assert.Equal(t, "order 2 cannot be refunded, current status: cancelled", resp.Steps[1].Result.Message)
	assert.Equal(t, "Completed 1 of 2 steps; refund_order failed: order 2 cannot be refunded, current status: cancelled", resp.Message)

	// o cancelamento continua aplicado
	p, err := f.store.Products().FindByID(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 25, p.Quantity)
	assert.Len(t, f.events.ofType(broadcast.TypeDataUpdate), 1)
}

func TestCompoundKeepsEveryClause(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// o passo destrutivo da segunda oração leva o plano inteiro à confirmação
	pending := f.exec(ravi, "restock product 2 by 5 and delete it")
	require.True(t, pending.RequiresConfirmation, pending.Message)
	require.Len(t, pending.Intent.Steps, 2)
	assert.Equal(t, "delete_product", pending.Intent.Steps[1].Action)

	resp := f.svc.Confirm(ctx, pending.ConfirmationID, ravi)
	require.True(t, resp.Success, resp.Message)
	require.Len(t, resp.Steps, 2)
	_, err := f.store.Products().FindByID(ctx, 2)
	assert.Error(t, err)

	pending = f.exec(ravi, "cancel order 1 and 2")
	require.True(t, pending.RequiresConfirmation, pending.Message)
	require.Len(t, pending.Intent.Steps, 2)

	resp = f.svc.Confirm(ctx, pending.ConfirmationID, ravi)
	require.True(t, resp.Success, resp.Message)
	for _, id := range []int64{1, 2} {
		o, err := f.store.Orders().FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", string(o.Status))
	}

	resp = f.exec(ravi, "restock product 1 by 5 and dance")
	assert.False(t, resp.Success)
	assert.Equal(t, command.KindParseFailure, resp.ErrorKind)
	// 50 do seed; o cancelamento do pedido 1 devolveu a reserva
	p, err := f.store.Products().FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 50, p.Quantity)
}

func TestPermissionDeniedIssuesNoToken(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.exec(priya, "suspend shop 5")
	assert.False(t, resp.Success)
	assert.False(t, resp.RequiresConfirmation)
	assert.Empty(t, resp.ConfirmationID)
	assert.Equal(t, command.KindPermissionDenied, resp.ErrorKind)
	assert.Equal(t, "suspend_shop", resp.Action)
	assert.Equal(t, 0, f.confirm.Len())
}

func TestSessionMemoryResolvesReferences(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.exec(ravi, "cancel that order")
	assert.Equal(t, command.KindClarificationNeeded, resp.ErrorKind)
	assert.Equal(t, []string{"order_id"}, resp.Missing)

	resp = f.exec(ravi, "show order 1")
	require.True(t, resp.Success, resp.Message)

	resp = f.exec(ravi, "cancel that order")
	require.True(t, resp.RequiresConfirmation)
	assert.Equal(t, int64(1), resp.Intent.Steps[0].Params["order_id"])
	assert.Equal(t, "Cancel order 1? Reserved stock will be released.", resp.Message)
}

func TestCancelPendingConfirmation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	pending := f.exec(ravi, "cancel order 1")
	require.True(t, pending.RequiresConfirmation)

	resp := f.svc.Cancel(ctx, pending.ConfirmationID, ravi)
	require.True(t, resp.Success)
	assert.Equal(t, "Action cancelled", resp.Message)

	resp = f.svc.Confirm(ctx, pending.ConfirmationID, ravi)
	assert.Equal(t, command.KindConfirmationUnknown, resp.ErrorKind)

	recs := f.records()
	assert.Equal(t, AuditCancelled, recs[1].Status)
}

func TestFailuresAreReported(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		text string
		kind command.Kind
	}{
		{"empty", "   ", command.KindParseFailure},
		{"unrecognized", "what is the weather", command.KindParseFailure},
		{"not found", "show product 99", command.KindNotFound},
		{"other shop", "restock product 5 by 5", command.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.exec(ravi, tt.text)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.kind, resp.ErrorKind)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestValidationNamesField(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.exec(ravi, "restock product 2 by 0")
	assert.Equal(t, command.KindValidationFailure, resp.ErrorKind)
	assert.Equal(t, "quantity", resp.Field)
	assert.NotEmpty(t, resp.Expected)
	assert.Empty(t, resp.Missing)
}

func TestRateLimited(t *testing.T) {
	f := newFixture(t, denyAll{})

	resp := f.exec(ravi, "show pending orders")
	assert.False(t, resp.Success)
	assert.Equal(t, command.KindRateLimited, resp.ErrorKind)
}

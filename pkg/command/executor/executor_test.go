package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/catalog"
	"github.com/hugohenrick/kommand/pkg/domain"
	"github.com/hugohenrick/kommand/pkg/logger"
)

var shopAdmin = command.Caller{UserID: 7, Role: command.RoleShopAdmin, ShopID: 3, SessionID: "s"}

func newExecutor(t *testing.T, caps map[string]Capability) *Executor {
	t.Helper()
	reg := NewRegistry()
	for name, c := range caps {
		require.NoError(t, reg.Register(name, c))
	}
	return New(catalog.MustDefault(), reg, logger.NewNop())
}

func TestExecute(t *testing.T) {
	var gotScope Scope
	var gotCtxErr error

	tests := []struct {
		name    string
		step    command.Step
		caller  command.Caller
		cap     Capability
		success bool
		kind    command.Kind
		message string
	}{
		{
			name:   "success with scope",
			step:   command.Step{ID: "s1", Action: "delete_product", Params: map[string]any{"product_id": int64(5)}},
			caller: shopAdmin,
			cap: func(ctx context.Context, scope Scope, params map[string]any) (*command.ActionResult, error) {
				gotScope = scope
				gotCtxErr = ctx.Err()
				return command.Succeeded("", "Product 5 deleted", map[string]any{"id": params["product_id"]},
					&command.EntityChange{Entity: "product", Operation: command.OperationDeleted, ID: 5}), nil
			},
			success: true,
			message: "Product 5 deleted",
		},
		{
			name:   "permission denied before capability",
			step:   command.Step{ID: "s1", Action: "suspend_shop", Params: map[string]any{"shop_id": int64(5)}},
			caller: command.Caller{UserID: 9, Role: command.RoleCustomer},
			cap: func(context.Context, Scope, map[string]any) (*command.ActionResult, error) {
				t.Fatal("capability must not run")
				return nil, nil
			},
			kind: command.KindPermissionDenied,
		},
		{
			name:   "not found",
			step:   command.Step{ID: "s1", Action: "get_order", Params: map[string]any{"order_id": int64(99)}},
			caller: shopAdmin,
			cap: func(context.Context, Scope, map[string]any) (*command.ActionResult, error) {
				return nil, domain.NotFound("order", 99)
			},
			kind:    command.KindNotFound,
			message: "order 99 not found",
		},
		{
			name:   "business rule",
			step:   command.Step{ID: "s1", Action: "refund_order", Params: map[string]any{"order_id": int64(42)}},
			caller: shopAdmin,
			cap: func(context.Context, Scope, map[string]any) (*command.ActionResult, error) {
				return nil, fmt.Errorf("erro ao reembolsar: %w", domain.NewRuleError("order", "order 42 cannot be refunded, current status: cancelled"))
			},
			kind:    command.KindDomainFailure,
			message: "order 42 cannot be refunded, current status: cancelled",
		},
		{
			name:   "unexpected error hides details",
			step:   command.Step{ID: "s1", Action: "list_orders", Params: map[string]any{}},
			caller: shopAdmin,
			cap: func(context.Context, Scope, map[string]any) (*command.ActionResult, error) {
				return nil, errors.New("connection reset by peer")
			},
			kind:    command.KindDomainFailure,
			message: "the operation could not be completed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExecutor(t, map[string]Capability{tt.step.Action: tt.cap})
			res := e.Execute(context.Background(), tt.step, tt.caller)
			require.NotNil(t, res)
			assert.Equal(t, tt.step.Action, res.Action)
			assert.Equal(t, tt.success, res.Success)
			if tt.message != "" {
				assert.Equal(t, tt.message, res.Message)
			}
			if !tt.success {
				require.NotNil(t, res.Err)
				assert.Equal(t, tt.kind, res.Err.Kind)
				assert.Equal(t, tt.step.Action, res.Err.Action)
			}
		})
	}

	assert.Equal(t, Scope{UserID: 7, ShopID: 3, Role: command.RoleShopAdmin}, gotScope)
	assert.NoError(t, gotCtxErr)
}

func TestExecuteDetachesFromCancellation(t *testing.T) {
	var ctxErr error
	e := newExecutor(t, map[string]Capability{
		"list_products": func(ctx context.Context, _ Scope, _ map[string]any) (*command.ActionResult, error) {
			ctxErr = ctx.Err()
			return command.Succeeded("", "ok", nil, nil), nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := e.Execute(ctx, command.Step{ID: "s1", Action: "list_products", Params: map[string]any{}}, shopAdmin)
	assert.True(t, res.Success)
	assert.NoError(t, ctxErr)
}

func TestExecuteUnregisteredAction(t *testing.T) {
	e := newExecutor(t, nil)
	res := e.Execute(context.Background(), command.Step{ID: "s1", Action: "list_products"}, shopAdmin)
	assert.False(t, res.Success)
	assert.Equal(t, command.KindDomainFailure, res.Err.Kind)

	res = e.Execute(context.Background(), command.Step{ID: "s1", Action: "launch_rocket"}, shopAdmin)
	assert.Equal(t, command.KindParseFailure, res.Err.Kind)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	noop := func(context.Context, Scope, map[string]any) (*command.ActionResult, error) { return nil, nil }

	require.NoError(t, reg.Register("list_products", noop))
	assert.Error(t, reg.Register("list_products", noop))
	assert.Equal(t, []string{"list_products"}, reg.Actions())

	missing := reg.Missing(catalog.MustDefault())
	assert.NotContains(t, missing, "list_products")
	assert.Contains(t, missing, "delete_product")
}

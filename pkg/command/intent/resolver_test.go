package intent

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/catalog"
	"github.com/hugohenrick/kommand/pkg/command/session"
	"github.com/hugohenrick/kommand/pkg/logger"
)

type fakeInferencer struct {
	raw    string
	err    error
	calls  int
	prompt string
}

func (f *fakeInferencer) Infer(_ context.Context, prompt string, _ map[string]any) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.raw, f.err
}

func newTestResolver(t *testing.T, infer Inferencer) *Resolver {
	t.Helper()
	r, err := NewResolver(catalog.MustDefault(), infer, logger.NewNop(), Options{})
	require.NoError(t, err)
	return r
}

func TestMatchSingleCommands(t *testing.T) {
	r := newTestResolver(t, nil)

	tests := []struct {
		name   string
		text   string
		role   command.Role
		action string
		params map[string]any
	}{
		{"delete product", "delete product 5", command.RoleShopAdmin, "delete_product", map[string]any{"product_id": "5"}},
		{"pending orders", "show pending orders", command.RoleShopAdmin, "list_orders", map[string]any{"status": "pending"}},
		{"hindi status alias", "रद्द ऑर्डर दिखाओ", command.RoleShopAdmin, "list_orders", map[string]any{"status": "cancelled"}},
		{"hinglish object first", "order 42 confirm karo", command.RoleShopAdmin, "confirm_order", map[string]any{"order_id": "42"}},
		{"devanagari digits", "Show Order ४२", command.RoleCustomer, "get_order", map[string]any{"order_id": "42"}},
		{"hindi cancel", "ऑर्डर 42 रद्द करो", command.RoleShopAdmin, "cancel_order", map[string]any{"order_id": "42"}},
		{"symbolic reference", "cancel that order", command.RoleShopAdmin, "cancel_order", map[string]any{"order_id": command.Ref{Entity: "order"}}},
		{"hindi symbolic reference", "वो ऑर्डर रद्द करो", command.RoleCustomer, "cancel_order", map[string]any{"order_id": command.Ref{Entity: "order"}}},
		{"verify pending shop", "verify pending shop 8", command.RoleSuperAdmin, "verify_shop", map[string]any{"shop_id": "8"}},
		{"pending shops", "show pending shops", command.RoleSuperAdmin, "get_pending_shops", map[string]any{}},
		{"shops in city keeps case", "list shops in Mumbai", command.RoleSuperAdmin, "list_shops", map[string]any{"city": "Mumbai"}},
		{"quoted product name", `add product "Toor Dal" price 150 quantity 20 cost 120`, command.RoleShopAdmin, "create_product",
			map[string]any{"name": "Toor Dal", "price": "150", "quantity": "20", "cost_price": "120"}},
		{"sell with customer and force", "sell product 5 at 90 to Ramesh Kumar anyway", command.RoleShopAdmin, "sell_at_price",
			map[string]any{"product_id": "5", "price": "90", "customer_name": "Ramesh Kumar", "force": true}},
		{"refund with reason", "refund order 7 because damaged", command.RoleShopAdmin, "refund_order", map[string]any{"order_id": "7", "reason": "damaged"}},
		{"restock hindi", "प्रोडक्ट 3 में 10 स्टॉक जोड़ो", command.RoleShopAdmin, "restock_product", map[string]any{"product_id": "3", "quantity": "10"}},
		{"user role alias", "show admin users", command.RoleSuperAdmin, "list_users", map[string]any{"role": "shop_admin"}},
		{"search keeps conjunction", "search basmati rice and dal", command.RoleCustomer, "search_products", map[string]any{"query": "basmati rice and dal"}},
		{"update several fields", "update product 5 price 99 cost 80 min stock 10", command.RoleShopAdmin, "update_product",
			map[string]any{"product_id": "5", "price": "99", "cost_price": "80", "min_stock_level": "10"}},
		{"rename quoted", `rename product 3 to "Sona Masoori Rice"`, command.RoleShopAdmin, "update_product", map[string]any{"product_id": "3", "name": "Sona Masoori Rice"}},
		{"rename hinglish", "product 5 ka naam Chawal karo", command.RoleShopAdmin, "update_product", map[string]any{"product_id": "5", "name": "Chawal"}},
		{"deactivate alias", "deactivate product 5", command.RoleShopAdmin, "toggle_product_status", map[string]any{"product_id": "5", "status": "inactive"}},
		{"hindi activate alias", "प्रोडक्ट 5 चालू करो", command.RoleShopAdmin, "toggle_product_status", map[string]any{"product_id": "5", "status": "active"}},
		{"toggle without status", "toggle product 3", command.RoleShopAdmin, "toggle_product_status", map[string]any{"product_id": "3"}},
		{"admin bill", "generate admin bill for order 7", command.RoleShopAdmin, "generate_bill", map[string]any{"order_id": "7", "bill_type": "admin"}},
		{"hinglish bill", "order 42 ka bill banao", command.RoleCustomer, "generate_bill", map[string]any{"order_id": "42"}},
		{"profit on a date", "profit report for 2026-03-01", command.RoleShopAdmin, "get_daily_profit", map[string]any{"date": "2026-03-01"}},
		{"hindi yesterday profit", "कल का मुनाफा", command.RoleShopAdmin, "get_daily_profit", map[string]any{"date": "कल"}},
		{"profit by product", "profit by product", command.RoleShopAdmin, "get_product_profit", map[string]any{}},
		{"profit summary", "show profit summary", command.RoleShopAdmin, "get_profit_summary", map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := r.Match(tt.text, tt.role)
			require.NoError(t, err)
			require.Len(t, in.Steps, 1)
			assert.Equal(t, tt.action, in.Steps[0].Action)
			assert.Equal(t, "s1", in.Steps[0].ID)
			assert.Equal(t, tt.params, in.Steps[0].Params)
			assert.Equal(t, command.SourceFallback, in.Source)
			assert.InDelta(t, 0.8, in.Confidence, 1e-9)
		})
	}
}

func TestMatchCatalogExamples(t *testing.T) {
	r := newTestResolver(t, nil)
	for _, d := range catalog.MustDefault().All() {
		role := d.Roles[0]
		examples := append(append([]string{}, d.Examples...), d.ExamplesHi...)
		for _, ex := range examples {
			in, err := r.Match(ex, role)
			if assert.NoError(t, err, ex) {
				assert.Equal(t, d.Name, in.Steps[0].Action, ex)
			}
		}
	}
}

func TestMatchCompound(t *testing.T) {
	r := newTestResolver(t, nil)

	t.Run("second clause inherits the order", func(t *testing.T) {
		in, err := r.Match("cancel that order and refund", command.RoleShopAdmin)
		require.NoError(t, err)
		require.Len(t, in.Steps, 2)
		assert.True(t, in.Compound())
		assert.Equal(t, command.Step{ID: "s1", Action: "cancel_order", Params: map[string]any{"order_id": command.Ref{Entity: "order"}}}, in.Steps[0])
		assert.Equal(t, command.Step{ID: "s2", Action: "refund_order", Params: map[string]any{"order_id": "@results.s1.order_id"}}, in.Steps[1])
		assert.Empty(t, in.Missing)
	})

	t.Run("hindi conjunction", func(t *testing.T) {
		in, err := r.Match("ऑर्डर 42 रद्द करो और रिफंड करो", command.RoleShopAdmin)
		require.NoError(t, err)
		require.Len(t, in.Steps, 2)
		assert.Equal(t, "42", in.Steps[0].Params["order_id"])
		assert.Equal(t, "@results.s1.order_id", in.Steps[1].Params["order_id"])
	})

	t.Run("explicit id is kept", func(t *testing.T) {
		in, err := r.Match("confirm order 7 then ship order 9", command.RoleShopAdmin)
		require.NoError(t, err)
		require.Len(t, in.Steps, 2)
		assert.Equal(t, "9", in.Steps[1].Params["order_id"])
	})

	t.Run("different entity is not inherited", func(t *testing.T) {
		in, err := r.Match("restock product 5 and ship it", command.RoleShopAdmin)
		require.NoError(t, err)
		require.Len(t, in.Steps, 2)
		assert.NotContains(t, in.Steps[1].Params, "order_id")
		assert.Equal(t, []string{"s1.quantity", "s2.order_id"}, in.Missing)
	})

	t.Run("pronoun clause inherits the product", func(t *testing.T) {
		in, err := r.Match("restock product 1 by 5 and delete it", command.RoleShopAdmin)
		require.NoError(t, err)
		require.Len(t, in.Steps, 2)
		assert.Equal(t, "restock_product", in.Steps[0].Action)
		assert.Equal(t, command.Step{ID: "s2", Action: "delete_product", Params: map[string]any{"product_id": "@results.s1.product_id"}}, in.Steps[1])
		assert.Empty(t, in.Missing)
	})

	lists := []struct {
		name   string
		text   string
		action string
		param  string
		ids    []string
	}{
		{"bare id repeats the action", "cancel order 1 and 2", "cancel_order", "order_id", []string{"1", "2"}},
		{"noun and id repeat the action", "delete product 1 and product 2", "delete_product", "product_id", []string{"1", "2"}},
		{"hash ids", "confirm order #3 and #4 and #5", "confirm_order", "order_id", []string{"3", "4", "5"}},
	}
	for _, tt := range lists {
		t.Run(tt.name, func(t *testing.T) {
			in, err := r.Match(tt.text, command.RoleShopAdmin)
			require.NoError(t, err)
			require.Len(t, in.Steps, len(tt.ids))
			for i, id := range tt.ids {
				assert.Equal(t, tt.action, in.Steps[i].Action)
				assert.Equal(t, id, in.Steps[i].Params[tt.param])
			}
		})
	}

	unmatched := []struct {
		name   string
		text   string
		clause string
	}{
		{"unknown second clause", "restock product 1 by 5 and dance", "dance"},
		{"id of another entity", "cancel order 1 and product 2", "product 2"},
		{"unknown first clause", "sing a song then cancel order 1", "sing a song"},
	}
	for _, tt := range unmatched {
		t.Run(tt.name, func(t *testing.T) {
			in, err := r.Match(tt.text, command.RoleShopAdmin)
			require.Error(t, err)
			assert.Nil(t, in)
			assert.Equal(t, command.KindParseFailure, command.KindOf(err))
			assert.Contains(t, err.Error(), tt.clause)
		})
	}

	t.Run("too many clauses", func(t *testing.T) {
		_, err := r.Match("confirm order 1 and 2 and 3 and 4 and 5 and 6", command.RoleShopAdmin)
		assert.Equal(t, command.KindParseFailure, command.KindOf(err))
	})

	t.Run("free text spanning many conjunctions", func(t *testing.T) {
		in, err := r.Match("search rice and dal and atta and ghee and oil and salt", command.RoleCustomer)
		require.NoError(t, err)
		require.Len(t, in.Steps, 1)
		assert.Equal(t, "rice and dal and atta and ghee and oil and salt", in.Steps[0].Params["query"])
	})
}

func TestMatchFailures(t *testing.T) {
	r := newTestResolver(t, nil)

	_, err := r.Match("suspend shop 5", command.RoleCustomer)
	require.Error(t, err)
	assert.Equal(t, command.KindPermissionDenied, command.KindOf(err))
	assert.True(t, errors.Is(err, &command.Error{Kind: command.KindPermissionDenied, Action: "suspend_shop"}))

	_, err = r.Match("what is the weather", command.RoleShopAdmin)
	assert.Equal(t, command.KindParseFailure, command.KindOf(err))

	_, err = r.Resolve(context.Background(), "   ", command.Caller{Role: command.RoleShopAdmin}, session.Snapshot{})
	assert.Equal(t, command.KindParseFailure, command.KindOf(err))
}

func TestMatchReportsMissingParams(t *testing.T) {
	r := newTestResolver(t, nil)

	in, err := r.Match("cancel it", command.RoleShopAdmin)
	require.NoError(t, err)
	assert.Equal(t, []string{"order_id"}, in.Missing)
}

func TestResolvePrimaryPath(t *testing.T) {
	caller := command.Caller{UserID: 1, Role: command.RoleShopAdmin, ShopID: 3, SessionID: "s"}
	mem := session.Snapshot{Refs: []session.EntityRef{{Entity: "order", ID: 42, At: time.Now()}}}

	t.Run("accepted", func(t *testing.T) {
		f := &fakeInferencer{raw: `{"confidence":0.92,"steps":[{"action":"cancel_order","params":{"order_id":"@ref:order","bogus":1}}]}`}
		r := newTestResolver(t, f)

		in, err := r.Resolve(context.Background(), "cancel it", caller, mem)
		require.NoError(t, err)
		assert.Equal(t, command.SourcePrimary, in.Source)
		assert.Equal(t, map[string]any{"order_id": command.Ref{Entity: "order"}}, in.Steps[0].Params)
		assert.Contains(t, f.prompt, "order 42")
		assert.NotContains(t, f.prompt, "suspend_shop")
	})

	t.Run("fenced output is accepted", func(t *testing.T) {
		f := &fakeInferencer{raw: "```json\n{\"confidence\":0.9,\"steps\":[{\"action\":\"get_order\",\"params\":{\"order_id\":7}}]}\n```"}
		r := newTestResolver(t, f)

		in, err := r.Resolve(context.Background(), "order 7?", caller, mem)
		require.NoError(t, err)
		assert.Equal(t, command.SourcePrimary, in.Source)
		assert.Equal(t, float64(7), in.Steps[0].Params["order_id"])
	})

	fallbackCases := []struct {
		name string
		f    *fakeInferencer
	}{
		{"low confidence", &fakeInferencer{raw: `{"confidence":0.3,"steps":[{"action":"list_products","params":{}}]}`}},
		{"inference error", &fakeInferencer{err: context.DeadlineExceeded}},
		{"saturated", &fakeInferencer{err: ErrSaturated}},
		{"schema violation", &fakeInferencer{raw: `{"confidence":0.9,"steps":[]}`}},
		{"not json", &fakeInferencer{raw: `sure, here you go`}},
	}
	for _, tt := range fallbackCases {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, tt.f)
			in, err := r.Resolve(context.Background(), "cancel order 42", caller, mem)
			require.NoError(t, err)
			assert.Equal(t, 1, tt.f.calls)
			assert.Equal(t, command.SourceFallback, in.Source)
			assert.Equal(t, "cancel_order", in.Action())
		})
	}

	t.Run("action outside role subset", func(t *testing.T) {
		f := &fakeInferencer{raw: `{"confidence":0.95,"steps":[{"action":"suspend_shop","params":{"shop_id":5}}]}`}
		r := newTestResolver(t, f)

		_, err := r.Resolve(context.Background(), "cancel order 42", caller, mem)
		assert.Equal(t, command.KindParseFailure, command.KindOf(err))
	})
}

func TestMatchIsDeterministic(t *testing.T) {
	r := newTestResolver(t, nil)
	phrases := []string{
		"cancel that order and refund", "delete product 5", "ऑर्डर 42 रद्द करो", "show pending orders",
		"restock product 5 by 20", "search rice", "isko cancel karo", "verify shop 12",
		"cancel order 1 and 2", "restock product 1 by 5 and delete it",
	}
	roles := []command.Role{command.RoleSuperAdmin, command.RoleShopAdmin, command.RoleCustomer}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("same text and role give the same intent", prop.ForAll(
		func(pi int, suffix string, ri int) bool {
			text, role := phrases[pi]+" "+suffix, roles[ri]
			a, errA := r.Match(text, role)
			b, errB := r.Match(text, role)
			if errA != nil || errB != nil {
				return command.KindOf(errA) == command.KindOf(errB) && (errA == nil) == (errB == nil)
			}
			return reflect.DeepEqual(a, b)
		},
		gen.IntRange(0, len(phrases)-1),
		gen.AlphaString(),
		gen.IntRange(0, len(roles)-1),
	))

	properties.TestingRun(t)
}

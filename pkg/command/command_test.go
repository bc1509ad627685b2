package command

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"super_admin", RoleSuperAdmin, true},
		{"admin", RoleShopAdmin, true},
		{" Shop_Admin ", RoleShopAdmin, true},
		{"customer", RoleCustomer, true},
		{"guest", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseRole(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveParams(t *testing.T) {
	outputs := map[string]map[string]any{
		"s1": {"order_id": int64(42), "status": "cancelled"},
	}

	testCases := []struct {
		name        string
		params      map[string]any
		expected    map[string]any
		wantMissing []string
	}{
		{
			name:     "template replaced by previous output",
			params:   map[string]any{"order_id": "@results.s1.order_id"},
			expected: map[string]any{"order_id": int64(42)},
		},
		{
			name:     "plain values preserved",
			params:   map[string]any{"quantity": 3, "reason": "late"},
			expected: map[string]any{"quantity": 3, "reason": "late"},
		},
		{
			name:        "unknown step reported as missing",
			params:      map[string]any{"order_id": "@results.s9.order_id"},
			expected:    map[string]any{},
			wantMissing: []string{"order_id"},
		},
		{
			name:        "unknown key reported as missing",
			params:      map[string]any{"product_id": "@results.s1.product_id"},
			expected:    map[string]any{},
			wantMissing: []string{"product_id"},
		},
		{
			name: "missing listed in sorted order",
			params: map[string]any{
				"quantity":   "@results.s3.quantity",
				"order_id":   "@results.s9.order_id",
				"product_id": "@results.s1.product_id",
				"reason":     "late",
			},
			expected:    map[string]any{"reason": "late"},
			wantMissing: []string{"order_id", "product_id", "quantity"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, missing := ResolveParams(tc.params, outputs)
			assert.Equal(t, tc.expected, got)
			assert.Equal(t, tc.wantMissing, missing)
		})
	}
}

func TestParseTemplate(t *testing.T) {
	step, key, ok := ParseTemplate(ResultTemplate("s2", "product_id"))
	require.True(t, ok)
	assert.Equal(t, "s2", step)
	assert.Equal(t, "product_id", key)

	_, _, ok = ParseTemplate("order 5")
	assert.False(t, ok)
	_, _, ok = ParseTemplate(42)
	assert.False(t, ok)
}

func TestErrorClassification(t *testing.T) {
	wrapped := fmt.Errorf("resolve: %w", ParseFailure("no command recognized"))
	assert.Equal(t, KindParseFailure, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, &Error{Kind: KindParseFailure}))
	assert.False(t, errors.Is(wrapped, &Error{Kind: KindNotFound}))

	plain := errors.New("boom")
	assert.Equal(t, KindDomainFailure, KindOf(plain))

	res := Failed("cancel_order", plain)
	assert.False(t, res.Success)
	assert.Equal(t, "cancel_order", res.Action)
	require.NotNil(t, res.Err)
	assert.Equal(t, KindDomainFailure, res.Err.Kind)

	res = Failed("cancel_order", ClarificationNeeded("", []string{"s1.order_id"}))
	assert.Equal(t, KindClarificationNeeded, res.Err.Kind)
	assert.Equal(t, "cancel_order", res.Err.Action)
	assert.Equal(t, []string{"s1.order_id"}, res.Err.Fields)
}

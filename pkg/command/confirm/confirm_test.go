package confirm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/logger"
)

var (
	owner    = command.Caller{UserID: 10, Role: command.RoleShopAdmin, ShopID: 3, SessionID: "a"}
	stranger = command.Caller{UserID: 11, Role: command.RoleShopAdmin, ShopID: 3, SessionID: "b"}
)

func deleteProduct(id int64) []command.Step {
	return []command.Step{{ID: "s1", Action: "delete_product", Params: map[string]any{"product_id": id}}}
}

func TestConfirmIsSingleUse(t *testing.T) {
	m := NewManager(time.Minute, time.Minute, logger.NewNop())

	p, err := m.Create(deleteProduct(5), owner)
	require.NoError(t, err)
	assert.NotEmpty(t, p.Token)
	assert.Equal(t, "delete_product", p.Action())

	got, err := m.Confirm(p.Token, owner)
	require.NoError(t, err)
	assert.Equal(t, p.Steps, got.Steps)
	assert.True(t, got.Consumed)

	_, err = m.Confirm(p.Token, owner)
	assert.ErrorIs(t, err, ErrAlreadyConsumed)
	assert.Equal(t, command.KindConfirmationConsumed, command.KindOf(err))
}

func TestConfirmUnknown(t *testing.T) {
	m := NewManager(time.Minute, time.Minute, logger.NewNop())

	_, err := m.Confirm("not-a-real-token", owner)
	assert.ErrorIs(t, err, ErrUnknown)
	assert.Equal(t, command.KindConfirmationUnknown, command.KindOf(err))

	p, err := m.Create(deleteProduct(5), owner)
	require.NoError(t, err)

	_, err = m.Confirm(p.Token, stranger)
	assert.ErrorIs(t, err, ErrUnknown)

	// outro solicitante não consome
	_, err = m.Confirm(p.Token, owner)
	assert.NoError(t, err)
}

func TestConfirmExpired(t *testing.T) {
	m := NewManager(time.Minute, time.Minute, logger.NewNop())
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	p, err := m.Create(deleteProduct(5), owner)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = m.Confirm(p.Token, owner)
	assert.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, command.KindConfirmationExpired, command.KindOf(err))
	assert.Zero(t, m.Len())
}

func TestMatchRequiresSameFingerprint(t *testing.T) {
	m := NewManager(time.Minute, time.Minute, logger.NewNop())

	p, err := m.Create(deleteProduct(5), owner)
	require.NoError(t, err)

	_, err = m.Match(p.Token, Fingerprint(deleteProduct(6)), owner)
	assert.ErrorIs(t, err, ErrUnknown)

	got, err := m.Match(p.Token, Fingerprint(deleteProduct(5)), owner)
	require.NoError(t, err)
	assert.Equal(t, p.Token, got.Token)
}

func TestFingerprintIgnoresMapOrder(t *testing.T) {
	a := []command.Step{{Action: "sell_at_price", Params: map[string]any{"product_id": int64(1), "price": 9.5, "force": true}}}
	b := []command.Step{{Action: "sell_at_price", Params: map[string]any{"force": true, "price": 9.5, "product_id": int64(1)}}}
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(deleteProduct(1)))
}

func TestCancel(t *testing.T) {
	m := NewManager(time.Minute, time.Minute, logger.NewNop())

	p, err := m.Create(deleteProduct(5), owner)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Cancel(p.Token, stranger), ErrUnknown)
	require.NoError(t, m.Cancel(p.Token, owner))

	_, err = m.Confirm(p.Token, owner)
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestConfirmConcurrentSingleWinner(t *testing.T) {
	m := NewManager(time.Minute, time.Minute, logger.NewNop())
	p, err := m.Create(deleteProduct(5), owner)
	require.NoError(t, err)

	const callers = 32
	var wins, consumed atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := m.Confirm(p.Token, owner)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ErrAlreadyConsumed):
				consumed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(callers-1), consumed.Load())
}

func TestSweepLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewManager(10*time.Millisecond, 5*time.Millisecond, logger.NewNop())
	_, err := m.Create(deleteProduct(5), owner)
	require.NoError(t, err)

	m.Start(context.Background())
	defer m.Close()

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestCloseWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewManager(0, 0, logger.NewNop())
	m.Close()
	m.Close()
}

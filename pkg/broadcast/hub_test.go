package broadcast

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/logger"
)

type recorder struct {
	id     string
	fail   bool
	mu     sync.Mutex
	events []Event
	closed bool
}

func (r *recorder) ID() string { return r.id }

func (r *recorder) Send(ev Event) error {
	if r.fail {
		return errors.New("broken pipe")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recorder) received() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestPublishRemovesFailedSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := NewHub(logger.NewNop())
	ok := &recorder{id: "ok"}
	bad := &recorder{id: "bad", fail: true}
	require.NoError(t, h.Register(ok))
	require.NoError(t, h.Register(bad))

	delivered := h.PublishChange(&command.EntityChange{Entity: "product", Operation: command.OperationUpdated, ID: 5}, map[string]any{"id": 5})
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, h.Len())
	assert.True(t, bad.closed)

	got := ok.received()
	require.Len(t, got, 1)
	assert.Equal(t, TypeDataUpdate, got[0].Type)
	assert.Equal(t, "product", got[0].Entity)
	assert.Equal(t, command.OperationUpdated, got[0].Operation)
}

func TestPublishResult(t *testing.T) {
	h := NewHub(logger.NewNop())
	r := &recorder{id: "r"}
	require.NoError(t, h.Register(r))

	h.PublishResult(command.Failed("refund_order", command.NewError(command.KindDomainFailure, "refund_order", "cannot refund")))
	assert.Zero(t, h.PublishChange(nil, nil))
	assert.Zero(t, h.PublishResult(nil))

	got := r.received()
	require.Len(t, got, 1)
	assert.Equal(t, TypeActionResult, got[0].Type)
	assert.Equal(t, "refund_order", got[0].Action)
	require.NotNil(t, got[0].Success)
	assert.False(t, *got[0].Success)
	assert.Equal(t, "cannot refund", got[0].Message)
}

func TestConcurrentPublishAndRegister(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := NewHub(logger.NewNop())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			r := &recorder{id: string(rune('a' + i))}
			_ = h.Register(r)
			h.Unregister(r.id)
		}(i)
		go func() {
			defer wg.Done()
			h.Publish(Event{Type: TypeActionResult})
		}()
	}
	wg.Wait()
	assert.Zero(t, h.Len())
}

func TestCloseClosesSubscribers(t *testing.T) {
	h := NewHub(logger.NewNop())
	r := &recorder{id: "r"}
	require.NoError(t, h.Register(r))

	h.Close()
	h.Close()

	assert.True(t, r.closed)
	assert.Zero(t, h.Publish(Event{Type: TypeActionResult}))
	assert.ErrorIs(t, h.Register(&recorder{id: "late"}), ErrClosed)
}

func TestWebSocketSubscriber(t *testing.T) {
	h := NewHub(logger.NewNop())
	up := NewUpgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := Accept(h, up, w, r, logger.NewNop())
		if err != nil {
			return
		}
		c.Serve()
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("ping")))
	var pong Event
	require.NoError(t, client.ReadJSON(&pong))
	assert.Equal(t, TypePong, pong.Type)
	assert.Equal(t, "ping", pong.Data)

	assert.Equal(t, 1, h.PublishChange(&command.EntityChange{Entity: "order", Operation: command.OperationUpdated, ID: 42}, map[string]any{"id": 42}))
	var update Event
	require.NoError(t, client.ReadJSON(&update))
	assert.Equal(t, TypeDataUpdate, update.Type)
	assert.Equal(t, "order", update.Entity)

	require.NoError(t, client.Close())
	assert.Eventually(t, func() bool { return h.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestUpgraderOrigins(t *testing.T) {
	up := NewUpgrader([]string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, up.CheckOrigin(req))

	req.Header.Set("Origin", "https://app.example.com")
	assert.True(t, up.CheckOrigin(req))
}

package intent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hugohenrick/kommand/pkg/logger"
)

// o SDK de inferência sobe o worker do opencensus no init
var leakOptions = []goleak.Option{
	goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
}

type blockingProvider struct {
	release chan struct{}
	started chan struct{}
	reply   string
}

func (p *blockingProvider) Name() string { return "blocking" }

func (p *blockingProvider) GenerateJSON(ctx context.Context, _ string, _ map[string]any) (string, error) {
	if p.started != nil {
		p.started <- struct{}{}
	}
	select {
	case <-p.release:
		return p.reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestDispatcherReturnsProviderOutput(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	p := &blockingProvider{release: make(chan struct{}), reply: `{"confidence":1,"steps":[{"action":"list_products"}]}`}
	close(p.release)
	d := NewDispatcher(p, DispatcherOptions{Workers: 2, QueueSize: 2, Timeout: time.Second}, logger.NewNop())
	d.Start()
	defer d.Close()

	raw, err := d.Infer(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, p.reply, raw)
}

func TestDispatcherTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	p := &blockingProvider{release: make(chan struct{})}
	d := NewDispatcher(p, DispatcherOptions{Workers: 1, Timeout: 30 * time.Millisecond}, logger.NewNop())
	d.Start()
	defer d.Close()

	start := time.Now()
	_, err := d.Infer(context.Background(), "prompt", nil)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}

func TestDispatcherSaturation(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	p := &blockingProvider{release: make(chan struct{}), started: make(chan struct{}, 1)}
	d := NewDispatcher(p, DispatcherOptions{Workers: 1, QueueSize: 0, Timeout: 5 * time.Second}, logger.NewNop())
	d.Start()
	defer d.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = d.Infer(context.Background(), "first", nil)
	}()
	<-p.started

	_, err := d.Infer(context.Background(), "second", nil)
	assert.ErrorIs(t, err, ErrSaturated)

	close(p.release)
	wg.Wait()
}

func TestDispatcherClosed(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	p := &blockingProvider{release: make(chan struct{})}
	d := NewDispatcher(p, DispatcherOptions{Workers: 1, Timeout: time.Second}, logger.NewNop())
	d.Start()
	d.Close()
	d.Close()

	_, err := d.Infer(context.Background(), "prompt", nil)
	assert.ErrorIs(t, err, ErrDispatcherClosed)
}

package intent

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hugohenrick/kommand/pkg/llm"
	"github.com/hugohenrick/kommand/pkg/logger"
)

var (
	// ErrSaturated indica que o pool e a fila estão cheios
	ErrSaturated = errors.New("inference pool saturated")
	// ErrDispatcherClosed indica que o dispatcher foi encerrado
	ErrDispatcherClosed = errors.New("inference dispatcher closed")
)

// Inferencer é o contrato que o resolvedor usa para o caminho primário
type Inferencer interface {
	Infer(ctx context.Context, prompt string, schema map[string]any) (string, error)
}

// DispatcherOptions configura o pool de inferência
type DispatcherOptions struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

type inferJob struct {
	ctx    context.Context
	prompt string
	schema map[string]any
	reply  chan inferReply
}

type inferReply struct {
	raw string
	err error
}

// Dispatcher tira as chamadas ao modelo do caminho da requisição: um número
// fixo de workers consome uma fila limitada e quem chama espera com timeout.
type Dispatcher struct {
	provider llm.Provider
	log      logger.Logger
	timeout  time.Duration
	workers  int

	admission *semaphore.Weighted
	jobs      chan inferJob
	stop      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// NewDispatcher cria o dispatcher; Start precisa ser chamado antes do uso
func NewDispatcher(provider llm.Provider, opts DispatcherOptions, log logger.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize < 0 {
		opts.QueueSize = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 4 * time.Second
	}
	return &Dispatcher{
		provider:  provider,
		log:       log,
		timeout:   opts.Timeout,
		workers:   opts.Workers,
		admission: semaphore.NewWeighted(int64(opts.Workers + opts.QueueSize)),
		jobs:      make(chan inferJob, opts.QueueSize),
		stop:      make(chan struct{}),
	}
}

// Start sobe os workers
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.worker(i)
		}
		d.log.Info("Dispatcher de inferência iniciado", "workers", d.workers, "provider", d.provider.Name())
	})
}

// Close encerra os workers e espera que terminem
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.stop)
		d.wg.Wait()
		d.log.Info("Dispatcher de inferência encerrado")
	})
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case <-d.stop:
			return
		case job := <-d.jobs:
			if err := job.ctx.Err(); err != nil {
				job.reply <- inferReply{err: err}
				continue
			}
			start := time.Now()
			raw, err := d.provider.GenerateJSON(job.ctx, job.prompt, job.schema)
			d.log.Debug("Inferência concluída", "worker", id, "duration_ms", time.Since(start).Milliseconds(), "error", err)
			job.reply <- inferReply{raw: raw, err: err}
		}
	}
}

// Infer envia o prompt ao pool. Sem vaga devolve ErrSaturated imediatamente;
// caso contrário espera no máximo o timeout configurado.
func (d *Dispatcher) Infer(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	select {
	case <-d.stop:
		return "", ErrDispatcherClosed
	default:
	}
	if !d.admission.TryAcquire(1) {
		return "", ErrSaturated
	}
	defer d.admission.Release(1)

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	// buffer 1: o worker nunca bloqueia ao responder a quem já desistiu
	reply := make(chan inferReply, 1)
	job := inferJob{ctx: ctx, prompt: prompt, schema: schema, reply: reply}

	select {
	case d.jobs <- job:
	case <-d.stop:
		return "", ErrDispatcherClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case r := <-reply:
		return r.raw, r.err
	case <-d.stop:
		return "", ErrDispatcherClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

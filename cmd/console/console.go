package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/hugohenrick/kommand/internal/adapter/repository"
	"github.com/hugohenrick/kommand/internal/adapter/repository/memory"
	"github.com/hugohenrick/kommand/internal/capability"
	"github.com/hugohenrick/kommand/pkg/broadcast"
	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/binder"
	"github.com/hugohenrick/kommand/pkg/command/catalog"
	"github.com/hugohenrick/kommand/pkg/command/confirm"
	"github.com/hugohenrick/kommand/pkg/command/engine"
	"github.com/hugohenrick/kommand/pkg/command/executor"
	"github.com/hugohenrick/kommand/pkg/command/intent"
	"github.com/hugohenrick/kommand/pkg/command/session"
	"github.com/hugohenrick/kommand/pkg/command/suggest"
	"github.com/hugohenrick/kommand/pkg/config"
	"github.com/hugohenrick/kommand/pkg/llm"
	"github.com/hugohenrick/kommand/pkg/logger"
)

const banner = `Kommand console. Digite um comando em inglês, hindi ou hinglish.
  yes / haan      confirma a ação pendente
  no / nahi       cancela a ação pendente
  :user <email>   troca de usuário
  :suggest <txt>  sugere comandos
  :quick          atalhos do papel
  exit            sai`

// console liga o motor de comandos ao armazenamento em memória
type console struct {
	log        logger.Logger
	store      *memory.Store
	engine     *engine.Service
	suggest    *suggest.Engine
	confirm    *confirm.Manager
	hub        *broadcast.Hub
	dispatcher *intent.Dispatcher

	caller  command.Caller
	email   string
	pending string
}

func newConsole(ctx context.Context, cfg *config.Config, log logger.Logger, useLLM bool) (*console, error) {
	store := memory.NewStore()
	if err := memory.Seed(ctx, store); err != nil {
		return nil, fmt.Errorf("erro ao carregar dados de demonstração: %w", err)
	}

	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar catálogo: %w", err)
	}
	registry := executor.NewRegistry()
	caps := capability.New(capability.Repositories{
		Shops:    store.Shops(),
		Products: store.Products(),
		Orders:   store.Orders(),
		Users:    store.Users(),
	}, log)
	if err := caps.Register(registry); err != nil {
		return nil, fmt.Errorf("erro ao registrar capacidades: %w", err)
	}

	c := &console{log: log, store: store, suggest: suggest.New(cat)}

	var infer intent.Inferencer
	if useLLM {
		provider, err := llm.New(ctx, llm.Config{
			Backend:    cfg.LLM.Backend,
			Model:      cfg.LLM.Model,
			APIKey:     cfg.LLM.GeminiAPIKey,
			OllamaHost: cfg.LLM.OllamaHost,
		})
		if err != nil {
			return nil, fmt.Errorf("erro ao configurar inferência: %w", err)
		}
		c.dispatcher = intent.NewDispatcher(provider, intent.DispatcherOptions{
			Workers:   1,
			QueueSize: 1,
			Timeout:   cfg.LLM.Timeout,
		}, log)
		c.dispatcher.Start()
		infer = c.dispatcher
	}
	resolver, err := intent.NewResolver(cat, infer, log, intent.Options{MinConfidence: cfg.LLM.MinConfidence})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("erro ao criar resolvedor: %w", err)
	}

	c.confirm = confirm.NewManager(cfg.Command.ConfirmationTTL, cfg.Command.SweepInterval, log)
	c.confirm.Start(ctx)
	c.hub = broadcast.NewHub(log)

	c.engine, err = engine.New(engine.Deps{
		Catalog:   cat,
		Resolver:  resolver,
		Binder:    binder.New(cat),
		Executor:  executor.New(cat, registry, log),
		Confirm:   c.confirm,
		Sessions:  session.NewMemoryStore(cfg.Command.SessionTTL, cfg.Command.SessionMaxRefs),
		Publisher: c.hub,
		Audit:     repository.NewAuditSink(store.ActionLogs()),
		Log:       log,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("erro ao criar motor de comandos: %w", err)
	}
	return c, nil
}

// login troca o usuário corrente e abre uma sessão nova
func (c *console) login(ctx context.Context, email string) error {
	u, err := c.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("usuário %s: %w", email, err)
	}
	c.caller = u.Caller(uuid.NewString())
	c.email = u.Email
	c.pending = ""
	return nil
}

// Run executa o REPL até exit, EOF ou cancelamento do ctx
func (c *console) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.prompt(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("erro ao iniciar terminal: %w", err)
	}
	defer rl.Close()

	out := &printer{w: rl.Stdout()}
	if err := c.hub.Register(&eventPrinter{id: "console", out: out}); err != nil {
		return err
	}
	out.println(banner)

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if quit := c.handle(ctx, line, out); quit {
			return nil
		}
		rl.SetPrompt(c.prompt())
	}
}

func (c *console) prompt() string {
	return fmt.Sprintf("%s [%s]> ", c.email, c.caller.Role)
}

// handle trata uma linha; retorna true para encerrar
func (c *console) handle(ctx context.Context, line string, out *printer) bool {
	lower := strings.ToLower(line)
	switch {
	case lower == "exit" || lower == "quit":
		return true

	case isYes(lower) && c.pending != "":
		token := c.pending
		c.pending = ""
		c.show(out, c.engine.Confirm(ctx, token, c.caller))

	case isNo(lower) && c.pending != "":
		token := c.pending
		c.pending = ""
		c.show(out, c.engine.Cancel(ctx, token, c.caller))

	case strings.HasPrefix(lower, ":user "):
		if err := c.login(ctx, strings.TrimSpace(line[len(":user "):])); err != nil {
			out.println("erro: " + err.Error())
		}

	case strings.HasPrefix(lower, ":suggest"):
		q := strings.TrimSpace(line[len(":suggest"):])
		for _, s := range c.suggest.Suggest(q, c.caller.Role, suggest.DefaultLimit) {
			out.println(fmt.Sprintf("  %-22s %s", s.Command, s.Description))
		}

	case lower == ":quick":
		for _, q := range c.suggest.QuickActions(c.caller.Role) {
			out.println(fmt.Sprintf("  %s: %s", q.Label, q.Command))
		}

	default:
		c.show(out, c.engine.Execute(ctx, command.Request{Text: line, Caller: c.caller}))
	}
	return false
}

func (c *console) show(out *printer, resp engine.Response) {
	if resp.RequiresConfirmation {
		c.pending = resp.ConfirmationID
		out.println(resp.Message + " (yes/no)")
		return
	}
	mark := "ok"
	if !resp.Success {
		mark = string(resp.ErrorKind)
	}
	out.println(fmt.Sprintf("[%s] %s", mark, resp.Message))
	if len(resp.Missing) > 0 {
		out.println("  faltando: " + strings.Join(resp.Missing, ", "))
	}
	if len(resp.Data) > 0 {
		b, err := json.MarshalIndent(resp.Data, "  ", "  ")
		if err == nil {
			out.println("  " + string(b))
		}
	}
}

// Close libera as rotinas de fundo
func (c *console) Close() {
	if c.hub != nil {
		c.hub.Close()
	}
	if c.confirm != nil {
		c.confirm.Close()
	}
	if c.dispatcher != nil {
		c.dispatcher.Close()
	}
}

func isYes(s string) bool {
	switch s {
	case "yes", "y", "confirm", "haan", "ha", "han", "हाँ", "हां":
		return true
	}
	return false
}

func isNo(s string) bool {
	switch s {
	case "no", "n", "cancel", "nahi", "nahin", "नहीं":
		return true
	}
	return false
}

// printer serializa a escrita do REPL e do hub
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.w, s)
}

// eventPrinter mostra os eventos de alteração publicados pelo motor
type eventPrinter struct {
	id  string
	out *printer
}

func (e *eventPrinter) ID() string { return e.id }

func (e *eventPrinter) Send(ev broadcast.Event) error {
	if ev.Entity == "" {
		return nil
	}
	e.out.println(fmt.Sprintf("  · %s %s %s", ev.Type, ev.Entity, ev.Operation))
	return nil
}

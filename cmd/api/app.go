package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hugohenrick/kommand/docs"
	"github.com/hugohenrick/kommand/internal/adapter/api/controller"
	"github.com/hugohenrick/kommand/internal/adapter/api/route"
	"github.com/hugohenrick/kommand/internal/adapter/repository"
	"github.com/hugohenrick/kommand/internal/capability"
	"github.com/hugohenrick/kommand/internal/infrastructure/database"
	"github.com/hugohenrick/kommand/pkg/auth"
	"github.com/hugohenrick/kommand/pkg/broadcast"
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
	"github.com/hugohenrick/kommand/pkg/middleware"
)

// App representa a aplicação e suas dependências
type App struct {
	cfg    *config.Config
	log    logger.Logger
	server *http.Server

	db           *pgxpool.Pool
	redis        *redis.Client
	hub          *broadcast.Hub
	confirm      *confirm.Manager
	dispatcher   *intent.Dispatcher
	sessions     *session.MemoryStore
	limiter      *middleware.KeyedLimiter
	loginLimiter *middleware.KeyedLimiter
}

// NewApp cria uma nova instância do aplicativo
func NewApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	// Configurar banco de dados
	db, err := database.NewPostgresDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db
	repos := repository.NewPostgres(db, log)

	cat, err := catalog.Default()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("erro ao carregar catálogo: %w", err)
	}

	// Capacidades de domínio
	registry := executor.NewRegistry()
	caps := capability.New(capability.Repositories{
		Shops:    repos.Shops(),
		Products: repos.Products(),
		Orders:   repos.Orders(),
		Users:    repos.Users(),
	}, log)
	if err := caps.Register(registry); err != nil {
		a.Close()
		return nil, fmt.Errorf("erro ao registrar capacidades: %w", err)
	}
	if missing := registry.Missing(cat); len(missing) > 0 {
		a.Close()
		return nil, fmt.Errorf("ações sem capacidade registrada: %v", missing)
	}

	// Caminho primário do resolvedor; sem provider só o fallback responde
	var infer intent.Inferencer
	if !cfg.LLM.Disabled {
		provider, err := llm.New(ctx, llm.Config{
			Backend:    cfg.LLM.Backend,
			Model:      cfg.LLM.Model,
			APIKey:     cfg.LLM.GeminiAPIKey,
			OllamaHost: cfg.LLM.OllamaHost,
		})
		if err != nil {
			log.Warn("Inferência indisponível, usando apenas o casador determinístico", "backend", cfg.LLM.Backend, "error", err)
		} else {
			a.dispatcher = intent.NewDispatcher(provider, intent.DispatcherOptions{
				Workers:   cfg.LLM.Workers,
				QueueSize: cfg.LLM.QueueSize,
				Timeout:   cfg.LLM.Timeout,
			}, log)
			a.dispatcher.Start()
			infer = a.dispatcher
			log.Info("Inferência configurada", "provider", provider.Name(), "workers", cfg.LLM.Workers)
		}
	}

	resolver, err := intent.NewResolver(cat, infer, log, intent.Options{MinConfidence: cfg.LLM.MinConfidence})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("erro ao criar resolvedor: %w", err)
	}

	// Memória de sessão: Redis quando configurado
	var sessions session.Store
	if cfg.Redis.Addr != "" {
		a.redis = session.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		sessions = session.NewRedisStore(a.redis, cfg.Command.SessionTTL, cfg.Command.SessionMaxRefs)
	} else {
		a.sessions = session.NewMemoryStore(cfg.Command.SessionTTL, cfg.Command.SessionMaxRefs)
		sessions = a.sessions
	}

	a.confirm = confirm.NewManager(cfg.Command.ConfirmationTTL, cfg.Command.SweepInterval, log)
	a.hub = broadcast.NewHub(log)
	a.limiter = middleware.NewKeyedLimiter(cfg.Command.RateLimitPerSec, cfg.Command.RateLimitBurst)
	a.loginLimiter = middleware.NewKeyedLimiter(float64(cfg.Command.LoginRatePerMin)/60, cfg.Command.LoginRatePerMin)

	svc, err := engine.New(engine.Deps{
		Catalog:   cat,
		Resolver:  resolver,
		Binder:    binder.New(cat),
		Executor:  executor.New(cat, registry, log),
		Confirm:   a.confirm,
		Sessions:  sessions,
		Publisher: a.hub,
		Audit:     repository.NewAuditSink(repos.ActionLogs()),
		Limiter:   a.limiter,
		Log:       log,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("erro ao criar motor de comandos: %w", err)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		a.Close()
		return nil, err
	}

	// Criar controllers
	checks := map[string]controller.Pinger{"postgres": db}
	if a.redis != nil {
		checks["redis"] = redisPinger{a.redis}
	}
	controllers := route.Controllers{
		Auth:      controller.NewAuthController(repos.Users(), jwtService, sessions, log),
		Command:   controller.NewCommandController(svc, suggest.New(cat), repos.ActionLogs(), cfg.Command.SuggestionLimit, log),
		Broadcast: controller.NewBroadcastController(a.hub, cfg.HTTP.AllowedOrigins, log),
		Health:    controller.NewHealthController(checks),
	}

	// Configurar router com modo correto
	gin.SetMode(cfg.HTTP.GinMode)
	docs.SwaggerInfo.BasePath = cfg.HTTP.BasePath
	router := route.NewRouter(controllers, route.Options{
		BasePath:       cfg.HTTP.BasePath,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		JWT:            jwtService,
		LoginLimiter:   a.loginLimiter,
		Swagger:        cfg.HTTP.GinMode != gin.ReleaseMode,
	})

	a.server = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	return a, nil
}

type redisPinger struct{ c *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }

// Run sobe as rotinas de fundo e o servidor HTTP até o ctx ser cancelado
func (a *App) Run(ctx context.Context) error {
	a.confirm.Start(ctx)
	a.limiter.Start(ctx)
	a.loginLimiter.Start(ctx)
	if a.sessions != nil {
		go a.pruneSessions(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Servidor HTTP iniciado", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("erro no servidor HTTP: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("Encerrando servidor HTTP")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// o hub fecha antes para liberar os websockets presos em Serve
	a.hub.Close()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("erro ao encerrar servidor HTTP: %w", err)
	}
	return nil
}

func (a *App) pruneSessions(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.sessions.Prune(); n > 0 {
				a.log.Debug("Sessões expiradas removidas", "count", n)
			}
		}
	}
}

// Close libera os recursos da aplicação
func (a *App) Close() {
	if a.confirm != nil {
		a.confirm.Close()
	}
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Erro ao fechar Redis", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

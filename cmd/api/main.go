package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hugohenrick/kommand/pkg/config"
	"github.com/hugohenrick/kommand/pkg/logger"
)

func main() {
	// Carregar variáveis de ambiente
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Erro ao carregar configuração: %v", err)
	}

	appLog, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Erro ao criar logger: %v", err)
	}
	defer func() { _ = appLog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Criar aplicação
	app, err := NewApp(ctx, cfg, appLog)
	if err != nil {
		appLog.Error("Erro ao iniciar aplicação", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	// Iniciar o servidor
	if err := app.Run(ctx); err != nil {
		appLog.Error("Servidor encerrado com erro", "error", err)
		return
	}
	appLog.Info("Servidor encerrado")
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hugohenrick/kommand/pkg/config"
	"github.com/hugohenrick/kommand/pkg/logger"
)

func main() {
	var (
		email  string
		useLLM bool
	)

	root := &cobra.Command{
		Use:          "console",
		Short:        "Console interativo de comandos sobre dados de demonstração",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			// logs vão para stderr para não misturar com o REPL
			appLog, err := logger.NewLogger("warn", "console")
			if err != nil {
				return err
			}
			defer func() { _ = appLog.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := newConsole(ctx, cfg, appLog, useLLM)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.login(ctx, email); err != nil {
				return err
			}
			return c.Run(ctx)
		},
	}
	root.Flags().StringVarP(&email, "user", "u", "ravi@sharma.in", "email do usuário de demonstração")
	root.Flags().BoolVar(&useLLM, "llm", false, "usa o provedor de inferência configurado")

	if err := root.Execute(); err != nil {
		log.Printf("Erro no console: %v", err)
		os.Exit(1)
	}
}

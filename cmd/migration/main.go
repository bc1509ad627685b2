package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/hugohenrick/kommand/internal/adapter/repository"
	"github.com/hugohenrick/kommand/internal/adapter/repository/memory"
	"github.com/hugohenrick/kommand/internal/infrastructure/database"
	"github.com/hugohenrick/kommand/pkg/config"
	"github.com/hugohenrick/kommand/pkg/logger"
)

func main() {
	var steps int

	run := func(dir database.Direction) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			// Carregar variáveis de ambiente
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			appLog, err := logger.NewLogger(cfg.Log.Level, "console")
			if err != nil {
				return err
			}
			defer func() { _ = appLog.Sync() }()
			return database.RunMigrations(cfg.Database, dir, steps, appLog)
		}
	}

	root := &cobra.Command{
		Use:          "migration",
		Short:        "Aplica as migrações do banco de dados",
		SilenceUsage: true,
	}
	root.PersistentFlags().IntVarP(&steps, "steps", "n", 0, "número de migrações (0 = todas)")

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Carrega os dados de demonstração em um banco vazio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			appLog, err := logger.NewLogger(cfg.Log.Level, "console")
			if err != nil {
				return err
			}
			defer func() { _ = appLog.Sync() }()

			ctx := context.Background()
			db, err := database.NewPostgresDB(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := memory.Seed(ctx, repository.NewPostgres(db, appLog)); err != nil {
				return fmt.Errorf("falha ao carregar dados de demonstração: %w", err)
			}
			appLog.Info("Dados de demonstração carregados", "password", memory.SeedPassword)
			return nil
		},
	}

	root.AddCommand(
		&cobra.Command{Use: "up", Short: "Aplica as migrações pendentes", RunE: run(database.Up)},
		&cobra.Command{Use: "down", Short: "Desfaz as migrações", RunE: run(database.Down)},
		seed,
	)
	// sem subcomando aplica tudo
	root.RunE = run(database.Up)

	if err := root.Execute(); err != nil {
		log.Printf("Erro ao executar migrações: %v", err)
		os.Exit(1)
	}
}

package database

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/hugohenrick/kommand/pkg/config"
	"github.com/hugohenrick/kommand/pkg/logger"
)

// Direction indica o sentido da migração
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// RunMigrations aplica (ou desfaz) as migrações do diretório configurado.
// steps zero aplica todas.
func RunMigrations(cfg config.DatabaseConfig, dir Direction, steps int, log logger.Logger) error {
	path, err := filepath.Abs(cfg.MigrationsPath)
	if err != nil {
		return fmt.Errorf("erro ao resolver diretório de migrações: %w", err)
	}
	sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(path))

	m, err := migrate.New(sourceURL, cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("erro ao criar migrate: %w", err)
	}
	defer m.Close()

	switch {
	case steps > 0 && dir == Down:
		err = m.Steps(-steps)
	case steps > 0:
		err = m.Steps(steps)
	case dir == Down:
		err = m.Down()
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("erro ao aplicar migrações: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("erro ao ler versão das migrações: %w", verr)
	}
	log.Info("Migrações aplicadas", "direction", string(dir), "version", version, "dirty", dirty)
	return nil
}

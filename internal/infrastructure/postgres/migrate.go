package postgres

import (
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrationLogger adapts zerolog to migrate.Logger
type migrationLogger struct {
	logger zerolog.Logger
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.logger.Debug().Msgf(format, v...)
}

func (l migrationLogger) Verbose() bool {
	return l.logger.GetLevel() <= zerolog.DebugLevel
}

// Migrate applies every pending schema migration
func Migrate(db *sqlx.DB, logger zerolog.Logger) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	m.Log = migrationLogger{logger: logger}

	started := time.Now()
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info().Msg("no new migrations to apply")
		return nil
	}
	if err != nil {
		version, dirty, _ := m.Version()
		logger.Error().Err(err).Uint("version", version).Bool("dirty", dirty).Msg("migration failed")
		return fmt.Errorf("applying migrations: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info().Uint("version", version).Dur("duration", time.Since(started)).Msg("migrations applied")
	return nil
}

package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// migrateLog forwards golang-migrate progress into slog.
type migrateLog struct {
	logger *slog.Logger
}

func (l migrateLog) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
}

func (l migrateLog) Verbose() bool { return false }

// MigrateSchema brings the billing schema in dir up to the newest version and reports the
// version it ended on. dir is a filesystem path, not a source URL.
func MigrateSchema(logger *slog.Logger, databaseURL, dir string) (uint, error) {
	switch {
	case dir == "":
		return 0, errors.New("migrations directory is required")
	case databaseURL == "":
		return 0, errors.New("database URL is required")
	}

	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return 0, fmt.Errorf("failed to open migrations in %s: %w", dir, err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("Closing migrator failed", "source_error", srcErr, "db_error", dbErr)
		}
	}()
	m.Log = migrateLog{logger: logger}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to migrate billing schema: %w", err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("billing schema is dirty at version %d", version)
	}
	return version, nil
}

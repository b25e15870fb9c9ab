package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"smartcook/internal/logging"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrMigrationFailed wraps every migration error.
var ErrMigrationFailed = errors.New("failed to apply migrations")

// goose keeps its dialect, base FS and logger in package globals.
var gooseMu sync.Mutex

func setupGoose() error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{})
	return goose.SetDialect("sqlite3")
}

// Migrate applies all pending migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStore, "Migrate")
	defer timer.Stop()

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		logging.Get(logging.CategoryStore).Error("Migration failed: %v", err)
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// SchemaVersion returns the current migration version.
func SchemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// gooseLogger routes goose output to the store log instead of stdout.
type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	logging.Get(logging.CategoryStore).Error(format, v...)
}

func (gooseLogger) Printf(format string, v ...interface{}) {
	logging.StoreDebug(format, v...)
}

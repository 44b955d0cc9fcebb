package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

// goose keeps its filesystem, dialect and logger in package globals.
var gooseMu sync.Mutex

func withGoose(logger goose.Logger, fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(logger)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return fn()
}

// Migrate applies every pending embedded migration and returns the resulting schema version.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) (int64, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var version int64
	err := withGoose(zapGoose{logger.Named("migrate").Sugar()}, func() error {
		if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		v, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("schema version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

// Status writes goose's applied/pending table for the embedded migrations to out.
func Status(ctx context.Context, db *sql.DB, out io.Writer) error {
	return withGoose(log.New(out, "", 0), func() error {
		return goose.StatusContext(ctx, db, migrationsDir)
	})
}

// Migrations lists the embedded migrations in apply order.
func Migrations() (goose.Migrations, error) {
	var found goose.Migrations
	err := withGoose(log.New(io.Discard, "", 0), func() error {
		var err error
		found, err = goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
		return err
	})
	return found, err
}

type zapGoose struct {
	log *zap.SugaredLogger
}

func (z zapGoose) Printf(format string, v ...interface{}) { z.log.Infof(format, v...) }

// Fatalf logs without exiting; goose also returns the failure as an error.
func (z zapGoose) Fatalf(format string, v ...interface{}) { z.log.Errorf(format, v...) }

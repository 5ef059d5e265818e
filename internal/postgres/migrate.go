package postgres

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"strings"

	ierr "github.com/flexprice/invoicedesk/internal/errors"
)

//go:embed migrations/*.up.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// Migration is a single embedded schema change
type Migration struct {
	Version string
	SQL     string
}

// Migrations returns the embedded migrations ordered by version
func Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read embedded migrations").
			Mark(ierr.ErrSystem)
	}

	var migrations []Migration
	for _, e := range entries {
		body, err := fs.ReadFile(embeddedMigrations, migrationsDir+"/"+e.Name())
		if err != nil {
			return nil, ierr.WithError(err).
				WithHintf("Failed to read migration %s", e.Name()).
				Mark(ierr.ErrSystem)
		}
		migrations = append(migrations, Migration{
			Version: strings.TrimSuffix(e.Name(), ".up.sql"),
			SQL:     string(body),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// Migrate applies every embedded migration that has not been recorded in
// schema_migrations, each in its own transaction.
func (db *DB) Migrate(ctx context.Context) ([]string, error) {
	migrations, err := Migrations()
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(100) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to create schema_migrations table").
			Mark(ierr.ErrDatabase)
	}

	var applied []string
	if err := db.SelectContext(ctx, &applied, `SELECT version FROM schema_migrations`); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read applied migrations").
			Mark(ierr.ErrDatabase)
	}
	done := make(map[string]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}

	var ran []string
	for _, m := range migrations {
		if _, ok := done[m.Version]; ok {
			continue
		}
		err := db.WithTx(ctx, func(ctx context.Context) error {
			q := db.GetQuerier(ctx)
			if _, err := q.ExecContext(ctx, m.SQL); err != nil {
				return err
			}
			_, err := q.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version)
			return err
		})
		if err != nil {
			return ran, ierr.WithError(err).
				WithHintf("Failed to apply migration %s", m.Version).
				Mark(ierr.ErrDatabase)
		}
		db.logger.Infow("applied migration", "version", m.Version)
		ran = append(ran, m.Version)
	}
	return ran, nil
}

package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrationLockKey serialises concurrent replicas running RunMigrations.
const migrationLockKey = 0x68756e74

type migrationFile struct {
	version  string
	sql      string
	checksum string
}

// RunMigrations applies each embedded migration at most once, recording it in
// schema_migrations. A recorded migration whose file has since changed is an
// error. Files run on the raw pool since the gorm handle prepares statements
// and a migration file holds several.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	files, err := loadMigrations(migrationFS)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres pool: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		checksum   TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := 0
	for _, file := range files {
		ran, err := applyMigration(ctx, sqlDB, file)
		if err != nil {
			return err
		}
		if ran {
			applied++
			dbLogger().InfoContext(ctx, "migration applied",
				"operation", "apply_migration",
				"outcome", "success",
				"migration", file.version,
			)
		}
	}
	dbLogger().InfoContext(ctx, "postgres migrations completed",
		"operation", "run_migrations",
		"outcome", "success",
		"migration_count", len(files),
		"applied_count", applied,
	)
	return nil
}

func applyMigration(ctx context.Context, sqlDB *sql.DB, file migrationFile) (bool, error) {
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin migration %s: %w", file.version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockKey); err != nil {
		return false, fmt.Errorf("lock migrations: %w", err)
	}
	var checksum string
	err = tx.QueryRowContext(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", file.version).Scan(&checksum)
	switch {
	case err == nil:
		if checksum != file.checksum {
			return false, fmt.Errorf("migration %s changed after it was applied", file.version)
		}
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("read schema_migrations: %w", err)
	}

	if _, err := tx.ExecContext(ctx, file.sql); err != nil {
		return false, fmt.Errorf("exec migration %s: %w", file.version, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, checksum, applied_at) VALUES ($1, $2, $3)",
		file.version, file.checksum, time.Now().UTC(),
	); err != nil {
		return false, fmt.Errorf("record migration %s: %w", file.version, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit migration %s: %w", file.version, err)
	}
	return true, nil
}

// loadMigrations returns every .sql file under migrations/ in version order.
func loadMigrations(fsys fs.FS) ([]migrationFile, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	files := make([]migrationFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		raw, err := fs.ReadFile(fsys, "migrations/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		sum := sha256.Sum256(raw)
		files = append(files, migrationFile{
			version:  strings.TrimSuffix(e.Name(), ".sql"),
			sql:      string(raw),
			checksum: hex.EncodeToString(sum[:]),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

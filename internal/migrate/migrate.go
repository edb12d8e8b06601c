// Package migrate applies the embedded SQL migrations through database/sql.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Migration errors.
var (
	ErrBadFilename  = errors.New("migration filename must be NNNNNN_name.up.sql or NNNNNN_name.down.sql")
	ErrMissingDown  = errors.New("migration has no down file")
	ErrDirtyVersion = errors.New("applied version has no migration file")
)

// lockID serializes concurrent migrators on one database.
const lockID int64 = 731208

// Migration is one numbered schema change.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Load reads NNNNNN_name.{up,down}.sql files from fsys, sorted by version.
func Load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}

		version, name, direction, err := parseFilename(e.Name())
		if err != nil {
			return nil, err
		}

		body, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if direction == "up" {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Down == "" {
			return nil, fmt.Errorf("%w: %06d_%s", ErrMissingDown, m.Version, m.Name)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// parseFilename splits "000001_signups.up.sql" into 1, "signups", "up".
func parseFilename(filename string) (int, string, string, error) {
	base := strings.TrimSuffix(filename, ".sql")

	var direction string
	switch {
	case strings.HasSuffix(base, ".up"):
		direction = "up"
	case strings.HasSuffix(base, ".down"):
		direction = "down"
	default:
		return 0, "", "", fmt.Errorf("%w: %s", ErrBadFilename, filename)
	}
	base = strings.TrimSuffix(base, "."+direction)

	num, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", "", fmt.Errorf("%w: %s", ErrBadFilename, filename)
	}
	version, err := strconv.Atoi(num)
	if err != nil || version <= 0 {
		return 0, "", "", fmt.Errorf("%w: %s", ErrBadFilename, filename)
	}
	return version, name, direction, nil
}

// Migrator records applied versions in schema_migrations.
type Migrator struct {
	db         *sql.DB
	migrations []Migration
	logger     *slog.Logger
}

// New returns a Migrator for db, which should use the "postgres" driver.
func New(db *sql.DB, migrations []Migration, logger *slog.Logger) *Migrator {
	return &Migrator{db: db, migrations: migrations, logger: logger}
}

// Open connects with lib/pq and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	connector, err := pq.NewConnector(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(2)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", describe(err))
	}
	return db, nil
}

// Up applies every pending migration in version order, each in its own
// transaction. It returns the number applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	applied := 0
	err := m.withLock(ctx, func(conn *sql.Conn) error {
		current, err := currentVersion(ctx, conn)
		if err != nil {
			return err
		}

		for _, mig := range m.migrations {
			if mig.Version <= current {
				continue
			}
			if err := m.apply(ctx, conn, mig, mig.Up, true); err != nil {
				return err
			}
			applied++
		}
		return nil
	})
	return applied, err
}

// Down reverts up to steps migrations, newest first. It returns the number
// reverted.
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	reverted := 0
	err := m.withLock(ctx, func(conn *sql.Conn) error {
		for reverted < steps {
			current, err := currentVersion(ctx, conn)
			if err != nil {
				return err
			}
			if current == 0 {
				return nil
			}

			mig, ok := m.find(current)
			if !ok {
				return fmt.Errorf("%w: %d", ErrDirtyVersion, current)
			}
			if err := m.apply(ctx, conn, mig, mig.Down, false); err != nil {
				return err
			}
			reverted++
		}
		return nil
	})
	return reverted, err
}

// Version returns the highest applied version, or 0.
func (m *Migrator) Version(ctx context.Context) (int, error) {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return 0, describe(err)
	}
	defer conn.Close()

	if err := ensureTable(ctx, conn); err != nil {
		return 0, err
	}
	return currentVersion(ctx, conn)
}

func (m *Migrator) find(version int) (Migration, bool) {
	for _, mig := range m.migrations {
		if mig.Version == version {
			return mig, true
		}
	}
	return Migration{}, false
}

// withLock runs fn on one connection holding a session advisory lock.
func (m *Migrator) withLock(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return describe(err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
		return fmt.Errorf("acquire migration lock: %w", describe(err))
	}
	defer func() {
		if _, err := conn.ExecContext(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", lockID); err != nil {
			m.logger.Warn("release migration lock failed", "error", err)
		}
	}()

	if err := ensureTable(ctx, conn); err != nil {
		return err
	}
	return fn(conn)
}

func (m *Migrator) apply(ctx context.Context, conn *sql.Conn, mig Migration, body string, up bool) error {
	direction := "down"
	if up {
		direction = "up"
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return describe(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return fmt.Errorf("migration %06d_%s %s: %w", mig.Version, mig.Name, direction, describe(err))
	}

	if up {
		_, err = tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", mig.Version, mig.Name)
	} else {
		_, err = tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = $1", mig.Version)
	}
	if err != nil {
		return fmt.Errorf("record migration %06d: %w", mig.Version, describe(err))
	}

	if err := tx.Commit(); err != nil {
		return describe(err)
	}

	m.logger.Info("migration applied",
		"version", mig.Version,
		"name", mig.Name,
		"direction", direction,
	)
	return nil
}

func ensureTable(ctx context.Context, conn *sql.Conn) error {
	_, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", describe(err))
	}
	return nil
}

func currentVersion(ctx context.Context, conn *sql.Conn) (int, error) {
	var version int
	err := conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", describe(err))
	}
	return version, nil
}

// describe adds the Postgres SQLSTATE to server errors.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%w (sqlstate %s)", err, pqErr.Code)
	}
	return err
}

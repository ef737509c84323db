// Copyright (c) 2025, The Copper Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	cerrors "github.com/velarno/copper/pkg/errors"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SupportedDrivers lists the accepted values for database.driver.
var SupportedDrivers = []string{DriverSQLite, DriverPostgres}

const memoryDSN = ":memory:"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists the catalogue mirror, templates and their history.
// It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// Open connects to the database and applies the schema. For sqlite the dsn
// is a file path whose parent directory is created when missing.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)

	switch driver {
	case DriverSQLite:
		db, err = openSQLite(ctx, dsn)
	case DriverPostgres:
		db, err = openPostgres(ctx, dsn)
	default:
		return nil, cerrors.Validation("database.driver",
			fmt.Sprintf("unsupported driver %q, expected one of %s", driver, strings.Join(SupportedDrivers, ", ")))
	}
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, driver: driver, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to apply schema", err)
	}

	slog.Debug("store opened", "driver", driver)
	return s, nil
}

func openSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, cerrors.Validation("database.dsn", "must not be empty")
	}

	if dsn != memoryDSN {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to create database directory", err)
			}
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to open sqlite", err)
	}
	// one connection serializes writers and keeps :memory: databases alive
	db.SetMaxOpenConns(1)

	if dsn == memoryDSN {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			_ = db.Close()
			return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to enable foreign keys", err)
		}
	}
	return db, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to open postgres", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, cerrors.Wrap(cerrors.ErrCodeUnavailable, "failed to reach postgres", err)
	}
	return db, nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := sqliteSchema
	if s.driver == DriverPostgres {
		schema = postgresSchema
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Driver returns the driver the store was opened with.
func (s *Store) Driver() string {
	return s.driver
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeUnavailable, "database unreachable", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders into the driver's positional form.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, q querier, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, q querier, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, s.rebind(query), args...)
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return internal("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return internal("failed to commit transaction", err)
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// internal wraps err unless it already carries a code.
func internal(msg string, err error) error {
	var se *cerrors.StructuredError
	if errors.As(err, &se) {
		return err
	}
	return cerrors.Wrap(cerrors.ErrCodeInternal, msg, err)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package cs4teachers

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps a SQLite database and provides CRUD operations for every
// entity. Each write runs in its own transaction.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and applies pending schema migrations.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	// WAL lets public readers proceed while the admin writes; NORMAL sync is
	// safe with WAL.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return newStoreFromDB(db), nil
}

func newStoreFromDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrateUp applies the embedded migrations that have not yet run.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	// m.Close would close db as well; only the source is released here.
	defer src.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

var slugTables = map[EntityKind]string{
	KindLocation:        "locations",
	KindSeries:          "series",
	KindResource:        "resources",
	KindEvent:           "events",
	KindThirdPartyEvent: "third_party_events",
	KindSession:         "sessions",
}

// SlugExists reports whether slug is taken within scope.
func (s *Store) SlugExists(ctx context.Context, scope SlugScope, slug string) (bool, error) {
	return slugExists(ctx, s.db, scope, slug)
}

func slugExists(ctx context.Context, q dbtx, scope SlugScope, slug string) (bool, error) {
	table, ok := slugTables[scope.Kind]
	if !ok {
		return false, fmt.Errorf("no slug scope for %s", scope.Kind)
	}
	query := `SELECT EXISTS(SELECT 1 FROM ` + table + ` WHERE slug = ?`
	args := []any{slug}
	if scope.Kind == KindSession {
		query += ` AND event_id = ?`
		args = append(args, scope.ParentID)
	}
	query += `)`
	var exists bool
	if err := q.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// txSlugs checks slugs inside the transaction that will insert the row.
type txSlugs struct{ q dbtx }

func (t txSlugs) SlugExists(ctx context.Context, scope SlugScope, slug string) (bool, error) {
	return slugExists(ctx, t.q, scope, slug)
}

// translateError maps SQLite constraint failures on inserts and updates
// onto package errors. field names the column guarded by a UNIQUE index.
func translateError(err error, field string) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint failed"):
		return fmt.Errorf("%w: %w", ErrDuplicate, fieldError(field, "A record with this "+field+" already exists."))
	case strings.Contains(msg, "foreign key constraint failed"):
		return fieldError("__all__", "A referenced record does not exist.")
	}
	return err
}

// translateDeleteError maps a blocked delete onto ErrInUse.
func translateDeleteError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed") {
		return fmt.Errorf("%w: %v", ErrInUse, err)
	}
	return err
}

// requireAffected turns an update or delete that touched no rows into
// ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatDate(t time.Time) string { return t.Format(DateLayout) }

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func formatDateTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func parseDateTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse datetime %q: %w", s, err)
	}
	return t, nil
}

// replaceLinks rewrites a many-to-many join table for one owner row.
func replaceLinks(ctx context.Context, q dbtx, table, ownerCol, otherCol string, ownerID int64, otherIDs []int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+ownerCol+` = ?`, ownerID); err != nil {
		return err
	}
	for _, id := range otherIDs {
		if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO `+table+` (`+ownerCol+`, `+otherCol+`) VALUES (?, ?)`, ownerID, id); err != nil {
			return err
		}
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

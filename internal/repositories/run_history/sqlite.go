package runhistory

import (
	"context"
	"database/sql"
	"encoding/json"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	// registers the "sqlite" driver
	_ "modernc.org/sqlite"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/errors"
	"github.com/KirkDiggler/hall-runner/internal/pkg/idgen"
	"github.com/KirkDiggler/hall-runner/internal/repositories/run_history/migrations"
)

const defaultListLimit = 50

// Config holds the configuration for the SQLite repository
type Config struct {
	// Path is the database file. ":memory:" keeps the journal in memory.
	Path        string
	IDGenerator idgen.Generator
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.Path == "" {
		vb.RequiredField("Path")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	return vb.Build()
}

// Store is the SQLite backed run journal
type Store struct {
	db    *sql.DB
	idGen idgen.Generator
}

var _ Repository = (*Store)(nil)

// Open opens the journal database and applies pending migrations
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	dsn := cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open run history database")
	}
	if cfg.Path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed to ping run history database")
	}
	if err := applyMigrations(db, migrations.FS, "."); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to migrate run history database")
	}

	return &Store{db: db, idGen: cfg.IDGenerator}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append stores a finished run
func (s *Store) Append(ctx context.Context, input AppendInput) (*AppendOutput, error) {
	if input.Entry == nil {
		return nil, errors.InvalidArgument("entry is required")
	}
	if input.Entry.AccountID == "" {
		return nil, errors.InvalidArgument("account ID cannot be empty")
	}
	if input.Entry.Status == "" {
		return nil, errors.InvalidArgument("status is required")
	}

	entry := *input.Entry
	if entry.ID == "" {
		entry.ID = s.idGen.Generate()
	}
	if entry.Halls == nil {
		entry.Halls = []hall.HallResult{}
	}

	halls, err := json.Marshal(entry.Halls)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal hall results")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_history (
			id, session_id, user_name, account_id, status, reason, hall, floor,
			halls_json, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.SessionID, entry.User, entry.AccountID,
		string(entry.Status), entry.Reason, string(entry.Hall), entry.Floor,
		string(halls), toMillis(entry.StartedAt), toMillis(entry.FinishedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, errors.AlreadyExistsf("run %s already recorded", entry.ID).
				WithMeta("run_id", entry.ID)
		}
		return nil, errors.Wrapf(err, "failed to insert run history")
	}

	return &AppendOutput{Entry: &entry}, nil
}

// List returns recent runs, newest first
func (s *Store) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, session_id, user_name, account_id, status, reason, hall, floor,
			halls_json, started_at, finished_at
		FROM run_history`
	var (
		where []string
		args  []any
	)
	if input.User != "" {
		where = append(where, "user_name = ?")
		args = append(args, input.User)
	}
	if input.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, input.AccountID)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY finished_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query run history")
	}
	defer func() { _ = rows.Close() }()

	var entries []*Entry
	for rows.Next() {
		var (
			e                   Entry
			status, hallName    string
			halls               string
			startedAt, finished int64
		)
		if err := rows.Scan(
			&e.ID, &e.SessionID, &e.User, &e.AccountID, &status, &e.Reason, &hallName, &e.Floor,
			&halls, &startedAt, &finished,
		); err != nil {
			return nil, errors.Wrapf(err, "failed to scan run history")
		}
		e.Status = hall.Status(status)
		e.Hall = hall.Name(hallName)
		e.StartedAt = fromMillis(startedAt)
		e.FinishedAt = fromMillis(finished)
		if err := json.Unmarshal([]byte(halls), &e.Halls); err != nil {
			slog.Warn("Corrupt hall results in run history", "run_id", e.ID, "error", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read run history")
	}

	return &ListOutput{Entries: entries}, nil
}

// applyMigrations runs every .sql file under root that has not been applied,
// in name order, one transaction per file.
func applyMigrations(db *sql.DB, fsys fs.FS, root string) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return errors.Wrapf(err, "failed to create schema_migrations")
	}

	files, err := fs.Glob(fsys, path.Join(root, "*.sql"))
	if err != nil {
		return errors.Wrapf(err, "failed to read migrations")
	}
	sort.Strings(files)

	for _, file := range files {
		name := path.Base(file)

		var applied int
		if err := db.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, name).Scan(&applied); err != nil {
			return errors.Wrapf(err, "failed to check migration %s", name)
		}
		if applied > 0 {
			continue
		}

		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration %s", name)
		}
		up := upSection(string(content))
		if up == "" {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return errors.Wrapf(err, "failed to begin migration %s", name)
		}
		if _, err := tx.Exec(up); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "failed to apply migration %s", name)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`,
			name, time.Now().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "failed to record migration %s", name)
		}
		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "failed to commit migration %s", name)
		}
		slog.Info("Applied run history migration", "name", name)
	}
	return nil
}

// upSection returns the statements after "-- +migrate Up" and before an
// optional "-- +migrate Down".
func upSection(content string) string {
	if idx := strings.Index(content, "-- +migrate Up"); idx >= 0 {
		content = content[idx+len("-- +migrate Up"):]
	}
	if idx := strings.Index(content, "-- +migrate Down"); idx >= 0 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMilli(v).UTC()
}

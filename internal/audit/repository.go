package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const invocationIDLength = 8

// ErrNotFound indicates the requested usage record does not exist.
var ErrNotFound = errors.New("audit: record not found")

// Entry is a single recorded command invocation.
type Entry struct {
	ID         string         `json:"id"`
	Command    string         `json:"command"`
	UserID     string         `json:"user_id"`
	Args       map[string]any `json:"args,omitempty"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"duration_ms"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Filter narrows List results. Zero fields are ignored.
type Filter struct {
	Command string
	UserID  string
	// FailedOnly restricts results to invocations that returned an error.
	FailedOnly bool
	Since      time.Time
	Limit      int
	Offset     int
}

// ListResult is a page of usage records.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Schema returns the idempotent DDL for the usage log.
func Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS usage_log (
			id          TEXT PRIMARY KEY,
			command     TEXT NOT NULL,
			user_id     TEXT NOT NULL,
			args        TEXT,
			success     INTEGER NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL,
			created_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_log_created_at ON usage_log(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_log_command ON usage_log(command)`,
	}
}

// Repository provides usage log persistence.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a usage log repository backed by db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Record appends an invocation record. The entry's ID and CreatedAt are
// assigned here; the caller supplies the rest.
func (r *Repository) Record(ctx context.Context, e Entry) (string, error) {
	e.ID = "inv-" + uuid.NewString()[:invocationIDLength]
	e.CreatedAt = time.Now().UTC()

	var args any
	if len(e.Args) > 0 {
		data, err := json.Marshal(e.Args)
		if err != nil {
			return "", fmt.Errorf("encoding invocation args: %w", err)
		}
		args = string(data)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO usage_log (id, command, user_id, args, success, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Command, e.UserID, args, e.Success, e.Error, e.DurationMs,
		e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("recording invocation: %w", err)
	}
	return e.ID, nil
}

// Get retrieves a single usage record by ID.
func (r *Repository) Get(ctx context.Context, id string) (*Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, command, user_id, args, success, error, duration_ms, created_at
		 FROM usage_log WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading invocation %s: %w", id, err)
	}
	return e, nil
}

// List returns usage records matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f Filter) (*ListResult, error) {
	where, params := buildWhere(f)

	var total int
	countQuery := "SELECT COUNT(*) FROM usage_log" + where
	if err := r.db.QueryRowContext(ctx, countQuery, params...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting invocations: %w", err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `SELECT id, command, user_id, args, success, error, duration_ms, created_at
		 FROM usage_log` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(params, limit, f.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("listing invocations: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only result set

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invocation: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invocations: %w", err)
	}

	return &ListResult{Entries: entries, Total: total, Limit: limit, Offset: f.Offset}, nil
}

// Prune deletes records older than the cutoff and returns how many were
// removed.
func (r *Repository) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM usage_log WHERE created_at < ?`,
		before.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("pruning usage log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning usage log: %w", err)
	}
	return n, nil
}

func buildWhere(f Filter) (string, []any) {
	var clauses []string
	var params []any
	if f.Command != "" {
		clauses = append(clauses, "command = ?")
		params = append(params, f.Command)
	}
	if f.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		params = append(params, f.UserID)
	}
	if f.FailedOnly {
		clauses = append(clauses, "success = 0")
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		params = append(params, f.Since.UTC().Format(time.RFC3339Nano))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), params
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var args sql.NullString
	var createdAt string
	if err := row.Scan(&e.ID, &e.Command, &e.UserID, &args, &e.Success,
		&e.Error, &e.DurationMs, &createdAt); err != nil {
		return nil, err
	}
	if args.Valid && args.String != "" {
		if err := json.Unmarshal([]byte(args.String), &e.Args); err != nil {
			return nil, fmt.Errorf("decoding invocation args: %w", err)
		}
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing invocation timestamp: %w", err)
	}
	e.CreatedAt = ts
	return &e, nil
}

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

	"github.com/ziadkadry99/livedoc/internal/db"
	"github.com/ziadkadry99/livedoc/internal/orchestrator"
	"github.com/ziadkadry99/livedoc/internal/patch"
)

// ErrNotFound is returned by GetByID for an unknown id.
var ErrNotFound = errors.New("audit entry not found")

// timestampLayout sorts lexically in time order.
const timestampLayout = "2006-01-02 15:04:05.000"

// Store provides CRUD operations for audit entries.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Record stores an orchestrator diagnostic, making Store an
// orchestrator.Recorder.
func (s *Store) Record(ctx context.Context, d orchestrator.Diagnostic) error {
	return s.Log(ctx, Entry{
		SessionID: d.SessionID,
		Kind:      d.Kind,
		Detail:    d.Detail,
		Raw:       d.Raw,
		Patch:     d.Patch,
		Document:  d.Document,
	})
}

// Log inserts a new audit entry. If entry.ID is empty a UUID is generated;
// a zero Timestamp is set to the current time.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}

	p := entry.Patch
	if p == nil {
		p = patch.Patch{}
	}

	var document sql.NullString
	if entry.Document != nil {
		document = sql.NullString{String: entry.Document.JSON(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (id, timestamp, session_id, kind, detail, raw, patch, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UTC().Format(timestampLayout),
		entry.SessionID,
		string(entry.Kind),
		entry.Detail,
		entry.Raw,
		p.String(),
		document,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// GetByID retrieves a single audit entry.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, session_id, kind, detail, raw, patch, document
		FROM audit_entries WHERE id = ?`, id)

	e, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// QueryFilter controls which audit entries are returned by Query.
type QueryFilter struct {
	SessionID string
	Kind      Kind
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}

// Query returns audit entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(timestampLayout))
	}
	if filter.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.Until.UTC().Format(timestampLayout))
	}

	query := "SELECT id, timestamp, session_id, kind, detail, raw, patch, document FROM audit_entries"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes all audit entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_entries WHERE timestamp < ?",
		before.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old audit entries: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e                  Entry
		ts, kind, rawPatch string
		document           sql.NullString
	)

	err := sc.Scan(&e.ID, &ts, &e.SessionID, &kind, &e.Detail, &e.Raw, &rawPatch, &document)
	if err != nil {
		return nil, err
	}

	e.Kind = Kind(kind)
	if t, parseErr := time.Parse(timestampLayout, ts); parseErr == nil {
		e.Timestamp = t
	} else if t, parseErr := time.Parse(time.RFC3339Nano, ts); parseErr == nil {
		e.Timestamp = t
	}

	if err := json.Unmarshal([]byte(rawPatch), &e.Patch); err != nil {
		e.Patch = nil
	}
	if document.Valid {
		var doc patch.Document
		if err := json.Unmarshal([]byte(document.String), &doc); err == nil {
			e.Document = doc
		}
	}

	return &e, nil
}

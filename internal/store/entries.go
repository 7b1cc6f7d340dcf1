package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Actions recorded in the log.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

const (
	StatusLogged = "logged"
	StatusFailed = "failed"
)

// Entry is one activity mutation the CLI sent to Nova, successful or not.
type Entry struct {
	ID           int64
	NovaID       int64 // activity id on the server, 0 when the create failed
	Action       string
	ProjectID    int64
	ProjectName  string
	TypeID       int64
	ActivityDate time.Time
	Hours        float64
	Comments     string
	Ticket       string
	Status       string
	Error        string
	CreatedAt    time.Time
}

const entryColumns = `id, nova_id, action, project_id, project_name, type_id, activity_date, hours, comments, ticket, status, error, created_at`

func (db *DB) InsertEntry(e *Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Status == "" {
		e.Status = StatusLogged
	}
	result, err := db.Exec(
		`INSERT INTO entries (nova_id, action, project_id, project_name, type_id, activity_date, hours, comments, ticket, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.NovaID, e.Action, e.ProjectID, e.ProjectName, e.TypeID,
		e.ActivityDate.UTC().Format(time.RFC3339),
		e.Hours, e.Comments, e.Ticket, e.Status, nullString(e.Error),
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading entry id: %w", err)
	}
	e.ID = id
	return id, nil
}

// UpdateEntryStatus records the outcome of a retried or completed mutation.
func (db *DB) UpdateEntryStatus(id int64, status string, novaID int64, errMsg string) error {
	_, err := db.Exec(
		"UPDATE entries SET status = ?, nova_id = ?, error = ? WHERE id = ?",
		status, novaID, nullString(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("updating entry %d: %w", id, err)
	}
	return nil
}

func (db *DB) GetTodayEntries() ([]Entry, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	return db.queryEntries(
		`SELECT `+entryColumns+`
		 FROM entries
		 WHERE created_at >= ? AND created_at < ?
		 ORDER BY created_at ASC, id ASC`,
		startOfDay.UTC().Format(time.RFC3339),
		endOfDay.UTC().Format(time.RFC3339),
	)
}

// GetLastEntry returns the most recent successful create, or nil.
func (db *DB) GetLastEntry() (*Entry, error) {
	entries, err := db.queryEntries(
		`SELECT `+entryColumns+`
		 FROM entries
		 WHERE status = ? AND action = ?
		 ORDER BY id DESC
		 LIMIT 1`,
		StatusLogged, ActionCreate,
	)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// GetFailedEntries returns failed creates, oldest first.
func (db *DB) GetFailedEntries() ([]Entry, error) {
	return db.queryEntries(
		`SELECT `+entryColumns+`
		 FROM entries
		 WHERE status = ? AND action = ?
		 ORDER BY id ASC`,
		StatusFailed, ActionCreate,
	)
}

func (db *DB) queryEntries(query string, args ...any) ([]Entry, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var errMsg sql.NullString
		var dateStr, createdStr string

		if err := rows.Scan(
			&e.ID, &e.NovaID, &e.Action, &e.ProjectID, &e.ProjectName, &e.TypeID,
			&dateStr, &e.Hours, &e.Comments, &e.Ticket, &e.Status, &errMsg, &createdStr,
		); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}

		e.Error = errMsg.String

		if t, err := time.Parse(time.RFC3339, dateStr); err == nil {
			e.ActivityDate = t
		}
		if t, err := time.Parse(time.RFC3339, createdStr); err == nil {
			e.CreatedAt = t
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

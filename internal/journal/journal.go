// Package journal persists in-progress session drafts to a local SQLite
// file, so a server restart does not lose a recording in flight.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/meltforce/liftlog/internal/session"
)

// DB stores one draft row per user.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the draft journal at dir/drafts.db.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "drafts.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS session_drafts (
		user_id    INTEGER PRIMARY KEY,
		payload    TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating drafts table: %w", err)
	}

	return &DB{db: db}, nil
}

// SaveDraft upserts the user's draft.
func (j *DB) SaveDraft(userID int, d session.Draft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	_, err = j.db.Exec(
		`INSERT OR REPLACE INTO session_drafts (user_id, payload, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)`,
		userID, string(payload),
	)
	return err
}

// DeleteDraft removes the user's draft, if any.
func (j *DB) DeleteDraft(userID int) error {
	_, err := j.db.Exec(`DELETE FROM session_drafts WHERE user_id = ?`, userID)
	return err
}

// ListDrafts returns all stored drafts. Rows that no longer decode are
// dropped rather than blocking startup.
func (j *DB) ListDrafts() ([]session.Draft, error) {
	rows, err := j.db.Query(`SELECT user_id, payload FROM session_drafts`)
	if err != nil {
		return nil, fmt.Errorf("querying drafts: %w", err)
	}
	defer rows.Close()

	var drafts []session.Draft
	for rows.Next() {
		var userID int
		var payload string
		if err := rows.Scan(&userID, &payload); err != nil {
			return nil, fmt.Errorf("scanning draft: %w", err)
		}
		var d session.Draft
		if err := json.Unmarshal([]byte(payload), &d); err != nil {
			continue
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// Close closes the journal database.
func (j *DB) Close() error {
	return j.db.Close()
}

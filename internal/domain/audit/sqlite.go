package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GriffinCanCode/accessproxy/internal/shared/id"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps access events in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. Use
// ":memory:" for a throwaway store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("audit db path cannot be empty")
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("create audit db directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	// A single connection keeps :memory: databases shared and serialises writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init audit schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS access_logs (
		id TEXT PRIMARY KEY,
		actor_id TEXT NOT NULL,
		platform_id TEXT NOT NULL,
		action TEXT NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL,
		session_id TEXT NOT NULL,
		user_agent TEXT NOT NULL,
		ip_address TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_access_logs_actor ON access_logs(actor_id, timestamp);
	`)
	return err
}

// Record inserts ev.
func (s *SQLiteStore) Record(ctx context.Context, ev Event) error {
	ev = ev.Normalize()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO access_logs (id, actor_id, platform_id, action, description, status, session_id, user_agent, ip_address, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID.String(), ev.ActorID, ev.PlatformID, ev.Action, ev.Description,
		ev.Outcome, ev.SessionID, ev.UserAgent, ev.IPAddress, ev.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert access log: %w", err)
	}
	return nil
}

// Recent returns up to limit events for actorID, newest first. An empty
// actorID matches every actor.
func (s *SQLiteStore) Recent(ctx context.Context, actorID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_id, platform_id, action, description, status, session_id, user_agent, ip_address, timestamp
		FROM access_logs
		WHERE (? = '' OR actor_id = ?)
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, actorID, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("query access logs: %w", err)
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var (
			ev     Event
			evID   string
			millis int64
		)
		if err := rows.Scan(&evID, &ev.ActorID, &ev.PlatformID, &ev.Action, &ev.Description,
			&ev.Outcome, &ev.SessionID, &ev.UserAgent, &ev.IPAddress, &millis); err != nil {
			return nil, fmt.Errorf("scan access log: %w", err)
		}
		ev.ID = id.EventID(evID)
		ev.Timestamp = time.UnixMilli(millis).UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

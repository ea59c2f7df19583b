// Copyright (c) Microsoft. All rights reserved.

// Package sqlitestore persists agent conversation threads in SQLite so a
// session can be resumed after the process restarts.
//
//	db, err := sqlitestore.Open("history.db")
//	...
//	session := agentframework.NewSession(agentframework.WithSessionStore(db.Thread("default")))
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

const schema = `
CREATE TABLE IF NOT EXISTS thread_messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id  TEXT NOT NULL,
	role       TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_thread_messages_thread ON thread_messages(thread_id, id);
`

// DB is an open history database.
type DB struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: create schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Thread returns the message store for threadID.
func (d *DB) Thread(threadID string) *Store {
	return &Store{db: d, threadID: threadID}
}

// Store is an [af.MessageStore] for one thread.
type Store struct {
	db       *DB
	threadID string
}

var _ af.MessageStore = (*Store)(nil)

// ListMessages returns the thread's messages in insertion order.
func (s *Store) ListMessages(ctx context.Context) ([]af.Message, error) {
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT body FROM thread_messages WHERE thread_id = ? ORDER BY id`, s.threadID)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list %s: %w", s.threadID, err)
	}
	defer rows.Close()

	var msgs []af.Message
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var m af.Message
		if err := json.Unmarshal([]byte(body), &m); err != nil {
			return nil, fmt.Errorf("sqlitestore: decode message in %s: %w", s.threadID, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// AddMessages appends msgs in one transaction.
func (s *Store) AddMessages(ctx context.Context, msgs []af.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO thread_messages (thread_id, role, body) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range msgs {
		body, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("sqlitestore: encode message: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, s.threadID, string(m.Role), string(body)); err != nil {
			return fmt.Errorf("sqlitestore: insert into %s: %w", s.threadID, err)
		}
	}
	return tx.Commit()
}

// Clear deletes the thread's messages and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.db.ExecContext(ctx, `DELETE FROM thread_messages WHERE thread_id = ?`, s.threadID)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: clear %s: %w", s.threadID, err)
	}
	return res.RowsAffected()
}

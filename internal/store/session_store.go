package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finsight/finsight/internal/domain"
)

// SQLiteSessionStore implements agent.SessionStore backed by SQLite. Message
// parts (including tool invocations with their results) are stored as JSON,
// so a reloaded transcript replays exactly as it streamed.
type SQLiteSessionStore struct {
	db *DB
}

// NewSQLiteSessionStore creates a session store using the given database.
func NewSQLiteSessionStore(db *DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

// GetOrCreate returns the session with the given id, creating it if needed.
func (s *SQLiteSessionStore) GetOrCreate(id string) (*domain.Session, error) {
	if id != "" {
		sess, err := s.get(id)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
	}
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now()
	_, err := s.db.sql.Exec(
		`INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)`,
		id, now.Format(time.DateTime), now.Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &domain.Session{ID: id, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteSessionStore) get(id string) (*domain.Session, error) {
	var sess domain.Session
	var createdAt, updatedAt string
	err := s.db.sql.QueryRow(
		`SELECT id, created_at, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	sess.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	sess.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)

	sess.Messages, err = s.History(id)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Append adds messages to a session.
func (s *SQLiteSessionStore) Append(sessionID string, msgs ...domain.UIMessage) error {
	exists, err := s.exists(sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrSessionNotFound
	}

	tx, err := s.db.sql.Begin()
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	for _, msg := range msgs {
		parts, err := json.Marshal(msg.Parts)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encoding message parts: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO messages (session_id, message_id, role, parts) VALUES (?, ?, ?, ?)`,
			sessionID, msg.ID, msg.Role, string(parts),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("appending message: %w", err)
		}
	}
	if _, err := tx.Exec(
		`UPDATE sessions SET updated_at = ? WHERE id = ?`,
		time.Now().Format(time.DateTime), sessionID,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("touching session: %w", err)
	}
	return tx.Commit()
}

// History returns a session's messages in order.
func (s *SQLiteSessionStore) History(sessionID string) ([]domain.UIMessage, error) {
	exists, err := s.exists(sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrSessionNotFound
	}

	rows, err := s.db.sql.Query(
		`SELECT message_id, role, parts FROM messages WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.UIMessage
	for rows.Next() {
		var msg domain.UIMessage
		var parts string
		if err := rows.Scan(&msg.ID, &msg.Role, &parts); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if err := json.Unmarshal([]byte(parts), &msg.Parts); err != nil {
			return nil, fmt.Errorf("decoding message parts: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// List returns all session ids, most recently active first.
func (s *SQLiteSessionStore) List() ([]string, error) {
	rows, err := s.db.sql.Query(`SELECT id FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a session and its messages.
func (s *SQLiteSessionStore) Delete(sessionID string) error {
	if _, err := s.db.sql.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) exists(sessionID string) (bool, error) {
	var count int
	if err := s.db.sql.QueryRow(`SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID).Scan(&count); err != nil {
		return false, fmt.Errorf("checking session: %w", err)
	}
	return count > 0, nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidRole = errors.New("invalid chat role")

// Turn is one message in a session's history. Append-only.
type Turn struct {
	SessionID uuid.UUID
	Role      string
	Content   string
	CreatedAt time.Time
}

// SessionSummary is the per-session aggregate used by the session list.
type SessionSummary struct {
	SessionID    uuid.UUID
	MessageCount int
	LastActivity time.Time
	Preview      string
}

const previewLen = 50

func validRole(role string) bool {
	return role == "user" || role == "assistant" || role == "system"
}

// SaveMessage appends one turn. The session row is created on first
// message so callers never have to pre-register a session.
func (s *Store) SaveMessage(ctx context.Context, sessionID uuid.UUID, role, content string) error {
	if !validRole(role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if content == "" {
		return errors.New("empty message content")
	}

	if err := s.CreateSession(ctx, sessionID, nil); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_history (session_id, role, content)
		VALUES ($1, $2, $3)`,
		sessionID, role, content,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// LoadHistory returns a session's turns in non-decreasing timestamp order.
func (s *Store) LoadHistory(ctx context.Context, sessionID uuid.UUID, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT session_id, role, content, created_at
		FROM chat_history
		WHERE session_id = $1
		ORDER BY created_at, id
		LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.SessionID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RecentHistory returns the last limit turns of a session, oldest first.
func (s *Store) RecentHistory(ctx context.Context, sessionID uuid.UUID, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT session_id, role, content, created_at FROM (
			SELECT session_id, role, content, created_at, id
			FROM chat_history
			WHERE session_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at, id`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select recent history: %w", err)
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.SessionID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SessionSummaries aggregates chat history per session: message count,
// last activity and a preview of the first message.
func (s *Store) SessionSummaries(ctx context.Context, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT session_id,
		       count(*) AS message_count,
		       max(created_at) AS last_activity,
		       (array_agg(content ORDER BY created_at, id))[1] AS first_message
		FROM chat_history
		GROUP BY session_id
		ORDER BY last_activity DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select summaries: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var first string
		if err := rows.Scan(&sum.SessionID, &sum.MessageCount, &sum.LastActivity, &first); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.Preview = previewOf(first)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func previewOf(content string) string {
	if len(content) > previewLen {
		return content[:previewLen] + "..."
	}
	return content
}

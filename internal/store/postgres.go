package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"family-llm/internal/domain"
)

// PgStore persiste las sesiones en Postgres. Una fila en sessions y los
// datos grandes como JSONB en session_data, con upsert por (session_id, key).
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Create(ctx context.Context, sessionID, userID string) error {
	const query = `
		INSERT INTO sessions (session_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, 'active', $3, $3)
		ON CONFLICT (session_id) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, query, sessionID, nullable(userID), time.Now().UTC()); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PgStore) SaveProfile(ctx context.Context, sessionID string, profile *domain.UserProfile) error {
	return s.writeKey(ctx, sessionID, KeyProfile, profile)
}

func (s *PgStore) SaveHistory(ctx context.Context, sessionID string, history []domain.ConversationEntry) error {
	return s.writeKey(ctx, sessionID, KeyHistory, history)
}

func (s *PgStore) SaveFamilyLog(ctx context.Context, sessionID string, log []domain.ConversationEntry) error {
	return s.writeKey(ctx, sessionID, KeyFamilyLog, log)
}

func (s *PgStore) SavePlan(ctx context.Context, sessionID string, plan *domain.FamilyPlan) error {
	return s.writeKey(ctx, sessionID, KeyPlan, plan)
}

func (s *PgStore) Load(ctx context.Context, sessionID string) (*SessionData, error) {
	const sessionQuery = `SELECT COALESCE(user_id, '') FROM sessions WHERE session_id = $1`

	data := &SessionData{}
	err := s.pool.QueryRow(ctx, sessionQuery, sessionID).Scan(&data.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	const dataQuery = `SELECT key, value FROM session_data WHERE session_id = $1`
	rows, err := s.pool.Query(ctx, dataQuery, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select session data: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan session data: %w", err)
		}
		if err := decodeKey(key, value, data); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session data: %w", err)
	}

	return data, nil
}

func (s *PgStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM sessions WHERE session_id = $1)`
	var exists bool
	if err := s.pool.QueryRow(ctx, query, sessionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("select exists: %w", err)
	}
	return exists, nil
}

func (s *PgStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM session_data WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete session data: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *PgStore) writeKey(ctx context.Context, sessionID, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	const query = `
		INSERT INTO session_data (session_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.pool.Exec(ctx, query, sessionID, key, raw, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func decodeKey(key string, value []byte, data *SessionData) error {
	var err error
	switch key {
	case KeyProfile:
		err = json.Unmarshal(value, &data.Profile)
	case KeyHistory:
		err = json.Unmarshal(value, &data.History)
	case KeyFamilyLog:
		err = json.Unmarshal(value, &data.FamilyLog)
	case KeyPlan:
		err = json.Unmarshal(value, &data.Plan)
	}
	if err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

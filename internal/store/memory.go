package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"family-llm/internal/domain"
)

// MemoryStore guarda las sesiones en un mapa protegido por mutex. Pensado
// para desarrollo local y tests; los valores se copian via JSON para que el
// caller no comparta punteros con el store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*SessionData
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*SessionData)}
}

func (s *MemoryStore) Create(ctx context.Context, sessionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		s.sessions[sessionID] = &SessionData{UserID: userID}
	}
	return nil
}

func (s *MemoryStore) SaveProfile(ctx context.Context, sessionID string, profile *domain.UserProfile) error {
	return s.update(sessionID, func(data *SessionData) error {
		copied, err := copyJSON[domain.UserProfile](profile)
		if err != nil {
			return err
		}
		data.Profile = copied
		return nil
	})
}

func (s *MemoryStore) SaveHistory(ctx context.Context, sessionID string, history []domain.ConversationEntry) error {
	return s.update(sessionID, func(data *SessionData) error {
		data.History = append([]domain.ConversationEntry(nil), history...)
		return nil
	})
}

func (s *MemoryStore) SaveFamilyLog(ctx context.Context, sessionID string, log []domain.ConversationEntry) error {
	return s.update(sessionID, func(data *SessionData) error {
		data.FamilyLog = append([]domain.ConversationEntry(nil), log...)
		return nil
	})
}

func (s *MemoryStore) SavePlan(ctx context.Context, sessionID string, plan *domain.FamilyPlan) error {
	return s.update(sessionID, func(data *SessionData) error {
		copied, err := copyJSON[domain.FamilyPlan](plan)
		if err != nil {
			return err
		}
		data.Plan = copied
		return nil
	})
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*SessionData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("copy session data: %w", err)
	}
	var copied SessionData
	if err := json.Unmarshal(raw, &copied); err != nil {
		return nil, fmt.Errorf("copy session data: %w", err)
	}
	return &copied, nil
}

func (s *MemoryStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionID]
	return ok, nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// update crea la sesion si no existe y aplica fn bajo lock.
func (s *MemoryStore) update(sessionID string, fn func(*SessionData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.sessions[sessionID]
	if !ok {
		data = &SessionData{}
		s.sessions[sessionID] = data
	}
	return fn(data)
}

func copyJSON[T any](src *T) (*T, error) {
	if src == nil {
		return nil, nil
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("copy value: %w", err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("copy value: %w", err)
	}
	return &out, nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"family-llm/internal/domain"
)

// FileStore persiste cada clave de la sesion como un archivo JSON dentro de
// un directorio por sesion, igual que el backend local original.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) sessionDir(sessionID string) string {
	return filepath.Join(s.baseDir, sessionID)
}

func (s *FileStore) Create(ctx context.Context, sessionID, userID string) error {
	dir := s.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	meta := map[string]string{"user_id": userID}
	return s.writeKey(sessionID, keyMeta, meta)
}

func (s *FileStore) SaveProfile(ctx context.Context, sessionID string, profile *domain.UserProfile) error {
	return s.writeKey(sessionID, KeyProfile, profile)
}

func (s *FileStore) SaveHistory(ctx context.Context, sessionID string, history []domain.ConversationEntry) error {
	return s.writeKey(sessionID, KeyHistory, history)
}

func (s *FileStore) SaveFamilyLog(ctx context.Context, sessionID string, log []domain.ConversationEntry) error {
	return s.writeKey(sessionID, KeyFamilyLog, log)
}

func (s *FileStore) SavePlan(ctx context.Context, sessionID string, plan *domain.FamilyPlan) error {
	return s.writeKey(sessionID, KeyPlan, plan)
}

func (s *FileStore) Load(ctx context.Context, sessionID string) (*SessionData, error) {
	dir := s.sessionDir(sessionID)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("stat session dir: %w", err)
	}

	data := &SessionData{}

	var meta map[string]string
	if ok, err := s.readKey(sessionID, keyMeta, &meta); err != nil {
		return nil, err
	} else if ok {
		data.UserID = meta["user_id"]
	}
	if _, err := s.readKey(sessionID, KeyProfile, &data.Profile); err != nil {
		return nil, err
	}
	if _, err := s.readKey(sessionID, KeyHistory, &data.History); err != nil {
		return nil, err
	}
	if _, err := s.readKey(sessionID, KeyFamilyLog, &data.FamilyLog); err != nil {
		return nil, err
	}
	if _, err := s.readKey(sessionID, KeyPlan, &data.Plan); err != nil {
		return nil, err
	}

	return data, nil
}

func (s *FileStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	_, err := os.Stat(s.sessionDir(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat session dir: %w", err)
	}
	return true, nil
}

func (s *FileStore) Delete(ctx context.Context, sessionID string) error {
	if err := os.RemoveAll(s.sessionDir(sessionID)); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	return nil
}

func (s *FileStore) writeKey(sessionID, key string, value any) error {
	dir := s.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	path := filepath.Join(dir, key+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// readKey devuelve false sin error cuando la clave no existe todavia.
func (s *FileStore) readKey(sessionID, key string, out any) (bool, error) {
	path := filepath.Join(s.sessionDir(sessionID), key+".json")
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

package store

import (
	"context"
	"errors"

	"family-llm/internal/domain"
)

// ErrNotFound indica que la sesion no existe en el backend.
var ErrNotFound = errors.New("session not found")

// Claves bajo las que se persiste cada parte de la sesion. Compartidas por
// todos los backends para que los datos sean portables entre ellos.
const (
	keyMeta      = "_meta"
	KeyProfile   = "user_profile"
	KeyHistory   = "conversation_history"
	KeyFamilyLog = "family_conversation_log"
	KeyPlan      = "family_plan"
)

// SessionData agrupa todo lo persistido para una sesion.
type SessionData struct {
	UserID    string                     `json:"user_id,omitempty"`
	Profile   *domain.UserProfile        `json:"user_profile,omitempty"`
	History   []domain.ConversationEntry `json:"conversation_history,omitempty"`
	FamilyLog []domain.ConversationEntry `json:"family_conversation_log,omitempty"`
	Plan      *domain.FamilyPlan         `json:"family_plan,omitempty"`
}

// SessionStore es la abstraccion clave/valor de persistencia por sesion.
// Las escrituras son last-writer-wins por sesion; un error de escritura es
// un fallo duro y nunca debe tratarse como exito.
type SessionStore interface {
	Create(ctx context.Context, sessionID, userID string) error
	SaveProfile(ctx context.Context, sessionID string, profile *domain.UserProfile) error
	SaveHistory(ctx context.Context, sessionID string, history []domain.ConversationEntry) error
	SaveFamilyLog(ctx context.Context, sessionID string, log []domain.ConversationEntry) error
	SavePlan(ctx context.Context, sessionID string, plan *domain.FamilyPlan) error
	Load(ctx context.Context, sessionID string) (*SessionData, error)
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"family-llm/internal/domain"
	"family-llm/internal/family"
	"family-llm/internal/intake"
	"family-llm/internal/store"
	"family-llm/internal/trip"
)

// Phase indica que conversacion esta activa para la sesion.
type Phase string

const (
	PhaseIntake Phase = "intake"
	PhaseFamily Phase = "family"
)

// TurnOutcome es el resultado de un mensaje del usuario, en cualquiera de las
// dos fases.
type TurnOutcome struct {
	Phase   Phase                      `json:"phase"`
	Intake  *domain.IntakeReply        `json:"intake,omitempty"`
	Replies []domain.ConversationEntry `json:"replies,omitempty"`
	Plan    *domain.FamilyPlan         `json:"plan,omitempty"`
}

// liveSession es el estado en memoria de una sesion activa. El mutex
// serializa los turnos: nunca hay dos llamadas al servicio de completado en
// vuelo para la misma sesion.
type liveSession struct {
	mu     sync.Mutex
	intake *intake.Session
	conv   *trip.Conversation
}

// Manager coordina el ciclo completo de una sesion: intake hasta completar el
// perfil, construccion de la familia y conversacion de planificacion.
type Manager struct {
	intakeSvc    *intake.Service
	orchestrator *trip.Orchestrator
	sessions     store.SessionStore
	logger       *zap.Logger

	newRNG func() *rand.Rand

	mu   sync.Mutex
	live map[string]*liveSession
}

func NewManager(intakeSvc *intake.Service, orchestrator *trip.Orchestrator, sessions store.SessionStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		intakeSvc:    intakeSvc,
		orchestrator: orchestrator,
		sessions:     sessions,
		logger:       logger,
		newRNG: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		live: make(map[string]*liveSession),
	}
	intakeSvc.OnComplete = m.handOff
	return m
}

// Start crea o restaura la sesion. Tras un reinicio del proceso la familia se
// reconstruye desde el perfil persistido y el log familiar guardado.
func (m *Manager) Start(ctx context.Context, sessionID, userID string) (Phase, error) {
	ls := m.entry(sessionID)
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.intake != nil {
		return m.phase(ls), nil
	}

	session, err := m.intakeSvc.StartSession(ctx, sessionID, userID)
	if err != nil {
		return "", err
	}
	ls.intake = session

	if session.State == intake.StateCompleted && ls.conv == nil {
		if err := m.restoreConversation(ctx, ls); err != nil {
			return "", err
		}
	}
	return m.phase(ls), nil
}

// Message procesa un turno. Durante el intake delega en el servicio de
// recoleccion; completado el perfil, en el orquestador familiar.
func (m *Manager) Message(ctx context.Context, sessionID, text string) (TurnOutcome, error) {
	ls := m.entry(sessionID)
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.intake == nil {
		return TurnOutcome{}, store.ErrNotFound
	}

	if ls.intake.State == intake.StateCollecting {
		reply, err := m.intakeSvc.HandleTurn(ctx, ls.intake, text)
		if err != nil {
			return TurnOutcome{}, err
		}
		return TurnOutcome{Phase: PhaseIntake, Intake: &reply}, nil
	}

	if ls.conv == nil {
		// Hand-off perdido (p. ej. el proceso se reinicio entre turnos).
		m.buildConversation(ls)
	}

	result, err := m.orchestrator.HandleTurn(ctx, ls.conv, text)
	if err != nil {
		return TurnOutcome{}, err
	}
	return TurnOutcome{Phase: PhaseFamily, Replies: result.Replies, Plan: result.Plan}, nil
}

// Snapshot devuelve los datos persistidos de la sesion.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*store.SessionData, error) {
	return m.sessions.Load(ctx, sessionID)
}

// Personas devuelve la familia construida, si la sesion ya llego a esa fase.
func (m *Manager) Personas(sessionID string) []domain.Persona {
	ls := m.entry(sessionID)
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.conv == nil {
		return nil
	}
	return ls.conv.Personas
}

// Delete borra la sesion del store y de la memoria.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	if err := m.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.mu.Lock()
	delete(m.live, sessionID)
	m.mu.Unlock()
	return nil
}

func (m *Manager) entry(sessionID string) *liveSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	ls, ok := m.live[sessionID]
	if !ok {
		ls = &liveSession{}
		m.live[sessionID] = ls
	}
	return ls
}

func (m *Manager) phase(ls *liveSession) Phase {
	if ls.intake != nil && ls.intake.State == intake.StateCompleted {
		return PhaseFamily
	}
	return PhaseIntake
}

// handOff corre dentro de la transicion a COMPLETED del intake y arma la
// conversacion familiar. Se ejecuta bajo el lock de la sesion.
func (m *Manager) handOff(ctx context.Context, session *intake.Session) {
	m.mu.Lock()
	ls, ok := m.live[session.ID]
	m.mu.Unlock()
	if !ok || ls.conv != nil {
		return
	}
	ls.intake = session
	m.buildConversation(ls)
	m.logger.Info("family conversation ready",
		zap.String("session_id", session.ID),
		zap.Int("personas", len(ls.conv.Personas)),
	)
}

func (m *Manager) buildConversation(ls *liveSession) {
	factory := family.NewPersonaFactory(&ls.intake.Profile, m.newRNG())
	ls.conv = trip.NewConversation(ls.intake.ID, factory.BuildFamily(&ls.intake.Profile))
}

// restoreConversation rearma la charla familiar desde lo persistido: personas
// desde el perfil, log y plan desde el store.
func (m *Manager) restoreConversation(ctx context.Context, ls *liveSession) error {
	m.buildConversation(ls)

	data, err := m.sessions.Load(ctx, ls.intake.ID)
	if err != nil {
		return fmt.Errorf("restore conversation: %w", err)
	}
	ls.conv.State.Log = data.FamilyLog
	if data.Plan != nil {
		ls.conv.State.Destination = data.Plan.Destination
		ls.conv.State.Activities = data.Plan.Activities
		ls.conv.State.Story = data.Plan.Story
		ls.conv.State.Letter = data.Plan.Letter
		ls.conv.State.PlanConfirmed = true
		ls.conv.State.PlanComplete = true
	}
	return nil
}

package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"family-llm/internal/domain"
	"family-llm/internal/llm"
	"family-llm/internal/store"
)

// State es el ciclo de vida de la sesion de intake.
type State string

const (
	StateCollecting State = "collecting"
	StateCompleted  State = "completed"
)

const (
	speakerUser = "user"

	defaultReply = "お話を伺いました。続きもぜひ教えてください。"

	defaultClosing = "素晴らしいです！必要な情報が揃いました。\nそれでは、あなたの未来の家族と会話を始めましょう。"
)

// Session es el estado por usuario de una conversacion de intake: perfil
// canonico, historial de turnos y ciclo de vida de dos estados.
type Session struct {
	ID      string
	UserID  string
	State   State
	Profile domain.UserProfile
	History []domain.ConversationEntry
}

// userTurns devuelve todos los mensajes escritos por el usuario, en orden.
func (s *Session) userTurns() []string {
	turns := make([]string, 0, len(s.History))
	for _, entry := range s.History {
		if entry.Speaker == speakerUser {
			turns = append(turns, entry.Message)
		}
	}
	return turns
}

// Service conduce sesiones de intake: una llamada al servicio de completado
// por turno, merge, evaluacion de completitud y la transicion unica a
// COMPLETED. Las llamadas para una misma sesion deben serializarse.
type Service struct {
	llmClient llm.Client
	sessions  store.SessionStore
	merger    *MergeEngine
	guide     GuidePersona
	logger    *zap.Logger
	now       func() time.Time

	// OnComplete se invoca exactamente una vez por sesion, dentro de la
	// transicion a COMPLETED, para el hand-off al orquestador familiar.
	OnComplete func(ctx context.Context, session *Session)
}

func NewService(llmClient llm.Client, sessions store.SessionStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		llmClient: llmClient,
		sessions:  sessions,
		merger:    NewMergeEngine(logger),
		guide:     DefaultGuide,
		logger:    logger,
		now:       time.Now,
	}
}

// StartSession carga la sesion si existe o crea una nueva.
func (s *Service) StartSession(ctx context.Context, sessionID, userID string) (*Session, error) {
	data, err := s.sessions.Load(ctx, sessionID)
	if err == nil {
		session := &Session{ID: sessionID, UserID: data.UserID, State: StateCollecting, History: data.History}
		if data.Profile != nil {
			session.Profile = *data.Profile
		}
		if IsComplete(&session.Profile) {
			session.State = StateCompleted
		}
		return session, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if err := s.sessions.Create(ctx, sessionID, userID); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &Session{ID: sessionID, UserID: userID, State: StateCollecting}, nil
}

// turnResponse es el esquema esperado de la respuesta unificada del LLM.
type turnResponse struct {
	Message           string          `json:"message"`
	Extracted         json.RawMessage `json:"extracted_info"`
	IsComplete        bool            `json:"is_complete"`
	CompletionMessage string          `json:"completion_message"`
}

// HandleTurn procesa un turno completo de intake. El fallo del servicio
// externo se reporta como error consultivo: la sesion sigue en COLLECTING y
// el perfil queda intacto.
func (s *Service) HandleTurn(ctx context.Context, session *Session, userMessage string) (domain.IntakeReply, error) {
	if session.State == StateCompleted {
		// Terminal: turnos posteriores no reabren la recoleccion.
		return domain.IntakeReply{
			Speaker:   s.guide.Name,
			Message:   defaultClosing,
			Completed: true,
		}, nil
	}

	now := s.now().UTC()
	session.History = append(session.History, domain.ConversationEntry{
		Speaker:   speakerUser,
		Message:   userMessage,
		Timestamp: now,
	})
	if err := s.sessions.SaveHistory(ctx, session.ID, session.History); err != nil {
		return domain.IntakeReply{}, fmt.Errorf("save history: %w", err)
	}

	missing := MissingFields(&session.Profile)
	prompt := buildTurnPrompt(s.guide, &session.Profile, session.History, missing, userMessage)

	raw, err := s.llmClient.Generate(ctx, prompt)
	if err != nil {
		// Consultivo: el turno fallo pero el estado no cambia.
		return domain.IntakeReply{}, fmt.Errorf("completion service: %w", err)
	}

	var resp turnResponse
	parsed := llm.UnmarshalLoose(raw, &resp)
	if !parsed {
		// Sin JSON utilizable: el texto crudo sirve de respuesta y el
		// turno entero cuenta como fallo de parseo, sin merge.
		s.logger.Warn("intake turn reply unparseable", zap.String("session_id", session.ID))
		resp = turnResponse{Message: strings.TrimSpace(raw)}
	}

	extraction := ExtractionResult{ParseFailed: true}
	if parsed {
		extraction = parseExtraction(resp.Extracted)
	}
	if !extraction.ParseFailed {
		s.merger.Merge(&session.Profile, extraction, session.userTurns(), now)
		if err := s.sessions.SaveProfile(ctx, session.ID, &session.Profile); err != nil {
			return domain.IntakeReply{}, fmt.Errorf("save profile: %w", err)
		}
	}

	missing = MissingFields(&session.Profile)
	computedComplete := len(missing) == 0
	if resp.IsComplete != computedComplete {
		// La cuenta derivada es la autoridad; la señal del modelo solo
		// elige el mensaje de cierre.
		s.logger.Info("advisory completion disagrees with computed check",
			zap.Bool("advisory", resp.IsComplete),
			zap.Strings("missing", missing),
			zap.String("session_id", session.ID),
		)
	}

	if computedComplete {
		return s.finalize(ctx, session, resp.CompletionMessage)
	}

	message := strings.TrimSpace(resp.Message)
	if message == "" {
		message = defaultReply
	}
	session.History = append(session.History, domain.ConversationEntry{
		Speaker:   s.guide.Name,
		Message:   message,
		Timestamp: s.now().UTC(),
	})
	if err := s.sessions.SaveHistory(ctx, session.ID, session.History); err != nil {
		return domain.IntakeReply{}, fmt.Errorf("save history: %w", err)
	}

	return domain.IntakeReply{
		Speaker:       s.guide.Name,
		Message:       message,
		MissingFields: missing,
	}, nil
}

// finalize ejecuta los efectos de cierre exactamente una vez: mensaje de
// despedida, persistencia final y hand-off.
func (s *Service) finalize(ctx context.Context, session *Session, closingMessage string) (domain.IntakeReply, error) {
	closing := strings.TrimSpace(closingMessage)
	if closing == "" {
		closing = defaultClosing
	}

	session.History = append(session.History, domain.ConversationEntry{
		Speaker:   s.guide.Name,
		Message:   closing,
		Timestamp: s.now().UTC(),
	})
	if err := s.sessions.SaveHistory(ctx, session.ID, session.History); err != nil {
		return domain.IntakeReply{}, fmt.Errorf("save history: %w", err)
	}
	if err := s.sessions.SaveProfile(ctx, session.ID, &session.Profile); err != nil {
		return domain.IntakeReply{}, fmt.Errorf("save profile: %w", err)
	}

	session.State = StateCompleted
	s.logger.Info("intake session completed", zap.String("session_id", session.ID))

	if s.OnComplete != nil {
		s.OnComplete(ctx, session)
	}

	return domain.IntakeReply{
		Speaker:   s.guide.Name,
		Message:   closing,
		Completed: true,
	}, nil
}

package trip

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"family-llm/internal/domain"
	"family-llm/internal/store"
)

const speakerUser = "user"

// Conversation es el contexto por sesion de la charla familiar: las personas
// en su orden fijo de turno y el estado compartido del viaje.
type Conversation struct {
	SessionID string
	Personas  []domain.Persona
	State     *domain.TripState
}

// TurnResult agrega las respuestas de todas las personas de un turno. Plan es
// no nil solo en el turno que disparo el finalize.
type TurnResult struct {
	Replies []domain.ConversationEntry
	Plan    *domain.FamilyPlan
}

// Orchestrator conduce la conversacion familiar: despacho secuencial en orden
// fijo, persistencia del log tras cada turno y el guard de finalizacion.
type Orchestrator struct {
	executor *TurnExecutor
	summary  SummaryGenerator
	sessions store.SessionStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrchestrator(executor *TurnExecutor, summary SummaryGenerator, sessions store.SessionStore, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		executor: executor,
		summary:  summary,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// NewConversation arma el contexto de una sesion con estado de viaje vacio.
// La primera persona de la lista es la proponente del plan.
func NewConversation(sessionID string, personas []domain.Persona) *Conversation {
	return &Conversation{
		SessionID: sessionID,
		Personas:  personas,
		State:     &domain.TripState{},
	}
}

// HandleTurn procesa un mensaje del usuario: lo agrega al log, da la palabra
// a cada persona en orden (las posteriores ven las mutaciones de las
// anteriores) y al final evalua el guard de finalizacion.
func (o *Orchestrator) HandleTurn(ctx context.Context, conv *Conversation, userMessage string) (TurnResult, error) {
	state := conv.State
	result := TurnResult{}

	state.Append(speakerUser, userMessage, o.now().UTC())

	for i, persona := range conv.Personas {
		proposer := i == 0
		message, err := o.executor.Execute(ctx, persona, proposer, state, userMessage)
		if err != nil {
			// El fallo de una persona no corta el turno de las demas.
			o.logger.Warn("persona turn failed",
				zap.String("persona", persona.Name),
				zap.String("session_id", conv.SessionID),
				zap.Error(err),
			)
			message = apologeticReply(persona)
		}

		entry := domain.ConversationEntry{
			Speaker:   persona.Name,
			Message:   message,
			Timestamp: o.now().UTC(),
		}
		state.Append(entry.Speaker, entry.Message, entry.Timestamp)
		result.Replies = append(result.Replies, entry)
	}

	if err := o.sessions.SaveFamilyLog(ctx, conv.SessionID, state.Log); err != nil {
		return TurnResult{}, fmt.Errorf("save family log: %w", err)
	}

	if o.shouldFinalize(state) {
		plan, err := o.finalize(ctx, conv)
		if err != nil {
			return TurnResult{}, err
		}
		result.Plan = plan
	}

	return result, nil
}

// shouldFinalize es el guard: plan confirmado, destino y actividades
// presentes y finalize todavia no ejecutado.
func (o *Orchestrator) shouldFinalize(state *domain.TripState) bool {
	return !state.PlanComplete && state.PlanConfirmed &&
		state.Destination != "" && len(state.Activities) > 0
}

// finalize genera historia y carta, persiste el plan y recien entonces
// congela el estado. El resumen queda cacheado en el estado, asi el generador
// corre a lo sumo una vez aunque la escritura falle y se reintente en un
// turno posterior. El fallo del generador externo cae al resumen
// determinista, nunca aborta el cierre.
func (o *Orchestrator) finalize(ctx context.Context, conv *Conversation) (*domain.FamilyPlan, error) {
	state := conv.State

	if state.Story == "" && state.Letter == "" {
		summary, err := o.summary.Generate(ctx, state, conv.Personas)
		if err != nil {
			o.logger.Warn("summary generator failed, using fallback",
				zap.String("session_id", conv.SessionID),
				zap.Error(err),
			)
			summary = fallbackSummary(state)
		}
		state.Story = summary.Story
		state.Letter = summary.Letter
	}

	plan := &domain.FamilyPlan{
		Destination: state.Destination,
		Activities:  state.Activities,
		Story:       state.Story,
		Letter:      state.Letter,
		Log:         state.Log,
	}
	if err := o.sessions.SavePlan(ctx, conv.SessionID, plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}

	state.PlanComplete = true

	o.logger.Info("family plan finalized",
		zap.String("session_id", conv.SessionID),
		zap.String("destination", plan.Destination),
		zap.Int("activities", len(plan.Activities)),
	)

	return plan, nil
}

package trip

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"family-llm/internal/domain"
	"family-llm/internal/llm"
)

// personaReply es el esquema esperado de la respuesta de un turno de persona.
type personaReply struct {
	Message      string   `json:"message"`
	Destination  string   `json:"destination"`
	Activities   []string `json:"activities"`
	PlanResponse string   `json:"plan_response"`
}

// planAnswer clasifica la respuesta del usuario a la propuesta de plan.
type planAnswer int

const (
	answerAmbiguous planAnswer = iota
	answerYes
	answerNo
)

var (
	affirmatives = []string{"yes", "ok", "はい", "いいよ", "いいね", "賛成"}
	negatives    = []string{"no", "いや", "やだ", "反対", "だめ"}
)

// classifyPlanResponse solo actua sobre respuestas inequivocas: si el texto
// contiene señales de ambos lados, o de ninguno, la propuesta sigue abierta.
func classifyPlanResponse(response string) planAnswer {
	normalized := strings.ToLower(strings.TrimSpace(response))
	if normalized == "" || normalized == "null" {
		return answerAmbiguous
	}
	yes := containsAny(normalized, affirmatives)
	no := containsAny(normalized, negatives)
	switch {
	case yes && !no:
		return answerYes
	case no && !yes:
		return answerNo
	default:
		return answerAmbiguous
	}
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

// TurnExecutor ejecuta el turno de una persona: una llamada al servicio de
// completado y las mutaciones ordenadas del estado del viaje.
type TurnExecutor struct {
	llmClient llm.Client
	logger    *zap.Logger
}

func NewTurnExecutor(llmClient llm.Client, logger *zap.Logger) *TurnExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TurnExecutor{llmClient: llmClient, logger: logger}
}

// Execute corre el turno de la persona y aplica los efectos en orden fijo:
// destino, actividades, propuesta de plan (solo el proponente) y respuesta a
// la propuesta. Devuelve el mensaje a agregar al log compartido.
func (e *TurnExecutor) Execute(ctx context.Context, persona domain.Persona, proposer bool, state *domain.TripState, userMessage string) (string, error) {
	prompt := buildPersonaPrompt(persona, state, userMessage)

	raw, err := e.llmClient.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("persona %s: %w", persona.Name, err)
	}

	var reply personaReply
	if !llm.UnmarshalLoose(raw, &reply) {
		// Sin JSON utilizable el texto crudo sirve de mensaje y el turno
		// no aporta mutaciones.
		e.logger.Warn("persona turn reply unparseable", zap.String("persona", persona.Name))
		reply = personaReply{Message: strings.TrimSpace(raw)}
	}
	if strings.EqualFold(strings.TrimSpace(reply.Destination), "null") {
		reply.Destination = ""
	}

	state.SetDestination(strings.TrimSpace(reply.Destination))
	state.AddActivities(reply.Activities)

	message := strings.TrimSpace(reply.Message)
	if message == "" {
		message = fmt.Sprintf("%sだよ。続きを聞かせて！", persona.Name)
	}

	if proposer && !state.PlanPrompted && !state.PlanConfirmed &&
		state.Destination != "" && len(state.Activities) >= 2 {
		message = message + "\n" + planProposal(state)
		state.PlanPrompted = true
	} else if state.PlanPrompted {
		switch classifyPlanResponse(reply.PlanResponse) {
		case answerYes:
			state.PlanConfirmed = true
			state.PlanPrompted = false
		case answerNo:
			// La conversacion sigue; la propuesta puede reabrirse despues.
			state.PlanPrompted = false
		}
	}

	return message, nil
}

// apologeticReply es el mensaje en personaje cuando la llamada de una persona
// falla. El turno de las demas personas continua igual.
func apologeticReply(persona domain.Persona) string {
	return fmt.Sprintf("ごめんね、%sはちょっと考えがまとまらなかったみたい。もう一度話してくれる？", persona.Name)
}

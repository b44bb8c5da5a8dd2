package trip

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"family-llm/internal/domain"
	"family-llm/internal/llm"
)

// PlanSummary es el resultado del generador: la historia del viaje y la carta
// de la familia.
type PlanSummary struct {
	Story  string `json:"story"`
	Letter string `json:"letter"`
}

// SummaryGenerator produce la historia y la carta al cerrar el plan. Se llama
// exactamente una vez por sesion.
type SummaryGenerator interface {
	Generate(ctx context.Context, state *domain.TripState, personas []domain.Persona) (PlanSummary, error)
}

// LLMSummaryGenerator pide ambos textos en una sola llamada al servicio de
// completado.
type LLMSummaryGenerator struct {
	llmClient llm.Client
	logger    *zap.Logger
}

func NewLLMSummaryGenerator(llmClient llm.Client, logger *zap.Logger) *LLMSummaryGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMSummaryGenerator{llmClient: llmClient, logger: logger}
}

func (g *LLMSummaryGenerator) Generate(ctx context.Context, state *domain.TripState, personas []domain.Persona) (PlanSummary, error) {
	raw, err := g.llmClient.Generate(ctx, buildSummaryPrompt(state, personas))
	if err != nil {
		return PlanSummary{}, fmt.Errorf("summary generation: %w", err)
	}

	var summary PlanSummary
	if !llm.UnmarshalLoose(raw, &summary) {
		return PlanSummary{}, fmt.Errorf("summary generation: no usable JSON in reply")
	}
	if strings.TrimSpace(summary.Story) == "" {
		return PlanSummary{}, fmt.Errorf("summary generation: empty story")
	}
	return summary, nil
}

// fallbackSummary sintetiza historia y carta deterministas desde el estado
// del viaje, para que el plan cierre aunque el generador externo falle.
func fallbackSummary(state *domain.TripState) PlanSummary {
	activities := strings.Join(state.Activities, "や")

	story := fmt.Sprintf("家族みんなで%sへの旅行を計画しています。\n現地では%sを楽しむ予定です。\n\n家族全員がこの旅行を楽しみにしています！",
		state.Destination, activities)

	letter := fmt.Sprintf("だいすきなあなたへ\n\nこんど、%sにいくのをたのしみにしているよ。\nいっしょに%sをしようね！\n\nかぞくより",
		state.Destination, activities)

	return PlanSummary{Story: story, Letter: letter}
}

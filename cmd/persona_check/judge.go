package main

import (
	"context"
	"fmt"
	"strings"

	"family-llm/internal/domain"
	"family-llm/internal/llm"
)

// judgeResponse representa la respuesta estructurada del juez evaluador en formato JSON.
type judgeResponse struct {
	Reasoning      string `json:"reasoning"`
	CharacterScore int    `json:"character_score"`
	StyleScore     int    `json:"style_score"`
	PlanScore      int    `json:"plan_score"`
}

func evaluateReply(
	ctx context.Context,
	judge llm.Client,
	persona domain.Persona,
	state *domain.TripState,
	input, reply string,
	sc Scenario,
) (judgeResponse, error) {
	mentionsDestination := state.Destination != "" && strings.Contains(reply, state.Destination)
	breaksCharacter := detectCharacterBreak(reply)

	heuristicLine := fmt.Sprintf(
		"ヒューリスティック指標: 行き先への言及=%t, キャラクター逸脱=%t",
		mentionsDestination, breaksCharacter,
	)

	prompt := buildJudgePrompt(persona, state, heuristicLine, input, reply, sc.ExpectedBehavior)

	raw, err := judge.Generate(ctx, prompt)
	if err != nil {
		return judgeResponse{}, err
	}

	var jr judgeResponse
	if !llm.UnmarshalLoose(raw, &jr) {
		return judgeResponse{}, fmt.Errorf("juez devolvio no-json: %q", raw)
	}

	// clamps simples por si el juez delira con 0/10
	jr.CharacterScore = clamp1to5(jr.CharacterScore)
	jr.StyleScore = clamp1to5(jr.StyleScore)
	jr.PlanScore = clamp1to5(jr.PlanScore)

	// Penalizacion dura por romper el personaje
	if breaksCharacter && jr.CharacterScore > 2 {
		jr.CharacterScore = 2
	}

	return jr, nil
}

func clamp1to5(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

// detectCharacterBreak busca señales de que el modelo salio del personaje:
// hablar de si mismo como asistente o modelo de lenguaje.
func detectCharacterBreak(reply string) bool {
	lower := strings.ToLower(reply)
	signals := []string{
		"aiアシスタント",
		"言語モデル",
		"as an ai",
		"language model",
		"私はaiです",
	}
	for _, signal := range signals {
		if strings.Contains(lower, signal) {
			return true
		}
	}
	return false
}

func buildJudgePrompt(
	persona domain.Persona,
	state *domain.TripState,
	heuristicLine, input, reply, expectedBehavior string,
) string {
	return fmt.Sprintf(
		`あなたは家族シミュレーションの応答を評価する審査員です。

ペルソナ: %s（%s）
話し方: %s
性格: %s
旅行の状況: 行き先=%q, やりたいこと=%s
%s

ユーザー入力: %q
ペルソナの返答: %q
シナリオの期待: %s

評価（1-5）:
1) character_score: 返答はペルソナの役割と性格に合っているか？
2) style_score: 指定された話し方を守っているか？
3) plan_score: 旅行計画の現状（行き先・やりたいこと）と矛盾していないか？

JSONのみで回答してください（markdownなし）:
{
  "reasoning": "...",
  "character_score": 0,
  "style_score": 0,
  "plan_score": 0
}`,
		persona.Name, persona.Role,
		persona.SpeakingStyle,
		strings.Join(persona.Traits, "、"),
		state.Destination, strings.Join(state.Activities, "、"),
		heuristicLine,
		input, reply, expectedBehavior,
	)
}

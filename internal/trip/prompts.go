package trip

import (
	"fmt"
	"strings"

	"family-llm/internal/domain"
)

// buildPersonaPrompt arma la peticion de un turno familiar: identidad de la
// persona, snapshot del viaje, ultimas entradas del log y el mensaje nuevo.
func buildPersonaPrompt(persona domain.Persona, state *domain.TripState, userMessage string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("あなたは未来の家族の「%s」、名前は%sです。\n", persona.Role, persona.Name))
	sb.WriteString(fmt.Sprintf("%sで話してください。\n", persona.SpeakingStyle))
	if len(persona.Traits) > 0 {
		sb.WriteString(fmt.Sprintf("性格: %s\n", strings.Join(persona.Traits, "、")))
	}
	if persona.Goals != "" {
		sb.WriteString(fmt.Sprintf("目標: %s\n", persona.Goals))
	}
	if persona.Background != "" {
		sb.WriteString(fmt.Sprintf("背景: %s\n", persona.Background))
	}

	sb.WriteString("\n## 家族旅行の計画状況\n")
	if state.Destination != "" {
		sb.WriteString(fmt.Sprintf("行き先: %s\n", state.Destination))
	} else {
		sb.WriteString("行き先: まだ決まっていません\n")
	}
	if len(state.Activities) > 0 {
		sb.WriteString(fmt.Sprintf("やりたいこと: %s\n", strings.Join(state.Activities, "、")))
	} else {
		sb.WriteString("やりたいこと: まだありません\n")
	}

	if recent := state.RecentLog(6); len(recent) > 0 {
		sb.WriteString("\n## 直近の会話\n")
		for _, entry := range recent {
			sb.WriteString(fmt.Sprintf("%s: %s\n", entry.Speaker, entry.Message))
		}
	}

	sb.WriteString("\n## ユーザーの最新メッセージ\n")
	sb.WriteString(userMessage)
	sb.WriteString("\n\n## 出力形式\n")
	sb.WriteString("以下のJSON形式のみで回答してください。JSON以外のテキストは含めないでください。\n")
	sb.WriteString(`{"message": "家族としての返答", "destination": "会話で決まった行き先（なければnull）", "activities": ["会話に出たやりたいこと"], "plan_response": "ユーザーが計画の提案に答えていればその答え、なければnull"}`)
	sb.WriteString("\n")

	return sb.String()
}

// planProposal es la frase que la pareja agrega cuando el plan ya tiene
// destino y suficientes actividades.
func planProposal(state *domain.TripState) string {
	activities := state.Activities
	if len(activities) > 2 {
		activities = activities[:2]
	}
	return fmt.Sprintf("そうだ、%sに行って%sを楽しむ計画はどうかな？みんな、賛成してくれる？",
		state.Destination, strings.Join(activities, "や"))
}

// buildSummaryPrompt pide la historia del viaje y la carta de la familia en
// una sola llamada al finalizar el plan.
func buildSummaryPrompt(state *domain.TripState, personas []domain.Persona) string {
	var sb strings.Builder

	sb.WriteString("家族で旅行の計画がまとまりました。以下の情報から2つの文章を書いてください。\n\n")
	sb.WriteString(fmt.Sprintf("行き先: %s\n", state.Destination))
	sb.WriteString(fmt.Sprintf("やりたいこと: %s\n", strings.Join(state.Activities, "、")))

	if len(personas) > 0 {
		sb.WriteString("\n## 家族\n")
		for _, persona := range personas {
			sb.WriteString(fmt.Sprintf("- %s（%s）\n", persona.Name, persona.Role))
		}
	}

	if recent := state.RecentLog(12); len(recent) > 0 {
		sb.WriteString("\n## 会話の記録\n")
		for _, entry := range recent {
			sb.WriteString(fmt.Sprintf("%s: %s\n", entry.Speaker, entry.Message))
		}
	}

	sb.WriteString("\n## 出力形式\n")
	sb.WriteString("以下のJSON形式のみで回答してください。\n")
	sb.WriteString(`{"story": "旅行当日を描いた温かい物語（3-5文）", "letter": "家族からユーザーへの手紙（子どもの視点、ひらがな多め）"}`)
	sb.WriteString("\n")

	return sb.String()
}

package intake

import (
	"fmt"
	"strings"

	"family-llm/internal/domain"
)

// GuidePersona es la figura que conduce el intake. Configurable, con la
// diosa del amor familiar como default.
type GuidePersona struct {
	Name          string
	Role          string
	SpeakingStyle string
}

// DefaultGuide es la guia usada cuando no se configura otra.
var DefaultGuide = GuidePersona{
	Name:          "ヘーラー",
	Role:          "家族愛の神",
	SpeakingStyle: "温かみのある、親しみやすい口調",
}

const extractionFieldGuide = `【抽出対象フィールド】
- age: 年齢（数値）
- gender: 性別（文字列）
- location: 居住地（文字列）
- income_range: 収入範囲（文字列）
- relationship_status: 交際状況（"married", "partnered", "single", "other"）
- current_partner: 現在のパートナー情報（既婚/交際中の場合）
  {"name": "名前", "temperament": "性格の説明", "appearance": "外見の特徴",
   "personality_traits": {"openness": 0.0-1.0, "conscientiousness": 0.0-1.0,
    "extraversion": 0.0-1.0, "agreeableness": 0.0-1.0, "neuroticism": 0.0-1.0},
   "hobbies": ["趣味1"], "speaking_style": "話し方"}
- ideal_partner: 理想のパートナー像（独身の場合、同じ構造）
- partner_face_description: パートナーの外見・顔の特徴の文章記述
- user_personality_traits: ユーザー自身の性格特性（ビッグファイブの辞書形式）
- children_info: 子供の希望（必ず配列形式）
  例: 「女の子一人、名前はえり」 → [{"desired_gender": "女", "name": "えり"}]

【性格特性の推定ルール】
- 「明るい」「社交的」「活発」 → extraversion: 0.7-0.8
- 「几帳面」「計画的」「しっかり」 → conscientiousness: 0.7-0.8
- 「優しい」「思いやり」 → agreeableness: 0.7-0.8
- 「好奇心旺盛」「新しいこと好き」 → openness: 0.7-0.8
- 「心配性」「慎重」 → neuroticism: 0.7-0.8 / 「落ち着いている」 → 0.2-0.3

注意:
- 抽出できた情報のみを extracted_info に含める
- user_personality_traits は必ず辞書形式、children_info は必ず配列形式
- 文字列をそのまま入れるのは禁止（例: "children_info": "女の子一人" はNG）`

// buildTurnPrompt arma el prompt unificado de un turno de intake: respuesta
// conversacional, extraccion parcial y señal consultiva de completitud, todo
// en una sola llamada al servicio de completado.
func buildTurnPrompt(guide GuidePersona, profile *domain.UserProfile, history []domain.ConversationEntry, missing []string, userMessage string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("あなたは%s（%s）です。%sで話してください。\n", guide.Name, guide.Role, guide.SpeakingStyle))
	sb.WriteString("ユーザーから未来の家族を描くための最小限の情報を効率的に収集します。\n")
	sb.WriteString("1つの質問で複数項目をまとめて聞き、3-4ターンでの完了を目指してください。\n\n")

	sb.WriteString("## 現在のユーザープロファイル\n")
	sb.WriteString(formatProfile(profile))
	sb.WriteString("\n\n## 現時点で不足している項目\n")
	if len(missing) == 0 {
		sb.WriteString("（なし）\n")
	} else {
		sb.WriteString(strings.Join(missing, ", "))
		sb.WriteString("\n")
	}

	if len(history) > 0 {
		sb.WriteString("\n## 直近の会話\n")
		recent := history
		if len(recent) > 6 {
			recent = recent[len(recent)-6:]
		}
		for _, entry := range recent {
			sb.WriteString(fmt.Sprintf("%s: %s\n", entry.Speaker, entry.Message))
		}
	}

	sb.WriteString("\n## ユーザーの最新メッセージ\n")
	sb.WriteString(userMessage)
	sb.WriteString("\n\n")
	sb.WriteString(extractionFieldGuide)
	sb.WriteString("\n\n## 出力形式\n")
	sb.WriteString("以下のJSON形式のみで回答してください。JSON以外のテキストは含めないでください。\n")
	sb.WriteString(`{"message": "ユーザーへの返答", "extracted_info": {...}, "is_complete": true または false, "completion_message": "完了時のみ温かい締めのメッセージ、未完了ならnull"}`)
	sb.WriteString("\n\n## 完了判定の基準\n")
	sb.WriteString("- 不足項目が全て揃った、またはユーザーが「これで十分」などと言っている → is_complete: true\n")
	sb.WriteString("- それ以外 → is_complete: false\n")

	return sb.String()
}

// formatProfile resume los campos ya recolectados en texto plano.
func formatProfile(profile *domain.UserProfile) string {
	lines := make([]string, 0, 8)
	if profile.Age != nil {
		lines = append(lines, fmt.Sprintf("age: %d", *profile.Age))
	}
	appendLine := func(key, value string) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", key, value))
		}
	}
	appendLine("gender", profile.Gender)
	appendLine("relationship_status", profile.RelationshipStatus)
	appendLine("location", profile.Location)
	appendLine("income_range", profile.IncomeRange)
	appendLine("partner_face_description", profile.PartnerFaceDescription)
	if profile.UserPersonalityTraits.FilledCount() > 0 {
		lines = append(lines, fmt.Sprintf("user_personality_traits: %d/5項目", profile.UserPersonalityTraits.FilledCount()))
	}
	if partner := profile.ActivePartner(); partner != nil && !partner.IsEmpty() {
		appendLine("partner", partner.Name+" / "+partner.Temperament)
	}
	if len(profile.ChildrenInfo) > 0 {
		lines = append(lines, fmt.Sprintf("children_info: %d人", len(profile.ChildrenInfo)))
	}
	if len(lines) == 0 {
		return "（まだ情報はありません）"
	}
	return strings.Join(lines, "\n")
}

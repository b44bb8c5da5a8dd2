package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var (
	fenceStart = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	fenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")
)

// CleanJSONResponse quita fences ```json ... ``` y BOM, dejando el contenido usable.
func CleanJSONResponse(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = strings.TrimPrefix(s, "\uFEFF")
	s = fenceStart.ReplaceAllString(s, "")
	s = fenceEnd.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ExtractFirstJSONObject devuelve el primer objeto JSON balanceado dentro de
// input, tolerando prosa antes y despues. Devuelve "" si no hay ninguno.
func ExtractFirstJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return ""
	}

	inString := false
	escape := false
	depth := 0

	for i := start; i < len(input); i++ {
		ch := input[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
			if depth < 0 {
				return ""
			}
		}
	}

	return ""
}

// UnmarshalLoose intenta decodificar la respuesta cruda del LLM en out.
// Orden de intentos: objeto extraido tal cual, contenido limpio, y por ultimo
// una pasada de reparacion con jsonrepair. Devuelve false si nada funciono.
func UnmarshalLoose(raw string, out any) bool {
	cleaned := CleanJSONResponse(raw)

	candidates := make([]string, 0, 3)
	if obj := ExtractFirstJSONObject(cleaned); obj != "" {
		candidates = append(candidates, obj)
	}
	if obj := ExtractFirstJSONObject(raw); obj != "" {
		candidates = append(candidates, obj)
	}
	if cleaned != "" {
		candidates = append(candidates, cleaned)
	}

	for _, candidate := range candidates {
		if json.Unmarshal([]byte(candidate), out) == nil {
			return true
		}
	}

	// Ultimo recurso: reparar el JSON sucio del modelo.
	for _, candidate := range candidates {
		repaired, err := jsonrepair.JSONRepair(candidate)
		if err != nil {
			continue
		}
		if json.Unmarshal([]byte(repaired), out) == nil {
			return true
		}
	}

	return false
}

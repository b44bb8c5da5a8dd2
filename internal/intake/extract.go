package intake

import (
	"encoding/json"

	"family-llm/internal/domain"
)

// ExtractedFields es el lote de campos reconocidos de una extraccion.
// Cada campo es opcional: nil significa "el extractor no lo menciono".
type ExtractedFields struct {
	Age                    *int                     `json:"age,omitempty"`
	Gender                 *string                  `json:"gender,omitempty"`
	IncomeRange            *string                  `json:"income_range,omitempty"`
	Location               *string                  `json:"location,omitempty"`
	RelationshipStatus     *string                  `json:"relationship_status,omitempty"`
	Interests              []string                 `json:"interests,omitempty"`
	WorkStyle              *string                  `json:"work_style,omitempty"`
	FutureCareer           *string                  `json:"future_career,omitempty"`
	Lifestyle              map[string]string        `json:"lifestyle,omitempty"`
	CurrentPartner         *domain.PartnerRecord    `json:"current_partner,omitempty"`
	IdealPartner           *domain.PartnerRecord    `json:"ideal_partner,omitempty"`
	PartnerFaceDescription *string                  `json:"partner_face_description,omitempty"`
	UserPersonalityTraits  *domain.BigFiveTraits    `json:"user_personality_traits,omitempty"`
	ChildrenInfo           []domain.ChildPreference `json:"children_info,omitempty"`
}

// IsEmpty indica que la extraccion no aporto ningun campo.
func (e *ExtractedFields) IsEmpty() bool {
	return e.Age == nil && e.Gender == nil && e.IncomeRange == nil &&
		e.Location == nil && e.RelationshipStatus == nil &&
		len(e.Interests) == 0 && e.WorkStyle == nil && e.FutureCareer == nil &&
		len(e.Lifestyle) == 0 && e.CurrentPartner == nil && e.IdealPartner == nil &&
		e.PartnerFaceDescription == nil && e.UserPersonalityTraits == nil &&
		len(e.ChildrenInfo) == 0
}

// ExtractionResult distingue "payload reconocido" de "payload invalido" sin
// lanzar errores a traves de los turnos: validar-y-descartar, nunca coercionar.
type ExtractionResult struct {
	Fields      ExtractedFields
	Dropped     []string
	ParseFailed bool
}

// parseExtraction valida campo por campo un objeto de extraccion crudo.
// Un campo con forma incorrecta (un string donde iba un objeto de rasgos,
// por ejemplo) se descarta y se reporta en Dropped; el resto del lote se
// conserva. Si el objeto entero no es JSON valido, ParseFailed queda en true
// y no se aplica nada.
func parseExtraction(raw json.RawMessage) ExtractionResult {
	if len(raw) == 0 {
		return ExtractionResult{}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ExtractionResult{ParseFailed: true}
	}

	result := ExtractionResult{}
	for key, value := range fields {
		if string(value) == "null" {
			continue
		}
		if !decodeField(key, value, &result.Fields) {
			result.Dropped = append(result.Dropped, key)
		}
	}
	return result
}

// decodeField intenta decodificar value en el campo tipado que corresponde a
// key. Devuelve false ante una forma incompatible. Claves desconocidas se
// ignoran en silencio (true) para tolerar extractores charlatanes.
func decodeField(key string, value json.RawMessage, out *ExtractedFields) bool {
	switch key {
	case "age":
		return json.Unmarshal(value, &out.Age) == nil
	case "gender":
		return json.Unmarshal(value, &out.Gender) == nil
	case "income_range":
		return json.Unmarshal(value, &out.IncomeRange) == nil
	case "location":
		return json.Unmarshal(value, &out.Location) == nil
	case "relationship_status":
		return json.Unmarshal(value, &out.RelationshipStatus) == nil
	case "interests":
		return json.Unmarshal(value, &out.Interests) == nil
	case "work_style":
		return json.Unmarshal(value, &out.WorkStyle) == nil
	case "future_career":
		return json.Unmarshal(value, &out.FutureCareer) == nil
	case "lifestyle":
		return json.Unmarshal(value, &out.Lifestyle) == nil
	case "current_partner":
		return json.Unmarshal(value, &out.CurrentPartner) == nil
	case "ideal_partner":
		return json.Unmarshal(value, &out.IdealPartner) == nil
	case "partner_face_description":
		return json.Unmarshal(value, &out.PartnerFaceDescription) == nil
	case "user_personality_traits":
		return json.Unmarshal(value, &out.UserPersonalityTraits) == nil
	case "children_info":
		return json.Unmarshal(value, &out.ChildrenInfo) == nil
	}
	return true
}

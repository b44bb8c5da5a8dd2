package intake

import (
	"strings"

	"family-llm/internal/domain"
)

// Campos base requeridos, en orden de tabla. El orden es parte del contrato:
// MissingFields los reporta siempre en esta secuencia.
var baseRequiredFields = []string{
	"age",
	"gender",
	"relationship_status",
	"location",
	"income_range",
	"user_personality_traits",
	"partner_face_description",
	"children_info",
}

// Tabla condicional por estado de relacion. Un estado sin entrada no agrega
// requisitos extra.
var relationshipRequiredFields = map[string][]string{
	domain.RelationshipMarried:   {"current_partner"},
	domain.RelationshipPartnered: {"current_partner"},
	domain.RelationshipSingle:    {"ideal_partner"},
	domain.RelationshipOther:     {"ideal_partner"},
}

// Minimo de dimensiones Big Five para considerar presentes los rasgos.
// Relajado a proposito: la extraccion es ruidosa y exigir las cinco
// dimensiones alargaba las conversaciones sin mejorar los resultados.
const minPersonalityTraits = 2

// MissingFields recalcula los campos requeridos que siguen incompletos.
// Es pura: se deriva siempre del perfil vivo y nunca se cachea, porque
// relationship_status puede cambiar a mitad de conversacion y con el la
// tabla condicional activa.
func MissingFields(profile *domain.UserProfile) []string {
	missing := make([]string, 0, len(baseRequiredFields)+1)

	for _, field := range baseRequiredFields {
		if !fieldIsComplete(profile, field) {
			missing = append(missing, field)
		}
	}

	for _, field := range relationshipRequiredFields[profile.RelationshipStatus] {
		if !fieldIsComplete(profile, field) {
			missing = append(missing, field)
		}
	}

	return missing
}

// IsComplete indica que ningun campo requerido falta.
func IsComplete(profile *domain.UserProfile) bool {
	return len(MissingFields(profile)) == 0
}

func fieldIsComplete(profile *domain.UserProfile, field string) bool {
	switch field {
	case "age":
		return profile.Age != nil
	case "gender":
		return strings.TrimSpace(profile.Gender) != ""
	case "relationship_status":
		return strings.TrimSpace(profile.RelationshipStatus) != ""
	case "location":
		return strings.TrimSpace(profile.Location) != ""
	case "income_range":
		return strings.TrimSpace(profile.IncomeRange) != ""
	case "user_personality_traits":
		return personalityIsComplete(profile.UserPersonalityTraits)
	case "partner_face_description":
		return strings.TrimSpace(profile.PartnerFaceDescription) != ""
	case "children_info":
		return childrenAreComplete(profile.ChildrenInfo)
	case "current_partner":
		return partnerIsComplete(profile.CurrentPartner)
	case "ideal_partner":
		return partnerIsComplete(profile.IdealPartner)
	}
	return false
}

func personalityIsComplete(traits *domain.BigFiveTraits) bool {
	return traits.FilledCount() >= minPersonalityTraits
}

// partnerIsComplete exige nombre, temperamento y al menos un sinonimo de
// apariencia informado.
func partnerIsComplete(partner *domain.PartnerRecord) bool {
	if partner == nil {
		return false
	}
	if strings.TrimSpace(partner.Name) == "" {
		return false
	}
	if strings.TrimSpace(partner.Temperament) == "" {
		return false
	}
	return strings.TrimSpace(partner.AppearanceText()) != ""
}

// childrenAreComplete acepta la lista cuando al menos una entrada tiene
// sexo deseado y nombre.
func childrenAreComplete(children []domain.ChildPreference) bool {
	for _, child := range children {
		if strings.TrimSpace(child.DesiredGender) != "" && strings.TrimSpace(child.Name) != "" {
			return true
		}
	}
	return false
}

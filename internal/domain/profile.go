package domain

import (
	"strings"
	"time"
)

// Estados de relacion reconocidos por la tabla de requisitos condicionales.
const (
	RelationshipMarried   = "married"
	RelationshipPartnered = "partnered"
	RelationshipSingle    = "single"
	RelationshipOther     = "other"
)

// BigFiveTraits modela las cinco dimensiones de personalidad en escala 0.0-1.0.
// Cada dimension es opcional: el extractor puede devolver solo algunas.
type BigFiveTraits struct {
	Openness          *float64 `json:"openness,omitempty"`
	Conscientiousness *float64 `json:"conscientiousness,omitempty"`
	Extraversion      *float64 `json:"extraversion,omitempty"`
	Agreeableness     *float64 `json:"agreeableness,omitempty"`
	Neuroticism       *float64 `json:"neuroticism,omitempty"`
}

// FilledCount devuelve cuantas dimensiones tienen valor.
func (t *BigFiveTraits) FilledCount() int {
	if t == nil {
		return 0
	}
	count := 0
	for _, dim := range []*float64{t.Openness, t.Conscientiousness, t.Extraversion, t.Agreeableness, t.Neuroticism} {
		if dim != nil {
			count++
		}
	}
	return count
}

// IsEmpty indica que ninguna dimension fue informada.
func (t *BigFiveTraits) IsEmpty() bool {
	return t.FilledCount() == 0
}

// PartnerRecord describe a la pareja actual o ideal. La apariencia acepta
// tres claves sinonimas porque el extractor no es consistente entre turnos.
type PartnerRecord struct {
	Name            string         `json:"name,omitempty"`
	Age             *int           `json:"age,omitempty"`
	Temperament     string         `json:"temperament,omitempty"`
	Appearance      string         `json:"appearance,omitempty"`
	FaceDescription string         `json:"face_description,omitempty"`
	VisualTraits    string         `json:"visual_traits,omitempty"`
	Traits          *BigFiveTraits `json:"personality_traits,omitempty"`
	Hobbies         []string       `json:"hobbies,omitempty"`
	SpeakingStyle   string         `json:"speaking_style,omitempty"`
}

// AppearanceText devuelve la primera clave de apariencia no vacia.
func (p *PartnerRecord) AppearanceText() string {
	if p == nil {
		return ""
	}
	for _, v := range []string{p.Appearance, p.FaceDescription, p.VisualTraits} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// IsEmpty indica que el registro no aporta ningun dato.
func (p *PartnerRecord) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.Name == "" && p.Age == nil && p.Temperament == "" &&
		p.AppearanceText() == "" && p.Traits.IsEmpty() &&
		len(p.Hobbies) == 0 && p.SpeakingStyle == ""
}

// ChildPreference es una entrada de la lista children_info.
type ChildPreference struct {
	DesiredGender string `json:"desired_gender,omitempty"`
	Name          string `json:"name,omitempty"`
	Age           *int   `json:"age,omitempty"`
	Hobby         string `json:"hobby,omitempty"`
}

// UserProfile es el registro canonico de datos recolectados durante el intake.
// Solo el motor de merge lo muta; el evaluador de completitud solo lo lee.
type UserProfile struct {
	Age                    *int               `json:"age,omitempty"`
	Gender                 string             `json:"gender,omitempty"`
	IncomeRange            string             `json:"income_range,omitempty"`
	Location               string             `json:"location,omitempty"`
	RelationshipStatus     string             `json:"relationship_status,omitempty"`
	Interests              []string           `json:"interests,omitempty"`
	WorkStyle              string             `json:"work_style,omitempty"`
	FutureCareer           string             `json:"future_career,omitempty"`
	Lifestyle              map[string]string  `json:"lifestyle,omitempty"`
	CurrentPartner         *PartnerRecord     `json:"current_partner,omitempty"`
	IdealPartner           *PartnerRecord     `json:"ideal_partner,omitempty"`
	PartnerFaceDescription string             `json:"partner_face_description,omitempty"`
	UserPersonalityTraits  *BigFiveTraits     `json:"user_personality_traits,omitempty"`
	ChildrenInfo           []ChildPreference  `json:"children_info,omitempty"`
	CreatedAt              *time.Time         `json:"created_at,omitempty"`
}

// ActivePartner devuelve el registro de pareja que aplica segun el estado de
// relacion actual, o nil si todavia no hay ninguno.
func (p *UserProfile) ActivePartner() *PartnerRecord {
	switch p.RelationshipStatus {
	case RelationshipMarried, RelationshipPartnered:
		return p.CurrentPartner
	case RelationshipSingle, RelationshipOther:
		return p.IdealPartner
	}
	if p.CurrentPartner != nil {
		return p.CurrentPartner
	}
	return p.IdealPartner
}

// IsEmpty indica que el perfil todavia no recibio ningun campo.
func (p *UserProfile) IsEmpty() bool {
	return p.Age == nil && p.Gender == "" && p.IncomeRange == "" &&
		p.Location == "" && p.RelationshipStatus == "" &&
		len(p.Interests) == 0 && p.WorkStyle == "" && p.FutureCareer == "" &&
		len(p.Lifestyle) == 0 && p.CurrentPartner.IsEmpty() &&
		p.IdealPartner.IsEmpty() && p.PartnerFaceDescription == "" &&
		p.UserPersonalityTraits.IsEmpty() && len(p.ChildrenInfo) == 0
}

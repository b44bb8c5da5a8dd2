package family

import (
	"fmt"
	"math/rand"
	"strings"

	"family-llm/internal/domain"
)

// Nombres por defecto cuando el usuario pidio un hijo pero no eligio nombre.
var defaultChildNames = map[string][]string{
	"女": {"さくら", "ゆい", "はな", "あおい"},
	"男": {"ゆう", "そうた", "はると", "りく"},
}

const (
	defaultPartnerName  = "未来のパートナー"
	defaultPartnerStyle = "落ち着いた優しい口調"
	defaultPartnerGoals = "家族の夢を一緒に叶える"
	defaultChildGoals   = "家族みんなで楽しい思い出を作る"
	rolePartner         = "パートナー"
)

// PersonaFactory construye las personas de la familia futura a partir del
// perfil completo: la pareja activa y un hijo por cada preferencia declarada.
type PersonaFactory struct {
	calc *PersonalityCalculator
	rng  *rand.Rand
}

func NewPersonaFactory(profile *domain.UserProfile, rng *rand.Rand) *PersonaFactory {
	var partnerTraits *domain.BigFiveTraits
	if partner := profile.ActivePartner(); partner != nil {
		partnerTraits = partner.Traits
	}
	return &PersonaFactory{
		calc: NewPersonalityCalculator(profile.UserPersonalityTraits, partnerTraits, rng),
		rng:  rng,
	}
}

// BuildFamily arma la lista completa de personas. La pareja va primero: es
// quien propone el plan en la conversacion familiar.
func (f *PersonaFactory) BuildFamily(profile *domain.UserProfile) []domain.Persona {
	personas := []domain.Persona{f.BuildPartner(profile)}
	personas = append(personas, f.BuildChildren(profile)...)
	return personas
}

// BuildPartner arma la persona de la pareja desde el registro activo segun el
// estado de relacion, con valores por defecto cuando el registro esta vacio.
func (f *PersonaFactory) BuildPartner(profile *domain.UserProfile) domain.Persona {
	persona := domain.Persona{
		Name:          defaultPartnerName,
		Role:          rolePartner,
		SpeakingStyle: defaultPartnerStyle,
		Goals:         defaultPartnerGoals,
		Traits:        []string{"共感的", "思いやり", "支えになりたい"},
	}

	partner := profile.ActivePartner()
	if partner == nil {
		return persona
	}

	if name := strings.TrimSpace(partner.Name); name != "" {
		persona.Name = name
	}
	if style := strings.TrimSpace(partner.SpeakingStyle); style != "" {
		persona.SpeakingStyle = style
	}
	if traits := traitsFromBigFive(partner.Traits); len(traits) > 0 {
		persona.Traits = traits
	}
	if temperament := strings.TrimSpace(partner.Temperament); temperament != "" {
		persona.Background = temperament
	}
	if appearance := partner.AppearanceText(); appearance != "" {
		if persona.Background != "" {
			persona.Background += "。"
		}
		persona.Background += "外見: " + appearance
	}

	return persona
}

// BuildChildren arma un hijo por cada preferencia. Los rasgos se derivan de
// ambos padres y varian con el orden de nacimiento.
func (f *PersonaFactory) BuildChildren(profile *domain.UserProfile) []domain.Persona {
	personas := make([]domain.Persona, 0, len(profile.ChildrenInfo))
	for i, child := range profile.ChildrenInfo {
		traits := f.calc.CalculateChildTraits(i)

		persona := domain.Persona{
			Name:          f.childName(child, i),
			Role:          childRole(child.DesiredGender),
			SpeakingStyle: speakingStyleFor(traits),
			Traits:        describeTraits(traits),
			Goals:         defaultChildGoals,
		}
		if hobby := strings.TrimSpace(child.Hobby); hobby != "" {
			persona.Background = "趣味は" + hobby
		}
		personas = append(personas, persona)
	}
	return personas
}

func (f *PersonaFactory) childName(child domain.ChildPreference, index int) string {
	if name := strings.TrimSpace(child.Name); name != "" {
		return name
	}
	names, ok := defaultChildNames[strings.TrimSpace(child.DesiredGender)]
	if !ok {
		names = defaultChildNames["女"]
	}
	if f.rng != nil {
		return names[f.rng.Intn(len(names))]
	}
	return names[index%len(names)]
}

func childRole(desiredGender string) string {
	switch strings.TrimSpace(desiredGender) {
	case "男":
		return "息子"
	case "女":
		return "娘"
	default:
		return "子ども"
	}
}

// describeTraits traduce los valores numericos a descriptores breves en el
// idioma de la conversacion. Los rasgos altos se nombran, el resto se omite.
func describeTraits(t ChildTraits) []string {
	var traits []string
	if t.Openness > 0.6 {
		traits = append(traits, "好奇心旺盛")
	}
	if t.Conscientiousness > 0.6 {
		traits = append(traits, "しっかり者")
	}
	if t.Extraversion > 0.6 {
		traits = append(traits, "元気いっぱい")
	}
	if t.Agreeableness > 0.6 {
		traits = append(traits, "思いやりがある")
	}
	if t.Neuroticism < 0.4 {
		traits = append(traits, "楽観的")
	}
	if len(traits) == 0 {
		traits = []string{"明るい", "優しい"}
	}
	return traits
}

func speakingStyleFor(t ChildTraits) string {
	switch {
	case t.Extraversion > 0.6:
		return "元気で活発な口調"
	case t.Conscientiousness > 0.6:
		return "しっかりした落ち着いた口調"
	default:
		return "優しく素直な口調"
	}
}

// traitsFromBigFive hace lo mismo para la pareja adulta, con descriptores de
// adulto.
func traitsFromBigFive(big5 *domain.BigFiveTraits) []string {
	if big5 == nil || big5.IsEmpty() {
		return nil
	}
	value := func(dim *float64) float64 {
		if dim == nil {
			return 0.5
		}
		return *dim
	}

	var traits []string
	if value(big5.Openness) > 0.6 {
		traits = append(traits, "好奇心旺盛")
	}
	if value(big5.Conscientiousness) > 0.6 {
		traits = append(traits, "しっかり者")
	}
	if value(big5.Extraversion) > 0.6 {
		traits = append(traits, "社交的")
	}
	if value(big5.Agreeableness) > 0.6 {
		traits = append(traits, "思いやりがある")
	}
	if value(big5.Neuroticism) < 0.4 {
		traits = append(traits, "楽観的")
	}
	if len(traits) == 0 {
		traits = []string{"優しい", "明るい"}
	}
	return traits
}

// Describe produce una linea legible de la persona para logs y prompts.
func Describe(p domain.Persona) string {
	return fmt.Sprintf("%s（%s）: %s / %s", p.Name, p.Role, strings.Join(p.Traits, "、"), p.SpeakingStyle)
}

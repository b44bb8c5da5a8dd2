package family

import (
	"math/rand"

	"family-llm/internal/domain"
)

// Heredabilidad por rasgo, estimaciones de estudios de gemelos
// (Bouchard & McGue 2003; Polderman et al. 2015).
var heritability = map[string]float64{
	"openness":          0.57,
	"conscientiousness": 0.49,
	"extraversion":      0.54,
	"agreeableness":     0.42,
	"neuroticism":       0.48,
}

// Peso del factor ambiental (la varianza restante).
var environmentFactor = map[string]float64{
	"openness":          0.43,
	"conscientiousness": 0.51,
	"extraversion":      0.46,
	"agreeableness":     0.58,
	"neuroticism":       0.52,
}

// Ajustes por orden de nacimiento (Sulloway 1996): el primogenito mas
// concienzudo, los siguientes mas abiertos y extravertidos.
func birthOrderAdjustment(trait string, childIndex int) float64 {
	var adjustments map[string]float64
	switch {
	case childIndex == 0:
		adjustments = map[string]float64{
			"conscientiousness": 0.05,
			"agreeableness":     0.03,
			"extraversion":      -0.02,
			"openness":          -0.02,
			"neuroticism":       0.01,
		}
	case childIndex == 1:
		adjustments = map[string]float64{
			"conscientiousness": -0.03,
			"agreeableness":     0.02,
			"extraversion":      0.04,
			"openness":          0.05,
			"neuroticism":       -0.01,
		}
	default:
		adjustments = map[string]float64{
			"conscientiousness": -0.04,
			"agreeableness":     0.04,
			"extraversion":      0.05,
			"openness":          0.06,
			"neuroticism":       -0.02,
		}
	}
	return adjustments[trait]
}

// ChildTraits son las cinco dimensiones calculadas para un hijo, siempre
// completas y acotadas a [0,1].
type ChildTraits struct {
	Openness          float64
	Conscientiousness float64
	Extraversion      float64
	Agreeableness     float64
	Neuroticism       float64
}

// PersonalityCalculator estima la personalidad de los hijos a partir de los
// rasgos de ambos padres. El RNG se inyecta para que los tests sean
// reproducibles.
type PersonalityCalculator struct {
	user    *domain.BigFiveTraits
	partner *domain.BigFiveTraits
	rng     *rand.Rand
}

func NewPersonalityCalculator(user, partner *domain.BigFiveTraits, rng *rand.Rand) *PersonalityCalculator {
	return &PersonalityCalculator{user: user, partner: partner, rng: rng}
}

// CalculateChildTraits combina componente genetico (promedio parental por
// heredabilidad), ruido ambiental gaussiano y ajuste por orden de nacimiento.
func (c *PersonalityCalculator) CalculateChildTraits(childIndex int) ChildTraits {
	value := func(trait string) float64 {
		parentAvg := (dimension(c.user, trait) + dimension(c.partner, trait)) / 2
		genetic := parentAvg * heritability[trait]

		noise := 0.5
		if c.rng != nil {
			noise = c.rng.NormFloat64()*0.15 + 0.5
		}
		environmental := noise * environmentFactor[trait]

		return clamp(genetic + environmental + birthOrderAdjustment(trait, childIndex))
	}

	return ChildTraits{
		Openness:          value("openness"),
		Conscientiousness: value("conscientiousness"),
		Extraversion:      value("extraversion"),
		Agreeableness:     value("agreeableness"),
		Neuroticism:       value("neuroticism"),
	}
}

// dimension devuelve el valor del rasgo o 0.5 (neutro) si no fue informado.
func dimension(traits *domain.BigFiveTraits, name string) float64 {
	if traits == nil {
		return 0.5
	}
	var dim *float64
	switch name {
	case "openness":
		dim = traits.Openness
	case "conscientiousness":
		dim = traits.Conscientiousness
	case "extraversion":
		dim = traits.Extraversion
	case "agreeableness":
		dim = traits.Agreeableness
	case "neuroticism":
		dim = traits.Neuroticism
	}
	if dim == nil {
		return 0.5
	}
	return *dim
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package family

import (
	"math/rand"
	"testing"

	"family-llm/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func fullTraits(v float64) *domain.BigFiveTraits {
	return &domain.BigFiveTraits{
		Openness:          floatPtr(v),
		Conscientiousness: floatPtr(v),
		Extraversion:      floatPtr(v),
		Agreeableness:     floatPtr(v),
		Neuroticism:       floatPtr(v),
	}
}

func TestCalculateChildTraits(t *testing.T) {
	t.Run("es determinista con el mismo seed", func(t *testing.T) {
		user := fullTraits(0.7)
		partner := fullTraits(0.5)

		first := NewPersonalityCalculator(user, partner, rand.New(rand.NewSource(42))).CalculateChildTraits(0)
		second := NewPersonalityCalculator(user, partner, rand.New(rand.NewSource(42))).CalculateChildTraits(0)

		if first != second {
			t.Fatalf("resultados distintos: %+v vs %+v", first, second)
		}
	})

	t.Run("siempre acotado a 0..1", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		calc := NewPersonalityCalculator(fullTraits(1.0), fullTraits(1.0), rng)

		for childIndex := 0; childIndex < 5; childIndex++ {
			traits := calc.CalculateChildTraits(childIndex)
			for _, v := range []float64{traits.Openness, traits.Conscientiousness, traits.Extraversion, traits.Agreeableness, traits.Neuroticism} {
				if v < 0 || v > 1 {
					t.Fatalf("valor fuera de rango: %v", v)
				}
			}
		}
	})

	t.Run("padres desconocidos usan el neutro", func(t *testing.T) {
		// Sin RNG el ruido ambiental queda en su media y el resultado es
		// directamente verificable.
		calc := NewPersonalityCalculator(nil, nil, nil)
		traits := calc.CalculateChildTraits(0)

		// 0.5*0.57 + 0.5*0.43 - 0.02 para openness del primogenito.
		want := 0.5*0.57 + 0.5*0.43 - 0.02
		if diff := traits.Openness - want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("openness=%v, esperaba %v", traits.Openness, want)
		}
	})

	t.Run("el orden de nacimiento ajusta los rasgos", func(t *testing.T) {
		calc := NewPersonalityCalculator(fullTraits(0.5), fullTraits(0.5), nil)

		first := calc.CalculateChildTraits(0)
		second := calc.CalculateChildTraits(1)
		third := calc.CalculateChildTraits(2)

		// El primogenito es el mas concienzudo, los siguientes mas abiertos.
		if !(first.Conscientiousness > second.Conscientiousness) {
			t.Fatalf("conscientiousness: %v vs %v", first.Conscientiousness, second.Conscientiousness)
		}
		if !(third.Openness > second.Openness && second.Openness > first.Openness) {
			t.Fatalf("openness: %v, %v, %v", first.Openness, second.Openness, third.Openness)
		}
	})
}

func TestDimensionDefaults(t *testing.T) {
	partial := &domain.BigFiveTraits{Openness: floatPtr(0.9)}

	if got := dimension(partial, "openness"); got != 0.9 {
		t.Fatalf("esperaba 0.9, obtuve %v", got)
	}
	if got := dimension(partial, "neuroticism"); got != 0.5 {
		t.Fatalf("dimension faltante deberia ser neutra, obtuve %v", got)
	}
	if got := dimension(nil, "openness"); got != 0.5 {
		t.Fatalf("sin rasgos deberia ser neutro, obtuve %v", got)
	}
}

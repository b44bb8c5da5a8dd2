package intake

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"family-llm/internal/domain"
)

func mergeRaw(t *testing.T, profile *domain.UserProfile, rawJSON string, userTurns ...string) ExtractionResult {
	t.Helper()
	result := parseExtraction(json.RawMessage(rawJSON))
	NewMergeEngine(nil).Merge(profile, result, userTurns, time.Now())
	return result
}

func TestMergeAppliesFields(t *testing.T) {
	profile := &domain.UserProfile{}
	mergeRaw(t, profile, `{"age": 30, "gender": "男性", "location": "東京"}`)

	if profile.Age == nil || *profile.Age != 30 {
		t.Fatalf("age no aplicado: %+v", profile.Age)
	}
	if profile.Gender != "男性" || profile.Location != "東京" {
		t.Fatalf("campos no aplicados: %+v", profile)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	raw := `{"age": 28, "relationship_status": "single",
		"ideal_partner": {"name": "みゆき", "temperament": "おおらか", "appearance": "黒髪"},
		"children_info": [{"desired_gender": "女", "name": "えり"}]}`

	first := &domain.UserProfile{}
	mergeRaw(t, first, raw)
	snapshot, _ := json.Marshal(first)

	mergeRaw(t, first, raw)
	again, _ := json.Marshal(first)

	if string(snapshot) != string(again) {
		t.Fatalf("merge repetido cambio el perfil:\n%s\nvs\n%s", snapshot, again)
	}
}

func TestMergeDropsWrongShapes(t *testing.T) {
	profile := &domain.UserProfile{}
	result := mergeRaw(t, profile, `{"children_info": "女の子一人", "gender": "女性"}`)

	if !contains(result.Dropped, "children_info") {
		t.Fatalf("esperaba children_info descartado, Dropped=%v", result.Dropped)
	}
	if len(profile.ChildrenInfo) != 0 {
		t.Fatalf("children_info corrupto: %+v", profile.ChildrenInfo)
	}
	// El resto del lote se conserva.
	if profile.Gender != "女性" {
		t.Fatalf("gender perdido: %q", profile.Gender)
	}
}

func TestMergeSkipsOnParseFailure(t *testing.T) {
	profile := &domain.UserProfile{Gender: "男性"}
	result := parseExtraction(json.RawMessage(`"no soy un objeto"`))
	if !result.ParseFailed {
		t.Fatal("esperaba ParseFailed")
	}

	before, _ := json.Marshal(profile)
	NewMergeEngine(nil).Merge(profile, result, nil, time.Now())
	after, _ := json.Marshal(profile)

	if string(before) != string(after) {
		t.Fatal("el perfil cambio pese al fallo de parseo")
	}
}

func TestMergeNeverOverwritesWithEmpty(t *testing.T) {
	profile := &domain.UserProfile{Gender: "女性", Location: "大阪"}
	mergeRaw(t, profile, `{"gender": "", "location": "   "}`)

	if profile.Gender != "女性" || profile.Location != "大阪" {
		t.Fatalf("valores pisados por vacios: %+v", profile)
	}
}

func TestAppearanceBackfill(t *testing.T) {
	t.Run("copia al registro activo sin apariencia", func(t *testing.T) {
		profile := &domain.UserProfile{
			RelationshipStatus: domain.RelationshipSingle,
			IdealPartner:       &domain.PartnerRecord{Name: "みゆき", Temperament: "おおらか"},
		}
		mergeRaw(t, profile, `{"partner_face_description": "優しい笑顔"}`)

		if profile.IdealPartner.Appearance != "優しい笑顔" {
			t.Fatalf("apariencia no copiada: %+v", profile.IdealPartner)
		}
	})

	t.Run("nunca pisa una apariencia existente", func(t *testing.T) {
		profile := &domain.UserProfile{
			RelationshipStatus: domain.RelationshipMarried,
			CurrentPartner:     &domain.PartnerRecord{Name: "はな", FaceDescription: "丸顔"},
		}
		mergeRaw(t, profile, `{"partner_face_description": "優しい笑顔"}`)

		if profile.CurrentPartner.FaceDescription != "丸顔" || profile.CurrentPartner.Appearance != "" {
			t.Fatalf("apariencia pisada: %+v", profile.CurrentPartner)
		}
	})
}

func TestTextBackfill(t *testing.T) {
	t.Run("ingreso anual desde el texto", func(t *testing.T) {
		profile := &domain.UserProfile{}
		mergeRaw(t, profile, `{}`, "年収500万円です")

		if profile.IncomeRange != "500万円" {
			t.Fatalf("esperaba 500万円, obtuve %q", profile.IncomeRange)
		}
	})

	t.Run("normaliza digitos de ancho completo", func(t *testing.T) {
		profile := &domain.UserProfile{}
		mergeRaw(t, profile, `{}`, "年収は６００万円くらいです")

		if profile.IncomeRange != "600万円" {
			t.Fatalf("esperaba 600万円, obtuve %q", profile.IncomeRange)
		}
	})

	t.Run("genero por auto-identificacion", func(t *testing.T) {
		profile := &domain.UserProfile{}
		mergeRaw(t, profile, `{}`, "僕は男です。よろしく")

		if profile.Gender != "男性" {
			t.Fatalf("esperaba 男性, obtuve %q", profile.Gender)
		}
	})

	t.Run("escanea todos los turnos, no solo el ultimo", func(t *testing.T) {
		profile := &domain.UserProfile{}
		mergeRaw(t, profile, `{}`, "私は女性です", "東京に住んでいます")

		if profile.Gender != "女性" {
			t.Fatalf("esperaba 女性, obtuve %q", profile.Gender)
		}
	})

	t.Run("nunca pisa valores presentes", func(t *testing.T) {
		profile := &domain.UserProfile{Gender: "女性", IncomeRange: "800万円"}
		mergeRaw(t, profile, `{}`, "俺は男です。年収300万円です")

		if profile.Gender != "女性" || profile.IncomeRange != "800万円" {
			t.Fatalf("backfill piso valores: %+v", profile)
		}
	})
}

func TestCreatedAtSetOnce(t *testing.T) {
	profile := &domain.UserProfile{}
	engine := NewMergeEngine(nil)

	// Un lote vacio sobre un perfil vacio no fija created_at.
	engine.Merge(profile, ExtractionResult{}, nil, time.Now())
	if profile.CreatedAt != nil {
		t.Fatal("created_at fijado sobre perfil vacio")
	}

	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	result := parseExtraction(json.RawMessage(`{"gender": "男性"}`))
	engine.Merge(profile, result, nil, first)
	if profile.CreatedAt == nil || !profile.CreatedAt.Equal(first) {
		t.Fatalf("created_at no fijado: %v", profile.CreatedAt)
	}

	later := first.Add(48 * time.Hour)
	engine.Merge(profile, result, nil, later)
	if !profile.CreatedAt.Equal(first) {
		t.Fatalf("created_at cambio: %v", profile.CreatedAt)
	}
}

func TestParseExtraction(t *testing.T) {
	t.Run("payload vacio no es fallo", func(t *testing.T) {
		result := parseExtraction(nil)
		if result.ParseFailed || len(result.Dropped) != 0 {
			t.Fatalf("resultado inesperado: %+v", result)
		}
	})

	t.Run("valores null se ignoran", func(t *testing.T) {
		result := parseExtraction(json.RawMessage(`{"gender": null, "age": 25}`))
		if result.Fields.Gender != nil {
			t.Fatal("gender deberia seguir nil")
		}
		if result.Fields.Age == nil || *result.Fields.Age != 25 {
			t.Fatalf("age no decodificado: %+v", result.Fields.Age)
		}
	})

	t.Run("claves desconocidas se ignoran sin descartar", func(t *testing.T) {
		result := parseExtraction(json.RawMessage(`{"favorite_color": "azul"}`))
		if len(result.Dropped) != 0 {
			t.Fatalf("Dropped inesperado: %v", result.Dropped)
		}
	})

	t.Run("rasgos como texto se descartan", func(t *testing.T) {
		result := parseExtraction(json.RawMessage(`{"user_personality_traits": "明るい人"}`))
		if !reflect.DeepEqual(result.Dropped, []string{"user_personality_traits"}) {
			t.Fatalf("Dropped inesperado: %v", result.Dropped)
		}
		if result.Fields.UserPersonalityTraits != nil {
			t.Fatal("rasgos no deberian decodificarse")
		}
	})
}

package app

import (
	"context"
	"errors"
	"testing"

	"family-llm/internal/domain"
	"family-llm/internal/intake"
	"family-llm/internal/llm"
	"family-llm/internal/store"
	"family-llm/internal/trip"
)

// Respuesta de intake que completa el perfil en un solo turno.
const completingIntakeResponse = `{
	"message": "ありがとうございます！",
	"extracted_info": {
		"age": 30,
		"gender": "男性",
		"relationship_status": "single",
		"location": "東京",
		"income_range": "500万円",
		"user_personality_traits": {"openness": 0.7, "extraversion": 0.6},
		"partner_face_description": "優しい笑顔",
		"ideal_partner": {"name": "みゆき", "temperament": "おおらか", "appearance": "黒髪"},
		"children_info": [{"desired_gender": "女", "name": "えり"}]
	},
	"is_complete": true,
	"completion_message": "全部揃いました！"
}`

func newTestManager(mock *llm.MockClient) (*Manager, store.SessionStore) {
	sessions := store.NewMemoryStore()
	intakeSvc := intake.NewService(mock, sessions, nil)
	executor := trip.NewTurnExecutor(mock, nil)
	summaryGen := trip.NewLLMSummaryGenerator(mock, nil)
	orchestrator := trip.NewOrchestrator(executor, summaryGen, sessions, nil)
	return NewManager(intakeSvc, orchestrator, sessions, nil), sessions
}

func completedProfile() *domain.UserProfile {
	age := 30
	o, e := 0.7, 0.6
	return &domain.UserProfile{
		Age:                    &age,
		Gender:                 "男性",
		RelationshipStatus:     domain.RelationshipSingle,
		Location:               "東京",
		IncomeRange:            "500万円",
		PartnerFaceDescription: "優しい笑顔",
		UserPersonalityTraits:  &domain.BigFiveTraits{Openness: &o, Extraversion: &e},
		IdealPartner:           &domain.PartnerRecord{Name: "みゆき", Temperament: "おおらか", Appearance: "黒髪"},
		ChildrenInfo:           []domain.ChildPreference{{DesiredGender: "女", Name: "えり"}},
	}
}

func TestManagerHandsOffToFamilyPhase(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{
		completingIntakeResponse,
		`{"message": "海はどうかな？"}`,
		`{"message": "わーい、海！"}`,
	}}
	m, _ := newTestManager(mock)
	ctx := context.Background()

	phase, err := m.Start(ctx, "s1", "u1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if phase != PhaseIntake {
		t.Fatalf("fase inicial inesperada: %s", phase)
	}

	outcome, err := m.Message(ctx, "s1", "僕は30歳、東京在住の男です")
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	if outcome.Phase != PhaseIntake || outcome.Intake == nil || !outcome.Intake.Completed {
		t.Fatalf("esperaba cierre del intake: %+v", outcome)
	}

	// El hand-off ya armo la familia: pareja primero, luego la hija.
	personas := m.Personas("s1")
	if len(personas) != 2 {
		t.Fatalf("personas inesperadas: %d", len(personas))
	}
	if personas[0].Name != "みゆき" || personas[1].Name != "えり" {
		t.Fatalf("orden inesperado: %s, %s", personas[0].Name, personas[1].Name)
	}

	outcome, err = m.Message(ctx, "s1", "どこ行く？")
	if err != nil {
		t.Fatalf("Message familiar: %v", err)
	}
	if outcome.Phase != PhaseFamily || len(outcome.Replies) != 2 {
		t.Fatalf("esperaba dos respuestas familiares: %+v", outcome)
	}
}

func TestManagerMessageWithoutStart(t *testing.T) {
	m, _ := newTestManager(&llm.MockClient{})

	_, err := m.Message(context.Background(), "desconocida", "hola")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("esperaba ErrNotFound, recibi %v", err)
	}
}

func TestManagerRestoresCompletedSession(t *testing.T) {
	ctx := context.Background()
	sessions := store.NewMemoryStore()
	if err := sessions.Create(ctx, "s1", "u1"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := sessions.SaveProfile(ctx, "s1", completedProfile()); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	plan := &domain.FamilyPlan{Destination: "公園", Activities: []string{"ピクニック"}, Story: "物語", Letter: "手紙"}
	if err := sessions.SavePlan(ctx, "s1", plan); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	mock := &llm.MockClient{Responses: []string{
		`{"message": "また公園に行きたいね"}`,
		`{"message": "うん！"}`,
	}}
	intakeSvc := intake.NewService(mock, sessions, nil)
	executor := trip.NewTurnExecutor(mock, nil)
	summaryGen := trip.NewLLMSummaryGenerator(mock, nil)
	orchestrator := trip.NewOrchestrator(executor, summaryGen, sessions, nil)
	m := NewManager(intakeSvc, orchestrator, sessions, nil)

	phase, err := m.Start(ctx, "s1", "u1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if phase != PhaseFamily {
		t.Fatalf("esperaba fase familiar tras el reinicio, recibi %s", phase)
	}
	if personas := m.Personas("s1"); len(personas) != 2 {
		t.Fatalf("familia no restaurada: %d personas", len(personas))
	}

	// El plan ya cerrado no se vuelve a finalizar: las charlas siguen pero
	// Plan queda nil y el estado congelado.
	outcome, err := m.Message(ctx, "s1", "楽しかったね")
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	if outcome.Phase != PhaseFamily || len(outcome.Replies) != 2 {
		t.Fatalf("esperaba respuestas familiares: %+v", outcome)
	}
	if outcome.Plan != nil {
		t.Fatal("el plan cerrado no deberia regenerarse")
	}
}

package intake

import (
	"context"
	"errors"
	"testing"

	"family-llm/internal/llm"
	"family-llm/internal/store"
)

const completingTurnResponse = `{
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
	"completion_message": "全部揃いました！家族に会いに行きましょう。"
}`

func newTestService(mock *llm.MockClient) (*Service, store.SessionStore) {
	sessions := store.NewMemoryStore()
	return NewService(mock, sessions, nil), sessions
}

func startSession(t *testing.T, svc *Service) *Session {
	t.Helper()
	session, err := svc.StartSession(context.Background(), "s1", "u1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	return session
}

func TestHandleTurnCollecting(t *testing.T) {
	mock := &llm.MockClient{Response: `{"message": "教えてくれてありがとう", "extracted_info": {"age": 30}, "is_complete": false}`}
	svc, _ := newTestService(mock)
	session := startSession(t, svc)

	reply, err := svc.HandleTurn(context.Background(), session, "30歳です")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if reply.Completed {
		t.Fatal("no deberia completarse todavia")
	}
	if reply.Message != "教えてくれてありがとう" {
		t.Fatalf("mensaje inesperado: %q", reply.Message)
	}
	if session.Profile.Age == nil || *session.Profile.Age != 30 {
		t.Fatalf("age no mergeado: %+v", session.Profile.Age)
	}
	if len(reply.MissingFields) == 0 {
		t.Fatal("esperaba campos faltantes")
	}
	// user + guia.
	if len(session.History) != 2 {
		t.Fatalf("historial inesperado: %d entradas", len(session.History))
	}
}

func TestHandleTurnCompletes(t *testing.T) {
	mock := &llm.MockClient{Response: completingTurnResponse}
	svc, sessions := newTestService(mock)

	var handOffs int
	svc.OnComplete = func(ctx context.Context, s *Session) { handOffs++ }

	session := startSession(t, svc)
	reply, err := svc.HandleTurn(context.Background(), session, "僕は30歳、東京在住の男です")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if !reply.Completed {
		t.Fatalf("esperaba sesion completa, faltan %v", MissingFields(&session.Profile))
	}
	if session.State != StateCompleted {
		t.Fatalf("estado inesperado: %s", session.State)
	}
	if reply.Message != "全部揃いました！家族に会いに行きましょう。" {
		t.Fatalf("mensaje de cierre inesperado: %q", reply.Message)
	}
	if handOffs != 1 {
		t.Fatalf("hand-off ejecutado %d veces", handOffs)
	}

	// El perfil final quedo persistido.
	data, err := sessions.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if data.Profile == nil || !IsComplete(data.Profile) {
		t.Fatal("perfil persistido incompleto")
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	mock := &llm.MockClient{Response: completingTurnResponse}
	svc, _ := newTestService(mock)

	var handOffs int
	svc.OnComplete = func(ctx context.Context, s *Session) { handOffs++ }

	session := startSession(t, svc)
	if _, err := svc.HandleTurn(context.Background(), session, "全部話すね"); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	callsAfterComplete := len(mock.Calls)

	reply, err := svc.HandleTurn(context.Background(), session, "もう一度")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if !reply.Completed {
		t.Fatal("turno posterior deberia reportar completado")
	}
	if len(mock.Calls) != callsAfterComplete {
		t.Fatal("turno terminal no debe llamar al LLM")
	}
	if handOffs != 1 {
		t.Fatalf("hand-off ejecutado %d veces", handOffs)
	}
}

func TestAdvisoryFlagNeverWinsAlone(t *testing.T) {
	// El modelo dice completo pero la cuenta derivada no: la sesion sigue.
	mock := &llm.MockClient{Response: `{"message": "完璧！", "extracted_info": {"age": 30}, "is_complete": true, "completion_message": "終わり！"}`}
	svc, _ := newTestService(mock)
	session := startSession(t, svc)

	reply, err := svc.HandleTurn(context.Background(), session, "30歳です")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if reply.Completed {
		t.Fatal("la señal consultiva no puede completar con campos faltantes")
	}
	if session.State != StateCollecting {
		t.Fatalf("estado inesperado: %s", session.State)
	}
}

func TestLLMFailureLeavesStateUntouched(t *testing.T) {
	mock := &llm.MockClient{Err: errors.New("timeout")}
	svc, _ := newTestService(mock)
	session := startSession(t, svc)

	if _, err := svc.HandleTurn(context.Background(), session, "30歳です"); err == nil {
		t.Fatal("esperaba error del servicio")
	}

	if session.State != StateCollecting {
		t.Fatalf("estado inesperado: %s", session.State)
	}
	if !session.Profile.IsEmpty() {
		t.Fatalf("el perfil no debia mutar: %+v", session.Profile)
	}
}

func TestUnparseableReplyUsesRawText(t *testing.T) {
	mock := &llm.MockClient{Response: "ごめんなさい、もう一度お願いします。"}
	svc, _ := newTestService(mock)
	session := startSession(t, svc)

	// El mensaje del usuario dispararia las heuristicas de genero e ingreso
	// si el merge corriera; un turno con fallo de parseo no muta nada.
	reply, err := svc.HandleTurn(context.Background(), session, "僕は男です、年収500万円です")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	if reply.Message != "ごめんなさい、もう一度お願いします。" {
		t.Fatalf("mensaje inesperado: %q", reply.Message)
	}
	if !session.Profile.IsEmpty() {
		t.Fatalf("sin JSON no debe haber merge: %+v", session.Profile)
	}
	if session.Profile.Gender != "" || session.Profile.IncomeRange != "" {
		t.Fatal("las heuristicas no deben correr en un turno con fallo de parseo")
	}
	if session.Profile.CreatedAt != nil {
		t.Fatal("created_at no debe fijarse en un turno con fallo de parseo")
	}
}

func TestStartSessionRestoresCompletedState(t *testing.T) {
	mock := &llm.MockClient{Response: completingTurnResponse}
	svc, sessions := newTestService(mock)
	session := startSession(t, svc)
	if _, err := svc.HandleTurn(context.Background(), session, "全部話すね"); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}

	// Un proceso nuevo recarga la misma sesion desde el store.
	restored, err := NewService(mock, sessions, nil).StartSession(context.Background(), "s1", "u1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if restored.State != StateCompleted {
		t.Fatalf("estado restaurado: %s", restored.State)
	}
	if len(restored.History) == 0 {
		t.Fatal("historial no restaurado")
	}
}

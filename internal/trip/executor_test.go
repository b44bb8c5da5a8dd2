package trip

import (
	"context"
	"errors"
	"strings"
	"testing"

	"family-llm/internal/domain"
	"family-llm/internal/llm"
)

var testPartner = domain.Persona{
	Name:          "みゆき",
	Role:          "パートナー",
	SpeakingStyle: "落ち着いた優しい口調",
	Traits:        []string{"思いやり"},
}

var testChild = domain.Persona{
	Name:          "えり",
	Role:          "娘",
	SpeakingStyle: "元気で活発な口調",
}

func execute(t *testing.T, mock llm.Client, persona domain.Persona, proposer bool, state *domain.TripState, message string) string {
	t.Helper()
	executor := NewTurnExecutor(mock, nil)
	reply, err := executor.Execute(context.Background(), persona, proposer, state, message)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return reply
}

func TestExecuteMergesTripState(t *testing.T) {
	mock := &llm.MockClient{Response: `{"message": "海いいね！", "destination": "沖縄", "activities": ["海水浴", "シュノーケリング"]}`}
	state := &domain.TripState{}

	reply := execute(t, mock, testChild, false, state, "海に行きたい")

	if reply != "海いいね！" {
		t.Fatalf("mensaje inesperado: %q", reply)
	}
	if state.Destination != "沖縄" {
		t.Fatalf("destino inesperado: %q", state.Destination)
	}
	if len(state.Activities) != 2 {
		t.Fatalf("actividades inesperadas: %v", state.Activities)
	}
}

func TestExecuteLastNonEmptyDestinationWins(t *testing.T) {
	state := &domain.TripState{Destination: "公園"}

	// Una respuesta sin destino no borra el existente.
	execute(t, &llm.MockClient{Response: `{"message": "いいね", "destination": null}`}, testChild, false, state, "どこ行く？")
	if state.Destination != "公園" {
		t.Fatalf("destino borrado: %q", state.Destination)
	}

	// Un destino nuevo y no vacio lo reemplaza.
	execute(t, &llm.MockClient{Response: `{"message": "変えよう", "destination": "動物園"}`}, testChild, false, state, "動物園は？")
	if state.Destination != "動物園" {
		t.Fatalf("destino inesperado: %q", state.Destination)
	}
}

func TestExecuteDeduplicatesActivities(t *testing.T) {
	state := &domain.TripState{Activities: []string{"ピクニック"}}
	mock := &llm.MockClient{Response: `{"message": "楽しそう", "activities": ["ピクニック", "ブランコ"]}`}

	execute(t, mock, testChild, false, state, "公園で遊ぼう")

	want := []string{"ピクニック", "ブランコ"}
	if len(state.Activities) != len(want) {
		t.Fatalf("actividades inesperadas: %v", state.Activities)
	}
	for i, activity := range want {
		if state.Activities[i] != activity {
			t.Fatalf("orden inesperado: %v", state.Activities)
		}
	}
}

func TestProposerPromptsPlan(t *testing.T) {
	state := &domain.TripState{Destination: "公園", Activities: []string{"ピクニック", "ブランコ"}}
	mock := &llm.MockClient{Response: `{"message": "いい天気になりそうだね。"}`}

	reply := execute(t, mock, testPartner, true, state, "楽しみだね")

	if !state.PlanPrompted {
		t.Fatal("esperaba plan_prompted")
	}
	if !strings.Contains(reply, "公園") || !strings.Contains(reply, "賛成") {
		t.Fatalf("la propuesta no aparece en la respuesta: %q", reply)
	}
}

func TestProposerNeedsTwoActivities(t *testing.T) {
	state := &domain.TripState{Destination: "公園", Activities: []string{"ピクニック"}}
	mock := &llm.MockClient{Response: `{"message": "いいね"}`}

	execute(t, mock, testPartner, true, state, "楽しみ")

	if state.PlanPrompted {
		t.Fatal("no deberia proponer con una sola actividad")
	}
}

func TestNonProposerNeverPrompts(t *testing.T) {
	state := &domain.TripState{Destination: "公園", Activities: []string{"ピクニック", "ブランコ"}}
	mock := &llm.MockClient{Response: `{"message": "わーい"}`}

	execute(t, mock, testChild, false, state, "楽しみ")

	if state.PlanPrompted {
		t.Fatal("solo la proponente emite la propuesta")
	}
}

func TestPlanResponseHandling(t *testing.T) {
	cases := []struct {
		name          string
		planResponse  string
		wantConfirmed bool
		wantPrompted  bool
	}{
		{"afirmativa confirma", "いいよ！", true, false},
		{"afirmativa en ingles", "OK, sounds great", true, false},
		{"negativa limpia el prompt", "やだ、別のところがいい", false, false},
		{"ambigua deja el prompt abierto", "うーん、どうかなあ", false, true},
		{"mezclada es ambigua", "いいねでもやだ", false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := &domain.TripState{
				Destination:  "公園",
				Activities:   []string{"ピクニック", "ブランコ"},
				PlanPrompted: true,
			}
			mock := &llm.MockClient{Response: `{"message": "わかった", "plan_response": "` + tc.planResponse + `"}`}

			execute(t, mock, testPartner, true, state, tc.planResponse)

			if state.PlanConfirmed != tc.wantConfirmed {
				t.Fatalf("confirmed=%v, esperaba %v", state.PlanConfirmed, tc.wantConfirmed)
			}
			if state.PlanPrompted != tc.wantPrompted {
				t.Fatalf("prompted=%v, esperaba %v", state.PlanPrompted, tc.wantPrompted)
			}
		})
	}
}

func TestMalformedReplyContributesNoMutation(t *testing.T) {
	state := &domain.TripState{Destination: "公園"}
	mock := &llm.MockClient{Response: "ただのテキストです"}

	reply := execute(t, mock, testChild, false, state, "ねえ")

	if reply != "ただのテキストです" {
		t.Fatalf("mensaje inesperado: %q", reply)
	}
	if state.Destination != "公園" || len(state.Activities) != 0 {
		t.Fatalf("estado mutado: %+v", state)
	}
}

func TestExecuteReturnsServiceError(t *testing.T) {
	executor := NewTurnExecutor(&llm.MockClient{Err: errors.New("down")}, nil)
	_, err := executor.Execute(context.Background(), testChild, false, &domain.TripState{}, "ねえ")
	if err == nil {
		t.Fatal("esperaba error")
	}
}

func TestFrozenStateIgnoresMutations(t *testing.T) {
	state := &domain.TripState{Destination: "公園", PlanComplete: true}
	mock := &llm.MockClient{Response: `{"message": "変えよう", "destination": "海", "activities": ["泳ぐ"]}`}

	execute(t, mock, testChild, false, state, "やっぱり海は？")

	if state.Destination != "公園" || len(state.Activities) != 0 {
		t.Fatalf("estado congelado mutado: %+v", state)
	}
}

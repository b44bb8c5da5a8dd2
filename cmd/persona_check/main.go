package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"family-llm/internal/config"
	"family-llm/internal/domain"
	"family-llm/internal/family"
	"family-llm/internal/llm"
	"family-llm/internal/store"
	"family-llm/internal/trip"
)

const (
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

// Scenario es un turno de prueba contra la familia simulada.
type Scenario struct {
	Input            string
	ExpectedBehavior string
}

var scenarios = []Scenario{
	{
		Input:            "週末にどこか行きたいな。みんなはどこがいい？",
		ExpectedBehavior: "cada persona propone o reacciona en su registro; los hijos con energia, la pareja con calma",
	},
	{
		Input:            "海もいいけど、山でキャンプもいいよね。",
		ExpectedBehavior: "las personas discuten alternativas sin contradecir lo ya acordado",
	},
	{
		Input:            "じゃあ決めよう！どこで何をする？",
		ExpectedBehavior: "la pareja empuja hacia un destino y actividades concretas",
	},
}

// Perfil fijo con rasgos marcados para que las diferencias de registro entre
// personas sean observables por el juez.
func checkProfile() *domain.UserProfile {
	high := 0.8
	low := 0.2
	return &domain.UserProfile{
		RelationshipStatus: domain.RelationshipSingle,
		UserPersonalityTraits: &domain.BigFiveTraits{
			Openness:     &high,
			Extraversion: &high,
			Neuroticism:  &low,
		},
		IdealPartner: &domain.PartnerRecord{
			Name:          "みゆき",
			Temperament:   "おおらかで落ち着いている",
			Appearance:    "黒髪ロング",
			SpeakingStyle: "落ち着いた優しい口調",
		},
		ChildrenInfo: []domain.ChildPreference{
			{DesiredGender: "女", Name: "えり"},
			{DesiredGender: "男", Name: "そうた"},
		},
	}
}

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)

	profile := checkProfile()
	factory := family.NewPersonaFactory(profile, rand.New(rand.NewSource(1)))
	personas := factory.BuildFamily(profile)

	sessions := store.NewMemoryStore()
	executor := trip.NewTurnExecutor(llmClient, logger)
	summaryGen := trip.NewLLMSummaryGenerator(llmClient, logger)
	orchestrator := trip.NewOrchestrator(executor, summaryGen, sessions, logger)
	conv := trip.NewConversation("persona-check", personas)

	fmt.Println("===== Persona Check =====")
	for _, persona := range personas {
		fmt.Printf("  %s\n", family.Describe(persona))
	}

	var total, count int
	for _, sc := range scenarios {
		fmt.Printf("\n%s>> %s%s\n", colorCyan, sc.Input, colorReset)

		result, err := orchestrator.HandleTurn(ctx, conv, sc.Input)
		if err != nil {
			log.Fatalf("turno fallo: %v", err)
		}

		for i, reply := range result.Replies {
			fmt.Printf("%s%s:%s %s\n", colorGreen, reply.Speaker, colorReset, reply.Message)

			jr, err := evaluateReply(ctx, llmClient, conv.Personas[i], conv.State, sc.Input, reply.Message, sc)
			if err != nil {
				log.Printf("juez fallo para %s: %v", reply.Speaker, err)
				continue
			}

			fmt.Printf("  character=%d style=%d plan=%d | %s\n",
				jr.CharacterScore, jr.StyleScore, jr.PlanScore, jr.Reasoning)
			total += jr.CharacterScore + jr.StyleScore + jr.PlanScore
			count += 3
		}
	}

	if count > 0 {
		fmt.Printf("\nPromedio global: %.2f/5\n", float64(total)/float64(count))
	}
}

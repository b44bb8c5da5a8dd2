package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"family-llm/internal/app"
	"family-llm/internal/config"
	"family-llm/internal/domain"
	"family-llm/internal/intake"
	"family-llm/internal/llm"
	"family-llm/internal/store"
	"family-llm/internal/trip"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	// El CLI usa el store local: memoria o archivos segun configuracion.
	var sessions store.SessionStore = store.NewMemoryStore()
	if cfg.SessionBackend == "file" {
		fileStore, err := store.NewFileStore(cfg.SessionsDir)
		if err != nil {
			log.Fatal(err)
		}
		sessions = fileStore
	}

	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	intakeSvc := intake.NewService(llmClient, sessions, logger)
	executor := trip.NewTurnExecutor(llmClient, logger)
	summaryGen := trip.NewLLMSummaryGenerator(llmClient, logger)
	orchestrator := trip.NewOrchestrator(executor, summaryGen, sessions, logger)
	manager := app.NewManager(intakeSvc, orchestrator, sessions, logger)

	sessionID := uuid.NewString()
	if _, err := manager.Start(ctx, sessionID, "cli_user"); err != nil {
		log.Fatal(err)
	}

	fmt.Println("===== 未来の家族シミュレーター =====")
	fmt.Println("ヘーラー > こんにちは！あなたの未来の家族を一緒に描きましょう。")
	fmt.Println("ヘーラー > まずはあなたのことを教えてください。（'exit' で終了）")

	for {
		fmt.Print("あなた > ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.EqualFold(text, "exit") || strings.EqualFold(text, "quit") {
			fmt.Println("またね！")
			return
		}

		outcome, err := manager.Message(ctx, sessionID, text)
		if err != nil {
			fmt.Printf("エラー: %v\n", err)
			continue
		}

		switch outcome.Phase {
		case app.PhaseIntake:
			printIntakeReply(outcome.Intake)
			if outcome.Intake.Completed {
				printFamily(manager.Personas(sessionID))
			}
		case app.PhaseFamily:
			for _, reply := range outcome.Replies {
				fmt.Printf("%s > %s\n", reply.Speaker, reply.Message)
			}
			if outcome.Plan != nil {
				printPlan(outcome.Plan)
				return
			}
		}
	}
}

func printIntakeReply(reply *domain.IntakeReply) {
	fmt.Printf("%s > %s\n", reply.Speaker, reply.Message)
	if len(reply.MissingFields) > 0 {
		fmt.Printf("  （未収集: %s）\n", strings.Join(reply.MissingFields, ", "))
	}
}

func printFamily(personas []domain.Persona) {
	if len(personas) == 0 {
		return
	}
	fmt.Println("\n--- あなたの未来の家族 ---")
	for _, persona := range personas {
		fmt.Printf("  %s（%s）%s\n", persona.Name, persona.Role, strings.Join(persona.Traits, "、"))
	}
	fmt.Println("家族と旅行の計画を話し合ってみましょう！")
}

func printPlan(plan *domain.FamilyPlan) {
	fmt.Println("\n===== 旅行プランが決まりました！ =====")
	fmt.Printf("行き先: %s\n", plan.Destination)
	fmt.Printf("やりたいこと: %s\n", strings.Join(plan.Activities, "、"))
	fmt.Println("\n--- 物語 ---")
	fmt.Println(plan.Story)
	fmt.Println("\n--- 家族からの手紙 ---")
	fmt.Println(plan.Letter)
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/joho/godotenv"

	"content_pipeline_poc/internal/agents"
	"content_pipeline_poc/internal/config"
	"content_pipeline_poc/internal/conversation"
	"content_pipeline_poc/internal/logger"
	"content_pipeline_poc/internal/runner"
	"content_pipeline_poc/internal/session"
	"content_pipeline_poc/internal/storage"
	"content_pipeline_poc/pkg"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env file is optional, environment variables may be set directly
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ No .env file found, using process environment")
	}

	ctx := context.Background()

	yamlConfig, err := config.LoadConfig("config.yaml")
	if err != nil {
		return fmt.Errorf("error loading config.yaml: %w", err)
	}
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	if env.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY environment variable is required")
	}

	if err := logger.InitLogger(yamlConfig.Log); err != nil {
		return err
	}
	log := logger.GetLogger()

	modelConfig := config.BuildModelConfig(yamlConfig, env)
	maxTokens := modelConfig.MaxTokens
	temperature := float32(modelConfig.Temperature)
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      modelConfig.APIKey,
		BaseURL:     modelConfig.BaseURL,
		Model:       modelConfig.Name,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return fmt.Errorf("error creating chat model: %w", err)
	}

	store, conv, err := buildStorage(ctx, yamlConfig, env)
	if err != nil {
		return err
	}

	registry := agents.NewRegistry()
	router := agents.NewRouter(chatModel, registry, yamlConfig.Router.MaxStagesPerTurn, *log)
	strategy := conversation.NewWindowStrategy(yamlConfig.Conversation.MaxTurns)
	producer := runner.New(registry, router, chatModel, store, conv, strategy, *log)
	manager := session.NewManager(store, producer, *log)

	return chatLoop(ctx, manager)
}

func buildStorage(ctx context.Context, yamlConfig *config.YAMLConfig, env *config.Env) (storage.Store, conversation.Repository, error) {
	if yamlConfig.Storage.Backend == "redis" {
		store, err := storage.NewRedisStore(ctx, env.RedisURL, yamlConfig.StorageTTL())
		if err != nil {
			return nil, nil, fmt.Errorf("error connecting session store: %w", err)
		}
		conv, err := conversation.NewRedisRepository(ctx, env.RedisURL, yamlConfig.ConversationTTL())
		if err != nil {
			return nil, nil, fmt.Errorf("error connecting conversation store: %w", err)
		}
		return store, conv, nil
	}
	return storage.NewMemoryStore(yamlConfig.StorageTTL()), conversation.NewMemoryRepository(), nil
}

func chatLoop(ctx context.Context, manager *session.Manager) error {
	userID := "cli_user"
	sessionID, err := manager.CreateSession(ctx, userID, "", nil)
	if err != nil {
		return err
	}

	fmt.Println("🤖 Multi-Agent Content Creator")
	fmt.Println("   Commands: /status /stats /new /quit")
	fmt.Printf("   Session: %s\n\n", sessionID)

	var lastReport *pkg.TurnReport
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			fmt.Println("👋 Bye")
			return nil

		case "/status":
			printStatus(manager.WorkflowStatus(ctx, userID, sessionID))

		case "/stats":
			if lastReport == nil {
				fmt.Println("No turns yet.")
				continue
			}
			fmt.Println(session.FormatCallStats(lastReport))

		case "/new":
			manager.ClearSession(ctx, userID, sessionID)
			sessionID, err = manager.CreateSession(ctx, userID, "", nil)
			if err != nil {
				return err
			}
			lastReport = nil
			fmt.Printf("🆕 New session: %s\n", sessionID)

		default:
			report := manager.RunTurn(ctx, userID, sessionID, line)
			lastReport = report
			fmt.Printf("\n%s\n\n", report.Response)
			fmt.Printf("🤖 %d LLM calls across %d agent(s)", report.TotalLLMCalls, report.TotalAgents)
			if report.Summary.MostActiveAgent != "" {
				fmt.Printf(", most active: %s", report.Summary.MostActiveAgent)
			}
			fmt.Println()
			printStatus(manager.WorkflowStatus(ctx, userID, sessionID))
		}
	}
	return scanner.Err()
}

func printStatus(status pkg.WorkflowStatus) {
	step := func(done bool, label string) string {
		if done {
			return "✅ " + label
		}
		return "⬜ " + label
	}
	fmt.Printf("📊 Workflow [%s]: %s | %s | %s | %s | %s\n",
		status.CurrentStep,
		step(status.IdeasGenerated, "ideas"),
		step(status.OutlineCreated, "outline"),
		step(status.DraftWritten, "draft"),
		step(status.FeedbackReceived, "feedback"),
		step(status.SEOOptimized, "seo"),
	)
}

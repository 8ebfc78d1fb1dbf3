package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"line-gpt-relay/handler"
	"line-gpt-relay/internal/integrations/line"
	"line-gpt-relay/internal/integrations/openai"
	"line-gpt-relay/internal/integrations/paramstore"
	"line-gpt-relay/internal/repository"
	"line-gpt-relay/internal/usecase"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	historyTable := mustEnv("HISTORY_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	model := envStr("OPENAI_MODEL", "gpt-3.5-turbo")
	historyLimit := envInt("MAX_CONTEXT_ITEMS", 20)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	secrets, err := paramstore.NewSecrets(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create secrets bundle", "err", err)
		os.Exit(1)
	}
	historyClient, err := repository.New(awsdynamodb.NewFromConfig(cfg), historyTable)
	if err != nil {
		slog.Error("failed to create history client", "err", err)
		os.Exit(1)
	}
	openaiClient, err := openai.NewClient(secrets)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}
	lineClient, err := line.NewClient(secrets)
	if err != nil {
		slog.Error("failed to create LINE client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	relayService, err := usecase.NewRelayService(historyClient, openaiClient, lineClient, model, historyLimit)
	if err != nil {
		slog.Error("failed to create relay service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewConsumer(relayService)
	if err != nil {
		slog.Error("failed to create consumer handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"line-gpt-relay/handler"
	"line-gpt-relay/internal/integrations/paramstore"
	"line-gpt-relay/internal/queue"
	"line-gpt-relay/internal/usecase"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	queueURL := mustEnv("QUEUE_URL")
	paramPrefix := mustEnv("PARAM_PREFIX")
	skipSignatureCheck := os.Getenv("SKIP_SIGNATURE_CHECK") == "true"

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
	queueClient, err := queue.New(awssqs.NewFromConfig(cfg), queueURL)
	if err != nil {
		slog.Error("failed to create queue client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	ingestService, err := usecase.NewIngestService(queueClient)
	if err != nil {
		slog.Error("failed to create ingest service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewWebhook(ingestService, secrets, skipSignatureCheck)
	if err != nil {
		slog.Error("failed to create webhook handler", "err", err)
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

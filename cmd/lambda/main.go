package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"limpopo-ai/handler"
	"limpopo-ai/internal/config"
	"limpopo-ai/internal/integrations/inference"
	"limpopo-ai/internal/integrations/paramstore"
	"limpopo-ai/internal/logging"
	"limpopo-ai/internal/repository"
	"limpopo-ai/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	if cfg.NeedsTokenLookup() {
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			logger.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
		if err := cfg.ResolveToken(ctx, ssmClient); err != nil {
			logger.Error("failed to resolve inference token", "err", err)
			os.Exit(1)
		}
	}

	inferenceClient, err := inference.NewClient(cfg.Inference(), inference.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create inference client", "err", err)
		os.Exit(1)
	}

	var store usecase.DescriptionStore
	if cfg.DescriptionTable != "" {
		descClient, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.DescriptionTable)
		if err != nil {
			logger.Error("failed to create description store", "err", err)
			os.Exit(1)
		}
		store = descClient
	}

	// ---- Handler ----
	askService, err := usecase.NewAskService(inferenceClient, cfg.MaxQuestionLen)
	if err != nil {
		logger.Error("failed to create ask service", "err", err)
		os.Exit(1)
	}
	descService, err := usecase.NewDescriptionService(inferenceClient, store)
	if err != nil {
		logger.Error("failed to create description service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(askService, descService, logger)
	if err != nil {
		logger.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

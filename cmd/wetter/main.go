package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/geistdevelopment/wetter-bericht/internal/adapter/dynamo"
	httpadapter "github.com/geistdevelopment/wetter-bericht/internal/adapter/http"
	"github.com/geistdevelopment/wetter-bericht/internal/adapter/openmeteo"
	"github.com/geistdevelopment/wetter-bericht/internal/adapter/ses"
	"github.com/geistdevelopment/wetter-bericht/internal/config"
	"github.com/geistdevelopment/wetter-bericht/internal/domain"
	"github.com/geistdevelopment/wetter-bericht/internal/observability"
	"github.com/geistdevelopment/wetter-bericht/internal/pipeline"
	"github.com/geistdevelopment/wetter-bericht/internal/scheduler"
	"github.com/geistdevelopment/wetter-bericht/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Error("failed to load aws config", "error", err)
		os.Exit(1)
	}

	var subStore domain.SubscriptionStore
	switch cfg.StorageBackend {
	case config.StorageDynamo:
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
			}
		})
		subStore = dynamo.NewStore(client, cfg.DynamoTable, logger)
		logger.Info("using dynamodb storage", "table", cfg.DynamoTable)
	case config.StorageMemory:
		subStore = store.NewMemoryStore()
		logger.Warn("using in-memory storage, subscriptions are not durable")
	}

	geocoder := openmeteo.NewGeocodeClient(cfg.GeocodeBaseURL, cfg.WeatherTimeout, metrics, logger)
	provider := openmeteo.NewForecastClient(cfg.ForecastBaseURL, cfg.WeatherTimeout, metrics, logger)
	resolver := domain.NewResolver(geocoder, logger)
	mailer := ses.NewMailer(sesv2.NewFromConfig(awsCfg), cfg.SenderAddress, logger)

	p := pipeline.New(subStore, resolver, provider, mailer, cfg.ReplySubject, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	var digest *scheduler.Scheduler
	if cfg.DigestEnabled {
		digest = scheduler.New(subStore, provider, mailer, cfg.DigestCron, cfg.ReplySubject, logger, metrics)
		if err := digest.Start(); err != nil {
			logger.Error("failed to start digest scheduler", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("digest scheduler disabled")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if digest != nil {
		digest.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmarqs/promoterhub-backend/internal/accounts"
	"github.com/dmarqs/promoterhub-backend/internal/analytics"
	"github.com/dmarqs/promoterhub-backend/internal/billing"
	"github.com/dmarqs/promoterhub-backend/internal/campaigns"
	consumeranalytics "github.com/dmarqs/promoterhub-backend/internal/consumers/analytics"
	"github.com/dmarqs/promoterhub-backend/internal/cron"
	"github.com/dmarqs/promoterhub-backend/internal/entitlements"
	"github.com/dmarqs/promoterhub-backend/internal/feedback"
	"github.com/dmarqs/promoterhub-backend/internal/subscriptions"
	"github.com/dmarqs/promoterhub-backend/pkg/bigquery"
	"github.com/dmarqs/promoterhub-backend/pkg/config"
	"github.com/dmarqs/promoterhub-backend/pkg/db"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
	"github.com/dmarqs/promoterhub-backend/pkg/metrics"
	"github.com/dmarqs/promoterhub-backend/pkg/migrate"
	"github.com/dmarqs/promoterhub-backend/pkg/pubsub"
	"github.com/dmarqs/promoterhub-backend/pkg/redis"
	"github.com/dmarqs/promoterhub-backend/pkg/square"
)

const lockKeyFormat = "ph:cron-worker:lock:%s"

// Pub/Sub redeliveries for the analytics stream settle well within a day.
const analyticsDedupTTL = 24 * time.Hour

// Per-run scan caps keep a single tick bounded on large tenants.
const (
	reconcileBatchLimit = 200
	rollupBatchLimit    = 500
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	requireResource(ctx, logg, "bigquery", err)
	defer func() {
		if err := bqClient.Close(); err != nil {
			logg.Error(ctx, "error closing bigquery", err)
		}
	}()

	squareClient, err := square.NewClient(ctx, cfg.Square, logg)
	requireResource(ctx, logg, "square", err)

	accountRepo := accounts.NewRepository(dbClient.DB())
	campaignRepo := campaigns.NewRepository(dbClient.DB())
	responseRepo := feedback.NewRepository(dbClient.DB())
	billingRepo := billing.NewRepository(dbClient.DB())
	squareGateway := subscriptions.NewSquareGateway(squareClient, cfg.Square.LocationID)

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	entitlementMetrics := metrics.NewEntitlementMetrics(prometheus.DefaultRegisterer)
	usageMetrics := metrics.NewUsageMetrics(prometheus.DefaultRegisterer)

	reconcileJob, err := cron.NewSubscriptionReconcileJob(cron.SubscriptionReconcileJobParams{
		Logger:      logg,
		BillingRepo: billingRepo,
		AccountRepo: accountRepo,
		Square:      squareGateway,
		Limit:       reconcileBatchLimit,
	})
	requireResource(ctx, logg, "subscription reconcile job", err)

	trialJob, err := cron.NewTrialExpiryJob(cron.TrialExpiryJobParams{
		Logger:      logg,
		AccountRepo: accountRepo,
		Metrics:     entitlementMetrics,
	})
	requireResource(ctx, logg, "trial expiry job", err)

	rollupJob, err := cron.NewUsageRollupJob(cron.UsageRollupJobParams{
		Logger:      logg,
		AccountRepo: accountRepo,
		Accumulator: entitlements.NewAccumulator(campaignRepo, responseRepo, logg),
		Metrics:     usageMetrics,
		Limit:       rollupBatchLimit,
	})
	requireResource(ctx, logg, "usage rollup job", err)

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	requireResource(ctx, logg, "cron lock", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(reconcileJob, trialJob, rollupJob),
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Cron.Interval,
	})
	requireResource(ctx, logg, "cron service", err)

	subscription := pubsubClient.AnalyticsSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "analytics subscription", errors.New("subscription not configured"))
	}

	recorder, err := analytics.NewBigQueryRecorder(bqClient)
	requireResource(ctx, logg, "analytics recorder", err)

	guard, err := consumeranalytics.NewIdempotencyGuard(redisClient, analyticsDedupTTL)
	requireResource(ctx, logg, "analytics dedup guard", err)

	consumer, err := consumeranalytics.NewConsumer(subscription, recorder, guard, logg)
	requireResource(ctx, logg, "analytics consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "starting cron worker")

	// The scheduler and the analytics consumer share the process; the first
	// one to fail takes both down so the platform restarts the worker whole.
	errCh := make(chan error, 2)
	go func() { errCh <- service.Run(runCtx) }()
	go func() { errCh <- consumer.Run(runCtx) }()

	err = <-errCh
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}

package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/dmarqs/promoterhub-backend/internal/entitlements"
	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
	"github.com/dmarqs/promoterhub-backend/pkg/metrics"
)

const defaultRollupLimit = 1000

type rollupAccountRepo interface {
	List(ctx context.Context, limit int) ([]models.Account, error)
}

// UsageRollupJobParams configures the monthly usage census job.
type UsageRollupJobParams struct {
	Logger      *logger.Logger
	AccountRepo rollupAccountRepo
	Accumulator *entitlements.Accumulator
	Metrics     *metrics.UsageMetrics
	Limit       int
	Now         func() time.Time
}

// NewUsageRollupJob builds a job that recomputes per-account usage and
// publishes the aggregate gauges.
func NewUsageRollupJob(params UsageRollupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.AccountRepo == nil {
		return nil, fmt.Errorf("account repository required")
	}
	if params.Accumulator == nil {
		return nil, fmt.Errorf("usage accumulator required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultRollupLimit
	}
	return &usageRollupJob{
		logg:        params.Logger,
		accounts:    params.AccountRepo,
		accumulator: params.Accumulator,
		metrics:     params.Metrics,
		limit:       limit,
		now:         now,
	}, nil
}

type usageRollupJob struct {
	logg        *logger.Logger
	accounts    rollupAccountRepo
	accumulator *entitlements.Accumulator
	metrics     *metrics.UsageMetrics
	limit       int
	now         func() time.Time
}

func (j *usageRollupJob) Name() string { return "usage-rollup" }

func (j *usageRollupJob) Run(ctx context.Context) error {
	accounts, err := j.accounts.List(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	now := j.now()
	totalCampaigns := 0
	totalResponses := 0
	var errs error
	for _, account := range accounts {
		usage, collectErr := j.accumulator.Collect(ctx, account.ID, now)
		if collectErr != nil {
			errs = multierr.Append(errs, fmt.Errorf("account %s: %w", account.ID, collectErr))
		}
		totalCampaigns += usage.Campaigns
		totalResponses += usage.ResponsesThisMonth
	}

	j.metrics.SetRollup(len(accounts), totalCampaigns, totalResponses)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"accounts":        len(accounts),
		"campaigns":       totalCampaigns,
		"responses_month": totalResponses,
	})
	j.logg.Info(logCtx, "usage rollup complete")
	return errs
}

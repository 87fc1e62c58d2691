package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/dmarqs/promoterhub-backend/internal/entitlements"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
	"github.com/dmarqs/promoterhub-backend/pkg/metrics"
)

type trialCensusRepo interface {
	CountExpiredTrialsWithoutSubscription(ctx context.Context, trialCutoff time.Time) (int64, error)
}

// TrialExpiryJobParams configures the expired-trial census job.
type TrialExpiryJobParams struct {
	Logger      *logger.Logger
	AccountRepo trialCensusRepo
	Metrics     *metrics.EntitlementMetrics
	Now         func() time.Time
}

// NewTrialExpiryJob builds the census job. The job takes no action against
// tenant data: quotas already enforce the expired state, this only surfaces
// the count for operators.
func NewTrialExpiryJob(params TrialExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.AccountRepo == nil {
		return nil, fmt.Errorf("account repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &trialExpiryJob{
		logg:     params.Logger,
		accounts: params.AccountRepo,
		metrics:  params.Metrics,
		now:      now,
	}, nil
}

type trialExpiryJob struct {
	logg     *logger.Logger
	accounts trialCensusRepo
	metrics  *metrics.EntitlementMetrics
	now      func() time.Time
}

func (j *trialExpiryJob) Name() string { return "trial-expiry" }

func (j *trialExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-entitlements.TrialDuration)
	count, err := j.accounts.CountExpiredTrialsWithoutSubscription(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("count expired trials: %w", err)
	}
	j.metrics.SetExpiredTrials(int(count))

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"expired_trials": count,
	})
	j.logg.Info(logCtx, "trial expiry census complete")
	return nil
}

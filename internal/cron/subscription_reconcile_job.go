package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/internal/subscriptions"
	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
)

const defaultReconcileLimit = 250

type reconcileBillingRepository interface {
	ListExpiringActive(ctx context.Context, asOf time.Time, limit int) ([]models.Subscription, error)
	ListByStatus(ctx context.Context, statuses []enums.SubscriptionStatus, limit int) ([]models.Subscription, error)
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
}

type reconcileAccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	SetSubscriptionActive(ctx context.Context, id uuid.UUID, active bool) error
}

type subscriptionFetcher interface {
	GetSubscription(ctx context.Context, id string) (*subscriptions.SquareSubscription, error)
}

// SubscriptionReconcileJobParams configures the subscription sync cron job.
type SubscriptionReconcileJobParams struct {
	Logger      *logger.Logger
	BillingRepo reconcileBillingRepository
	AccountRepo reconcileAccountRepository
	Square      subscriptionFetcher
	Limit       int
	Now         func() time.Time
}

// NewSubscriptionReconcileJob builds a reconciliation cron job.
func NewSubscriptionReconcileJob(params SubscriptionReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.BillingRepo == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	if params.AccountRepo == nil {
		return nil, fmt.Errorf("account repository required")
	}
	if params.Square == nil {
		return nil, fmt.Errorf("square client required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	return &subscriptionReconcileJob{
		logg:     params.Logger,
		billing:  params.BillingRepo,
		accounts: params.AccountRepo,
		square:   params.Square,
		now:      now,
		limit:    limit,
	}, nil
}

type subscriptionReconcileJob struct {
	logg     *logger.Logger
	billing  reconcileBillingRepository
	accounts reconcileAccountRepository
	square   subscriptionFetcher
	now      func() time.Time
	limit    int
}

func (j *subscriptionReconcileJob) Name() string { return "subscription-reconcile" }

func (j *subscriptionReconcileJob) Run(ctx context.Context) error {
	candidates, err := j.listCandidates(ctx)
	if err != nil {
		return err
	}

	var errs error
	synced := 0
	for i := range candidates {
		if err := j.reconcileSubscription(ctx, &candidates[i]); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		synced++
	}
	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(candidates),
		"synced":     synced,
	})
	j.logg.Info(reportCtx, "subscription reconcile loop complete")
	return errs
}

// listCandidates gathers rows that look stale locally: subscriptions still
// marked entitling whose period has lapsed, plus anything sitting in past_due
// or paused that the provider may have since resolved.
func (j *subscriptionReconcileJob) listCandidates(ctx context.Context) ([]models.Subscription, error) {
	expiring, err := j.billing.ListExpiringActive(ctx, j.now(), j.limit)
	if err != nil {
		return nil, fmt.Errorf("list expiring subscriptions: %w", err)
	}
	pending, err := j.billing.ListByStatus(ctx, []enums.SubscriptionStatus{
		enums.SubscriptionStatusPastDue,
		enums.SubscriptionStatusPaused,
	}, j.limit)
	if err != nil {
		return nil, fmt.Errorf("list pending subscriptions: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(expiring)+len(pending))
	candidates := make([]models.Subscription, 0, len(expiring)+len(pending))
	for _, batch := range [][]models.Subscription{expiring, pending} {
		for _, sub := range batch {
			if _, ok := seen[sub.ID]; ok {
				continue
			}
			seen[sub.ID] = struct{}{}
			candidates = append(candidates, sub)
		}
	}
	return candidates, nil
}

func (j *subscriptionReconcileJob) reconcileSubscription(ctx context.Context, sub *models.Subscription) error {
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"subscription_id":        sub.ID,
		"account_id":             sub.AccountID,
		"square_subscription_id": sub.SquareSubscriptionID,
	})
	if strings.TrimSpace(sub.SquareSubscriptionID) == "" {
		j.logg.Info(logCtx, "subscription missing square id; skipping")
		return nil
	}

	squareSub, err := j.square.GetSubscription(logCtx, sub.SquareSubscriptionID)
	if err != nil {
		return fmt.Errorf("fetch square subscription: %w", err)
	}
	if squareSub == nil {
		j.logg.Info(logCtx, "square subscription not found; skipping")
		return nil
	}

	if err := subscriptions.UpdateSubscriptionFromSquare(sub, squareSub); err != nil {
		return err
	}
	if err := j.billing.UpsertSubscription(logCtx, sub); err != nil {
		return fmt.Errorf("persist subscription reconciliation: %w", err)
	}

	active := subscriptions.IsActiveStatus(sub.Status)
	if err := j.syncAccountFlag(logCtx, sub.AccountID, active); err != nil {
		return err
	}

	successCtx := j.logg.WithFields(logCtx, map[string]any{
		"square_status": squareSub.Status,
		"entitled":      active,
	})
	j.logg.Info(successCtx, "subscription reconciled")
	return nil
}

func (j *subscriptionReconcileJob) syncAccountFlag(ctx context.Context, accountID uuid.UUID, active bool) error {
	account, err := j.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			j.logg.Warn(ctx, "subscription references missing account")
			return nil
		}
		return fmt.Errorf("load account: %w", err)
	}
	if account.SubscriptionActive == active {
		return nil
	}
	if err := j.accounts.SetSubscriptionActive(ctx, accountID, active); err != nil {
		return fmt.Errorf("update subscription flag: %w", err)
	}
	return nil
}

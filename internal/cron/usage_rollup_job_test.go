package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/internal/entitlements"
	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/metrics"
)

type fakeRollupAccounts struct {
	accounts []models.Account
	err      error
}

func (f *fakeRollupAccounts) List(ctx context.Context, limit int) ([]models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.accounts, nil
}

type fakeCampaignSource struct {
	byAccount map[uuid.UUID][]models.Campaign
}

func (f *fakeCampaignSource) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Campaign, error) {
	return f.byAccount[accountID], nil
}

func (f *fakeCampaignSource) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return int64(len(f.byAccount[accountID])), nil
}

type fakeResponseSource struct {
	counts map[uuid.UUID]int64
}

func (f *fakeResponseSource) CountForCampaignSince(ctx context.Context, campaignID uuid.UUID, since time.Time) (int64, error) {
	return f.counts[campaignID], nil
}

func TestUsageRollupJobAggregatesAccounts(t *testing.T) {
	accountA := uuid.New()
	accountB := uuid.New()
	campaignA := uuid.New()
	campaignB := uuid.New()

	accumulator := entitlements.NewAccumulator(
		&fakeCampaignSource{byAccount: map[uuid.UUID][]models.Campaign{
			accountA: {{ID: campaignA, AccountID: accountA}},
			accountB: {{ID: campaignB, AccountID: accountB}},
		}},
		&fakeResponseSource{counts: map[uuid.UUID]int64{
			campaignA: 12,
			campaignB: 5,
		}},
		testLogger(),
	)

	job, err := NewUsageRollupJob(UsageRollupJobParams{
		Logger:      testLogger(),
		AccountRepo: &fakeRollupAccounts{accounts: []models.Account{{ID: accountA}, {ID: accountB}}},
		Accumulator: accumulator,
		Metrics:     metrics.NewUsageMetrics(nil),
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestUsageRollupJobPropagatesListError(t *testing.T) {
	accumulator := entitlements.NewAccumulator(
		&fakeCampaignSource{},
		&fakeResponseSource{},
		testLogger(),
	)
	job, err := NewUsageRollupJob(UsageRollupJobParams{
		Logger:      testLogger(),
		AccountRepo: &fakeRollupAccounts{err: errors.New("db down")},
		Accumulator: accumulator,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

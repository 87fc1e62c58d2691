package entitlements

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
)

// defaultSeatCount is constant until multi-seat collaboration ships.
const defaultSeatCount = 1

// CampaignSource exposes an account's campaigns: the count carries the quota
// number, the list feeds the per-campaign response loop.
type CampaignSource interface {
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Campaign, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// ResponseSource counts responses for one campaign created at or after a cutoff.
type ResponseSource interface {
	CountForCampaignSince(ctx context.Context, campaignID uuid.UUID, since time.Time) (int64, error)
}

// Accumulator computes usage snapshots by scanning an account's campaigns and
// summing per-campaign response counts for the current calendar month.
type Accumulator struct {
	campaigns CampaignSource
	responses ResponseSource
	logg      *logger.Logger
}

// NewAccumulator builds a usage accumulator.
func NewAccumulator(campaigns CampaignSource, responses ResponseSource, logg *logger.Logger) *Accumulator {
	return &Accumulator{
		campaigns: campaigns,
		responses: responses,
		logg:      logg,
	}
}

// StartOfMonth returns the first instant of now's calendar month in now's location.
func StartOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// Collect builds the usage snapshot for an account. A failed response count
// for one campaign contributes zero and is logged; accumulation continues
// for the remaining campaigns. A failed campaign count or list is different:
// without them the campaign total is unknown, so Collect returns the error
// and callers must not treat the snapshot as usable.
func (a *Accumulator) Collect(ctx context.Context, accountID uuid.UUID, now time.Time) (Usage, error) {
	campaignCount, err := a.campaigns.CountByAccount(ctx, accountID)
	if err != nil {
		return Usage{Users: defaultSeatCount}, err
	}
	campaigns, err := a.campaigns.ListByAccount(ctx, accountID)
	if err != nil {
		return Usage{Users: defaultSeatCount}, err
	}

	usage := Usage{
		Campaigns: int(campaignCount),
		Users:     defaultSeatCount,
	}

	since := StartOfMonth(now)
	for _, campaign := range campaigns {
		count, countErr := a.responses.CountForCampaignSince(ctx, campaign.ID, since)
		if countErr != nil {
			a.logg.Error(a.logg.WithCampaignID(ctx, campaign.ID.String()), "counting campaign responses", countErr)
			continue
		}
		usage.ResponsesThisMonth += int(count)
	}

	return usage, nil
}

package analytics

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
)

// NPSSummaryDTO is the aggregate loyalty breakdown for a response set.
type NPSSummaryDTO struct {
	Promoters  int `json:"promoters"`
	Passives   int `json:"passives"`
	Detractors int `json:"detractors"`
	Total      int `json:"total"`
	// Score is the classic NPS value: %promoters minus %detractors,
	// rounded to the nearest integer. Zero when there are no responses.
	Score int `json:"score"`
}

// trendMonths is the width of the campaign trend window.
const trendMonths = 6

// TrendPointDTO is one calendar month of the trend series.
type TrendPointDTO struct {
	// Month is the bucket key in YYYY-MM form, UTC.
	Month string `json:"month"`
	NPSSummaryDTO
}

// CampaignSummaryDTO is the per-campaign dashboard payload: the all-time
// breakdown plus the recent month-by-month trend.
type CampaignSummaryDTO struct {
	NPSSummaryDTO
	Trend []TrendPointDTO `json:"trend"`
}

// ResponseReader is the persistence surface the summary computation needs.
type ResponseReader interface {
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Response, error)
	ListByAccountSince(ctx context.Context, accountID uuid.UUID, since time.Time) ([]models.Response, error)
}

// CampaignReader verifies campaign ownership before exposing aggregates.
type CampaignReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
}

// ServiceParams groups dependencies for the analytics service.
type ServiceParams struct {
	Responses ResponseReader
	Campaigns CampaignReader
	Logger    *logger.Logger
	Now       func() time.Time
}

// Service computes NPS aggregates for dashboards.
type Service interface {
	CampaignSummary(ctx context.Context, accountID, campaignID uuid.UUID) (CampaignSummaryDTO, error)
	AccountSummary(ctx context.Context, accountID uuid.UUID, since time.Time) (NPSSummaryDTO, error)
	MonthToDateSummary(ctx context.Context, accountID uuid.UUID) (NPSSummaryDTO, error)
}

type service struct {
	responses ResponseReader
	campaigns CampaignReader
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the analytics service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Responses == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "response reader is required")
	}
	if params.Campaigns == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign reader is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		responses: params.Responses,
		campaigns: params.Campaigns,
		logg:      params.Logger,
		now:       now,
	}, nil
}

// CampaignSummary aggregates every response of one campaign and derives the
// recent monthly trend from the same rows.
func (s *service) CampaignSummary(ctx context.Context, accountID, campaignID uuid.UUID) (CampaignSummaryDTO, error) {
	if accountID == uuid.Nil || campaignID == uuid.Nil {
		return CampaignSummaryDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "account id and campaign id are required")
	}

	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CampaignSummaryDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "campaign not found")
		}
		return CampaignSummaryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}
	if campaign.AccountID != accountID {
		return CampaignSummaryDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "campaign belongs to another account")
	}

	responses, err := s.responses.ListByCampaign(ctx, campaignID)
	if err != nil {
		return CampaignSummaryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list campaign responses")
	}
	return CampaignSummaryDTO{
		NPSSummaryDTO: Summarize(responses),
		Trend:         MonthlyTrend(responses, trendMonths, s.now()),
	}, nil
}

// AccountSummary aggregates the account's responses since the given cutoff.
func (s *service) AccountSummary(ctx context.Context, accountID uuid.UUID, since time.Time) (NPSSummaryDTO, error) {
	if accountID == uuid.Nil {
		return NPSSummaryDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	responses, err := s.responses.ListByAccountSince(ctx, accountID, since)
	if err != nil {
		return NPSSummaryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list account responses")
	}
	return Summarize(responses), nil
}

// MonthToDateSummary aggregates the current calendar month.
func (s *service) MonthToDateSummary(ctx context.Context, accountID uuid.UUID) (NPSSummaryDTO, error) {
	now := s.now()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return s.AccountSummary(ctx, accountID, since)
}

// Summarize buckets responses into the standard NPS groups and derives the
// score. Scores outside 0-10 cannot be categorized and are skipped.
func Summarize(responses []models.Response) NPSSummaryDTO {
	var summary NPSSummaryDTO
	for _, response := range responses {
		category, err := enums.CategorizeScore(response.Score)
		if err != nil {
			continue
		}
		switch category {
		case enums.NPSCategoryPromoter:
			summary.Promoters++
		case enums.NPSCategoryPassive:
			summary.Passives++
		case enums.NPSCategoryDetractor:
			summary.Detractors++
		}
		summary.Total++
	}
	if summary.Total > 0 {
		promoterShare := float64(summary.Promoters) / float64(summary.Total) * 100
		detractorShare := float64(summary.Detractors) / float64(summary.Total) * 100
		summary.Score = int(math.Round(promoterShare - detractorShare))
	}
	return summary
}

// MonthlyTrend buckets responses into calendar months (UTC) and summarizes
// each, returning the most recent months in ascending order. Months without
// responses still appear, zeroed, so chart series stay contiguous.
func MonthlyTrend(responses []models.Response, months int, now time.Time) []TrendPointDTO {
	if months <= 0 {
		return nil
	}

	buckets := make(map[string][]models.Response, months)
	for _, response := range responses {
		key := response.CreatedAt.UTC().Format("2006-01")
		buckets[key] = append(buckets[key], response)
	}

	cursor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	points := make([]TrendPointDTO, 0, months)
	for i := 0; i < months; i++ {
		key := cursor.Format("2006-01")
		points = append(points, TrendPointDTO{
			Month:         key,
			NPSSummaryDTO: Summarize(buckets[key]),
		})
		cursor = cursor.AddDate(0, 1, 0)
	}
	return points
}

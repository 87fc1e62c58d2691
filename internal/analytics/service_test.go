package analytics

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
)

type stubResponseReader struct {
	byCampaign map[uuid.UUID][]models.Response
	byAccount  []models.Response
	since      time.Time
	err        error
}

func (s *stubResponseReader) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byCampaign[campaignID], nil
}

func (s *stubResponseReader) ListByAccountSince(ctx context.Context, accountID uuid.UUID, since time.Time) ([]models.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.since = since
	return s.byAccount, nil
}

type stubCampaignReader struct {
	campaign *models.Campaign
	err      error
}

func (s *stubCampaignReader) FindByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.campaign, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func responsesWithScores(scores ...int) []models.Response {
	out := make([]models.Response, 0, len(scores))
	for _, score := range scores {
		out = append(out, models.Response{ID: uuid.New(), Score: score})
	}
	return out
}

func TestSummarize(t *testing.T) {
	// 4 promoters, 2 passives, 4 detractors: NPS = 40 - 40 = 0
	summary := Summarize(responsesWithScores(9, 10, 9, 10, 7, 8, 0, 3, 6, 5))
	if summary.Promoters != 4 || summary.Passives != 2 || summary.Detractors != 4 {
		t.Fatalf("unexpected buckets: %+v", summary)
	}
	if summary.Total != 10 {
		t.Fatalf("expected 10 total, got %d", summary.Total)
	}
	if summary.Score != 0 {
		t.Fatalf("expected score 0, got %d", summary.Score)
	}
}

func TestSummarizeAllPromoters(t *testing.T) {
	summary := Summarize(responsesWithScores(9, 10, 10))
	if summary.Score != 100 {
		t.Fatalf("expected score 100, got %d", summary.Score)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	if summary.Total != 0 || summary.Score != 0 {
		t.Fatalf("empty input must produce a zero summary, got %+v", summary)
	}
}

func TestSummarizeSkipsOutOfRangeScores(t *testing.T) {
	responses := responsesWithScores(9, 10)
	responses = append(responses, models.Response{ID: uuid.New(), Score: 42})
	summary := Summarize(responses)
	if summary.Total != 2 {
		t.Fatalf("out-of-range score must be skipped, got total %d", summary.Total)
	}
}

func TestCampaignSummaryOwnership(t *testing.T) {
	accountID := uuid.New()
	campaignID := uuid.New()

	responses := &stubResponseReader{
		byCampaign: map[uuid.UUID][]models.Response{
			campaignID: responsesWithScores(10, 0),
		},
	}
	campaigns := &stubCampaignReader{campaign: &models.Campaign{ID: campaignID, AccountID: accountID}}

	svc, err := NewService(ServiceParams{Responses: responses, Campaigns: campaigns, Logger: testLogger()})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	summary, err := svc.CampaignSummary(context.Background(), accountID, campaignID)
	if err != nil {
		t.Fatalf("CampaignSummary: %v", err)
	}
	if summary.Total != 2 || summary.Score != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.Trend) != 6 {
		t.Fatalf("expected a six month trend window, got %d points", len(summary.Trend))
	}

	// a different account must not see the aggregates
	_, err = svc.CampaignSummary(context.Background(), uuid.New(), campaignID)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestMonthlyTrend(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	responses := []models.Response{
		{ID: uuid.New(), Score: 10, CreatedAt: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)},
		{ID: uuid.New(), Score: 9, CreatedAt: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)},
		{ID: uuid.New(), Score: 0, CreatedAt: time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC)},
		// outside the window, must not appear
		{ID: uuid.New(), Score: 10, CreatedAt: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)},
	}

	trend := MonthlyTrend(responses, 6, now)
	if len(trend) != 6 {
		t.Fatalf("expected 6 points, got %d", len(trend))
	}
	if trend[0].Month != "2026-03" || trend[5].Month != "2026-08" {
		t.Fatalf("expected ascending window 2026-03..2026-08, got %s..%s", trend[0].Month, trend[5].Month)
	}
	if trend[5].Promoters != 2 || trend[5].Score != 100 {
		t.Fatalf("current month should hold 2 promoters at score 100, got %+v", trend[5])
	}
	if trend[3].Month != "2026-06" || trend[3].Detractors != 1 || trend[3].Score != -100 {
		t.Fatalf("june should hold the lone detractor, got %+v", trend[3])
	}
	// the empty months stay in the series with zero totals
	if trend[1].Total != 0 || trend[2].Total != 0 || trend[4].Total != 0 {
		t.Fatalf("empty months must stay zeroed, got %+v", trend)
	}
}

func TestMonthlyTrendEmptyWindow(t *testing.T) {
	if got := MonthlyTrend(nil, 0, time.Now()); got != nil {
		t.Fatalf("zero width window must yield nil, got %+v", got)
	}
}

func TestCampaignSummaryNotFound(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Responses: &stubResponseReader{},
		Campaigns: &stubCampaignReader{err: gorm.ErrRecordNotFound},
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.CampaignSummary(context.Background(), uuid.New(), uuid.New())
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestMonthToDateSummaryUsesStartOfMonth(t *testing.T) {
	responses := &stubResponseReader{byAccount: responsesWithScores(9)}
	now := time.Date(2026, 7, 19, 15, 30, 0, 0, time.UTC)

	svc, err := NewService(ServiceParams{
		Responses: responses,
		Campaigns: &stubCampaignReader{},
		Logger:    testLogger(),
		Now:       func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if _, err := svc.MonthToDateSummary(context.Background(), uuid.New()); err != nil {
		t.Fatalf("MonthToDateSummary: %v", err)
	}
	want := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	if !responses.since.Equal(want) {
		t.Fatalf("cutoff %s, want %s", responses.since, want)
	}
}

func TestAccountSummaryDependencyFailure(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Responses: &stubResponseReader{err: fmt.Errorf("backend unavailable")},
		Campaigns: &stubCampaignReader{},
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.AccountSummary(context.Background(), uuid.New(), time.Now())
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
}

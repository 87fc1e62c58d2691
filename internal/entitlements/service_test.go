package entitlements

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
)

type stubAccountSource struct {
	account *models.Account
	err     error
}

func (s *stubAccountSource) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.account, s.err
}

type stubSubscriptionSource struct {
	sub *models.Subscription
	err error
}

func (s *stubSubscriptionSource) FindCurrentByAccount(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.sub == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.sub, nil
}

type stubPlanSource struct {
	plan *models.BillingPlan
	err  error
}

func (s *stubPlanSource) FindPlanByID(ctx context.Context, id string) (*models.BillingPlan, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.plan, nil
}

type serviceFixture struct {
	accounts      *stubAccountSource
	subscriptions *stubSubscriptionSource
	plans         *stubPlanSource
	campaigns     *stubCampaignSource
	responses     *stubResponseSource
	now           time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	return &serviceFixture{
		accounts:      &stubAccountSource{},
		subscriptions: &stubSubscriptionSource{},
		plans:         &stubPlanSource{},
		campaigns:     &stubCampaignSource{},
		responses:     &stubResponseSource{counts: map[uuid.UUID]int64{}},
		now:           time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func (f *serviceFixture) build(t *testing.T) Service {
	t.Helper()
	logg := testLogger()
	svc, err := NewService(ServiceParams{
		Accounts:      f.accounts,
		Subscriptions: f.subscriptions,
		Plans:         f.plans,
		Usage:         NewAccumulator(f.campaigns, f.responses, logg),
		Logger:        logg,
		Now:           func() time.Time { return f.now },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func (f *serviceFixture) withAccountCreated(ago time.Duration) *serviceFixture {
	f.accounts.account = &models.Account{
		ID:        uuid.New(),
		CreatedAt: f.now.Add(-ago),
	}
	return f
}

func (f *serviceFixture) withCampaigns(n int) *serviceFixture {
	for i := 0; i < n; i++ {
		f.campaigns.campaigns = append(f.campaigns.campaigns, models.Campaign{ID: uuid.New()})
	}
	return f
}

func (f *serviceFixture) withActivePlan(tier enums.PlanTier, displayName string) *serviceFixture {
	planID := "plan_" + string(tier)
	f.subscriptions.sub = &models.Subscription{
		Status: enums.SubscriptionStatusActive,
		PlanID: &planID,
	}
	f.plans.plan = &models.BillingPlan{ID: planID, DisplayName: displayName, Tier: tier}
	return f
}

func TestEvaluateExpiredTrialNoSubscription(t *testing.T) {
	// account created 8 days ago, never subscribed
	f := newServiceFixture(t).withAccountCreated(8 * 24 * time.Hour)
	svc := f.build(t)

	eval, err := svc.Evaluate(context.Background(), f.accounts.account.ID)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !eval.Trial.IsTrialExpired || eval.Trial.IsTrialActive {
		t.Fatalf("expected expired trial, got %+v", eval.Trial)
	}
	if eval.PlanLimits.CanCreateCampaign || eval.PlanLimits.CanReceiveResponse {
		t.Fatalf("expired trial must block everything, got %+v", eval.PlanLimits)
	}
	if !eval.PlanLimits.UpgradeRequired {
		t.Fatal("expected upgrade to be required")
	}
}

func TestEvaluateActiveTrial(t *testing.T) {
	// account created 2 days and 3 hours ago, no subscription
	f := newServiceFixture(t).withAccountCreated(2*24*time.Hour + 3*time.Hour)
	svc := f.build(t)

	eval, err := svc.Evaluate(context.Background(), f.accounts.account.ID)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !eval.Trial.IsTrialActive {
		t.Fatalf("expected active trial, got %+v", eval.Trial)
	}
	if eval.Trial.DaysRemaining != 4 {
		t.Fatalf("expected 4 full days remaining, got %d", eval.Trial.DaysRemaining)
	}
	want := QuotasForTier(enums.PlanTierTrial)
	if eval.PlanLimits.Limits != want {
		t.Fatalf("expected trial quotas %+v, got %+v", want, eval.PlanLimits.Limits)
	}
	if !eval.PlanLimits.CanCreateCampaign || !eval.PlanLimits.CanReceiveResponse {
		t.Fatalf("fresh trial must allow usage, got %+v", eval.PlanLimits)
	}
}

func TestEvaluateActiveSubscriptionUnlimitedCampaigns(t *testing.T) {
	// professional plan with three campaigns already created, trial long over
	f := newServiceFixture(t).
		withAccountCreated(90*24*time.Hour).
		withActivePlan(enums.PlanTierProfessional, "Professional").
		withCampaigns(3)
	svc := f.build(t)

	eval, err := svc.Evaluate(context.Background(), f.accounts.account.ID)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Trial.IsTrialActive || eval.Trial.IsTrialExpired {
		t.Fatalf("paid subscription must zero trial flags, got %+v", eval.Trial)
	}
	if !eval.Subscription.IsActive {
		t.Fatal("expected active subscription state")
	}
	if !eval.PlanLimits.CanCreateCampaign {
		t.Fatal("professional tier has unlimited campaigns")
	}
	if eval.PlanLimits.PlanName != "Professional" {
		t.Fatalf("expected plan name carried through, got %q", eval.PlanLimits.PlanName)
	}
}

func TestEvaluateUpgradeRequiredRecommendsStarter(t *testing.T) {
	// zero campaigns, trial expired, no subscription
	f := newServiceFixture(t).withAccountCreated(30 * 24 * time.Hour)
	svc := f.build(t)

	eval, err := svc.Evaluate(context.Background(), f.accounts.account.ID)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	limits := eval.PlanLimits
	if !limits.UpgradeRequired || limits.CanCreateCampaign || limits.CanReceiveResponse {
		t.Fatalf("expected fully blocked state, got %+v", limits)
	}
	if limits.RecommendedTier == nil || *limits.RecommendedTier != enums.PlanTierStarter {
		t.Fatalf("expected starter recommendation, got %v", limits.RecommendedTier)
	}
}

func TestEvaluateAccountFetchFailureFailsClosed(t *testing.T) {
	f := newServiceFixture(t)
	f.accounts.err = fmt.Errorf("backend unavailable")
	svc := f.build(t)

	eval, err := svc.Evaluate(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("fetch failures must be recovered locally, got %v", err)
	}
	if !eval.Trial.IsTrialExpired {
		t.Fatal("fetch failure must report the trial as expired, never active")
	}
	if eval.PlanLimits.Limits != (Quotas{}) {
		t.Fatalf("fetch failure must zero all quotas, got %+v", eval.PlanLimits.Limits)
	}
	if eval.PlanLimits.CanCreateCampaign || eval.PlanLimits.CanReceiveResponse {
		t.Fatal("fetch failure must block all actions")
	}
}

func TestEvaluateCampaignListFailureZeroesQuotas(t *testing.T) {
	// the trial is healthy, but the campaign count is unknown
	f := newServiceFixture(t).withAccountCreated(24 * time.Hour)
	f.campaigns.err = fmt.Errorf("backend unavailable")
	svc := f.build(t)

	eval, err := svc.Evaluate(context.Background(), f.accounts.account.ID)
	if err != nil {
		t.Fatalf("fetch failures must be recovered locally, got %v", err)
	}
	if !eval.Trial.IsTrialActive {
		t.Fatal("a usage failure must not rewrite the trial state")
	}
	if eval.PlanLimits.Limits != (Quotas{}) {
		t.Fatalf("unknown usage must zero all quotas, got %+v", eval.PlanLimits.Limits)
	}
	if eval.PlanLimits.CanCreateCampaign || eval.PlanLimits.CanReceiveResponse {
		t.Fatal("unknown usage must block all gated actions")
	}

	if authErr := svc.AuthorizeCampaignCreate(context.Background(), f.accounts.account.ID); authErr == nil {
		t.Fatal("campaign create must be denied while the campaign count is unknown")
	}
	if authErr := svc.AuthorizeResponseIntake(context.Background(), f.accounts.account.ID); authErr == nil {
		t.Fatal("response intake must be denied while the campaign count is unknown")
	}
}

func TestEvaluateAccountNotFound(t *testing.T) {
	f := newServiceFixture(t)
	f.accounts.err = gorm.ErrRecordNotFound
	svc := f.build(t)

	_, err := svc.Evaluate(context.Background(), uuid.New())
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestEvaluateUnknownPlanFallsBackToTrialQuotas(t *testing.T) {
	f := newServiceFixture(t).withAccountCreated(90 * 24 * time.Hour)
	planID := "plan_retired"
	f.subscriptions.sub = &models.Subscription{
		Status: enums.SubscriptionStatusActive,
		PlanID: &planID,
	}
	f.plans.err = gorm.ErrRecordNotFound
	svc := f.build(t)

	eval, err := svc.Evaluate(context.Background(), f.accounts.account.ID)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !eval.Subscription.IsActive {
		t.Fatal("subscription itself is still active")
	}
	if eval.PlanLimits.Limits != QuotasForTier(enums.PlanTierTrial) {
		t.Fatalf("unknown plan must fall back to trial quotas, got %+v", eval.PlanLimits.Limits)
	}
}

func TestAuthorizeCampaignCreateBlocksAtQuota(t *testing.T) {
	// trial tier allows two campaigns; the account already has two
	f := newServiceFixture(t).
		withAccountCreated(24 * time.Hour).
		withCampaigns(2)
	svc := f.build(t)

	err := svc.AuthorizeCampaignCreate(context.Background(), f.accounts.account.ID)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeQuotaExceeded {
		t.Fatalf("expected QUOTA_EXCEEDED, got %v", err)
	}
	details, ok := coded.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected structured details, got %T", coded.Details())
	}
	if details["recommended_tier"] != enums.PlanTierProfessional {
		t.Fatalf("blocked create must carry the recommended tier, got %v", details["recommended_tier"])
	}

	// one campaign under quota passes
	f2 := newServiceFixture(t).
		withAccountCreated(24 * time.Hour).
		withCampaigns(1)
	svc2 := f2.build(t)
	if err := svc2.AuthorizeCampaignCreate(context.Background(), f2.accounts.account.ID); err != nil {
		t.Fatalf("expected creation to be authorized, got %v", err)
	}
}

func TestAuthorizeResponseIntakeBlocksAtQuota(t *testing.T) {
	f := newServiceFixture(t).
		withAccountCreated(24 * time.Hour).
		withCampaigns(1)
	f.responses.counts[f.campaigns.campaigns[0].ID] = 100
	svc := f.build(t)

	err := svc.AuthorizeResponseIntake(context.Background(), f.accounts.account.ID)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeQuotaExceeded {
		t.Fatalf("expected QUOTA_EXCEEDED, got %v", err)
	}
	details, ok := coded.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected structured details, got %T", coded.Details())
	}
	if details["recommended_tier"] != enums.PlanTierProfessional {
		t.Fatalf("blocked intake must carry the recommended tier, got %v", details["recommended_tier"])
	}
}

func TestNewServiceValidation(t *testing.T) {
	logg := testLogger()
	acc := NewAccumulator(&stubCampaignSource{}, &stubResponseSource{}, logg)

	params := []ServiceParams{
		{Subscriptions: &stubSubscriptionSource{}, Plans: &stubPlanSource{}, Usage: acc, Logger: logg},
		{Accounts: &stubAccountSource{}, Plans: &stubPlanSource{}, Usage: acc, Logger: logg},
		{Accounts: &stubAccountSource{}, Subscriptions: &stubSubscriptionSource{}, Usage: acc, Logger: logg},
		{Accounts: &stubAccountSource{}, Subscriptions: &stubSubscriptionSource{}, Plans: &stubPlanSource{}, Logger: logg},
		{Accounts: &stubAccountSource{}, Subscriptions: &stubSubscriptionSource{}, Plans: &stubPlanSource{}, Usage: acc},
	}
	for i, p := range params {
		if _, err := NewService(p); err == nil {
			t.Fatalf("case %d: expected constructor error", i)
		}
	}
}

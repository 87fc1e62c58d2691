package entitlements

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
	"github.com/dmarqs/promoterhub-backend/pkg/metrics"
)

// AccountSource loads the tenant record whose CreatedAt anchors the trial.
type AccountSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// SubscriptionSource returns the account's current subscription row, or
// gorm.ErrRecordNotFound when checkout has never completed.
type SubscriptionSource interface {
	FindCurrentByAccount(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error)
}

// PlanSource resolves the local plan row referenced by a subscription.
type PlanSource interface {
	FindPlanByID(ctx context.Context, id string) (*models.BillingPlan, error)
}

// ServiceParams groups dependencies for the entitlement service.
type ServiceParams struct {
	Accounts      AccountSource
	Subscriptions SubscriptionSource
	Plans         PlanSource
	Usage         *Accumulator
	Logger        *logger.Logger
	Metrics       *metrics.EntitlementMetrics
	Now           func() time.Time
}

// Service evaluates trial, subscription, and quota state for accounts. Every
// evaluation is stateless: it reads a fresh snapshot, derives the outputs, and
// discards everything.
type Service interface {
	Evaluate(ctx context.Context, accountID uuid.UUID) (Evaluation, error)
	TrialInfo(ctx context.Context, accountID uuid.UUID) (TrialInfo, error)
	PlanLimitInfo(ctx context.Context, accountID uuid.UUID) (PlanLimitInfo, error)
	AuthorizeCampaignCreate(ctx context.Context, accountID uuid.UUID) error
	AuthorizeResponseIntake(ctx context.Context, accountID uuid.UUID) error
}

type service struct {
	accounts      AccountSource
	subscriptions SubscriptionSource
	plans         PlanSource
	usage         *Accumulator
	logg          *logger.Logger
	metrics       *metrics.EntitlementMetrics
	now           func() time.Time
}

// NewService builds the entitlement service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Accounts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account source is required")
	}
	if params.Subscriptions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription source is required")
	}
	if params.Plans == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan source is required")
	}
	if params.Usage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage accumulator is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		accounts:      params.Accounts,
		subscriptions: params.Subscriptions,
		plans:         params.Plans,
		usage:         params.Usage,
		logg:          params.Logger,
		metrics:       params.Metrics,
		now:           now,
	}, nil
}

// Evaluate runs one full entitlement pass for the account. Fetch failures are
// recovered locally into the most restrictive safe state and logged; they
// never surface as hard errors. A failed account load expires the trial and
// zeroes the quotas; a failed usage snapshot keeps the trial facts but zeroes
// the quotas so every gate denies.
func (s *service) Evaluate(ctx context.Context, accountID uuid.UUID) (Evaluation, error) {
	if accountID == uuid.Nil {
		return Evaluation{}, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	ctx = s.logg.WithAccountID(ctx, accountID.String())
	now := s.now()

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Evaluation{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "account not found")
		}
		s.logg.Error(ctx, "loading account for entitlement evaluation", err)
		return s.failClosed(), nil
	}

	subState, tier, planName := s.resolveSubscription(ctx, accountID)
	trial := EvaluateTrial(account.CreatedAt, now, subState.IsActive)

	usage, usageErr := s.usage.Collect(ctx, accountID, now)
	if usageErr != nil {
		// an unknown campaign count would let gated actions through on a
		// zero snapshot; resolve zero quotas instead so the gates deny
		s.logg.Error(ctx, "loading campaign usage for entitlement evaluation", usageErr)
		return Evaluation{
			Trial:        trial,
			Subscription: subState,
			PlanLimits:   BuildPlanLimitInfo(Quotas{}, usage, trial.IsTrialActive, subState.IsActive, planName),
		}, nil
	}

	limits := ResolveQuotas(tier, subState.IsActive, trial.IsTrialActive)
	planLimits := BuildPlanLimitInfo(limits, usage, trial.IsTrialActive, subState.IsActive, planName)

	return Evaluation{
		Trial:        trial,
		Subscription: subState,
		PlanLimits:   planLimits,
	}, nil
}

// TrialInfo returns only the trial countdown portion of an evaluation.
func (s *service) TrialInfo(ctx context.Context, accountID uuid.UUID) (TrialInfo, error) {
	eval, err := s.Evaluate(ctx, accountID)
	if err != nil {
		return TrialInfo{}, err
	}
	return eval.Trial, nil
}

// PlanLimitInfo returns only the quota/gate portion of an evaluation.
func (s *service) PlanLimitInfo(ctx context.Context, accountID uuid.UUID) (PlanLimitInfo, error) {
	eval, err := s.Evaluate(ctx, accountID)
	if err != nil {
		return PlanLimitInfo{}, err
	}
	return eval.PlanLimits, nil
}

// AuthorizeCampaignCreate enforces the campaign quota before a create.
func (s *service) AuthorizeCampaignCreate(ctx context.Context, accountID uuid.UUID) error {
	eval, err := s.Evaluate(ctx, accountID)
	if err != nil {
		return err
	}
	s.observe("campaign_create", eval.PlanLimits.CanCreateCampaign)
	if !eval.PlanLimits.CanCreateCampaign {
		return pkgerrors.New(pkgerrors.CodeQuotaExceeded, "campaign quota reached for current plan").
			WithDetails(quotaDetails(eval.PlanLimits))
	}
	return nil
}

// AuthorizeResponseIntake enforces the monthly response quota before intake.
func (s *service) AuthorizeResponseIntake(ctx context.Context, accountID uuid.UUID) error {
	eval, err := s.Evaluate(ctx, accountID)
	if err != nil {
		return err
	}
	s.observe("response_intake", eval.PlanLimits.CanReceiveResponse)
	if !eval.PlanLimits.CanReceiveResponse {
		return pkgerrors.New(pkgerrors.CodeQuotaExceeded, "monthly response quota reached for current plan").
			WithDetails(quotaDetails(eval.PlanLimits))
	}
	return nil
}

func (s *service) resolveSubscription(ctx context.Context, accountID uuid.UUID) (SubscriptionState, enums.PlanTier, string) {
	sub, err := s.subscriptions.FindCurrentByAccount(ctx, accountID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			// fail closed: an unknown billing state must not unlock paid quotas
			s.logg.Error(ctx, "loading subscription for entitlement evaluation", err)
		}
		return EvaluateSubscription(nil), enums.PlanTierTrial, ""
	}

	state := EvaluateSubscription(sub)
	if !state.IsActive || sub.PlanID == nil {
		return state, enums.PlanTierTrial, ""
	}

	plan, err := s.plans.FindPlanByID(ctx, *sub.PlanID)
	if err != nil {
		// unrecognized plan falls back to trial quotas, restrictive not open
		s.logg.Error(ctx, "loading plan for entitlement evaluation", err)
		return state, enums.PlanTierTrial, ""
	}
	return state, plan.Tier, plan.DisplayName
}

func (s *service) failClosed() Evaluation {
	trial := ExpiredTrialFallback()
	planLimits := BuildPlanLimitInfo(Quotas{}, Usage{Users: defaultSeatCount}, false, false, "")
	return Evaluation{
		Trial:        trial,
		Subscription: EvaluateSubscription(nil),
		PlanLimits:   planLimits,
	}
}

// quotaDetails shapes the blocked-gate payload so clients can render both the
// current ceiling and the tier that would lift it.
func quotaDetails(info PlanLimitInfo) map[string]any {
	details := map[string]any{
		"limits": info.Limits,
		"usage":  info.Usage,
	}
	if info.RecommendedTier != nil {
		details["recommended_tier"] = *info.RecommendedTier
	}
	return details
}

func (s *service) observe(action string, allowed bool) {
	if s.metrics != nil {
		s.metrics.ObserveDecision(action, allowed)
	}
}

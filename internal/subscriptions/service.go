package subscriptions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
)

type billingRepository interface {
	FindPlanByID(ctx context.Context, id string) (*models.BillingPlan, error)
	FindDefaultPlan(ctx context.Context) (*models.BillingPlan, error)
	ListActivePlans(ctx context.Context) ([]models.BillingPlan, error)
	FindCurrentByAccount(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error)
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
	UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status enums.SubscriptionStatus, periodEnd *time.Time) error
	SetCancelAtPeriodEnd(ctx context.Context, id uuid.UUID, cancel bool) error
}

type accountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	SetSubscriptionActive(ctx context.Context, id uuid.UUID, active bool) error
	SetSquareCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
}

// Service defines the subscription lifecycle surface.
type Service interface {
	Subscribe(ctx context.Context, accountID uuid.UUID, input SubscribeInput) (*SubscriptionDTO, bool, error)
	Cancel(ctx context.Context, accountID uuid.UUID) error
	Current(ctx context.Context, accountID uuid.UUID) (*SubscriptionDTO, error)
	ListPlans(ctx context.Context) ([]PlanDTO, error)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	BillingRepo billingRepository
	AccountRepo accountRepository
	Square      SquareGateway
	Logger      *logger.Logger
}

type service struct {
	billing  billingRepository
	accounts accountRepository
	square   SquareGateway
	logg     *logger.Logger
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing repo is required")
	}
	if params.AccountRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account repo is required")
	}
	if params.Square == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "square gateway is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		billing:  params.BillingRepo,
		accounts: params.AccountRepo,
		square:   params.Square,
		logg:     params.Logger,
	}, nil
}

// Subscribe starts a paid subscription for the account. When an active
// subscription already exists it is returned as-is and the second return
// value is false.
func (s *service) Subscribe(ctx context.Context, accountID uuid.UUID, input SubscribeInput) (*SubscriptionDTO, bool, error) {
	if accountID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if strings.TrimSpace(input.CardSourceID) == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "card_source_id is required")
	}

	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return nil, false, err
	}

	plan, err := s.resolvePlan(ctx, input.PlanID)
	if err != nil {
		return nil, false, err
	}

	if existing, err := s.findCurrent(ctx, accountID); err != nil {
		return nil, false, err
	} else if existing != nil && IsActiveStatus(existing.Status) {
		return FromModel(existing), false, nil
	}

	customerID, err := s.ensureCustomer(ctx, account)
	if err != nil {
		return nil, false, err
	}

	cardID, err := s.square.CreateCardID(ctx, CardParams{
		CustomerID:     customerID,
		SourceID:       strings.TrimSpace(input.CardSourceID),
		CardholderName: strings.TrimSpace(input.CardholderName),
	})
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "vault card")
	}

	squareSub, err := s.square.CreateSubscription(ctx, &SquareSubscriptionParams{
		CustomerID:      customerID,
		PlanVariationID: plan.SquareBillingPlanID,
		CardID:          cardID,
		Metadata: map[string]string{
			"account_id": accountID.String(),
		},
	})
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create square subscription")
	}

	sub, err := BuildSubscriptionFromSquare(squareSub, accountID, plan.ID, customerID, cardID)
	if err != nil {
		return nil, false, err
	}
	if err := s.billing.UpsertSubscription(ctx, sub); err != nil {
		// The provider subscription exists but we failed to record it. Cancel
		// it so billing state never diverges from ours.
		if _, cancelErr := s.square.CancelSubscription(ctx, squareSub.ID); cancelErr != nil {
			s.logg.Error(ctx, "canceling orphaned square subscription", cancelErr)
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist subscription")
	}

	if err := s.accounts.SetSubscriptionActive(ctx, accountID, IsActiveStatus(sub.Status)); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update account subscription flag")
	}

	return FromModel(sub), true, nil
}

// Cancel terminates the current subscription (if any). Square usually
// schedules the cancellation for the period boundary; in that case the row
// keeps entitling until the period ends and only the cancel flag flips. An
// immediate provider cancel clears the account flag right away.
func (s *service) Cancel(ctx context.Context, accountID uuid.UUID) error {
	if accountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}

	sub, err := s.findCurrent(ctx, accountID)
	if err != nil {
		return err
	}
	if sub == nil || !IsActiveStatus(sub.Status) {
		if err := s.accounts.SetSubscriptionActive(ctx, accountID, false); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update account subscription flag")
		}
		return nil
	}

	squareSub, err := s.square.CancelSubscription(ctx, sub.SquareSubscriptionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel square subscription")
	}

	if err := UpdateSubscriptionFromSquare(sub, squareSub); err != nil {
		return err
	}

	if IsActiveStatus(sub.Status) {
		// Square reports the pending cancellation as still active with a
		// canceled-through date; the reconcile job records the final flip
		// once the period lapses.
		if err := s.billing.UpsertSubscription(ctx, sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cancellation")
		}
		if err := s.billing.SetCancelAtPeriodEnd(ctx, sub.ID, true); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag period end cancellation")
		}
		return nil
	}

	var periodEnd *time.Time
	if !sub.CurrentPeriodEnd.IsZero() {
		end := sub.CurrentPeriodEnd
		periodEnd = &end
	}
	if err := s.billing.UpdateSubscriptionStatus(ctx, sub.ID, enums.SubscriptionStatusCanceled, periodEnd); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cancellation")
	}

	if err := s.accounts.SetSubscriptionActive(ctx, accountID, false); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update account subscription flag")
	}
	return nil
}

// Current returns the account's latest subscription row, or nil when the
// account has never checked out.
func (s *service) Current(ctx context.Context, accountID uuid.UUID) (*SubscriptionDTO, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	sub, err := s.findCurrent(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return FromModel(sub), nil
}

// ListPlans returns the purchasable plans ordered by price.
func (s *service) ListPlans(ctx context.Context) ([]PlanDTO, error) {
	plans, err := s.billing.ListActivePlans(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list plans")
	}
	out := make([]PlanDTO, 0, len(plans))
	for i := range plans {
		out = append(out, *PlanFromModel(&plans[i]))
	}
	return out, nil
}

func (s *service) loadAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return account, nil
}

func (s *service) resolvePlan(ctx context.Context, planID string) (*models.BillingPlan, error) {
	var (
		plan *models.BillingPlan
		err  error
	)
	if strings.TrimSpace(planID) != "" {
		plan, err = s.billing.FindPlanByID(ctx, strings.TrimSpace(planID))
	} else {
		plan, err = s.billing.FindDefaultPlan(ctx)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "billing plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load billing plan")
	}
	if plan.Status != enums.PlanStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "billing plan is not purchasable")
	}
	return plan, nil
}

func (s *service) ensureCustomer(ctx context.Context, account *models.Account) (string, error) {
	if account.SquareCustomerID != nil && strings.TrimSpace(*account.SquareCustomerID) != "" {
		return *account.SquareCustomerID, nil
	}

	email := ""
	if account.Email != nil {
		email = *account.Email
	}
	customerID, err := s.square.EnsureCustomerID(ctx, CustomerParams{
		Email:       email,
		CompanyName: account.CompanyName,
		ReferenceID: account.ID.String(),
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure square customer")
	}
	if err := s.accounts.SetSquareCustomerID(ctx, account.ID, customerID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store square customer id")
	}
	return customerID, nil
}

func (s *service) findCurrent(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.billing.FindCurrentByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription")
	}
	return sub, nil
}

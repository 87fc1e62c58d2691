package squarewebhook

import (
	"context"
	"errors"
	"strings"

	"github.com/dmarqs/promoterhub-backend/internal/subscriptions"
	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type billingRepository interface {
	FindBySquareSubscriptionID(ctx context.Context, squareSubID string) (*models.Subscription, error)
	FindPlanBySquareID(ctx context.Context, squarePlanID string) (*models.BillingPlan, error)
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
}

type accountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	SetSubscriptionActive(ctx context.Context, id uuid.UUID, active bool) error
}

type subscriptionFetcher interface {
	GetSubscription(ctx context.Context, id string) (*subscriptions.SquareSubscription, error)
}

type ServiceParams struct {
	BillingRepo billingRepository
	AccountRepo accountRepository
	Square      subscriptionFetcher
	Logger      *logger.Logger
}

type Service struct {
	billing  billingRepository
	accounts accountRepository
	square   subscriptionFetcher
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.AccountRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "account repo required")
	}
	if params.Square == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "square client required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		billing:  params.BillingRepo,
		accounts: params.AccountRepo,
		square:   params.Square,
		logg:     params.Logger,
	}, nil
}

type SquareWebhookEvent struct {
	EventID string            `json:"event_id"`
	Type    string            `json:"type"`
	Data    SquareWebhookData `json:"data"`
}

type SquareWebhookData struct {
	Type   string              `json:"type"`
	ID     string              `json:"id"`
	Object SquareWebhookObject `json:"object"`
}

type SquareWebhookObject struct {
	Type         string                            `json:"type"`
	ID           string                            `json:"id"`
	Subscription *subscriptions.SquareSubscription `json:"subscription"`
}

// HandleEvent processes Square subscription and invoice events.
func (s *Service) HandleEvent(ctx context.Context, event *SquareWebhookEvent) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "square event required")
	}

	switch strings.ToLower(event.Type) {
	case "subscription.created", "subscription.updated", "subscription.canceled":
		if event.Data.Object.Subscription == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "subscription payload missing")
		}
		return s.syncSubscription(ctx, event.Data.Object.Subscription)
	case "invoice.paid", "invoice.payment_failed":
		subscriptionID := event.Data.Object.ID
		if subscriptionID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "subscription id missing")
		}
		squareSub, err := s.square.GetSubscription(ctx, subscriptionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch square subscription")
		}
		return s.syncSubscription(ctx, squareSub)
	default:
		return nil
	}
}

// syncSubscription mirrors the provider state into the billing tables and
// refreshes the account's subscription flag.
func (s *Service) syncSubscription(ctx context.Context, squareSub *subscriptions.SquareSubscription) error {
	if squareSub == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription is required")
	}

	stored, err := s.billing.FindBySquareSubscriptionID(ctx, squareSub.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}

	var synced *models.Subscription
	if stored == nil {
		synced, err = s.buildRow(ctx, squareSub)
		if err != nil {
			return err
		}
	} else {
		if err := subscriptions.UpdateSubscriptionFromSquare(stored, squareSub); err != nil {
			return err
		}
		synced = stored
	}

	if err := s.billing.UpsertSubscription(ctx, synced); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist subscription")
	}

	account, err := s.accounts.FindByID(ctx, synced.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}

	active := subscriptions.IsActiveStatus(synced.Status)
	if account.SubscriptionActive != active {
		if err := s.accounts.SetSubscriptionActive(ctx, account.ID, active); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription flag")
		}
	}

	return nil
}

// buildRow constructs a subscription row for an event we have no record of,
// resolving the account from Square metadata.
func (s *Service) buildRow(ctx context.Context, squareSub *subscriptions.SquareSubscription) (*models.Subscription, error) {
	accountID, err := subscriptions.AccountIDFromMetadata(squareSub.Metadata)
	if err != nil {
		return nil, err
	}

	planID := ""
	if variation := strings.TrimSpace(squareSub.PlanVariationID); variation != "" {
		plan, planErr := s.billing.FindPlanBySquareID(ctx, variation)
		switch {
		case planErr == nil:
			planID = plan.ID
		case errors.Is(planErr, gorm.ErrRecordNotFound):
			s.logg.Warn(ctx, "square plan variation has no billing plan: "+variation)
		default:
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, planErr, "resolve billing plan")
		}
	}

	customerID := ""
	cardID := ""
	if squareSub.Metadata != nil {
		customerID = squareSub.Metadata["square_customer_id"]
		cardID = squareSub.Metadata["square_card_id"]
	}

	return subscriptions.BuildSubscriptionFromSquare(squareSub, accountID, planID, customerID, cardID)
}

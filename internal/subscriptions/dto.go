package subscriptions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
)

// SubscriptionDTO is the transport shape for subscription state.
type SubscriptionDTO struct {
	ID                 uuid.UUID                `json:"id"`
	AccountID          uuid.UUID                `json:"account_id"`
	Status             enums.SubscriptionStatus `json:"status"`
	PlanID             *string                  `json:"plan_id,omitempty"`
	CurrentPeriodStart *time.Time               `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time               `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool                     `json:"cancel_at_period_end"`
	CanceledAt         *time.Time               `json:"canceled_at,omitempty"`
}

// PlanDTO is the transport shape for purchasable plans.
type PlanDTO struct {
	ID           string                `json:"id"`
	DisplayName  string                `json:"display_name"`
	Tier         enums.PlanTier        `json:"tier"`
	Interval     enums.BillingInterval `json:"interval"`
	PriceAmount  decimal.Decimal       `json:"price_amount"`
	CurrencyCode string                `json:"currency_code"`
	IsDefault    bool                  `json:"is_default"`
	Features     []string              `json:"features"`
}

// SubscribeInput captures the data required to start a paid subscription.
type SubscribeInput struct {
	PlanID         string `json:"plan_id"`
	CardSourceID   string `json:"card_source_id" validate:"required"`
	CardholderName string `json:"cardholder_name"`
}

func FromModel(sub *models.Subscription) *SubscriptionDTO {
	if sub == nil {
		return nil
	}
	dto := &SubscriptionDTO{
		ID:                 sub.ID,
		AccountID:          sub.AccountID,
		Status:             sub.Status,
		PlanID:             sub.PlanID,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CanceledAt:         sub.CanceledAt,
	}
	if !sub.CurrentPeriodEnd.IsZero() {
		end := sub.CurrentPeriodEnd
		dto.CurrentPeriodEnd = &end
	}
	return dto
}

func PlanFromModel(plan *models.BillingPlan) *PlanDTO {
	if plan == nil {
		return nil
	}
	return &PlanDTO{
		ID:           plan.ID,
		DisplayName:  plan.DisplayName,
		Tier:         plan.Tier,
		Interval:     plan.Interval,
		PriceAmount:  plan.PriceAmount,
		CurrencyCode: plan.CurrencyCode,
		IsDefault:    plan.IsDefault,
		Features:     plan.Features,
	}
}

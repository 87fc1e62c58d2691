package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/dmarqs/promoterhub-backend/pkg/enums"
)

// BillingPlan captures the local metadata for a subscription plan. Tier is the
// entitlement key; DisplayName is presentation only and never drives logic.
type BillingPlan struct {
	ID                  string                `gorm:"column:id;primaryKey"`
	DisplayName         string                `gorm:"column:display_name;not null"`
	Tier                enums.PlanTier        `gorm:"column:tier;type:plan_tier;not null"`
	Status              enums.PlanStatus      `gorm:"column:status;type:plan_status;not null"`
	SquareBillingPlanID string                `gorm:"column:square_billing_plan_id;not null;uniqueIndex"`
	IsDefault           bool                  `gorm:"column:is_default;not null;default:false"`
	Interval            enums.BillingInterval `gorm:"column:interval;type:billing_interval;not null"`
	PriceAmount         decimal.Decimal       `gorm:"column:price_amount;type:numeric(12,2);not null"`
	CurrencyCode        string                `gorm:"column:currency_code;not null"`
	Features            pq.StringArray        `gorm:"column:features;type:text[];default:ARRAY[]::text[]"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

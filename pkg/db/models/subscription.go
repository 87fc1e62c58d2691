package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/pkg/enums"
)

// Subscription persists Square subscription state per account. Rows are never
// deleted; payment events only transition Status.
type Subscription struct {
	ID                   uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID            uuid.UUID                `gorm:"column:account_id;type:uuid;not null;index"`
	SquareSubscriptionID string                   `gorm:"column:square_subscription_id;not null;unique"`
	Status               enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'not_started'"`
	PlanID               *string                  `gorm:"column:plan_id"`
	SquareCustomerID     *string                  `gorm:"column:square_customer_id"`
	SquareCardID         *string                  `gorm:"column:square_card_id"`
	CurrentPeriodStart   *time.Time               `gorm:"column:current_period_start"`
	CurrentPeriodEnd     time.Time                `gorm:"column:current_period_end;not null"`
	CancelAtPeriodEnd    bool                     `gorm:"column:cancel_at_period_end;not null;default:false"`
	CanceledAt           *time.Time               `gorm:"column:canceled_at"`
	Metadata             json.RawMessage          `gorm:"column:metadata;type:jsonb"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

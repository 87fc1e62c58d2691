package models

import (
	"time"

	"github.com/google/uuid"
)

// Account represents the canonical tenant model. CreatedAt anchors the 7-day
// trial window; there is no column to extend or reset a trial.
type Account struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerUserID        uuid.UUID  `gorm:"column:owner_user_id;type:uuid;not null;index"`
	CompanyName        string     `gorm:"column:company_name;not null"`
	Email              *string    `gorm:"column:email"`
	SquareCustomerID   *string    `gorm:"column:square_customer_id"`
	SubscriptionActive bool       `gorm:"column:subscription_active;not null;default:false"`
	LastActiveAt       *time.Time `gorm:"column:last_active_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Response is a single submitted NPS rating. CreatedAt drives the
// responses-per-month usage accounting.
type Response struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CampaignID uuid.UUID  `gorm:"column:campaign_id;type:uuid;not null;index"`
	AccountID  uuid.UUID  `gorm:"column:account_id;type:uuid;not null;index"`
	ContactID  *uuid.UUID `gorm:"column:contact_id;type:uuid"`
	Score      int        `gorm:"column:score;not null"`
	Comment    *string    `gorm:"column:comment"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime;index"`
}

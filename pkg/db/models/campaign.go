package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/pkg/enums"
)

// Campaign is a single NPS survey owned by an account.
type Campaign struct {
	ID        uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID uuid.UUID            `gorm:"column:account_id;type:uuid;not null;index"`
	Name      string               `gorm:"column:name;not null"`
	Question  string               `gorm:"column:question;not null"`
	Status    enums.CampaignStatus `gorm:"column:status;type:campaign_status;not null;default:'draft'"`
	Channel   enums.Channel        `gorm:"column:channel;type:survey_channel;not null;default:'link'"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Contact is an addressable survey recipient.
type Contact struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID  uuid.UUID       `gorm:"column:account_id;type:uuid;not null;index:idx_contacts_account_email,unique"`
	Email      *string         `gorm:"column:email;index:idx_contacts_account_email,unique"`
	Phone      *string         `gorm:"column:phone"`
	Name       string          `gorm:"column:name;not null"`
	Attributes json.RawMessage `gorm:"column:attributes;type:jsonb"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Segment is a named grouping of contacts.
type Segment struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID uuid.UUID       `gorm:"column:account_id;type:uuid;not null;index"`
	Name      string          `gorm:"column:name;not null"`
	Filter    json.RawMessage `gorm:"column:filter;type:jsonb"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// SegmentMember joins contacts into segments.
type SegmentMember struct {
	SegmentID uuid.UUID `gorm:"column:segment_id;type:uuid;primaryKey"`
	ContactID uuid.UUID `gorm:"column:contact_id;type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

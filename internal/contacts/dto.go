package contacts

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
)

// ContactDTO is the transport shape for survey recipients.
type ContactDTO struct {
	ID         uuid.UUID       `json:"id"`
	AccountID  uuid.UUID       `json:"account_id"`
	Email      *string         `json:"email,omitempty"`
	Phone      *string         `json:"phone,omitempty"`
	Name       string          `json:"name"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ContactsPageDTO is one cursor page of contacts.
type ContactsPageDTO struct {
	Items      []ContactDTO `json:"items"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

// CreateContactDTO holds the data required to persist a new contact.
type CreateContactDTO struct {
	Email      *string
	Phone      *string
	Name       string
	Attributes json.RawMessage
}

// SegmentDTO is the transport shape for contact groupings.
type SegmentDTO struct {
	ID        uuid.UUID       `json:"id"`
	AccountID uuid.UUID       `json:"account_id"`
	Name      string          `json:"name"`
	Filter    json.RawMessage `json:"filter,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func FromModel(c *models.Contact) *ContactDTO {
	if c == nil {
		return nil
	}
	return &ContactDTO{
		ID:         c.ID,
		AccountID:  c.AccountID,
		Email:      c.Email,
		Phone:      c.Phone,
		Name:       c.Name,
		Attributes: c.Attributes,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func SegmentFromModel(s *models.Segment) *SegmentDTO {
	if s == nil {
		return nil
	}
	return &SegmentDTO{
		ID:        s.ID,
		AccountID: s.AccountID,
		Name:      s.Name,
		Filter:    s.Filter,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (c CreateContactDTO) ToModel(accountID uuid.UUID) *models.Contact {
	return &models.Contact{
		AccountID:  accountID,
		Email:      c.Email,
		Phone:      c.Phone,
		Name:       c.Name,
		Attributes: c.Attributes,
	}
}

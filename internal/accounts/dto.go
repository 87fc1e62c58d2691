package accounts

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
)

// AccountDTO is the transport shape for tenant records.
type AccountDTO struct {
	ID                 uuid.UUID `json:"id"`
	OwnerUserID        uuid.UUID `json:"owner_user_id"`
	CompanyName        string    `json:"company_name"`
	Email              *string   `json:"email,omitempty"`
	SubscriptionActive bool      `json:"subscription_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CreateAccountDTO holds the data required to persist a new account.
type CreateAccountDTO struct {
	OwnerUserID uuid.UUID
	CompanyName string
	Email       *string
}

// UpdateAccountDTO carries the mutable profile fields.
type UpdateAccountDTO struct {
	CompanyName *string
	Email       *string
}

func FromModel(a *models.Account) *AccountDTO {
	if a == nil {
		return nil
	}
	return &AccountDTO{
		ID:                 a.ID,
		OwnerUserID:        a.OwnerUserID,
		CompanyName:        a.CompanyName,
		Email:              a.Email,
		SubscriptionActive: a.SubscriptionActive,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func (c CreateAccountDTO) ToModel() *models.Account {
	return &models.Account{
		OwnerUserID: c.OwnerUserID,
		CompanyName: c.CompanyName,
		Email:       c.Email,
	}
}

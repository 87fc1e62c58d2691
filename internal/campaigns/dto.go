package campaigns

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
)

// CampaignDTO is the transport shape for survey campaigns.
type CampaignDTO struct {
	ID        uuid.UUID            `json:"id"`
	AccountID uuid.UUID            `json:"account_id"`
	Name      string               `json:"name"`
	Question  string               `json:"question"`
	Status    enums.CampaignStatus `json:"status"`
	Channel   enums.Channel        `json:"channel"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// CampaignsPageDTO is one cursor page of campaigns.
type CampaignsPageDTO struct {
	Items      []CampaignDTO `json:"items"`
	NextCursor *string       `json:"next_cursor,omitempty"`
}

// CreateCampaignDTO holds the data required to persist a new campaign.
type CreateCampaignDTO struct {
	Name     string
	Question string
	Channel  enums.Channel
}

// UpdateCampaignDTO carries the mutable campaign fields.
type UpdateCampaignDTO struct {
	Name     *string
	Question *string
	Channel  *enums.Channel
}

func FromModel(c *models.Campaign) *CampaignDTO {
	if c == nil {
		return nil
	}
	return &CampaignDTO{
		ID:        c.ID,
		AccountID: c.AccountID,
		Name:      c.Name,
		Question:  c.Question,
		Status:    c.Status,
		Channel:   c.Channel,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (c CreateCampaignDTO) ToModel(accountID uuid.UUID) *models.Campaign {
	channel := c.Channel
	if channel == "" {
		channel = enums.ChannelLink
	}
	return &models.Campaign{
		AccountID: accountID,
		Name:      c.Name,
		Question:  c.Question,
		Status:    enums.CampaignStatusDraft,
		Channel:   channel,
	}
}

package feedback

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
)

// ResponseDTO is the transport shape for a submitted NPS rating.
type ResponseDTO struct {
	ID         uuid.UUID         `json:"id"`
	CampaignID uuid.UUID         `json:"campaign_id"`
	ContactID  *uuid.UUID        `json:"contact_id,omitempty"`
	Score      int               `json:"score"`
	Category   enums.NPSCategory `json:"category"`
	Comment    *string           `json:"comment,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ResponsesPageDTO is one cursor page of responses.
type ResponsesPageDTO struct {
	Items      []ResponseDTO `json:"items"`
	NextCursor *string       `json:"next_cursor,omitempty"`
}

// SubmitResponseDTO holds an incoming rating from the public survey surface.
type SubmitResponseDTO struct {
	Score     int
	Comment   *string
	ContactID *uuid.UUID
}

func FromModel(r *models.Response) *ResponseDTO {
	if r == nil {
		return nil
	}
	category, _ := enums.CategorizeScore(r.Score)
	return &ResponseDTO{
		ID:         r.ID,
		CampaignID: r.CampaignID,
		ContactID:  r.ContactID,
		Score:      r.Score,
		Category:   category,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}

package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/pkg/enums"
)

// ResponseEvent is the analytics record emitted for every accepted NPS
// response. It flows through Pub/Sub and lands in the BigQuery events table.
type ResponseEvent struct {
	EventID    string            `json:"event_id" bigquery:"event_id"`
	AccountID  uuid.UUID         `json:"account_id" bigquery:"account_id"`
	CampaignID uuid.UUID         `json:"campaign_id" bigquery:"campaign_id"`
	ResponseID uuid.UUID         `json:"response_id" bigquery:"response_id"`
	Score      int               `json:"score" bigquery:"score"`
	Category   enums.NPSCategory `json:"category" bigquery:"category"`
	OccurredAt time.Time         `json:"occurred_at" bigquery:"occurred_at"`
}

// NewResponseEvent builds the event for a stored response.
func NewResponseEvent(accountID, campaignID, responseID uuid.UUID, score int, category enums.NPSCategory, occurredAt time.Time) ResponseEvent {
	return ResponseEvent{
		EventID:    uuid.NewString(),
		AccountID:  accountID,
		CampaignID: campaignID,
		ResponseID: responseID,
		Score:      score,
		Category:   category,
		OccurredAt: occurredAt.UTC(),
	}
}

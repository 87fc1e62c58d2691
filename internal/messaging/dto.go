package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/pkg/enums"
)

// TestSendInput is a request to deliver a single survey preview to the
// account owner's own inbox or phone.
type TestSendInput struct {
	CampaignID *uuid.UUID `json:"campaign_id,omitempty"`
	Channel    string     `json:"channel" validate:"required"`
	Recipient  string     `json:"recipient" validate:"required"`
	Message    string     `json:"message,omitempty"`
}

// TestMessageEvent is the payload handed to the downstream sender functions.
type TestMessageEvent struct {
	AccountID   uuid.UUID     `json:"account_id"`
	CampaignID  *uuid.UUID    `json:"campaign_id,omitempty"`
	Channel     enums.Channel `json:"channel"`
	Recipient   string        `json:"recipient"`
	From        string        `json:"from"`
	Body        string        `json:"body"`
	RequestedAt time.Time     `json:"requested_at"`
}

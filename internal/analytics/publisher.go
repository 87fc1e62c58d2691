package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	pubsublib "cloud.google.com/go/pubsub/v2"

	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
)

// EventPublisher pushes analytics events toward the warehouse pipeline.
type EventPublisher interface {
	PublishResponse(ctx context.Context, event ResponseEvent) error
}

// PubSubPublisher publishes response events on the analytics topic.
type PubSubPublisher struct {
	publisher *pubsublib.Publisher
}

// NewPubSubPublisher wraps the topic publisher handle.
func NewPubSubPublisher(publisher *pubsublib.Publisher) (*PubSubPublisher, error) {
	if publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "analytics publisher is required")
	}
	return &PubSubPublisher{publisher: publisher}, nil
}

// PublishResponse serializes the event and waits for the server ack.
func (p *PubSubPublisher) PublishResponse(ctx context.Context, event ResponseEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal response event: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsublib.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type": "nps_response",
			"account_id": event.AccountID.String(),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish response event: %w", err)
	}
	return nil
}

package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	pubsublib "cloud.google.com/go/pubsub/v2"

	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
)

// MessagePublisher hands a test message to the external sender functions.
type MessagePublisher interface {
	PublishTestMessage(ctx context.Context, event TestMessageEvent) error
}

// PubSubPublisher publishes test messages on the messaging topic.
type PubSubPublisher struct {
	publisher *pubsublib.Publisher
}

// NewPubSubPublisher wraps the topic publisher handle.
func NewPubSubPublisher(publisher *pubsublib.Publisher) (*PubSubPublisher, error) {
	if publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "messaging publisher is required")
	}
	return &PubSubPublisher{publisher: publisher}, nil
}

// PublishTestMessage serializes the event and waits for the server ack.
func (p *PubSubPublisher) PublishTestMessage(ctx context.Context, event TestMessageEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal test message: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsublib.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type": "test_message",
			"channel":    event.Channel.String(),
			"account_id": event.AccountID.String(),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish test message: %w", err)
	}
	return nil
}

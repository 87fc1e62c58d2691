package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/dmarqs/promoterhub-backend/internal/analytics"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
	"github.com/dmarqs/promoterhub-backend/pkg/redis"
)

const consumerScope = "analytics"

type idempotencyChecker interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// IdempotencyGuard deduplicates event deliveries through Redis.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &IdempotencyGuard{store: store, ttl: ttl}, nil
}

func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	key := g.store.IdempotencyKey(consumerScope, eventID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(consumerScope, eventID))
}

// Consumer drains the analytics subscription into the warehouse recorder.
type Consumer struct {
	subscription *gcppubsub.Subscriber
	recorder     analytics.Recorder
	manager      idempotencyChecker
	logg         *logger.Logger
}

// NewConsumer builds a new analytics consumer.
func NewConsumer(subscription *gcppubsub.Subscriber, recorder analytics.Recorder, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, errors.New("analytics subscription is required")
	}
	if recorder == nil {
		return nil, errors.New("analytics recorder is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		subscription: subscription,
		recorder:     recorder,
		manager:      manager,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run consumes response events until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if c.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *Consumer) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}
	logCtx := c.logg.WithFields(ctx, fields)

	event, err := decodeEvent(msg)
	if err != nil {
		// A payload that cannot decode never will; drop it.
		fields["error"] = err.Error()
		c.logg.Warn(c.logg.WithFields(ctx, fields), "invalid response event payload")
		return processResult{}
	}
	fields["event_id"] = event.EventID
	fields["account_id"] = event.AccountID.String()
	fields["campaign_id"] = event.CampaignID.String()
	logCtx = c.logg.WithFields(ctx, fields)

	already, err := c.manager.CheckAndMark(logCtx, event.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{}
	}

	if err := c.recorder.RecordResponseEvents(logCtx, []analytics.ResponseEvent{*event}); err != nil {
		c.logg.Error(logCtx, "warehouse insert failed", err)
		_ = c.manager.Delete(logCtx, event.EventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "response event ingested")
	return processResult{}
}

func decodeEvent(msg *gcppubsub.Message) (*analytics.ResponseEvent, error) {
	var event analytics.ResponseEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return nil, fmt.Errorf("decode response event: %w", err)
	}
	if strings.TrimSpace(event.EventID) == "" {
		event.EventID = strings.TrimSpace(msg.Attributes["event_id"])
	}
	if event.EventID == "" {
		return nil, errors.New("event_id missing")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return &event, nil
}

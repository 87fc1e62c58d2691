package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	pipeline "github.com/dmarqs/promoterhub-backend/internal/analytics"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
	"github.com/rs/zerolog"
)

type stubRecorder struct {
	recorded []pipeline.ResponseEvent
	err      error
}

func (s *stubRecorder) RecordResponseEvents(ctx context.Context, events []pipeline.ResponseEvent) error {
	if s.err != nil {
		return s.err
	}
	s.recorded = append(s.recorded, events...)
	return nil
}

type stubManager struct {
	checkResult bool
	checkErr    error
	checked     []string
	deleted     []string
}

func (s *stubManager) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	s.checked = append(s.checked, eventID)
	return s.checkResult, s.checkErr
}

func (s *stubManager) Delete(ctx context.Context, eventID string) error {
	s.deleted = append(s.deleted, eventID)
	return nil
}

func newTestConsumer(recorder *stubRecorder, manager *stubManager) *Consumer {
	return &Consumer{
		recorder: recorder,
		manager:  manager,
		logg:     logger.New(logger.Options{ServiceName: "analytics-test", Level: zerolog.ErrorLevel, Output: io.Discard}),
	}
}

func buildResponseMessage(t *testing.T) *gcppubsub.Message {
	t.Helper()
	event := pipeline.NewResponseEvent(uuid.New(), uuid.New(), uuid.New(), 9, enums.NPSCategoryPromoter, time.Now())
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return &gcppubsub.Message{ID: "msg-1", Data: data}
}

func TestProcessRecordsEvent(t *testing.T) {
	recorder := &stubRecorder{}
	manager := &stubManager{}
	consumer := newTestConsumer(recorder, manager)

	res := consumer.process(context.Background(), buildResponseMessage(t))
	if res.nack {
		t.Fatalf("expected ack")
	}
	if len(recorder.recorded) != 1 {
		t.Fatalf("expected one recorded event, got %d", len(recorder.recorded))
	}
	if recorder.recorded[0].Score != 9 {
		t.Fatalf("unexpected score %d", recorder.recorded[0].Score)
	}
	if len(manager.checked) != 1 {
		t.Fatalf("expected idempotency check")
	}
}

func TestProcessDuplicateAcks(t *testing.T) {
	recorder := &stubRecorder{}
	manager := &stubManager{checkResult: true}
	consumer := newTestConsumer(recorder, manager)

	res := consumer.process(context.Background(), buildResponseMessage(t))
	if res.nack {
		t.Fatalf("duplicate should ack")
	}
	if len(recorder.recorded) != 0 {
		t.Fatalf("duplicate must not reach the recorder")
	}
}

func TestProcessInsertFailureRetries(t *testing.T) {
	recorder := &stubRecorder{err: errors.New("stream closed")}
	manager := &stubManager{}
	consumer := newTestConsumer(recorder, manager)

	res := consumer.process(context.Background(), buildResponseMessage(t))
	if !res.nack {
		t.Fatalf("expected nack on insert failure")
	}
	if len(manager.deleted) != 1 {
		t.Fatalf("expected idempotency release on failure")
	}
}

func TestProcessInvalidPayloadDrops(t *testing.T) {
	recorder := &stubRecorder{}
	manager := &stubManager{}
	consumer := newTestConsumer(recorder, manager)

	res := consumer.process(context.Background(), &gcppubsub.Message{ID: "msg-bad", Data: []byte("not json")})
	if res.nack {
		t.Fatalf("undecodable payload should ack")
	}
	if len(manager.checked) != 0 {
		t.Fatalf("idempotency manager should not be touched")
	}
}

func TestProcessIdempotencyErrorRetries(t *testing.T) {
	recorder := &stubRecorder{}
	manager := &stubManager{checkErr: errors.New("redis down")}
	consumer := newTestConsumer(recorder, manager)

	res := consumer.process(context.Background(), buildResponseMessage(t))
	if !res.nack {
		t.Fatalf("expected nack when idempotency store fails")
	}
	if len(recorder.recorded) != 0 {
		t.Fatalf("recorder must not run without idempotency mark")
	}
}

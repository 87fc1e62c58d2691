package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/internal/messaging"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
)

type stubMessagingService struct {
	lastAccount uuid.UUID
	lastInput   messaging.TestSendInput
	event       *messaging.TestMessageEvent
	err         error
}

func (s *stubMessagingService) SendTest(ctx context.Context, accountID uuid.UUID, input messaging.TestSendInput) (*messaging.TestMessageEvent, error) {
	s.lastAccount = accountID
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return s.event, nil
}

func TestMessagingTestQueuesEvent(t *testing.T) {
	accountID := uuid.New()
	svc := &stubMessagingService{event: &messaging.TestMessageEvent{
		AccountID:   accountID,
		Channel:     enums.ChannelEmail,
		Recipient:   "owner@example.com",
		Body:        "How likely are you to recommend us?",
		RequestedAt: time.Now().UTC(),
	}}
	handler := MessagingTest(svc, nil)

	body := []byte(`{"channel":"email","recipient":"owner@example.com","message":"How likely are you to recommend us?"}`)
	req := authedRequest(http.MethodPost, "/api/v1/messaging/test", body, accountID)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastAccount != accountID {
		t.Fatalf("expected account %s got %s", accountID, svc.lastAccount)
	}
	if svc.lastInput.Channel != "email" {
		t.Fatalf("expected email channel got %s", svc.lastInput.Channel)
	}
}

func TestMessagingTestValidationPassthrough(t *testing.T) {
	svc := &stubMessagingService{err: pkgerrors.New(pkgerrors.CodeValidation, "unknown channel")}
	handler := MessagingTest(svc, nil)

	body := []byte(`{"channel":"carrier-pigeon","recipient":"owner@example.com"}`)
	req := authedRequest(http.MethodPost, "/api/v1/messaging/test", body, uuid.New())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestMessagingTestRequiresRecipient(t *testing.T) {
	svc := &stubMessagingService{}
	handler := MessagingTest(svc, nil)

	body := []byte(`{"channel":"email"}`)
	req := authedRequest(http.MethodPost, "/api/v1/messaging/test", body, uuid.New())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

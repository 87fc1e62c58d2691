package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	squarewebhook "github.com/dmarqs/promoterhub-backend/internal/webhooks/square"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
)

type stubWebhookService struct {
	lastEvent *squarewebhook.SquareWebhookEvent
	err       error
}

func (s *stubWebhookService) HandleEvent(ctx context.Context, event *squarewebhook.SquareWebhookEvent) error {
	s.lastEvent = event
	return s.err
}

type stubGuard struct {
	duplicate bool
	checkErr  error
	deleted   []string
	marked    []string
}

func (s *stubGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if s.checkErr != nil {
		return false, s.checkErr
	}
	s.marked = append(s.marked, eventID)
	return s.duplicate, nil
}

func (s *stubGuard) Delete(ctx context.Context, eventID string) error {
	s.deleted = append(s.deleted, eventID)
	return nil
}

type stubSigner struct{ secret string }

func (s stubSigner) SigningSecret() string { return s.secret }

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func webhookRequest(payload []byte, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/square", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Square-Signature", signature)
	}
	return req
}

func TestSquareWebhookProcessesEvent(t *testing.T) {
	svc := &stubWebhookService{}
	guard := &stubGuard{}
	secret := "whsec"
	handler := SquareWebhook(svc, stubSigner{secret: secret}, guard, nil)

	payload := []byte(`{"event_id":"evt-1","type":"subscription.updated","data":{"id":"sq-sub-1"}}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(payload, signPayload(secret, payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastEvent == nil || svc.lastEvent.EventID != "evt-1" {
		t.Fatalf("expected event handed to service, got %+v", svc.lastEvent)
	}
	if len(guard.marked) != 1 || guard.marked[0] != "evt-1" {
		t.Fatalf("expected mark for evt-1, got %v", guard.marked)
	}
	if len(guard.deleted) != 0 {
		t.Fatalf("expected no deletes, got %v", guard.deleted)
	}
}

func TestSquareWebhookRejectsBadSignature(t *testing.T) {
	svc := &stubWebhookService{}
	guard := &stubGuard{}
	handler := SquareWebhook(svc, stubSigner{secret: "whsec"}, guard, nil)

	payload := []byte(`{"event_id":"evt-2","type":"subscription.updated"}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(payload, "deadbeef"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	if svc.lastEvent != nil {
		t.Fatalf("service should not run on bad signature")
	}
}

func TestSquareWebhookRequiresSignatureHeader(t *testing.T) {
	handler := SquareWebhook(&stubWebhookService{}, stubSigner{secret: "whsec"}, &stubGuard{}, nil)

	payload := []byte(`{"event_id":"evt-3"}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(payload, ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestSquareWebhookAcksDuplicates(t *testing.T) {
	svc := &stubWebhookService{}
	guard := &stubGuard{duplicate: true}
	secret := "whsec"
	handler := SquareWebhook(svc, stubSigner{secret: secret}, guard, nil)

	payload := []byte(`{"event_id":"evt-4","type":"subscription.updated"}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(payload, signPayload(secret, payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastEvent != nil {
		t.Fatalf("duplicate event should not reach the service")
	}
}

func TestSquareWebhookReleasesMarkOnHandlerFailure(t *testing.T) {
	svc := &stubWebhookService{err: pkgerrors.New(pkgerrors.CodeDependency, "square unavailable")}
	guard := &stubGuard{}
	secret := "whsec"
	handler := SquareWebhook(svc, stubSigner{secret: secret}, guard, nil)

	payload := []byte(`{"event_id":"evt-5","type":"invoice.payment_failed","data":{"id":"sq-sub-9"}}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(payload, signPayload(secret, payload)))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	if len(guard.deleted) != 1 || guard.deleted[0] != "evt-5" {
		t.Fatalf("expected mark released for evt-5, got %v", guard.deleted)
	}
}

func TestSquareWebhookFallsBackToDataID(t *testing.T) {
	svc := &stubWebhookService{}
	guard := &stubGuard{}
	secret := "whsec"
	handler := SquareWebhook(svc, stubSigner{secret: secret}, guard, nil)

	payload := []byte(`{"type":"subscription.canceled","data":{"id":"sq-sub-7"}}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(payload, signPayload(secret, payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if len(guard.marked) != 1 || guard.marked[0] != "sq-sub-7" {
		t.Fatalf("expected mark keyed by data id, got %v", guard.marked)
	}
}

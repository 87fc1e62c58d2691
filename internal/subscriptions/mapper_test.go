package subscriptions

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/pkg/enums"
)

func TestMapSquareStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want enums.SubscriptionStatus
	}{
		{"ACTIVE", enums.SubscriptionStatusActive},
		{"active", enums.SubscriptionStatusActive},
		{"PENDING", enums.SubscriptionStatusTrialing},
		{"DELINQUENT", enums.SubscriptionStatusPastDue},
		{"CANCELED", enums.SubscriptionStatusCanceled},
		{"CANCELLED", enums.SubscriptionStatusCanceled},
		{"DEACTIVATED", enums.SubscriptionStatusCanceled},
		{"SUSPENDED", enums.SubscriptionStatusPaused},
		{"past-due", enums.SubscriptionStatusPastDue},
		{"", enums.SubscriptionStatusActive},
		{"SOMETHING_NEW", enums.SubscriptionStatusActive},
	}
	for _, tc := range cases {
		if got := mapSquareStatus(tc.raw); got != tc.want {
			t.Errorf("mapSquareStatus(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestBuildSubscriptionFromSquare(t *testing.T) {
	accountID := uuid.New()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	sub, err := BuildSubscriptionFromSquare(&SquareSubscription{
		ID:                 "sq-sub-1",
		Status:             "ACTIVE",
		StartDate:          start.Unix(),
		ChargedThroughDate: end.Unix(),
		Metadata:           map[string]string{"account_id": accountID.String()},
	}, accountID, "plan_starter_monthly", "cust-1", "card-1")
	if err != nil {
		t.Fatalf("BuildSubscriptionFromSquare() error = %v", err)
	}

	if sub.AccountID != accountID {
		t.Fatalf("account = %s, want %s", sub.AccountID, accountID)
	}
	if sub.Status != enums.SubscriptionStatusActive {
		t.Fatalf("status = %s, want active", sub.Status)
	}
	if sub.PlanID == nil || *sub.PlanID != "plan_starter_monthly" {
		t.Fatalf("plan id = %v, want plan_starter_monthly", sub.PlanID)
	}
	if sub.SquareCustomerID == nil || *sub.SquareCustomerID != "cust-1" {
		t.Fatalf("customer id = %v, want cust-1", sub.SquareCustomerID)
	}
	if sub.CurrentPeriodStart == nil || !sub.CurrentPeriodStart.Equal(start) {
		t.Fatalf("period start = %v, want %v", sub.CurrentPeriodStart, start)
	}
	if !sub.CurrentPeriodEnd.Equal(end) {
		t.Fatalf("period end = %v, want %v", sub.CurrentPeriodEnd, end)
	}
}

func TestBuildSubscriptionFromSquareNil(t *testing.T) {
	if _, err := BuildSubscriptionFromSquare(nil, uuid.New(), "", "", ""); err == nil {
		t.Fatal("expected error for nil square subscription")
	}
}

func TestUpdateSubscriptionFromSquare(t *testing.T) {
	accountID := uuid.New()
	sub, err := BuildSubscriptionFromSquare(&SquareSubscription{
		ID:     "sq-sub-1",
		Status: "ACTIVE",
	}, accountID, "plan_starter_monthly", "cust-1", "card-1")
	if err != nil {
		t.Fatalf("BuildSubscriptionFromSquare() error = %v", err)
	}

	canceledAt := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	if err := UpdateSubscriptionFromSquare(sub, &SquareSubscription{
		ID:         "sq-sub-1",
		Status:     "CANCELED",
		CanceledAt: canceledAt.Unix(),
	}); err != nil {
		t.Fatalf("UpdateSubscriptionFromSquare() error = %v", err)
	}

	if sub.Status != enums.SubscriptionStatusCanceled {
		t.Fatalf("status = %s, want canceled", sub.Status)
	}
	if sub.CanceledAt == nil || !sub.CanceledAt.Equal(canceledAt) {
		t.Fatalf("canceled at = %v, want %v", sub.CanceledAt, canceledAt)
	}
	// Plan assignment is local state and must survive provider updates.
	if sub.PlanID == nil || *sub.PlanID != "plan_starter_monthly" {
		t.Fatalf("plan id = %v, want plan_starter_monthly", sub.PlanID)
	}
}

func TestAccountIDFromMetadata(t *testing.T) {
	want := uuid.New()
	got, err := AccountIDFromMetadata(map[string]string{"account_id": want.String()})
	if err != nil {
		t.Fatalf("AccountIDFromMetadata() error = %v", err)
	}
	if got != want {
		t.Fatalf("account id = %s, want %s", got, want)
	}

	for name, metadata := range map[string]map[string]string{
		"nil metadata": nil,
		"missing key":  {"other": "x"},
		"invalid uuid": {"account_id": "not-a-uuid"},
	} {
		if _, err := AccountIDFromMetadata(metadata); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestIsActiveStatus(t *testing.T) {
	active := []enums.SubscriptionStatus{
		enums.SubscriptionStatusActive,
		enums.SubscriptionStatusTrialing,
	}
	inactive := []enums.SubscriptionStatus{
		enums.SubscriptionStatusNotStarted,
		enums.SubscriptionStatusPastDue,
		enums.SubscriptionStatusCanceled,
		enums.SubscriptionStatusPaused,
	}
	for _, status := range active {
		if !IsActiveStatus(status) {
			t.Errorf("IsActiveStatus(%s) = false, want true", status)
		}
	}
	for _, status := range inactive {
		if IsActiveStatus(status) {
			t.Errorf("IsActiveStatus(%s) = true, want false", status)
		}
	}
}

package subscriptions

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
)

// BuildSubscriptionFromSquare maps a Square subscription into the canonical model.
func BuildSubscriptionFromSquare(squareSub *SquareSubscription, accountID uuid.UUID, planID, customerID, cardID string) (*models.Subscription, error) {
	if squareSub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "square subscription is nil")
	}
	status := mapSquareStatus(squareSub.Status)

	metaExtras := map[string]string{}
	if customerID != "" {
		metaExtras["square_customer_id"] = customerID
	}
	if cardID != "" {
		metaExtras["square_card_id"] = cardID
	}
	metadata, err := mergeMetadata(squareSub.Metadata, metaExtras)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal metadata")
	}

	var plan *string
	if strings.TrimSpace(planID) != "" {
		plan = &planID
	}

	return &models.Subscription{
		AccountID:            accountID,
		SquareSubscriptionID: squareSub.ID,
		Status:               status,
		PlanID:               plan,
		SquareCustomerID:     trimmedPtr(customerID),
		SquareCardID:         trimmedPtr(cardID),
		CurrentPeriodStart:   toTimePtr(squareSub.StartDate),
		CurrentPeriodEnd:     toTime(squareSub.ChargedThroughDate),
		CancelAtPeriodEnd:    squareSub.CancelAtPeriodEnd,
		CanceledAt:           toTimePtr(squareSub.CanceledAt),
		Metadata:             metadata,
	}, nil
}

// UpdateSubscriptionFromSquare mutates the provided subscription with new Square data.
func UpdateSubscriptionFromSquare(target *models.Subscription, squareSub *SquareSubscription) error {
	if target == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "target subscription is nil")
	}
	if squareSub == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "square subscription is nil")
	}

	target.Status = mapSquareStatus(squareSub.Status)
	if squareSub.ID != "" {
		target.SquareSubscriptionID = squareSub.ID
	}
	if start := toTimePtr(squareSub.StartDate); start != nil {
		target.CurrentPeriodStart = start
	}
	if end := toTime(squareSub.ChargedThroughDate); !end.IsZero() {
		target.CurrentPeriodEnd = end
	}
	target.CancelAtPeriodEnd = squareSub.CancelAtPeriodEnd
	target.CanceledAt = toTimePtr(squareSub.CanceledAt)
	return nil
}

// AccountIDFromMetadata extracts the account ID attached to Square metadata.
func AccountIDFromMetadata(metadata map[string]string) (uuid.UUID, error) {
	if metadata == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription metadata is required")
	}
	raw, ok := metadata["account_id"]
	if !ok || strings.TrimSpace(raw) == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "account_id missing from metadata")
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid account_id metadata")
	}
	return id, nil
}

// IsActiveStatus reports whether the status entitles the account to paid
// features. Trialing here is the provider's billing trial, distinct from the
// 7-day product trial anchored to account creation.
func IsActiveStatus(status enums.SubscriptionStatus) bool {
	return status == enums.SubscriptionStatusActive || status == enums.SubscriptionStatusTrialing
}

func mergeMetadata(base, extras map[string]string) (json.RawMessage, error) {
	if len(base) == 0 && len(extras) == 0 {
		return json.RawMessage("{}"), nil
	}
	merged := make(map[string]string, len(base)+len(extras))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extras {
		if v == "" {
			continue
		}
		merged[k] = v
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func toTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

func toTimePtr(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

func trimmedPtr(value string) *string {
	if s := strings.TrimSpace(value); s != "" {
		return &s
	}
	return nil
}

func mapSquareStatus(raw string) enums.SubscriptionStatus {
	normalized := normalizeSquareStatus(raw)
	if normalized == "" {
		return enums.SubscriptionStatusActive
	}
	if mapped, ok := squareStatusAliases[normalized]; ok {
		return mapped
	}
	if parsed, err := enums.ParseSubscriptionStatus(strings.ToLower(normalized)); err == nil {
		return parsed
	}
	return enums.SubscriptionStatusActive
}

func normalizeSquareStatus(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = strings.ToUpper(normalized)
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	return normalized
}

var squareStatusAliases = map[string]enums.SubscriptionStatus{
	"PENDING":     enums.SubscriptionStatusTrialing,
	"TRIAL":       enums.SubscriptionStatusTrialing,
	"DELINQUENT":  enums.SubscriptionStatusPastDue,
	"DEACTIVATED": enums.SubscriptionStatusCanceled,
	"COMPLETED":   enums.SubscriptionStatusCanceled,
	"CANCELING":   enums.SubscriptionStatusCanceled,
	"CANCELLING":  enums.SubscriptionStatusCanceled,
	"CANCELLED":   enums.SubscriptionStatusCanceled,
	"SUSPENDED":   enums.SubscriptionStatusPaused,
}

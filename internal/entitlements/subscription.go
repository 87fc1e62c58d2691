package entitlements

import (
	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
)

// EvaluateSubscription maps a subscription row to its derived billing state.
// A nil row means the account has never started a checkout and reports
// not_started with all flags false; that state stays trial-eligible.
func EvaluateSubscription(sub *models.Subscription) SubscriptionState {
	if sub == nil {
		return SubscriptionState{Status: enums.SubscriptionStatusNotStarted}
	}
	return SubscriptionState{
		IsActive:   sub.Status == enums.SubscriptionStatusActive,
		IsPastDue:  sub.Status == enums.SubscriptionStatusPastDue,
		IsCanceled: sub.Status == enums.SubscriptionStatusCanceled,
		Status:     sub.Status,
	}
}

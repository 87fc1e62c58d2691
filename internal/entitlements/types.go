package entitlements

import (
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
)

// Unlimited marks a quota with no ceiling.
const Unlimited = -1

// Quotas is the numeric ceiling tuple for a plan tier.
type Quotas struct {
	Campaigns         int `json:"campaigns"`
	ResponsesPerMonth int `json:"responsesPerMonth"`
	Users             int `json:"users"`
}

// Usage is a derived snapshot of countable resources for one account. It is
// recomputed on demand and never persisted.
type Usage struct {
	Campaigns          int `json:"campaigns"`
	ResponsesThisMonth int `json:"responsesThisMonth"`
	Users              int `json:"users"`
}

// TrialInfo reports the state of the fixed 7-day trial window.
type TrialInfo struct {
	IsTrialActive    bool `json:"isTrialActive"`
	IsTrialExpired   bool `json:"isTrialExpired"`
	DaysRemaining    int  `json:"daysRemaining"`
	HoursRemaining   int  `json:"hoursRemaining"`
	MinutesRemaining int  `json:"minutesRemaining"`
}

// SubscriptionState is the derived billing state for one account.
type SubscriptionState struct {
	IsActive   bool                     `json:"isActive"`
	IsPastDue  bool                     `json:"isPastDue"`
	IsCanceled bool                     `json:"isCanceled"`
	Status     enums.SubscriptionStatus `json:"status"`
}

// PlanLimitInfo is the gate output consumed by controllers: limits, usage, and
// the allow/block booleans derived from them.
type PlanLimitInfo struct {
	Limits             Quotas          `json:"limits"`
	Usage              Usage           `json:"usage"`
	CanCreateCampaign  bool            `json:"canCreateCampaign"`
	CanReceiveResponse bool            `json:"canReceiveResponse"`
	IsTrialActive      bool            `json:"isTrialActive"`
	PlanName           string          `json:"planName"`
	UpgradeRequired    bool            `json:"upgradeRequired"`
	RecommendedTier    *enums.PlanTier `json:"recommendedTier,omitempty"`
}

// Evaluation bundles everything one entitlement pass derives.
type Evaluation struct {
	Trial        TrialInfo         `json:"trial"`
	Subscription SubscriptionState `json:"subscription"`
	PlanLimits   PlanLimitInfo     `json:"planLimits"`
}

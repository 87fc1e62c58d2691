package entitlements

import "time"

// TrialDuration is the fixed window granted at account creation. The window
// anchors on Account.CreatedAt and can never be extended, paused, or reset.
const TrialDuration = 7 * 24 * time.Hour

// EvaluateTrial derives trial state from the account creation time. An active
// paid subscription short-circuits the computation: both flags report false
// and the countdown is zeroed, regardless of the window.
func EvaluateTrial(createdAt, now time.Time, subscriptionActive bool) TrialInfo {
	if subscriptionActive {
		return TrialInfo{}
	}

	trialEnd := createdAt.Add(TrialDuration)
	remaining := trialEnd.Sub(now)
	if remaining <= 0 {
		return TrialInfo{IsTrialExpired: true}
	}

	days := int(remaining / (24 * time.Hour))
	remaining -= time.Duration(days) * 24 * time.Hour
	hours := int(remaining / time.Hour)
	remaining -= time.Duration(hours) * time.Hour
	minutes := int(remaining / time.Minute)

	return TrialInfo{
		IsTrialActive:    true,
		DaysRemaining:    days,
		HoursRemaining:   hours,
		MinutesRemaining: minutes,
	}
}

// ExpiredTrialFallback is the fail-closed state used when the account record
// cannot be loaded: a fetch failure must never grant unpaid access.
func ExpiredTrialFallback() TrialInfo {
	return TrialInfo{IsTrialExpired: true}
}

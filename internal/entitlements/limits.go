package entitlements

import "github.com/dmarqs/promoterhub-backend/pkg/enums"

// quotasByTier is the static quota table. Quotas are non-decreasing as tiers
// increase; that ordering is a convention of this table, not enforced in code.
var quotasByTier = map[enums.PlanTier]Quotas{
	enums.PlanTierTrial:        {Campaigns: 2, ResponsesPerMonth: 100, Users: 1},
	enums.PlanTierStarter:      {Campaigns: 3, ResponsesPerMonth: 500, Users: 1},
	enums.PlanTierProfessional: {Campaigns: Unlimited, ResponsesPerMonth: 2000, Users: 3},
	enums.PlanTierEnterprise:   {Campaigns: Unlimited, ResponsesPerMonth: Unlimited, Users: 10},
}

// QuotasForTier returns the quota tuple for a tier. Unrecognized tiers fall
// back to the trial tier so a bad plan row restricts rather than opens usage.
func QuotasForTier(tier enums.PlanTier) Quotas {
	if quotas, ok := quotasByTier[tier]; ok {
		return quotas
	}
	return quotasByTier[enums.PlanTierTrial]
}

// ResolveQuotas picks the effective quota tuple for an account. An active paid
// subscription wins; otherwise an active trial grants the trial tier; with
// neither, all quotas are zero, which is the mechanism that blocks further use.
func ResolveQuotas(tier enums.PlanTier, subscriptionActive, trialActive bool) Quotas {
	switch {
	case subscriptionActive:
		return QuotasForTier(tier)
	case trialActive:
		return quotasByTier[enums.PlanTierTrial]
	default:
		return Quotas{}
	}
}

package entitlements

import "github.com/dmarqs/promoterhub-backend/pkg/enums"

// responsesUpsellThreshold decides between the professional and enterprise
// recommendation when an account is blocked on monthly responses.
const responsesUpsellThreshold = 500

// withinQuota reports whether one more unit of usage fits under the limit.
func withinQuota(limit, used int) bool {
	return limit == Unlimited || used < limit
}

// BuildPlanLimitInfo combines resolved quotas and usage into the gate output.
// Each call derives everything fresh from its inputs; no state is carried
// between evaluations.
func BuildPlanLimitInfo(limits Quotas, usage Usage, trialActive, subscriptionActive bool, planName string) PlanLimitInfo {
	info := PlanLimitInfo{
		Limits:             limits,
		Usage:              usage,
		CanCreateCampaign:  withinQuota(limits.Campaigns, usage.Campaigns),
		CanReceiveResponse: withinQuota(limits.ResponsesPerMonth, usage.ResponsesThisMonth),
		IsTrialActive:      trialActive,
		PlanName:           planName,
		UpgradeRequired:    !subscriptionActive && !trialActive,
	}
	info.RecommendedTier = recommendTier(info)
	return info
}

// recommendTier is presentation guidance for upsell prompts, not an enforced
// rule. Accounts with no entitlement at all get pointed at the entry tier;
// otherwise the blocked resource picks the tier that lifts that ceiling.
func recommendTier(info PlanLimitInfo) *enums.PlanTier {
	switch {
	case info.UpgradeRequired:
		return tierPtr(enums.PlanTierStarter)
	case !info.CanCreateCampaign:
		return tierPtr(enums.PlanTierProfessional)
	case !info.CanReceiveResponse:
		if info.Usage.ResponsesThisMonth > responsesUpsellThreshold {
			return tierPtr(enums.PlanTierEnterprise)
		}
		return tierPtr(enums.PlanTierProfessional)
	default:
		return nil
	}
}

func tierPtr(tier enums.PlanTier) *enums.PlanTier {
	return &tier
}

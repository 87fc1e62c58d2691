package enums

import "fmt"

// PlanTier is the closed set of entitlement tiers. Quota resolution keys off
// this value rather than plan display names.
type PlanTier string

const (
	PlanTierTrial        PlanTier = "trial"
	PlanTierStarter      PlanTier = "starter"
	PlanTierProfessional PlanTier = "professional"
	PlanTierEnterprise   PlanTier = "enterprise"
)

var validPlanTiers = []PlanTier{
	PlanTierTrial,
	PlanTierStarter,
	PlanTierProfessional,
	PlanTierEnterprise,
}

// String implements fmt.Stringer.
func (p PlanTier) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PlanTier.
func (p PlanTier) IsValid() bool {
	for _, candidate := range validPlanTiers {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlanTier converts raw input into a PlanTier.
func ParsePlanTier(value string) (PlanTier, error) {
	for _, candidate := range validPlanTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan tier %q", value)
}

package enums

import "fmt"

// NPSCategory buckets a 0-10 rating into the standard NPS groups.
type NPSCategory string

const (
	NPSCategoryDetractor NPSCategory = "detractor"
	NPSCategoryPassive   NPSCategory = "passive"
	NPSCategoryPromoter  NPSCategory = "promoter"
)

// String implements fmt.Stringer.
func (n NPSCategory) String() string {
	return string(n)
}

// CategorizeScore maps a rating to its NPS bucket. Scores 0-6 are detractors,
// 7-8 passives, 9-10 promoters.
func CategorizeScore(score int) (NPSCategory, error) {
	switch {
	case score < 0 || score > 10:
		return "", fmt.Errorf("score %d outside 0-10", score)
	case score <= 6:
		return NPSCategoryDetractor, nil
	case score <= 8:
		return NPSCategoryPassive, nil
	default:
		return NPSCategoryPromoter, nil
	}
}

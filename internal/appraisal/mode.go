package appraisal

// Appraisal modes gate how much valuation detail a response discloses.
const (
	ModeDeferToHuman     = "DEFER_TO_HUMAN"
	ModeDisabled         = "MODE_DISABLED"
	ModeEstimateAndRange = "MODE_ESTIMATE_AND_RANGE"
	ModeRangeOnly        = "MODE_RANGE_ONLY"
)

type Signals struct {
	IDConfidence            float64
	VariantConfirmed        bool
	ConditionConfidence     float64
	CompsCount              int
	RequiredPhotosPresent   bool
	ConflictingBrandSignals bool
}

type Route struct {
	Mode   string
	Reason string
}

// Decide resolves the appraisal mode from the six evidence signals. The
// guards form an ordered chain and the order is part of the contract: low
// identification confidence trumps everything, brand conflicts trump evidence
// gaps, and only the strongest evidence unlocks a point estimate. The
// function is pure and stateless; there is no retry and nothing persists
// between requests.
func Decide(s Signals) Route {
	if s.IDConfidence < 0.50 {
		return Route{
			Mode:   ModeDeferToHuman,
			Reason: "identification confidence is too low for an automated appraisal; deferring to a human reviewer",
		}
	}
	if s.ConflictingBrandSignals {
		return Route{
			Mode:   ModeDisabled,
			Reason: "the hint names a brand that conflicts with the identified brand; appraisal disabled",
		}
	}
	if !s.RequiredPhotosPresent || s.CompsCount < 5 {
		return Route{
			Mode:   ModeDisabled,
			Reason: "required photos are missing or too few comparable sales exist; appraisal disabled",
		}
	}
	if s.IDConfidence >= 0.85 && s.VariantConfirmed && s.CompsCount >= 12 && s.ConditionConfidence >= 0.75 {
		return Route{
			Mode:   ModeEstimateAndRange,
			Reason: "high-confidence identification with a confirmed variant and deep comparable sales",
		}
	}
	return Route{
		Mode:   ModeRangeOnly,
		Reason: "evidence supports a price range but not a point estimate",
	}
}

// ConfidenceLabel maps a confidence score to its display bucket. Boundaries
// are inclusive to the higher bucket.
func ConfidenceLabel(confidence float64) string {
	switch {
	case confidence >= 0.78:
		return "High"
	case confidence >= 0.52:
		return "Medium"
	default:
		return "Low"
	}
}

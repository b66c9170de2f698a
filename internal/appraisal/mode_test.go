package appraisal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gloveiq-backend/internal/appraisal"
)

func strongSignals() appraisal.Signals {
	return appraisal.Signals{
		IDConfidence:          0.92,
		VariantConfirmed:      true,
		ConditionConfidence:   0.80,
		CompsCount:            15,
		RequiredPhotosPresent: true,
	}
}

func TestDecide_EstimateAndRange(t *testing.T) {
	route := appraisal.Decide(strongSignals())
	assert.Equal(t, appraisal.ModeEstimateAndRange, route.Mode)
	assert.NotEmpty(t, route.Reason)
}

func TestDecide_LowConfidenceTrumpsEverything(t *testing.T) {
	// Even with otherwise perfect evidence a sub-0.50 identification always
	// defers to a human.
	for _, conflict := range []bool{false, true} {
		for _, present := range []bool{false, true} {
			s := strongSignals()
			s.IDConfidence = 0.49
			s.ConflictingBrandSignals = conflict
			s.RequiredPhotosPresent = present
			assert.Equal(t, appraisal.ModeDeferToHuman, appraisal.Decide(s).Mode)
		}
	}
}

func TestDecide_BrandConflictDisables(t *testing.T) {
	s := strongSignals()
	s.ConflictingBrandSignals = true
	route := appraisal.Decide(s)
	assert.Equal(t, appraisal.ModeDisabled, route.Mode)
	assert.Contains(t, route.Reason, "conflict")
}

func TestDecide_MissingRequiredPhotosDisable(t *testing.T) {
	s := strongSignals()
	s.RequiredPhotosPresent = false
	assert.Equal(t, appraisal.ModeDisabled, appraisal.Decide(s).Mode)
}

func TestDecide_TooFewCompsDisable(t *testing.T) {
	s := strongSignals()
	s.CompsCount = 4
	assert.Equal(t, appraisal.ModeDisabled, appraisal.Decide(s).Mode)
}

func TestDecide_RangeOnlyFallbacks(t *testing.T) {
	cases := map[string]func(*appraisal.Signals){
		"unconfirmed variant":       func(s *appraisal.Signals) { s.VariantConfirmed = false },
		"shallow comps":             func(s *appraisal.Signals) { s.CompsCount = 11 },
		"mid identification":        func(s *appraisal.Signals) { s.IDConfidence = 0.84 },
		"weak condition confidence": func(s *appraisal.Signals) { s.ConditionConfidence = 0.74 },
	}
	for name, mutate := range cases {
		s := strongSignals()
		mutate(&s)
		assert.Equal(t, appraisal.ModeRangeOnly, appraisal.Decide(s).Mode, name)
	}
}

func TestDecide_BoundaryValues(t *testing.T) {
	s := strongSignals()
	s.IDConfidence = 0.85
	s.ConditionConfidence = 0.75
	s.CompsCount = 12
	assert.Equal(t, appraisal.ModeEstimateAndRange, appraisal.Decide(s).Mode)

	s.IDConfidence = 0.50
	assert.Equal(t, appraisal.ModeRangeOnly, appraisal.Decide(s).Mode)
}

func TestConfidenceLabel(t *testing.T) {
	assert.Equal(t, "High", appraisal.ConfidenceLabel(0.78))
	assert.Equal(t, "High", appraisal.ConfidenceLabel(0.95))
	assert.Equal(t, "Medium", appraisal.ConfidenceLabel(0.52))
	assert.Equal(t, "Medium", appraisal.ConfidenceLabel(0.77))
	assert.Equal(t, "Low", appraisal.ConfidenceLabel(0.51))
	assert.Equal(t, "Low", appraisal.ConfidenceLabel(0))
}

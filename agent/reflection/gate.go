package reflection

import (
	"math"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

// DefaultConfidenceThreshold is the minimum reflection confidence for an
// answer to count as validated. The boundary is inclusive.
const DefaultConfidenceThreshold = 0.7

const (
	reasonInvalidObject     = "invalid reflection object"
	reasonConfidenceMissing = "confidence missing"
	reasonBelowThreshold    = "Confidence below threshold"
)

type Verdict struct {
	Accepted   bool
	Confidence float64
	Threshold  float64
	Reason     string
}

// Report renders the verdict in the envelope's audit shape. The threshold
// rides along on every report, accepted or not.
func (v Verdict) Report() *contractx.ReflectionReport {
	return &contractx.ReflectionReport{
		Confidence: v.Confidence,
		Accepted:   v.Accepted,
		Threshold:  v.Threshold,
	}
}

type Gate struct {
	Threshold float64
}

// NewGate falls back to the default threshold when given a value outside
// (0, 1].
func NewGate(threshold float64) Gate {
	if math.IsNaN(threshold) || threshold <= 0 || threshold > 1 {
		threshold = DefaultConfidenceThreshold
	}
	return Gate{Threshold: threshold}
}

// Enforce applies the acceptance rules in order: nil outcome, missing
// confidence, then the threshold comparison. Non-finite or out-of-range
// confidence is coerced to zero and fails the comparison rather than
// erroring.
func (g Gate) Enforce(outcome *contractx.ReflectionOutcome) Verdict {
	verdict := Verdict{Threshold: g.Threshold}

	if outcome == nil {
		verdict.Reason = reasonInvalidObject
		return verdict
	}
	if outcome.Confidence == nil {
		verdict.Reason = reasonConfidenceMissing
		return verdict
	}

	confidence := *outcome.Confidence
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) || confidence < 0 || confidence > 1 {
		confidence = 0
	}
	verdict.Confidence = confidence

	if confidence >= g.Threshold {
		verdict.Accepted = true
		return verdict
	}

	verdict.Reason = reasonBelowThreshold
	return verdict
}

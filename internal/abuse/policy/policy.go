// Package policy fuses independent detector signals into a single risk
// verdict. The rules are centralized here so they stay testable without any
// HTTP plumbing around them.
package policy

import (
	"formgate/internal/abuse/models"
)

// Thresholds over the composite score. SpamThreshold rejects; scores in
// [SuspicionFloor, SpamThreshold) are admitted but surfaced to operators.
const (
	SpamThreshold  = 70
	SuspicionFloor = 40
)

// Evaluate fuses detector results into one verdict.
//
// The composite is the plain sum of all signal scores, clamped to [0,100]
// exactly once here, never per detector. A submission is spam when any
// signal triggered on its own, or when the composite crosses SpamThreshold:
// a single overwhelming signal is disqualifying, and several moderate ones
// can cross the bar jointly.
//
// Reasons keep the callers' evaluation order so identical inputs always
// produce identical verdicts.
func Evaluate(signals []models.SignalResult) models.RiskVerdict {
	total := 0
	triggered := false
	reasons := make([]string, 0, len(signals))

	for _, sig := range signals {
		total += sig.Score
		triggered = triggered || sig.Triggered
		if sig.Reason != "" {
			reasons = append(reasons, sig.Reason)
		}
	}

	score := clamp(total, 0, 100)

	return models.RiskVerdict{
		IsSpam:  triggered || score >= SpamThreshold,
		Score:   score,
		Reasons: reasons,
	}
}

// Suspicious reports whether an admitted verdict sits in the log-but-allow
// band. Blocking here would lock out genuine users over soft signals; the
// band exists so operators still see the borderline traffic.
func Suspicious(v models.RiskVerdict) bool {
	return !v.IsSpam && v.Score >= SuspicionFloor && v.Score < SpamThreshold
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

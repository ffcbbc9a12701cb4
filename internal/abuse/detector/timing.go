package detector

import (
	"time"

	"formgate/internal/abuse/models"
)

// Timing thresholds. No human reads and completes the observed forms in
// under fastThreshold; between the two thresholds the signal is soft: it
// raises the composite without being independently disqualifying.
const (
	fastThreshold = 3 * time.Second
	softThreshold = 10 * time.Second

	// TimingFastScore is the triggered score for an implausibly quick fill.
	TimingFastScore = 90

	// TimingSoftScore contributes to the composite without triggering.
	TimingSoftScore = 60
)

const reasonTooQuick = "form filled too quickly"

// Timing scores how long the form stayed open before submission. Absent
// timing metadata never contributes: callers may legitimately omit it.
type Timing struct{}

// Name identifies the detector in logs, metrics, and trace events.
func (d *Timing) Name() string { return "timing" }

// NewTiming builds the timing detector.
func NewTiming() *Timing {
	return &Timing{}
}

// Detect maps elapsed fill time to a signal: <3s triggers, 3-10s is a soft
// signal, anything slower (or unknown) is silent.
func (d *Timing) Detect(sub models.Submission) models.SignalResult {
	elapsed, ok := sub.Elapsed()
	if !ok {
		return models.SignalResult{}
	}

	switch {
	case elapsed < fastThreshold:
		return models.SignalResult{
			Triggered: true,
			Score:     TimingFastScore,
			Reason:    reasonTooQuick,
		}
	case elapsed < softThreshold:
		return models.SignalResult{Score: TimingSoftScore}
	default:
		return models.SignalResult{}
	}
}

// Package detector implements the three independent spam signals: honeypot
// traps, submission timing, and content heuristics. Each detector is a pure
// function over an immutable submission and is safe for concurrent use.
package detector

import (
	"formgate/internal/abuse/config"
	"formgate/internal/abuse/models"
)

// HoneypotScore is deliberately high but below 100: near-certain automation,
// while leaving the composite uncapped until fusion.
const HoneypotScore = 95

const reasonHoneypot = "honeypot field filled"

// Honeypot flags submissions that populate trap fields. The fields are not
// visible to genuine users (or are rendered but deceptively named), so any
// non-blank value means an automated client filled every input it found.
type Honeypot struct {
	fields []string
}

// Name identifies the detector in logs, metrics, and trace events.
func (d *Honeypot) Name() string { return "honeypot" }

// NewHoneypot builds the detector from the configured trap field names.
func NewHoneypot(cfg config.Honeypot) *Honeypot {
	fields := make([]string, len(cfg.Fields))
	copy(fields, cfg.Fields)
	return &Honeypot{fields: fields}
}

// Detect returns a triggered result when any trap field carries a non-blank
// value after whitespace trimming.
func (d *Honeypot) Detect(sub models.Submission) models.SignalResult {
	for _, field := range d.fields {
		if v, ok := sub.FieldTrimmed(field); ok && v != "" {
			return models.SignalResult{
				Triggered: true,
				Score:     HoneypotScore,
				Reason:    reasonHoneypot,
			}
		}
	}
	return models.SignalResult{}
}

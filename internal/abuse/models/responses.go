package models

import "time"

type AllowlistEntryResponse struct {
	Allowlisted bool       `json:"allowlisted"`
	Identifier  string     `json:"identifier"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type BudgetResponse struct {
	ClientID  string  `json:"client_id"`
	Remaining float64 `json:"remaining"`
}

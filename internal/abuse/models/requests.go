package models

import (
	"strings"
	"time"

	dErrors "formgate/pkg/domain-errors"
)

type AddAllowlistRequest struct {
	Identifier string     `json:"identifier"`
	Reason     string     `json:"reason"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

func (r *AddAllowlistRequest) Normalize() {
	if r == nil {
		return
	}
	r.Identifier = strings.TrimSpace(r.Identifier)
	r.Reason = strings.TrimSpace(r.Reason)
}

// Follows validation order: Size -> Required -> Semantic.
func (r *AddAllowlistRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	// Phase 1: Size checks
	if len(r.Identifier) > 255 {
		return dErrors.New(dErrors.CodeValidation, "identifier must be 255 characters or less")
	}
	if len(r.Reason) > 500 {
		return dErrors.New(dErrors.CodeValidation, "reason must be 500 characters or less")
	}

	// Phase 2: Required fields
	if r.Identifier == "" {
		return dErrors.New(dErrors.CodeValidation, "identifier is required")
	}
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}

	// Phase 3: Semantic validation
	if r.ExpiresAt != nil && r.ExpiresAt.Before(time.Now()) {
		return dErrors.New(dErrors.CodeValidation, "expires_at must be in the future")
	}

	return nil
}

type RemoveAllowlistRequest struct {
	Identifier string `json:"identifier"`
}

func (r *RemoveAllowlistRequest) Normalize() {
	if r == nil {
		return
	}
	r.Identifier = strings.TrimSpace(r.Identifier)
}

func (r *RemoveAllowlistRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if len(r.Identifier) > 255 {
		return dErrors.New(dErrors.CodeValidation, "identifier must be 255 characters or less")
	}
	if r.Identifier == "" {
		return dErrors.New(dErrors.CodeValidation, "identifier is required")
	}

	return nil
}

type ResetBudgetRequest struct {
	ClientID string `json:"client_id"`
}

func (r *ResetBudgetRequest) Normalize() {
	if r == nil {
		return
	}
	r.ClientID = strings.TrimSpace(r.ClientID)
}

func (r *ResetBudgetRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if len(r.ClientID) > 255 {
		return dErrors.New(dErrors.CodeValidation, "client_id must be 255 characters or less")
	}
	if r.ClientID == "" {
		return dErrors.New(dErrors.CodeValidation, "client_id is required")
	}

	return nil
}

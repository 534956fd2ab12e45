package types

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrContributorNotFound = errors.New("contributor not found")
	ErrContributorExists   = errors.New("contributor with this email already exists")
	ErrInitiativeNotFound  = errors.New("initiative not found")
	ErrPartNotFound        = errors.New("part not found")
	ErrPartNotOwned        = errors.New("part is not assigned to this contributor")
	ErrProjectNotFound     = errors.New("project not found")
	ErrRequestNotFound     = errors.New("request not found")
	ErrDonationNotFound    = errors.New("donation not found")
	ErrInvalidToken        = errors.New("invalid portal token")
	ErrPaymentsDisabled    = errors.New("card payments are not configured")
	ErrDeliveryFailed      = errors.New("e-mail delivery failed")
)

// ValidationError carries per-field messages keyed by the JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}

	return "validation failed: " + strings.Join(parts, ", ")
}

// OrNil returns nil when no field errors were collected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

package domain

import "errors"

// Grant pipeline failure classes. Callers classify with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("character not found")
	ErrAllocation       = errors.New("goods id allocation failed")
	ErrRegistration     = errors.New("warehouse registration failed")
	ErrReconciliation   = errors.New("warehouse reconciliation incomplete")
	ErrDuplicateRequest = errors.New("duplicate request")
)

// Errors reported by store adapters.
var (
	ErrCharacterNotFound = errors.New("no character with that name")
	ErrDuplicateGoodsID  = errors.New("goods id already registered")
	// ErrRegistrationRejected means the store answered and refused the
	// registration, so nothing was written.
	ErrRegistrationRejected = errors.New("registration rejected by store")
	ErrRecordNotFound       = errors.New("record not found")
)

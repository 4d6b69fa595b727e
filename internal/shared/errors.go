package shared

import "errors"

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a unique document number collision.
	ErrDuplicate = errors.New("duplicate document number")
	// ErrInsufficientBalance indicates an obligation exceeds the remaining budget balance.
	ErrInsufficientBalance = errors.New("insufficient budget balance")
	// ErrUnbalanced indicates journal entry debits and credits do not match.
	ErrUnbalanced = errors.New("journal entry is not balanced")
	// ErrInvalidTransition indicates the requested status change is not legal
	// from the current state, or a precondition entity is in the wrong state.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnauthorized indicates the actor's role does not cover the required module.
	ErrUnauthorized = errors.New("module access denied")
	// ErrValidation indicates the payload failed structural checks.
	ErrValidation = errors.New("validation failed")
	// ErrStorageFailure indicates an infrastructure fault after retries, as
	// opposed to a business-rule rejection.
	ErrStorageFailure = errors.New("storage failure")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

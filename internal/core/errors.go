package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDay          = errors.New("invalid day")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidRange        = errors.New("end date is before start date")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidInstallments = errors.New("invalid installment count")
	ErrInvalidDuration     = errors.New("duration must be at least one month")
	ErrInvalidMethod       = errors.New("invalid payment method")
	ErrMissingOrigin       = errors.New("payment origin resolves to no account or card")
	ErrEmptyName           = errors.New("empty name")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrInvalidKind         = errors.New("invalid kind")
	ErrMissingScope        = errors.New("missing household scope")
	ErrMissingReference    = errors.New("missing reference")
	ErrCategoryKind        = errors.New("category kind does not match the transaction")
	ErrNotDue              = errors.New("fixed expense is not due in this month")

	ErrNotFound    = errors.New("not found")
	ErrReferenced  = errors.New("still referenced by other records")
	ErrAlreadyPaid = errors.New("already paid for this month")
	ErrPaused      = errors.New("fixed expense is paused")
)

// ValidationError rejects input before any store mutation happens.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid wraps err as a validation failure on field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// NotFoundError reports a missing record. It matches ErrNotFound.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError reports a referential conflict, e.g. deleting a category
// that transactions still use.
type ConflictError struct {
	Entity string
	ID     string
	Err    error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Entity, e.ID, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// Conflict builds a ConflictError.
func Conflict(entity, id string, err error) error {
	return &ConflictError{Entity: entity, ID: id, Err: err}
}

// PartialWriteError reports that a parent record was written but its
// dependents failed. The parent was deleted again; CompensationErr is set
// when that delete failed too.
type PartialWriteError struct {
	Op              string
	ParentID        string
	Err             error
	CompensationErr error
}

func (e *PartialWriteError) Error() string {
	if e.CompensationErr != nil {
		return fmt.Sprintf("%s: partial write of %s (compensation failed: %v): %v", e.Op, e.ParentID, e.CompensationErr, e.Err)
	}
	return fmt.Sprintf("%s: partial write of %s rolled back: %v", e.Op, e.ParentID, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

func IsPartialWrite(err error) bool {
	var p *PartialWriteError
	return errors.As(err, &p)
}

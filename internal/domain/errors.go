package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents malformed input. Nothing is committed when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientStockError is returned when a consumption exceeds the available quantity
type InsufficientStockError struct {
	ItemID    string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item '%s': requested %d, available %d", e.ItemID, e.Requested, e.Available)
}

// Entity kinds used by NotFoundError
const (
	KindWarehouse = "warehouse"
	KindItem      = "item"
	KindReport    = "report"
)

// NotFoundError represents an error when a referenced entity does not exist
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID '%s' not found", e.Kind, e.ID)
}

// PersistenceError wraps a failed round-trip to the backing store
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// PartialCascadeError reports a warehouse archive whose cascade stopped partway.
// Items in Archived were written; items in Failed were not.
type PartialCascadeError struct {
	WarehouseID string
	Archived    []string
	Failed      []string
	Err         error
}

func (e *PartialCascadeError) Error() string {
	return fmt.Sprintf("warehouse '%s' archived but cascade incomplete: %d items archived, %d failed (%s): %v",
		e.WarehouseID, len(e.Archived), len(e.Failed), strings.Join(e.Failed, ", "), e.Err)
}

func (e *PartialCascadeError) Unwrap() error {
	return e.Err
}

// ReportExistsError is returned when an archived report id is written twice
type ReportExistsError struct {
	ID string
}

func (e *ReportExistsError) Error() string {
	return fmt.Sprintf("archived report '%s' already exists and cannot be modified", e.ID)
}

// UserMessage maps an error to a short message suitable for end users
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		validation   *ValidationError
		insufficient *InsufficientStockError
		notFound     *NotFoundError
		partial      *PartialCascadeError
		persistence  *PersistenceError
		exists       *ReportExistsError
	)

	switch {
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &insufficient):
		return fmt.Sprintf("Not enough stock: only %d available.", insufficient.Available)
	case errors.As(err, &notFound):
		return fmt.Sprintf("The %s no longer exists. Refresh and try again.", notFound.Kind)
	case errors.As(err, &partial):
		return fmt.Sprintf("Warehouse archived, but %d of its items could not be archived.", len(partial.Failed))
	case errors.As(err, &exists):
		return "This report has already been archived."
	case errors.As(err, &persistence):
		return "Could not save or load data. Please try again."
	default:
		return "Something went wrong."
	}
}

// Package security validates and cleans caller-supplied identifiers and text
// before they reach the ledger or become storage keys.
package security

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
)

const (
	// MaxKeyLength bounds storage keys, prefix included
	MaxKeyLength = 1024
	// MaxIDLength bounds warehouse, item, entry and report identifiers
	MaxIDLength = 128
	// MaxNameLength bounds warehouse and item names, in characters
	MaxNameLength = 256
	// MaxDescriptionLength bounds warehouse descriptions, in characters
	MaxDescriptionLength = 4096
	// MaxCommentLength bounds ledger entry comments, in characters
	MaxCommentLength = 1024
)

var (
	// safeIDPattern allows UUID-style IDs and safe alphanumerics
	safeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)
	// controlCharPattern detects ASCII control characters
	controlCharPattern = regexp.MustCompile(`[\x00-\x1F\x7F]`)
)

// ValidateID checks an identifier that will be embedded in a storage key
func ValidateID(id, field string) error {
	switch {
	case id == "":
		return domain.NewValidationError(field, "is required")
	case len(id) > MaxIDLength:
		return domain.NewValidationError(field, fmt.Sprintf("length %d exceeds maximum %d", len(id), MaxIDLength))
	case !safeIDPattern.MatchString(id):
		return domain.NewValidationError(field, "contains invalid characters")
	}
	return nil
}

// ValidateName checks an already trimmed warehouse or item name
func ValidateName(name, field string) error {
	switch {
	case name == "":
		return domain.NewValidationError(field, "must not be empty")
	case utf8.RuneCountInString(name) > MaxNameLength:
		return domain.NewValidationError(field, fmt.Sprintf("must be at most %d characters", MaxNameLength))
	case controlCharPattern.MatchString(name):
		return domain.NewValidationError(field, "contains control characters")
	}
	return nil
}

// ValidateLength checks free text against a character limit
func ValidateLength(text, field string, max int) error {
	if utf8.RuneCountInString(text) > max {
		return domain.NewValidationError(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return nil
}

package security

import (
	"fmt"
	"strings"
	"unicode"
)

// CleanText trims s and drops control characters, keeping newlines and tabs
// so multi-line comments survive
func CleanText(s string) string {
	if s == "" {
		return s
	}

	result := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		result = append(result, r)
	}

	return strings.TrimSpace(string(result))
}

// BuildKey joins a storage prefix and a validated identifier
func BuildKey(prefix, id string) ([]byte, error) {
	if prefix == "" {
		return nil, fmt.Errorf("key prefix cannot be empty")
	}
	if err := ValidateID(id, "id"); err != nil {
		return nil, fmt.Errorf("invalid key for prefix %q: %w", prefix, err)
	}

	key := prefix + id
	if len(key) > MaxKeyLength {
		return nil, fmt.Errorf("key length %d exceeds maximum %d", len(key), MaxKeyLength)
	}
	return []byte(key), nil
}

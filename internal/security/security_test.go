package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"uuid", "7f9c2a1e-3b4d-4c5e-8f60-1a2b3c4d5e6f", true},
		{"underscore", "wh_1", true},
		{"empty", "", false},
		{"path traversal", "../etc", false},
		{"key separator", "item:1", false},
		{"space", "wh 1", false},
		{"too long", strings.Repeat("a", MaxIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id, "id")
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var validation *domain.ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, "id", validation.Field)
		})
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("O'Brien's \"Bolts\" & Nuts", "name"))
	assert.NoError(t, ValidateName(strings.Repeat("é", MaxNameLength), "name"), "limit counts characters")

	assert.Error(t, ValidateName("", "name"))
	assert.Error(t, ValidateName("Main\x00", "name"))
	assert.Error(t, ValidateName("Line\nBreak", "name"))
	assert.Error(t, ValidateName(strings.Repeat("a", MaxNameLength+1), "name"))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "restock\nfrom supplier", CleanText("  restock\x07\nfrom supplier\x1b  "))
	assert.Equal(t, "tab\tkept", CleanText("tab\tkept"))
}

func TestBuildKey(t *testing.T) {
	key, err := BuildKey("item:", "abc-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("item:abc-1"), key)

	_, err = BuildKey("", "abc")
	assert.Error(t, err)

	_, err = BuildKey("item:", "a/b")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

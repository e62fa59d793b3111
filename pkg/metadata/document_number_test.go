package metadata

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDocumentNumber(t *testing.T) {
	tests := []struct {
		name     string
		number   DocumentNumber
		expected string
	}{
		{
			name:     "first request of the year",
			number:   NewRequestNumber(2026, 1),
			expected: "REQ-2026-000001",
		},
		{
			name:     "large sequence",
			number:   NewRequestNumber(2025, 123456),
			expected: "REQ-2025-123456",
		},
		{
			name:     "opname session",
			number:   NewOpnameNumber(2026, 42),
			expected: "OPN-2026-000042",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.number.Generate())
		})
	}
}

func TestRequestNumberFormat(t *testing.T) {
	format := regexp.MustCompile(`^REQ-\d{4}-\d{6}$`)

	for seq := 1; seq <= 25; seq++ {
		assert.Regexp(t, format, NewRequestNumber(2026, seq).Generate())
	}
}

func TestParseDocumentNumber(t *testing.T) {
	parsed, err := ParseDocumentNumber(RequestNumberPrefix, "REQ-2026-000017")
	require.NoError(t, err)
	assert.Equal(t, 2026, parsed.Year())
	assert.Equal(t, 17, parsed.Sequence())

	invalid := []string{"", "REQ-2026-17", "OPN-2026-000017", "REQ-26-000017", "REQ-2026-abcdef", "REQ-2026-000000"}
	for _, value := range invalid {
		_, err := ParseDocumentNumber(RequestNumberPrefix, value)
		assert.Error(t, err, value)
	}
}

func TestYearPattern(t *testing.T) {
	assert.Equal(t, "REQ-2026-%", YearPattern(RequestNumberPrefix, 2026))
}

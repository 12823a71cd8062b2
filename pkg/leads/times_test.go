package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidDate(t *testing.T) {
	valid := []string{"2026-01-31", "2024-02-29", "1999-12-01"}
	for _, s := range valid {
		assert.True(t, ValidDate(s), "expected %q to be valid", s)
	}

	invalid := []string{
		"",
		"2026-1-31",
		"31-01-2026",
		"2026/01/31",
		"2026-13-01",
		"2026-02-30",
		"2025-02-29", // not a leap year
		"2026-01-31T10:00:00Z",
		"garbage",
	}
	for _, s := range invalid {
		assert.False(t, ValidDate(s), "expected %q to be invalid", s)
	}
}

func TestTo24Hour(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"02:30 PM", "14:30"},
		{"02:30 AM", "02:30"},
		{"12:00 PM", "12:00"},
		{"12:00 AM", "00:00"},
		{"11:59 PM", "23:59"},
		{"  09:05 am ", "09:05"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := To24Hour(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTo24Hour_Invalid(t *testing.T) {
	for _, input := range []string{"", "14:30", "2:30", "02:30", "25:00 PM", "02:61 PM", "noonish"} {
		t.Run(input, func(t *testing.T) {
			_, err := To24Hour(input)
			assert.Error(t, err)
		})
	}
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFlexibleTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "RFC3339", input: "2024-03-01T06:30:00Z"},
		{name: "Space separated", input: "2024-03-01 06:30:00"},
		{name: "Date only", input: "2024-03-01"},
		{name: "Slash format", input: "01/03/2024 06:30:00"},
		{name: "Empty", input: "", wantErr: true},
		{name: "Garbage", input: "not-a-time", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFlexibleTime(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, got)
		})
	}
}

func TestNormalizeClock(t *testing.T) {
	assert.Equal(t, "06:00", NormalizeClock("06:00"))
	assert.Equal(t, "06:00", NormalizeClock("06:00:00"))
	assert.Equal(t, "14:30", NormalizeClock("2024-03-01 14:30:00"))
	assert.Equal(t, "", NormalizeClock(""))
	// Unparseable values pass through untouched.
	assert.Equal(t, "soon", NormalizeClock("soon"))
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("14:30")
	assert.NoError(t, err)
	assert.Equal(t, 14, h)
	assert.Equal(t, 30, m)

	_, _, err = ParseClock("nope")
	assert.Error(t, err)
}

package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "formatted mobile with area code",
			raw:      "(11) 98888-7777",
			expected: "551188887777",
		},
		{
			name:     "already has country code, mobile nine dropped",
			raw:      "5511988887777",
			expected: "551188887777",
		},
		{
			name:     "landline with area code",
			raw:      "1133334444",
			expected: "551133334444",
		},
		{
			name:     "local number without area code is left alone",
			raw:      "8888-7777",
			expected: "88887777",
		},
		{
			name:     "twelve digits with country code untouched",
			raw:      "551133334444",
			expected: "551133334444",
		},
		{
			name:     "thirteen digits without nine after area code untouched",
			raw:      "5511833887777",
			expected: "5511833887777",
		},
		{
			name:     "letters and symbols stripped",
			raw:      "+55 (11) 9 8888-7777 ramal",
			expected: "551188887777",
		},
		{
			name:     "empty input",
			raw:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.raw))
		})
	}
}

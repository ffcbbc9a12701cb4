package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name   string
		input  []string
		expect []string
	}{
		{
			name:   "trims and drops empties",
			input:  []string{"  website ", "url", "", "   "},
			expect: []string{"website", "url"},
		},
		{
			name:   "duplicates collapse to first occurrence",
			input:  []string{"message", "subject", "message"},
			expect: []string{"message", "subject"},
		},
		{
			name:   "case is preserved so casing variants stay distinct",
			input:  []string{"Message", "message"},
			expect: []string{"Message", "message"},
		},
		{
			name:   "empty input passes through",
			input:  nil,
			expect: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name   string
		input  []string
		expect []string
	}{
		{
			name:   "lowercases before deduplication",
			input:  []string{"  VIAGRA ", "viagra", "Casino"},
			expect: []string{"viagra", "casino"},
		},
		{
			name:   "whitespace-only entries are dropped",
			input:  []string{" ", "Mailinator.com", ""},
			expect: []string{"mailinator.com"},
		},
		{
			name:   "order follows first occurrence",
			input:  []string{"B", "a", "b", "A"},
			expect: []string{"b", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, DedupeAndTrimLower(tt.input))
		})
	}
}

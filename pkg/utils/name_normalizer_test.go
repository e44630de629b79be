package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProcedureName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "lowercases ascii",
			input:    "Ulthera LIFT",
			expected: "ultheralift",
		},
		{
			name:     "strips whitespace and punctuation",
			input:    "  울쎄라 리프팅 (300샷) ",
			expected: "울쎄라리프팅300샷",
		},
		{
			name:     "keeps hangul and digits",
			input:    "핑크주사 2cc",
			expected: "핑크주사2cc",
		},
		{
			name:     "mixed hangul and latin with symbols",
			input:    "인모드FX+리프팅!",
			expected: "인모드fx리프팅",
		},
		{
			name:     "drops non-hangul unicode letters",
			input:    "café 주사",
			expected: "caf주사",
		},
		{
			name:     "underscore survives",
			input:    "body_contour",
			expected: "body_contour",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeProcedureName(tt.input))
		})
	}
}

func TestNormalizeProcedureNameIdempotent(t *testing.T) {
	inputs := []string{"울쎄라", "Pink 주사!!", "  InMode FX  ", "써마지FLX 600샷", ""}
	for _, in := range inputs {
		once := NormalizeProcedureName(in)
		assert.Equal(t, once, NormalizeProcedureName(once), "normalize(normalize(%q))", in)
	}
}

package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantCanonical string
		wantTokens    []string
	}{
		{
			name:          "simple name",
			input:         "Rahul Mehra",
			wantCanonical: "RAHUL MEHRA",
			wantTokens:    []string{"RAHUL", "MEHRA"},
		},
		{
			name:          "punctuation and extra spaces",
			input:         "  O'Brien,   J.  ",
			wantCanonical: "O BRIEN J",
			wantTokens:    []string{"O", "BRIEN", "J"},
		},
		{
			name:          "email keeps alphanumerics",
			input:         "rahul.mehra@example.com",
			wantCanonical: "RAHUL MEHRA EXAMPLE COM",
			wantTokens:    []string{"RAHUL", "MEHRA", "EXAMPLE", "COM"},
		},
		{
			name:          "unicode compatibility forms",
			input:         "Ｒａｈｕｌ",
			wantCanonical: "RAHUL",
			wantTokens:    []string{"RAHUL"},
		},
		{
			name:          "empty",
			input:         "",
			wantCanonical: "",
			wantTokens:    nil,
		},
		{
			name:          "only punctuation",
			input:         "---",
			wantCanonical: "",
			wantTokens:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canonical, tokens := Canonical(tt.input)
			assert.Equal(t, tt.wantCanonical, canonical)
			if len(tt.wantTokens) == 0 {
				assert.Empty(t, tokens)
			} else {
				assert.Equal(t, tt.wantTokens, tokens)
			}
		})
	}
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "RHM123", Identifier("  rhm123 "))
	assert.Equal(t, "", Identifier("   "))
}

func TestDigits(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+91 98765-43210", "919876543210"},
		{"(555) 123 4567", "5551234567"},
		{"no digits", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Digits(tt.input))
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(1990, time.February, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		input  string
		want   time.Time
		wantOK bool
	}{
		{"1990-02-10", want, true},
		{"10/02/1990", want, true},
		{"10/2/90", want, true},
		{"10-02-1990", want, true},
		{"19900210", want, true},
		{"February 10, 1990", want, true},
		{"not a date", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenOverlap(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want float64
	}{
		{"identical", []string{"A", "B"}, []string{"A", "B"}, 1.0},
		{"disjoint", []string{"A"}, []string{"B"}, 0.0},
		{"partial against smaller set", []string{"A", "B", "C"}, []string{"B"}, 1.0},
		{"half", []string{"A", "B"}, []string{"B", "C"}, 0.5},
		{"both empty", nil, nil, 1.0},
		{"one empty", []string{"A"}, nil, 0.0},
		{"duplicate tokens counted once", []string{"A", "B"}, []string{"A", "A"}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TokenOverlap(tt.a, tt.b), 1e-9)
		})
	}
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank("  .,- "))
	assert.False(t, IsBlank("x"))
}

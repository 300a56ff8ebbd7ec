package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPluralize(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, "containers"},
		{1, "container"},
		{2, "containers"},
		{-1, "containers"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Pluralize(tt.count, "container", "containers"), "count %d", tt.count)
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "init", 4},
		{"doctor", "", 6},
		{"monitor", "moniter", 1},
		{"stop", "stpo", 2},
		{"backup", "backups", 1},
		{"server", "sever", 1},
		{"Bedrock", "bedrock", 1},
		{"kitten", "sitting", 3},
	}

	for _, tt := range tests {
		t.Run(tt.a+"->"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b))
			assert.Equal(t, tt.want, LevenshteinDistance(tt.b, tt.a))
		})
	}
}

func TestSuggestSimilar(t *testing.T) {
	commands := []string{"monitor", "stop", "backup", "init", "doctor", "version", "completion", "help"}

	tests := []struct {
		name        string
		input       string
		maxDistance int
		want        []string
	}{
		{"swapped letters", "stpo", 3, []string{"stop"}},
		{"one substitution", "docter", 3, []string{"doctor"}},
		{"ignores case", "STOP", 3, []string{"stop"}},
		{"prefix beyond distance", "s", 3, []string{"stop"}},
		{"short prefix", "co", 3, []string{"completion"}},
		{"ties sort by name", "monit", 3, []string{"init", "monitor"}},
		{"cap drops edit matches", "monit", 1, []string{"monitor"}},
		{"cap drops everything", "stat", 1, nil},
		{"no match", "xyz", 3, nil},
		{"empty input", "", 3, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestSimilar(tt.input, commands, tt.maxDistance))
		})
	}
}

func TestSuggestSimilar_NoCommands(t *testing.T) {
	assert.Nil(t, SuggestSimilar("stop", nil, 3))
	assert.Nil(t, SuggestSimilar("stop", []string{}, 3))
}

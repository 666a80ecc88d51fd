package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNamespace(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "GraceChurch", "gracechurch"},
		{"whitespace becomes hyphens", "Grace Community Church", "grace-community-church"},
		{"strips punctuation", "St. Mary's!", "st-marys"},
		{"collapses hyphen runs", "first -- baptist", "first-baptist"},
		{"trims edge hyphens", "-hillsong-", "hillsong"},
		{"tabs and newlines collapse", "new\thope\ncity", "new-hope-city"},
		{"keeps digits", "Church 24/7", "church-247"},
		{"empty input", "", ""},
		{"only invalid chars", "!!!", ""},
		{"only whitespace", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeNamespace(tt.input))
		})
	}
}

func TestNormalizeNamespaceIdempotent(t *testing.T) {
	inputs := []string{
		"Grace Community Church",
		"St. Mary's!",
		"-hillsong-",
		"already-normalized",
		"Church 24/7",
	}

	for _, in := range inputs {
		once := normalizeNamespace(in)
		assert.Equal(t, once, normalizeNamespace(once), "normalizing %q twice should be stable", in)
	}
}

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		content  string
		expected string
	}{
		{"go file", "main.go", "package main", "Go"},
		{"terraform file", "infra/main.tf", `resource "a" "b" {}`, "HCL"},
		{"python file", "script.py", "print('hi')", "Python"},
		{"shebang script", "run", "#!/bin/bash\necho hi\n", "Shell"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectLanguage(tt.path, []byte(tt.content)))
		})
	}
}

func TestParse_UnsupportedLanguage(t *testing.T) {
	unit := Parse("script.py", []byte("print('hi')\n"))

	assert.Equal(t, StatusParseError, unit.Status)
	assert.Equal(t, ReasonUnsupported, unit.Reason)
	assert.Equal(t, "Python", unit.Lang)
	assert.NotEmpty(t, unit.ContentHash, "failed units still carry their content hash")
}

func TestParse_HashStableAcrossPaths(t *testing.T) {
	content := []byte("package p\n")
	a := Parse("a/one.go", content)
	b := Parse("b/two.go", content)

	assert.Equal(t, a.ContentHash, b.ContentHash, "hash depends on content only")
}

// panicAdapter stands in for a buggy language binding.
type panicAdapter struct{}

func (panicAdapter) Language() string { return "Elixir" }
func (panicAdapter) Parse(string, []byte) (*Node, []Token, error) {
	panic("boom")
}

func TestParse_AdapterPanicBecomesParseError(t *testing.T) {
	RegisterAdapter(panicAdapter{})

	unit := Parse("app.ex", []byte("defmodule App do\nend\n"))

	require.NotNil(t, unit)
	assert.Equal(t, StatusParseError, unit.Status)
	assert.Contains(t, unit.Reason, "panic")
}

func TestSupportedLanguages(t *testing.T) {
	langs := SupportedLanguages()
	assert.Contains(t, langs, "Go")
	assert.Contains(t, langs, "HCL")
}

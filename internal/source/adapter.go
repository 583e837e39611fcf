package source

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/go-enry/go-enry/v2"
)

// Adapter parses one language into the neutral form. Implementations
// must be safe for concurrent use; they receive distinct files in
// parallel.
type Adapter interface {
	// Language returns the enry language name the adapter handles.
	Language() string
	// Parse converts file content into a neutral tree and token
	// stream. A grammar error is returned as err; Parse never panics
	// past its boundary.
	Parse(path string, content []byte) (*Node, []Token, error)
}

var (
	mu       sync.RWMutex
	adapters = make(map[string]Adapter)
)

// RegisterAdapter adds a language adapter. Later registrations for the
// same language win, which lets tests swap adapters in.
func RegisterAdapter(a Adapter) {
	mu.Lock()
	defer mu.Unlock()
	adapters[a.Language()] = a
}

// AdapterFor returns the adapter for an enry language name.
func AdapterFor(lang string) (Adapter, bool) {
	mu.RLock()
	defer mu.RUnlock()
	a, ok := adapters[lang]
	return a, ok
}

// SupportedLanguages lists languages with a registered adapter.
func SupportedLanguages() []string {
	mu.RLock()
	defer mu.RUnlock()
	langs := make([]string, 0, len(adapters))
	for lang := range adapters {
		langs = append(langs, lang)
	}
	return langs
}

// DetectLanguage identifies the language of a file using go-enry.
// Extension lookup is the fast path; ambiguous extensions fall back to
// content analysis, and extension-less files (Makefile, shebang
// scripts) to filename and content detection.
func DetectLanguage(path string, content []byte) string {
	lang, safe := enry.GetLanguageByExtension(path)
	if !safe && len(content) > 0 {
		if byContent := enry.GetLanguage(filepath.Base(path), content); byContent != "" {
			lang = byContent
		}
	}
	if lang == "" {
		lang, _ = enry.GetLanguageByFilename(path)
	}
	return lang
}

// Parse turns one file into a Unit. It never fails the scan: an
// unrecognized language, a grammar error or an adapter panic all
// produce a parse-failed unit that stays visible in the report.
func Parse(path string, content []byte) (unit *Unit) {
	lang := DetectLanguage(path, content)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("adapter panic", "path", path, "language", lang, "panic", r)
			unit = NewErrorUnit(path, lang, content, fmt.Sprintf("adapter panic: %v", r))
		}
	}()

	adapter, ok := AdapterFor(lang)
	if !ok {
		return NewErrorUnit(path, lang, content, ReasonUnsupported)
	}

	tree, tokens, err := adapter.Parse(path, content)
	if err != nil {
		slog.Debug("parse failed", "path", path, "language", lang, "error", err)
		return NewErrorUnit(path, lang, content, err.Error())
	}

	return &Unit{
		Path:        path,
		ContentHash: HashContent(content),
		Lang:        lang,
		Tree:        tree,
		Tokens:      tokens,
		Status:      StatusOK,
	}
}

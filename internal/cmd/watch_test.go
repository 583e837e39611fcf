package cmd

import (
	"path/filepath"
	"testing"
)

func TestWatchIgnores(t *testing.T) {
	report, _ := filepath.Abs("out/report.json")
	cacheDB, _ := filepath.Abs("cache.db")
	ignored := []string{report, cacheDB}

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"regular source file", "/work/project/internal/a.go", false},
		{"git internals", "/work/project/.git/index", true},
		{"node_modules", "/work/project/node_modules/pkg/index.js", true},
		{"vendored code", "/work/project/vendor/lib/lib.go", true},
		{"the report we just wrote", report, true},
		{"cache database", cacheDB, true},
		{"cache wal sidecar", cacheDB + "-wal", true},
		{"cache shm sidecar", cacheDB + "-shm", true},
		{"unrelated sibling", cacheDB + ".bak", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := watchIgnores(tt.path, ignored)
			if got != tt.expected {
				t.Errorf("watchIgnores(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestWatchIgnoredPaths(t *testing.T) {
	oldOutput := settings.OutputFile
	oldSARIF := settings.SARIFFile
	oldCache := settings.CachePath
	oldLog := settings.LogFile
	defer func() {
		settings.OutputFile = oldOutput
		settings.SARIFFile = oldSARIF
		settings.CachePath = oldCache
		settings.LogFile = oldLog
	}()

	settings.OutputFile = "report.json"
	settings.SARIFFile = ""
	settings.CachePath = "findings.db"
	settings.LogFile = "-"

	ignored := watchIgnoredPaths()
	if len(ignored) != 2 {
		t.Fatalf("watchIgnoredPaths() = %v, want exactly report and cache entries", ignored)
	}
	for _, p := range ignored {
		if !filepath.IsAbs(p) {
			t.Errorf("ignored path %q is not absolute", p)
		}
	}

	settings.OutputFile = "-"
	settings.CachePath = ""
	if got := watchIgnoredPaths(); len(got) != 0 {
		t.Errorf("stdout output must not be ignored, got %v", got)
	}
}

package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestSimpleHandler(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected string
	}{
		{
			name: "scan start",
			event: Event{
				Type: EventScanStart,
				Path: "/path/to/project",
				Info: "node_modules, vendor",
			},
			expected: "[SCAN] Starting: /path/to/project\n[SCAN] Excluding: node_modules, vendor\n",
		},
		{
			name: "enter directory",
			event: Event{
				Type: EventEnterDirectory,
				Path: "internal/billing",
			},
			expected: "[DIR]  Entering: internal/billing\n",
		},
		{
			name: "walk complete",
			event: Event{
				Type:      EventWalkComplete,
				FileCount: 412,
				Duration:  300 * time.Millisecond,
			},
			expected: "[WALK] Enumerated: 412 files in 0.30s\n",
		},
		{
			name: "file processing",
			event: Event{
				Type: EventFileProcessing,
				Path: "internal/billing/invoice.go",
				Info: "Go",
			},
			expected: "[FILE] Analyzing: internal/billing/invoice.go (Go)\n",
		},
		{
			name: "cache hit",
			event: Event{
				Type: EventCacheHit,
				Path: "internal/billing/ledger.go",
			},
			expected: "[HIT]  Cached: internal/billing/ledger.go\n",
		},
		{
			name: "skipped",
			event: Event{
				Type:   EventSkipped,
				Path:   "node_modules",
				Reason: "excluded",
			},
			expected: "[SKIP] Excluding: node_modules (excluded)\n",
		},
		{
			name: "stage",
			event: Event{
				Type: EventStage,
				Name: "duplicate detection",
			},
			expected: "[STEP] Running: duplicate detection\n",
		},
		{
			name: "file writing",
			event: Event{
				Type: EventFileWriting,
				Path: "report.json",
			},
			expected: "[OUT]  Writing results to: report.json\n",
		},
		{
			name: "scan complete",
			event: Event{
				Type:         EventScanComplete,
				FileCount:    2000,
				FindingCount: 37,
				Duration:     1500 * time.Millisecond,
			},
			expected: "[SCAN] Completed: 2000 files, 37 findings in 1.5s (750.0ms per 1000 files)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			handler := NewSimpleHandler(buf)
			handler.Handle(tt.event)

			if buf.String() != tt.expected {
				t.Errorf("Expected:\n%s\nGot:\n%s", tt.expected, buf.String())
			}
		})
	}
}

func TestTreeHandler(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewTreeHandler(buf)

	// Simulate a scan sequence
	handler.Handle(Event{Type: EventScanStart, Path: "/project"})
	handler.Handle(Event{Type: EventEnterDirectory, Path: "internal"})
	handler.Handle(Event{Type: EventEnterDirectory, Path: "internal/billing"})
	handler.Handle(Event{Type: EventLeaveDirectory, Path: "internal/billing"})
	handler.Handle(Event{Type: EventLeaveDirectory, Path: "internal"})
	handler.Handle(Event{Type: EventStage, Name: "duplicate detection"})
	handler.Handle(Event{Type: EventScanComplete, FileCount: 100, FindingCount: 4, Duration: time.Second})

	output := buf.String()

	expectedParts := []string{
		"Scanning /project",
		"├─ internal",
		"│  ├─ internal/billing",
		"├─ Running: duplicate detection",
		"└─ Completed: 100 files, 4 findings",
	}

	for _, part := range expectedParts {
		if !strings.Contains(output, part) {
			t.Errorf("Expected output to contain: %s\nGot:\n%s", part, output)
		}
	}
}

func TestProgressReporter(t *testing.T) {
	t.Run("enabled reporter calls handler", func(t *testing.T) {
		buf := &bytes.Buffer{}
		handler := NewSimpleHandler(buf)
		progress := New(true, handler)

		progress.EnterDirectory("internal")

		if buf.Len() == 0 {
			t.Error("Expected handler to be called when enabled")
		}
	})

	t.Run("disabled reporter does not call handler", func(t *testing.T) {
		buf := &bytes.Buffer{}
		handler := NewSimpleHandler(buf)
		progress := New(false, handler)

		progress.EnterDirectory("internal")

		if buf.Len() > 0 {
			t.Error("Expected handler not to be called when disabled")
		}
	})
}

func TestConvenienceMethods(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewSimpleHandler(buf)
	progress := New(true, handler)

	progress.ScanStart("/project", []string{"node_modules", "vendor"})
	progress.WalkComplete(500, 300*time.Millisecond)
	progress.FileProcessing("main.go", "Go")
	progress.CacheHit("util.go")
	progress.Skipped("node_modules", "excluded")
	progress.Stage("scoring")
	progress.ScanComplete(500, 12, 2*time.Second)

	output := buf.String()

	expectedLines := 8 // scan start (2 lines) + 6 other events
	actualLines := strings.Count(output, "\n")

	if actualLines != expectedLines {
		t.Errorf("Expected %d lines, got %d\nOutput:\n%s", expectedLines, actualLines, output)
	}
}

func TestDirectoryTimings(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewSimpleHandler(buf)
	progress := New(true, handler)
	progress.EnableTimings()

	progress.EnterDirectory("internal")
	time.Sleep(5 * time.Millisecond)
	progress.LeaveDirectory("internal")

	if !strings.Contains(buf.String(), "[TIME] internal:") {
		t.Errorf("Expected timing line for directory, got:\n%s", buf.String())
	}
}

func BenchmarkSimpleHandler(b *testing.B) {
	buf := &bytes.Buffer{}
	handler := NewSimpleHandler(buf)
	event := Event{
		Type: EventEnterDirectory,
		Path: "/some/path",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.Handle(event)
	}
}

func BenchmarkProgressReporterDisabled(b *testing.B) {
	buf := &bytes.Buffer{}
	handler := NewSimpleHandler(buf)
	progress := New(false, handler)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		progress.EnterDirectory("/some/path")
	}
}

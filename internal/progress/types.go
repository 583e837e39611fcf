package progress

import (
	"sort"
	"strings"
	"time"
)

// EventType represents the type of progress event
type EventType int

const (
	EventScanStart EventType = iota
	EventScanComplete
	EventEnterDirectory
	EventLeaveDirectory
	EventWalkComplete
	EventFileProcessing
	EventCacheHit
	EventSkipped
	EventStage
	EventFileWriting
	EventFileWritten
	EventInfo
)

// Event represents something that happened during a scan
type Event struct {
	Type         EventType
	Path         string
	Name         string
	Info         string
	Reason       string
	FileCount    int
	FindingCount int
	Duration     time.Duration
	Timestamp    time.Time
}

// Reporter is the interface the engine uses to report events
type Reporter interface {
	Report(event Event)
}

// Handler processes events and produces output
type Handler interface {
	Handle(event Event)
}

// TimingEntry represents a directory timing for analysis
type TimingEntry struct {
	Path     string
	Duration time.Duration
	Depth    int
}

// getTimingIcon returns the appropriate icon for a duration
func getTimingIcon(seconds float64) string {
	if seconds >= 10.0 {
		return "🔴" // Slow
	} else if seconds >= 1.0 {
		return "🟡" // Medium
	}
	return "🟢" // Fast
}

// shortenPath shortens a path for display if it's too long
func shortenPath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	parts := strings.Split(path, "/")
	if len(parts) > 3 {
		return "..." + "/" + strings.Join(parts[len(parts)-2:], "/")
	}
	return path
}

// sortTimingsByDuration sorts timings by duration descending
func sortTimingsByDuration(timings []TimingEntry) []TimingEntry {
	sorted := make([]TimingEntry, len(timings))
	copy(sorted, timings)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Duration > sorted[j].Duration
	})
	return sorted
}

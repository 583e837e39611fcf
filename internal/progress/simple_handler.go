package progress

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// SimpleHandler outputs events as simple lines (no tree)
type SimpleHandler struct {
	writer    io.Writer
	timings   []TimingEntry // Track all timings for summary
	scanStart time.Time     // Track overall scan start time
}

func NewSimpleHandler(writer io.Writer) *SimpleHandler {
	return &SimpleHandler{
		writer:  writer,
		timings: make([]TimingEntry, 0),
	}
}

func (h *SimpleHandler) Handle(event Event) {
	switch event.Type {
	case EventScanStart:
		h.scanStart = time.Now()
		fmt.Fprintf(h.writer, "[SCAN] Starting: %s\n", event.Path)
		if event.Info != "" {
			fmt.Fprintf(h.writer, "[SCAN] Excluding: %s\n", event.Info)
		}

	case EventScanComplete:
		msPerKFiles := 0.0
		if event.FileCount > 0 {
			msPerKFiles = (event.Duration.Seconds() * 1000) / (float64(event.FileCount) / 1000)
		}
		fmt.Fprintf(h.writer, "[SCAN] Completed: %d files, %d findings in %.1fs (%.1fms per 1000 files)\n",
			event.FileCount, event.FindingCount, event.Duration.Seconds(), msPerKFiles)
		h.printConciseTimingSummary()

	case EventEnterDirectory:
		fmt.Fprintf(h.writer, "[DIR]  Entering: %s\n", event.Path)

	case EventLeaveDirectory:
		// Show timing if duration is set and track it
		if event.Duration > 0 {
			h.timings = append(h.timings, TimingEntry{
				Path:     event.Path,
				Duration: event.Duration,
				Depth:    0,
			})
			seconds := event.Duration.Seconds()
			fmt.Fprintf(h.writer, "[TIME] %s: %s %.2fs\n", event.Path, getTimingIcon(seconds), seconds)
		}

	case EventWalkComplete:
		fmt.Fprintf(h.writer, "[WALK] Enumerated: %d files in %.2fs\n",
			event.FileCount, event.Duration.Seconds())

	case EventFileProcessing:
		fmt.Fprintf(h.writer, "[FILE] Analyzing: %s (%s)\n", event.Path, event.Info)

	case EventCacheHit:
		fmt.Fprintf(h.writer, "[HIT]  Cached: %s\n", event.Path)

	case EventSkipped:
		fmt.Fprintf(h.writer, "[SKIP] Excluding: %s (%s)\n", event.Path, event.Reason)

	case EventStage:
		fmt.Fprintf(h.writer, "[STEP] Running: %s\n", event.Name)

	case EventFileWriting:
		fmt.Fprintf(h.writer, "[OUT]  Writing results to: %s\n", event.Path)

	case EventFileWritten:
		fmt.Fprintf(h.writer, "[OUT]  Results written: %s\n", event.Path)

	case EventInfo:
		fmt.Fprintf(h.writer, "[INFO] %s\n", event.Info)
	}
}

// printConciseTimingSummary provides human-readable timing summary for SimpleHandler
func (h *SimpleHandler) printConciseTimingSummary() {
	if len(h.timings) == 0 {
		return
	}

	var totalDirTime time.Duration
	slowCount := 0
	var slowest TimingEntry

	for _, timing := range h.timings {
		totalDirTime += timing.Duration
		if timing.Duration.Seconds() >= 10.0 {
			slowCount++
		}
		if timing.Duration > slowest.Duration {
			slowest = timing
		}
	}

	avgTime := totalDirTime.Seconds() / float64(len(h.timings))

	fmt.Fprintf(h.writer, "\n📊 TIMING SUMMARY\n")
	fmt.Fprintf(h.writer, "   • Total directories: %d\n", len(h.timings))
	fmt.Fprintf(h.writer, "   • Average per directory: %.3fs\n", avgTime)

	if slowCount > 0 {
		fmt.Fprintf(h.writer, "   • ⚠️  Slow directories (≥10s): %d\n", slowCount)
	} else {
		fmt.Fprintf(h.writer, "   • ✅ All directories processed quickly\n")
	}

	if slowest.Duration > 0 {
		displayPath := slowest.Path
		if len(displayPath) > 50 {
			parts := strings.Split(displayPath, "/")
			if len(parts) > 2 {
				displayPath = ".../" + strings.Join(parts[len(parts)-2:], "/")
			}
		}
		fmt.Fprintf(h.writer, "   • Slowest: %s (%.2fs)\n", displayPath, slowest.Duration.Seconds())
	}

	fmt.Fprintln(h.writer)
}

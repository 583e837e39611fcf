package progress

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// TreeHandler outputs events with tree-like visualization
type TreeHandler struct {
	writer    io.Writer
	depth     int
	timings   []TimingEntry // Track all timings for summary
	scanStart time.Time     // Track overall scan start time
}

func NewTreeHandler(writer io.Writer) *TreeHandler {
	return &TreeHandler{
		writer:  writer,
		depth:   0,
		timings: make([]TimingEntry, 0),
	}
}

func (h *TreeHandler) Handle(event Event) {
	indent := strings.Repeat("│  ", h.depth)
	prefix := "├─ "

	switch event.Type {
	case EventScanStart:
		h.scanStart = time.Now()
		fmt.Fprintf(h.writer, "Scanning %s...\n", event.Path)
		if event.Info != "" {
			fmt.Fprintf(h.writer, "Excluding: %s\n", event.Info)
		}
		fmt.Fprintln(h.writer)

	case EventScanComplete:
		msPerKFiles := 0.0
		if event.FileCount > 0 {
			msPerKFiles = (event.Duration.Seconds() * 1000) / (float64(event.FileCount) / 1000)
		}
		fmt.Fprintf(h.writer, "└─ Completed: %d files, %d findings in %.1fs (%.1fms per 1000 files)\n",
			event.FileCount, event.FindingCount, event.Duration.Seconds(), msPerKFiles)
		h.printSlowestDirectories()

	case EventEnterDirectory:
		fmt.Fprintf(h.writer, "%s%s%s\n", indent, prefix, event.Path)
		h.depth++

	case EventLeaveDirectory:
		h.depth--
		if h.depth < 0 {
			h.depth = 0
		}
		// Show timing if duration is set and track it
		if event.Duration > 0 {
			indent := strings.Repeat("│  ", h.depth)
			h.timings = append(h.timings, TimingEntry{
				Path:     event.Path,
				Duration: event.Duration,
				Depth:    h.depth,
			})
			seconds := event.Duration.Seconds()
			fmt.Fprintf(h.writer, "%s└─ %s ⏱  %.2fs\n", indent, getTimingIcon(seconds), seconds)
		}

	case EventWalkComplete:
		fmt.Fprintf(h.writer, "%s%sEnumerated: %d files\n", indent, prefix, event.FileCount)

	case EventStage:
		fmt.Fprintf(h.writer, "%s%sRunning: %s\n", indent, prefix, event.Name)

	case EventFileWriting:
		fmt.Fprintf(h.writer, "%s%sWriting results to: %s\n", indent, prefix, event.Path)

	case EventFileWritten:
		fmt.Fprintf(h.writer, "%s%sResults written: %s\n", indent, prefix, event.Path)

	case EventInfo:
		fmt.Fprintf(h.writer, "%s%s%s\n", indent, prefix, event.Info)
	}
}

// printSlowestDirectories outputs top 10 slowest directories for TreeHandler
func (h *TreeHandler) printSlowestDirectories() {
	if len(h.timings) == 0 {
		return
	}

	sortedTimings := sortTimingsByDuration(h.timings)

	fmt.Fprintln(h.writer)
	fmt.Fprintf(h.writer, "🐌 TOP 10 SLOWEST DIRECTORIES\n")
	fmt.Fprintf(h.writer, "═══════════════════════════════════════\n")

	maxShow := len(sortedTimings)
	if maxShow > 10 {
		maxShow = 10
	}

	for i := 0; i < maxShow; i++ {
		timing := sortedTimings[i]
		seconds := timing.Duration.Seconds()
		fmt.Fprintf(h.writer, " %s %2d. %-45s %6.2fs\n", getTimingIcon(seconds), i+1, shortenPath(timing.Path, 60), seconds)
	}

	fmt.Fprintln(h.writer)
}

// NullHandler discards all events (for disabled verbose mode)
type NullHandler struct{}

func NewNullHandler() *NullHandler {
	return &NullHandler{}
}

func (h *NullHandler) Handle(event Event) {
	// Do nothing
}

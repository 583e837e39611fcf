package progress

import (
	"os"
	"strings"
	"sync"
	"time"
)

// Progress is the centralized verbose system. Events may arrive from
// concurrent scan workers; the handler sees them one at a time.
type Progress struct {
	enabled     bool
	handler     Handler
	withTimings bool
	mu          sync.Mutex
	dirTimings  map[string]time.Time // Track directory entry times
}

// New creates a new progress reporter
func New(enabled bool, handler Handler) *Progress {
	if handler == nil {
		handler = NewSimpleHandler(os.Stderr)
	}
	return &Progress{
		enabled:     enabled,
		handler:     handler,
		withTimings: false,
		dirTimings:  make(map[string]time.Time),
	}
}

// EnableTimings enables timing information in progress output
func (p *Progress) EnableTimings() {
	p.withTimings = true
}

// Report sends an event to the handler (only if enabled)
func (p *Progress) Report(event Event) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler.Handle(event)
}

// Convenience methods for the engine to report events

func (p *Progress) ScanStart(path string, excludePatterns []string) {
	p.Report(Event{
		Type: EventScanStart,
		Path: path,
		Info: strings.Join(excludePatterns, ", "),
	})
}

func (p *Progress) ScanComplete(files, findings int, duration time.Duration) {
	p.Report(Event{
		Type:         EventScanComplete,
		FileCount:    files,
		FindingCount: findings,
		Duration:     duration,
	})
}

func (p *Progress) EnterDirectory(path string) {
	if p.withTimings {
		p.mu.Lock()
		p.dirTimings[path] = time.Now()
		p.mu.Unlock()
	}
	p.Report(Event{
		Type:      EventEnterDirectory,
		Path:      path,
		Timestamp: time.Now(),
	})
}

func (p *Progress) LeaveDirectory(path string) {
	var duration time.Duration
	if p.withTimings {
		p.mu.Lock()
		if startTime, ok := p.dirTimings[path]; ok {
			duration = time.Since(startTime)
			delete(p.dirTimings, path)
		}
		p.mu.Unlock()
	}
	p.Report(Event{
		Type:     EventLeaveDirectory,
		Path:     path,
		Duration: duration,
	})
}

func (p *Progress) WalkComplete(files int, duration time.Duration) {
	p.Report(Event{
		Type:      EventWalkComplete,
		FileCount: files,
		Duration:  duration,
	})
}

func (p *Progress) FileProcessing(path, info string) {
	p.Report(Event{
		Type: EventFileProcessing,
		Path: path,
		Info: info,
	})
}

func (p *Progress) CacheHit(path string) {
	p.Report(Event{
		Type: EventCacheHit,
		Path: path,
	})
}

func (p *Progress) Skipped(path, reason string) {
	p.Report(Event{
		Type:   EventSkipped,
		Path:   path,
		Reason: reason,
	})
}

func (p *Progress) Stage(name string) {
	p.Report(Event{
		Type: EventStage,
		Name: name,
	})
}

func (p *Progress) FileWriting(path string) {
	p.Report(Event{
		Type: EventFileWriting,
		Path: path,
	})
}

func (p *Progress) FileWritten(path string) {
	p.Report(Event{
		Type: EventFileWritten,
		Path: path,
	})
}

func (p *Progress) Info(message string) {
	p.Report(Event{
		Type: EventInfo,
		Info: message,
	})
}

// Package metadata describes one scan execution for the report header.
package metadata

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/mod/modfile"

	"github.com/DNYoussef/Spek-template-sub011/internal/version"
)

// ScanMetadata contains information about the scan execution.
type ScanMetadata struct {
	ScanID        string `json:"scanId"`
	Timestamp     string `json:"timestamp"`
	ScanPath      string `json:"scanPath"`
	Module        string `json:"module,omitempty"`
	Profile       string `json:"profile"`
	DetectorSet   string `json:"detectorSet"`
	ToolVersion   string `json:"toolVersion"`
	FormatVersion string `json:"formatVersion"`
	DurationMs    int64  `json:"durationMs,omitempty"`
	FileCount     int    `json:"fileCount"`
	ParsedCount   int    `json:"parsedCount"`
}

// New stamps a fresh metadata block. detectorSet is the versioned
// detector fingerprint the cache keys on, recorded so two reports are
// comparable only when it matches.
func New(scanPath, profileName, detectorSet string) *ScanMetadata {
	absPath, err := filepath.Abs(scanPath)
	if err != nil {
		absPath = scanPath
	}

	return &ScanMetadata{
		ScanID:        uuid.NewString(),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		ScanPath:      absPath,
		Module:        modulePath(absPath),
		Profile:       profileName,
		DetectorSet:   detectorSet,
		ToolVersion:   version.Version,
		FormatVersion: version.FormatVersion,
	}
}

// SetDuration sets the scan duration in milliseconds.
func (m *ScanMetadata) SetDuration(duration time.Duration) {
	m.DurationMs = duration.Milliseconds()
}

// SetFileCounts records how many files the walker found and how many of
// them parsed.
func (m *ScanMetadata) SetFileCounts(total, parsed int) {
	m.FileCount = total
	m.ParsedCount = parsed
}

// modulePath reads the module identity from a go.mod at the scan root,
// when there is one. Non-Go trees simply leave the field empty.
func modulePath(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}

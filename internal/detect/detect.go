// Package detect holds the rule detector registry. Detectors are pure
// per unit: same unit and profile, same findings, no shared state. The
// registry is ordered and versioned so cached findings die whenever the
// detector set or its thresholds change.
package detect

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"log/slog"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
)

// RuleDetectorFailure marks a detector that panicked on a file. The
// finding replaces that detector's output for the file; other detectors
// and files are unaffected.
const RuleDetectorFailure = "detector-failure"

// revision changes whenever a built-in detector's logic changes in a
// way that alters its findings. Bumping it invalidates every cache.
const revision = 1

// Detector checks one rule against one parsed unit.
type Detector interface {
	// ID returns the stable rule id, e.g. "nesting-depth".
	ID() string

	// Category returns the finding category every emission carries.
	Category() findings.Category

	// Detect returns all violations of this rule in the unit.
	// Thresholds come from the profile; the unit is read-only.
	Detect(unit *source.Unit, profile *config.Profile) []findings.Finding
}

// Global registry for rule detectors
var (
	mu        sync.RWMutex
	detectors []Detector
)

// Register adds a rule detector to the registry
func Register(detector Detector) {
	mu.Lock()
	defer mu.Unlock()
	detectors = append(detectors, detector)
}

// All returns the registered detectors ordered by id. The order is
// stable across runs regardless of package initialization order.
func All() []Detector {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Detector, len(detectors))
	copy(out, detectors)
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// RuleIDs returns the sorted ids of all registered detectors.
func RuleIDs() []string {
	all := All()
	ids := make([]string, len(all))
	for i, d := range all {
		ids[i] = d.ID()
	}
	return ids
}

// Version digests the detector set and the profile knobs that shape
// findings. It is part of every cache key: adding, removing or
// reconfiguring a detector orphans all cached entries at once.
func Version(profile *config.Profile) string {
	parts := []string{fmt.Sprintf("r%d", revision)}
	parts = append(parts, RuleIDs()...)
	if profile != nil {
		parts = append(parts, profile.Fingerprint())
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:16]
}

// Run executes every enabled detector against the unit. Units that
// failed to parse produce nothing here; the engine reports those as
// parse-error findings instead.
func Run(unit *source.Unit, profile *config.Profile) []findings.Finding {
	if unit == nil || !unit.OK() {
		return nil
	}
	var out []findings.Finding
	for _, d := range All() {
		if !profile.RuleEnabled(d.ID()) {
			continue
		}
		out = append(out, runOne(d, unit, profile)...)
	}
	return out
}

// runOne isolates a single detector. A panic becomes one
// detector-failure finding for this (detector, file) pair.
func runOne(d Detector, unit *source.Unit, profile *config.Profile) (found []findings.Finding) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("detector panicked", "detector", d.ID(), "file", unit.Path, "panic", r)
			found = []findings.Finding{{
				RuleID:    RuleDetectorFailure,
				Category:  findings.CategoryStructural,
				Severity:  findings.SeverityWarning,
				File:      unit.Path,
				StartLine: 1,
				EndLine:   1,
				Message:   fmt.Sprintf("detector %s failed on this file: %v", d.ID(), r),
			}}
		}
	}()
	return d.Detect(unit, profile)
}

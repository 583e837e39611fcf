// Package cache stores per-file detector output keyed by content hash
// and detector-set version, so unchanged files skip detection on rescans.
// A cache is an optimization only: every implementation may drop entries
// at will, and a scan with no cache produces byte-identical output to a
// scan with a warm one.
package cache

import (
	"context"

	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
)

// Cache is the findings store consulted around the detector stage. A Get
// hit returns the findings recorded for that exact content and detector
// set; a file with no findings still hits, with an empty list. Put
// failures are swallowed, since losing a cache write only costs a rescan.
// Implementations must be safe for concurrent use; same-key races are
// benign because identical keys always carry identical payloads.
type Cache interface {
	Get(ctx context.Context, contentHash, detectorVersion string) ([]findings.Finding, bool)
	Put(ctx context.Context, contentHash, detectorVersion string, items []findings.Finding)
	Close() error
}

type disabled struct{}

// Disabled returns a cache that never hits and never stores.
func Disabled() Cache { return disabled{} }

func (disabled) Get(context.Context, string, string) ([]findings.Finding, bool) { return nil, false }

func (disabled) Put(context.Context, string, string, []findings.Finding) {}

func (disabled) Close() error { return nil }

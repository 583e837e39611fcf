package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
)

// defaultMemoryEntries bounds the in-memory cache when the caller does
// not pick a capacity. One entry per scanned file is the working set.
const defaultMemoryEntries = 4096

// Memory is a process-local LRU cache. It survives between scans inside
// one watch session but not across processes.
type Memory struct {
	entries *lru.Cache[string, []findings.Finding]
}

// NewMemory builds an LRU-backed cache holding up to capacity entries.
// Non-positive capacities fall back to a sensible default.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = defaultMemoryEntries
	}
	entries, _ := lru.New[string, []findings.Finding](capacity)
	return &Memory{entries: entries}
}

func (m *Memory) Get(_ context.Context, contentHash, detectorVersion string) ([]findings.Finding, bool) {
	items, ok := m.entries.Get(memoryKey(contentHash, detectorVersion))
	if !ok {
		return nil, false
	}
	return cloneFindings(items), true
}

func (m *Memory) Put(_ context.Context, contentHash, detectorVersion string, items []findings.Finding) {
	m.entries.Add(memoryKey(contentHash, detectorVersion), cloneFindings(items))
}

func (m *Memory) Close() error {
	m.entries.Purge()
	return nil
}

func memoryKey(contentHash, detectorVersion string) string {
	return contentHash + "\x00" + detectorVersion
}

// cloneFindings copies the slice both on Put and Get so callers never
// alias the cache's backing array. Findings themselves are immutable.
func cloneFindings(items []findings.Finding) []findings.Finding {
	if items == nil {
		return nil
	}
	out := make([]findings.Finding, len(items))
	copy(out, items)
	return out
}

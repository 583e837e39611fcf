// Package license runs the tree-level license gate. Unlike per-file
// detectors it looks at the scan root exactly once: when no recognizable
// license text is found there, the scan carries a regulatory finding so
// unlicensed trees surface in the compliance report.
package license

import (
	"sort"

	"github.com/go-enry/go-license-detector/v4/licensedb"
	"github.com/go-enry/go-license-detector/v4/licensedb/filer"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/provider"
)

// RuleMissingLicense is the fixed rule id of the gate.
const RuleMissingLicense = "missing-license"

// minConfidence keeps fuzzy matches out; below this the text is not
// considered a license at all.
const minConfidence = 0.9

// Match is one license recognized at the scan root.
type Match struct {
	SPDX       string
	Confidence float32
	File       string
}

// Detect returns the licenses recognized at the provider's root,
// strongest match first. An unreadable root counts as no license.
func Detect(p provider.Provider) []Match {
	matches, err := licensedb.Detect(providerFiler{p: p})
	if err != nil {
		return nil
	}

	var out []Match
	for spdx, m := range matches {
		if m.Confidence > minConfidence {
			out = append(out, Match{SPDX: spdx, Confidence: m.Confidence, File: m.File})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].SPDX < out[j].SPDX
	})
	return out
}

// DetectRoot is Detect over a directory on disk.
func DetectRoot(root string) []Match {
	return Detect(provider.NewFSProvider(root))
}

// Gate emits the missing-license finding for trees without one. The
// finding points at the conventional path the root should carry.
func Gate(p provider.Provider, profile *config.Profile) []findings.Finding {
	if !profile.RuleEnabled(RuleMissingLicense) {
		return nil
	}
	if len(Detect(p)) > 0 {
		return nil
	}
	return []findings.Finding{{
		RuleID:    RuleMissingLicense,
		Category:  findings.CategoryRegulatory,
		Severity:  findings.SeverityWarning,
		File:      "LICENSE",
		StartLine: 1,
		EndLine:   1,
		Message:   "no recognizable license found at the scan root",
	}}
}

// providerFiler adapts a provider to the license detector's filesystem
// interface, so the gate works against fake trees in tests exactly like
// real ones.
type providerFiler struct {
	p provider.Provider
}

func (f providerFiler) ReadFile(path string) ([]byte, error) {
	return f.p.ReadFile(path)
}

func (f providerFiler) ReadDir(path string) ([]filer.File, error) {
	if path == "" {
		path = "."
	}
	entries, err := f.p.ListDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]filer.File, 0, len(entries))
	for _, entry := range entries {
		out = append(out, filer.File{Name: entry.Name, IsDir: entry.Type == "dir"})
	}
	return out, nil
}

func (f providerFiler) Close() {}

func (f providerFiler) PathsAreAlwaysSlash() bool { return true }

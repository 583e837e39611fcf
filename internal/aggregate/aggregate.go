// Package aggregate merges per-file and whole-tree findings into one
// ordered violation set. It is the fan-in stage: workers hand it their
// results after the barrier, so two scans over identical input always
// produce byte-identical finding order no matter how the pool scheduled
// the files.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
)

// RuleParseError marks files the engine walked but could not analyze.
const RuleParseError = "parse-error"

// Result is the merged output handed to scoring and reporting.
type Result struct {
	Findings      []findings.Finding
	ParseFailures []findings.ParseFailure
	Clusters      []findings.DuplicateCluster
}

// Aggregator folds detector output, duplication clusters and parse
// failures into a deduplicated set. It is fed single-threaded after the
// worker pool drains; it is not safe for concurrent use.
type Aggregator struct {
	byKey    map[findings.Key]findings.Finding
	failures []findings.ParseFailure
	clusters []findings.DuplicateCluster
}

func New() *Aggregator {
	return &Aggregator{byKey: make(map[findings.Key]findings.Finding)}
}

// AddUnit records one file's contribution: its findings when it parsed,
// or a parse-error pseudo-finding when it did not.
func (a *Aggregator) AddUnit(unit *source.Unit, items []findings.Finding) {
	if unit == nil {
		return
	}
	if !unit.OK() {
		a.failures = append(a.failures, findings.ParseFailure{File: unit.Path, Reason: unit.Reason})
		a.add(parseErrorFinding(unit))
		return
	}
	for _, f := range items {
		a.add(f)
	}
}

// AddClusters records the duplication stage's output: the clusters
// themselves for the report, plus their fanned-out member findings.
func (a *Aggregator) AddClusters(clusters []findings.DuplicateCluster, items []findings.Finding) {
	a.clusters = append(a.clusters, clusters...)
	for _, f := range items {
		a.add(f)
	}
}

// AddFindings records engine-level findings that belong to no single
// unit, such as the tree-wide license gate.
func (a *Aggregator) AddFindings(items []findings.Finding) {
	for _, f := range items {
		a.add(f)
	}
}

// add keeps the first finding seen per key. Re-reporting the same rule
// at the same location is an idempotent union, not a concatenation.
func (a *Aggregator) add(f findings.Finding) {
	key := f.Key()
	if _, seen := a.byKey[key]; seen {
		return
	}
	a.byKey[key] = f
}

// Result sorts everything into canonical report order and returns the
// merged set. The aggregator can be reused afterwards but normally is
// not.
func (a *Aggregator) Result() *Result {
	merged := make([]findings.Finding, 0, len(a.byKey))
	for _, f := range a.byKey {
		merged = append(merged, f)
	}
	sort.Slice(merged, func(i, j int) bool { return findings.Less(merged[i], merged[j]) })

	failures := make([]findings.ParseFailure, len(a.failures))
	copy(failures, a.failures)
	sort.Slice(failures, func(i, j int) bool { return failures[i].File < failures[j].File })

	return &Result{
		Findings:      merged,
		ParseFailures: failures,
		Clusters:      a.clusters,
	}
}

// parseErrorFinding converts a failed unit into the pseudo-finding that
// keeps skipped files visible in the scored report. Unsupported grammars
// are informational; real failures like syntax errors or timeouts warn.
func parseErrorFinding(unit *source.Unit) findings.Finding {
	severity := findings.SeverityWarning
	if unit.Reason == source.ReasonUnsupported {
		severity = findings.SeverityInfo
	}
	return findings.Finding{
		RuleID:    RuleParseError,
		Category:  findings.CategoryStructural,
		Severity:  severity,
		File:      unit.Path,
		StartLine: 1,
		EndLine:   1,
		Message:   fmt.Sprintf("file not analyzed: %s", unit.Reason),
	}
}

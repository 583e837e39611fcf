// Package report shapes one scan into its external forms: the JSON
// document collaborators consume, SARIF 2.1.0 for code-review tooling,
// and a human summary for terminals. The JSON findings array keeps the
// canonical file/line/rule order; only the terminal view regroups by
// severity.
package report

import (
	"encoding/json"

	"github.com/DNYoussef/Spek-template-sub011/internal/aggregate"
	"github.com/DNYoussef/Spek-template-sub011/internal/codestats"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/metadata"
	"github.com/DNYoussef/Spek-template-sub011/internal/policy"
)

// ScanResult is the complete outcome of one scan.
type ScanResult struct {
	Metadata       *metadata.ScanMetadata      `json:"metadata"`
	Score          float64                     `json:"score"`
	Pass           bool                        `json:"pass"`
	CategoryCounts map[string]int              `json:"categoryCounts"`
	SeverityCounts map[string]int              `json:"severityCounts"`
	BlockingRules  []string                    `json:"blockingRules,omitempty"`
	RuleCoverage   policy.Coverage             `json:"ruleCoverage"`
	Findings       []findings.Finding          `json:"findings"`
	ParseErrors    []findings.ParseFailure     `json:"parseErrors,omitempty"`
	Clusters       []findings.DuplicateCluster `json:"duplicateClusters,omitempty"`
	CodeStats      *codestats.Report           `json:"codeStats,omitempty"`
}

// New assembles the result document from the aggregated findings and
// the policy verdict. Findings is always non-nil so a clean scan
// serializes as an empty array, not null.
func New(meta *metadata.ScanMetadata, res aggregate.Result, eval *policy.Evaluation) *ScanResult {
	items := res.Findings
	if items == nil {
		items = []findings.Finding{}
	}
	return &ScanResult{
		Metadata:       meta,
		Score:          eval.Score,
		Pass:           eval.Pass,
		CategoryCounts: eval.CategoryCounts,
		SeverityCounts: eval.SeverityCounts,
		BlockingRules:  eval.BlockingRules,
		RuleCoverage:   eval.Coverage,
		Findings:       items,
		ParseErrors:    res.ParseFailures,
		Clusters:       res.Clusters,
	}
}

// JSON encodes the result for file or stdout output.
func (r *ScanResult) JSON(pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(r, "", "  ")
	}
	return json.Marshal(r)
}

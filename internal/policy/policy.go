// Package policy turns the merged finding set into a verdict. Scoring
// starts from 100 and subtracts the profile's category weight times
// severity weight per finding, clamped to [0,100]. The gate is dual: the
// score must clear the profile cutoff, and no blocking category may hold
// a critical finding. The second condition models zero-tolerance rules
// that fail a scan no matter how clean the rest of the tree is.
package policy

import (
	"sort"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
)

// Coverage lists which rules could have fired this scan. Enabled is the
// registered rule set minus profile-disabled rules; Executed is the
// subset whose stage actually ran. A parse-error-only scan shows the gap
// between the two, so partial analysis never masquerades as a clean one.
type Coverage struct {
	Enabled  []string `json:"enabled"`
	Executed []string `json:"executed"`
}

// Evaluation is the scored verdict over one aggregated finding set.
type Evaluation struct {
	Score          float64        `json:"score"`
	Pass           bool           `json:"pass"`
	CategoryCounts map[string]int `json:"categoryCounts"`
	SeverityCounts map[string]int `json:"severityCounts"`
	BlockingRules  []string       `json:"blockingRules,omitempty"`
	Coverage       Coverage       `json:"ruleCoverage"`
}

// Evaluate applies the profile to the merged findings. The input order
// does not matter; the verdict depends only on the set.
func Evaluate(profile *config.Profile, items []findings.Finding, coverage Coverage) *Evaluation {
	eval := &Evaluation{
		Score:          100,
		CategoryCounts: make(map[string]int),
		SeverityCounts: make(map[string]int),
		Coverage:       coverage,
	}

	blocking := make(map[string]bool)
	penalty := 0.0
	for _, f := range items {
		eval.CategoryCounts[string(f.Category)]++
		eval.SeverityCounts[f.Severity.String()]++
		penalty += profile.CategoryWeight(f.Category) * profile.SeverityWeight(f.Severity)

		if f.Severity == findings.SeverityCritical && profile.Blocking(f.Category) {
			blocking[f.RuleID] = true
		}
	}

	eval.Score = clamp(100 - penalty)
	for rule := range blocking {
		eval.BlockingRules = append(eval.BlockingRules, rule)
	}
	sort.Strings(eval.BlockingRules)

	eval.Pass = eval.Score >= profile.Cutoff && len(eval.BlockingRules) == 0
	return eval
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

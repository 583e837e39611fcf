package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
)

func finding(file string, line int, rule string) findings.Finding {
	return findings.Finding{
		RuleID:    rule,
		Category:  findings.CategoryCoupling,
		Severity:  findings.SeverityWarning,
		File:      file,
		StartLine: line,
		EndLine:   line,
		Message:   "example",
	}
}

func okUnit(path string) *source.Unit {
	return &source.Unit{
		Path:        path,
		ContentHash: "hash-" + path,
		Lang:        "Go",
		Tree:        &source.Node{Kind: source.KindFile},
		Status:      source.StatusOK,
	}
}

func TestAggregator_CanonicalOrder(t *testing.T) {
	a := New()
	a.AddUnit(okUnit("b.go"), []findings.Finding{
		finding("b.go", 10, "function-length"),
		finding("b.go", 2, "nesting-depth"),
	})
	a.AddUnit(okUnit("a.go"), []findings.Finding{
		finding("a.go", 10, "coupling-value"),
		finding("a.go", 10, "coupling-meaning"),
	})

	result := a.Result()

	require.Len(t, result.Findings, 4)
	assert.Equal(t, "a.go", result.Findings[0].File)
	assert.Equal(t, "coupling-meaning", result.Findings[0].RuleID, "rule id breaks line ties")
	assert.Equal(t, "coupling-value", result.Findings[1].RuleID)
	assert.Equal(t, "b.go", result.Findings[2].File)
	assert.Equal(t, 2, result.Findings[2].StartLine)
	assert.Equal(t, 10, result.Findings[3].StartLine)
}

func TestAggregator_InsertionOrderDoesNotMatter(t *testing.T) {
	set := []findings.Finding{
		finding("z.go", 1, "coupling-name"),
		finding("a.go", 99, "unbounded-loop"),
		finding("m.go", 50, "theater-print"),
	}

	forward := New()
	forward.AddFindings(set)

	backward := New()
	for i := len(set) - 1; i >= 0; i-- {
		backward.AddFindings(set[i : i+1])
	}

	assert.Equal(t, forward.Result(), backward.Result())
}

func TestAggregator_SameKeyKeptOnce(t *testing.T) {
	a := New()
	first := finding("a.go", 5, "coupling-value")
	first.Message = "first report"
	second := finding("a.go", 5, "coupling-value")
	second.Message = "second report"

	a.AddFindings([]findings.Finding{first})
	a.AddFindings([]findings.Finding{second})

	result := a.Result()
	require.Len(t, result.Findings, 1, "idempotent union, not concatenation")
	assert.Equal(t, "first report", result.Findings[0].Message)
}

func TestAggregator_ParseFailureBecomesPseudoFinding(t *testing.T) {
	a := New()
	broken := source.NewErrorUnit("broken.go", "Go", []byte("package {"), "expected identifier")
	a.AddUnit(broken, nil)

	result := a.Result()

	require.Len(t, result.Findings, 1)
	f := result.Findings[0]
	assert.Equal(t, RuleParseError, f.RuleID)
	assert.Equal(t, findings.CategoryStructural, f.Category)
	assert.Equal(t, findings.SeverityWarning, f.Severity)
	assert.Equal(t, 1, f.StartLine)
	assert.Equal(t, 1, f.EndLine)
	assert.Contains(t, f.Message, "expected identifier")

	require.Len(t, result.ParseFailures, 1)
	assert.Equal(t, "broken.go", result.ParseFailures[0].File)
}

func TestAggregator_UnsupportedLanguageIsInfo(t *testing.T) {
	a := New()
	a.AddUnit(source.NewErrorUnit("styles.css", "", []byte("body {}"), source.ReasonUnsupported), nil)

	result := a.Result()

	require.Len(t, result.Findings, 1)
	assert.Equal(t, findings.SeverityInfo, result.Findings[0].Severity)
}

func TestAggregator_ClustersAndMembersCarried(t *testing.T) {
	a := New()
	clusters := []findings.DuplicateCluster{{
		ID: "dup-0001",
		Members: []findings.Span{
			{File: "a.go", StartLine: 3, EndLine: 20},
			{File: "b.go", StartLine: 3, EndLine: 20},
		},
		Similarity: 1.0,
	}}
	members := []findings.Finding{
		finding("a.go", 3, "duplicate-code"),
		finding("b.go", 3, "duplicate-code"),
	}

	a.AddClusters(clusters, members)

	result := a.Result()
	assert.Equal(t, clusters, result.Clusters)
	assert.Len(t, result.Findings, 2)
}

func TestAggregator_EmptyScan(t *testing.T) {
	result := New().Result()

	assert.Empty(t, result.Findings)
	assert.Empty(t, result.ParseFailures)
	assert.Empty(t, result.Clusters)
}

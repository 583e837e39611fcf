package engine

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DNYoussef/Spek-template-sub011/internal/aggregate"
	"github.com/DNYoussef/Spek-template-sub011/internal/cache"
	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/duplication"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/license"
	"github.com/DNYoussef/Spek-template-sub011/internal/progress"
	"github.com/DNYoussef/Spek-template-sub011/internal/provider"
	"github.com/DNYoussef/Spek-template-sub011/internal/report"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
)

// cleanSource trips no rule under the default profile: one short
// function, no repeated literals, no package state, no control flow.
const cleanSource = `package mathutil

func Add(a, b int) int {
	return a + b
}
`

// deeplyNested puts five if statements inside each other, one past the
// default nesting limit of four.
const deeplyNested = `package deep

func classify(a, b, c int) int {
	result := 0
	if a > b {
		if b > c {
			if c > a {
				if a > c {
					if b > a {
						result = 99
					}
				}
			}
		}
	}
	return result
}
`

// dupAlpha and dupBeta differ only in identifier names, so their
// normalized token streams match shingle for shingle.
const dupAlpha = `package alpha

func SumRange(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
`

const dupBeta = `package beta

func AddAll(items []int) int {
	acc := 0
	for _, x := range items {
		acc += x
	}
	return acc
}
`

func buildProvider(files map[string]string) *provider.FakeProvider {
	p := provider.NewFakeProvider()
	for path, content := range files {
		p.AddFile(path, content)
	}
	return p
}

func defaultProfile(t *testing.T) *config.Profile {
	t.Helper()
	profile, err := config.LoadProfile("")
	require.NoError(t, err)
	return profile
}

// canonicalJSON strips the per-run metadata (scan id, timestamp,
// duration) and renders the rest, so results can be compared byte for
// byte across runs.
func canonicalJSON(t *testing.T, r *report.ScanResult) string {
	t.Helper()
	clone := *r
	clone.Metadata = nil
	data, err := clone.JSON(true)
	require.NoError(t, err)
	return string(data)
}

func findByRule(items []findings.Finding, ruleID string) []findings.Finding {
	var out []findings.Finding
	for _, f := range items {
		if f.RuleID == ruleID {
			out = append(out, f)
		}
	}
	return out
}

func TestNew_RequiresRootOrProvider(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan root")
}

func TestScan_CleanTreeScoresFull(t *testing.T) {
	profile := defaultProfile(t)
	profile.DisabledRules = append(profile.DisabledRules, license.RuleMissingLicense)

	eng, err := New(Options{
		Provider: buildProvider(map[string]string{"mathutil.go": cleanSource}),
		Profile:  profile,
	})
	require.NoError(t, err)

	result, err := eng.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 100.0, result.Score)
	assert.True(t, result.Pass)
	assert.Empty(t, result.Findings)
	assert.NotNil(t, result.Findings, "findings must stay an array, not null")
	assert.Empty(t, result.ParseErrors)
	assert.Empty(t, result.BlockingRules)
	assert.Contains(t, result.RuleCoverage.Executed, "nesting-depth")
	assert.Contains(t, result.RuleCoverage.Executed, duplication.RuleDuplicateCode)
	assert.NotContains(t, result.RuleCoverage.Enabled, license.RuleMissingLicense)
	require.NotNil(t, result.Metadata)
	assert.Equal(t, 1, result.Metadata.FileCount)
	assert.Equal(t, 1, result.Metadata.ParsedCount)
}

func TestScan_MissingLicenseGate(t *testing.T) {
	eng, err := New(Options{
		Provider: buildProvider(map[string]string{"mathutil.go": cleanSource}),
	})
	require.NoError(t, err)

	result, err := eng.Scan(context.Background())
	require.NoError(t, err)

	gate := findByRule(result.Findings, license.RuleMissingLicense)
	require.Len(t, gate, 1)
	assert.Equal(t, findings.CategoryRegulatory, gate[0].Category)
	assert.Equal(t, findings.SeverityWarning, gate[0].Severity)
	assert.Equal(t, "LICENSE", gate[0].File)

	// warning in a 1.5-weight category: 100 - 1.5*2
	assert.InDelta(t, 97.0, result.Score, 0.001)
	assert.True(t, result.Pass, "a warning alone must not block")
}

func TestScan_ReportsNestingViolation(t *testing.T) {
	eng, err := New(Options{
		Provider: buildProvider(map[string]string{
			"mathutil.go": cleanSource,
			"deep.go":     deeplyNested,
		}),
	})
	require.NoError(t, err)

	result, err := eng.Scan(context.Background())
	require.NoError(t, err)

	nested := findByRule(result.Findings, "nesting-depth")
	require.Len(t, nested, 1)
	assert.Equal(t, "deep.go", nested[0].File)
	assert.Equal(t, findings.SeverityCritical, nested[0].Severity)
	assert.Equal(t, findings.CategoryStructural, nested[0].Category)
	assert.Contains(t, nested[0].Message, "nesting depth 5, limit is 4")

	// critical structural (10) plus the license warning (3)
	assert.InDelta(t, 87.0, result.Score, 0.001)
	assert.True(t, result.Pass, "structural is not a blocking category")
	assert.Empty(t, result.BlockingRules)
}

func TestScan_ParseFailureDoesNotAbort(t *testing.T) {
	eng, err := New(Options{
		Provider: buildProvider(map[string]string{
			"mathutil.go": cleanSource,
			"weird.xyz":   "こんにちは {{{ not parseable",
		}),
	})
	require.NoError(t, err)

	result, err := eng.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, result.ParseErrors, 1)
	assert.Equal(t, "weird.xyz", result.ParseErrors[0].File)
	assert.Equal(t, source.ReasonUnsupported, result.ParseErrors[0].Reason)

	pseudo := findByRule(result.Findings, aggregate.RuleParseError)
	require.Len(t, pseudo, 1)
	assert.Equal(t, "weird.xyz", pseudo[0].File)
	assert.Equal(t, findings.SeverityInfo, pseudo[0].Severity)

	// the Go file still went through the full detector set
	assert.Contains(t, result.RuleCoverage.Executed, "nesting-depth")
	require.NotNil(t, result.Metadata)
	assert.Equal(t, 2, result.Metadata.FileCount)
	assert.Equal(t, 1, result.Metadata.ParsedCount)
}

func TestScan_FileTimeoutBecomesParseFailure(t *testing.T) {
	eng, err := New(Options{
		Provider:    buildProvider(map[string]string{"mathutil.go": cleanSource}),
		FileTimeout: time.Nanosecond,
	})
	require.NoError(t, err)

	result, err := eng.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, result.ParseErrors, 1)
	assert.Equal(t, source.ReasonTimeout, result.ParseErrors[0].Reason)

	pseudo := findByRule(result.Findings, aggregate.RuleParseError)
	require.Len(t, pseudo, 1)
	assert.Equal(t, findings.SeverityWarning, pseudo[0].Severity)

	// nothing parsed, so coverage must show the gap instead of
	// pretending the detectors ran
	assert.Contains(t, result.RuleCoverage.Enabled, "nesting-depth")
	assert.NotContains(t, result.RuleCoverage.Executed, "nesting-depth")
	assert.NotContains(t, result.RuleCoverage.Executed, duplication.RuleDuplicateCode)
	assert.Contains(t, result.RuleCoverage.Executed, license.RuleMissingLicense)
}

func TestScan_DefaultExcludesSkipVendoredCode(t *testing.T) {
	eng, err := New(Options{
		Provider: buildProvider(map[string]string{
			"mathutil.go":          cleanSource,
			"vendor/deep/deep.go":  deeplyNested,
			"node_modules/x/x.xyz": "opaque",
		}),
	})
	require.NoError(t, err)

	result, err := eng.Scan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, findByRule(result.Findings, "nesting-depth"))
	assert.Empty(t, result.ParseErrors)
	for _, f := range result.Findings {
		assert.NotContains(t, f.File, "vendor/")
		assert.NotContains(t, f.File, "node_modules/")
	}
	require.NotNil(t, result.Metadata)
	assert.Equal(t, 1, result.Metadata.FileCount)
}

func TestScan_IncludePatternsNarrowTheWalk(t *testing.T) {
	eng, err := New(Options{
		Provider: buildProvider(map[string]string{
			"mathutil.go": cleanSource,
			"README.md":   "# readme",
			"data.bin":    "\x00\x01\x02",
		}),
		Include: []string{"**/*.go"},
	})
	require.NoError(t, err)

	result, err := eng.Scan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.ParseErrors, "non-matching files are never enumerated")
	require.NotNil(t, result.Metadata)
	assert.Equal(t, 1, result.Metadata.FileCount)
}

func TestScan_DuplicateClusters(t *testing.T) {
	profile := defaultProfile(t)
	profile.Thresholds.DuplicationShingleSize = 4
	profile.Thresholds.DuplicationMinTokens = 10
	profile.Thresholds.DuplicationSimilarity = 0.8

	eng, err := New(Options{
		Provider: buildProvider(map[string]string{
			"alpha/sum.go": dupAlpha,
			"beta/add.go":  dupBeta,
		}),
		Profile: profile,
	})
	require.NoError(t, err)

	result, err := eng.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Clusters, 1)
	var memberFiles []string
	for _, m := range result.Clusters[0].Members {
		memberFiles = append(memberFiles, m.File)
	}
	assert.ElementsMatch(t, []string{"alpha/sum.go", "beta/add.go"}, memberFiles)
	assert.GreaterOrEqual(t, result.Clusters[0].Similarity, 0.8)

	members := findByRule(result.Findings, duplication.RuleDuplicateCode)
	require.Len(t, members, 2)
	for _, f := range members {
		require.NotNil(t, f.Evidence)
		assert.Equal(t, result.Clusters[0].ID, f.Evidence.ClusterID)
	}
}

func TestScan_DeterministicAcrossConcurrency(t *testing.T) {
	files := map[string]string{
		"mathutil.go":  cleanSource,
		"deep.go":      deeplyNested,
		"alpha/sum.go": dupAlpha,
		"beta/add.go":  dupBeta,
		"weird.xyz":    "not parseable",
	}

	var outputs []string
	for _, concurrency := range []int{1, 8} {
		eng, err := New(Options{
			Provider:    buildProvider(files),
			Concurrency: concurrency,
		})
		require.NoError(t, err)

		result, err := eng.Scan(context.Background())
		require.NoError(t, err)
		outputs = append(outputs, canonicalJSON(t, result))
	}

	assert.Equal(t, outputs[0], outputs[1], "worker count must not change the report")
}

func TestScan_CacheDoesNotChangeResults(t *testing.T) {
	files := map[string]string{
		"mathutil.go": cleanSource,
		"deep.go":     deeplyNested,
	}

	cold, err := New(Options{Provider: buildProvider(files)})
	require.NoError(t, err)
	coldResult, err := cold.Scan(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	cached, err := New(Options{
		Provider: buildProvider(files),
		Cache:    cache.NewMemory(128),
		Progress: progress.New(true, progress.NewSimpleHandler(&buf)),
	})
	require.NoError(t, err)

	first, err := cached.Scan(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "[HIT]", "first scan has nothing cached")

	buf.Reset()
	second, err := cached.Scan(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[HIT]  Cached: deep.go")

	want := canonicalJSON(t, coldResult)
	assert.Equal(t, want, canonicalJSON(t, first))
	assert.Equal(t, want, canonicalJSON(t, second), "cache hits must be invisible in the report")
}

func TestScan_CanceledContext(t *testing.T) {
	eng, err := New(Options{
		Provider: buildProvider(map[string]string{"mathutil.go": cleanSource}),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := eng.Scan(ctx)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestScan_EmptyTree(t *testing.T) {
	p := provider.NewFakeProvider()
	p.AddDir(".")

	eng, err := New(Options{Provider: p})
	require.NoError(t, err)

	result, err := eng.Scan(context.Background())
	require.NoError(t, err)

	require.NotNil(t, result.Metadata)
	assert.Equal(t, 0, result.Metadata.FileCount)
	assert.Empty(t, result.ParseErrors)
	assert.NotContains(t, result.RuleCoverage.Executed, "nesting-depth")

	// the license gate needs no parsed files to run
	gate := findByRule(result.Findings, license.RuleMissingLicense)
	assert.Len(t, gate, 1)
}

func TestScan_CodeStats(t *testing.T) {
	eng, err := New(Options{
		Provider:  buildProvider(map[string]string{"mathutil.go": cleanSource}),
		CodeStats: true,
	})
	require.NoError(t, err)

	result, err := eng.Scan(context.Background())
	require.NoError(t, err)

	require.NotNil(t, result.CodeStats)
	assert.Equal(t, 1, result.CodeStats.Total.Files)
	assert.Greater(t, result.CodeStats.Total.Lines, int64(0))
	require.NotEmpty(t, result.CodeStats.ByLanguage)
	assert.Equal(t, "Go", result.CodeStats.ByLanguage[0].Language)
}

func TestScan_ProgressStages(t *testing.T) {
	var buf bytes.Buffer
	eng, err := New(Options{
		Provider:    buildProvider(map[string]string{"mathutil.go": cleanSource}),
		Progress:    progress.New(true, progress.NewSimpleHandler(&buf)),
		Concurrency: 1,
	})
	require.NoError(t, err)

	_, err = eng.Scan(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[SCAN] Starting:")
	assert.Contains(t, out, "[WALK] Enumerated: 1 files")
	assert.Contains(t, out, "[FILE] Analyzing: mathutil.go (Go)")
	assert.Contains(t, out, "[STEP] Running: duplicate detection")
	assert.Contains(t, out, "[STEP] Running: scoring")
	assert.Contains(t, out, "[SCAN] Completed: 1 files")
}

func TestScan_DisabledRulesLeaveCoverage(t *testing.T) {
	profile := defaultProfile(t)
	profile.DisabledRules = append(profile.DisabledRules, "nesting-depth")

	eng, err := New(Options{
		Provider: buildProvider(map[string]string{"deep.go": deeplyNested}),
		Profile:  profile,
	})
	require.NoError(t, err)

	result, err := eng.Scan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, findByRule(result.Findings, "nesting-depth"))
	assert.NotContains(t, result.RuleCoverage.Enabled, "nesting-depth")
	assert.NotContains(t, result.RuleCoverage.Executed, "nesting-depth")
	assert.Contains(t, result.RuleCoverage.Enabled, "function-length")
}

func BenchmarkScan(b *testing.B) {
	files := map[string]string{
		"mathutil.go":  cleanSource,
		"deep.go":      deeplyNested,
		"alpha/sum.go": dupAlpha,
		"beta/add.go":  dupBeta,
	}
	eng, err := New(Options{
		Provider: buildProvider(files),
		Cache:    cache.NewMemory(256),
	})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := eng.Scan(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

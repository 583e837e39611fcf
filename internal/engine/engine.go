// Package engine drives a scan end to end: enumerate candidate files,
// parse and detect in parallel, then run the whole-tree stages that
// need every unit at once. For a given tree and profile the produced
// result is byte-identical across runs; worker scheduling, cache state
// and concurrency level never change it.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/DNYoussef/Spek-template-sub011/internal/aggregate"
	"github.com/DNYoussef/Spek-template-sub011/internal/cache"
	"github.com/DNYoussef/Spek-template-sub011/internal/codestats"
	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/detect"
	"github.com/DNYoussef/Spek-template-sub011/internal/duplication"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/license"
	"github.com/DNYoussef/Spek-template-sub011/internal/metadata"
	"github.com/DNYoussef/Spek-template-sub011/internal/policy"
	"github.com/DNYoussef/Spek-template-sub011/internal/progress"
	"github.com/DNYoussef/Spek-template-sub011/internal/provider"
	"github.com/DNYoussef/Spek-template-sub011/internal/report"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
	"github.com/DNYoussef/Spek-template-sub011/internal/walker"

	// Rule detectors register themselves on import.
	_ "github.com/DNYoussef/Spek-template-sub011/internal/detect/coupling"
	_ "github.com/DNYoussef/Spek-template-sub011/internal/detect/godobject"
	_ "github.com/DNYoussef/Spek-template-sub011/internal/detect/regulatory"
	_ "github.com/DNYoussef/Spek-template-sub011/internal/detect/structural"
	_ "github.com/DNYoussef/Spek-template-sub011/internal/detect/theater"
)

const defaultFileTimeout = 10 * time.Second

// Options configures a scan engine.
type Options struct {
	// Root is the directory to scan. Ignored when Provider is set.
	Root string

	// Include restricts candidates to matching globs; empty keeps
	// every file.
	Include []string

	// Exclude adds glob patterns on top of walker.DefaultExcludes.
	Exclude []string

	// Profile selects rules, thresholds and scoring weights. Nil loads
	// the built-in default profile.
	Profile *config.Profile

	// Cache short-circuits detector runs for unchanged file content.
	// Nil disables caching.
	Cache cache.Cache

	// Concurrency bounds parallel file analysis. Zero or less means
	// one worker per CPU.
	Concurrency int

	// FileTimeout bounds parse plus detection per file. A file that
	// exceeds it becomes a parse failure instead of hanging the scan.
	FileTimeout time.Duration

	// Progress receives scan lifecycle events. Nil disables reporting.
	Progress *progress.Progress

	// CodeStats enables line and complexity counting for the report.
	CodeStats bool

	// Provider overrides filesystem access, mainly for tests.
	Provider provider.Provider
}

// Engine is a configured scan pipeline. One engine may run many scans;
// watch mode reuses it so the cache stays warm between runs.
type Engine struct {
	provider    provider.Provider
	profile     *config.Profile
	cache       cache.Cache
	concurrency int
	fileTimeout time.Duration
	progress    *progress.Progress
	codeStats   bool
	include     []string
	exclude     []string
}

// New validates the options and builds an engine.
func New(opts Options) (*Engine, error) {
	p := opts.Provider
	if p == nil {
		if opts.Root == "" {
			return nil, config.Errorf("scan root required")
		}
		p = provider.NewFSProvider(opts.Root)
	}

	profile := opts.Profile
	if profile == nil {
		loaded, err := config.LoadProfile("")
		if err != nil {
			return nil, err
		}
		profile = loaded
	}

	c := opts.Cache
	if c == nil {
		c = cache.Disabled()
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	timeout := opts.FileTimeout
	if timeout <= 0 {
		timeout = defaultFileTimeout
	}

	prog := opts.Progress
	if prog == nil {
		prog = progress.New(false, progress.NewNullHandler())
	}

	exclude := append([]string{}, walker.DefaultExcludes...)
	exclude = append(exclude, opts.Exclude...)

	return &Engine{
		provider:    p,
		profile:     profile,
		cache:       c,
		concurrency: concurrency,
		fileTimeout: timeout,
		progress:    prog,
		codeStats:   opts.CodeStats,
		include:     opts.Include,
		exclude:     exclude,
	}, nil
}

// fileResult is one file's contribution to the barrier stages. The
// slice of these is indexed by walk order, which keeps the pipeline
// deterministic without any ordering locks.
type fileResult struct {
	unit  *source.Unit
	items []findings.Finding
}

// Scan runs the full pipeline and returns the scored result.
func (e *Engine) Scan(ctx context.Context) (*report.ScanResult, error) {
	start := time.Now()
	root := e.provider.GetBasePath()
	version := detect.Version(e.profile)

	e.progress.ScanStart(root, e.exclude)

	walkStart := time.Now()
	paths, err := walker.New(e.provider, e.include, e.exclude).
		WithProgress(e.progress).
		Walk()
	if err != nil {
		return nil, fmt.Errorf("enumerate files: %w", err)
	}
	e.progress.WalkComplete(len(paths), time.Since(walkStart))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stats *codestats.Analyzer
	if e.codeStats {
		stats = codestats.NewAnalyzer()
	}

	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			res, err := e.analyzeFile(gctx, path, version, stats)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := aggregate.New()
	var okUnits []*source.Unit
	for _, res := range results {
		agg.AddUnit(res.unit, res.items)
		if res.unit != nil && res.unit.OK() {
			okUnits = append(okUnits, res.unit)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.profile.RuleEnabled(duplication.RuleDuplicateCode) {
		e.progress.Stage("duplicate detection")
		clusters, members := duplication.New(e.profile).Detect(okUnits)
		agg.AddClusters(clusters, members)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.progress.Stage("license gate")
	agg.AddFindings(license.Gate(e.provider, e.profile))

	e.progress.Stage("scoring")
	res := agg.Result()
	eval := policy.Evaluate(e.profile, res.Findings, e.coverage(len(okUnits)))

	meta := metadata.New(root, e.profile.Name, version)
	meta.SetFileCounts(len(paths), len(okUnits))
	meta.SetDuration(time.Since(start))

	out := report.New(meta, *res, eval)
	if stats != nil {
		out.CodeStats = stats.Report()
	}

	e.progress.ScanComplete(len(paths), len(out.Findings), time.Since(start))
	return out, nil
}

// analyzeFile reads, parses and runs detectors for one file. The cache
// wraps only the detector stage: parsing always happens because the
// duplication stage needs every unit's tokens, cached findings or not.
func (e *Engine) analyzeFile(ctx context.Context, path, version string, stats *codestats.Analyzer) (fileResult, error) {
	content, err := e.provider.ReadFile(path)
	if err != nil {
		slog.Warn("unreadable file", "path", path, "error", err)
		return fileResult{unit: source.NewErrorUnit(path, "", nil, fmt.Sprintf("read failed: %v", err))}, nil
	}

	type outcome struct {
		unit  *source.Unit
		items []findings.Finding
		hit   bool
	}
	done := make(chan outcome, 1)
	go func() {
		unit := source.Parse(path, content)
		out := outcome{unit: unit}
		if unit.OK() {
			if items, ok := e.cache.Get(ctx, unit.ContentHash, version); ok {
				out.items, out.hit = items, true
			} else {
				out.items = detect.Run(unit, e.profile)
				e.cache.Put(ctx, unit.ContentHash, version, out.items)
			}
		}
		done <- out
	}()

	timer := time.NewTimer(e.fileTimeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if stats != nil {
			stats.ProcessFile(path, out.unit.Lang, content)
		}
		if out.hit {
			e.progress.CacheHit(path)
		} else {
			info := out.unit.Lang
			if info == "" {
				info = "unknown"
			}
			e.progress.FileProcessing(path, info)
		}
		return fileResult{unit: out.unit, items: out.items}, nil
	case <-timer.C:
		// The abandoned goroutine finishes in the background; its
		// result is dropped.
		slog.Warn("analysis timed out", "path", path, "timeout", e.fileTimeout)
		return fileResult{unit: source.NewErrorUnit(path, "", content, source.ReasonTimeout)}, nil
	case <-ctx.Done():
		return fileResult{}, ctx.Err()
	}
}

// coverage reports which rules could have fired versus which stages
// actually ran. Detector rules and duplication execute only when at
// least one unit parsed; the license gate inspects the tree itself and
// always runs when enabled.
func (e *Engine) coverage(parsed int) policy.Coverage {
	cov := policy.Coverage{Enabled: []string{}, Executed: []string{}}
	for _, id := range detect.RuleIDs() {
		if !e.profile.RuleEnabled(id) {
			continue
		}
		cov.Enabled = append(cov.Enabled, id)
		if parsed > 0 {
			cov.Executed = append(cov.Executed, id)
		}
	}
	if e.profile.RuleEnabled(duplication.RuleDuplicateCode) {
		cov.Enabled = append(cov.Enabled, duplication.RuleDuplicateCode)
		if parsed > 0 {
			cov.Executed = append(cov.Executed, duplication.RuleDuplicateCode)
		}
	}
	if e.profile.RuleEnabled(license.RuleMissingLicense) {
		cov.Enabled = append(cov.Enabled, license.RuleMissingLicense)
		cov.Executed = append(cov.Executed, license.RuleMissingLicense)
	}
	sort.Strings(cov.Enabled)
	sort.Strings(cov.Executed)
	return cov
}

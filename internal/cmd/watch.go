package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/DNYoussef/Spek-template-sub011/internal/report"
)

// watchDebounce is how long the tree must stay quiet before a rescan
// starts. File saves often arrive as bursts of events.
const watchDebounce = 300 * time.Millisecond

// watchSkipDirs are directory names never watched. They mirror the
// walker's default excludes, so changes there would not alter a scan.
var watchSkipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
	".terraform":   true,
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Rescan the tree whenever it changes",
	Long: `Watch runs an initial scan, then watches the tree and rescans after
changes settle. The findings cache stays warm across rescans, so only
changed files go through detection again. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&settings.OutputFile, "output", "o", settings.OutputFile, "Report file path rewritten after every rescan, or - for stdout")
	watchCmd.Flags().BoolVar(&settings.PrettyPrint, "pretty", settings.PrettyPrint, "Pretty print JSON output")
	watchCmd.Flags().StringVarP(&settings.Profile, "profile", "p", settings.Profile, "Built-in profile (default, lenient, strict) or path to a profile file")
	watchCmd.Flags().IntVar(&settings.Concurrency, "concurrency", settings.Concurrency, "Number of parallel file workers (0 = number of CPUs)")
	watchCmd.Flags().DurationVar(&settings.FileTimeout, "file-timeout", settings.FileTimeout, "Per-file analysis timeout before the file is recorded as a parse error")
	watchCmd.Flags().StringVar(&settings.CachePath, "cache", settings.CachePath, "Persistent findings cache database path (default: in-memory per run)")
	watchCmd.Flags().BoolVar(&settings.NoCodeStats, "no-code-stats", settings.NoCodeStats, "Disable code statistics (lines of code, comments, complexity)")
	watchCmd.Flags().BoolVarP(&settings.Verbose, "verbose", "v", settings.Verbose, "Show progress with simple output")
	watchCmd.Flags().StringSliceVar(&settings.IncludePatterns, "include", settings.IncludePatterns, "Only analyze files matching these glob patterns (can be specified multiple times)")
	watchCmd.Flags().StringSliceVar(&settings.ExcludePatterns, "exclude", settings.ExcludePatterns, "Patterns to exclude (supports glob patterns, can be specified multiple times)")
	setupLogFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	logger := configureLogging(cmd)
	absPath := resolveScanPath(args, logger)
	eng, store := setupEngine(logger, absPath)
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// One rescan at a time; a change burst during a scan just resets
	// the debounce timer and queues the next one.
	var scanMu sync.Mutex
	rescan := func() {
		scanMu.Lock()
		defer scanMu.Unlock()

		result, err := eng.Scan(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Scan failed", "error", err)
			return
		}
		if err := writeReports(result); err != nil {
			logger.Error("Failed to write report", "error", err)
			return
		}
		report.WriteSummary(os.Stderr, result, stderrIsTerminal())
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("Watch init failed", "error", err)
		os.Exit(2)
	}
	defer watcher.Close()

	if err := addWatchRecursive(watcher, absPath); err != nil {
		logger.Error("Watch failed", "error", err)
		os.Exit(2)
	}

	rescan()

	ignored := watchIgnoredPaths()
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if watchIgnores(ev.Name, ignored) {
				continue
			}
			// New directories need their own watch before their
			// contents produce events.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addWatchRecursive(watcher, ev.Name); err != nil {
						logger.Warn("Cannot watch new directory", "path", ev.Name, "error", err)
					}
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, rescan)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("Watch error", "error", werr)
		}
	}
}

func addWatchRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if watchSkipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}

// watchIgnoredPaths lists the files this process writes itself, which
// must never retrigger a rescan.
func watchIgnoredPaths() []string {
	var ignored []string
	for _, p := range []string{settings.OutputFile, settings.SARIFFile, settings.CachePath, settings.LogFile} {
		if p == "" || p == "-" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			ignored = append(ignored, abs)
		}
	}
	return ignored
}

func watchIgnores(name string, ignored []string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		abs = name
	}
	for _, p := range ignored {
		if abs == p || strings.HasPrefix(abs, p+"-") {
			return true
		}
	}
	for _, segment := range strings.Split(abs, string(filepath.Separator)) {
		if watchSkipDirs[segment] {
			return true
		}
	}
	return false
}

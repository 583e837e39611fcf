package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/DNYoussef/Spek-template-sub011/internal/cache"
	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/detect"
	"github.com/DNYoussef/Spek-template-sub011/internal/engine"
	"github.com/DNYoussef/Spek-template-sub011/internal/progress"
	"github.com/DNYoussef/Spek-template-sub011/internal/report"
	"github.com/DNYoussef/Spek-template-sub011/internal/version"
)

// memoryCacheEntries bounds the in-process cache used when no --cache
// path is given.
const memoryCacheEntries = 4096

var settings = config.LoadSettings()

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a source tree against a compliance profile",
	Long: `Scan walks a directory, runs every enabled detector on each supported
file, detects cross-file duplication, and scores the tree against the
active compliance profile.

Examples:
  spekscan scan /path/to/project
  spekscan scan --profile strict /path/to/project
  spekscan scan --exclude "**/testdata/**" --exclude "*.gen.go" .
  spekscan scan --sarif findings.sarif -o - .
  spekscan scan --cache ~/.cache/spekscan/findings.db /path/to/project`,
	Args: cobra.MaximumNArgs(1),
	Run:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	// Store environment variable values for flag defaults
	outputFile := settings.OutputFile
	sarifFile := settings.SARIFFile
	prettyPrint := settings.PrettyPrint
	profile := settings.Profile
	concurrency := settings.Concurrency
	fileTimeout := settings.FileTimeout
	cachePath := settings.CachePath
	noCache := settings.NoCache
	noCodeStats := settings.NoCodeStats
	verbose := settings.Verbose
	debug := settings.Debug

	scanCmd.Flags().StringVarP(&settings.OutputFile, "output", "o", outputFile, "Report file path, or - for stdout")
	scanCmd.Flags().StringVar(&settings.SARIFFile, "sarif", sarifFile, "Also write a SARIF 2.1.0 report to this path")
	scanCmd.Flags().BoolVar(&settings.PrettyPrint, "pretty", prettyPrint, "Pretty print JSON output")
	scanCmd.Flags().StringVarP(&settings.Profile, "profile", "p", profile, "Built-in profile (default, lenient, strict) or path to a profile file")
	scanCmd.Flags().IntVar(&settings.Concurrency, "concurrency", concurrency, "Number of parallel file workers (0 = number of CPUs)")
	scanCmd.Flags().DurationVar(&settings.FileTimeout, "file-timeout", fileTimeout, "Per-file analysis timeout before the file is recorded as a parse error")
	scanCmd.Flags().StringVar(&settings.CachePath, "cache", cachePath, "Persistent findings cache database path (default: in-memory per run)")
	scanCmd.Flags().BoolVar(&settings.NoCache, "no-cache", noCache, "Disable the findings cache entirely")
	scanCmd.Flags().BoolVar(&settings.NoCodeStats, "no-code-stats", noCodeStats, "Disable code statistics (lines of code, comments, complexity)")
	scanCmd.Flags().BoolVarP(&settings.Verbose, "verbose", "v", verbose, "Show progress with simple output")
	scanCmd.Flags().BoolVarP(&settings.Debug, "debug", "d", debug, "Show progress with tree structure (cannot be used with --verbose)")

	// Include and exclude patterns - support multiple flags or comma-separated values
	scanCmd.Flags().StringSliceVar(&settings.IncludePatterns, "include", settings.IncludePatterns, "Only analyze files matching these glob patterns (can be specified multiple times)")
	scanCmd.Flags().StringSliceVar(&settings.ExcludePatterns, "exclude", settings.ExcludePatterns, "Patterns to exclude (supports glob patterns, can be specified multiple times)")

	setupLogFlags(scanCmd)
}

// setupLogFlags registers the shared logging flags on a command, with
// defaults taken from the environment-merged settings.
func setupLogFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-level", settings.LogLevel.String(), "Log level: debug, info, warn, error")
	cmd.Flags().String("log-format", settings.LogFormat, "Log format: text or json")
	cmd.Flags().String("log-file", settings.LogFile, "Log file path (default: stderr)")
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// configureLogging sets up logging based on command flags and installs
// the logger as the process default so library packages share it.
func configureLogging(cmd *cobra.Command) *slog.Logger {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFormat, _ := cmd.Flags().GetString("log-format")
	logFile, _ := cmd.Flags().GetString("log-file")

	if level, err := parseLogLevel(logLevel); err == nil {
		settings.LogLevel = level
	}
	if settings.Verbose && settings.LogLevel > slog.LevelInfo {
		settings.LogLevel = slog.LevelInfo
	}
	settings.LogFormat = logFormat
	settings.LogFile = logFile

	logger := settings.ConfigureLogger()
	slog.SetDefault(logger)
	return logger
}

// resolveScanPath resolves and validates the scan path from args. A
// single-file argument scans the parent directory narrowed to that file.
func resolveScanPath(args []string, logger *slog.Logger) string {
	path := "."
	if len(args) > 0 {
		path = strings.TrimSpace(args[0])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		logger.Error("Invalid path", "error", err)
		os.Exit(2)
	}

	fileInfo, err := os.Stat(absPath)
	if os.IsNotExist(err) {
		logger.Error("Path does not exist", "path", absPath)
		os.Exit(2)
	}
	if err == nil && !fileInfo.IsDir() {
		settings.IncludePatterns = append(settings.IncludePatterns, filepath.Base(absPath))
		absPath = filepath.Dir(absPath)
	}
	return absPath
}

// openCache picks the cache implementation for this run. A broken
// persistent cache degrades to the in-memory one instead of failing the
// scan.
func openCache(logger *slog.Logger) cache.Cache {
	if settings.NoCache {
		return cache.Disabled()
	}
	if settings.CachePath != "" {
		store, err := cache.OpenSQLite(settings.CachePath)
		if err != nil {
			logger.Warn("Persistent cache unavailable, falling back to memory", "path", settings.CachePath, "error", err)
			return cache.NewMemory(memoryCacheEntries)
		}
		return store
	}
	return cache.NewMemory(memoryCacheEntries)
}

// buildProgress maps the verbosity flags onto a progress reporter.
func buildProgress() *progress.Progress {
	switch {
	case settings.Debug:
		p := progress.New(true, progress.NewTreeHandler(os.Stderr))
		p.EnableTimings()
		return p
	case settings.Verbose:
		return progress.New(true, progress.NewSimpleHandler(os.Stderr))
	default:
		return progress.New(false, progress.NewNullHandler())
	}
}

// setupEngine resolves project config and profile for absPath, then
// builds the engine and the cache it should close when done.
// Configuration problems terminate the process with exit code 2.
func setupEngine(logger *slog.Logger, absPath string) (*engine.Engine, cache.Cache) {
	// Project config fills in what the CLI left at defaults
	projectCfg, err := config.LoadProjectConfig(absPath)
	if err != nil {
		logger.Error("Invalid project config", "error", err)
		os.Exit(2)
	}
	projectCfg.MergeWithSettings(settings)

	if err := settings.Validate(); err != nil {
		logger.Error("Invalid settings", "error", err)
		os.Exit(2)
	}

	profile, err := config.LoadProfile(settings.Profile)
	if err != nil {
		logger.Error("Invalid profile", "error", err)
		os.Exit(2)
	}

	logger.Debug("Initializing engine",
		"path", absPath,
		"profile", profile.Name,
		"exclude_patterns", settings.ExcludePatterns,
		"code_stats", !settings.NoCodeStats)

	store := openCache(logger)
	if persistent, ok := store.(*cache.SQLite); ok {
		persistent.Prune(context.Background(), detect.Version(profile))
	}

	eng, err := engine.New(engine.Options{
		Root:        absPath,
		Include:     settings.IncludePatterns,
		Exclude:     settings.ExcludePatterns,
		Profile:     profile,
		Cache:       store,
		Concurrency: settings.Concurrency,
		FileTimeout: settings.FileTimeout,
		Progress:    buildProgress(),
		CodeStats:   !settings.NoCodeStats,
	})
	if err != nil {
		logger.Error("Failed to create engine", "error", err)
		os.Exit(2)
	}
	return eng, store
}

func runScan(cmd *cobra.Command, args []string) {
	logger := configureLogging(cmd)

	if settings.Verbose && settings.Debug {
		logger.Error("Cannot use --verbose and --debug together. Choose one.")
		os.Exit(2)
	}

	absPath := resolveScanPath(args, logger)
	eng, store := setupEngine(logger, absPath)

	fmt.Fprintf(os.Stderr, "Scanning: %s\n", absPath)

	result, scanErr := eng.Scan(cmd.Context())
	if err := store.Close(); err != nil {
		logger.Warn("Closing findings cache", "error", err)
	}
	if scanErr != nil {
		logger.Error("Scan failed", "error", scanErr)
		os.Exit(2)
	}

	if err := writeReports(result); err != nil {
		logger.Error("Failed to write report", "error", err)
		os.Exit(2)
	}

	report.WriteSummary(os.Stderr, result, stderrIsTerminal())

	if !result.Pass {
		os.Exit(1)
	}
}

func stderrIsTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

// writeReports renders the scan result as JSON and, when requested,
// SARIF. Output path - sends the JSON document to stdout.
func writeReports(result *report.ScanResult) error {
	jsonData, err := result.JSON(settings.PrettyPrint)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if settings.OutputFile == "-" || settings.OutputFile == "" {
		fmt.Println(string(jsonData))
	} else {
		if err := os.WriteFile(settings.OutputFile, jsonData, 0644); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Results written to %s\n", settings.OutputFile)
	}

	if settings.SARIFFile != "" {
		sarifData, err := result.SARIF("spekscan", version.Version)
		if err != nil {
			return fmt.Errorf("marshal SARIF: %w", err)
		}
		if err := os.WriteFile(settings.SARIFFile, sarifData, 0644); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "SARIF report written to %s\n", settings.SARIFFile)
	}

	return nil
}

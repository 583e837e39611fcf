package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"log/slog"
)

// Settings holds all engine configuration that is not part of the
// compliance profile: where to scan, how to run, where to write.
type Settings struct {
	// Output settings
	OutputFile  string
	SARIFFile   string
	PrettyPrint bool

	// Scan behavior
	IncludePatterns []string
	ExcludePatterns []string
	Profile         string // named built-in or path to a profile file
	Concurrency     int    // 0 = GOMAXPROCS
	FileTimeout     time.Duration
	CachePath       string // empty = in-memory cache only
	NoCache         bool
	NoCodeStats     bool
	Verbose         bool
	Debug           bool

	// Logging
	LogLevel  slog.Level
	LogFormat string // "text" or "json"
	LogFile   string // Optional: write logs to file instead of stderr
}

// DefaultSettings returns default configuration
func DefaultSettings() *Settings {
	return &Settings{
		OutputFile:      "compliance-report.json",
		SARIFFile:       "",
		PrettyPrint:     true,
		IncludePatterns: []string{},
		ExcludePatterns: []string{},
		Profile:         "default",
		Concurrency:     0,
		FileTimeout:     10 * time.Second,
		CachePath:       "",
		NoCache:         false,
		NoCodeStats:     false,
		Verbose:         false,
		Debug:           false,
		LogLevel:        slog.LevelError,
		LogFormat:       "text",
		LogFile:         "",
	}
}

// LoadSettings creates settings from defaults and applies environment variable overrides
func LoadSettings() *Settings {
	settings := DefaultSettings()

	if outputFile := os.Getenv("SPEKSCAN_OUTPUT"); outputFile != "" {
		settings.OutputFile = outputFile
	}

	if sarifFile := os.Getenv("SPEKSCAN_SARIF"); sarifFile != "" {
		settings.SARIFFile = sarifFile
	}

	if include := os.Getenv("SPEKSCAN_INCLUDE"); include != "" {
		settings.IncludePatterns = splitPatterns(include)
	}

	if exclude := os.Getenv("SPEKSCAN_EXCLUDE"); exclude != "" {
		settings.ExcludePatterns = splitPatterns(exclude)
	}

	if profile := os.Getenv("SPEKSCAN_PROFILE"); profile != "" {
		settings.Profile = profile
	}

	if concurrency := os.Getenv("SPEKSCAN_CONCURRENCY"); concurrency != "" {
		if n, err := strconv.Atoi(concurrency); err == nil && n >= 0 {
			settings.Concurrency = n
		}
	}

	if timeout := os.Getenv("SPEKSCAN_FILE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			settings.FileTimeout = d
		}
	}

	if cachePath := os.Getenv("SPEKSCAN_CACHE"); cachePath != "" {
		settings.CachePath = cachePath
	}

	if noCache := os.Getenv("SPEKSCAN_NO_CACHE"); noCache != "" {
		settings.NoCache = strings.ToLower(noCache) == "true"
	}

	if noCodeStats := os.Getenv("SPEKSCAN_NO_CODE_STATS"); noCodeStats != "" {
		settings.NoCodeStats = strings.ToLower(noCodeStats) == "true"
	}

	if pretty := os.Getenv("SPEKSCAN_PRETTY"); pretty != "" {
		settings.PrettyPrint = strings.ToLower(pretty) == "true"
	}

	// Logging settings
	if logLevel := os.Getenv("SPEKSCAN_LOG_LEVEL"); logLevel != "" {
		if level, err := parseLogLevel(logLevel); err == nil {
			settings.LogLevel = level
		}
	}

	if logFormat := os.Getenv("SPEKSCAN_LOG_FORMAT"); logFormat != "" {
		settings.LogFormat = logFormat
	}

	if logFile := os.Getenv("SPEKSCAN_LOG_FILE"); logFile != "" {
		settings.LogFile = logFile
	}

	if verbose := os.Getenv("SPEKSCAN_VERBOSE"); verbose != "" {
		settings.Verbose = strings.ToLower(verbose) == "true"
	}

	if debug := os.Getenv("SPEKSCAN_DEBUG"); debug != "" {
		settings.Debug = strings.ToLower(debug) == "true"
	}

	return settings
}

func splitPatterns(value string) []string {
	parts := strings.Split(value, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
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

// ConfigureLogger sets up the global logger based on settings
func (s *Settings) ConfigureLogger() *slog.Logger {
	var handler slog.Handler

	// Set output destination
	var output io.Writer = os.Stderr
	if s.LogFile != "" {
		file, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			// Fallback to stderr if file can't be opened
			fmt.Fprintf(os.Stderr, "Warning: Cannot open log file %s: %v\n", s.LogFile, err)
			output = os.Stderr
		} else {
			output = file
		}
	}

	// Set log format and level
	opts := &slog.HandlerOptions{
		Level: s.LogLevel,
	}

	if s.LogFormat == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}

// Validate checks if settings are valid
func (s *Settings) Validate() error {
	if s.Concurrency < 0 {
		return Errorf("concurrency must be >= 0, got %d", s.Concurrency)
	}
	if s.FileTimeout <= 0 {
		return Errorf("file timeout must be positive, got %s", s.FileTimeout)
	}
	if s.LogFormat != "text" && s.LogFormat != "json" {
		return Errorf("log format must be text or json, got %q", s.LogFormat)
	}
	return nil
}

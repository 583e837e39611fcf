// Package codestats aggregates line, comment and complexity totals for
// the report, backed by boyter/scc's counters. Workers feed it one file
// at a time during the scan; the report is built once at the end.
package codestats

import (
	"math"
	"sort"
	"sync"

	"github.com/boyter/scc/v3/processor"
)

var initOnce sync.Once

// Stats holds counts for one language or the whole tree.
type Stats struct {
	Lines      int64 `json:"lines"`
	Code       int64 `json:"code"`
	Comments   int64 `json:"comments"`
	Blanks     int64 `json:"blanks"`
	Complexity int64 `json:"complexity"`
	Files      int   `json:"files"`
}

// LanguageStats is Stats plus the language name for sorted output.
type LanguageStats struct {
	Language   string `json:"language"`
	Lines      int64  `json:"lines"`
	Code       int64  `json:"code"`
	Comments   int64  `json:"comments"`
	Blanks     int64  `json:"blanks"`
	Complexity int64  `json:"complexity"`
	Files      int    `json:"files"`
}

// OtherStats covers files whose grammar the counter does not know;
// only raw line counts are meaningful there.
type OtherStats struct {
	Lines int64 `json:"lines"`
	Files int   `json:"files"`
}

// Metrics are ratios derived from the counted totals.
type Metrics struct {
	CommentRatio      float64 `json:"commentRatio"`
	CodeDensity       float64 `json:"codeDensity"`
	AvgFileSize       float64 `json:"avgFileSize"`
	ComplexityPerKLOC float64 `json:"complexityPerKloc"`
}

// Report is the aggregated statistics block attached to a scan result.
type Report struct {
	Total      Stats           `json:"total"`
	ByLanguage []LanguageStats `json:"byLanguage"`
	Metrics    *Metrics        `json:"metrics,omitempty"`
	Unanalyzed OtherStats      `json:"unanalyzed"`
}

// Analyzer accumulates statistics across files. Safe for concurrent
// use; the scan workers share one instance.
type Analyzer struct {
	mu         sync.Mutex
	total      Stats
	byLanguage map[string]*Stats
	other      OtherStats
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{byLanguage: make(map[string]*Stats)}
}

// ProcessFile counts one file. language is the enry-detected name used
// for grouping; content must be the file bytes already in hand.
func (a *Analyzer) ProcessFile(path, language string, content []byte) {
	if language == "" || len(content) == 0 {
		return
	}

	initOnce.Do(processor.ProcessConstants)

	sccLangs, _ := processor.DetectLanguage(path)
	sccLang := ""
	if len(sccLangs) > 0 {
		sccLang = sccLangs[0]
	}

	job := &processor.FileJob{
		Filename: path,
		Language: sccLang,
		Content:  content,
		Bytes:    int64(len(content)),
	}
	processor.CountStats(job)

	a.mu.Lock()
	defer a.mu.Unlock()

	if sccLang == "" {
		a.other.Lines += job.Lines
		a.other.Files++
		return
	}

	a.total.Lines += job.Lines
	a.total.Code += job.Code
	a.total.Comments += job.Comment
	a.total.Blanks += job.Blank
	a.total.Complexity += job.Complexity
	a.total.Files++

	stats, ok := a.byLanguage[language]
	if !ok {
		stats = &Stats{}
		a.byLanguage[language] = stats
	}
	stats.Lines += job.Lines
	stats.Code += job.Code
	stats.Comments += job.Comment
	stats.Blanks += job.Blank
	stats.Complexity += job.Complexity
	stats.Files++
}

// Report snapshots the accumulated statistics, languages sorted by
// line count descending with name as the tie break.
func (a *Analyzer) Report() *Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	byLanguage := make([]LanguageStats, 0, len(a.byLanguage))
	for lang, stats := range a.byLanguage {
		byLanguage = append(byLanguage, LanguageStats{
			Language: lang, Lines: stats.Lines, Code: stats.Code,
			Comments: stats.Comments, Blanks: stats.Blanks,
			Complexity: stats.Complexity, Files: stats.Files,
		})
	}
	sort.Slice(byLanguage, func(i, j int) bool {
		if byLanguage[i].Lines != byLanguage[j].Lines {
			return byLanguage[i].Lines > byLanguage[j].Lines
		}
		return byLanguage[i].Language < byLanguage[j].Language
	})

	return &Report{
		Total:      a.total,
		ByLanguage: byLanguage,
		Metrics:    a.metrics(),
		Unanalyzed: a.other,
	}
}

func (a *Analyzer) metrics() *Metrics {
	if a.total.Files == 0 {
		return nil
	}
	m := &Metrics{
		AvgFileSize: round2(float64(a.total.Lines) / float64(a.total.Files)),
	}
	if a.total.Code > 0 {
		m.CommentRatio = round2(float64(a.total.Comments) / float64(a.total.Code))
		m.ComplexityPerKLOC = round2(float64(a.total.Complexity) / (float64(a.total.Code) / 1000))
	}
	if a.total.Lines > 0 {
		m.CodeDensity = round2(float64(a.total.Code) / float64(a.total.Lines))
	}
	return m
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

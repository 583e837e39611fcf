package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
)

type styles struct {
	header   lipgloss.Style
	pass     lipgloss.Style
	fail     lipgloss.Style
	critical lipgloss.Style
	warning  lipgloss.Style
	info     lipgloss.Style
	location lipgloss.Style
	rule     lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{
			header:   plain,
			pass:     plain,
			fail:     plain,
			critical: plain,
			warning:  plain,
			info:     plain,
			location: plain,
			rule:     plain,
		}
	}
	return styles{
		header:   lipgloss.NewStyle().Bold(true),
		pass:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		fail:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		critical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		info:     lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		location: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		rule:     lipgloss.NewStyle().Faint(true),
	}
}

func (s styles) severity(sev findings.Severity) lipgloss.Style {
	switch sev {
	case findings.SeverityCritical:
		return s.critical
	case findings.SeverityWarning:
		return s.warning
	default:
		return s.info
	}
}

// WriteSummary renders the human view of a scan. Findings are grouped
// by severity, worst first; within a group the canonical order holds.
func WriteSummary(w io.Writer, r *ScanResult, color bool) {
	st := newStyles(color)

	path := ""
	if r.Metadata != nil {
		path = r.Metadata.ScanPath
	}
	verdict := st.pass.Render("PASS")
	if !r.Pass {
		verdict = st.fail.Render("FAIL")
	}
	fmt.Fprintf(w, "%s  score %.1f/100  %s\n", st.header.Render(path), r.Score, verdict)

	if len(r.Findings) > 0 {
		fmt.Fprintln(w)
		for _, sev := range []findings.Severity{findings.SeverityCritical, findings.SeverityWarning, findings.SeverityInfo} {
			for _, f := range r.Findings {
				if f.Severity != sev {
					continue
				}
				fmt.Fprintf(w, "  %s %s %s %s\n",
					st.severity(sev).Render(fmt.Sprintf("%-8s", sev)),
					st.location.Render(location(f)),
					st.rule.Render(f.RuleID),
					f.Message)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", countsLine(r))
	if len(r.ParseErrors) > 0 {
		fmt.Fprintf(w, "  files not analyzed: %d\n", len(r.ParseErrors))
	}
	if len(r.Clusters) > 0 {
		fmt.Fprintf(w, "  duplicate clusters: %d\n", len(r.Clusters))
	}
	if len(r.BlockingRules) > 0 {
		fmt.Fprintf(w, "  %s %s\n", st.fail.Render("blocking:"), strings.Join(r.BlockingRules, ", "))
	}
	if r.CodeStats != nil && r.CodeStats.Total.Files > 0 {
		fmt.Fprintf(w, "  %s\n", codeLine(r))
	}
}

func location(f findings.Finding) string {
	if f.EndLine > f.StartLine {
		return fmt.Sprintf("%s:%d-%d", f.File, f.StartLine, f.EndLine)
	}
	return fmt.Sprintf("%s:%d", f.File, f.StartLine)
}

func countsLine(r *ScanResult) string {
	total := len(r.Findings)
	if total == 0 {
		return "no findings"
	}
	var parts []string
	for _, name := range []string{"critical", "warning", "info"} {
		if n := r.SeverityCounts[name]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, name))
		}
	}
	return fmt.Sprintf("findings: %d (%s)", total, strings.Join(parts, ", "))
}

func codeLine(r *ScanResult) string {
	var langs []string
	for i, l := range r.CodeStats.ByLanguage {
		if i == 3 {
			break
		}
		langs = append(langs, l.Language)
	}
	line := fmt.Sprintf("code: %d lines across %d files", r.CodeStats.Total.Lines, r.CodeStats.Total.Files)
	if len(langs) > 0 {
		line += fmt.Sprintf(" (%s)", strings.Join(langs, ", "))
	}
	return line
}

// Package theater detects fabricated work: code shaped like
// verification or output that cannot actually fail or inform. All
// three detectors are heuristic, so every finding carries a confidence
// and the profile decides how much doubt it tolerates.
package theater

import (
	"fmt"
	"strings"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/detect"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
)

func init() {
	detect.Register(&randomDetector{})
	detect.Register(&successDetector{})
	detect.Register(&printDetector{})
}

// severityFor maps a heuristic's confidence onto a severity. High
// confidence fabrication reads as critical, doubtful matches stay
// informational.
func severityFor(confidence float64) findings.Severity {
	switch {
	case confidence >= 0.9:
		return findings.SeverityCritical
	case confidence >= 0.6:
		return findings.SeverityWarning
	}
	return findings.SeverityInfo
}

// randomDetector reports non-deterministic values flowing into names
// that promise a stable identifier.
type randomDetector struct{}

func (d *randomDetector) ID() string                  { return "theater-random" }
func (d *randomDetector) Category() findings.Category { return findings.CategoryFabrication }

func (d *randomDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	var out []findings.Finding
	unit.Tree.Walk(func(n *source.Node) bool {
		if n.Kind != source.KindAssign && n.Kind != source.KindField {
			return true
		}
		if !identifierName(n.Name) {
			return true
		}
		for _, child := range n.Children {
			confidence, origin := randomOrigin(child)
			if confidence == 0 || confidence < profile.Thresholds.MinTheaterConfidence {
				continue
			}
			out = append(out, findings.Finding{
				RuleID:     d.ID(),
				Category:   d.Category(),
				Severity:   severityFor(confidence),
				File:       unit.Path,
				StartLine:  n.StartLine,
				EndLine:    n.EndLine,
				Message:    fmt.Sprintf("%q is assigned from %s and will differ on every run", n.Name, origin),
				Confidence: confidence,
			})
			break
		}
		return true
	})
	return out
}

// identifierName reports whether a name promises a stable identity.
func identifierName(name string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	if lower == "id" || strings.HasSuffix(name, "ID") || strings.HasSuffix(name, "Id") || strings.HasSuffix(lower, "_id") {
		return true
	}
	for _, hint := range []string{"key", "token", "serial", "checksum", "fingerprint"} {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// randomOrigin scans an expression subtree for a non-deterministic
// source and returns the heuristic confidence for it.
func randomOrigin(n *source.Node) (float64, string) {
	confidence := 0.0
	origin := ""
	n.Walk(func(c *source.Node) bool {
		if c.Kind != source.KindCall {
			return true
		}
		path := strings.ToLower(c.Name)
		switch {
		case strings.HasPrefix(path, "rand.") || path == "rand" || strings.HasPrefix(path, "uuid.") || path == "uuid" || strings.Contains(path, ".random"):
			confidence, origin = 0.8, c.Name
			return false
		case path == "time.now" || strings.HasSuffix(path, ".unixnano"):
			if confidence < 0.55 {
				confidence, origin = 0.55, c.Name
			}
		}
		return true
	})
	return confidence, origin
}

// workNamePrefixes are function name prefixes that promise real
// verification or processing.
var workNamePrefixes = []string{"verify", "validate", "check", "ensure", "audit", "test", "process", "scan", "analyze"}

// successDetector reports work-named functions whose entire body is a
// hard-coded success return. They cannot fail, so they verify nothing.
type successDetector struct{}

func (d *successDetector) ID() string                  { return "theater-success" }
func (d *successDetector) Category() findings.Category { return findings.CategoryFabrication }

func (d *successDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	const confidence = 0.9
	if confidence < profile.Thresholds.MinTheaterConfidence {
		return nil
	}

	var out []findings.Finding
	for _, fn := range unit.Tree.Funcs() {
		if !workName(fn.Name) {
			continue
		}
		if !alwaysSucceeds(fn) {
			continue
		}
		out = append(out, findings.Finding{
			RuleID:     d.ID(),
			Category:   d.Category(),
			Severity:   severityFor(confidence),
			File:       unit.Path,
			StartLine:  fn.StartLine,
			EndLine:    fn.EndLine,
			Message:    fmt.Sprintf("%s returns a hard-coded success and can never fail", fn.DisplayName()),
			Confidence: confidence,
		})
	}
	return out
}

func workName(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range workNamePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// alwaysSucceeds reports whether the function body is nothing but
// returns of success constants (true, nil, zero).
func alwaysSucceeds(fn *source.Node) bool {
	returns := 0
	for _, child := range fn.Children {
		switch child.Kind {
		case source.KindParam:
			continue
		case source.KindReturn:
			returns++
			for _, result := range child.Children {
				if !successConstant(result) {
					return false
				}
			}
		default:
			return false
		}
	}
	return returns > 0
}

func successConstant(n *source.Node) bool {
	if n.Kind != source.KindLiteral {
		return false
	}
	switch n.Name {
	case "nil":
		return true
	case "bool":
		return n.Value == "true"
	case "number":
		return n.Value == "0"
	}
	return false
}

// printCall matches debug output calls by their final path segment.
func printCall(callee string) bool {
	last := callee
	if idx := strings.LastIndex(callee, "."); idx >= 0 {
		last = callee[idx+1:]
	}
	lower := strings.ToLower(last)
	return strings.HasPrefix(lower, "print") || lower == "debug" || lower == "trace" || lower == "dump"
}

// minPrintStatements exempts tiny helpers whose single print is the
// whole point.
const minPrintStatements = 4

// printDetector reports functions that are mostly debug output.
type printDetector struct{}

func (d *printDetector) ID() string                  { return "theater-print" }
func (d *printDetector) Category() findings.Category { return findings.CategoryFabrication }

func (d *printDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	const confidence = 0.7
	limit := profile.Thresholds.MaxPrintDensity
	if limit <= 0 || confidence < profile.Thresholds.MinTheaterConfidence {
		return nil
	}

	var out []findings.Finding
	for _, fn := range unit.Tree.Funcs() {
		statements := 0
		prints := 0
		fn.Walk(func(n *source.Node) bool {
			if n != fn && n.Kind == source.KindFunc {
				return false
			}
			if source.IsStatement(n.Kind) {
				statements++
			}
			if n.Kind == source.KindCall && printCall(n.Name) {
				prints++
			}
			return true
		})
		if statements < minPrintStatements {
			continue
		}
		density := float64(prints) / float64(statements)
		if density <= limit {
			continue
		}
		out = append(out, findings.Finding{
			RuleID:     d.ID(),
			Category:   d.Category(),
			Severity:   severityFor(confidence),
			File:       unit.Path,
			StartLine:  fn.StartLine,
			EndLine:    fn.StartLine,
			Message:    fmt.Sprintf("%d of %d statements in %s are debug prints", prints, statements, fn.DisplayName()),
			Confidence: confidence,
			Evidence:   &findings.Evidence{Counts: map[string]int{"prints": prints, "statements": statements}},
		})
	}
	return out
}

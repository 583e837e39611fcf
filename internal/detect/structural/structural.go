// Package structural detects complexity limits: nesting depth, function
// length, assertion density and unbounded container growth.
package structural

import (
	"fmt"
	"math"
	"strings"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/detect"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
)

func init() {
	detect.Register(&nestingDetector{})
	detect.Register(&lengthDetector{})
	detect.Register(&assertionDetector{})
	detect.Register(&growthDetector{})
}

func isControl(kind source.NodeKind) bool {
	return kind == source.KindIf || kind == source.KindFor || kind == source.KindSwitch
}

// nestingDetector reports control flow nested deeper than the profile
// limit. Only the outermost offending node is reported; everything
// beneath it is implied.
type nestingDetector struct{}

func (d *nestingDetector) ID() string                  { return "nesting-depth" }
func (d *nestingDetector) Category() findings.Category { return findings.CategoryStructural }

func (d *nestingDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	limit := profile.Thresholds.MaxNestingDepth
	if limit <= 0 {
		return nil
	}

	var out []findings.Finding
	for _, fn := range unit.Tree.Funcs() {
		fnName := fn.DisplayName()

		var visit func(n *source.Node, depth int)
		visit = func(n *source.Node, depth int) {
			if n != fn && n.Kind == source.KindFunc {
				return // nested functions start their own count
			}
			if isControl(n.Kind) {
				depth++
				if depth > limit {
					reached := depth - 1 + controlDepth(n)
					out = append(out, findings.Finding{
						RuleID:    d.ID(),
						Category:  d.Category(),
						Severity:  findings.SeverityCritical,
						File:      unit.Path,
						StartLine: n.StartLine,
						EndLine:   n.EndLine,
						Message:   fmt.Sprintf("control flow in %s reaches nesting depth %d, limit is %d", fnName, reached, limit),
						Evidence:  &findings.Evidence{Counts: map[string]int{"depth": reached, "limit": limit}},
					})
					return
				}
			}
			for _, c := range n.Children {
				visit(c, depth)
			}
		}
		visit(fn, 0)
	}
	return out
}

// controlDepth returns the deepest control nesting in the subtree,
// counting n itself when it is a control node.
func controlDepth(n *source.Node) int {
	deepest := 0
	for _, c := range n.Children {
		if d := controlDepth(c); d > deepest {
			deepest = d
		}
	}
	if isControl(n.Kind) {
		deepest++
	}
	return deepest
}

// lengthDetector reports functions longer than the profile limit.
type lengthDetector struct{}

func (d *lengthDetector) ID() string                  { return "function-length" }
func (d *lengthDetector) Category() findings.Category { return findings.CategoryStructural }

func (d *lengthDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	limit := profile.Thresholds.MaxFunctionLines
	if limit <= 0 {
		return nil
	}

	var out []findings.Finding
	for _, fn := range unit.Tree.Funcs() {
		lines := fn.Lines()
		if lines <= limit {
			continue
		}
		severity := findings.SeverityWarning
		if lines >= 2*limit {
			severity = findings.SeverityCritical
		}
		out = append(out, findings.Finding{
			RuleID:    d.ID(),
			Category:  d.Category(),
			Severity:  severity,
			File:      unit.Path,
			StartLine: fn.StartLine,
			EndLine:   fn.StartLine,
			Message:   fmt.Sprintf("function %s spans %d lines, limit is %d", fn.DisplayName(), lines, limit),
			Evidence:  &findings.Evidence{Counts: map[string]int{"lines": lines, "limit": limit}},
		})
	}
	return out
}

// assertionDetector reports functions whose assertion density falls
// below the profile floor, with the number of assertions still missing.
// Small functions are exempt.
type assertionDetector struct{}

func (d *assertionDetector) ID() string                  { return "assertion-density" }
func (d *assertionDetector) Category() findings.Category { return findings.CategoryStructural }

func (d *assertionDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	floor := profile.Thresholds.MinAssertionDensity
	minStatements := profile.Thresholds.MinAssertableLines
	if floor <= 0 {
		return nil
	}

	var out []findings.Finding
	for _, fn := range unit.Tree.Funcs() {
		statements := 0
		asserts := 0
		fn.Walk(func(n *source.Node) bool {
			if n != fn && n.Kind == source.KindFunc {
				return false
			}
			if source.IsStatement(n.Kind) {
				statements++
			}
			if n.Kind == source.KindAssert {
				asserts++
			}
			return true
		})
		if statements < minStatements {
			continue
		}
		density := float64(asserts) / float64(statements)
		if density >= floor {
			continue
		}
		needed := int(math.Ceil(floor*float64(statements)-1e-9)) - asserts
		if needed < 1 {
			needed = 1
		}
		out = append(out, findings.Finding{
			RuleID:    d.ID(),
			Category:  d.Category(),
			Severity:  findings.SeverityWarning,
			File:      unit.Path,
			StartLine: fn.StartLine,
			EndLine:   fn.StartLine,
			Message:   fmt.Sprintf("function %s has %d assertions across %d statements, %d more needed", fn.DisplayName(), asserts, statements, needed),
			Evidence:  &findings.Evidence{Counts: map[string]int{"assertions": asserts, "statements": statements, "deficit": needed}},
		})
	}
	return out
}

var growthCalls = map[string]bool{
	"append": true,
	"push":   true,
	"insert": true,
	"grow":   true,
}

// growthDetector reports container growth inside loops that have no
// terminating condition and no visible capacity check.
type growthDetector struct{}

func (d *growthDetector) ID() string                  { return "bounded-growth" }
func (d *growthDetector) Category() findings.Category { return findings.CategoryStructural }

func (d *growthDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	var out []findings.Finding
	var visit func(n *source.Node, unbounded bool)
	visit = func(n *source.Node, unbounded bool) {
		if n.Kind == source.KindFor && n.Value == "unconditional" && !hasCapacityGuard(n) {
			unbounded = true
		}
		if unbounded && n.Kind == source.KindCall && growthCalls[strings.ToLower(lastSegment(n.Name))] {
			out = append(out, findings.Finding{
				RuleID:    d.ID(),
				Category:  d.Category(),
				Severity:  findings.SeverityWarning,
				File:      unit.Path,
				StartLine: n.StartLine,
				EndLine:   n.EndLine,
				Message:   fmt.Sprintf("%s grows a container inside a loop with no exit condition or capacity check", n.Name),
			})
		}
		for _, c := range n.Children {
			visit(c, unbounded)
		}
	}
	visit(unit.Tree, false)
	return out
}

// hasCapacityGuard reports whether the loop subtree checks len or cap
// anywhere, which is taken as evidence the growth is bounded.
func hasCapacityGuard(loop *source.Node) bool {
	guarded := false
	loop.Walk(func(n *source.Node) bool {
		if n.Kind == source.KindCall && (n.Name == "len" || n.Name == "cap") {
			guarded = true
			return false
		}
		return true
	})
	return guarded
}

func lastSegment(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return path
}

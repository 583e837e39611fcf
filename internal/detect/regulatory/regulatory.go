// Package regulatory holds the fixed rule set: rules whose ids never
// change and whose findings default to critical. Profiles may disable
// them but never rename or reweight what they mean.
package regulatory

import (
	"fmt"
	"strings"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/detect"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
)

func init() {
	detect.Register(&recursionDetector{})
	detect.Register(&loopDetector{})
}

// recursionDetector reports functions that call themselves directly.
type recursionDetector struct{}

func (d *recursionDetector) ID() string                  { return "direct-recursion" }
func (d *recursionDetector) Category() findings.Category { return findings.CategoryRegulatory }

func (d *recursionDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	var out []findings.Finding
	for _, fn := range unit.Tree.Funcs() {
		if fn.Name == "" {
			continue
		}
		var first *source.Node
		calls := 0
		fn.Walk(func(n *source.Node) bool {
			if n != fn && n.Kind == source.KindFunc {
				return false
			}
			if (n.Kind == source.KindCall || n.Kind == source.KindAssert) && lastSegment(n.Name) == fn.Name {
				calls++
				if first == nil {
					first = n
				}
			}
			return true
		})
		if first == nil {
			continue
		}
		out = append(out, findings.Finding{
			RuleID:    d.ID(),
			Category:  d.Category(),
			Severity:  findings.SeverityCritical,
			File:      unit.Path,
			StartLine: first.StartLine,
			EndLine:   first.EndLine,
			Message:   fmt.Sprintf("%s calls itself, recursion depth is unbounded", fn.DisplayName()),
			Evidence:  &findings.Evidence{Counts: map[string]int{"calls": calls}},
		})
	}
	return out
}

func lastSegment(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// loopDetector reports loops with no condition and no reachable exit.
type loopDetector struct{}

func (d *loopDetector) ID() string                  { return "unbounded-loop" }
func (d *loopDetector) Category() findings.Category { return findings.CategoryRegulatory }

func (d *loopDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	var out []findings.Finding
	unit.Tree.Walk(func(n *source.Node) bool {
		if n.Kind == source.KindFor && n.Value == "unconditional" && !loopExits(n) {
			out = append(out, findings.Finding{
				RuleID:    d.ID(),
				Category:  d.Category(),
				Severity:  findings.SeverityCritical,
				File:      unit.Path,
				StartLine: n.StartLine,
				EndLine:   n.EndLine,
				Message:   "loop has no condition, no break and no return",
			})
		}
		return true
	})
	return out
}

// loopExits reports whether the loop body can leave the loop. A break
// only counts while it still binds to this loop; a return counts from
// anywhere except a nested function literal.
func loopExits(loop *source.Node) bool {
	exits := false
	var visit func(n *source.Node, breakBinds bool)
	visit = func(n *source.Node, breakBinds bool) {
		for _, c := range n.Children {
			if exits {
				return
			}
			switch c.Kind {
			case source.KindBreak:
				if breakBinds {
					exits = true
					return
				}
			case source.KindReturn:
				exits = true
				return
			case source.KindFunc:
				continue
			case source.KindFor, source.KindSwitch:
				visit(c, false)
			default:
				visit(c, breakBinds)
			}
		}
	}
	visit(loop, true)
	return exits
}

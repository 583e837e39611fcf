// Package godobject detects types that have accreted too much: many
// methods, many fields and a large footprint at once. One finding per
// offending declaration, never one per member.
package godobject

import (
	"fmt"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/detect"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
)

func init() {
	detect.Register(&Detector{})
}

type Detector struct{}

func (d *Detector) ID() string                  { return "god-object" }
func (d *Detector) Category() findings.Category { return findings.CategoryStructural }

func (d *Detector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	th := profile.Thresholds
	if th.GodObjectMethods <= 0 || th.GodObjectFields <= 0 || th.GodObjectLines <= 0 {
		return nil
	}

	// receiver name -> attached methods, for languages with methods
	methodsByType := make(map[string][]*source.Node)
	for _, fn := range unit.Tree.Funcs() {
		if fn.Value != "" {
			methodsByType[fn.Value] = append(methodsByType[fn.Value], fn)
		}
	}

	var out []findings.Finding
	unit.Tree.Walk(func(n *source.Node) bool {
		if n.Kind != source.KindTypeDecl {
			return true
		}

		fields := 0
		methods := len(methodsByType[n.Name])
		lines := n.Lines()
		for _, child := range n.Children {
			switch child.Kind {
			case source.KindField:
				fields++
			case source.KindBlock:
				// nested configuration blocks are the members of an
				// HCL unit
				methods++
			}
		}
		for _, m := range methodsByType[n.Name] {
			lines += m.Lines()
		}

		if methods <= th.GodObjectMethods || fields <= th.GodObjectFields || lines <= th.GodObjectLines {
			return true
		}
		out = append(out, findings.Finding{
			RuleID:    d.ID(),
			Category:  d.Category(),
			Severity:  findings.SeverityCritical,
			File:      unit.Path,
			StartLine: n.StartLine,
			EndLine:   n.StartLine,
			Message: fmt.Sprintf("%s concentrates %d methods, %d fields and %d lines, over every god-object limit",
				n.Name, methods, fields, lines),
			Evidence: &findings.Evidence{Counts: map[string]int{"methods": methods, "fields": fields, "lines": lines}},
		})
		return true
	})
	return out
}

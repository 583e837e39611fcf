package coupling

import (
	"fmt"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/detect"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
)

func init() {
	detect.Register(&valueDetector{})
	detect.Register(&meaningDetector{})
}

// valueDetector reports one literal value repeated across enough sites
// that all of them must change together. Reported once per value at the
// first site.
type valueDetector struct{}

func (d *valueDetector) ID() string                  { return "coupling-value" }
func (d *valueDetector) Category() findings.Category { return findings.CategoryCoupling }

func (d *valueDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	minSites := profile.Thresholds.MinLiteralSites
	if minSites <= 0 {
		return nil
	}

	type group struct {
		first *source.Node
		lines map[int]bool
	}
	groups := make(map[string]*group)

	walkContext(unit.Tree, func(n *source.Node, ctx source.NodeKind) {
		if n.Kind != source.KindLiteral || ctx == source.KindAssert {
			return
		}
		if trivialValue(n) {
			return
		}
		key := n.Name + "|" + n.Value
		g, ok := groups[key]
		if !ok {
			g = &group{first: n, lines: make(map[int]bool)}
			groups[key] = g
		}
		g.lines[n.StartLine] = true
	})

	var out []findings.Finding
	for _, key := range sortedKeys(groups) {
		g := groups[key]
		sites := len(g.lines)
		if sites < minSites {
			continue
		}
		out = append(out, findings.Finding{
			RuleID:    d.ID(),
			Category:  d.Category(),
			Severity:  scaled(sites, minSites),
			File:      unit.Path,
			StartLine: g.first.StartLine,
			EndLine:   g.first.EndLine,
			Message:   fmt.Sprintf("literal %s is repeated on %d lines, change one and the rest drift", g.first.Value, sites),
			Evidence: &findings.Evidence{
				Snippet: g.first.Value,
				Counts:  map[string]int{"sites": sites},
			},
		})
	}
	return out
}

// trivialValue filters literals too common to couple anything.
func trivialValue(n *source.Node) bool {
	switch n.Name {
	case "bool", "nil":
		return true
	case "number":
		return n.Value == "0" || n.Value == "1"
	case "string":
		return len(n.Value) <= 3 // quotes plus at most one rune
	}
	return false
}

// meaningDetector reports bare numbers used directly in conditions,
// call arguments and returns. The number means something only to
// whoever wrote it.
type meaningDetector struct{}

func (d *meaningDetector) ID() string                  { return "coupling-meaning" }
func (d *meaningDetector) Category() findings.Category { return findings.CategoryCoupling }

var plainNumbers = map[string]bool{"0": true, "1": true, "2": true, "10": true}

func (d *meaningDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	type group struct {
		first *source.Node
		sites int
	}
	groups := make(map[string]*group)

	walkContext(unit.Tree, func(n *source.Node, ctx source.NodeKind) {
		if n.Kind != source.KindLiteral || n.Name != "number" || plainNumbers[n.Value] {
			return
		}
		switch ctx {
		case source.KindIf, source.KindCase, source.KindReturn, source.KindCall, source.KindFor, source.KindSwitch:
		default:
			return
		}
		g, ok := groups[n.Value]
		if !ok {
			groups[n.Value] = &group{first: n, sites: 1}
			return
		}
		g.sites++
	})

	var out []findings.Finding
	for _, value := range sortedKeys(groups) {
		g := groups[value]
		out = append(out, findings.Finding{
			RuleID:    d.ID(),
			Category:  d.Category(),
			Severity:  findings.SeverityInfo,
			File:      unit.Path,
			StartLine: g.first.StartLine,
			EndLine:   g.first.EndLine,
			Message:   fmt.Sprintf("magic number %s, name it to say what it means", value),
			Evidence: &findings.Evidence{
				Snippet: value,
				Counts:  map[string]int{"sites": g.sites},
			},
		})
	}
	return out
}

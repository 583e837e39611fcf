package coupling

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/detect"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
)

func init() {
	detect.Register(&positionDetector{})
	detect.Register(&timingDetector{})
	detect.Register(&algorithmDetector{})
}

// positionDetector reports functions whose parameter count exceeds the
// profile limit. Every caller is coupled to the exact argument order.
type positionDetector struct{}

func (d *positionDetector) ID() string                  { return "coupling-position" }
func (d *positionDetector) Category() findings.Category { return findings.CategoryCoupling }

func (d *positionDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	limit := profile.Thresholds.MaxPositionalParams
	if limit <= 0 {
		return nil
	}

	var out []findings.Finding
	for _, fn := range unit.Tree.Funcs() {
		params := 0
		for _, child := range fn.Children {
			if child.Kind == source.KindParam {
				params++
			}
		}
		if params <= limit {
			continue
		}
		out = append(out, findings.Finding{
			RuleID:    d.ID(),
			Category:  d.Category(),
			Severity:  scaled(params, limit),
			File:      unit.Path,
			StartLine: fn.StartLine,
			EndLine:   fn.StartLine,
			Message:   fmt.Sprintf("function %s takes %d positional parameters, limit is %d", fn.DisplayName(), params, limit),
			Evidence:  &findings.Evidence{Counts: map[string]int{"params": params, "limit": limit}},
		})
	}
	return out
}

// timingDetector reports sleep-style delays. Code that waits a fixed
// time for another component is coupled to that component's speed, and
// a sleep inside a loop multiplies the guess.
type timingDetector struct{}

func (d *timingDetector) ID() string                  { return "coupling-timing" }
func (d *timingDetector) Category() findings.Category { return findings.CategoryCoupling }

func (d *timingDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	var out []findings.Finding
	walkLoops(unit.Tree, func(n *source.Node, loopDepth int) {
		switch {
		case n.Kind == source.KindCall && isSleepCall(n.Name):
			severity := findings.SeverityWarning
			message := fmt.Sprintf("call to %s synchronizes by waiting", n.Name)
			if loopDepth > 0 {
				severity = findings.SeverityCritical
				message = fmt.Sprintf("call to %s waits inside a loop", n.Name)
			}
			out = append(out, findings.Finding{
				RuleID:    d.ID(),
				Category:  d.Category(),
				Severity:  severity,
				File:      unit.Path,
				StartLine: n.StartLine,
				EndLine:   n.EndLine,
				Message:   message,
			})
		case n.Kind == source.KindTypeDecl && strings.HasPrefix(n.Name, "resource.time_sleep"):
			out = append(out, findings.Finding{
				RuleID:    d.ID(),
				Category:  d.Category(),
				Severity:  findings.SeverityWarning,
				File:      unit.Path,
				StartLine: n.StartLine,
				EndLine:   n.StartLine,
				Message:   fmt.Sprintf("%s orders resources by waiting", n.Name),
			})
		}
	})
	return out
}

func isSleepCall(callee string) bool {
	last := callee
	if idx := strings.LastIndex(callee, "."); idx >= 0 {
		last = callee[idx+1:]
	}
	return strings.EqualFold(last, "sleep")
}

// minAlgorithmTokens is the noise floor for twin detection. Bodies
// smaller than this collide on ordinary boilerplate.
const minAlgorithmTokens = 16

// algorithmDetector reports functions in the same file whose bodies are
// identical after erasing names and literal values. The copies must be
// edited in lockstep.
type algorithmDetector struct{}

func (d *algorithmDetector) ID() string                  { return "coupling-algorithm" }
func (d *algorithmDetector) Category() findings.Category { return findings.CategoryCoupling }

func (d *algorithmDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	type member struct {
		fn   *source.Node
		hash uint64
	}

	var members []member
	for _, fn := range unit.Tree.Funcs() {
		normalized := normalizedRange(unit.Tokens, fn.StartLine, fn.EndLine)
		if len(normalized) < minAlgorithmTokens {
			continue
		}
		members = append(members, member{fn: fn, hash: hashTokens(normalized)})
	}

	groups := make(map[uint64][]*source.Node)
	for _, m := range members {
		groups[m.hash] = append(groups[m.hash], m.fn)
	}

	var hashes []uint64
	for hash, group := range groups {
		if len(group) >= 2 {
			hashes = append(hashes, hash)
		}
	}
	sort.Slice(hashes, func(i, j int) bool {
		return groups[hashes[i]][0].StartLine < groups[hashes[j]][0].StartLine
	})

	var out []findings.Finding
	for _, hash := range hashes {
		group := groups[hash]
		names := make([]string, len(group))
		for i, fn := range group {
			names[i] = fn.DisplayName()
		}
		for i, fn := range group {
			twins := append(append([]string{}, names[:i]...), names[i+1:]...)
			out = append(out, findings.Finding{
				RuleID:    d.ID(),
				Category:  d.Category(),
				Severity:  scaled(len(group), 2),
				File:      unit.Path,
				StartLine: fn.StartLine,
				EndLine:   fn.StartLine,
				Message:   fmt.Sprintf("function %s implements the same algorithm as %s", fn.DisplayName(), strings.Join(twins, ", ")),
				Evidence: &findings.Evidence{
					ClusterID: fmt.Sprintf("%016x", hash),
					Counts:    map[string]int{"functions": len(group)},
				},
			})
		}
	}
	return out
}

// normalizedRange extracts the normalized token texts between two lines
// inclusive.
func normalizedRange(tokens []source.Token, startLine, endLine int) []string {
	var out []string
	for _, t := range tokens {
		if t.Line >= startLine && t.Line <= endLine {
			out = append(out, t.Normalized())
		}
	}
	return out
}

func hashTokens(normalized []string) uint64 {
	h := fnv.New64a()
	for _, text := range normalized {
		h.Write([]byte(text))
		h.Write([]byte{0x1f})
	}
	return h.Sum64()
}

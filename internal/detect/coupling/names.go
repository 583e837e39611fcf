package coupling

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/detect"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
)

func init() {
	detect.Register(&nameDetector{})
	detect.Register(&conventionDetector{})
}

// nameDetector reports parameters and local declarations that shadow a
// file-scope name. Every reader of the shadowed region must now track
// which of the two bindings is live.
type nameDetector struct{}

func (d *nameDetector) ID() string                  { return "coupling-name" }
func (d *nameDetector) Category() findings.Category { return findings.CategoryCoupling }

func (d *nameDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	top := topLevelNames(unit.Tree)
	if len(top) == 0 {
		return nil
	}

	type site struct {
		node *source.Node
		what string
	}
	shadows := make(map[string][]site)

	for _, fn := range unit.Tree.Funcs() {
		for _, child := range fn.Children {
			if child.Kind == source.KindParam && child.Name != "" {
				if _, ok := top[child.Name]; ok {
					shadows[child.Name] = append(shadows[child.Name], site{child, "parameter"})
				}
			}
		}
		fn.Walk(func(n *source.Node) bool {
			if n != fn && n.Kind == source.KindFunc {
				return false // nested functions get their own pass
			}
			if n.Kind == source.KindAssign && n.Value == "decl" && n.Name != "" {
				if _, ok := top[n.Name]; ok {
					shadows[n.Name] = append(shadows[n.Name], site{n, "local declaration"})
				}
			}
			return true
		})
	}

	var out []findings.Finding
	for _, name := range sortedKeys(shadows) {
		sites := shadows[name]
		severity := scaled(len(sites), 2)
		for _, s := range sites {
			out = append(out, findings.Finding{
				RuleID:    d.ID(),
				Category:  d.Category(),
				Severity:  severity,
				File:      unit.Path,
				StartLine: s.node.StartLine,
				EndLine:   s.node.EndLine,
				Message:   fmt.Sprintf("%s %q shadows the file-scope name declared at line %d", s.what, name, top[name].StartLine),
				Evidence:  &findings.Evidence{Counts: map[string]int{"sites": len(sites)}},
			})
		}
	}
	return out
}

var (
	goSnakeCase  = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)+$`)
	hclCamelCase = regexp.MustCompile(`^[a-z][a-z0-9]*([A-Z][a-zA-Z0-9]*)+$`)
)

// conventionDetector reports identifiers that break the naming
// convention of their language: snake_case in Go, camelCase in HCL.
// Mixed conventions couple every reader to both styles.
type conventionDetector struct{}

func (d *conventionDetector) ID() string                  { return "coupling-convention" }
func (d *conventionDetector) Category() findings.Category { return findings.CategoryCoupling }

func (d *conventionDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	offends := offenderFor(unit.Lang)
	if offends == nil {
		return nil
	}

	first := make(map[string]*source.Node)
	sites := make(map[string]int)
	unit.Tree.Walk(func(n *source.Node) bool {
		var names []string
		switch n.Kind {
		case source.KindIdent, source.KindParam, source.KindField, source.KindVarDecl, source.KindFunc, source.KindAssign:
			names = []string{n.Name}
		case source.KindTypeDecl:
			names = strings.Split(n.Name, ".")
		}
		for _, name := range names {
			if name == "" || strings.Contains(name, ".") || !offends(name) {
				continue
			}
			sites[name]++
			if _, ok := first[name]; !ok {
				first[name] = n
			}
		}
		return true
	})

	var out []findings.Finding
	for _, name := range sortedKeys(first) {
		n := first[name]
		out = append(out, findings.Finding{
			RuleID:    d.ID(),
			Category:  d.Category(),
			Severity:  findings.SeverityInfo,
			File:      unit.Path,
			StartLine: n.StartLine,
			EndLine:   n.EndLine,
			Message:   fmt.Sprintf("name %q breaks the %s naming convention", name, unit.Lang),
			Evidence:  &findings.Evidence{Counts: map[string]int{"sites": sites[name]}},
		})
	}
	return out
}

// offenderFor returns the convention violation test for a language, or
// nil when the language has no enforced convention.
func offenderFor(lang string) func(string) bool {
	switch lang {
	case "Go":
		return goSnakeCase.MatchString
	case "HCL":
		return hclCamelCase.MatchString
	}
	return nil
}

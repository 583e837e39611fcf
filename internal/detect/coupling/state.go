package coupling

import (
	"fmt"
	"sort"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/detect"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
)

func init() {
	detect.Register(&orderDetector{})
	detect.Register(&identityDetector{})
}

// varAccess records how the file's functions touch one file-scope
// variable. Functions that shadow the name with a parameter or local
// declaration are left out entirely.
type varAccess struct {
	decl   *source.Node
	writes map[string][]*source.Node // function display name -> write sites
	reads  map[string][]*source.Node // function display name -> read sites
}

// collectVarAccess maps every file-scope variable to its accesses,
// attributed to the enclosing top-level function.
func collectVarAccess(unit *source.Unit) map[string]*varAccess {
	vars := topLevelVars(unit.Tree)
	if len(vars) == 0 {
		return nil
	}

	access := make(map[string]*varAccess, len(vars))
	for name, decl := range vars {
		access[name] = &varAccess{
			decl:   decl,
			writes: make(map[string][]*source.Node),
			reads:  make(map[string][]*source.Node),
		}
	}

	for _, fn := range unit.Tree.Children {
		if fn.Kind != source.KindFunc {
			continue
		}
		display := fn.DisplayName()
		shadowed := shadowedNames(fn)
		fn.Walk(func(n *source.Node) bool {
			switch n.Kind {
			case source.KindAssign:
				if a, ok := access[n.Name]; ok && n.Value != "decl" && !shadowed[n.Name] {
					a.writes[display] = append(a.writes[display], n)
				}
			case source.KindIdent:
				if a, ok := access[n.Name]; ok && !shadowed[n.Name] {
					a.reads[display] = append(a.reads[display], n)
				}
			}
			return true
		})
	}
	return access
}

// shadowedNames returns every name the function rebinds locally.
func shadowedNames(fn *source.Node) map[string]bool {
	shadowed := make(map[string]bool)
	fn.Walk(func(n *source.Node) bool {
		switch n.Kind {
		case source.KindParam:
			if n.Name != "" {
				shadowed[n.Name] = true
			}
		case source.KindAssign:
			if n.Value == "decl" && n.Name != "" {
				shadowed[n.Name] = true
			}
		}
		return true
	})
	return shadowed
}

// orderDetector reports functions that read a file-scope variable some
// other single function writes. The reader only works after the writer
// has run, an ordering the code never states.
type orderDetector struct{}

func (d *orderDetector) ID() string                  { return "coupling-execution-order" }
func (d *orderDetector) Category() findings.Category { return findings.CategoryCoupling }

func (d *orderDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	access := collectVarAccess(unit)

	var out []findings.Finding
	for _, name := range sortedKeys(access) {
		a := access[name]
		if len(a.writes) != 1 {
			continue
		}
		var writer string
		for fn := range a.writes {
			writer = fn
		}

		readers := sortedKeys(a.reads)
		sort.SliceStable(readers, func(i, j int) bool {
			return a.reads[readers[i]][0].StartLine < a.reads[readers[j]][0].StartLine
		})
		for _, reader := range readers {
			if reader == writer {
				continue
			}
			first := a.reads[reader][0]
			out = append(out, findings.Finding{
				RuleID:    d.ID(),
				Category:  d.Category(),
				Severity:  findings.SeverityWarning,
				File:      unit.Path,
				StartLine: first.StartLine,
				EndLine:   first.EndLine,
				Message:   fmt.Sprintf("%s reads %q but only %s writes it, so %s must run first", reader, name, writer, writer),
				Evidence:  &findings.Evidence{Counts: map[string]int{"reads": len(a.reads[reader])}},
			})
		}
	}
	return out
}

// identityDetector reports file-scope variables written by more than
// one function. All writers share one identity and can clobber each
// other.
type identityDetector struct{}

func (d *identityDetector) ID() string                  { return "coupling-identity" }
func (d *identityDetector) Category() findings.Category { return findings.CategoryCoupling }

func (d *identityDetector) Detect(unit *source.Unit, profile *config.Profile) []findings.Finding {
	access := collectVarAccess(unit)

	var out []findings.Finding
	for _, name := range sortedKeys(access) {
		a := access[name]
		if len(a.writes) < 2 {
			continue
		}
		writers := sortedKeys(a.writes)
		out = append(out, findings.Finding{
			RuleID:    d.ID(),
			Category:  d.Category(),
			Severity:  scaled(len(writers), 2),
			File:      unit.Path,
			StartLine: a.decl.StartLine,
			EndLine:   a.decl.StartLine,
			Message:   fmt.Sprintf("variable %q is written by %d functions and names one shared identity", name, len(writers)),
			Evidence:  &findings.Evidence{Counts: map[string]int{"writers": len(writers)}},
		})
	}
	return out
}

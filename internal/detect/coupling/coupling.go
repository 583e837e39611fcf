// Package coupling detects connascence: places where two or more sites
// must change together. One detector per coupling kind; severity grows
// with the number of coupled sites.
package coupling

import (
	"sort"

	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
)

// scaled maps how many sites share a coupling onto a severity. Double
// the reporting threshold marks the coupling critical.
func scaled(sites, threshold int) findings.Severity {
	if threshold > 0 && sites >= 2*threshold {
		return findings.SeverityCritical
	}
	return findings.SeverityWarning
}

// topLevelNames returns every name declared at file scope, mapped to
// the node that declares it.
func topLevelNames(tree *source.Node) map[string]*source.Node {
	names := make(map[string]*source.Node)
	if tree == nil {
		return names
	}
	for _, decl := range tree.Children {
		switch decl.Kind {
		case source.KindConstDecl:
			for _, ident := range decl.Children {
				if ident.Kind == source.KindIdent && ident.Name != "" {
					names[ident.Name] = ident
				}
			}
		case source.KindVarDecl, source.KindTypeDecl, source.KindFunc:
			if decl.Name != "" {
				names[decl.Name] = decl
			}
		}
	}
	return names
}

// topLevelVars returns only the file-scope variable declarations.
func topLevelVars(tree *source.Node) map[string]*source.Node {
	vars := make(map[string]*source.Node)
	if tree == nil {
		return vars
	}
	for _, decl := range tree.Children {
		if decl.Kind == source.KindVarDecl && decl.Name != "" {
			vars[decl.Name] = decl
		}
	}
	return vars
}

// walkContext visits every node with the kind of its nearest enclosing
// statement-like ancestor. The root is visited with context KindFile.
func walkContext(n *source.Node, fn func(n *source.Node, ctx source.NodeKind)) {
	walkCtx(n, source.KindFile, fn)
}

func walkCtx(n *source.Node, ctx source.NodeKind, fn func(n *source.Node, ctx source.NodeKind)) {
	if n == nil {
		return
	}
	fn(n, ctx)
	next := ctx
	switch n.Kind {
	case source.KindAssign, source.KindCall, source.KindAssert, source.KindReturn,
		source.KindIf, source.KindCase, source.KindFor, source.KindSwitch,
		source.KindVarDecl, source.KindConstDecl, source.KindField, source.KindFunc:
		next = n.Kind
	}
	for _, c := range n.Children {
		walkCtx(c, next, fn)
	}
}

// walkLoops visits every node with the number of loops enclosing it.
func walkLoops(n *source.Node, fn func(n *source.Node, loopDepth int)) {
	walkLoopDepth(n, 0, fn)
}

func walkLoopDepth(n *source.Node, depth int, fn func(*source.Node, int)) {
	if n == nil {
		return
	}
	fn(n, depth)
	next := depth
	if n.Kind == source.KindFor {
		next++
	}
	for _, c := range n.Children {
		walkLoopDepth(c, next, fn)
	}
}

// sortedKeys returns map keys in stable order so findings never depend
// on map iteration.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package source

import (
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"
)

func init() {
	RegisterAdapter(&goAdapter{})
}

// goAdapter binds Go sources via the standard library parser.
type goAdapter struct{}

func (a *goAdapter) Language() string { return "Go" }

func (a *goAdapter) Parse(path string, content []byte) (*Node, []Token, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.SkipObjectResolution)
	if err != nil {
		return nil, nil, err
	}

	conv := &goConverter{fset: fset}
	tree := conv.file(file)
	tokens := scanGoTokens(fset, path, content)
	return tree, tokens, nil
}

type goConverter struct {
	fset *token.FileSet
}

func (c *goConverter) line(p token.Pos) int {
	if !p.IsValid() {
		return 0
	}
	return c.fset.Position(p).Line
}

func (c *goConverter) span(n ast.Node) (int, int) {
	return c.line(n.Pos()), c.line(n.End())
}

func (c *goConverter) file(f *ast.File) *Node {
	start, end := c.span(f)
	root := &Node{Kind: KindFile, Name: f.Name.Name, StartLine: start, EndLine: end}

	for _, imp := range f.Imports {
		s, e := c.span(imp)
		root.Children = append(root.Children, &Node{Kind: KindImport, Name: strings.Trim(imp.Path.Value, `"`), StartLine: s, EndLine: e})
	}

	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			root.Children = append(root.Children, c.genDecl(d)...)
		case *ast.FuncDecl:
			root.Children = append(root.Children, c.funcDecl(d))
		}
	}
	return root
}

func (c *goConverter) genDecl(d *ast.GenDecl) []*Node {
	var out []*Node
	switch d.Tok {
	case token.CONST:
		s, e := c.span(d)
		node := &Node{Kind: KindConstDecl, StartLine: s, EndLine: e}
		for _, spec := range d.Specs {
			if vs, ok := spec.(*ast.ValueSpec); ok {
				for _, name := range vs.Names {
					node.Children = append(node.Children, &Node{Kind: KindIdent, Name: name.Name, StartLine: c.line(name.Pos()), EndLine: c.line(name.End())})
				}
			}
		}
		out = append(out, node)
	case token.VAR:
		for _, spec := range d.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for _, name := range vs.Names {
				s, e := c.span(vs)
				node := &Node{Kind: KindVarDecl, Name: name.Name, StartLine: s, EndLine: e}
				for _, val := range vs.Values {
					node.Children = append(node.Children, c.expr(val)...)
				}
				out = append(out, node)
			}
		}
	case token.TYPE:
		for _, spec := range d.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			s, e := c.span(ts)
			node := &Node{Kind: KindTypeDecl, Name: ts.Name.Name, StartLine: s, EndLine: e}
			if st, ok := ts.Type.(*ast.StructType); ok && st.Fields != nil {
				for _, field := range st.Fields.List {
					fs, fe := c.span(field)
					if len(field.Names) == 0 {
						// embedded field
						node.Children = append(node.Children, &Node{Kind: KindField, Name: typeName(field.Type), StartLine: fs, EndLine: fe})
						continue
					}
					for _, name := range field.Names {
						node.Children = append(node.Children, &Node{Kind: KindField, Name: name.Name, StartLine: fs, EndLine: fe})
					}
				}
			}
			out = append(out, node)
		}
	}
	return out
}

func (c *goConverter) funcDecl(d *ast.FuncDecl) *Node {
	s, e := c.span(d)
	node := &Node{Kind: KindFunc, Name: d.Name.Name, StartLine: s, EndLine: e}
	if d.Recv != nil && len(d.Recv.List) > 0 {
		node.Value = typeName(d.Recv.List[0].Type)
	}
	if d.Type.Params != nil {
		for _, field := range d.Type.Params.List {
			fs, fe := c.span(field)
			if len(field.Names) == 0 {
				node.Children = append(node.Children, &Node{Kind: KindParam, StartLine: fs, EndLine: fe})
				continue
			}
			for _, name := range field.Names {
				node.Children = append(node.Children, &Node{Kind: KindParam, Name: name.Name, StartLine: fs, EndLine: fe})
			}
		}
	}
	if d.Body != nil {
		node.Children = append(node.Children, c.stmts(d.Body.List)...)
	}
	return node
}

func (c *goConverter) stmts(list []ast.Stmt) []*Node {
	var out []*Node
	for _, stmt := range list {
		out = append(out, c.stmt(stmt)...)
	}
	return out
}

func (c *goConverter) stmt(stmt ast.Stmt) []*Node {
	switch s := stmt.(type) {
	case *ast.IfStmt:
		start, end := c.span(s)
		node := &Node{Kind: KindIf, StartLine: start, EndLine: end}
		if s.Cond != nil {
			node.Children = append(node.Children, c.expr(s.Cond)...)
		}
		if s.Body != nil {
			node.Children = append(node.Children, c.stmts(s.Body.List)...)
		}
		if s.Else != nil {
			node.Children = append(node.Children, c.stmt(s.Else)...)
		}
		return []*Node{node}
	case *ast.ForStmt:
		start, end := c.span(s)
		value := "conditional"
		if s.Cond == nil {
			value = "unconditional"
		}
		node := &Node{Kind: KindFor, Value: value, StartLine: start, EndLine: end}
		if s.Init != nil {
			node.Children = append(node.Children, c.stmt(s.Init)...)
		}
		if s.Cond != nil {
			node.Children = append(node.Children, c.expr(s.Cond)...)
		}
		if s.Body != nil {
			node.Children = append(node.Children, c.stmts(s.Body.List)...)
		}
		return []*Node{node}
	case *ast.RangeStmt:
		start, end := c.span(s)
		node := &Node{Kind: KindFor, Value: "range", StartLine: start, EndLine: end}
		node.Children = append(node.Children, c.expr(s.X)...)
		if s.Body != nil {
			node.Children = append(node.Children, c.stmts(s.Body.List)...)
		}
		return []*Node{node}
	case *ast.SwitchStmt:
		start, end := c.span(s)
		node := &Node{Kind: KindSwitch, StartLine: start, EndLine: end}
		if s.Tag != nil {
			node.Children = append(node.Children, c.expr(s.Tag)...)
		}
		if s.Body != nil {
			node.Children = append(node.Children, c.stmts(s.Body.List)...)
		}
		return []*Node{node}
	case *ast.TypeSwitchStmt:
		start, end := c.span(s)
		node := &Node{Kind: KindSwitch, StartLine: start, EndLine: end}
		if s.Body != nil {
			node.Children = append(node.Children, c.stmts(s.Body.List)...)
		}
		return []*Node{node}
	case *ast.CaseClause:
		start, end := c.span(s)
		node := &Node{Kind: KindCase, StartLine: start, EndLine: end}
		node.Children = append(node.Children, c.stmts(s.Body)...)
		return []*Node{node}
	case *ast.SelectStmt:
		start, end := c.span(s)
		node := &Node{Kind: KindSwitch, StartLine: start, EndLine: end}
		if s.Body != nil {
			node.Children = append(node.Children, c.stmts(s.Body.List)...)
		}
		return []*Node{node}
	case *ast.CommClause:
		start, end := c.span(s)
		node := &Node{Kind: KindCase, StartLine: start, EndLine: end}
		node.Children = append(node.Children, c.stmts(s.Body)...)
		return []*Node{node}
	case *ast.BlockStmt:
		return c.stmts(s.List)
	case *ast.ReturnStmt:
		start, end := c.span(s)
		node := &Node{Kind: KindReturn, StartLine: start, EndLine: end}
		for _, res := range s.Results {
			node.Children = append(node.Children, c.expr(res)...)
		}
		return []*Node{node}
	case *ast.BranchStmt:
		if s.Tok == token.BREAK {
			start, end := c.span(s)
			return []*Node{{Kind: KindBreak, StartLine: start, EndLine: end}}
		}
		return nil
	case *ast.AssignStmt:
		return c.assign(s)
	case *ast.DeclStmt:
		if gd, ok := s.Decl.(*ast.GenDecl); ok {
			var out []*Node
			for _, spec := range gd.Specs {
				vs, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}
				for _, name := range vs.Names {
					start, end := c.span(vs)
					node := &Node{Kind: KindAssign, Name: name.Name, Value: "decl", StartLine: start, EndLine: end}
					for _, val := range vs.Values {
						node.Children = append(node.Children, c.expr(val)...)
					}
					out = append(out, node)
				}
			}
			return out
		}
		return nil
	case *ast.ExprStmt:
		return c.expr(s.X)
	case *ast.DeferStmt:
		return c.expr(s.Call)
	case *ast.GoStmt:
		return c.expr(s.Call)
	case *ast.IncDecStmt:
		if ident, ok := s.X.(*ast.Ident); ok {
			start, end := c.span(s)
			return []*Node{{Kind: KindAssign, Name: ident.Name, StartLine: start, EndLine: end}}
		}
		return nil
	case *ast.LabeledStmt:
		return c.stmt(s.Stmt)
	case *ast.SendStmt:
		var out []*Node
		out = append(out, c.expr(s.Chan)...)
		out = append(out, c.expr(s.Value)...)
		return out
	}
	return nil
}

func (c *goConverter) assign(s *ast.AssignStmt) []*Node {
	var out []*Node
	for i, lhs := range s.Lhs {
		ident, ok := lhs.(*ast.Ident)
		if !ok {
			// writes through selectors/indexes still count as writes
			// to the base identifier
			if base := baseIdent(lhs); base != "" {
				start, end := c.span(s)
				out = append(out, &Node{Kind: KindAssign, Name: base, StartLine: start, EndLine: end})
			}
			continue
		}
		if ident.Name == "_" {
			continue
		}
		start, end := c.span(s)
		node := &Node{Kind: KindAssign, Name: ident.Name, StartLine: start, EndLine: end}
		if s.Tok == token.DEFINE {
			node.Value = "decl"
		}
		if i == 0 {
			for _, rhs := range s.Rhs {
				node.Children = append(node.Children, c.expr(rhs)...)
			}
		}
		out = append(out, node)
	}
	return out
}

func (c *goConverter) expr(e ast.Expr) []*Node {
	switch x := e.(type) {
	case *ast.CallExpr:
		callee := calleePath(x.Fun)
		start, end := c.span(x)
		kind := KindCall
		if isAssertCall(callee) {
			kind = KindAssert
		}
		node := &Node{Kind: kind, Name: callee, StartLine: start, EndLine: end}
		for _, arg := range x.Args {
			node.Children = append(node.Children, c.expr(arg)...)
		}
		return []*Node{node}
	case *ast.BasicLit:
		start, end := c.span(x)
		name := "string"
		if x.Kind == token.INT || x.Kind == token.FLOAT || x.Kind == token.IMAG {
			name = "number"
		}
		return []*Node{{Kind: KindLiteral, Name: name, Value: x.Value, StartLine: start, EndLine: end}}
	case *ast.Ident:
		start, end := c.span(x)
		switch x.Name {
		case "true", "false":
			return []*Node{{Kind: KindLiteral, Name: "bool", Value: x.Name, StartLine: start, EndLine: end}}
		case "nil":
			return []*Node{{Kind: KindLiteral, Name: "nil", Value: "nil", StartLine: start, EndLine: end}}
		case "_":
			return nil
		}
		return []*Node{{Kind: KindIdent, Name: x.Name, StartLine: start, EndLine: end}}
	case *ast.SelectorExpr:
		start, end := c.span(x)
		return []*Node{{Kind: KindIdent, Name: calleePath(x), StartLine: start, EndLine: end}}
	case *ast.FuncLit:
		start, end := c.span(x)
		node := &Node{Kind: KindFunc, StartLine: start, EndLine: end}
		if x.Type.Params != nil {
			for _, field := range x.Type.Params.List {
				for _, name := range field.Names {
					node.Children = append(node.Children, &Node{Kind: KindParam, Name: name.Name, StartLine: c.line(name.Pos()), EndLine: c.line(name.End())})
				}
			}
		}
		if x.Body != nil {
			node.Children = append(node.Children, c.stmts(x.Body.List)...)
		}
		return []*Node{node}
	case *ast.BinaryExpr:
		var out []*Node
		out = append(out, c.expr(x.X)...)
		out = append(out, c.expr(x.Y)...)
		return out
	case *ast.UnaryExpr:
		return c.expr(x.X)
	case *ast.ParenExpr:
		return c.expr(x.X)
	case *ast.StarExpr:
		return c.expr(x.X)
	case *ast.IndexExpr:
		var out []*Node
		out = append(out, c.expr(x.X)...)
		out = append(out, c.expr(x.Index)...)
		return out
	case *ast.SliceExpr:
		var out []*Node
		out = append(out, c.expr(x.X)...)
		if x.Low != nil {
			out = append(out, c.expr(x.Low)...)
		}
		if x.High != nil {
			out = append(out, c.expr(x.High)...)
		}
		return out
	case *ast.CompositeLit:
		var out []*Node
		for _, elt := range x.Elts {
			out = append(out, c.expr(elt)...)
		}
		return out
	case *ast.KeyValueExpr:
		return c.expr(x.Value)
	case *ast.TypeAssertExpr:
		return c.expr(x.X)
	}
	return nil
}

// calleePath renders a callee expression as a dotted path, e.g.
// "time.Sleep" or "s.buf.Write".
func calleePath(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.SelectorExpr:
		base := calleePath(x.X)
		if base == "" {
			return x.Sel.Name
		}
		return base + "." + x.Sel.Name
	case *ast.ParenExpr:
		return calleePath(x.X)
	case *ast.StarExpr:
		return calleePath(x.X)
	case *ast.IndexExpr:
		return calleePath(x.X)
	case *ast.CallExpr:
		return calleePath(x.Fun)
	}
	return ""
}

// baseIdent returns the leftmost identifier of an lvalue expression.
func baseIdent(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.SelectorExpr:
		return baseIdent(x.X)
	case *ast.IndexExpr:
		return baseIdent(x.X)
	case *ast.StarExpr:
		return baseIdent(x.X)
	case *ast.ParenExpr:
		return baseIdent(x.X)
	}
	return ""
}

// typeName unwraps pointers and generics down to the base type name.
func typeName(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.StarExpr:
		return typeName(x.X)
	case *ast.IndexExpr:
		return typeName(x.X)
	case *ast.IndexListExpr:
		return typeName(x.X)
	case *ast.SelectorExpr:
		return x.Sel.Name
	}
	return ""
}

func isAssertCall(callee string) bool {
	if callee == "panic" {
		return true
	}
	last := callee
	if idx := strings.LastIndex(callee, "."); idx >= 0 {
		last = callee[idx+1:]
	}
	lower := strings.ToLower(last)
	return strings.HasPrefix(lower, "assert") ||
		strings.HasPrefix(lower, "require") ||
		strings.HasPrefix(lower, "must") ||
		strings.HasPrefix(lower, "verify")
}

// scanGoTokens produces the flat normalized token stream for
// duplication shingling. Comments and automatic semicolons are
// dropped.
func scanGoTokens(fset *token.FileSet, path string, content []byte) []Token {
	var s scanner.Scanner
	file := fset.AddFile(path, fset.Base(), len(content))
	s.Init(file, content, nil, 0)

	var tokens []Token
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		if tok == token.COMMENT {
			continue
		}
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}
		line := fset.Position(pos).Line

		var t Token
		switch {
		case tok == token.IDENT:
			t = Token{Kind: TokenIdent, Text: lit, Line: line}
		case tok == token.INT || tok == token.FLOAT || tok == token.IMAG:
			t = Token{Kind: TokenNumber, Text: lit, Line: line}
		case tok == token.STRING || tok == token.CHAR:
			t = Token{Kind: TokenString, Text: lit, Line: line}
		case tok.IsKeyword():
			t = Token{Kind: TokenKeyword, Text: tok.String(), Line: line}
		default:
			text := lit
			if text == "" {
				text = tok.String()
			}
			t = Token{Kind: TokenPunct, Text: text, Line: line}
		}
		tokens = append(tokens, t)
	}
	return tokens
}

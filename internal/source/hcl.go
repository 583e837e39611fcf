package source

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

func init() {
	RegisterAdapter(&hclAdapter{})
}

// hclAdapter binds HCL configuration (Terraform and friends) via the
// native syntax API, which exposes blocks and attributes without a
// schema.
type hclAdapter struct{}

func (a *hclAdapter) Language() string { return "HCL" }

func (a *hclAdapter) Parse(path string, content []byte) (*Node, []Token, error) {
	file, diags := hclsyntax.ParseConfig(content, path, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, nil, fmt.Errorf("hcl: %s", diags.Error())
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, nil, fmt.Errorf("hcl: unexpected body type %T", file.Body)
	}

	root := &Node{
		Kind:      KindFile,
		Name:      path,
		StartLine: body.SrcRange.Start.Line,
		EndLine:   body.EndRange.End.Line,
	}
	root.Children = hclBody(body, true)

	tokens, err := lexHCLTokens(path, content)
	if err != nil {
		return nil, nil, err
	}
	return root, tokens, nil
}

// hclBody converts a body's attributes and blocks. Attributes come
// first in source order, then blocks, matching hclsyntax's own split.
func hclBody(body *hclsyntax.Body, topLevel bool) []*Node {
	var out []*Node
	for _, attr := range body.Attributes {
		node := &Node{
			Kind:      KindAssign,
			Name:      attr.Name,
			StartLine: attr.SrcRange.Start.Line,
			EndLine:   attr.SrcRange.End.Line,
		}
		node.Children = hclExpr(attr.Expr)
		out = append(out, node)
	}
	for _, block := range body.Blocks {
		out = append(out, hclBlock(block, topLevel))
	}

	// hclsyntax stores attributes in a map; restore source order
	sortNodesByLine(out)
	return out
}

func hclBlock(block *hclsyntax.Block, topLevel bool) *Node {
	start := block.TypeRange.Start.Line
	end := block.CloseBraceRange.End.Line
	name := block.Type
	if len(block.Labels) > 0 {
		name = block.Type + "." + strings.Join(block.Labels, ".")
	}

	var kind NodeKind
	switch {
	case block.Type == "dynamic":
		// dynamic blocks iterate
		kind = KindFor
	case block.Type == "precondition" || block.Type == "postcondition" || block.Type == "validation" || block.Type == "check":
		kind = KindAssert
	case topLevel:
		// top-level blocks are the class-like units of HCL
		kind = KindTypeDecl
	default:
		kind = KindBlock
	}

	node := &Node{Kind: kind, Name: name, StartLine: start, EndLine: end}
	node.Children = hclBody(block.Body, false)

	if kind == KindTypeDecl {
		// expose attributes as fields so member counting works the
		// same way it does for struct types
		for _, child := range node.Children {
			if child.Kind == KindAssign {
				child.Kind = KindField
			}
		}
	}
	return node
}

func hclExpr(expr hclsyntax.Expression) []*Node {
	switch x := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return []*Node{hclLiteral(x.Val, x.Range())}
	case *hclsyntax.TemplateExpr:
		if x.IsStringLiteral() {
			val, _ := x.Value(nil)
			return []*Node{hclLiteral(val, x.Range())}
		}
		var out []*Node
		for _, part := range x.Parts {
			out = append(out, hclExpr(part)...)
		}
		return out
	case *hclsyntax.TemplateWrapExpr:
		return hclExpr(x.Wrapped)
	case *hclsyntax.ScopeTraversalExpr:
		r := x.Range()
		return []*Node{{Kind: KindIdent, Name: traversalPath(x.Traversal), StartLine: r.Start.Line, EndLine: r.End.Line}}
	case *hclsyntax.RelativeTraversalExpr:
		return hclExpr(x.Source)
	case *hclsyntax.FunctionCallExpr:
		r := x.Range()
		node := &Node{Kind: KindCall, Name: x.Name, StartLine: r.Start.Line, EndLine: r.End.Line}
		for _, arg := range x.Args {
			node.Children = append(node.Children, hclExpr(arg)...)
		}
		return []*Node{node}
	case *hclsyntax.ConditionalExpr:
		r := x.Range()
		node := &Node{Kind: KindIf, StartLine: r.Start.Line, EndLine: r.End.Line}
		node.Children = append(node.Children, hclExpr(x.Condition)...)
		node.Children = append(node.Children, hclExpr(x.TrueResult)...)
		node.Children = append(node.Children, hclExpr(x.FalseResult)...)
		return []*Node{node}
	case *hclsyntax.ForExpr:
		r := x.Range()
		node := &Node{Kind: KindFor, Value: "range", StartLine: r.Start.Line, EndLine: r.End.Line}
		node.Children = append(node.Children, hclExpr(x.CollExpr)...)
		node.Children = append(node.Children, hclExpr(x.ValExpr)...)
		if x.CondExpr != nil {
			node.Children = append(node.Children, hclExpr(x.CondExpr)...)
		}
		return []*Node{node}
	case *hclsyntax.BinaryOpExpr:
		var out []*Node
		out = append(out, hclExpr(x.LHS)...)
		out = append(out, hclExpr(x.RHS)...)
		return out
	case *hclsyntax.UnaryOpExpr:
		return hclExpr(x.Val)
	case *hclsyntax.ParenthesesExpr:
		return hclExpr(x.Expression)
	case *hclsyntax.ObjectConsExpr:
		var out []*Node
		for _, item := range x.Items {
			out = append(out, hclExpr(item.ValueExpr)...)
		}
		return out
	case *hclsyntax.ObjectConsKeyExpr:
		return hclExpr(x.Wrapped)
	case *hclsyntax.TupleConsExpr:
		var out []*Node
		for _, e := range x.Exprs {
			out = append(out, hclExpr(e)...)
		}
		return out
	case *hclsyntax.IndexExpr:
		var out []*Node
		out = append(out, hclExpr(x.Collection)...)
		out = append(out, hclExpr(x.Key)...)
		return out
	case *hclsyntax.SplatExpr:
		return hclExpr(x.Source)
	}
	return nil
}

func hclLiteral(val cty.Value, r hcl.Range) *Node {
	node := &Node{Kind: KindLiteral, StartLine: r.Start.Line, EndLine: r.End.Line}
	if !val.IsKnown() || val.IsNull() {
		node.Name = "nil"
		node.Value = "null"
		return node
	}
	switch val.Type() {
	case cty.Number:
		node.Name = "number"
		node.Value = val.AsBigFloat().Text('f', -1)
	case cty.String:
		node.Name = "string"
		node.Value = fmt.Sprintf("%q", val.AsString())
	case cty.Bool:
		node.Name = "bool"
		if val.True() {
			node.Value = "true"
		} else {
			node.Value = "false"
		}
	default:
		node.Name = "string"
		node.Value = val.GoString()
	}
	return node
}

func traversalPath(t hcl.Traversal) string {
	var parts []string
	for _, step := range t {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			parts = append(parts, s.Name)
		case hcl.TraverseAttr:
			parts = append(parts, s.Name)
		}
	}
	return strings.Join(parts, ".")
}

func sortNodesByLine(nodes []*Node) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && nodes[j].StartLine < nodes[j-1].StartLine; j-- {
			nodes[j], nodes[j-1] = nodes[j-1], nodes[j]
		}
	}
}

func lexHCLTokens(path string, content []byte) ([]Token, error) {
	raw, diags := hclsyntax.LexConfig(content, path, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("hcl lex: %s", diags.Error())
	}

	var tokens []Token
	for _, t := range raw {
		line := t.Range.Start.Line
		switch t.Type {
		case hclsyntax.TokenEOF, hclsyntax.TokenNewline, hclsyntax.TokenComment:
			continue
		case hclsyntax.TokenIdent:
			text := string(t.Bytes)
			if text == "true" || text == "false" || text == "null" {
				tokens = append(tokens, Token{Kind: TokenKeyword, Text: text, Line: line})
				continue
			}
			tokens = append(tokens, Token{Kind: TokenIdent, Text: text, Line: line})
		case hclsyntax.TokenNumberLit:
			tokens = append(tokens, Token{Kind: TokenNumber, Text: string(t.Bytes), Line: line})
		case hclsyntax.TokenQuotedLit, hclsyntax.TokenStringLit:
			tokens = append(tokens, Token{Kind: TokenString, Text: string(t.Bytes), Line: line})
		case hclsyntax.TokenOQuote, hclsyntax.TokenCQuote:
			continue
		default:
			tokens = append(tokens, Token{Kind: TokenPunct, Text: string(t.Bytes), Line: line})
		}
	}
	return tokens, nil
}

// Package source turns raw files into language-neutral syntax trees and
// token streams. Detectors operate only on the neutral form, so adding a
// language binding never touches detector code.
package source

import (
	"crypto/sha256"
	"encoding/hex"
)

// NodeKind classifies a neutral syntax tree node.
type NodeKind string

const (
	KindFile      NodeKind = "file"
	KindImport    NodeKind = "import"
	KindConstDecl NodeKind = "const"
	KindVarDecl   NodeKind = "var"
	KindTypeDecl  NodeKind = "type"
	KindField     NodeKind = "field"
	KindFunc      NodeKind = "func"
	KindParam     NodeKind = "param"
	KindBlock     NodeKind = "block"
	KindIf        NodeKind = "if"
	KindFor       NodeKind = "for"
	KindSwitch    NodeKind = "switch"
	KindCase      NodeKind = "case"
	KindCall      NodeKind = "call"
	KindAssign    NodeKind = "assign"
	KindReturn    NodeKind = "return"
	KindBreak     NodeKind = "break"
	KindLiteral   NodeKind = "literal"
	KindIdent     NodeKind = "ident"
	KindAssert    NodeKind = "assert"
)

// Node is one vertex of the neutral tree. Meaning of Name and Value
// depends on Kind:
//
//	func:    Name = function name, Value = receiver/owner type (methods)
//	call:    Name = dotted callee path ("time.Sleep", "append")
//	assign:  Name = target identifier, Value = "decl" when it declares
//	literal: Name = "number" | "string" | "bool", Value = literal text
//	for:     Value = "range" | "conditional" | "unconditional"
//	ident:   Name = referenced identifier
type Node struct {
	Kind      NodeKind
	Name      string
	Value     string
	StartLine int
	EndLine   int
	Children  []*Node
}

// Walk visits n and all descendants in depth-first order. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Funcs returns all function nodes in declaration order, including
// nested ones.
func (n *Node) Funcs() []*Node {
	var out []*Node
	n.Walk(func(node *Node) bool {
		if node.Kind == KindFunc {
			out = append(out, node)
		}
		return true
	})
	return out
}

// CountKind returns the number of descendants (including n) of the
// given kind.
func (n *Node) CountKind(kind NodeKind) int {
	count := 0
	n.Walk(func(node *Node) bool {
		if node.Kind == kind {
			count++
		}
		return true
	})
	return count
}

// Lines returns the inclusive line span length of the node.
func (n *Node) Lines() int {
	if n.EndLine < n.StartLine {
		return 0
	}
	return n.EndLine - n.StartLine + 1
}

// DisplayName renders a function node for messages: methods as
// "Type.Name", anonymous functions as "(anonymous)".
func (n *Node) DisplayName() string {
	name := n.Name
	if name == "" {
		name = "(anonymous)"
	}
	if n.Value != "" && n.Kind == KindFunc {
		name = n.Value + "." + name
	}
	return name
}

// IsStatement reports whether the kind counts as one executable
// statement when measuring density ratios.
func IsStatement(kind NodeKind) bool {
	switch kind {
	case KindAssign, KindCall, KindAssert, KindReturn, KindIf, KindFor, KindSwitch, KindBreak:
		return true
	}
	return false
}

// TokenKind classifies a normalized token.
type TokenKind string

const (
	TokenIdent   TokenKind = "ident"
	TokenNumber  TokenKind = "number"
	TokenString  TokenKind = "string"
	TokenKeyword TokenKind = "keyword"
	TokenPunct   TokenKind = "punct"
)

// Token is one element of a unit's flat token stream. Comments and
// whitespace never appear; the stream feeds duplication shingling.
type Token struct {
	Kind TokenKind
	Text string
	Line int
}

// Normalized renders the token with identifiers and literal values
// erased, so two spans that differ only in naming hash the same.
func (t Token) Normalized() string {
	switch t.Kind {
	case TokenIdent:
		return "$ID"
	case TokenNumber:
		return "$NUM"
	case TokenString:
		return "$STR"
	}
	return t.Text
}

// Status reports whether a unit parsed.
type Status int

const (
	StatusOK Status = iota
	StatusParseError
)

// Reasons for StatusParseError units. Grammar errors carry the parser
// message instead.
const (
	ReasonUnsupported = "unsupported"
	ReasonTimeout     = "timeout"
)

// Unit is one file after parsing. Immutable once returned; detectors
// receive it read-only. Tree and Tokens are nil unless Status is
// StatusOK.
type Unit struct {
	Path        string
	ContentHash string
	Lang        string
	Tree        *Node
	Tokens      []Token
	Status      Status
	Reason      string
}

// OK reports whether the unit parsed and may feed detectors.
func (u *Unit) OK() bool {
	return u.Status == StatusOK
}

// HashContent returns the sha256 hex digest used as the unit's cache
// identity.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// NewErrorUnit builds a parse-failed unit with the given reason.
func NewErrorUnit(path, lang string, content []byte, reason string) *Unit {
	return &Unit{
		Path:        path,
		ContentHash: HashContent(content),
		Lang:        lang,
		Status:      StatusParseError,
		Reason:      reason,
	}
}

package xlcalc

import (
	"strconv"
	"strings"
)

// Node is a parsed formula expression. The set of node types is closed:
// only types in this file implement it.
type Node interface {
	// String returns canonical formula text for the node (without "=").
	String() string
	node()
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
}

// TextLit is a quoted string literal.
type TextLit struct {
	Value string
}

// BoolLit is TRUE or FALSE.
type BoolLit struct {
	Value bool
}

// RefNode is a cell, range, or cross-sheet reference.
type RefNode struct {
	Ref Reference
}

// UnaryExpr is a prefix + or -.
type UnaryExpr struct {
	Op      string
	Operand Node
}

// BinaryExpr is an infix operator application.
type BinaryExpr struct {
	Op    string
	Left  Node
	Right Node
}

// CallExpr is a call to a library function.
type CallExpr struct {
	Name string // upper-cased
	Args []Node
}

// ParenExpr keeps explicit grouping so formulas print back as written.
type ParenExpr struct {
	Inner Node
}

func (*NumberLit) node()  {}
func (*TextLit) node()    {}
func (*BoolLit) node()    {}
func (*RefNode) node()    {}
func (*UnaryExpr) node()  {}
func (*BinaryExpr) node() {}
func (*CallExpr) node()   {}
func (*ParenExpr) node()  {}

func (n *NumberLit) String() string {
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

func (n *TextLit) String() string {
	return `"` + strings.ReplaceAll(n.Value, `"`, `""`) + `"`
}

func (n *BoolLit) String() string {
	if n.Value {
		return "TRUE"
	}
	return "FALSE"
}

func (n *RefNode) String() string {
	return n.Ref.String()
}

func (n *UnaryExpr) String() string {
	return n.Op + n.Operand.String()
}

func (n *BinaryExpr) String() string {
	return n.Left.String() + n.Op + n.Right.String()
}

func (n *CallExpr) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Name + "(" + strings.Join(args, ",") + ")"
}

func (n *ParenExpr) String() string {
	return "(" + n.Inner.String() + ")"
}

// References returns every reference in the tree, left to right.
func References(n Node) []Reference {
	var refs []Reference
	walk(n, func(node Node) {
		if r, ok := node.(*RefNode); ok {
			refs = append(refs, r.Ref)
		}
	})
	return refs
}

// walk visits n and its children depth-first, left to right.
func walk(n Node, visit func(Node)) {
	if n == nil {
		return
	}
	visit(n)
	switch t := n.(type) {
	case *UnaryExpr:
		walk(t.Operand, visit)
	case *BinaryExpr:
		walk(t.Left, visit)
		walk(t.Right, visit)
	case *CallExpr:
		for _, a := range t.Args {
			walk(a, visit)
		}
	case *ParenExpr:
		walk(t.Inner, visit)
	}
}

// renameSheetRefs rewrites references to sheet from into to, in place.
// It reports whether any reference changed.
func renameSheetRefs(n Node, from, to string) bool {
	changed := false
	walk(n, func(node Node) {
		if r, ok := node.(*RefNode); ok && r.Ref.Sheet == from {
			r.Ref.Sheet = to
			changed = true
		}
	})
	return changed
}

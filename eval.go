package xlcalc

import (
	"errors"
	"math"
	"strings"
)

// evalEnv supplies what the evaluator needs from the workbook: the sheet
// the formula lives on, reference expansion, and the current value of any
// cell.
type evalEnv struct {
	sheet    string
	resolver Resolver
	value    func(CellKey) Value
}

// evaluateFormula evaluates a formula's root node. A bare reference to an
// empty cell displays as 0.
func evaluateFormula(n Node, env evalEnv) Value {
	v := evaluate(n, env)
	if v.IsEmpty() {
		return Number(0)
	}
	return v
}

// evaluate computes the scalar value of n. Operands are evaluated left to
// right and the first error wins.
func evaluate(n Node, env evalEnv) Value {
	switch t := n.(type) {
	case *NumberLit:
		return Number(t.Value)
	case *TextLit:
		return Text(t.Value)
	case *BoolLit:
		return Bool(t.Value)
	case *ParenExpr:
		return evaluate(t.Inner, env)
	case *RefNode:
		return evalScalarRef(t.Ref, env)
	case *UnaryExpr:
		return evalUnary(t, env)
	case *BinaryExpr:
		return evalBinary(t, env)
	case *CallExpr:
		return evalCall(t, env)
	default:
		panic("xlcalc: unhandled node type")
	}
}

// expandValues resolves ref and returns the values of every cell it covers.
func expandValues(ref Reference, env evalEnv) ([]Value, Value, bool) {
	keys, err := env.resolver.Expand(ref, env.sheet)
	if err != nil {
		return nil, refError(err), false
	}
	values := make([]Value, len(keys))
	for i, k := range keys {
		values[i] = env.value(k)
	}
	return values, Value{}, true
}

func refError(err error) Value {
	if errors.Is(err, ErrSheetNotFound) || errors.Is(err, errRangeTooLarge) {
		return Error(ErrorRef)
	}
	return Error(ErrorValue)
}

// evalScalarRef reads a reference in a non-aggregating position. Anything
// wider than one cell is #VALUE.
func evalScalarRef(ref Reference, env evalEnv) Value {
	if ref.Rows() != 1 || ref.Cols() != 1 {
		if _, err := env.resolver.Expand(ref, env.sheet); err != nil {
			return refError(err)
		}
		return Error(ErrorValue)
	}
	values, errVal, ok := expandValues(ref, env)
	if !ok {
		return errVal
	}
	return values[0]
}

func evalUnary(u *UnaryExpr, env evalEnv) Value {
	v := evaluate(u.Operand, env)
	n, errVal, ok := toNumber(v)
	if !ok {
		return errVal
	}
	if u.Op == "-" {
		return Number(-n)
	}
	return Number(n)
}

func evalBinary(b *BinaryExpr, env evalEnv) Value {
	left := evaluate(b.Left, env)
	if left.IsError() {
		return left
	}
	right := evaluate(b.Right, env)
	if right.IsError() {
		return right
	}

	switch b.Op {
	case "&":
		return Text(left.String() + right.String())
	case "=", "<>", "<", "<=", ">", ">=":
		return Bool(compareOp(b.Op, compareValues(left, right)))
	}

	l, errVal, ok := toNumber(left)
	if !ok {
		return errVal
	}
	r, errVal, ok := toNumber(right)
	if !ok {
		return errVal
	}

	switch b.Op {
	case "+":
		return normalizeNumber(l + r)
	case "-":
		return normalizeNumber(l - r)
	case "*":
		return normalizeNumber(l * r)
	case "/":
		if r == 0 {
			return Error(ErrorDiv0)
		}
		return normalizeNumber(l / r)
	case "^":
		if l == 0 && r < 0 {
			return Error(ErrorDiv0)
		}
		return normalizeNumber(math.Pow(l, r))
	}
	return Error(ErrorValue)
}

func compareOp(op string, cmp int) bool {
	switch op {
	case "=":
		return cmp == 0
	case "<>":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	default:
		return cmp >= 0
	}
}

// kindRank orders values of different kinds: numbers sort before text,
// text before booleans.
func kindRank(k Kind) int {
	switch k {
	case KindNumber:
		return 0
	case KindText:
		return 1
	default:
		return 2
	}
}

// compareValues returns -1, 0 or 1. An empty operand takes the zero value
// of the other operand's kind; text compares case-insensitively.
func compareValues(a, b Value) int {
	if a.IsEmpty() && b.IsEmpty() {
		return 0
	}
	if a.IsEmpty() {
		a = zeroOf(b.Kind)
	}
	if b.IsEmpty() {
		b = zeroOf(a.Kind)
	}
	if a.Kind != b.Kind {
		return cmpInt(kindRank(a.Kind), kindRank(b.Kind))
	}
	switch a.Kind {
	case KindNumber:
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		}
		return 0
	case KindText:
		return strings.Compare(strings.ToLower(a.Str), strings.ToLower(b.Str))
	case KindBool:
		return cmpInt(boolInt(a.Bool), boolInt(b.Bool))
	}
	return 0
}

func zeroOf(k Kind) Value {
	switch k {
	case KindText:
		return Text("")
	case KindBool:
		return Bool(false)
	default:
		return Number(0)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func evalCall(c *CallExpr, env evalEnv) Value {
	fn, ok := functions[c.Name]
	if !ok {
		return Error(ErrorParse)
	}
	if !fn.acceptsArgs(len(c.Args)) {
		return Error(ErrorValue)
	}
	if fn.lazy {
		return evalIf(c, env)
	}

	args := make([]argument, 0, len(c.Args))
	for _, a := range c.Args {
		if r, isRef := unwrapParens(a).(*RefNode); isRef {
			values, errVal, ok := expandValues(r.Ref, env)
			if !ok {
				return errVal
			}
			args = append(args, argument{values: values, ref: true})
			continue
		}
		args = append(args, argument{values: []Value{evaluate(a, env)}})
	}
	return fn.call(args)
}

// unwrapParens strips grouping parentheses around n.
func unwrapParens(n Node) Node {
	for {
		p, ok := n.(*ParenExpr)
		if !ok {
			return n
		}
		n = p.Inner
	}
}

// evalIf evaluates the condition, then only the chosen branch.
func evalIf(c *CallExpr, env evalEnv) Value {
	cond := evaluate(c.Args[0], env)
	b, errVal, ok := toBool(cond)
	if !ok {
		return errVal
	}
	if b {
		return evaluate(c.Args[1], env)
	}
	if len(c.Args) < 3 {
		return Bool(false)
	}
	return evaluate(c.Args[2], env)
}

package xlcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, formula string) Node {
	t.Helper()
	n, err := ParseFormula(formula)
	require.NoError(t, err, formula)
	return n
}

func TestParseFormula_Literals(t *testing.T) {
	assert.Equal(t, &NumberLit{Value: 10.5}, mustParse(t, "=10.50"))
	assert.Equal(t, &TextLit{Value: "abc"}, mustParse(t, `="abc"`))
	assert.Equal(t, &BoolLit{Value: true}, mustParse(t, "=TRUE"))
	assert.Equal(t, &BoolLit{Value: false}, mustParse(t, "=false"))
}

func TestParseFormula_Precedence(t *testing.T) {
	n := mustParse(t, "=1+2*3")
	bin, ok := n.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
	right, ok := bin.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", right.Op)
	assert.Equal(t, "1+2*3", n.String())
}

func TestParseFormula_LeftAssociative(t *testing.T) {
	n := mustParse(t, "=10-4-3")
	bin, ok := n.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "-", bin.Op)
	left, ok := bin.Left.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "10-4", left.String())
}

func TestParseFormula_PowerIsLeftAssociative(t *testing.T) {
	n := mustParse(t, "=2^3^2")
	bin, ok := n.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "^", bin.Op)
	left, ok := bin.Left.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "2^3", left.String())
}

func TestParseFormula_ComparisonBindsLoosest(t *testing.T) {
	n := mustParse(t, "=A1+1>=B1&\"x\"")
	bin, ok := n.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ">=", bin.Op)
	right, ok := bin.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "&", right.Op)
}

func TestParseFormula_Parentheses(t *testing.T) {
	n := mustParse(t, "=(1+2)*3")
	bin, ok := n.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", bin.Op)
	_, ok = bin.Left.(*ParenExpr)
	assert.True(t, ok)
	assert.Equal(t, "(1+2)*3", n.String())
}

func TestParseFormula_Unary(t *testing.T) {
	n := mustParse(t, "=-A1")
	u, ok := n.(*UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, "-", u.Op)
	assert.Equal(t, "-A1", n.String())
}

func TestParseFormula_References(t *testing.T) {
	n := mustParse(t, "=SUM(D2:D3)+Sales!D4+'Q1 Sales'!B2")
	refs := References(n)
	require.Len(t, refs, 3)
	assert.Equal(t, "D2:D3", refs[0].String())
	assert.Equal(t, "Sales", refs[1].Sheet)
	assert.Equal(t, "Q1 Sales", refs[2].Sheet)
	assert.Equal(t, "SUM(D2:D3)+Sales!D4+'Q1 Sales'!B2", n.String())
}

func TestParseFormula_QuotedSheetNames(t *testing.T) {
	tests := []struct {
		formula string
		sheet   string
		printed string
	}{
		{"='Q1 Sales'!B2", "Q1 Sales", "'Q1 Sales'!B2"},
		{"=SUM('Q1 Sales'!B2:B3)", "Q1 Sales", "SUM('Q1 Sales'!B2:B3)"},
		{"='It''s'!A1", "It's", "'It''s'!A1"},
		{"='A1'!C3*2", "A1", "'A1'!C3*2"},
		{"=Sales!$D$4", "Sales", "Sales!D4"},
	}
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			n := mustParse(t, tt.formula)
			refs := References(n)
			require.Len(t, refs, 1)
			assert.Equal(t, tt.sheet, refs[0].Sheet)
			assert.Equal(t, tt.printed, n.String())

			again := mustParse(t, "="+n.String())
			assert.Equal(t, refs, References(again))
		})
	}
}

func TestParseFormula_OutOfGridReference(t *testing.T) {
	for _, formula := range []string{"=A1048577", "=ZZZ1+1", "=SUM(A1:XFE1)"} {
		t.Run(formula, func(t *testing.T) {
			_, err := ParseFormula(formula)
			assert.Error(t, err)
		})
	}
	mustParse(t, "=XFD1048576")
}

func TestParseFormula_FunctionCall(t *testing.T) {
	n := mustParse(t, "=average(b2:b3, 5)")
	call, ok := n.(*CallExpr)
	require.True(t, ok)
	assert.Equal(t, "AVERAGE", call.Name)
	require.Len(t, call.Args, 2)
	ref, ok := call.Args[0].(*RefNode)
	require.True(t, ok)
	assert.Equal(t, "B2:B3", ref.Ref.String())
	assert.Equal(t, "AVERAGE(B2:B3,5)", n.String())
}

func TestParseFormula_NestedCalls(t *testing.T) {
	n := mustParse(t, `=IF(SUM(A1:A3)>10,"big",CONCAT("small ",A1))`)
	call, ok := n.(*CallExpr)
	require.True(t, ok)
	assert.Equal(t, "IF", call.Name)
	require.Len(t, call.Args, 3)
	_, ok = call.Args[2].(*CallExpr)
	assert.True(t, ok)
}

func TestParseFormula_EmptyArgumentList(t *testing.T) {
	n := mustParse(t, "=SUM()")
	call, ok := n.(*CallExpr)
	require.True(t, ok)
	assert.Empty(t, call.Args)
}

func TestParseFormula_Errors(t *testing.T) {
	cases := []string{
		"1+2",
		"=",
		"=(1+2",
		"=1*",
		"=FOO(1)",
		"=Foo",
		"=SUM(1,2",
		"=10%",
	}
	for _, formula := range cases {
		t.Run(formula, func(t *testing.T) {
			n, err := ParseFormula(formula)
			require.Error(t, err)
			assert.Nil(t, n)
			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestParseFormula_UnknownFunctionMessage(t *testing.T) {
	_, err := ParseFormula("=MEDIAN(A1:A3)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown function")
}

func TestRenameSheetRefs(t *testing.T) {
	n := mustParse(t, "=Sales!D4+Other!A1+B2")
	assert.True(t, renameSheetRefs(n, "Sales", "Q1 Sales"))
	assert.Equal(t, "'Q1 Sales'!D4+Other!A1+B2", n.String())
	assert.False(t, renameSheetRefs(n, "Missing", "X"))
}

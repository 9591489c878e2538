package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleFunctionWithArithmetic(t *testing.T) {
	mod, err := Parse("def add(a, b):\n    return a + b * 2\n")
	require.NoError(t, err)
	require.Len(t, mod.Funcs, 1)

	f := mod.Funcs[0]
	assert.Equal(t, "add", f.Name)
	assert.Equal(t, []string{"a", "b"}, f.Params)
	require.Len(t, f.Body, 1)

	ret, ok := f.Body[0].(*ReturnStmt)
	require.True(t, ok)
	bin, ok := ret.Value.(*BinExpr)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)

	rhs, ok := bin.Right.(*BinExpr)
	require.True(t, ok)
	assert.Equal(t, "*", rhs.Op)
}

func TestParseRespectsOperatorPrecedence(t *testing.T) {
	mod, err := Parse("def f(a, b, c):\n    return a + b * c\n")
	require.NoError(t, err)
	ret := mod.Funcs[0].Body[0].(*ReturnStmt)
	top := ret.Value.(*BinExpr)
	assert.Equal(t, "+", top.Op)
	_, leftIsIdent := top.Left.(*Ident)
	assert.True(t, leftIsIdent)
	_, rightIsMul := top.Right.(*BinExpr)
	assert.True(t, rightIsMul)
}

func TestParseAssignmentAndCall(t *testing.T) {
	mod, err := Parse("def f(a):\n    x = g(a, 1)\n    return x\n")
	require.NoError(t, err)
	body := mod.Funcs[0].Body
	require.Len(t, body, 2)

	assign, ok := body[0].(*AssignStmt)
	require.True(t, ok)
	assert.Equal(t, "x", assign.Target)
	call, ok := assign.Value.(*CallExpr)
	require.True(t, ok)
	assert.Equal(t, "g", call.Callee)
	assert.Len(t, call.Args, 2)
}

func TestParseTupleLiteral(t *testing.T) {
	mod, err := Parse("def f(a, b):\n    return (a, b)\n")
	require.NoError(t, err)
	ret := mod.Funcs[0].Body[0].(*ReturnStmt)
	tuple, ok := ret.Value.(*TupleExpr)
	require.True(t, ok)
	assert.Len(t, tuple.Elems, 2)
}

func TestParseIfElse(t *testing.T) {
	mod, err := Parse("def f(a):\n    if a > 0:\n        x = 1\n    else:\n        x = 2\n    return x\n")
	require.NoError(t, err)
	body := mod.Funcs[0].Body
	require.Len(t, body, 2)

	ifStmt, ok := body[0].(*IfStmt)
	require.True(t, ok)
	cond, ok := ifStmt.Cond.(*BinExpr)
	require.True(t, ok)
	assert.Equal(t, ">", cond.Op)
	require.Len(t, ifStmt.Then, 1)
	require.Len(t, ifStmt.Else, 1)
}

func TestParseUnaryOperators(t *testing.T) {
	mod, err := Parse("def f(a):\n    return not a\n")
	require.NoError(t, err)
	ret := mod.Funcs[0].Body[0].(*ReturnStmt)
	un, ok := ret.Value.(*UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, "not", un.Op)
}

func TestParseRejectsMissingColon(t *testing.T) {
	_, err := Parse("def f(a)\n    return a\n")
	assert.Error(t, err)
}

package ir_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifj21-compiler/ifjc/lang/ir"
)

func TestProgramStreamOrderAndWrapping(t *testing.T) {
	e := ir.New()
	e.SetActive(ir.Prologue)
	e.Emit("LABEL $prologue_marker")
	e.SetActive(ir.Functions)
	e.Emit("LABEL $func_marker")
	e.SetActive(ir.Main)
	e.Emit("LABEL $main_marker")

	out := e.Program()
	require.True(t, strings.HasPrefix(out, ".IFJcode21\n"))

	prologueIdx := strings.Index(out, "$prologue_marker")
	funcIdx := strings.Index(out, "$func_marker")
	mainMarkerIdx := strings.Index(out, "$main_marker")
	mainLabelIdx := strings.Index(out, "LABEL $$MAIN\n")
	endLabelIdx := strings.Index(out, "LABEL $$MAIN$end")

	assert.True(t, prologueIdx < funcIdx)
	assert.True(t, funcIdx < mainLabelIdx)
	assert.True(t, mainLabelIdx < mainMarkerIdx)
	assert.True(t, mainMarkerIdx < endLabelIdx)
	assert.True(t, strings.HasSuffix(out, "CLEARS\n"))
}

func TestDefVarDuplicateIsInternalError(t *testing.T) {
	e := ir.New()
	e.DefVar(1, "x")
	assert.Panics(t, func() { e.DefVar(1, "x") })
}

func TestDefVarHoistsOutOfLoop(t *testing.T) {
	e := ir.New()
	e.SetActive(ir.Main)
	e.Emit("LABEL $before_loop")
	e.PushLoop()
	e.Emit(ir.WhileHeaderLabel(1))
	e.DefVar(1, "hoisted")
	e.Emit("JUMP $while$1")
	e.PopLoop()

	out := e.Program()
	defIdx := strings.Index(out, "DEFVAR LF@%1%hoisted")
	headerIdx := strings.Index(out, ir.WhileHeaderLabel(1))
	require.NotEqual(t, -1, defIdx)
	require.NotEqual(t, -1, headerIdx)
	assert.True(t, defIdx < headerIdx, "DEFVAR must be hoisted above the loop header")
}

func TestNestedLoopsShareOutermostHoistPoint(t *testing.T) {
	e := ir.New()
	e.PushLoop()
	e.Emit("LABEL $outer")
	e.PushLoop()
	e.DefVar(2, "innervar")
	e.PopLoop()
	e.PopLoop()

	out := e.Program()
	defIdx := strings.Index(out, "DEFVAR LF@%2%innervar")
	outerIdx := strings.Index(out, "LABEL $outer")
	assert.True(t, defIdx < outerIdx)
}

func TestLabelSynthesis(t *testing.T) {
	assert.Equal(t, "$foo", ir.FuncEntryLabel("foo"))
	assert.Equal(t, "$foo$end", ir.FuncExitLabel("foo"))
	assert.Equal(t, "$if$3$1", ir.IfBranchLabel(3, 1))
	assert.Equal(t, "$if$3$end", ir.IfEndLabel(3))
	assert.Equal(t, "$while$5", ir.WhileHeaderLabel(5))
	assert.Equal(t, "$repeat$5", ir.RepeatHeaderLabel(5))
	assert.Equal(t, "$end$5", ir.LoopEndLabel(5))
	assert.Equal(t, "$for$7", ir.ForHeaderLabel(7))
	assert.Equal(t, "$for$7$body", ir.ForBodyLabel(7))
	assert.Equal(t, "$for$7$step_le", ir.ForStepLeLabel(7))
}

func TestLocalVarNaming(t *testing.T) {
	assert.Equal(t, "LF@%42%x", ir.LocalVar(42, "x"))
}

func TestQuoteStringEscapesControlAndSpecialChars(t *testing.T) {
	assert.Equal(t, "string@hi", ir.QuoteString("hi"))
	assert.Equal(t, "string@a\\032b", ir.QuoteString("a b"))
	assert.Equal(t, "string@\\035", ir.QuoteString("#"))
	assert.Equal(t, "string@\\092", ir.QuoteString("\\"))
}

func TestLiterals(t *testing.T) {
	assert.Equal(t, "int@42", ir.IntLiteral(42))
	assert.Equal(t, "bool@true", ir.BoolLiteral(true))
	assert.Equal(t, "bool@false", ir.BoolLiteral(false))
	assert.Equal(t, "nil@nil", ir.NilLiteral)
}

package symstack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifj21-compiler/ifjc/lang/symstack"
	"github.com/ifj21-compiler/ifjc/lang/symtab"
)

func TestNewHasGlobalFrame(t *testing.T) {
	s := symstack.New()
	require.Equal(t, 1, s.Len())
	kind, level, _ := s.ScopeInfo()
	assert.Equal(t, symstack.Global, kind)
	assert.Equal(t, uint(0), level)
}

func TestUniqueIDsAreMonotonicAndNeverReused(t *testing.T) {
	s := symstack.New()
	f1 := s.Push(symstack.WhileLoop, "")
	id1 := f1.UniqueID
	s.Pop()
	f2 := s.Push(symstack.WhileLoop, "")
	assert.NotEqual(t, id1, f2.UniqueID)
	assert.Greater(t, f2.UniqueID, id1)
}

func TestGetSymbolWalksUpward(t *testing.T) {
	s := symstack.New()
	s.PutSymbol("outer", symtab.VarInteger)
	s.Push(symstack.Condition, "")
	s.PutSymbol("inner", symtab.VarString)

	sym, frame := s.GetSymbol("outer")
	require.NotNil(t, sym)
	assert.Equal(t, uint(0), frame.NestingLevel)

	sym, _ = s.GetSymbol("inner")
	require.NotNil(t, sym)

	sym, frame = s.GetLocalSymbol("outer")
	assert.Nil(t, sym)
	assert.Nil(t, frame)
}

func TestPopDestroysOnlyTopFrame(t *testing.T) {
	s := symstack.New()
	s.PutSymbol("g", symtab.VarInteger)
	s.Push(symstack.Condition, "")
	s.PutSymbol("loc", symtab.VarInteger)
	s.Pop()

	sym, _ := s.GetSymbol("loc")
	assert.Nil(t, sym)
	sym, _ = s.GetSymbol("g")
	assert.NotNil(t, sym)
}

func TestNearestLoopIDSkipsNonLoopFrames(t *testing.T) {
	s := symstack.New()
	loop := s.Push(symstack.WhileLoop, "f")
	s.Push(symstack.Condition, "f")

	id, ok := s.NearestLoopID()
	require.True(t, ok)
	assert.Equal(t, loop.UniqueID, id)
}

func TestNearestLoopIDFalseOutsideLoop(t *testing.T) {
	s := symstack.New()
	s.Push(symstack.FunctionScope, "f")
	_, ok := s.NearestLoopID()
	assert.False(t, ok)
}

func TestEnclosingFunctionNameFindsNearestFunctionFrame(t *testing.T) {
	s := symstack.New()
	s.Push(symstack.FunctionScope, "f")
	s.Push(symstack.WhileLoop, "")
	assert.Equal(t, "f", s.EnclosingFunctionName())
}

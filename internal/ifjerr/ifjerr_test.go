package ifjerr_test

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifj21-compiler/ifjc/internal/ifjerr"
)

func TestSinkFirstErrorWins(t *testing.T) {
	var s ifjerr.Sink
	assert.False(t, s.Failed())

	s.Record(ifjerr.Syntax, token.Position{}, "first")
	s.Record(ifjerr.TypeMismatch, token.Position{}, "second")

	require.True(t, s.Failed())
	assert.Equal(t, "first", s.First().Msg)
	assert.Equal(t, ifjerr.Syntax, s.First().Kind)
	assert.Equal(t, 2, s.ExitCode())
}

func TestSinkExitCodeZeroWhenUnset(t *testing.T) {
	var s ifjerr.Sink
	assert.Equal(t, 0, s.ExitCode())
}

func TestKindExitCodesMatchFixedContract(t *testing.T) {
	cases := map[ifjerr.Kind]int{
		ifjerr.Lexical:           1,
		ifjerr.Syntax:            2,
		ifjerr.Undefined:         3,
		ifjerr.TypeMismatch:      4,
		ifjerr.WrongArgsOrReturn: 5,
		ifjerr.TypeIncompatible:  6,
		ifjerr.Other:             7,
		ifjerr.NilOperand:        8,
		ifjerr.DivByZero:         9,
		ifjerr.Internal:          99,
	}
	for kind, code := range cases {
		assert.Equal(t, code, kind.ExitCode())
	}
}

func TestErrorFormattingIncludesPosition(t *testing.T) {
	fset := token.NewFileSet()
	f := fset.AddFile("t", -1, 10)
	pos := f.Position(f.Pos(2))

	err := &ifjerr.Error{Kind: ifjerr.Syntax, Pos: pos, Msg: "bad token"}
	assert.Contains(t, err.Error(), "bad token")
	assert.Contains(t, err.Error(), "syntax error")
}

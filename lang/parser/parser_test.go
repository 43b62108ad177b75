package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifj21-compiler/ifjc/lang/parser"
	"github.com/ifj21-compiler/ifjc/lang/token"
)

func compile(t *testing.T, src string) (string, int) {
	t.Helper()
	fset := token.NewFileSet()
	p := parser.New(fset, "t", []byte(src))
	out, sink := p.Compile()
	return out, sink.ExitCode()
}

// A trivial program calling write compiles cleanly.
func TestEndToEndWriteCall(t *testing.T) {
	src := `require "ifj21"
function main() write("hi") end
main()
`
	out, code := compile(t, src)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "LABEL $main\n")
	assert.Contains(t, out, "CALL $write")
	assert.Contains(t, out, "string@hi")
	assert.Contains(t, out, "CALL $main")
}

// Returning more values than declared is a hard error (exit 5).
func TestReturnOverflowIsError(t *testing.T) {
	src := `require "ifj21"
function f() : integer return 1, 2 end
`
	_, code := compile(t, src)
	assert.Equal(t, 5, code)
}

// S3: a declared and a defined signature that disagree is exit 3.
func TestSignatureDisagreementIsError(t *testing.T) {
	src := `require "ifj21"
global foo : function(integer) : integer
function foo(x : string) : integer return 0 end
`
	_, code := compile(t, src)
	assert.Equal(t, 3, code)
}

// S4: an integer added to a float promotes only the integer operand.
func TestIntToFloatPromotionOnlyOneOperand(t *testing.T) {
	src := `require "ifj21"
function main()
  local a : integer = 1
  local b : number = a + 0.5
end
main()
`
	out, code := compile(t, src)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "INT2FLOAT")
	assert.Contains(t, out, "CALL $$recast_to_float_first")
	assert.NotContains(t, out, "CALL $$recast_to_float_second")
	assert.NotContains(t, out, "CALL $$recast_to_float_both")
}

// S5: a reference to an undeclared identifier is exit 3.
func TestUndefinedIdentifierIsError(t *testing.T) {
	src := `require "ifj21"
function main()
  local a : integer = undeclared_name
end
main()
`
	_, code := compile(t, src)
	assert.Equal(t, 3, code)
}

// S6: a program that doesn't start with the required prolog fails before
// any code is emitted, either lexically/syntactically (2) or because the
// prolog check itself fires (7).
func TestMissingPrologIsError(t *testing.T) {
	src := `function main() end
main()
`
	_, code := compile(t, src)
	assert.Contains(t, []int{2, 7}, code)
}

// Boundary case 8: an empty program (after the prolog) compiles to an
// empty main body and exits 0.
func TestEmptyProgramExitsZero(t *testing.T) {
	src := `require "ifj21"
`
	out, code := compile(t, src)
	require.Equal(t, 0, code)
	assert.True(t, strings.Contains(out, "LABEL $$MAIN") && strings.Contains(out, "LABEL $$MAIN$end"))
}

// Boundary case 9: calling a function with fewer wanted values than it
// returns discards the extras; calling with more pads with nil.
func TestMultiReturnAdjustment(t *testing.T) {
	src := `require "ifj21"
function pair() : integer, integer return 1, 2 end
function main()
  local a : integer
  local b : integer
  local c : integer
  a, b, c = pair()
  a = pair()
end
main()
`
	out, code := compile(t, src)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "nil@nil")
}

func TestIfElseifElseChain(t *testing.T) {
	src := `require "ifj21"
function main()
  local a : integer = 1
  if a == 1 then
    write("one")
  elseif a == 2 then
    write("two")
  else
    write("other")
  end
end
main()
`
	out, code := compile(t, src)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "$if$")
}

func TestWhileLoopAndBreak(t *testing.T) {
	src := `require "ifj21"
function main()
  local i : integer = 0
  while i < 10 do
    if i == 5 then
      break
    end
    i = i + 1
  end
end
main()
`
	out, code := compile(t, src)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "$while$")
	assert.Contains(t, out, "JUMP $end$")
}

func TestForLoopLowering(t *testing.T) {
	src := `require "ifj21"
function main()
  for i = 1, 10, 1 do
    write(i)
  end
end
main()
`
	out, code := compile(t, src)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "$for$")
}

func TestShortCircuitAndOr(t *testing.T) {
	src := `require "ifj21"
function main()
  local a : boolean = true
  local b : boolean = false
  local c : boolean = a and b or a
end
main()
`
	_, code := compile(t, src)
	require.Equal(t, 0, code)
}

func TestBreakOutsideLoopIsError(t *testing.T) {
	src := `require "ifj21"
function main()
  break
end
main()
`
	_, code := compile(t, src)
	assert.Equal(t, 7, code)
}

package ir

import "fmt"

// This file implements the stack-machine instruction emission the
// expression parser drives directly: push operands, apply implicit
// promotions, reduce an operator. Every call here assumes the preceding
// phases (expression parser + semantic checks) already validated operand
// types and decided which conversions apply; the emitter itself never
// rejects anything.

// Three global scratch registers, declared once in the prologue and reused
// by the nil-check, conversion and short-circuit helpers. Grounded on
// original_source/src/code_generator.c, which uses the same names
// (GF@%expr_result, GF@%expr_result2, GF@%expr_result3) for exactly this
// purpose. Reuse is safe because expression evaluation is strictly
// sequential: a scratch register is always consumed before the next use.
const (
	scratch1 = "GF@%expr_result"
	scratch2 = "GF@%expr_result2"
	scratch3 = "GF@%expr_result3"
)

// PushOperand pushes a literal or variable operand onto the evaluation
// stack.
func (e *Emitter) PushOperand(symb string) { e.Emitf("PUSHS %s", symb) }

// Conversion identifies which operand(s) of a binary reduction require an
// integer-to-float promotion before the arithmetic opcode runs.
type Conversion int

const (
	ConvNone Conversion = iota
	ConvertFirst
	ConvertSecond
	ConvertBoth
)

// EmitConversion emits a call to the matching $$recast_to_float_* helper, if
// any, and ensures that helper's body is present in the prologue.
func (e *Emitter) EmitConversion(c Conversion) {
	var helper string
	switch c {
	case ConvNone:
		return
	case ConvertFirst:
		helper = "$$recast_to_float_first"
	case ConvertSecond:
		helper = "$$recast_to_float_second"
	case ConvertBoth:
		helper = "$$recast_to_float_both"
	}
	e.emitRecastHelpers()
	e.Emitf("CALL %s", helper)
}

// BinOp identifies a reduced binary operator, named after the IFJ21 source
// operator.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDivFloat // /
	OpDivInt   // //
	OpMod      // %
	OpPow      // ^
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
)

// EmitArith emits the stack opcode for op. Conversions and nil-checks must
// already have been emitted by the caller (via EmitConversion / EmitNilCheck)
// before this is called, so the two values on the stack are of compatible,
// non-nil types.
func (e *Emitter) EmitArith(op BinOp) {
	switch op {
	case OpAdd:
		e.Emit("ADDS")
	case OpSub:
		e.Emit("SUBS")
	case OpMul:
		e.Emit("MULS")
	case OpDivFloat:
		e.Emit("DIVS")
	case OpDivInt:
		e.emitDivZeroHelper()
		e.Emit("CALL $$check_div_zero")
		e.Emit("IDIVS")
	case OpMod:
		e.emitModuloHelper()
		e.Emit("CALL $$modulo")
	case OpPow:
		e.emitPowerHelper()
		e.Emit("CALL $$power")
	case OpLt:
		e.Emit("LTS")
	case OpLe:
		// a <= b  <=>  not (a > b)
		e.Emit("GTS")
		e.Emit("NOTS")
	case OpGt:
		e.Emit("GTS")
	case OpGe:
		// a >= b  <=>  not (a < b)
		e.Emit("LTS")
		e.Emit("NOTS")
	case OpEq:
		e.Emit("EQS")
	case OpNe:
		e.Emit("EQS")
		e.Emit("NOTS")
	}
}

// EmitNilCheck emits a call to the $$nil_check helper, which pops the top
// two stack values, traps to the shared nil-error label if either is nil,
// then pushes both back in the same order. Called before a binary
// arithmetic, comparison or power reduction so an uninitialized numeric
// variable's runtime nil is caught here instead of faulting the opcode
// that follows.
func (e *Emitter) EmitNilCheck() {
	e.emitNilCheckHelper()
	e.Emit("CALL $$nil_check")
}

// EmitConcat emits a string concatenation through two temporary frame
// variables, since IFJcode21's CONCAT instruction (unlike the arithmetic
// opcodes) addresses variables rather than the evaluation stack.
func (e *Emitter) EmitConcat(tmpLeft, tmpRight string) {
	e.Emitf("POPS %s", tmpRight)
	e.Emitf("POPS %s", tmpLeft)
	e.Emitf("CONCAT %s %s %s", tmpLeft, tmpLeft, tmpRight)
	e.Emitf("PUSHS %s", tmpLeft)
}

// EmitStrLen emits a string-length (the '#' unary operator) through a
// temporary variable, for the same reason as EmitConcat.
func (e *Emitter) EmitStrLen(tmpOperand string) {
	e.Emitf("POPS %s", tmpOperand)
	e.Emitf("STRLEN %s %s", tmpOperand, tmpOperand)
	e.Emitf("PUSHS %s", tmpOperand)
}

// EmitUnaryMinus negates the value on top of the stack.
func (e *Emitter) EmitUnaryMinus(isFloat bool) {
	if isFloat {
		e.PushOperand(FloatLiteral(-1))
	} else {
		e.PushOperand(IntLiteral(-1))
	}
	e.Emit("MULS")
}

// EmitNot negates the boolean on top of the stack.
func (e *Emitter) EmitNot() { e.Emit("NOTS") }

// BranchIfFalse pops the boolean on top of the stack and jumps to label if
// it is false, used by if/while/repeat to implement their condition tests.
func (e *Emitter) BranchIfFalse(label string) {
	e.Emitf("POPS %s", scratch1)
	e.Emitf("JUMPIFEQ %s %s %s", label, scratch1, BoolLiteral(false))
}

// DiscardTop pops and discards the value on top of the evaluation stack,
// used to drop excess return values a call produced beyond what the caller
// asked for.
func (e *Emitter) DiscardTop() { e.Emitf("POPS %s", scratch1) }

// ---- Short-circuit 'and'/'or' ----
//
// 'and'/'or' short-circuit: the right operand's code is never emitted, let
// alone run, once the left operand already decides the result. This is
// implemented with a conditional jump around the right operand rather than
// by unconditionally evaluating both sides and calling a combining helper.
//
// Protocol: the parser pushes the left operand, then calls BeginAnd/BeginOr
// with the enclosing scope's unique id (used to make the labels unique);
// this pops the left value into scratch1 and emits the conditional jump. If
// (and) the parser then emits the right operand's code, leaving its value on
// the stack, and finally calls EndShortCircuit to stitch the short-circuit
// and evaluated paths back together.

// BeginAnd starts an 'and' reduction: if the left operand (already pushed
// by the caller) is false, skip the right operand entirely.
func (e *Emitter) BeginAnd(id uint64) (falseLabel string) {
	falseLabel = fmt.Sprintf("$$and$%d$short", id)
	e.Emitf("POPS %s", scratch1)
	e.Emitf("JUMPIFEQ %s %s %s", falseLabel, scratch1, BoolLiteral(false))
	return falseLabel
}

// BeginOr starts an 'or' reduction: if the left operand is true, skip the
// right operand entirely.
func (e *Emitter) BeginOr(id uint64) (trueLabel string) {
	trueLabel = fmt.Sprintf("$$or$%d$short", id)
	e.Emitf("POPS %s", scratch1)
	e.Emitf("JUMPIFNEQ %s %s %s", trueLabel, scratch1, BoolLiteral(false))
	return trueLabel
}

// EndShortCircuit closes out a BeginAnd/BeginOr reduction. isAnd selects the
// boolean IFJcode21 literal pushed on the short-circuit path (false for
// 'and', true for 'or'); shortLabel is the label BeginAnd/BeginOr returned,
// and id must be the same unique id passed to it.
func (e *Emitter) EndShortCircuit(id uint64, isAnd bool, shortLabel string) {
	endLabel := fmt.Sprintf("$$andor$%d$end", id)
	e.Emitf("JUMP %s", endLabel)
	e.Label(shortLabel)
	if isAnd {
		e.PushOperand(BoolLiteral(false))
	} else {
		e.PushOperand(BoolLiteral(true))
	}
	e.Label(endLabel)
}

package parser

import (
	"github.com/ifj21-compiler/ifjc/internal/ifjerr"
	"github.com/ifj21-compiler/ifjc/lang/ir"
	"github.com/ifj21-compiler/ifjc/lang/token"
	"github.com/ifj21-compiler/ifjc/lang/types"
)

// This file implements the operator-precedence expression parser as a
// precedence-climbing ladder of recursive functions, one per precedence
// level (parseOr down to parseAtom); it keeps no explicit shift/reduce
// stack and does no bottom-up table-driven reduction. It shares the Parser's token cursor with the top-down statement driver and
// emits directly into the active IR stream as each reduction fires, rather
// than building a separate expression tree: the result of every parseXxx
// function is the reduced value's type code, with its IR already pushed
// onto the evaluation stack.

func (p *Parser) newLogicID() uint64 {
	id := p.logicCounter
	p.logicCounter++
	return id
}

// parseExpr is the expression entry point: "or" binds loosest.
func (p *Parser) parseExpr() types.Code { return p.parseOr() }

func (p *Parser) parseOr() types.Code {
	left := p.parseAnd()
	for p.at(token.OR) {
		p.requireBool(left, "or")
		p.advance()
		id := p.newLogicID()
		label := p.emit.BeginOr(id)
		right := p.parseAnd()
		p.requireBool(right, "or")
		p.emit.EndShortCircuit(id, false, label)
		left = types.Boolean
	}
	return left
}

func (p *Parser) parseAnd() types.Code {
	left := p.parseCompare()
	for p.at(token.AND) {
		p.requireBool(left, "and")
		p.advance()
		id := p.newLogicID()
		label := p.emit.BeginAnd(id)
		right := p.parseCompare()
		p.requireBool(right, "and")
		p.emit.EndShortCircuit(id, true, label)
		left = types.Boolean
	}
	return left
}

func (p *Parser) requireBool(t types.Code, op string) {
	if t != types.Boolean {
		p.fail(ifjerr.TypeIncompatible, "operand of %q must be boolean, found %s", op, t)
	}
}

// parseCompare implements the non-chaining comparison level: at most one
// comparison operator is consumed per call.
func (p *Parser) parseCompare() types.Code {
	left := p.parseConcat()
	op, isCompare := compareOp(p.tok)
	if !isCompare {
		return left
	}
	p.advance()
	right := p.parseConcat()
	p.reduceCompare(left, right, op)
	return types.Boolean
}

func compareOp(tok token.Token) (ir.BinOp, bool) {
	switch tok {
	case token.LT:
		return ir.OpLt, true
	case token.LE:
		return ir.OpLe, true
	case token.GT:
		return ir.OpGt, true
	case token.GE:
		return ir.OpGe, true
	case token.EQEQ:
		return ir.OpEq, true
	case token.NE:
		return ir.OpNe, true
	default:
		return 0, false
	}
}

// reduceCompare validates operand compatibility and emits the conversion and
// comparison opcodes. Equality additionally allows boolean/boolean,
// nil/nil, and anything against nil. Ordering comparisons (<, <=, >, >=)
// never allow a statically nil operand, so only they need the runtime
// nil-check: a numeric variable that is still uninitialized holds a
// runtime nil value the static types above can't see.
func (p *Parser) reduceCompare(left, right types.Code, op ir.BinOp) {
	isEq := op == ir.OpEq || op == ir.OpNe
	switch {
	case left.IsNumeric() && right.IsNumeric():
		if !isEq {
			p.emit.EmitNilCheck()
		}
		p.emit.EmitConversion(convForArith(left, right))
	case left == types.String && right == types.String:
		// no conversion needed
	case isEq && (left == types.Nil || right == types.Nil):
		// anything vs nil: no conversion
	case isEq && left == types.Boolean && right == types.Boolean:
		// boolean equality
	default:
		p.fail(ifjerr.TypeIncompatible, "incompatible operand types for comparison: %s and %s", left, right)
	}
	p.emit.EmitArith(op)
}

// parseConcat implements ".." (right-associative).
func (p *Parser) parseConcat() types.Code {
	left := p.parseAddSub()
	if p.at(token.DOTDOT) {
		p.advance()
		right := p.parseConcat()
		if left != types.String || right != types.String {
			p.fail(ifjerr.TypeIncompatible, "'..' requires string operands, found %s and %s", left, right)
		}
		p.emit.EmitConcat(p.tempVar("concat_l"), p.tempVar("concat_r"))
		return types.String
	}
	return left
}

func (p *Parser) parseAddSub() types.Code {
	left := p.parseMulDiv()
	for p.at(token.PLUS) || p.at(token.MINUS) {
		isAdd := p.at(token.PLUS)
		p.advance()
		right := p.parseMulDiv()
		left = p.reduceArith(left, right, mustArith(isAdd, ir.OpAdd, ir.OpSub))
	}
	return left
}

func mustArith(cond bool, a, b ir.BinOp) ir.BinOp {
	if cond {
		return a
	}
	return b
}

func (p *Parser) parseMulDiv() types.Code {
	left := p.parseUnary()
	for {
		var op ir.BinOp
		switch p.tok {
		case token.STAR:
			op = ir.OpMul
		case token.SLASH:
			op = ir.OpDivFloat
		case token.SLASHSLASH:
			op = ir.OpDivInt
		case token.PERCENT:
			op = ir.OpMod
		default:
			return left
		}
		p.advance()
		right := p.parseUnary()
		switch op {
		case ir.OpDivInt, ir.OpMod:
			if left != types.Integer || right != types.Integer {
				p.fail(ifjerr.TypeIncompatible, "'//' and '%%' require integer operands, found %s and %s", left, right)
			}
			p.emit.EmitNilCheck()
			p.emit.EmitArith(op)
			left = types.Integer
		default:
			left = p.reduceArith(left, right, op)
		}
	}
}

// reduceArith implements the shared +,-,*,/ promotion rule: both operands
// must be numeric, the result is float if either operand is, and the
// integer operand(s) are marked for conversion. The nil-check runs before
// any conversion, since a numeric-typed variable that was never assigned
// holds a runtime nil value the conversion helpers can't recast.
func (p *Parser) reduceArith(left, right types.Code, op ir.BinOp) types.Code {
	if !left.IsNumeric() || !right.IsNumeric() {
		p.fail(ifjerr.TypeIncompatible, "arithmetic operator requires numeric operands, found %s and %s", left, right)
	}
	p.emit.EmitNilCheck()
	conv := convForArith(left, right)
	p.emit.EmitConversion(conv)
	p.emit.EmitArith(op)
	if op == ir.OpDivFloat {
		return types.Float
	}
	if left == types.Float || right == types.Float {
		return types.Float
	}
	return types.Integer
}

func convForArith(left, right types.Code) ir.Conversion {
	switch {
	case left == types.Integer && right == types.Float:
		return ir.ConvertFirst
	case left == types.Float && right == types.Integer:
		return ir.ConvertSecond
	default:
		return ir.ConvNone
	}
}

// parseUnary implements unary '-', '#' and 'not', falling through to the
// '^' level when no unary operator is present.
func (p *Parser) parseUnary() types.Code {
	switch p.tok {
	case token.MINUS:
		p.advance()
		t := p.parseUnary()
		if !t.IsNumeric() {
			p.fail(ifjerr.TypeIncompatible, "unary '-' requires a numeric operand, found %s", t)
		}
		p.emit.EmitUnaryMinus(t == types.Float)
		return t
	case token.HASH:
		p.advance()
		t := p.parseUnary()
		if t != types.String {
			p.fail(ifjerr.TypeIncompatible, "unary '#' requires a string operand, found %s", t)
		}
		p.emit.EmitStrLen(p.tempVar("strlen"))
		return types.Integer
	case token.NOT:
		p.advance()
		t := p.parseUnary()
		p.requireBool(t, "not")
		p.emit.EmitNot()
		return types.Boolean
	default:
		return p.parsePow()
	}
}

// parsePow implements '^' (right-associative); both operands are coerced to
// float regardless of their source type.
func (p *Parser) parsePow() types.Code {
	left := p.parseAtom()
	if p.at(token.CARET) {
		p.advance()
		right := p.parseUnary()
		if !left.IsNumeric() || !right.IsNumeric() {
			p.fail(ifjerr.TypeIncompatible, "'^' requires numeric operands, found %s and %s", left, right)
		}
		p.emit.EmitNilCheck()
		p.emit.EmitConversion(convBothToFloat(left, right))
		p.emit.EmitArith(ir.OpPow)
		return types.Float
	}
	return left
}

func convBothToFloat(left, right types.Code) ir.Conversion {
	switch {
	case left == types.Integer && right == types.Integer:
		return ir.ConvertBoth
	case left == types.Integer:
		return ir.ConvertFirst
	case right == types.Integer:
		return ir.ConvertSecond
	default:
		return ir.ConvNone
	}
}

// parseAtom parses a literal, parenthesized sub-expression, or identifier
// reference (variable or call), pushing its value and returning its type.
func (p *Parser) parseAtom() types.Code {
	if p.pendingIdent != nil {
		return p.parseIdentExpr()
	}
	switch p.tok {
	case token.INT:
		v := p.val.Int
		p.advance()
		p.emit.PushOperand(ir.IntLiteral(v))
		return types.Integer
	case token.FLOAT:
		v := p.val.Float
		p.advance()
		p.emit.PushOperand(ir.FloatLiteral(v))
		return types.Float
	case token.STRING:
		s := p.val.String
		p.advance()
		p.emit.PushOperand(ir.QuoteString(s))
		return types.String
	case token.TRUE:
		p.advance()
		p.emit.PushOperand(ir.BoolLiteral(true))
		return types.Boolean
	case token.FALSE:
		p.advance()
		p.emit.PushOperand(ir.BoolLiteral(false))
		return types.Boolean
	case token.NIL:
		p.advance()
		p.emit.PushOperand(ir.NilLiteral)
		return types.Nil
	case token.LPAREN:
		p.advance()
		t := p.parseExpr()
		p.expect(token.RPAREN)
		return t
	case token.IDENT:
		return p.parseIdentExpr()
	default:
		p.fail(ifjerr.Syntax, "expected an expression, found %s", p.describeCur())
		panic(errHalt) // unreachable, fail already panics
	}
}

// parseIdentExpr resolves an identifier as either a variable reference or a
// (possibly multi-return) function call used in single-value context.
func (p *Parser) parseIdentExpr() types.Code {
	name, pos := p.takeIdent()

	if p.at(token.LPAREN) {
		return p.parseCallExpr(name, pos, 1)[0]
	}

	sym, frame := p.syms.GetSymbol(name)
	if sym == nil || sym.FunctionSem != nil {
		p.failAt(ifjerr.Undefined, pos, "undefined variable %q", name)
	}
	p.emit.PushOperand(ir.LocalVar(frame.UniqueID, name))
	return sym.VarTypeCode()
}

// takeIdent returns a pending identifier the statement driver already
// consumed, if any, otherwise reads a fresh one from the token stream.
func (p *Parser) takeIdent() (string, token.Position) {
	if p.pendingIdent != nil {
		tok := p.pendingIdent
		p.pendingIdent = nil
		return tok.name, tok.pos
	}
	return p.expectIdent()
}

// tempVar returns a scratch temporary variable name for EmitConcat/
// EmitStrLen, scoped to the current frame so it is declared exactly once per
// enclosing scope.
func (p *Parser) tempVar(label string) string {
	top := p.syms.Top()
	key := tempKey{scopeID: top.UniqueID, label: label}
	if name, ok := p.tempVars.Get(key); ok {
		return name
	}
	name := p.emit.DefVar(top.UniqueID, "%"+label)
	p.tempVars.Put(key, name)
	return name
}

type tempKey struct {
	scopeID uint64
	label   string
}

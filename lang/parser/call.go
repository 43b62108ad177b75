package parser

import (
	"strconv"

	"github.com/ifj21-compiler/ifjc/internal/ifjerr"
	"github.com/ifj21-compiler/ifjc/lang/ir"
	"github.com/ifj21-compiler/ifjc/lang/token"
	"github.com/ifj21-compiler/ifjc/lang/types"
)

// callTarget resolves a call by name: either a built-in (variadic "write" is
// flagged separately since it has no fixed signature) or a user function
// symbol, which must be declared, defined or builtin to be called.
type callTarget struct {
	info       types.FunctionInfo
	isVariadic bool // only "write"
}

func (p *Parser) resolveCallTarget(name string, pos token.Position) callTarget {
	if name == "write" {
		return callTarget{isVariadic: true}
	}
	if info, ok := p.builtins.Get(name); ok {
		return callTarget{info: info}
	}
	sym, _ := p.syms.GetSymbol(name)
	if sym == nil || sym.FunctionSem == nil {
		p.failAt(ifjerr.Undefined, pos, "call to undefined function %q", name)
	}
	if !sym.FunctionSem.CallableNow() {
		p.failAt(ifjerr.Undefined, pos, "function %q is used before it is declared or defined", name)
	}
	return callTarget{info: sym.FunctionSem.EffectiveInfo()}
}

// parseCallExpr parses "(" ArgList ")" for a call to name already consumed
// by the caller, emits the call, and adjusts the returned values down to
// exactly want entries: missing values become nil, excess values are
// discarded.
func (p *Parser) parseCallExpr(name string, pos token.Position, want int) []types.Code {
	target := p.resolveCallTarget(name, pos)
	p.expect(token.LPAREN)

	if target.isVariadic {
		p.parseWriteArgs()
		p.expect(token.RPAREN)
		for i := 0; i < want; i++ {
			p.emit.PushOperand(ir.NilLiteral)
		}
		return padNil(want)
	}

	argc := p.parseArgList(target.info.Params)
	p.expect(token.RPAREN)
	if argc != target.info.Params.Len() {
		p.failAt(ifjerr.WrongArgsOrReturn, pos, "function %q expects %d argument(s), got %d", name, target.info.Params.Len(), argc)
	}

	p.ensureBuiltinHelper(name)
	p.emit.Emitf("CALL $%s", name)
	return p.adjustReturns(target.info.Returns, want)
}

func padNil(want int) []types.Code {
	out := make([]types.Code, want)
	for i := range out {
		out[i] = types.Nil
	}
	return out
}

// parseWriteArgs evaluates write's variadic argument list, emitting one
// "CALL $write" per argument.
func (p *Parser) parseWriteArgs() {
	p.emit.EmitWriteBuiltin()
	if p.at(token.RPAREN) {
		return
	}
	for {
		p.parseExpr()
		p.emit.Emitf("CALL $write")
		if !p.at(token.COMMA) {
			return
		}
		p.advance()
	}
}

// parseArgList evaluates a call's argument expressions left-to-right,
// converting each integer argument to float where the matching parameter
// expects a float, and returns the number of arguments parsed.
func (p *Parser) parseArgList(params types.Signature) int {
	if p.at(token.RPAREN) {
		return 0
	}
	n := 0
	for {
		argType := p.parseExpr()
		if n < params.Len() {
			p.convertArgToParam(argType, params.At(n))
		}
		n++
		if !p.at(token.COMMA) {
			break
		}
		p.advance()
	}
	return n
}

func (p *Parser) convertArgToParam(argType, paramType types.Code) {
	switch {
	case argType == paramType:
	case argType == types.Integer && paramType == types.Float:
		p.emit.Emitf("POPS %s", p.tempVar("argconv"))
		p.emit.Emitf("INT2FLOAT %s %s", p.tempVar("argconv"), p.tempVar("argconv"))
		p.emit.PushOperand(p.tempVar("argconv"))
	case argType == types.Nil:
	default:
		p.fail(ifjerr.TypeMismatch, "argument type %s is not compatible with parameter type %s", argType, paramType)
	}
}

// adjustReturns implements call-site return matching: the callee (see
// parseReturnStmt) pushes its return values in reverse index order so the
// first return value ends up on top of the stack; this function keeps the
// first `want` of them (padding missing ones with nil) and discards the
// rest, restoring stack order so the first wanted value is back on top.
func (p *Parser) adjustReturns(returns types.Signature, want int) []types.Code {
	n := returns.Len()
	keep := want
	if keep > n {
		keep = n
	}

	tmp := make([]string, keep)
	for i := 0; i < keep; i++ {
		tmp[i] = p.tempVar("ret" + strconv.Itoa(i))
		p.emit.Emitf("POPS %s", tmp[i])
	}
	for i := keep; i < n; i++ {
		p.emit.DiscardTop()
	}
	for i := 0; i < want-n; i++ {
		p.emit.PushOperand(ir.NilLiteral)
	}
	for i := keep - 1; i >= 0; i-- {
		p.emit.PushOperand(tmp[i])
	}

	result := make([]types.Code, want)
	for i := 0; i < want; i++ {
		if i < n {
			result[i] = returns.At(i)
		} else {
			result[i] = types.Nil
		}
	}
	return result
}

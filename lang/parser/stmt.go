package parser

import (
	"strconv"

	"github.com/ifj21-compiler/ifjc/internal/ifjerr"
	"github.com/ifj21-compiler/ifjc/lang/ir"
	"github.com/ifj21-compiler/ifjc/lang/symstack"
	"github.com/ifj21-compiler/ifjc/lang/symtab"
	"github.com/ifj21-compiler/ifjc/lang/token"
	"github.com/ifj21-compiler/ifjc/lang/types"
)

// This file implements the top-down statement grammar: the program header,
// function declarations/definitions, and every statement form a function
// body can contain. It drives the same token cursor the expression parser
// in expr.go consumes, switching between the two parsers token by token
// rather than building and walking a separate parse tree.

// registerBuiltins pre-populates the built-in function table so call sites
// resolve reads/readi/readn/tointeger/chr/ord/substr without any user-visible
// declaration; write is variadic and is special-cased by name rather than
// carrying a fixed FunctionInfo.
func (p *Parser) registerBuiltins() {
	p.builtins.Put("reads", types.FunctionInfo{Params: "", Returns: "s"})
	p.builtins.Put("readi", types.FunctionInfo{Params: "", Returns: "i"})
	p.builtins.Put("readn", types.FunctionInfo{Params: "", Returns: "f"})
	p.builtins.Put("tointeger", types.FunctionInfo{Params: "f", Returns: "i"})
	p.builtins.Put("chr", types.FunctionInfo{Params: "i", Returns: "s"})
	p.builtins.Put("ord", types.FunctionInfo{Params: "si", Returns: "i"})
	p.builtins.Put("substr", types.FunctionInfo{Params: "sff", Returns: "s"})
}

// ensureBuiltinHelper emits (once) the runtime helper body for a built-in
// call, right before its CALL instruction is emitted.
func (p *Parser) ensureBuiltinHelper(name string) {
	switch name {
	case "reads":
		p.emit.EmitReadBuiltin("reads", "string")
	case "readi":
		p.emit.EmitReadBuiltin("readi", "int")
	case "readn":
		p.emit.EmitReadBuiltin("readn", "float")
	case "tointeger":
		p.emit.EmitToIntegerBuiltin()
	case "chr":
		p.emit.EmitChrBuiltin()
	case "ord":
		p.emit.EmitOrdBuiltin()
	case "substr":
		p.emit.EmitSubstrBuiltin()
	}
}

// parseProgram implements "require \"ifj21\"" StmtList.
func (p *Parser) parseProgram() {
	p.emit.EmitHeader()
	p.expect(token.REQUIRE)
	v := p.expect(token.STRING)
	if v.String != "ifj21" {
		p.fail(ifjerr.Other, "expected require \"ifj21\"")
	}
	for !p.at(token.EOF) {
		p.parseTopStmt()
	}
}

// parseTopStmt implements top-level Stmt := FuncDecl | FuncDef | FuncCall.
func (p *Parser) parseTopStmt() {
	switch p.tok {
	case token.GLOBAL:
		p.parseFuncDecl()
	case token.FUNCTION:
		p.parseFuncDef()
	case token.IDENT:
		name, pos := p.expectIdent()
		if !p.at(token.LPAREN) {
			p.failAt(ifjerr.Syntax, pos, "expected a function call at top level")
		}
		p.emit.SetActive(ir.Main)
		p.parseCallExpr(name, pos, 0)
	default:
		p.fail(ifjerr.Syntax, "expected a function declaration, definition or call, found %s", p.describeCur())
	}
}

// ---- FuncDecl / FuncDef ----

func (p *Parser) parseTypeList() types.Signature {
	if !p.tok.IsTypeKeyword() {
		return types.NewSignature(nil)
	}
	var codes []types.Code
	for {
		codes = append(codes, p.typeFromKeyword())
		if !p.at(token.COMMA) {
			break
		}
		p.advance()
	}
	return types.NewSignature(codes)
}

func (p *Parser) typeFromKeyword() types.Code {
	switch p.tok {
	case token.KwSTRING:
		p.advance()
		return types.String
	case token.KwINTEGER:
		p.advance()
		return types.Integer
	case token.KwNUMBER:
		p.advance()
		return types.Float
	case token.KwBOOLEAN:
		p.advance()
		return types.Boolean
	default:
		p.fail(ifjerr.Syntax, "expected a type, found %s", p.describeCur())
		panic(errHalt)
	}
}

func (p *Parser) parseReturnTypes() types.Signature {
	if !p.at(token.COLON) {
		return types.NewSignature(nil)
	}
	p.advance()
	return p.parseTypeList()
}

func (p *Parser) parseParamList() ([]string, []types.Code) {
	var names []string
	var codes []types.Code
	if p.at(token.RPAREN) {
		return names, codes
	}
	for {
		name, _ := p.expectIdent()
		p.expect(token.COLON)
		t := p.typeFromKeyword()
		names = append(names, name)
		codes = append(codes, t)
		if !p.at(token.COMMA) {
			break
		}
		p.advance()
	}
	return names, codes
}

// checkSignatureAgreement enforces that once both a declaration and a
// definition exist for a function, their signatures must agree
// byte-for-byte.
func (p *Parser) checkSignatureAgreement(sym *symtab.Symbol, pos token.Position) {
	fs := sym.FunctionSem
	if fs.IsDeclared && fs.IsDefined && !fs.SignaturesAgree() {
		p.failAt(ifjerr.Undefined, pos, "signature of %q's definition disagrees with its declaration", sym.Name)
	}
}

// parseFuncDecl implements "global" ID ":" "function" "(" TypeList ")"
// ReturnTypes.
func (p *Parser) parseFuncDecl() {
	p.expect(token.GLOBAL)
	name, pos := p.expectIdent()
	p.expect(token.COLON)
	p.expect(token.FUNCTION)
	p.expect(token.LPAREN)
	params := p.parseTypeList()
	p.expect(token.RPAREN)
	returns := p.parseReturnTypes()

	sym := p.syms.PutSymbol(name, symtab.FunctionDecl)
	sym.FunctionSem.Declared = types.FunctionInfo{Params: params, Returns: returns}
	p.checkSignatureAgreement(sym, pos)
}

// parseFuncDef implements "function" ID "(" ParamList ")" ReturnTypes
// FuncBody "end".
func (p *Parser) parseFuncDef() {
	p.expect(token.FUNCTION)
	name, pos := p.expectIdent()
	p.expect(token.LPAREN)
	paramNames, paramTypes := p.parseParamList()
	p.expect(token.RPAREN)
	returns := p.parseReturnTypes()

	sym := p.syms.PutSymbol(name, symtab.FunctionDef)
	sym.FunctionSem.Defined = types.FunctionInfo{Params: types.NewSignature(paramTypes), Returns: returns}
	p.checkSignatureAgreement(sym, pos)

	prevReturns := p.returnSig
	prevFunc := p.curFunc
	prevActive := p.emit.Active()
	p.returnSig = returns
	p.emit.SetActive(ir.Functions)

	frame := p.syms.Push(symstack.FunctionScope, name)
	p.curFunc = frame

	p.emit.Label(ir.FuncEntryLabel(name))
	p.emit.Emit("PUSHFRAME")

	for i := 0; i < returns.Len(); i++ {
		slot := p.emit.DefVar(frame.UniqueID, "return"+strconv.Itoa(i))
		p.emit.Emitf("MOVE %s %s", slot, ir.NilLiteral)
	}
	for i := len(paramNames) - 1; i >= 0; i-- {
		varName := p.emit.DefVar(frame.UniqueID, paramNames[i])
		p.syms.PutSymbol(paramNames[i], symtab.KindForVarType(paramTypes[i]))
		p.emit.Emitf("POPS %s", varName)
	}

	p.parseStmtListInBody(token.END)
	p.expect(token.END)

	p.emit.Label(ir.FuncExitLabel(name))
	p.emitReturnPush(frame.UniqueID, returns.Len())
	p.emit.Emit("POPFRAME")
	p.emit.Emit("RETURN")

	p.syms.Pop()
	p.curFunc = prevFunc
	p.returnSig = prevReturns
	p.emit.SetActive(prevActive)
}

func returnSlotVar(frameID uint64, i int) string {
	return ir.LocalVar(frameID, "return"+strconv.Itoa(i))
}

// emitReturnPush pushes a function's n hidden return slots in reverse index
// order, so the first return value ends up on top of the stack (the
// calling convention call.go's adjustReturns relies on).
func (p *Parser) emitReturnPush(frameID uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		p.emit.PushOperand(returnSlotVar(frameID, i))
	}
}

// ---- Statement dispatch inside a function/loop/condition body ----

func (p *Parser) parseStmtListInBody(enders ...token.Token) {
	for {
		for _, e := range enders {
			if p.tok == e {
				return
			}
		}
		if p.at(token.EOF) {
			p.fail(ifjerr.Syntax, "unexpected end of file inside a block")
		}
		p.parseBodyStmt()
	}
}

func (p *Parser) parseBodyStmt() {
	switch p.tok {
	case token.LOCAL:
		p.parseLocalDecl()
	case token.IF:
		p.parseIfStmt()
	case token.WHILE:
		p.parseWhileStmt()
	case token.REPEAT:
		p.parseRepeatStmt()
	case token.FOR:
		p.parseForStmt()
	case token.RETURN:
		p.parseReturnStmt()
	case token.BREAK:
		p.parseBreakStmt()
	case token.IDENT:
		p.parseIdentStmt()
	default:
		p.fail(ifjerr.Syntax, "unexpected token %s in statement", p.describeCur())
	}
}

// parseLocalDecl implements "local" ID ":" Type ["=" Expr]; an omitted
// initializer defaults the variable to nil rather than a zero value of its
// declared type, so later arithmetic/comparison on it must still pass
// through the runtime nil-check.
func (p *Parser) parseLocalDecl() {
	p.expect(token.LOCAL)
	name, pos := p.expectIdent()
	p.expect(token.COLON)
	declType := p.typeFromKeyword()

	top := p.syms.Top()
	if _, exists := top.Table.Get(name); exists {
		p.failAt(ifjerr.Undefined, pos, "variable %q already declared in this scope", name)
	}
	varName := p.emit.DefVar(top.UniqueID, name)
	p.syms.PutSymbol(name, symtab.KindForVarType(declType))

	if p.at(token.EQ) {
		p.advance()
		exprType := p.parseExpr()
		p.storeTopInto(exprType, declType, varName)
	} else {
		p.emit.Emitf("MOVE %s %s", varName, ir.NilLiteral)
	}
}

// storeTopInto converts (if needed) and pops the value currently on top of
// the evaluation stack into varName, checking src against dst the same way
// call argument conversion does.
func (p *Parser) storeTopInto(src, dst types.Code, varName string) {
	switch {
	case src == types.Nil:
	case src == dst:
	case src == types.Integer && dst == types.Float:
		p.emit.Emitf("POPS %s", varName)
		p.emit.Emitf("INT2FLOAT %s %s", varName, varName)
		return
	default:
		p.fail(ifjerr.TypeMismatch, "cannot assign a value of type %s to a variable of type %s", src, dst)
	}
	p.emit.Emitf("POPS %s", varName)
}

// ---- Identifier-led statement: assignment or bare call ----

type targetInfo struct {
	varName      string
	declaredType types.Code
}

func (p *Parser) resolveTarget(name string, pos token.Position) targetInfo {
	sym, frame := p.syms.GetSymbol(name)
	if sym == nil || sym.FunctionSem != nil {
		p.failAt(ifjerr.Undefined, pos, "assignment to undefined variable %q", name)
	}
	return targetInfo{varName: ir.LocalVar(frame.UniqueID, name), declaredType: sym.VarTypeCode()}
}

func (p *Parser) parseIdentStmt() {
	name, pos := p.expectIdent()
	if p.at(token.LPAREN) {
		p.parseCallExpr(name, pos, 0)
		return
	}

	targets := []targetInfo{p.resolveTarget(name, pos)}
	for p.at(token.COMMA) {
		p.advance()
		n, np := p.expectIdent()
		targets = append(targets, p.resolveTarget(n, np))
	}
	p.expect(token.EQ)
	p.parseAssignRHS(targets)
}

// parseAssignRHS implements multi-value assignment: every RHS expression
// contributes exactly one value, except when the RHS list holds exactly one
// expression that is itself a bare function call, which then fans out
// across every target (missing values become nil, excess values are
// discarded). If further RHS expressions follow that call, only its first
// return value is used, the same as any other single-valued expression.
func (p *Parser) parseAssignRHS(targets []targetInfo) {
	if p.at(token.IDENT) {
		name, pos := p.expectIdent()
		if p.at(token.LPAREN) {
			target := p.resolveCallTarget(name, pos)
			if target.isVariadic {
				p.fail(ifjerr.Other, "write() has no return value to assign")
			}
			p.expect(token.LPAREN)
			argc := p.parseArgList(target.info.Params)
			p.expect(token.RPAREN)
			if argc != target.info.Params.Len() {
				p.failAt(ifjerr.WrongArgsOrReturn, pos, "function %q expects %d argument(s), got %d", name, target.info.Params.Len(), argc)
			}
			p.ensureBuiltinHelper(name)
			p.emit.Emitf("CALL $%s", name)
			if p.at(token.COMMA) {
				first := p.adjustReturns(target.info.Returns, 1)
				values := []types.Code{first[0]}
				for p.at(token.COMMA) {
					p.advance()
					values = append(values, p.parseExpr())
				}
				p.assignSequentialValues(targets, values)
				return
			}
			adjusted := p.adjustReturns(target.info.Returns, len(targets))
			p.assignFannedValues(targets, adjusted)
			return
		}

		p.pendingIdent = &pendingIdentTok{name: name, pos: pos}
		values := []types.Code{p.parseExpr()}
		for p.at(token.COMMA) {
			p.advance()
			values = append(values, p.parseExpr())
		}
		p.assignSequentialValues(targets, values)
		return
	}

	values := []types.Code{p.parseExpr()}
	for p.at(token.COMMA) {
		p.advance()
		values = append(values, p.parseExpr())
	}
	p.assignSequentialValues(targets, values)
}

// assignSequentialValues stores values pushed by ordinary left-to-right
// expression evaluation, where values[len-1] is on top of the stack.
func (p *Parser) assignSequentialValues(targets []targetInfo, values []types.Code) {
	for i := len(values) - 1; i >= 0; i-- {
		if i >= len(targets) {
			p.emit.DiscardTop()
			continue
		}
		p.storeTopInto(values[i], targets[i].declaredType, targets[i].varName)
	}
	for i := len(values); i < len(targets); i++ {
		p.emit.Emitf("MOVE %s %s", targets[i].varName, ir.NilLiteral)
	}
}

// assignFannedValues stores a call's adjusted return tuple, where
// values[0] is on top of the stack (adjustReturns' convention).
func (p *Parser) assignFannedValues(targets []targetInfo, values []types.Code) {
	for i := 0; i < len(values) && i < len(targets); i++ {
		p.storeTopInto(values[i], targets[i].declaredType, targets[i].varName)
	}
	for i := len(values); i < len(targets); i++ {
		p.emit.Emitf("MOVE %s %s", targets[i].varName, ir.NilLiteral)
	}
}

// ---- if / while / repeat / for / return / break ----

func (p *Parser) requireBoolCond(t types.Code, construct string) {
	if t != types.Boolean {
		p.fail(ifjerr.TypeIncompatible, "%s condition must be boolean, found %s", construct, t)
	}
}

// parseIfStmt implements "if" Expr "then" FuncBody {"elseif" Expr "then"
// FuncBody} ["else" FuncBody] "end". Each branch gets its own Condition
// scope frame; the label id threaded through ir.PushCond is a logic-counter
// id rather than any one branch's scope unique id, since the branches are
// genuinely separate scopes but share one label namespace. The branch
// index itself is tracked locally rather than through the emitter, since it
// only needs to count up within this one if-chain.
func (p *Parser) parseIfStmt() {
	p.expect(token.IF)
	id := p.newLogicID()
	p.emit.PushCond(id)

	branch := 0
	for {
		condType := p.parseExpr()
		p.requireBoolCond(condType, "'if'")
		p.expect(token.THEN)

		nextLabel := ir.IfBranchLabel(id, branch+1)
		p.emit.BranchIfFalse(nextLabel)
		p.emit.Label(ir.IfBranchLabel(id, branch))

		p.syms.Push(symstack.Condition, p.syms.EnclosingFunctionName())
		p.parseStmtListInBody(token.ELSEIF, token.ELSE, token.END)
		p.syms.Pop()

		p.emit.Emitf("JUMP %s", ir.IfEndLabel(id))
		p.emit.Label(nextLabel)
		branch++

		if p.at(token.ELSEIF) {
			p.advance()
			continue
		}
		break
	}

	if p.at(token.ELSE) {
		p.advance()
		p.syms.Push(symstack.Condition, p.syms.EnclosingFunctionName())
		p.parseStmtListInBody(token.END)
		p.syms.Pop()
	}

	p.expect(token.END)
	p.emit.Label(ir.IfEndLabel(id))
	p.emit.PopCond()
}

// parseWhileStmt implements "while" Expr "do" FuncBody "end".
func (p *Parser) parseWhileStmt() {
	p.expect(token.WHILE)
	frame := p.syms.Push(symstack.WhileLoop, p.syms.EnclosingFunctionName())
	id := frame.UniqueID

	p.emit.PushLoop()
	p.emit.Label(ir.WhileHeaderLabel(id))
	condType := p.parseExpr()
	p.requireBoolCond(condType, "'while'")
	p.emit.BranchIfFalse(ir.LoopEndLabel(id))
	p.expect(token.DO)

	p.parseStmtListInBody(token.END)
	p.expect(token.END)

	p.emit.Emitf("JUMP %s", ir.WhileHeaderLabel(id))
	p.emit.Label(ir.LoopEndLabel(id))
	p.emit.PopLoop()
	p.syms.Pop()
}

// parseRepeatStmt implements "repeat" FuncBody "until" Expr: the loop
// repeats while the condition is false and exits once it is true.
func (p *Parser) parseRepeatStmt() {
	p.expect(token.REPEAT)
	frame := p.syms.Push(symstack.RepeatUntilLoop, p.syms.EnclosingFunctionName())
	id := frame.UniqueID

	p.emit.PushLoop()
	p.emit.Label(ir.RepeatHeaderLabel(id))
	p.parseStmtListInBody(token.UNTIL)
	p.expect(token.UNTIL)

	condType := p.parseExpr()
	p.requireBoolCond(condType, "'until'")
	p.emit.BranchIfFalse(ir.RepeatHeaderLabel(id))
	p.emit.Label(ir.LoopEndLabel(id))
	p.emit.PopLoop()
	p.syms.Pop()
}

// parseForStmt implements "for" ID "=" Expr "," Expr ["," Expr] "do"
// FuncBody "end", lowering through ir.ForLoop.
func (p *Parser) parseForStmt() {
	p.expect(token.FOR)
	varName, varPos := p.expectIdent()
	p.expect(token.EQ)

	initType := p.parseExpr()
	if !initType.IsNumeric() {
		p.failAt(ifjerr.TypeIncompatible, varPos, "'for' initial value must be numeric, found %s", initType)
	}
	p.expect(token.COMMA)
	limitType := p.parseExpr()
	if !limitType.IsNumeric() {
		p.fail(ifjerr.TypeIncompatible, "'for' limit must be numeric, found %s", limitType)
	}
	hasStep := false
	if p.at(token.COMMA) {
		p.advance()
		stepType := p.parseExpr()
		if !stepType.IsNumeric() {
			p.fail(ifjerr.TypeIncompatible, "'for' step must be numeric, found %s", stepType)
		}
		hasStep = true
	}
	p.expect(token.DO)

	frame := p.syms.Push(symstack.ForLoop, p.syms.EnclosingFunctionName())
	id := frame.UniqueID

	loopVar := p.emit.DefVar(id, varName)
	limitVar := p.emit.DefVar(id, "%for_limit")
	stepVar := p.emit.DefVar(id, "%for_step")
	stepUpVar := p.emit.DefVar(id, "%for_step_up")
	p.syms.PutSymbol(varName, symtab.KindForVarType(initType))

	fl := ir.ForLoop{ID: id, Var: loopVar, Limit: limitVar, Step: stepVar, StepUp: stepUpVar}
	p.emit.PushLoop()
	p.emit.EmitForInit(fl, hasStep)
	p.emit.EmitForHeader(fl)

	p.parseStmtListInBody(token.END)
	p.expect(token.END)

	p.emit.EmitForStep(fl)
	p.emit.PopLoop()
	p.syms.Pop()
}

// parseReturnStmt implements "return" [ExprList]. The expressions are
// matched pairwise against the enclosing function's declared return types;
// providing more values than declared is rejected (WrongArgsOrReturn)
// rather than silently truncated. Missing trailing values keep whatever the
// function-entry nil initialization left in their slot. The matched values
// are stored into the hidden return-slot locals in reverse parse order
// (stack top = last parsed), then control jumps to the function's single
// exit point.
func (p *Parser) parseReturnStmt() {
	retPos := p.pos()
	p.expect(token.RETURN)

	declared := p.returnSig
	var argTypes []types.Code
	if startsExpr(p.tok) {
		for {
			argTypes = append(argTypes, p.parseExpr())
			if !p.at(token.COMMA) {
				break
			}
			p.advance()
		}
	}

	k := len(argTypes)
	n := declared.Len()
	if k > n {
		p.failAt(ifjerr.WrongArgsOrReturn, retPos, "function %q returns %d value(s) but declares %d", p.curFunc.EnclosingFunctionName, k, n)
	}

	for i := k - 1; i >= 0; i-- {
		if argTypes[i] != types.Nil && argTypes[i] != declared.At(i) && !(argTypes[i] == types.Integer && declared.At(i) == types.Float) {
			p.failAt(ifjerr.TypeMismatch, retPos, "return value %d has type %s, declared type is %s", i+1, argTypes[i], declared.At(i))
		}
		slot := returnSlotVar(p.curFunc.UniqueID, i)
		if argTypes[i] == types.Integer && declared.At(i) == types.Float {
			p.emit.Emitf("POPS %s", slot)
			p.emit.Emitf("INT2FLOAT %s %s", slot, slot)
		} else {
			p.emit.Emitf("POPS %s", slot)
		}
	}

	p.emit.Emitf("JUMP %s", ir.FuncExitLabel(p.curFunc.EnclosingFunctionName))
}

// startsExpr reports whether tok can begin an expression, used to tell
// "return" with no values apart from "return <exprs>".
func startsExpr(tok token.Token) bool {
	switch tok {
	case token.END, token.ELSEIF, token.ELSE, token.UNTIL, token.EOF:
		return false
	default:
		return true
	}
}

// parseBreakStmt implements "break", validated by walking the scope stack
// rather than tagging statements syntactically.
func (p *Parser) parseBreakStmt() {
	pos := p.pos()
	p.expect(token.BREAK)
	id, ok := p.syms.NearestLoopID()
	if !ok {
		p.failAt(ifjerr.Other, pos, "'break' used outside of a loop")
	}
	p.emit.Emitf("JUMP %s", ir.LoopEndLabel(id))
}

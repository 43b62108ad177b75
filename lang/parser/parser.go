// Package parser implements the LL(1) statement driver and the embedded
// operator-precedence expression parser, sharing one token cursor between
// the two rather than building and walking a separate parse tree.
package parser

import (
	"fmt"

	"github.com/dolthub/swiss"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ifj21-compiler/ifjc/internal/ifjerr"
	"github.com/ifj21-compiler/ifjc/lang/ir"
	"github.com/ifj21-compiler/ifjc/lang/scanner"
	"github.com/ifj21-compiler/ifjc/lang/symstack"
	"github.com/ifj21-compiler/ifjc/lang/symtab"
	"github.com/ifj21-compiler/ifjc/lang/token"
	"github.com/ifj21-compiler/ifjc/lang/types"
)

// errHalt is the panic value used to unwind out of the recursive-descent
// call stack as soon as the single current-error slot is set. There is no
// error recovery beyond that: parsing simply stops, since nothing
// downstream of the first error is ever used.
var errHalt = fmt.Errorf("parse halted")

// Parser drives both the statement grammar and the expression parser over a
// single shared token cursor, reporting into one ifjerr.Sink and mirroring
// every accepted construct to an ir.Emitter.
type Parser struct {
	scanner scanner.Scanner
	file    *token.File

	tok token.Token
	val token.Value

	errs ifjerr.Sink
	syms *symstack.Stack
	emit *ir.Emitter

	// builtins maps the compiler's fixed-signature built-in functions (reads,
	// readi, readn, tointeger, chr, ord, substr) to their signatures,
	// pre-registered so call sites resolve them without a user-visible
	// declaration. The variadic write is not in this map; it is resolved by
	// name.
	builtins *swiss.Map[string, types.FunctionInfo]

	// returnSig is the declared return signature of the function currently
	// being parsed, used to check Return statements; empty outside of any
	// function body.
	returnSig types.Signature

	// logicCounter gives each and/or short-circuit reduction a distinct label
	// id; it is independent of scope unique ids since and/or does not push a
	// scope frame of its own.
	logicCounter uint64

	// tempVars caches the one DEFVAR'd temporary per (scope, purpose) pair
	// that EmitConcat/EmitStrLen/call-argument conversion/return-adjustment
	// reuse, so a given scope never DEFVARs the same helper temporary twice.
	tempVars *swiss.Map[tempKey, string]

	// curFunc is the scope frame of the function body currently being
	// parsed, used by "return" to reach its hidden return slots and exit
	// label directly regardless of how many loop/condition frames are
	// nested inside it. nil at top level, where "return" cannot occur.
	curFunc *symstack.Frame

	// pendingIdent holds an identifier token the statement driver already
	// consumed to check whether it starts a call, so the expression parser
	// can resume from it instead of re-reading a token that is no longer
	// current (used by parseAssignRHS's plain-identifier RHS case).
	pendingIdent *pendingIdentTok
}

type pendingIdentTok struct {
	name string
	pos  token.Position
}

// New creates a Parser ready to compile src under the given file name,
// reporting positions against fset.
func New(fset *token.FileSet, filename string, src []byte) *Parser {
	p := &Parser{
		syms:     symstack.New(),
		emit:     ir.New(),
		builtins: swiss.NewMap[string, types.FunctionInfo](8),
		tempVars: swiss.NewMap[tempKey, string](16),
	}
	p.file = fset.AddFile(filename, -1, len(src))
	p.scanner.Init(p.file, src, p.scanError)
	p.registerBuiltins()
	p.advance()
	return p
}

func (p *Parser) scanError(pos token.Position, msg string) {
	p.errs.Record(ifjerr.Lexical, pos, msg)
}

func (p *Parser) advance() {
	p.tok = p.scanner.Scan(&p.val)
}

func (p *Parser) pos() token.Position { return p.file.Position(p.val.Pos) }

// fail records a diagnostic of the given kind at the current token's
// position (unless one is already recorded) and halts parsing.
func (p *Parser) fail(kind ifjerr.Kind, format string, args ...any) {
	p.errs.Recordf(kind, p.pos(), format, args...)
	panic(errHalt)
}

func (p *Parser) failAt(kind ifjerr.Kind, pos token.Position, format string, args ...any) {
	p.errs.Recordf(kind, pos, format, args...)
	panic(errHalt)
}

// expect consumes the current token if it matches tok, otherwise records a
// syntax error and halts.
func (p *Parser) expect(tok token.Token) token.Value {
	if p.tok != tok {
		p.fail(ifjerr.Syntax, "expected %s, found %s", tok.GoString(), p.describeCur())
	}
	v := p.val
	p.advance()
	return v
}

func (p *Parser) describeCur() string {
	if lit := p.tok.Literal(p.val); lit != "" {
		return lit
	}
	return p.tok.GoString()
}

func (p *Parser) at(tok token.Token) bool { return p.tok == tok }

// expectIdent consumes an identifier token and returns its text.
func (p *Parser) expectIdent() (string, token.Position) {
	pos := p.pos()
	v := p.expect(token.IDENT)
	return v.Raw, pos
}

// Compile drives the whole program grammar and returns the assembled IR
// text along with the error sink (First()/ExitCode() report the outcome).
// Output is byte-identical across repeated runs on the same input, since
// neither the parser nor the emitter holds any process-global or
// time-dependent state.
func (p *Parser) Compile() (ir string, sink *ifjerr.Sink) {
	func() {
		defer func() {
			if r := recover(); r != nil {
				if r != errHalt {
					p.errs.Record(ifjerr.Internal, token.Position{}, fmt.Sprint(r))
				}
			}
		}()
		p.parseProgram()
		if !p.errs.Failed() {
			p.checkAllFunctionsDefined()
		}
	}()
	if p.errs.Failed() {
		return "", &p.errs
	}
	return p.emit.Program(), &p.errs
}

// checkAllFunctionsDefined enforces that every global function symbol ends
// up defined or builtin. Offending names are collected into a set and
// sorted explicitly with x/exp/maps and x/exp/slices rather than relied
// upon to come out of the BST traversal in order, so the diagnostic text
// stays reproducible even if the symbol table's insertion or traversal
// order ever changes.
func (p *Parser) checkAllFunctionsDefined() {
	global := p.syms.Global()
	undefined := make(map[string]struct{})
	global.Table.Traverse(func(sym *symtab.Symbol) bool {
		if sym.FunctionSem == nil {
			return true
		}
		fs := sym.FunctionSem
		if fs.IsDeclared && !fs.IsDefined && !fs.IsBuiltin {
			undefined[sym.Name] = struct{}{}
		}
		return true
	})
	if len(undefined) > 0 {
		names := maps.Keys(undefined)
		slices.Sort(names)
		p.failAt(ifjerr.Undefined, token.Position{}, "function(s) declared but never defined: %s", symtab.FormatNames(names))
	}
}

// Package symstack implements the scoped symbol stack: an ordered stack of
// symtab.Table frames representing lexical scopes.
package symstack

import "github.com/ifj21-compiler/ifjc/lang/symtab"

// Kind identifies the syntactic construct that introduced a scope frame.
type Kind int

const (
	Global Kind = iota
	FunctionScope
	WhileLoop
	RepeatUntilLoop
	ForLoop
	Condition
)

// IsLoop reports whether frames of this kind participate in break
// resolution.
func (k Kind) IsLoop() bool {
	return k == WhileLoop || k == RepeatUntilLoop || k == ForLoop
}

// Frame is one lexical scope: its symbol table, the construct kind that
// created it, its nesting depth and its globally unique id.
type Frame struct {
	Table                 symtab.Table
	Kind                  Kind
	NestingLevel          uint
	UniqueID              uint64
	EnclosingFunctionName string // only meaningful for FunctionScope frames
}

// Stack is the ordered stack of scope frames. The bottom frame is always the
// global frame and is the only frame that holds function symbols.
type Stack struct {
	frames []*Frame // frames[0] is the bottom (global) frame; last is top
	nextID uint64
}

// New creates a stack with its global frame already pushed.
func New() *Stack {
	s := &Stack{}
	s.Push(Global, "")
	return s
}

// Push creates a new frame of the given kind on top of the stack. The new
// frame's unique id is taken from a monotonically increasing counter that is
// never reused, even after the frame is popped; its nesting level is one
// more than the current top frame's, or 0 if the stack is empty.
func (s *Stack) Push(kind Kind, enclosingFuncName string) *Frame {
	level := uint(0)
	if len(s.frames) > 0 {
		level = s.Top().NestingLevel + 1
	}
	f := &Frame{
		Kind:                  kind,
		NestingLevel:          level,
		UniqueID:              s.nextID,
		EnclosingFunctionName: enclosingFuncName,
	}
	s.nextID++
	s.frames = append(s.frames, f)
	return f
}

// Pop destroys the top frame, freeing every symbol it owns.
func (s *Stack) Pop() {
	if len(s.frames) == 0 {
		return
	}
	top := s.frames[len(s.frames)-1]
	top.Table.Destroy()
	s.frames = s.frames[:len(s.frames)-1]
}

// Top returns the current innermost frame, or nil if the stack is empty.
func (s *Stack) Top() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Global returns the bottom (global) frame, or nil if the stack is empty.
func (s *Stack) Global() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[0]
}

// PutSymbol delegates to the top frame's table. It panics if the stack is
// empty, since every parse happens inside at least the global frame.
func (s *Stack) PutSymbol(name string, kind symtab.Kind) *symtab.Symbol {
	top := s.Top()
	if top == nil {
		panic("symstack: put_symbol on empty stack")
	}
	sym := top.Table.Put(name, kind)
	sym.ParentScopeID = top.UniqueID
	return sym
}

// GetSymbol walks from the top of the stack down, returning the first
// matching symbol and the frame it lives in.
func (s *Stack) GetSymbol(name string) (*symtab.Symbol, *Frame) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if sym, ok := s.frames[i].Table.Get(name); ok {
			return sym, s.frames[i]
		}
	}
	return nil, nil
}

// GetLocalSymbol is like GetSymbol but excludes the bottom (global) frame;
// it is used to decide whether an identifier refers to a local variable
// without ever matching a function symbol, since only the global frame
// holds those.
func (s *Stack) GetLocalSymbol(name string) (*symtab.Symbol, *Frame) {
	for i := len(s.frames) - 1; i >= 1; i-- {
		if sym, ok := s.frames[i].Table.Get(name); ok {
			return sym, s.frames[i]
		}
	}
	return nil, nil
}

// ScopeInfo reports the top frame's kind, nesting level and unique id.
func (s *Stack) ScopeInfo() (kind Kind, level uint, id uint64) {
	top := s.Top()
	if top == nil {
		return Global, 0, 0
	}
	return top.Kind, top.NestingLevel, top.UniqueID
}

// EnclosingFunctionName walks upward from the top of the stack and returns
// the name of the first enclosing frame of kind FunctionScope, or "" if
// there is none (e.g. code at the very top level, outside any function).
func (s *Stack) EnclosingFunctionName() string {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Kind == FunctionScope {
			return s.frames[i].EnclosingFunctionName
		}
	}
	return ""
}

// InLoop reports whether any frame on the stack, from the top down to the
// global frame, is a loop frame. The parser validates "break" with
// NearestLoopID, which does the same walk and also returns the loop's id.
func (s *Stack) InLoop() bool {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Kind.IsLoop() {
			return true
		}
	}
	return false
}

// Len reports the number of frames currently on the stack.
func (s *Stack) Len() int { return len(s.frames) }

// NearestLoopID walks from the top of the stack down and returns the unique
// id of the first loop-kind frame found, or false if "break" has no
// enclosing loop to target.
func (s *Stack) NearestLoopID() (uint64, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Kind.IsLoop() {
			return s.frames[i].UniqueID, true
		}
	}
	return 0, false
}

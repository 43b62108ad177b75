// Package ir implements the code emitter: the component that assembles the
// three disjoint IFJcode21 instruction streams (prologue, function
// definitions, main), synthesizes labels and variable names from scope
// unique ids, and folds in the runtime helper library.
package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dolthub/swiss"
)

// Stream identifies one of the three disjoint instruction lists that make up
// a compiled program.
type Stream int

const (
	Prologue Stream = iota
	Functions
	Main
	numStreams
)

// emittedVarKey is the (owning scope unique id, source name) pair that must
// be distinct across the whole program.
type emittedVarKey struct {
	scopeID uint64
	name    string
}

// loopHoist tracks the single insertion point used to hoist every DEFVAR
// emitted inside a loop to just before that loop's outermost header. Only
// the outermost loop in a nest owns a hoist point; inner loops share it.
type loopHoist struct {
	stream Stream
	index  *int
}

// Emitter assembles the three IR streams and owns the generator context: the
// active stream, loop/DEFVAR hoisting state and the nested-if bookkeeping
// stack.
type Emitter struct {
	lists  [numStreams][]string
	active Stream

	// helpersEmitted guards against writing the same runtime helper body into
	// the prologue twice, keyed by helper name in a github.com/dolthub/swiss
	// hash set.
	helpersEmitted *swiss.Map[string, struct{}]

	// emittedVars enforces that every (scope id, name) pair is DEFVAR'd at
	// most once across the whole program.
	emittedVars *swiss.Map[emittedVarKey, struct{}]

	loopStack []loopHoist // nil/empty outside of any loop

	condStack []condFrame // nested if/elseif/else bookkeeping
}

type condFrame struct {
	id uint64
}

// New creates an empty Emitter with Main as the initially active stream.
func New() *Emitter {
	return &Emitter{
		helpersEmitted: swiss.NewMap[string, struct{}](8),
		emittedVars:    swiss.NewMap[emittedVarKey, struct{}](64),
		active:         Main,
	}
}

// SetActive switches the stream subsequent Emit calls append to. The parser
// calls this at scope entry (entering a function definition switches to
// Functions; returning to top level switches back to Main).
func (e *Emitter) SetActive(s Stream) { e.active = s }

// Active returns the currently selected stream.
func (e *Emitter) Active() Stream { return e.active }

// Emit appends one already-formatted instruction line to the active stream.
func (e *Emitter) Emit(line string) {
	e.lists[e.active] = append(e.lists[e.active], line)
}

// Emitf is Emit with fmt.Sprintf formatting.
func (e *Emitter) Emitf(format string, args ...any) {
	e.Emit(fmt.Sprintf(format, args...))
}

// EmitTo appends line to an explicit stream regardless of which one is
// currently active; used by helper emission, which always targets Prologue.
func (e *Emitter) EmitTo(s Stream, line string) {
	e.lists[s] = append(e.lists[s], line)
}

// Label emits a LABEL instruction for name.
func (e *Emitter) Label(name string) { e.Emitf("LABEL %s", name) }

// ---- Label synthesis ----

// FuncEntryLabel and FuncExitLabel name a function's entry and exit points.
func FuncEntryLabel(name string) string { return "$" + name }
func FuncExitLabel(name string) string  { return "$" + name + "$end" }

// IfBranchLabel and IfEndLabel name one branch of a multi-way if and its
// shared end label.
func IfBranchLabel(id uint64, branch int) string {
	return fmt.Sprintf("$if$%d$%d", id, branch)
}
func IfEndLabel(id uint64) string { return fmt.Sprintf("$if$%d$end", id) }

// WhileHeaderLabel/WhileEndLabel, RepeatHeaderLabel/RepeatEndLabel name loop
// header and exit points.
func WhileHeaderLabel(id uint64) string  { return fmt.Sprintf("$while$%d", id) }
func RepeatHeaderLabel(id uint64) string { return fmt.Sprintf("$repeat$%d", id) }
func LoopEndLabel(id uint64) string      { return fmt.Sprintf("$end$%d", id) }

// For-loop labels: header, body, step-direction test and exit.
func ForHeaderLabel(id uint64) string { return fmt.Sprintf("$for$%d", id) }
func ForBodyLabel(id uint64) string   { return fmt.Sprintf("$for$%d$body", id) }
func ForStepLeLabel(id uint64) string { return fmt.Sprintf("$for$%d$step_le", id) }

// ---- Variable naming ----

// LocalVar returns the emitted IR name for a local variable owned by the
// scope with the given unique id. It is unique by construction: scope ids
// are unique and names are unique within a single scope (redeclaration of a
// local within the same scope is rejected earlier, by the parser).
func LocalVar(scopeID uint64, name string) string {
	return fmt.Sprintf("LF@%%%d%%%s", scopeID, name)
}

// DefVar emits a DEFVAR for a local variable, honoring the loop-hoisting
// invariant: if currently inside any loop, the DEFVAR is inserted just
// before the outermost enclosing loop's header instead of at the current
// position. It also enforces that (scope id, name) pairs are unique; a
// violation is an internal compiler error, since the parser rejects a
// same-scope redeclaration of a local before any DEFVAR is requested.
func (e *Emitter) DefVar(scopeID uint64, name string) string {
	key := emittedVarKey{scopeID, name}
	if _, dup := e.emittedVars.Get(key); dup {
		panic(fmt.Sprintf("internal error: duplicate DEFVAR for scope %d var %q", scopeID, name))
	}
	e.emittedVars.Put(key, struct{}{})

	line := "DEFVAR " + LocalVar(scopeID, name)
	if len(e.loopStack) == 0 {
		e.Emit(line)
		return LocalVar(scopeID, name)
	}

	hoist := e.loopStack[0]
	idx := *hoist.index
	list := e.lists[hoist.stream]
	list = append(list, "")
	copy(list[idx+1:], list[idx:])
	list[idx] = line
	e.lists[hoist.stream] = list
	*hoist.index++
	return LocalVar(scopeID, name)
}

// PushLoop registers entry into a loop for DEFVAR-hoisting purposes. If this
// is not a nested loop, it records the current end of the active stream as
// the hoist point; nested loops reuse the outermost hoist point unchanged.
func (e *Emitter) PushLoop() {
	if len(e.loopStack) > 0 {
		e.loopStack = append(e.loopStack, e.loopStack[0])
		return
	}
	idx := len(e.lists[e.active])
	e.loopStack = append(e.loopStack, loopHoist{stream: e.active, index: &idx})
}

// PopLoop undoes the effect of the matching PushLoop.
func (e *Emitter) PopLoop() {
	if len(e.loopStack) == 0 {
		panic("internal error: PopLoop with no active loop")
	}
	e.loopStack = e.loopStack[:len(e.loopStack)-1]
}

// ---- Nested if/elseif/else bookkeeping ----

// PushCond records entry into a new (possibly nested) if-chain whose labels
// use the given id (the parser passes a logic-counter id here, not a scope
// unique id).
func (e *Emitter) PushCond(id uint64) { e.condStack = append(e.condStack, condFrame{id: id}) }

// PopCond exits the current if-chain.
func (e *Emitter) PopCond() { e.condStack = e.condStack[:len(e.condStack)-1] }

// ---- Program assembly ----

// Program returns the final IR text: prologue, then function definitions,
// then main, in that fixed order, wrapped with the required header and the
// main block's closing LABEL/CLEARS pair.
func (e *Emitter) Program() string {
	var sb strings.Builder
	sb.WriteString(".IFJcode21\n")
	for _, s := range e.lists[Prologue] {
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	for _, s := range e.lists[Functions] {
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	sb.WriteString("LABEL $$MAIN\n")
	for _, s := range e.lists[Main] {
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	sb.WriteString("LABEL $$MAIN$end\n")
	sb.WriteString("CLEARS\n")
	return sb.String()
}

// QuoteString escapes a decoded IFJ21 string literal into IFJcode21's
// string@ escaping: every byte <= 32, '#' and '\' is escaped as \DDD.
func QuoteString(s string) string {
	var sb strings.Builder
	sb.WriteString("string@")
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= 32 || c == '#' || c == '\\' {
			sb.WriteByte('\\')
			sb.WriteString(pad3(int(c)))
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func pad3(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

package ir

// This file emits the fixed prologue header and the runtime helper library:
// the small IFJcode21 routines that back operators and built-ins which can't
// be expressed as a single instruction (reads/readi/readn/write/tointeger/
// chr/ord/substr, $$power, $$modulo, $$nil_check, $$recast_to_bool,
// $$recast_to_float_*).

// EmitHeader writes the fixed prologue preamble: the three scratch
// registers, a forward jump to $$MAIN (so the runtime helpers that precede
// it in the instruction stream are never fallen into), and the two
// unconditional error labels for nil-dereference and division-by-zero.
func (e *Emitter) EmitHeader() {
	e.EmitTo(Prologue, "DEFVAR "+scratch1)
	e.EmitTo(Prologue, "DEFVAR "+scratch2)
	e.EmitTo(Prologue, "DEFVAR "+scratch3)
	e.EmitTo(Prologue, "JUMP $$MAIN")
	e.EmitTo(Prologue, "LABEL $$ERROR_NIL")
	e.EmitTo(Prologue, "EXIT int@8")
	e.EmitTo(Prologue, "LABEL $$ERROR_DIV_ZERO")
	e.EmitTo(Prologue, "EXIT int@9")
}

// once guards against emitting a helper body more than once even if several
// call sites request it, using a hash set the way swiss.Map is used
// elsewhere for exactly this kind of membership check (see emitter.go).
func (e *Emitter) once(name string, body func()) {
	if _, ok := e.helpersEmitted.Get(name); ok {
		return
	}
	e.helpersEmitted.Put(name, struct{}{})
	body()
}

// emitNilCheckHelper ensures $$nil_check is present: it pops two operands,
// traps to the nil-dereference exit on either one being nil, and otherwise
// pushes both back in their original order so the caller's arithmetic or
// comparison opcode can run immediately after.
func (e *Emitter) emitNilCheckHelper() {
	e.once("$$nil_check", func() {
		e.EmitTo(Prologue, "LABEL $$nil_check")
		e.EmitTo(Prologue, "POPS "+scratch2)
		e.EmitTo(Prologue, "POPS "+scratch1)
		e.EmitTo(Prologue, "JUMPIFEQ $$ERROR_NIL "+scratch1+" nil@nil")
		e.EmitTo(Prologue, "JUMPIFEQ $$ERROR_NIL "+scratch2+" nil@nil")
		e.EmitTo(Prologue, "PUSHS "+scratch1)
		e.EmitTo(Prologue, "PUSHS "+scratch2)
		e.EmitTo(Prologue, "RETURN")
	})
}

func (e *Emitter) emitDivZeroHelper() {
	e.once("$$check_div_zero", func() {
		e.EmitTo(Prologue, "LABEL $$check_div_zero")
		e.EmitTo(Prologue, "POPS "+scratch2)
		e.EmitTo(Prologue, "POPS "+scratch1)
		e.EmitTo(Prologue, "JUMPIFEQ $$ERROR_DIV_ZERO "+scratch2+" int@0")
		e.EmitTo(Prologue, "PUSHS "+scratch1)
		e.EmitTo(Prologue, "PUSHS "+scratch2)
		e.EmitTo(Prologue, "RETURN")
	})
}

func (e *Emitter) emitModuloHelper() {
	e.emitDivZeroHelper()
	e.once("$$modulo", func() {
		// computed as a - (a // b) * b, since IFJcode21 has no modulo opcode.
		e.EmitTo(Prologue, "LABEL $$modulo")
		e.EmitTo(Prologue, "POPS "+scratch2)
		e.EmitTo(Prologue, "POPS "+scratch1)
		e.EmitTo(Prologue, "JUMPIFEQ $$ERROR_DIV_ZERO "+scratch2+" int@0")
		e.EmitTo(Prologue, "PUSHS "+scratch1)
		e.EmitTo(Prologue, "PUSHS "+scratch2)
		e.EmitTo(Prologue, "IDIVS")
		e.EmitTo(Prologue, "PUSHS "+scratch2)
		e.EmitTo(Prologue, "MULS")
		e.EmitTo(Prologue, "PUSHS "+scratch1)
		e.EmitTo(Prologue, "SWAPS")
		e.EmitTo(Prologue, "SUBS")
		e.EmitTo(Prologue, "RETURN")
	})
}

func (e *Emitter) emitPowerHelper() {
	e.once("$$power", func() {
		// Exponentiation by repeated multiplication. Base and exponent both
		// arrive as floats (every arithmetic operand is coerced to float
		// before this helper is called), but the loop counts the exponent
		// down as an integer, so it is converted once up front; the
		// accumulator and base stay float throughout since MULS needs them
		// to match.
		e.EmitTo(Prologue, "LABEL $$power")
		e.EmitTo(Prologue, "PUSHFRAME")
		e.EmitTo(Prologue, "DEFVAR LF@%base")
		e.EmitTo(Prologue, "DEFVAR LF@%exp")
		e.EmitTo(Prologue, "DEFVAR LF@%acc")
		e.EmitTo(Prologue, "POPS LF@%exp")
		e.EmitTo(Prologue, "POPS LF@%base")
		e.EmitTo(Prologue, "FLOAT2INT LF@%exp LF@%exp")
		e.EmitTo(Prologue, "MOVE LF@%acc float@0x1p+0")
		e.EmitTo(Prologue, "LABEL $$power$loop")
		e.EmitTo(Prologue, "JUMPIFEQ $$power$end LF@%exp int@0")
		e.EmitTo(Prologue, "PUSHS LF@%acc")
		e.EmitTo(Prologue, "PUSHS LF@%base")
		e.EmitTo(Prologue, "MULS")
		e.EmitTo(Prologue, "POPS LF@%acc")
		e.EmitTo(Prologue, "SUB LF@%exp LF@%exp int@1")
		e.EmitTo(Prologue, "JUMP $$power$loop")
		e.EmitTo(Prologue, "LABEL $$power$end")
		e.EmitTo(Prologue, "PUSHS LF@%acc")
		e.EmitTo(Prologue, "POPFRAME")
		e.EmitTo(Prologue, "RETURN")
	})
}

func (e *Emitter) emitRecastHelpers() {
	e.once("$$recast_to_bool", func() {
		e.EmitTo(Prologue, "LABEL $$recast_to_bool")
		e.EmitTo(Prologue, "JUMPIFNEQ $$recast_to_bool$not_nil "+scratch1+" nil@nil")
		e.EmitTo(Prologue, "MOVE "+scratch1+" bool@false")
		e.EmitTo(Prologue, "JUMP $$recast_to_bool$end")
		e.EmitTo(Prologue, "LABEL $$recast_to_bool$not_nil")
		e.EmitTo(Prologue, "MOVE "+scratch1+" bool@true")
		e.EmitTo(Prologue, "LABEL $$recast_to_bool$end")
		e.EmitTo(Prologue, "RETURN")
	})

	e.once("$$recast_to_float_first", func() {
		e.EmitTo(Prologue, "LABEL $$recast_to_float_first")
		e.EmitTo(Prologue, "POPS "+scratch2)
		e.EmitTo(Prologue, "POPS "+scratch1)
		e.EmitTo(Prologue, "TYPE "+scratch3+" "+scratch1)
		e.EmitTo(Prologue, "JUMPIFEQ $$recast_to_float_first$end "+scratch3+" string@float")
		e.EmitTo(Prologue, "INT2FLOAT "+scratch1+" "+scratch1)
		e.EmitTo(Prologue, "LABEL $$recast_to_float_first$end")
		e.EmitTo(Prologue, "PUSHS "+scratch1)
		e.EmitTo(Prologue, "PUSHS "+scratch2)
		e.EmitTo(Prologue, "RETURN")
	})

	e.once("$$recast_to_float_second", func() {
		e.EmitTo(Prologue, "LABEL $$recast_to_float_second")
		e.EmitTo(Prologue, "POPS "+scratch2)
		e.EmitTo(Prologue, "POPS "+scratch1)
		e.EmitTo(Prologue, "TYPE "+scratch3+" "+scratch2)
		e.EmitTo(Prologue, "JUMPIFEQ $$recast_to_float_second$end "+scratch3+" string@float")
		e.EmitTo(Prologue, "INT2FLOAT "+scratch2+" "+scratch2)
		e.EmitTo(Prologue, "LABEL $$recast_to_float_second$end")
		e.EmitTo(Prologue, "PUSHS "+scratch1)
		e.EmitTo(Prologue, "PUSHS "+scratch2)
		e.EmitTo(Prologue, "RETURN")
	})

	e.once("$$recast_to_float_both", func() {
		e.EmitTo(Prologue, "LABEL $$recast_to_float_both")
		e.EmitTo(Prologue, "POPS "+scratch2)
		e.EmitTo(Prologue, "POPS "+scratch1)
		e.EmitTo(Prologue, "TYPE "+scratch3+" "+scratch1)
		e.EmitTo(Prologue, "JUMPIFEQ $$recast_to_float_both$second "+scratch3+" string@float")
		e.EmitTo(Prologue, "INT2FLOAT "+scratch1+" "+scratch1)
		e.EmitTo(Prologue, "LABEL $$recast_to_float_both$second")
		e.EmitTo(Prologue, "TYPE "+scratch3+" "+scratch2)
		e.EmitTo(Prologue, "JUMPIFEQ $$recast_to_float_both$end "+scratch3+" string@float")
		e.EmitTo(Prologue, "INT2FLOAT "+scratch2+" "+scratch2)
		e.EmitTo(Prologue, "LABEL $$recast_to_float_both$end")
		e.EmitTo(Prologue, "PUSHS "+scratch1)
		e.EmitTo(Prologue, "PUSHS "+scratch2)
		e.EmitTo(Prologue, "RETURN")
	})
}

// EmitReadBuiltin ensures the reads/readi/readn helper (one per IFJ21
// built-in read function, selected by typeTag "string"/"int"/"float") is
// present in the prologue.
func (e *Emitter) EmitReadBuiltin(name, typeTag string) {
	e.once("$"+name, func() {
		e.EmitTo(Prologue, "LABEL $"+name)
		e.EmitTo(Prologue, "PUSHFRAME")
		e.EmitTo(Prologue, "DEFVAR LF@%return0")
		e.EmitTo(Prologue, "READ LF@%return0 "+typeTag)
		e.EmitTo(Prologue, "PUSHS LF@%return0")
		e.EmitTo(Prologue, "POPFRAME")
		e.EmitTo(Prologue, "RETURN")
	})
}

// EmitWriteBuiltin ensures the variadic write() helper is present; it is
// called once per argument by the statement/expression parser, each time
// with exactly one value already pushed on the stack (write's arguments are
// evaluated left to right by the caller, one CALL $write per argument).
func (e *Emitter) EmitWriteBuiltin() {
	e.once("$write", func() {
		e.EmitTo(Prologue, "LABEL $write")
		e.EmitTo(Prologue, "PUSHFRAME")
		e.EmitTo(Prologue, "DEFVAR LF@%0")
		e.EmitTo(Prologue, "POPS LF@%0")
		e.EmitTo(Prologue, "WRITE LF@%0")
		e.EmitTo(Prologue, "POPFRAME")
		e.EmitTo(Prologue, "RETURN")
	})
}

// EmitToIntegerBuiltin ensures tointeger(n:number):integer is present; a nil
// argument propagates as nil (unlike chr/ord/substr, which trap to the
// nil-dereference exit on a nil argument).
func (e *Emitter) EmitToIntegerBuiltin() {
	e.once("$tointeger", func() {
		e.EmitTo(Prologue, "LABEL $tointeger")
		e.EmitTo(Prologue, "PUSHFRAME")
		e.EmitTo(Prologue, "DEFVAR LF@%0")
		e.EmitTo(Prologue, "DEFVAR LF@%return0")
		e.EmitTo(Prologue, "POPS LF@%0")
		e.EmitTo(Prologue, "JUMPIFEQ $tointeger$nil LF@%0 nil@nil")
		e.EmitTo(Prologue, "FLOAT2INT LF@%return0 LF@%0")
		e.EmitTo(Prologue, "JUMP $tointeger$end")
		e.EmitTo(Prologue, "LABEL $tointeger$nil")
		e.EmitTo(Prologue, "MOVE LF@%return0 nil@nil")
		e.EmitTo(Prologue, "LABEL $tointeger$end")
		e.EmitTo(Prologue, "PUSHS LF@%return0")
		e.EmitTo(Prologue, "POPFRAME")
		e.EmitTo(Prologue, "RETURN")
	})
}

// EmitChrBuiltin ensures chr(i:integer):string is present; out-of-range
// codepoints (outside 0-255) yield the empty string, matching the original.
func (e *Emitter) EmitChrBuiltin() {
	e.once("$chr", func() {
		e.EmitTo(Prologue, "LABEL $chr")
		e.EmitTo(Prologue, "PUSHFRAME")
		e.EmitTo(Prologue, "DEFVAR LF@%0")
		e.EmitTo(Prologue, "DEFVAR LF@%return0")
		e.EmitTo(Prologue, "DEFVAR LF@%cond")
		e.EmitTo(Prologue, "POPS LF@%0")
		e.EmitTo(Prologue, "JUMPIFEQ $$ERROR_NIL LF@%0 nil@nil")
		e.EmitTo(Prologue, "MOVE LF@%return0 string@")
		e.EmitTo(Prologue, "LT LF@%cond LF@%0 int@0")
		e.EmitTo(Prologue, "JUMPIFEQ $chr$end LF@%cond bool@true")
		e.EmitTo(Prologue, "GT LF@%cond LF@%0 int@255")
		e.EmitTo(Prologue, "JUMPIFEQ $chr$end LF@%cond bool@true")
		e.EmitTo(Prologue, "INT2CHAR LF@%return0 LF@%0")
		e.EmitTo(Prologue, "LABEL $chr$end")
		e.EmitTo(Prologue, "PUSHS LF@%return0")
		e.EmitTo(Prologue, "POPFRAME")
		e.EmitTo(Prologue, "RETURN")
	})
}

// EmitOrdBuiltin ensures ord(s:string, i:integer):integer is present.
func (e *Emitter) EmitOrdBuiltin() {
	e.once("$ord", func() {
		e.EmitTo(Prologue, "LABEL $ord")
		e.EmitTo(Prologue, "PUSHFRAME")
		e.EmitTo(Prologue, "DEFVAR LF@%0")
		e.EmitTo(Prologue, "DEFVAR LF@%1")
		e.EmitTo(Prologue, "DEFVAR LF@%return0")
		e.EmitTo(Prologue, "DEFVAR LF@%str_len")
		e.EmitTo(Prologue, "POPS LF@%1")
		e.EmitTo(Prologue, "POPS LF@%0")
		e.EmitTo(Prologue, "JUMPIFEQ $$ERROR_NIL LF@%0 nil@nil")
		e.EmitTo(Prologue, "JUMPIFEQ $$ERROR_NIL LF@%1 nil@nil")
		e.EmitTo(Prologue, "STRLEN LF@%str_len LF@%0")
		e.EmitTo(Prologue, "LT LF@%return0 LF@%1 int@0")
		e.EmitTo(Prologue, "JUMPIFEQ $ord$zero LF@%return0 bool@true")
		e.EmitTo(Prologue, "LT LF@%return0 LF@%1 LF@%str_len")
		e.EmitTo(Prologue, "JUMPIFEQ $ord$getchar LF@%return0 bool@true")
		e.EmitTo(Prologue, "LABEL $ord$zero")
		e.EmitTo(Prologue, "MOVE LF@%return0 int@0")
		e.EmitTo(Prologue, "JUMP $ord$end")
		e.EmitTo(Prologue, "LABEL $ord$getchar")
		e.EmitTo(Prologue, "STRI2INT LF@%return0 LF@%0 LF@%1")
		e.EmitTo(Prologue, "LABEL $ord$end")
		e.EmitTo(Prologue, "PUSHS LF@%return0")
		e.EmitTo(Prologue, "POPFRAME")
		e.EmitTo(Prologue, "RETURN")
	})
}

// EmitSubstrBuiltin ensures substr(s:string, i:number, j:number):string is
// present, with a manual character-copy loop exactly as the original
// implements it (original_source/src/code_generator.c, generate_substr).
func (e *Emitter) EmitSubstrBuiltin() {
	e.once("$substr", func() {
		e.EmitTo(Prologue, "LABEL $substr")
		e.EmitTo(Prologue, "PUSHFRAME")
		e.EmitTo(Prologue, "DEFVAR LF@%0")
		e.EmitTo(Prologue, "DEFVAR LF@%1")
		e.EmitTo(Prologue, "DEFVAR LF@%2")
		e.EmitTo(Prologue, "DEFVAR LF@%return0")
		e.EmitTo(Prologue, "DEFVAR LF@%str_len")
		e.EmitTo(Prologue, "DEFVAR LF@%i")
		e.EmitTo(Prologue, "DEFVAR LF@%tmp_char")
		e.EmitTo(Prologue, "DEFVAR LF@%cond")
		e.EmitTo(Prologue, "POPS LF@%2")
		e.EmitTo(Prologue, "POPS LF@%1")
		e.EmitTo(Prologue, "POPS LF@%0")
		e.EmitTo(Prologue, "JUMPIFEQ $$ERROR_NIL LF@%0 nil@nil")
		e.EmitTo(Prologue, "JUMPIFEQ $$ERROR_NIL LF@%1 nil@nil")
		e.EmitTo(Prologue, "JUMPIFEQ $$ERROR_NIL LF@%2 nil@nil")
		e.EmitTo(Prologue, "FLOAT2INT LF@%1 LF@%1")
		e.EmitTo(Prologue, "FLOAT2INT LF@%2 LF@%2")
		e.EmitTo(Prologue, "MOVE LF@%return0 string@")
		e.EmitTo(Prologue, "STRLEN LF@%str_len LF@%0")
		e.EmitTo(Prologue, "LT LF@%cond LF@%1 int@0")
		e.EmitTo(Prologue, "JUMPIFEQ $substr$end LF@%cond bool@true")
		e.EmitTo(Prologue, "GT LF@%cond LF@%2 LF@%str_len")
		e.EmitTo(Prologue, "JUMPIFEQ $substr$end LF@%cond bool@true")
		e.EmitTo(Prologue, "MOVE LF@%i LF@%1")
		e.EmitTo(Prologue, "LABEL $substr$loop")
		e.EmitTo(Prologue, "LT LF@%cond LF@%i LF@%2")
		e.EmitTo(Prologue, "JUMPIFEQ $substr$end LF@%cond bool@false")
		e.EmitTo(Prologue, "GETCHAR LF@%tmp_char LF@%0 LF@%i")
		e.EmitTo(Prologue, "CONCAT LF@%return0 LF@%return0 LF@%tmp_char")
		e.EmitTo(Prologue, "ADD LF@%i LF@%i int@1")
		e.EmitTo(Prologue, "JUMP $substr$loop")
		e.EmitTo(Prologue, "LABEL $substr$end")
		e.EmitTo(Prologue, "PUSHS LF@%return0")
		e.EmitTo(Prologue, "POPFRAME")
		e.EmitTo(Prologue, "RETURN")
	})
}

package ir

// ForLoop holds the three hidden control variables a numeric for-loop lowers
// to: the loop variable itself is declared by the caller like any other
// local; the step and limit need one hidden variable each, plus one more to
// remember which comparison direction applies.
type ForLoop struct {
	ID     uint64
	Var    string // LF@ name of the user's loop variable
	Limit  string // LF@ name of the hidden "to" value
	Step   string // LF@ name of the hidden "step" value
	StepUp string // LF@ name of the hidden step-direction flag
}

// EmitForInit pops the evaluated initial/limit/step expressions (step last)
// off the stack into the loop's hidden variables, defaults a missing step to
// 1.0, and records whether the step is positive or negative so the header
// can pick the right comparison for an ascending or descending loop.
func (e *Emitter) EmitForInit(fl ForLoop, hasStep bool) {
	if hasStep {
		e.Emitf("POPS %s", fl.Step)
	} else {
		e.Emitf("MOVE %s %s", fl.Step, FloatLiteral(1))
	}
	e.Emitf("POPS %s", fl.Limit)
	e.Emitf("POPS %s", fl.Var)
	e.Emitf("LT %s %s %s", scratch1, fl.Step, IntLiteral(0))
	e.Emitf("PUSHS %s", scratch1)
	e.Emit("NOTS")
	e.Emitf("POPS %s", fl.StepUp)
}

// EmitForHeader emits the loop test: branch to the body if the loop variable
// is still within range for the step's direction, otherwise fall through to
// the end label. Grounded on the step-sign test in original_source's for-loop
// lowering (generate_for_epilogue), adapted to the label names already
// synthesized by ForHeaderLabel/ForBodyLabel/ForStepLeLabel/LoopEndLabel.
func (e *Emitter) EmitForHeader(fl ForLoop) {
	e.Label(ForHeaderLabel(fl.ID))
	e.Emitf("JUMPIFEQ %s %s %s", ForStepLeLabel(fl.ID), fl.StepUp, BoolLiteral(true))
	// descending: continue while Var >= Limit
	e.Emitf("LT %s %s %s", scratch1, fl.Var, fl.Limit)
	e.Emitf("JUMPIFEQ %s %s %s", LoopEndLabel(fl.ID), scratch1, BoolLiteral(true))
	e.Emitf("JUMP %s", ForBodyLabel(fl.ID))
	e.Label(ForStepLeLabel(fl.ID))
	// ascending: continue while Var <= Limit
	e.Emitf("GT %s %s %s", scratch1, fl.Var, fl.Limit)
	e.Emitf("JUMPIFEQ %s %s %s", LoopEndLabel(fl.ID), scratch1, BoolLiteral(true))
	e.Label(ForBodyLabel(fl.ID))
}

// EmitForStep advances the loop variable by the step and jumps back to the
// header; called after the loop body has been emitted.
func (e *Emitter) EmitForStep(fl ForLoop) {
	e.Emitf("ADD %s %s %s", fl.Var, fl.Var, fl.Step)
	e.Emitf("JUMP %s", ForHeaderLabel(fl.ID))
	e.Label(LoopEndLabel(fl.ID))
}

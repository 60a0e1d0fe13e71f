package cursor

import "github.com/silverlang/sildbg/internal/trace"

// Navigation commands. Each one forces the mode it operates in, computes the
// new index under its own termination rule and resynchronizes the opposing
// index so the two coordinate systems never silently diverge. Every command
// is a silent no-op when no trace is loaded or the relevant sequence is
// empty; the surrounding surface disables controls in that state.

// BreakFunc reports whether a step satisfies a breakpoint. A nil BreakFunc
// means no breakpoints are set.
type BreakFunc func(step *trace.Step) bool

// StepInto advances to the next statement in execution order, whatever its
// call depth.
func (c *Cursor) StepInto() {
	src := c.sourceSeq()
	if src == nil {
		return
	}
	c.sourceIndex = clamp(c.sourceIndex+1, len(src))
	c.resyncOpcode()
}

// StepOver advances to the next statement at the current call depth or
// shallower, skipping any deeper frames entered by a call at the current
// statement. Runs to the final step when no such statement follows.
func (c *Cursor) StepOver() {
	src := c.sourceSeq()
	if src == nil {
		return
	}
	cur := clamp(c.sourceIndex, len(src))
	d := src[cur].Depth()
	c.sourceIndex = scanForward(src, cur, func(s *trace.Step) bool {
		return s.Depth() <= d
	})
	c.resyncOpcode()
}

// StepOut advances to the first statement strictly shallower than the
// current one, returning control to the enclosing frame. Runs to the final
// step when the current frame never returns.
func (c *Cursor) StepOut() {
	src := c.sourceSeq()
	if src == nil {
		return
	}
	cur := clamp(c.sourceIndex, len(src))
	d := src[cur].Depth()
	c.sourceIndex = scanForward(src, cur, func(s *trace.Step) bool {
		return s.Depth() < d
	})
	c.resyncOpcode()
}

// OpcodeStep moves the opcode cursor by delta instructions, independent of
// source structure. Delta is ±1 from the instruction list controls.
func (c *Cursor) OpcodeStep(delta int) {
	if c.trace == nil {
		return
	}
	ops := c.trace.OpcodeSequence()
	if len(ops) == 0 {
		return
	}
	c.mode = ModeOpcode
	c.opcodeIndex = clamp(c.opcodeIndex+delta, len(ops))
	c.resyncSource()
}

// JumpToOpcodeIndex places the opcode cursor directly on an instruction,
// e.g. from a click on the disassembly listing, then resyncs the source
// position.
func (c *Cursor) JumpToOpcodeIndex(i int) {
	if c.trace == nil {
		return
	}
	ops := c.trace.OpcodeSequence()
	if len(ops) == 0 {
		return
	}
	c.mode = ModeOpcode
	c.opcodeIndex = clamp(i, len(ops))
	c.resyncSource()
}

// Continue runs forward to the first executing statement that satisfies
// isBreak, or to the end of the run when isBreak is nil or never matches.
// Without source steps it falls back to jumping the opcode cursor to the
// last instruction.
func (c *Cursor) Continue(isBreak BreakFunc) {
	if c.trace == nil {
		return
	}
	src := c.trace.SourceSequence()
	if len(src) == 0 {
		ops := c.trace.OpcodeSequence()
		if len(ops) == 0 {
			return
		}
		c.mode = ModeOpcode
		c.opcodeIndex = len(ops) - 1
		return
	}
	c.mode = ModeSource
	cur := clamp(c.sourceIndex, len(src))
	target := len(src) - 1
	if isBreak != nil {
		for i := cur + 1; i < len(src); i++ {
			if src[i].IsExecuting && isBreak(&src[i]) {
				target = i
				break
			}
		}
	}
	c.sourceIndex = target
	c.resyncOpcode()
}

// sourceSeq forces source mode and returns the source sequence, or nil when
// the command must no-op.
func (c *Cursor) sourceSeq() []trace.Step {
	if c.trace == nil {
		return nil
	}
	src := c.trace.SourceSequence()
	if len(src) == 0 {
		return nil
	}
	c.mode = ModeSource
	return src
}

func (c *Cursor) resyncOpcode() {
	c.opcodeIndex = OpcodeIndexForSourceIndex(c.trace, c.sourceIndex)
}

func (c *Cursor) resyncSource() {
	c.sourceIndex = SourceIndexForOpcodeIndex(c.trace, c.opcodeIndex)
}

// scanForward returns the index of the first step after cur satisfying ok,
// or the final index when none does.
func scanForward(steps []trace.Step, cur int, ok func(*trace.Step) bool) int {
	for i := cur + 1; i < len(steps); i++ {
		if ok(&steps[i]) {
			return i
		}
	}
	return len(steps) - 1
}

// Package cursor owns the current position inside an execution trace. One
// logical position is kept in two coordinate systems, a statement-aligned
// index and an opcode-aligned index, and every navigation command leaves the
// two consistent with each other.
package cursor

import "github.com/silverlang/sildbg/internal/trace"

// Mode selects which of the two step sequences the cursor is looking at.
type Mode string

const (
	ModeSource Mode = "source"
	ModeOpcode Mode = "opcode"
)

// Cursor is the single source of truth for "where is the user looking".
// All index reads clamp to the valid range of the active sequence; out of
// range positions are never an error.
type Cursor struct {
	trace       *trace.Trace
	mode        Mode
	sourceIndex int
	opcodeIndex int
}

// New returns a cursor in the null-trace state. Every navigation command is
// a no-op until a trace is installed.
func New() *Cursor {
	return &Cursor{mode: ModeSource}
}

// SetTrace installs a new trace and resets the position to its first step.
// Source mode is preferred when the trace carries source steps.
func (c *Cursor) SetTrace(t *trace.Trace) {
	c.trace = t
	c.sourceIndex = 0
	c.opcodeIndex = 0
	if len(t.SourceSequence()) > 0 {
		c.mode = ModeSource
	} else {
		c.mode = ModeOpcode
	}
}

// Clear drops the trace and returns the cursor to the null-trace state.
func (c *Cursor) Clear() {
	c.trace = nil
	c.mode = ModeSource
	c.sourceIndex = 0
	c.opcodeIndex = 0
}

// Trace returns the installed trace, or nil.
func (c *Cursor) Trace() *trace.Trace {
	return c.trace
}

// Mode returns the current view mode. Switching modes happens only through
// navigation commands, which resync the opposing index first.
func (c *Cursor) Mode() Mode {
	return c.mode
}

// SourceIndex returns the stored source-sequence index.
func (c *Cursor) SourceIndex() int {
	return c.sourceIndex
}

// OpcodeIndex returns the stored opcode-sequence index.
func (c *Cursor) OpcodeIndex() int {
	return c.opcodeIndex
}

// ActiveSteps returns the step sequence the current mode is aligned to, or
// nil when no trace is installed.
func (c *Cursor) ActiveSteps() []trace.Step {
	if c.trace == nil {
		return nil
	}
	if c.mode == ModeOpcode {
		return c.trace.OpcodeSequence()
	}
	return c.trace.SourceSequence()
}

// ActiveIndex returns the mode-appropriate index clamped to the active
// sequence. The clamped value is written back so later reads are stable.
func (c *Cursor) ActiveIndex() int {
	steps := c.ActiveSteps()
	if len(steps) == 0 {
		return 0
	}
	if c.mode == ModeOpcode {
		c.opcodeIndex = clamp(c.opcodeIndex, len(steps))
		return c.opcodeIndex
	}
	c.sourceIndex = clamp(c.sourceIndex, len(steps))
	return c.sourceIndex
}

// ActiveStep resolves the step under the cursor, reporting false when the
// active sequence is empty.
func (c *Cursor) ActiveStep() (*trace.Step, bool) {
	steps := c.ActiveSteps()
	if len(steps) == 0 {
		return nil, false
	}
	return &steps[c.ActiveIndex()], true
}

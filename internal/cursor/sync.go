package cursor

import "github.com/silverlang/sildbg/internal/trace"

// The two sequences describe one run in two coordinate systems. Opcode index
// and pc coincide by construction of the opcode sequence, and pc is
// non-decreasing along the source sequence, so converting between them is a
// clamp in one direction and an ordered scan in the other.

// SourceIndexForOpcodeIndex returns the index of the last source step whose
// pc does not exceed the pc of the (clamped) opcode step at opcodeIndex.
// Returns 0 when no source step qualifies or either sequence is empty.
func SourceIndexForOpcodeIndex(t *trace.Trace, opcodeIndex int) int {
	ops := t.OpcodeSequence()
	src := t.SourceSequence()
	if len(ops) == 0 || len(src) == 0 {
		return 0
	}
	targetPc := ops[clamp(opcodeIndex, len(ops))].Pc
	best := 0
	for i, step := range src {
		if step.Pc <= targetPc {
			best = i
		}
	}
	return best
}

// OpcodeIndexForSourceIndex returns the opcode index corresponding to the
// (clamped) source step at sourceIndex. Returns 0 when either sequence is
// empty.
func OpcodeIndexForSourceIndex(t *trace.Trace, sourceIndex int) int {
	ops := t.OpcodeSequence()
	src := t.SourceSequence()
	if len(ops) == 0 || len(src) == 0 {
		return 0
	}
	pc := src[clamp(sourceIndex, len(src))].Pc
	return clamp(pc, len(ops))
}

// clamp restricts i to the valid index range of a sequence of length n.
// n must be positive.
func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

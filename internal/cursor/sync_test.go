package cursor

import (
	"testing"

	"github.com/silverlang/sildbg/internal/trace"
)

// pcTrace builds a trace with one opcode step per pc 0..opcodes-1 and source
// steps at the given pcs.
func pcTrace(opcodes int, sourcePcs []int) *trace.Trace {
	tr := &trace.Trace{}
	for pc := 0; pc < opcodes; pc++ {
		tr.OpcodeSteps = append(tr.OpcodeSteps, trace.Step{Pc: pc})
	}
	for _, pc := range sourcePcs {
		tr.SourceSteps = append(tr.SourceSteps, trace.Step{Pc: pc, IsExecuting: true})
	}
	return tr
}

func TestSourceIndexForOpcodeIndex(t *testing.T) {
	tr := pcTrace(10, []int{0, 4, 8})

	tests := []struct {
		name        string
		opcodeIndex int
		want        int
	}{
		{"start", 0, 0},
		{"between first and second", 3, 0},
		{"exactly on second", 4, 1},
		{"between second and third", 6, 1},
		{"exactly on third", 8, 2},
		{"end", 9, 2},
		{"negative clamps to start", -5, 0},
		{"past the end clamps to last", 99, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SourceIndexForOpcodeIndex(tr, tt.opcodeIndex); got != tt.want {
				t.Fatalf("SourceIndexForOpcodeIndex(%d) = %d, want %d", tt.opcodeIndex, got, tt.want)
			}
		})
	}
}

func TestSourceIndexForOpcodeIndexNoEarlierSourceStep(t *testing.T) {
	// All source steps execute after the target opcode: fall back to 0.
	tr := pcTrace(10, []int{5, 7})
	if got := SourceIndexForOpcodeIndex(tr, 2); got != 0 {
		t.Fatalf("SourceIndexForOpcodeIndex(2) = %d, want 0", got)
	}
}

func TestSourceIndexForOpcodeIndexEmptySequences(t *testing.T) {
	if got := SourceIndexForOpcodeIndex(&trace.Trace{}, 3); got != 0 {
		t.Fatalf("empty trace: got %d, want 0", got)
	}
	if got := SourceIndexForOpcodeIndex(pcTrace(5, nil), 3); got != 0 {
		t.Fatalf("no source steps: got %d, want 0", got)
	}
}

func TestOpcodeIndexForSourceIndex(t *testing.T) {
	tr := pcTrace(10, []int{0, 4, 8})

	tests := []struct {
		name        string
		sourceIndex int
		want        int
	}{
		{"first", 0, 0},
		{"second", 1, 4},
		{"third", 2, 8},
		{"negative clamps", -1, 0},
		{"past the end clamps", 7, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OpcodeIndexForSourceIndex(tr, tt.sourceIndex); got != tt.want {
				t.Fatalf("OpcodeIndexForSourceIndex(%d) = %d, want %d", tt.sourceIndex, got, tt.want)
			}
		})
	}
}

func TestOpcodeIndexForSourceIndexClampsPcIntoOpcodeRange(t *testing.T) {
	// A source pc past the opcode sequence clamps to the last instruction.
	tr := pcTrace(4, []int{0, 9})
	if got := OpcodeIndexForSourceIndex(tr, 1); got != 3 {
		t.Fatalf("OpcodeIndexForSourceIndex(1) = %d, want 3", got)
	}
}

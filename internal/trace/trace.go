// Package trace defines the immutable execution trace handed over by the
// engine service: two parallel step sequences sampled from the same run, one
// per emitted opcode and one per executed source statement, plus per-step
// stack and variable snapshots. Field names follow the engine's JSON wire
// format (snake_case).
package trace

// Span identifies a source location. Lines are 1-based; EndLine defaults to
// Line when the engine omits it.
type Span struct {
	Line    int `json:"line"`
	Col     int `json:"col"`
	EndLine int `json:"end_line,omitempty"`
	EndCol  int `json:"end_col,omitempty"`
}

// Last returns the final line of the span, falling back to Line when the
// engine only recorded a start position.
func (s Span) Last() int {
	if s.EndLine >= s.Line {
		return s.EndLine
	}
	return s.Line
}

// Mapping kinds emitted by the compiler's debug info.
const (
	KindStatement       = "statement"
	KindVirtual         = "virtual"
	KindInlineCallEnter = "inline_call_enter"
	KindInlineCallExit  = "inline_call_exit"
	KindSynthetic       = "synthetic"
)

// Mapping attaches source metadata to a step. Callee is set for the inline
// call kinds, Label for synthetic mappings. A nil Span means the step has no
// visual anchor.
type Mapping struct {
	Kind      string `json:"kind"`
	Span      *Span  `json:"span,omitempty"`
	FrameID   *int   `json:"frame_id,omitempty"`
	CallDepth *int   `json:"call_depth,omitempty"`
	Sequence  *int   `json:"sequence,omitempty"`
	Callee    string `json:"callee,omitempty"`
	Label     string `json:"label,omitempty"`
}

// Var is one entry of a step's variable snapshot.
type Var struct {
	Name     string `json:"name"`
	Origin   string `json:"origin"` // const, arg or local
	TypeName string `json:"type_name"`
	Value    string `json:"value"`
}

// Stacks holds the data and alt stack snapshots as hex strings, innermost
// element last.
type Stacks struct {
	Dstack []string `json:"dstack"`
	Astack []string `json:"astack"`
}

// Step is one snapshot of the run. The same shape serves both sequences;
// only the sampling granularity differs.
type Step struct {
	Pc          int      `json:"pc"`
	ByteOffset  int      `json:"byte_offset"`
	LastOpcode  string   `json:"last_opcode,omitempty"`
	Mapping     *Mapping `json:"mapping,omitempty"`
	Sequence    *int     `json:"sequence,omitempty"`
	FrameID     *int     `json:"frame_id,omitempty"`
	CallDepth   *int     `json:"call_depth,omitempty"`
	CallStack   []string `json:"call_stack"`
	IsExecuting bool     `json:"is_executing"`
	Stacks      Stacks   `json:"stacks"`
	Vars        []Var    `json:"vars"`
	Error       string   `json:"error,omitempty"`
}

// Depth returns the call depth of the step, defaulting to the root depth
// when the engine recorded none.
func (s *Step) Depth() int {
	if s.CallDepth != nil {
		return *s.CallDepth
	}
	return 0
}

// Frame returns the step's frame id, reporting false when the step belongs
// to no recorded frame.
func (s *Step) Frame() (int, bool) {
	if s.FrameID != nil {
		return *s.FrameID, true
	}
	return 0, false
}

// Line returns the 1-based source line the step maps to, reporting false
// when the step has no span.
func (s *Step) Line() (int, bool) {
	if s.Mapping == nil || s.Mapping.Span == nil {
		return 0, false
	}
	return s.Mapping.Span.Line, true
}

// MappedSpan returns the step's source span, if any.
func (s *Step) MappedSpan() (Span, bool) {
	if s.Mapping == nil || s.Mapping.Span == nil {
		return Span{}, false
	}
	return *s.Mapping.Span, true
}

// Callee returns the innermost function name of the step's call stack.
func (s *Step) Callee() (string, bool) {
	if len(s.CallStack) == 0 {
		return "", false
	}
	return s.CallStack[len(s.CallStack)-1], true
}

// Opcode describes one emitted instruction of the compiled script.
type Opcode struct {
	Index      int      `json:"index"`
	ByteOffset int      `json:"byte_offset"`
	Display    string   `json:"display"`
	Mapping    *Mapping `json:"mapping,omitempty"`
}

// Meta summarizes the run the trace was sampled from.
type Meta struct {
	ContractName      string   `json:"contract_name"`
	FunctionName      string   `json:"function_name"`
	SelectorIndex     *int     `json:"selector_index,omitempty"`
	CtorArgs          []string `json:"ctor_args"`
	Args              []string `json:"args"`
	WithoutSelector   bool     `json:"without_selector"`
	SigscriptHex      string   `json:"sigscript_hex"`
	SigscriptLen      int      `json:"sigscript_len"`
	ScriptLen         int      `json:"script_len"`
	OpcodeCount       int      `json:"opcode_count"`
	OpcodeStepCount   int      `json:"opcode_step_count"`
	SourceStepCount   int      `json:"source_step_count"`
	GeneratedAtUnixMs int64    `json:"generated_at_unix_ms"`
}

// Trace is the artifact produced by one engine run. It is immutable for the
// lifetime of a debugging session and replaced wholesale on recompile. Steps
// is a legacy mirror of OpcodeSteps kept by older engines; it serves as the
// fallback when either dedicated sequence is absent.
type Trace struct {
	Meta        Meta     `json:"meta"`
	Source      string   `json:"source"`
	Opcodes     []Opcode `json:"opcodes"`
	Steps       []Step   `json:"steps"`
	OpcodeSteps []Step   `json:"opcode_steps"`
	SourceSteps []Step   `json:"source_steps"`
}

// OpcodeSequence returns the opcode-aligned steps, falling back to the
// legacy unified sequence when the dedicated one is absent.
func (t *Trace) OpcodeSequence() []Step {
	if t == nil {
		return nil
	}
	if len(t.OpcodeSteps) > 0 {
		return t.OpcodeSteps
	}
	return t.Steps
}

// SourceSequence returns the statement-aligned steps, falling back to the
// legacy unified sequence when the dedicated one is absent.
func (t *Trace) SourceSequence() []Step {
	if t == nil {
		return nil
	}
	if len(t.SourceSteps) > 0 {
		return t.SourceSteps
	}
	return t.Steps
}

// LineCount reports the number of lines in the traced source.
func (t *Trace) LineCount() int {
	if t == nil || t.Source == "" {
		return 0
	}
	n := 1
	for _, r := range t.Source {
		if r == '\n' {
			n++
		}
	}
	return n
}

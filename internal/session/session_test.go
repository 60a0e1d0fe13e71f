package session

import (
	"reflect"
	"testing"

	"github.com/silverlang/sildbg/internal/cursor"
	"github.com/silverlang/sildbg/internal/decor"
	"github.com/silverlang/sildbg/internal/engine"
	"github.com/silverlang/sildbg/internal/trace"
)

func intp(n int) *int { return &n }

// sampleTrace builds a five statement run: main calls check_pair (frame 1,
// depth 1) which calls deeper (frame 2, depth 2), then returns to main.
// Lines are 10,11,12,13,14; pcs advance by 2 per statement.
func sampleTrace() *trace.Trace {
	depths := []int{0, 1, 1, 2, 0}
	frames := []int{0, 1, 1, 2, 0}
	stacks := [][]string{
		{"main"},
		{"main", "check_pair"},
		{"main", "check_pair"},
		{"main", "check_pair", "deeper"},
		{"main"},
	}
	tr := &trace.Trace{
		Meta:   trace.Meta{ContractName: "DebugPoC", FunctionName: "main"},
		Source: "l1\nl2\nl3\nl4\nl5\nl6\nl7\nl8\nl9\nl10\nl11\nl12\nl13\nl14",
	}
	for i := range depths {
		tr.SourceSteps = append(tr.SourceSteps, trace.Step{
			Pc:          i * 2,
			CallDepth:   intp(depths[i]),
			FrameID:     intp(frames[i]),
			CallStack:   stacks[i],
			IsExecuting: true,
			Mapping: &trace.Mapping{
				Kind: trace.KindStatement,
				Span: &trace.Span{Line: 10 + i, Col: 1},
			},
			Vars: []trace.Var{
				{Name: "seed", Origin: "local", TypeName: "int", Value: "6"},
			},
		})
	}
	for pc := 0; pc < 10; pc++ {
		tr.OpcodeSteps = append(tr.OpcodeSteps, trace.Step{Pc: pc, IsExecuting: true})
	}
	return tr
}

func TestInstallTraceResetsCursorKeepsBreakpoints(t *testing.T) {
	s := NewDebugSession("t")
	s.ToggleBreakpoint(11)
	s.ToggleBreakpoint(13)

	gen := s.NextGeneration()
	if !s.InstallTrace(sampleTrace(), gen) {
		t.Fatal("InstallTrace rejected the current generation")
	}
	s.StepInto()
	s.StepInto()

	gen = s.NextGeneration()
	if !s.InstallTrace(sampleTrace(), gen) {
		t.Fatal("InstallTrace rejected the current generation")
	}

	st := s.State()
	if st.SourceIndex != 0 || st.OpcodeIndex != 0 {
		t.Fatalf("indices after install = (%d, %d), want (0, 0)", st.SourceIndex, st.OpcodeIndex)
	}
	if !reflect.DeepEqual(st.Breakpoints, []int{11, 13}) {
		t.Fatalf("breakpoints after install = %v, want [11 13]", st.Breakpoints)
	}
}

func TestInstallTraceDiscardsStaleGeneration(t *testing.T) {
	s := NewDebugSession("t")

	stale := s.NextGeneration()
	fresh := s.NextGeneration()

	if s.InstallTrace(sampleTrace(), stale) {
		t.Fatal("InstallTrace accepted a superseded generation")
	}
	if s.State().Loaded {
		t.Fatal("stale install mutated the session")
	}
	if !s.InstallTrace(sampleTrace(), fresh) {
		t.Fatal("InstallTrace rejected the latest generation")
	}
}

func TestRecordDiagnosticKeepsTrace(t *testing.T) {
	s := NewDebugSession("t")
	gen := s.NextGeneration()
	s.InstallTrace(sampleTrace(), gen)
	s.StepInto()

	diag := &engine.Diagnostic{Message: "parse error", Span: &trace.Span{Line: 12, Col: 3}}
	gen = s.NextGeneration()
	if !s.RecordDiagnostic(diag, gen) {
		t.Fatal("RecordDiagnostic rejected the current generation")
	}

	st := s.State()
	if !st.Loaded {
		t.Fatal("diagnostic dropped the previous trace")
	}
	if st.SourceIndex != 1 {
		t.Fatalf("SourceIndex = %d, want 1 (cursor untouched)", st.SourceIndex)
	}
	if st.Diagnostic == nil || st.Diagnostic.Message != "parse error" {
		t.Fatalf("Diagnostic = %+v", st.Diagnostic)
	}

	found := false
	for _, ls := range st.Gutter {
		if ls.Line == 12 {
			for _, cl := range ls.Classes {
				if cl == decor.ClassError {
					found = true
				}
			}
		}
	}
	if !found {
		t.Fatalf("gutter lacks error class at line 12: %+v", st.Gutter)
	}

	// A successful install clears the pending diagnostic.
	gen = s.NextGeneration()
	s.InstallTrace(sampleTrace(), gen)
	if s.State().Diagnostic != nil {
		t.Fatal("diagnostic survived a successful install")
	}
}

func TestToggleBreakpointTwiceRestoresMembership(t *testing.T) {
	s := NewDebugSession("t")

	if !s.ToggleBreakpoint(7) {
		t.Fatal("first toggle did not set the breakpoint")
	}
	if s.ToggleBreakpoint(7) {
		t.Fatal("second toggle did not clear the breakpoint")
	}
	if got := s.Breakpoints(); len(got) != 0 {
		t.Fatalf("Breakpoints() = %v, want empty", got)
	}
}

func TestContinueStopsAtLineBreakpoint(t *testing.T) {
	s := NewDebugSession("t")
	s.InstallTrace(sampleTrace(), s.NextGeneration())
	s.ToggleBreakpoint(12)

	s.Continue()
	if got := s.State().SourceIndex; got != 2 {
		t.Fatalf("Continue = index %d, want 2 (line 12)", got)
	}

	s.Continue()
	if got := s.State().SourceIndex; got != 4 {
		t.Fatalf("Continue past the hit = index %d, want 4", got)
	}
}

func TestContinueConditionalBreakpoint(t *testing.T) {
	s := NewDebugSession("t")
	s.InstallTrace(sampleTrace(), s.NextGeneration())

	if err := s.BreakIf(12, "seed > 100"); err != nil {
		t.Fatalf("BreakIf error: %v", err)
	}
	s.Continue()
	if got := s.State().SourceIndex; got != 4 {
		t.Fatalf("false condition stopped at index %d, want run to end (4)", got)
	}

	s.ClearBreakpoints()
	s.InstallTrace(sampleTrace(), s.NextGeneration())
	if err := s.BreakIf(12, "seed == 6"); err != nil {
		t.Fatalf("BreakIf error: %v", err)
	}
	s.Continue()
	if got := s.State().SourceIndex; got != 2 {
		t.Fatalf("true condition stopped at index %d, want 2", got)
	}

	if err := s.BreakIf(5, "not ("); err == nil {
		t.Fatal("BreakIf accepted an invalid expression")
	}
}

func TestContinueFunctionBreakpoint(t *testing.T) {
	s := NewDebugSession("t")
	s.InstallTrace(sampleTrace(), s.NextGeneration())

	if err := s.BreakFunction("check_*"); err != nil {
		t.Fatalf("BreakFunction error: %v", err)
	}
	s.Continue()
	if got := s.State().SourceIndex; got != 1 {
		t.Fatalf("Continue = index %d, want 1 (first step inside check_pair)", got)
	}

	if err := s.BreakFunction("[unclosed"); err == nil {
		t.Fatal("BreakFunction accepted an invalid glob")
	}
}

func TestClearTraceKeepsUserIntent(t *testing.T) {
	s := NewDebugSession("t")
	s.InstallTrace(sampleTrace(), s.NextGeneration())
	s.ToggleBreakpoint(11)
	if _, err := s.AddWatch("seed"); err != nil {
		t.Fatalf("AddWatch error: %v", err)
	}

	s.ClearTrace()

	st := s.State()
	if st.Loaded {
		t.Fatal("trace survived ClearTrace")
	}
	if !reflect.DeepEqual(st.Breakpoints, []int{11}) {
		t.Fatalf("breakpoints after ClearTrace = %v, want [11]", st.Breakpoints)
	}
	if got := len(s.EvalWatches()); got != 1 {
		t.Fatalf("watches after ClearTrace = %d, want 1", got)
	}
}

func TestStateStepDisplayAndDecorations(t *testing.T) {
	s := NewDebugSession("t")
	s.InstallTrace(sampleTrace(), s.NextGeneration())
	s.StepInto()

	st := s.State()
	if st.Mode != cursor.ModeSource {
		t.Fatalf("Mode = %q, want source", st.Mode)
	}
	if st.StepDisplay != "2/5" {
		t.Fatalf("StepDisplay = %q, want 2/5", st.StepDisplay)
	}
	if st.Decorations.ActiveLine != 11 {
		t.Fatalf("ActiveLine = %d, want 11", st.Decorations.ActiveLine)
	}
	if st.Decorations.Tint != decor.TintNone {
		t.Fatalf("Tint = %q, want none mid-run", st.Decorations.Tint)
	}
	if st.SourceTotal != 5 || st.OpcodeTotal != 10 {
		t.Fatalf("totals = %d/%d, want 5/10", st.SourceTotal, st.OpcodeTotal)
	}
}

func TestStateTintsPassOnTerminalStep(t *testing.T) {
	tr := sampleTrace()
	tr.SourceSteps[4].IsExecuting = false

	s := NewDebugSession("t")
	s.InstallTrace(tr, s.NextGeneration())
	s.Continue()

	st := s.State()
	if st.Decorations.Tint != decor.TintPass {
		t.Fatalf("Tint = %q, want pass on the terminal step", st.Decorations.Tint)
	}
	// Pass tints the outermost frame, which spans every mapped line.
	if st.Decorations.FrameSpan == nil || st.Decorations.FrameSpan.StartLine != 10 || st.Decorations.FrameSpan.EndLine != 14 {
		t.Fatalf("FrameSpan = %+v, want 10-14", st.Decorations.FrameSpan)
	}
}

func TestStateTintsFailOnStepError(t *testing.T) {
	tr := sampleTrace()
	tr.SourceSteps[3].Error = "require failed"

	s := NewDebugSession("t")
	s.InstallTrace(tr, s.NextGeneration())
	s.StepInto()
	s.StepInto()
	s.StepInto() // index 3, the failing step in frame 2

	st := s.State()
	if st.Decorations.Tint != decor.TintFail {
		t.Fatalf("Tint = %q, want fail", st.Decorations.Tint)
	}
	if st.Decorations.FrameSpan == nil || st.Decorations.FrameSpan.StartLine != 13 || st.Decorations.FrameSpan.EndLine != 13 {
		t.Fatalf("FrameSpan = %+v, want the failing frame's span 13-13", st.Decorations.FrameSpan)
	}
}

func TestManagerSessionLifecycle(t *testing.T) {
	m := NewManager()

	a := m.GetOrCreateSession("a")
	if a == nil || a.ID() != "a" {
		t.Fatalf("GetOrCreateSession = %+v", a)
	}
	if m.GetOrCreateSession("a") != a {
		t.Fatal("GetOrCreateSession created a duplicate session")
	}
	if m.GetSession("missing") != nil {
		t.Fatal("GetSession returned a session for an unknown id")
	}

	if err := m.DeleteSession("a"); err != nil {
		t.Fatalf("DeleteSession error: %v", err)
	}
	if err := m.DeleteSession("a"); err == nil {
		t.Fatal("DeleteSession succeeded for a deleted session")
	}

	m.GetOrCreateSession("b")
	m.CloseAll()
	if m.GetSession("b") != nil {
		t.Fatal("CloseAll left a session behind")
	}
}

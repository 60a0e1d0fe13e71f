// Package session ties one debugging session together: the installed trace,
// the cursor over it, the user's breakpoints and watches, and the compile
// generation guard. Breakpoints and watches are user intent and survive
// trace replacement; everything else resets when a new trace is installed.
package session

import (
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/silverlang/sildbg/internal/cursor"
	"github.com/silverlang/sildbg/internal/decor"
	"github.com/silverlang/sildbg/internal/engine"
	"github.com/silverlang/sildbg/internal/trace"
	"github.com/silverlang/sildbg/internal/watch"
)

// fnBreak is a function-name breakpoint matched against the innermost
// call-stack entry of each step.
type fnBreak struct {
	pattern string
	g       glob.Glob
}

// DebugSession holds the mutable state of one debugging session. Navigation
// is logically single-threaded; the mutex serializes commands arriving on
// different request goroutines.
type DebugSession struct {
	mu           sync.Mutex
	id           string
	lastAccessed time.Time

	trace  *trace.Trace
	cursor *cursor.Cursor
	frames decor.FrameIndex

	lines    map[int]struct{}
	conds    map[int]string
	fnBreaks []fnBreak
	watches  watch.List

	// generation is incremented before each engine call; a trace or
	// diagnostic arriving for an older generation is discarded.
	generation   uint64
	installedGen uint64

	diag *engine.Diagnostic
}

// NewDebugSession creates a session in the null-trace state.
func NewDebugSession(id string) *DebugSession {
	return &DebugSession{
		id:           id,
		lastAccessed: time.Now(),
		cursor:       cursor.New(),
		lines:        make(map[int]struct{}),
		conds:        make(map[int]string),
	}
}

// ID returns the session identifier.
func (s *DebugSession) ID() string {
	return s.id
}

// UpdateLastAccessed records session activity.
func (s *DebugSession) UpdateLastAccessed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccessed = time.Now()
}

// NextGeneration issues a generation token for one engine call. The
// response is only accepted while the token is still the latest issued.
func (s *DebugSession) NextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// InstallTrace swaps in a freshly fetched trace and resets the cursor to the
// first step. A stale generation is discarded and leaves the session
// untouched; the return value reports whether the trace was installed.
// Breakpoints and watches persist across installs.
func (s *DebugSession) InstallTrace(t *trace.Trace, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.trace = t
	s.cursor.SetTrace(t)
	s.frames = decor.BuildFrameIndex(t)
	s.installedGen = gen
	s.diag = nil
	return true
}

// RecordDiagnostic stores a compile/execute failure for gutter display. The
// previous trace, if any, stays navigable. Stale generations are discarded.
func (s *DebugSession) RecordDiagnostic(d *engine.Diagnostic, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.diag = d
	return true
}

// ClearTrace returns the session to the null-trace state. Breakpoints and
// watches are kept.
func (s *DebugSession) ClearTrace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trace = nil
	s.frames = nil
	s.diag = nil
	s.cursor.Clear()
}

// StepInto advances one statement in execution order.
func (s *DebugSession) StepInto() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.StepInto()
}

// StepOver advances to the next statement at the current depth or shallower.
func (s *DebugSession) StepOver() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.StepOver()
}

// StepOut advances to the first statement of the enclosing frame.
func (s *DebugSession) StepOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.StepOut()
}

// OpcodeStep moves one instruction forward or back.
func (s *DebugSession) OpcodeStep(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.OpcodeStep(delta)
}

// JumpToOpcodeIndex places the opcode cursor on an instruction directly.
func (s *DebugSession) JumpToOpcodeIndex(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.JumpToOpcodeIndex(i)
}

// Continue runs forward to the next breakpoint hit, or to the end of the
// run when no breakpoints are set or none matches.
func (s *DebugSession) Continue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.Continue(s.breakFunc())
}

// breakFunc builds the breakpoint predicate for Continue. Returns nil when
// the session has no breakpoints of any kind. Caller holds the lock.
func (s *DebugSession) breakFunc() cursor.BreakFunc {
	if len(s.lines) == 0 && len(s.conds) == 0 && len(s.fnBreaks) == 0 {
		return nil
	}
	return func(step *trace.Step) bool {
		if line, ok := step.Line(); ok {
			if _, hit := s.lines[line]; hit {
				return true
			}
			if cond, hit := s.conds[line]; hit {
				if match, err := watch.EvalBool(cond, step); err == nil && match {
					return true
				}
			}
		}
		if callee, ok := step.Callee(); ok {
			for _, fb := range s.fnBreaks {
				if fb.g.Match(callee) {
					return true
				}
			}
		}
		return false
	}
}

// ToggleBreakpoint flips line membership in the breakpoint set and reports
// whether the line is now set. Breakpoints address line numbers only and are
// never re-anchored to content.
func (s *DebugSession) ToggleBreakpoint(line int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lines[line]; ok {
		delete(s.lines, line)
		return false
	}
	s.lines[line] = struct{}{}
	return true
}

// BreakIf installs a conditional breakpoint at line: Continue stops there
// only when the expression evaluates true against the step's variables.
func (s *DebugSession) BreakIf(line int, cond string) error {
	if err := watch.Validate(cond); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conds[line] = cond
	return nil
}

// BreakFunction installs a function-name breakpoint. The pattern is a glob
// matched against the innermost call-stack entry.
func (s *DebugSession) BreakFunction(pattern string) error {
	g, err := glob.Compile(pattern)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fb := range s.fnBreaks {
		if fb.pattern == pattern {
			return nil
		}
	}
	s.fnBreaks = append(s.fnBreaks, fnBreak{pattern: pattern, g: g})
	return nil
}

// ClearBreakpoints removes all breakpoints: line, conditional and function.
func (s *DebugSession) ClearBreakpoints() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = make(map[int]struct{})
	s.conds = make(map[int]string)
	s.fnBreaks = nil
}

// Breakpoints returns the plain line breakpoints in ascending order.
func (s *DebugSession) Breakpoints() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return breakpointLines(s.lines)
}

// AddWatch registers a watch expression.
func (s *DebugSession) AddWatch(cond string) (watch.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watches.Add(cond)
}

// RemoveWatch deletes a watch by id.
func (s *DebugSession) RemoveWatch(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watches.Remove(id)
}

// EvalWatches evaluates every watch at the active step.
func (s *DebugSession) EvalWatches() []watch.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, _ := s.cursor.ActiveStep()
	return s.watches.EvalAll(active)
}

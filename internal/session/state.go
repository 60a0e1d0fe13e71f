package session

import (
	"fmt"
	"sort"

	"github.com/silverlang/sildbg/internal/cursor"
	"github.com/silverlang/sildbg/internal/decor"
	"github.com/silverlang/sildbg/internal/engine"
	"github.com/silverlang/sildbg/internal/trace"
	"github.com/silverlang/sildbg/internal/watch"
)

// State is the full view the presentation layer renders after any command:
// cursor position in both coordinate systems, the active step, derived
// decorations and the gutter class sets.
type State struct {
	Loaded      bool        `json:"loaded"`
	Mode        cursor.Mode `json:"mode"`
	SourceIndex int         `json:"source_index"`
	SourceTotal int         `json:"source_total"`
	OpcodeIndex int         `json:"opcode_index"`
	OpcodeTotal int         `json:"opcode_total"`
	// StepDisplay is the 1-based "current/total" label for the active
	// sequence.
	StepDisplay string             `json:"step_display,omitempty"`
	ActiveStep  *trace.Step        `json:"active_step,omitempty"`
	Decorations decor.Decorations  `json:"decorations"`
	Gutter      []decor.LineState  `json:"gutter,omitempty"`
	Breakpoints []int              `json:"breakpoints"`
	Watches     []watch.Value      `json:"watches,omitempty"`
	Diagnostic  *engine.Diagnostic `json:"diagnostic,omitempty"`
	Meta        *trace.Meta        `json:"meta,omitempty"`
}

// State snapshots the session for the presentation layer.
func (s *DebugSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Mode:        s.cursor.Mode(),
		Breakpoints: breakpointLines(s.lines),
		Decorations: decor.Decorations{Tint: decor.TintNone},
		Diagnostic:  s.diag,
	}
	if s.trace == nil {
		return st
	}

	st.Loaded = true
	st.Meta = &s.trace.Meta
	st.SourceIndex = s.cursor.SourceIndex()
	st.SourceTotal = len(s.trace.SourceSequence())
	st.OpcodeIndex = s.cursor.OpcodeIndex()
	st.OpcodeTotal = len(s.trace.OpcodeSequence())
	st.StepDisplay = fmt.Sprintf("%d/%d", s.cursor.ActiveIndex()+1, len(s.cursor.ActiveSteps()))

	active, ok := s.cursor.ActiveStep()
	if ok {
		st.ActiveStep = active
		st.Decorations = decor.Derive(s.frames, active, s.tintFor(active))
	} else {
		st.Decorations = decor.Derive(s.frames, nil, decor.TintNone)
	}

	var diagSpan *trace.Span
	if s.diag != nil {
		diagSpan = s.diag.Span
	}
	st.Gutter = decor.GutterState(s.trace.LineCount(), diagSpan, st.Decorations, func(line int) bool {
		if _, ok := s.lines[line]; ok {
			return true
		}
		_, ok := s.conds[line]
		return ok
	})

	if len(s.watches.Items()) > 0 {
		st.Watches = s.watches.EvalAll(active)
	}
	return st
}

// tintFor applies the pass/fail tint rule: fail on a step error, pass only
// on the terminal non-executing step of the sequence. Caller holds the lock.
func (s *DebugSession) tintFor(active *trace.Step) decor.Tint {
	if active == nil {
		return decor.TintNone
	}
	if active.Error != "" {
		return decor.TintFail
	}
	steps := s.cursor.ActiveSteps()
	if !active.IsExecuting && s.cursor.ActiveIndex() == len(steps)-1 {
		return decor.TintPass
	}
	return decor.TintNone
}

func breakpointLines(lines map[int]struct{}) []int {
	out := make([]int, 0, len(lines))
	for line := range lines {
		out = append(out, line)
	}
	sort.Ints(out)
	return out
}

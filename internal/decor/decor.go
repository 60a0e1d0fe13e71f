// Package decor derives the highlight regions the presentation layer paints:
// the active source line and the contiguous line range of the call frame
// being tinted after a pass or fail. Derivation is a pure function of the
// frame index and the active step, recomputed on every cursor move.
package decor

import "github.com/silverlang/sildbg/internal/trace"

// Tint selects the frame tint applied around the active step.
type Tint string

const (
	TintNone Tint = "none"
	TintPass Tint = "pass"
	TintFail Tint = "fail"
)

// LineSpan is the minimal line interval covering a call frame.
type LineSpan struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// Decorations is the derived highlight state for one cursor position.
type Decorations struct {
	ActiveLine int       `json:"active_line,omitempty"`
	FrameSpan  *LineSpan `json:"frame_span,omitempty"`
	Tint       Tint      `json:"tint"`
}

// TintFor picks the frame tint for a step: fail when the step carries an
// execution error, pass when execution has finished, none otherwise.
func TintFor(step *trace.Step) Tint {
	if step == nil {
		return TintNone
	}
	if step.Error != "" {
		return TintFail
	}
	if !step.IsExecuting {
		return TintPass
	}
	return TintNone
}

// FrameIndex maps a frame id to the minimal line interval covering every
// mapped span of the source-sequence steps owned by that frame. Built once
// per trace install; rescanning per render would be correct but wasteful.
type FrameIndex map[int]LineSpan

// BuildFrameIndex indexes the line span of every frame id appearing in the
// trace's source sequence. Steps lacking a span or a frame id contribute
// nothing.
func BuildFrameIndex(t *trace.Trace) FrameIndex {
	idx := make(FrameIndex)
	for _, step := range t.SourceSequence() {
		id, ok := step.Frame()
		if !ok {
			continue
		}
		ss, ok := step.MappedSpan()
		if !ok {
			continue
		}
		span, seen := idx[id]
		if !seen {
			idx[id] = LineSpan{StartLine: ss.Line, EndLine: ss.Last()}
			continue
		}
		if ss.Line < span.StartLine {
			span.StartLine = ss.Line
		}
		if ss.Last() > span.EndLine {
			span.EndLine = ss.Last()
		}
		idx[id] = span
	}
	return idx
}

// Derive computes the decorations for the active step. A pass tints the
// outermost frame (id 0); a fail tints the frame the failing step belongs
// to. When the target frame owns no mapped steps there is no frame span and
// no tint is shown.
func Derive(frames FrameIndex, active *trace.Step, tint Tint) Decorations {
	dec := Decorations{Tint: TintNone}
	if active == nil {
		return dec
	}
	if line, ok := active.Line(); ok {
		dec.ActiveLine = line
	}
	if tint == TintNone {
		return dec
	}
	frameID := 0
	if tint == TintFail {
		id, ok := active.Frame()
		if !ok {
			return dec
		}
		frameID = id
	}
	span, ok := frames[frameID]
	if !ok {
		return dec
	}
	dec.FrameSpan = &span
	dec.Tint = tint
	return dec
}

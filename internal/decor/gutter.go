package decor

import "github.com/silverlang/sildbg/internal/trace"

// Gutter class names, matching the stylesheet of the web front end.
const (
	ClassError      = "error"
	ClassPass       = "fn-pass"
	ClassFail       = "fn-fail"
	ClassActive     = "active"
	ClassBreakpoint = "bp"
)

// LineState is the rendered class set of one source line. Lines with no
// classes are omitted from gutter output.
type LineState struct {
	Line    int      `json:"line"`
	Classes []string `json:"classes"`
}

// GutterState computes the class set for every line 1..lineCount: error for
// a pending diagnostic span, fn-pass/fn-fail for lines inside the tinted
// frame span, active for the active line and bp for breakpoint members.
func GutterState(lineCount int, diag *trace.Span, dec Decorations, hasBreakpoint func(line int) bool) []LineState {
	var out []LineState
	for line := 1; line <= lineCount; line++ {
		var classes []string
		if diag != nil && line >= diag.Line && line <= diag.Last() {
			classes = append(classes, ClassError)
		}
		if dec.FrameSpan != nil && line >= dec.FrameSpan.StartLine && line <= dec.FrameSpan.EndLine {
			switch dec.Tint {
			case TintPass:
				classes = append(classes, ClassPass)
			case TintFail:
				classes = append(classes, ClassFail)
			}
		}
		if dec.ActiveLine == line {
			classes = append(classes, ClassActive)
		}
		if hasBreakpoint != nil && hasBreakpoint(line) {
			classes = append(classes, ClassBreakpoint)
		}
		if len(classes) > 0 {
			out = append(out, LineState{Line: line, Classes: classes})
		}
	}
	return out
}

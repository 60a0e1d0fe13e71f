package decor

import (
	"reflect"
	"testing"

	"github.com/silverlang/sildbg/internal/trace"
)

func TestGutterStateClassUnion(t *testing.T) {
	span := LineSpan{StartLine: 2, EndLine: 4}
	dec := Decorations{ActiveLine: 3, FrameSpan: &span, Tint: TintFail}
	diag := &trace.Span{Line: 4, Col: 1}
	bps := func(line int) bool { return line == 3 || line == 6 }

	got := GutterState(6, diag, dec, bps)
	want := []LineState{
		{Line: 2, Classes: []string{ClassFail}},
		{Line: 3, Classes: []string{ClassFail, ClassActive, ClassBreakpoint}},
		{Line: 4, Classes: []string{ClassError, ClassFail}},
		{Line: 6, Classes: []string{ClassBreakpoint}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("GutterState() = %+v, want %+v", got, want)
	}
}

func TestGutterStatePassTint(t *testing.T) {
	span := LineSpan{StartLine: 1, EndLine: 2}
	dec := Decorations{ActiveLine: 2, FrameSpan: &span, Tint: TintPass}

	got := GutterState(3, nil, dec, nil)
	want := []LineState{
		{Line: 1, Classes: []string{ClassPass}},
		{Line: 2, Classes: []string{ClassPass, ClassActive}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("GutterState() = %+v, want %+v", got, want)
	}
}

func TestGutterStateMultiLineDiagnostic(t *testing.T) {
	diag := &trace.Span{Line: 2, Col: 1, EndLine: 3}

	got := GutterState(4, diag, Decorations{Tint: TintNone}, nil)
	want := []LineState{
		{Line: 2, Classes: []string{ClassError}},
		{Line: 3, Classes: []string{ClassError}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("GutterState() = %+v, want %+v", got, want)
	}
}

func TestGutterStateEmpty(t *testing.T) {
	if got := GutterState(5, nil, Decorations{Tint: TintNone}, nil); got != nil {
		t.Fatalf("GutterState() = %+v, want nil", got)
	}
	if got := GutterState(0, &trace.Span{Line: 1, Col: 1}, Decorations{Tint: TintNone}, nil); got != nil {
		t.Fatalf("GutterState() with no lines = %+v, want nil", got)
	}
}

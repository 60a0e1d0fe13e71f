// Package watch evaluates user expressions against the variable snapshot of
// a trace step. The same machinery drives the watch list and conditional
// breakpoints.
package watch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/silverlang/sildbg/internal/trace"
)

// Validate rejects expressions that cannot be watch expressions before they
// reach the evaluator.
func Validate(cond string) error {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return fmt.Errorf("empty expression")
	}
	if strings.ContainsAny(cond, ";{}") {
		return fmt.Errorf("expected a single expression")
	}
	if _, err := expr.Compile(cond); err != nil {
		return fmt.Errorf("invalid expression: %w", err)
	}
	return nil
}

// Eval evaluates the expression against the step's variables and renders the
// result. A nil step evaluates against an empty environment.
func Eval(cond string, step *trace.Step) (string, error) {
	out, err := expr.Eval(strings.TrimSpace(cond), Bindings(step))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v", out), nil
}

// EvalBool evaluates a conditional breakpoint expression. The result must be
// a boolean.
func EvalBool(cond string, step *trace.Step) (bool, error) {
	out, err := expr.Eval(strings.TrimSpace(cond), Bindings(step))
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition must evaluate to bool (got %T)", out)
	}
	return b, nil
}

// Bindings maps a step's variable snapshot to an evaluation environment.
// Integer-typed values bind as int64 so comparisons and arithmetic behave
// naturally; everything else binds as the engine's rendered string.
func Bindings(step *trace.Step) map[string]any {
	env := make(map[string]any)
	if step == nil {
		return env
	}
	for _, v := range step.Vars {
		env[v.Name] = bindValue(v)
	}
	return env
}

func bindValue(v trace.Var) any {
	switch v.TypeName {
	case "int":
		if n, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
			return n
		}
	case "bool":
		if b, err := strconv.ParseBool(v.Value); err == nil {
			return b
		}
	}
	return v.Value
}

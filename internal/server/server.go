package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/silverlang/sildbg/internal/engine"
	"github.com/silverlang/sildbg/internal/session"
)

// InitialScript is the script and run arguments the server was started
// with, offered to clients through the init tool.
type InitialScript struct {
	Source           string   `json:"source"`
	Function         string   `json:"function,omitempty"`
	CtorArgs         []string `json:"ctor_args"`
	Args             []string `json:"args"`
	ExpectNoSelector bool     `json:"expect_no_selector"`
}

// CompileArgs represents the arguments for the compile tool
type CompileArgs struct {
	Source string `json:"source" jsonschema:"Script source to compile"`
}

// RunArgs represents the arguments for the run and sigscript tools
type RunArgs struct {
	Source           string   `json:"source" jsonschema:"Script source to compile and execute"`
	Function         string   `json:"function,omitempty" jsonschema:"Entrypoint function name. Defaults to the first entrypoint."`
	CtorArgs         []string `json:"ctor_args,omitempty" jsonschema:"Constructor argument values"`
	Args             []string `json:"args,omitempty" jsonschema:"Function argument values"`
	ExpectNoSelector bool     `json:"expect_no_selector,omitempty" jsonschema:"Require the contract to have exactly one entrypoint"`
}

// EmptyArgs is used by tools that take no arguments
type EmptyArgs struct{}

// OpcodeStepArgs represents the arguments for the opcode_step tool
type OpcodeStepArgs struct {
	Delta int `json:"delta" jsonschema:"Instruction delta, -1 or +1"`
}

// JumpOpcodeArgs represents the arguments for the jump_opcode tool
type JumpOpcodeArgs struct {
	Index int `json:"index" jsonschema:"Opcode index to jump to. Out of range values clamp."`
}

// ToggleBreakpointArgs represents the arguments for the toggle_breakpoint tool
type ToggleBreakpointArgs struct {
	Line int `json:"line" jsonschema:"1-based source line"`
}

// BreakIfArgs represents the arguments for the break_if tool
type BreakIfArgs struct {
	Line int    `json:"line" jsonschema:"1-based source line"`
	Expr string `json:"expr" jsonschema:"Condition over the step's variables, e.g. 'seed > 10'"`
}

// BreakFunctionArgs represents the arguments for the break_function tool
type BreakFunctionArgs struct {
	Pattern string `json:"pattern" jsonschema:"Glob matched against the innermost call-stack function, e.g. 'check_*'"`
}

// WatchAddArgs represents the arguments for the watch_add tool
type WatchAddArgs struct {
	Expr string `json:"expr" jsonschema:"Expression over the step's variables"`
}

// WatchRemoveArgs represents the arguments for the watch_remove tool
type WatchRemoveArgs struct {
	ID int `json:"id" jsonschema:"Watch id returned by watch_add"`
}

// NewMCPServer creates and configures the MCP server
func NewMCPServer(sessionMgr *session.Manager, eng *engine.Client, initial *InitialScript) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "sildbg",
		Version: "1.0.0",
	}, &mcp.ServerOptions{
		Instructions: `
Step debugger for compiled script traces.

The engine service compiles and executes a script once, producing a full
trace: one step per emitted opcode and one step per executed source
statement, each with stack and variable snapshots. The debugger navigates
that finished trace; nothing re-executes while you step.

Typical workflow:
1. compile { source } to inspect entrypoints and parameters
2. run { source, function, args } to install a trace
3. toggle_breakpoint / break_if / break_function to set breakpoints
4. step_into, step_over, step_out, continue, opcode_step to navigate
5. state to read the cursor position, highlights and variable snapshot
6. watch_add / watch_eval to track expressions across steps

Notes:
- Navigation never fails: out-of-range positions clamp silently
- Breakpoints are line-addressed and survive re-running the script
- A failing run keeps the previous trace navigable and reports the
  diagnostic span in the gutter
`,
	})

	server.AddReceivingMiddleware(createSessionInjectionMiddleware(sessionMgr))
	server.AddReceivingMiddleware(createLoggingMiddleware())

	// Register init tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "init",
		Description: "Return the script and run arguments the server was started with, if any.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
		if initial == nil {
			return textResult("no initial script configured"), nil, nil
		}
		return jsonResult(initial)
	})

	// Register compile tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "compile",
		Description: "Compile a script and return its outline: entrypoint functions, parameter types and constructor parameters.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args CompileArgs) (*mcp.CallToolResult, any, error) {
		outline, err := eng.Outline(ctx, args.Source)
		if err != nil {
			return diagnosticResult(err)
		}
		return jsonResult(outline)
	})

	// Register run tool
	mcp.AddTool(server, &mcp.Tool{
		Name: "run",
		Description: `Compile and execute a script function, install the resulting trace and reset the cursor to the first step.

Breakpoints and watches persist across runs. A compile or execution
diagnostic leaves any previous trace navigable; the diagnostic appears in
the returned state.`,
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RunArgs) (*mcp.CallToolResult, any, error) {
		sess, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}

		gen := sess.NextGeneration()
		tr, err := eng.Trace(ctx, engine.RunRequest{
			Source:           args.Source,
			Function:         args.Function,
			CtorArgs:         orEmpty(args.CtorArgs),
			Args:             orEmpty(args.Args),
			ExpectNoSelector: args.ExpectNoSelector,
		})
		if err != nil {
			var diag *engine.Diagnostic
			if errors.As(err, &diag) {
				sess.RecordDiagnostic(diag, gen)
				return jsonResult(sess.State())
			}
			return nil, nil, fmt.Errorf("trace request failed: %w", err)
		}

		if !sess.InstallTrace(tr, gen) {
			return textResult("run superseded by a newer request"), nil, nil
		}
		return jsonResult(sess.State())
	})

	// Register sigscript tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "sigscript",
		Description: "Build the signature script for a function call without executing it.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RunArgs) (*mcp.CallToolResult, any, error) {
		sig, err := eng.SigScript(ctx, engine.RunRequest{
			Source:           args.Source,
			Function:         args.Function,
			CtorArgs:         orEmpty(args.CtorArgs),
			Args:             orEmpty(args.Args),
			ExpectNoSelector: args.ExpectNoSelector,
		})
		if err != nil {
			return diagnosticResult(err)
		}
		return jsonResult(sig)
	})

	// Navigation tools all answer with the post-move state.
	addNavTool(server, "step_into",
		"Advance to the next source statement in execution order, entering calls.",
		func(s *session.DebugSession) { s.StepInto() })
	addNavTool(server, "step_over",
		"Advance to the next source statement at the current call depth or shallower, skipping over calls.",
		func(s *session.DebugSession) { s.StepOver() })
	addNavTool(server, "step_out",
		"Run until control returns to the enclosing call frame.",
		func(s *session.DebugSession) { s.StepOut() })
	addNavTool(server, "continue",
		"Run forward to the next breakpoint hit, or to the end of the trace.",
		func(s *session.DebugSession) { s.Continue() })

	// Register opcode_step tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "opcode_step",
		Description: "Move the cursor one instruction forward (+1) or back (-1), independent of source structure.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args OpcodeStepArgs) (*mcp.CallToolResult, any, error) {
		sess, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		if args.Delta != 1 && args.Delta != -1 {
			return nil, nil, fmt.Errorf("delta must be -1 or +1, got %d", args.Delta)
		}
		sess.OpcodeStep(args.Delta)
		return jsonResult(sess.State())
	})

	// Register jump_opcode tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "jump_opcode",
		Description: "Place the cursor directly on an instruction of the disassembly listing and resync the source position.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args JumpOpcodeArgs) (*mcp.CallToolResult, any, error) {
		sess, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		sess.JumpToOpcodeIndex(args.Index)
		return jsonResult(sess.State())
	})

	// Register state tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "state",
		Description: "Read the current cursor position, active step, highlight regions, gutter classes, breakpoints and watch values.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
		sess, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(sess.State())
	})

	// Register toggle_breakpoint tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "toggle_breakpoint",
		Description: "Toggle a line breakpoint. Breakpoints address line numbers, never content, and survive re-running the script.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ToggleBreakpointArgs) (*mcp.CallToolResult, any, error) {
		sess, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		set := sess.ToggleBreakpoint(args.Line)
		return jsonResult(map[string]any{"line": args.Line, "set": set, "breakpoints": sess.Breakpoints()})
	})

	// Register break_if tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "break_if",
		Description: "Install a conditional breakpoint: continue stops at the line only when the condition evaluates true against the step's variables.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args BreakIfArgs) (*mcp.CallToolResult, any, error) {
		sess, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		if err := sess.BreakIf(args.Line, args.Expr); err != nil {
			return nil, nil, err
		}
		return textResult(fmt.Sprintf("conditional breakpoint set at line %d: %s", args.Line, args.Expr)), nil, nil
	})

	// Register break_function tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "break_function",
		Description: "Install a function breakpoint: continue stops at steps whose innermost call-stack function matches the glob pattern.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args BreakFunctionArgs) (*mcp.CallToolResult, any, error) {
		sess, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		if err := sess.BreakFunction(args.Pattern); err != nil {
			return nil, nil, fmt.Errorf("invalid pattern %q: %w", args.Pattern, err)
		}
		return textResult(fmt.Sprintf("function breakpoint set: %s", args.Pattern)), nil, nil
	})

	// Register clear_breakpoints tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_breakpoints",
		Description: "Remove all breakpoints: line, conditional and function.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
		sess, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		sess.ClearBreakpoints()
		return textResult("breakpoints cleared"), nil, nil
	})

	// Register watch_add tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "watch_add",
		Description: "Register a watch expression evaluated against the active step's variables.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args WatchAddArgs) (*mcp.CallToolResult, any, error) {
		sess, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		item, err := sess.AddWatch(args.Expr)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(item)
	})

	// Register watch_remove tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "watch_remove",
		Description: "Remove a watch expression by id.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args WatchRemoveArgs) (*mcp.CallToolResult, any, error) {
		sess, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		if !sess.RemoveWatch(args.ID) {
			return nil, nil, fmt.Errorf("watch %d not found", args.ID)
		}
		return textResult(fmt.Sprintf("watch %d removed", args.ID)), nil, nil
	})

	// Register watch_eval tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "watch_eval",
		Description: "Evaluate every registered watch at the active step.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
		sess, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(sess.EvalWatches())
	})

	// Register stop tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "stop",
		Description: "Drop the installed trace and return to the empty state. Breakpoints and watches are kept.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
		sess, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		sess.ClearTrace()
		return jsonResult(sess.State())
	})

	return server
}

// addNavTool registers a no-argument navigation tool that answers with the
// post-move session state.
func addNavTool(server *mcp.Server, name, description string, move func(*session.DebugSession)) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        name,
		Description: description,
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
		sess, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		move(sess)
		return jsonResult(sess.State())
	})
}

// jsonResult marshals a value into a text content result.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// diagnosticResult reports an engine diagnostic as tool output rather than a
// protocol error; transport failures stay errors.
func diagnosticResult(err error) (*mcp.CallToolResult, any, error) {
	var diag *engine.Diagnostic
	if !errors.As(err, &diag) {
		return nil, nil, err
	}
	data, merr := json.MarshalIndent(diag, "", "  ")
	if merr != nil {
		return nil, nil, merr
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

// orEmpty keeps nil argument slices encoding as [] the way the engine
// expects.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Package engine is the HTTP client for the compile/execute service. The
// service owns compilation, script execution and signature-script assembly;
// this client only ships requests and decodes the trace or diagnostic that
// comes back.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/silverlang/sildbg/internal/trace"
)

// Diagnostic is a compile/execute/sign failure reported by the engine
// service: a message plus an optional source span. It is surfaced to the
// caller as data and never corrupts session state.
type Diagnostic struct {
	Message string      `json:"error"`
	Span    *trace.Span `json:"span,omitempty"`
}

func (d *Diagnostic) Error() string {
	return d.Message
}

// ParamInfo describes one declared parameter.
type ParamInfo struct {
	Name     string `json:"name"`
	TypeName string `json:"type_name"`
}

// FunctionInfo describes one entrypoint function of the compiled contract.
type FunctionInfo struct {
	Name          string      `json:"name"`
	SelectorIndex *int        `json:"selector_index,omitempty"`
	Inputs        []ParamInfo `json:"inputs"`
}

// Outline is the compile result: entrypoints and constructor parameters.
type Outline struct {
	ContractName      string         `json:"contract_name"`
	ConstructorParams []ParamInfo    `json:"constructor_params"`
	Functions         []FunctionInfo `json:"functions"`
	WithoutSelector   bool           `json:"without_selector"`
}

// RunRequest selects the function and arguments for a trace or signature
// script build.
type RunRequest struct {
	Source           string   `json:"source"`
	Function         string   `json:"function,omitempty"`
	CtorArgs         []string `json:"ctor_args"`
	Args             []string `json:"args"`
	ExpectNoSelector bool     `json:"expect_no_selector"`
}

// SigScript is the assembled signature script for one function call.
type SigScript struct {
	ContractName    string `json:"contract_name"`
	FunctionName    string `json:"function_name"`
	SelectorIndex   *int   `json:"selector_index,omitempty"`
	SigscriptHex    string `json:"sigscript_hex"`
	SigscriptLen    int    `json:"sigscript_len"`
	WithoutSelector bool   `json:"without_selector"`
}

// Client talks to one engine service instance.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a client for the engine service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Outline compiles the source and returns its entrypoint outline.
func (c *Client) Outline(ctx context.Context, source string) (*Outline, error) {
	var out Outline
	if err := c.post(ctx, "/api/outline", struct {
		Source string `json:"source"`
	}{Source: source}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Trace compiles and executes the selected function, returning the full
// two-sequence trace.
func (c *Client) Trace(ctx context.Context, req RunRequest) (*trace.Trace, error) {
	var out trace.Trace
	if err := c.post(ctx, "/api/trace", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SigScript builds the signature script for the selected function call.
func (c *Client) SigScript(ctx context.Context, req RunRequest) (*SigScript, error) {
	var out SigScript
	if err := c.post(ctx, "/api/sigscript", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// post sends a JSON request and decodes either the expected response or the
// engine's diagnostic payload. Transport failures wrap as plain errors;
// engine failures come back as *Diagnostic.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read engine response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var diag Diagnostic
		if err := json.Unmarshal(data, &diag); err != nil || diag.Message == "" {
			return fmt.Errorf("engine returned status %d: %s", resp.StatusCode, string(data))
		}
		return &diag
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode engine response: %w", err)
	}
	return nil
}

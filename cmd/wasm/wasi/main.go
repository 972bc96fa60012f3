//go:build wasip1

// Command gowhere-wasm-wasi is the WASI (wasip1) entrypoint for use from any
// language that supports the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin, single JSON object on stdout.
//
//	stdin:  { "program": "<source>", "document": { ... }, "optimize": false }
//	stdout: { "result": <JSON value>, "match": <bool>, "predicates": "<text>" }  on success
//	        { "error":  "<message>" }                                           on failure (exit code 1)
//
// The program may be a bare expression. With optimize set, the extracted
// predicates are reported and checked first; a document they reject yields
// match false without evaluation.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o gowhere.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"program":"this.age > 18","document":{"age":41}}' | wasmtime gowhere.wasm
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/sandrolain/gowhere"
	"github.com/sandrolain/gowhere/pkg/document"
	"github.com/sandrolain/gowhere/pkg/evaluator"
	"github.com/sandrolain/gowhere/pkg/parser"
	"github.com/sandrolain/gowhere/pkg/types"
)

type request struct {
	Program  string          `json:"program"`
	Document json.RawMessage `json:"document"`
	Optimize bool            `json:"optimize"`
}

type response struct {
	Result     any    `json:"result,omitempty"`
	Match      bool   `json:"match"`
	Predicates string `json:"predicates,omitempty"`
	Error      string `json:"error,omitempty"`
}

func writeResponse(r response, exitCode int) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
	os.Exit(exitCode)
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(response{Error: "invalid request JSON: " + err.Error()}, 1)
	}

	var doc types.Document = document.Empty
	if len(req.Document) > 0 {
		d, err := document.ParseJSON(req.Document)
		if err != nil {
			writeResponse(response{Error: err.Error()}, 1)
		}
		doc = d
	}

	expr, err := gowhere.Compile(parser.WrapBare(req.Program))
	if err != nil {
		writeResponse(response{Error: err.Error()}, 1)
	}

	var resp response
	if req.Optimize {
		shadow, err := gowhere.Compile(expr.Source())
		if err != nil {
			writeResponse(response{Error: err.Error()}, 1)
		}
		preds := gowhere.Optimize(shadow)
		resp.Predicates = preds.String()
		if !preds.Matches(doc) {
			writeResponse(resp, 0)
		}
	}

	value, err := evaluator.New().Eval(context.Background(), expr, doc)
	if err != nil {
		writeResponse(response{Error: err.Error()}, 1)
	}
	resp.Match = !types.IsFalsy(value)
	resp.Result = value.Native()
	writeResponse(resp, 0)
}

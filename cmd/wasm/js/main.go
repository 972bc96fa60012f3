//go:build js && wasm

// Command gowhere-wasm-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `gowhere` object with the following API:
//
//	gowhere.version()                 → string
//	gowhere.eval(program, docJSON)    → resultJSON  (throws on error)
//	gowhere.compile(program)          → { eval(docJSON), match(docJSON), predicates() }  (throws on error)
//
// Programs may be bare expressions such as "this.age > 18".
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o gowhere.wasm ./cmd/wasm/js/
//
// Usage in Node.js:
//
//	const gw = await load()
//	const result = gw.eval('this.name', JSON.stringify({name:'Alice'}))
//	console.log(JSON.parse(result)) // 'Alice'
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/sandrolain/gowhere"
	"github.com/sandrolain/gowhere/pkg/document"
	"github.com/sandrolain/gowhere/pkg/evaluator"
	"github.com/sandrolain/gowhere/pkg/parser"
	"github.com/sandrolain/gowhere/pkg/types"
)

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	panic(js.Global().Get("Error").New(msg))
}

func parseDocument(fn, raw string) types.Document {
	doc, err := document.ParseJSON([]byte(raw))
	if err != nil {
		jsThrow(fmt.Sprintf("%s: %v", fn, err))
	}
	return doc
}

func encodeResult(fn string, v types.Value) string {
	out, err := json.Marshal(v.Native())
	if err != nil {
		jsThrow(fmt.Sprintf("%s: marshal result: %v", fn, err))
	}
	return string(out)
}

// jsEval implements gowhere.eval(program, docJSON) → resultJSON.
func jsEval(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		jsThrow("gowhere.eval requires 2 arguments: program (string) and document (JSON string)")
	}
	doc := parseDocument("gowhere.eval", args[1].String())

	result, err := gowhere.Eval(parser.WrapBare(args[0].String()), doc)
	if err != nil {
		jsThrow(fmt.Sprintf("gowhere.eval: %v", err))
	}
	return encodeResult("gowhere.eval", result)
}

// jsCompile implements gowhere.compile(program).
func jsCompile(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		jsThrow("gowhere.compile requires 1 argument: program (string)")
	}

	expr, err := gowhere.Compile(parser.WrapBare(args[0].String()))
	if err != nil {
		jsThrow(fmt.Sprintf("gowhere.compile: %v", err))
	}

	ev := evaluator.New()

	evalFn := js.FuncOf(func(_ js.Value, innerArgs []js.Value) any {
		if len(innerArgs) < 1 {
			jsThrow("compiled.eval requires 1 argument: document (JSON string)")
		}
		doc := parseDocument("compiled.eval", innerArgs[0].String())
		r, e := ev.Eval(context.Background(), expr, doc)
		if e != nil {
			jsThrow(fmt.Sprintf("compiled.eval: %v", e))
		}
		return encodeResult("compiled.eval", r)
	})

	matchFn := js.FuncOf(func(_ js.Value, innerArgs []js.Value) any {
		if len(innerArgs) < 1 {
			jsThrow("compiled.match requires 1 argument: document (JSON string)")
		}
		doc := parseDocument("compiled.match", innerArgs[0].String())
		ok, e := ev.Match(context.Background(), expr, doc)
		if e != nil {
			jsThrow(fmt.Sprintf("compiled.match: %v", e))
		}
		return ok
	})

	// Predicates are reported from an independent compilation so that eval
	// and match keep full semantics.
	predicatesFn := js.FuncOf(func(_ js.Value, _ []js.Value) any {
		shadow, e := gowhere.Compile(expr.Source())
		if e != nil {
			jsThrow(fmt.Sprintf("compiled.predicates: %v", e))
		}
		return gowhere.Optimize(shadow).String()
	})

	return js.ValueOf(map[string]any{
		"eval":       evalFn,
		"match":      matchFn,
		"predicates": predicatesFn,
	})
}

func main() {
	api := map[string]any{
		"eval":    js.FuncOf(jsEval),
		"compile": js.FuncOf(jsCompile),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) any {
			return gowhere.Version()
		}),
	}
	js.Global().Set("gowhere", js.ValueOf(api))

	// Block forever: the JS event loop owns execution from here.
	select {}
}

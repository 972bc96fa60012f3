package gowhere_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandrolain/gowhere"
	"github.com/sandrolain/gowhere/pkg/document"
	"github.com/sandrolain/gowhere/pkg/types"
)

func ExampleEval() {
	result, err := gowhere.Eval("return this.age + 1;", document.Map{"age": 41})
	if err != nil {
		panic(err)
	}
	fmt.Println(result.GoString())
	// Output: Int32(42)
}

func ExampleEval_coercion() {
	for _, src := range []string{
		`return "a" + 1;`,
		"return 1 / 0;",
		"return 2147483647 + 1;",
		`return 1 == "1";`,
	} {
		v, err := gowhere.Eval(src, nil)
		if err != nil {
			panic(err)
		}
		fmt.Println(v.GoString())
	}
	// Output:
	// String("a1")
	// String("Infinity")
	// Int64(2147483648)
	// Bool(true)
}

func ExampleEval_error() {
	_, err := gowhere.Eval("return this.missing * 2;", document.Map{})
	fmt.Println(errors.Is(err, types.ErrTypeCoercion))
	// Output: true
}

func ExampleOptimize() {
	expr := gowhere.MustCompile("return this.price > 100 && 'new' === this.tags[0];")
	preds := gowhere.Optimize(expr)
	fmt.Println(preds)

	doc := document.MustParseJSON(`{"price": 150, "tags": ["new"]}`)
	if preds.Matches(doc) {
		ok, _ := gowhere.Match(context.Background(), expr, doc)
		fmt.Println(ok)
	}
	// Output:
	// (price > 100) AND (tags.0 === "new")
	// true
}

func ExampleLex() {
	tokens, _ := gowhere.Lex("return this.a;")
	for _, t := range tokens {
		fmt.Printf("%s %q\n", t.Type, t.Value)
	}
	// Output:
	// return "return"
	// this "this"
	// . "."
	// (identifier) "a"
	// ; ";"
	// (eof) ""
}

package parser_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/sandrolain/gowhere/pkg/parser"
	"github.com/sandrolain/gowhere/pkg/types"
)

func FuzzLexer(f *testing.F) {
	seeds := []string{
		`return this.a > 3;`,
		`"unterminated`,
		"'a\nb' @ c",
		`-Infinity - -Infinity`,
		`1..2`,
		`@#$`,
		`this["k"] !== ''`,
		"\xff\xfe",
		``,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		tokens, err := parser.Lex(input)
		if len(tokens) == 0 || tokens[len(tokens)-1].Type != parser.TokenEOF {
			t.Fatalf("Lex(%q) did not end with EOF", input)
		}
		again, err2 := parser.Lex(input)
		if !reflect.DeepEqual(tokens, again) || !reflect.DeepEqual(err, err2) {
			t.Fatalf("Lex(%q) is not deterministic: %v, %v then %v, %v", input, tokens, err, again, err2)
		}

		all := lexAll(t, input)
		var kept []parser.Token
		lastError := -1
		covered := make([]int, len(input))
		for _, tok := range all {
			if tok.Position < 0 || tok.End > len(input) || tok.Position > tok.End {
				t.Fatalf("Lex(%q) produced token %v outside the input", input, tok)
			}
			start := tok.Position
			switch tok.Type {
			case parser.TokenError:
				lastError = tok.Position
			case parser.TokenString:
				// The span starts after the opening quote.
				start--
			}
			if tok.Type != parser.TokenError {
				kept = append(kept, tok)
			}
			for i := start; i < tok.End; i++ {
				covered[i]++
			}
		}
		for i, n := range covered {
			if n > 1 || (n == 0 && !strings.ContainsRune(" \t\n\r\v\f", rune(input[i]))) {
				t.Fatalf("Lex(%q): byte %d covered by %d tokens", input, i, n)
			}
		}
		if !reflect.DeepEqual(kept, tokens) {
			t.Fatalf("Lex(%q) = %v, scanner produced %v", input, tokens, kept)
		}

		var te *types.Error
		switch {
		case lastError < 0 && err != nil:
			t.Fatalf("Lex(%q) failed without an error token: %v", input, err)
		case lastError >= 0 && !errors.As(err, &te):
			t.Fatalf("Lex(%q) = %v, want a *types.Error", input, err)
		case lastError >= 0 && te.Position != lastError:
			t.Fatalf("Lex(%q) error at %d, last error token at %d", input, te.Position, lastError)
		}
	})
}

// lexAll drives the scanner directly, keeping error tokens.
func lexAll(t *testing.T, input string) []parser.Token {
	t.Helper()
	l := parser.NewLexer(input)
	var tokens []parser.Token
	for i := 0; i <= len(input)+1; i++ {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == parser.TokenEOF {
			return tokens
		}
	}
	t.Fatalf("scanning %q did not terminate", input)
	return nil
}

func FuzzParserRoundTrip(f *testing.F) {
	seeds := []string{
		`return this.a > 3 && this.b === 'x';`,
		`function() { return this.items[0].price * 2; }`,
		`return a ? b : c ? d : e;`,
		`return - -Infinity;`,
		`return [1, "a", [NaN]];`,
		`return (`,
		`return 1 +;`,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		expr, err := parser.Compile(input)
		if err != nil {
			return
		}
		// Format adds parentheses, so the reparse runs without a depth limit.
		text := parser.Format(expr.AST())
		again, err := parser.Compile(text, parser.WithMaxDepth(0))
		if err != nil {
			t.Fatalf("Format(%q) = %q does not compile: %v", input, text, err)
		}
		if got, want := parser.Dump(again.AST()), parser.Dump(expr.AST()); got != want {
			t.Fatalf("round trip of %q through %q: got %s, want %s", input, text, got, want)
		}
	})
}

package parser_test

import (
	"errors"
	"testing"

	"github.com/sandrolain/gowhere/pkg/parser"
	"github.com/sandrolain/gowhere/pkg/types"
)

func mustCompile(t *testing.T, src string) *types.Expression {
	t.Helper()
	expr, err := parser.Compile(src)
	if err != nil {
		t.Fatalf("Failed to compile %q: %v", src, err)
	}
	return expr
}

func TestParseTree(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"integer", "return 42;", "(function (return 42))"},
		{"leading zeros", "return 0012;", "(function (return 12))"},
		{"float", "return 2.0;", "(function (return 2.0))"},
		{"string", "return 'x';", `(function (return "x"))`},
		{"literal words", "return [null, undefined, true, false];", "(function (return (array null undefined true false)))"},
		{"empty array", "return [];", "(function (return (array)))"},
		{"nested array", `return [1, "a", [2]];`, `(function (return (array 1 "a" (array 2))))`},
		{"wrapped function", "function() { return this.a; }", "(function (return (. this a)))"},
		{"member chain", "return this.a.b;", "(function (return (. (. this a) b)))"},
		{"index", "return this.a[0].b;", "(function (return (. ([] (. this a) 0) b)))"},
		{"keyword member", "return this.return;", "(function (return (. this return)))"},
		{"identifier", "return limit;", "(function (return limit))"},
		{"multiplication binds tighter", "return 1 + 2 * 3;", "(function (return (+ 1 (* 2 3))))"},
		{"left associative", "return 1 - 2 - 3;", "(function (return (- (- 1 2) 3)))"},
		{"grouping", "return (1 + 2) * 3;", "(function (return (* (+ 1 2) 3)))"},
		{"relational chain", "return 1 < 2 < 3;", "(function (return (< (< 1 2) 3)))"},
		{"relational below additive", "return a + 1 > b;", "(function (return (> (+ a 1) b)))"},
		{"and binds tighter than or", "return a || b && c;", "(function (return (|| a (&& b c))))"},
		{"equality below and", "return a === 1 && b !== 2;", "(function (return (&& (=== a 1) (!== b 2))))"},
		{"unary", "return -x;", "(function (return (- x)))"},
		{"double negation", "return !!x;", "(function (return (! (! x))))"},
		{"unary binds tighter", "return -a * b;", "(function (return (* (- a) b)))"},
		{"negative infinity literal", "return -Infinity;", "(function (return -Infinity))"},
		{"ternary", "return a ? b : c;", "(function (return (?: a b c)))"},
		{"nested ternary", "return a ? b : c ? d : e;", "(function (return (?: a b (?: c d e))))"},
		{"ternary below or", "return a || b ? 1 : 2;", "(function (return (?: (|| a b) 1 2)))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := mustCompile(t, tt.input)
			if got := parser.Dump(expr.AST()); got != tt.want {
				t.Errorf("Dump(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseWrappedFlag(t *testing.T) {
	if !mustCompile(t, "function() { return 1; }").AST().Wrapped {
		t.Error("expected function form to be recorded")
	}
	if mustCompile(t, "return 1;").AST().Wrapped {
		t.Error("expected bare form")
	}
}

func TestParseLiteralKinds(t *testing.T) {
	tests := []struct {
		input string
		want  types.Kind
	}{
		{"return 1;", types.KindInt32},
		{"return 3000000000;", types.KindInt64},
		{"return 99999999999999999999;", types.KindDouble},
		{"return 1.5;", types.KindDouble},
		{"return NaN;", types.KindDouble},
		{"return 'a';", types.KindString},
		{"return null;", types.KindNull},
		{"return undefined;", types.KindUndefined},
		{"return true;", types.KindBool},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ret := mustCompile(t, tt.input).AST().Body.Stmts[0].(*types.Return)
			lit, ok := ret.X.(*types.Literal)
			if !ok {
				t.Fatalf("expected literal, got %T", ret.X)
			}
			if lit.Value.Kind() != tt.want {
				t.Errorf("kind = %s, want %s", lit.Value.Kind(), tt.want)
			}
		})
	}
}

func TestParsePositions(t *testing.T) {
	ret := mustCompile(t, "return this.a + 1;").AST().Body.Stmts[0].(*types.Return)
	if ret.Position != 0 {
		t.Errorf("return at %d, want 0", ret.Position)
	}
	bin := ret.X.(*types.Binary)
	if bin.Position != 14 {
		t.Errorf("binary at %d, want 14", bin.Position)
	}
	member := bin.LHS.(*types.Member)
	if member.Position != 11 {
		t.Errorf("member at %d, want 11", member.Position)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		code     types.ErrorCode
		position int
	}{
		{"missing return", "this.a;", types.ErrExpectedToken, 0},
		{"missing semicolon", "return 1", types.ErrUnexpectedEnd, 8},
		{"missing expression", "return ;", types.ErrSyntaxError, 7},
		{"trailing tokens", "return 1;;", types.ErrTrailingTokens, 9},
		{"unclosed group", "return (1;", types.ErrExpectedToken, 9},
		{"dangling operator", "return 1 +;", types.ErrSyntaxError, 10},
		{"unclosed index", "return this.a[1;", types.ErrExpectedToken, 15},
		{"dot digit is a number", "return this.1;", types.ErrExpectedToken, 11},
		{"unclosed function", "function() { return 1;", types.ErrUnexpectedEnd, 22},
		{"lexer error", "return #;", types.ErrInvalidCharacter, 7},
		{"empty input", "", types.ErrUnexpectedEnd, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Compile(tt.input)
			if err == nil {
				t.Fatalf("Compile(%q) succeeded, want error", tt.input)
			}
			var te *types.Error
			if !errors.As(err, &te) {
				t.Fatalf("expected *types.Error, got %T: %v", err, err)
			}
			if te.Code != tt.code || te.Position != tt.position {
				t.Errorf("got %s at %d (%v), want %s at %d", te.Code, te.Position, err, tt.code, tt.position)
			}
		})
	}
}

func TestParseErrorFamilies(t *testing.T) {
	_, err := parser.Compile("return (;")
	if !errors.Is(err, types.ErrParse) {
		t.Errorf("expected parse error family, got %v", err)
	}
	_, err = parser.Compile("return @;")
	if !errors.Is(err, types.ErrSyntax) {
		t.Errorf("expected syntax error family, got %v", err)
	}
}

func TestParseErrorCaret(t *testing.T) {
	_, err := parser.Compile("return 1 +;")
	var te *types.Error
	if !errors.As(err, &te) {
		t.Fatalf("expected *types.Error, got %v", err)
	}
	want := "return 1 +;\n          ^"
	if got := te.Caret(); got != want {
		t.Errorf("Caret() =\n%s\nwant\n%s", got, want)
	}
}

func TestParseMaxDepth(t *testing.T) {
	src := "return ((((1))));"
	if _, err := parser.Compile(src); err != nil {
		t.Fatalf("default depth rejected %q: %v", src, err)
	}
	_, err := parser.Compile(src, parser.WithMaxDepth(3))
	var te *types.Error
	if !errors.As(err, &te) || te.Code != types.ErrMaxDepthExceeded {
		t.Fatalf("expected %s, got %v", types.ErrMaxDepthExceeded, err)
	}
}

func TestParseTokens(t *testing.T) {
	tokens, err := parser.Lex("return 1 + 2;")
	if err != nil {
		t.Fatal(err)
	}
	expr, err := parser.Parse(tokens)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := expr.Source(), "return (1 + 2);"; got != want {
		t.Errorf("Source() = %q, want %q", got, want)
	}

	// The trailing EOF token is optional.
	expr, err = parser.Parse(tokens[:len(tokens)-1])
	if err != nil {
		t.Fatalf("Parse without EOF: %v", err)
	}
	if got := parser.Dump(expr.AST()); got != "(function (return (+ 1 2)))" {
		t.Errorf("Dump = %s", got)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	inputs := []string{
		"return 1 + 2 * 3;",
		"return this.a > 3 && this.b === 'x';",
		"return a || b && !c;",
		"return this.items[0].price * 1.5;",
		"return -Infinity;",
		"return -(Infinity);",
		"return - -Infinity;",
		"return -(Infinity).a;",
		"return (-a).b;",
		"return (!a)[0];",
		"return a ? b : c ? d : e;",
		`return ['say "hi"', "it's", [], [1, NaN]];`,
		"return 99999999999999999999;",
		"return 1.a;",
		"function() { return this['x.y']; }",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			expr := mustCompile(t, input)
			text := parser.Format(expr.AST())
			again, err := parser.Compile(text)
			if err != nil {
				t.Fatalf("Format output %q does not compile: %v", text, err)
			}
			if got, want := parser.Dump(again.AST()), parser.Dump(expr.AST()); got != want {
				t.Errorf("round trip through %q changed the tree:\n got %s\nwant %s", text, got, want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"return 1+2*3;", "return (1 + (2 * 3));"},
		{"function(){return this.a;}", "function() { return this.a; }"},
		{"return a?b:c;", "return (a ? b : c);"},
		{"return -(Infinity);", "return -(Infinity);"},
		{`return 'a"b';`, `return 'a"b';`},
		{"return [1,2.0];", "return [1, 2.0];"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parser.Format(mustCompile(t, tt.input).AST()); got != tt.want {
				t.Errorf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDumpOptimized(t *testing.T) {
	expr := mustCompile(t, "return this.a > 1;")
	bin := expr.AST().Body.Stmts[0].(*types.Return).X.(*types.Binary)
	bin.Optimized = true
	if got, want := parser.Dump(expr.AST()), "(function (return (>* (. this a) 1)))"; got != want {
		t.Errorf("Dump = %s, want %s", got, want)
	}
}

func TestWrapBare(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"this.a > 1", "return this.a > 1;"},
		{"this.a > 1;", "return this.a > 1;"},
		{"  this.a  ", "return this.a;"},
		{"return 1;", "return 1;"},
		{"function() { return 1; }", "function() { return 1; }"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parser.WrapBare(tt.input); got != tt.want {
				t.Errorf("WrapBare(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if _, err := parser.Compile(parser.WrapBare(tt.input)); err != nil {
				t.Errorf("wrapped text does not compile: %v", err)
			}
		})
	}
}

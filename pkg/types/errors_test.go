package types_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sandrolain/gowhere/pkg/types"
)

func TestErrorMessage(t *testing.T) {
	err := types.NewError(types.ErrNonNumericOperand, "cannot apply -", 9)
	if got, want := err.Error(), "T1001 at position 9: cannot apply -"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	err = types.NewError(types.ErrInternal, "broken", -1)
	if got, want := err.Error(), "I0001: broken"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorFamilies(t *testing.T) {
	tests := []struct {
		code types.ErrorCode
		want types.Family
	}{
		{types.ErrStringNotClosed, types.ErrSyntax},
		{types.ErrInvalidCharacter, types.ErrSyntax},
		{types.ErrSyntaxError, types.ErrParse},
		{types.ErrMaxDepthExceeded, types.ErrParse},
		{types.ErrUndefinedOperand, types.ErrTypeCoercion},
		{types.ErrNonBooleanCondition, types.ErrTypeCoercion},
		{types.ErrStackOverflow, types.ErrEvaluation},
		{types.ErrLoopLimit, types.ErrEvaluation},
		{types.ErrInternal, types.ErrInvariant},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.Family(); got != tt.want {
				t.Errorf("Family() = %q, want %q", got, tt.want)
			}
			wrapped := fmt.Errorf("context: %w", types.NewError(tt.code, "x", 0))
			if !errors.Is(wrapped, tt.want) {
				t.Errorf("errors.Is(%v, %q) = false", wrapped, tt.want)
			}
			if tt.want != types.ErrSyntax && errors.Is(wrapped, types.ErrSyntax) {
				t.Errorf("errors.Is(%v, %q) = true", wrapped, types.ErrSyntax)
			}
		})
	}
}

func TestErrorCause(t *testing.T) {
	err := types.NewError(types.ErrInternal, "read failed", -1).WithCause(io.ErrUnexpectedEOF)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected the cause to be reachable through errors.Is")
	}
}

func TestErrorCaret(t *testing.T) {
	tests := []struct {
		name   string
		source string
		pos    int
		want   string
	}{
		{"single line", "return 1 +;", 10, "return 1 +;\n          ^"},
		{"first column", "x", 0, "x\n^"},
		{"second line", "a\nbc d", 5, "bc d\n   ^"},
		{"end of input", "ab", 2, "ab\n  ^"},
		{"no source", "", 0, ""},
		{"unknown position", "abc", -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := types.NewError(types.ErrSyntaxError, "x", tt.pos).WithSource(tt.source)
			if got := err.Caret(); got != tt.want {
				t.Errorf("Caret() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorToken(t *testing.T) {
	err := types.NewError(types.ErrNaNResult, "0 / 0", 3).WithToken("/")
	if err.Token != "/" || err.Code != types.ErrNaNResult || err.Position != 3 {
		t.Errorf("unexpected error fields: %+v", err)
	}
}

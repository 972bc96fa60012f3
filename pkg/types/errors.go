package types

import (
	"fmt"
	"strings"
)

// ErrorCode identifies a specific failure.
type ErrorCode string

// Error codes. The leading letter selects the error family.
const (
	// S01xx: lexer errors
	ErrStringNotClosed  ErrorCode = "S0101"
	ErrInvalidCharacter ErrorCode = "S0105"
	ErrInvalidNumber    ErrorCode = "S0106"

	// S02xx: parser errors
	ErrSyntaxError      ErrorCode = "S0201"
	ErrExpectedToken    ErrorCode = "S0202"
	ErrUnexpectedEnd    ErrorCode = "S0203"
	ErrTrailingTokens   ErrorCode = "S0204"
	ErrMaxDepthExceeded ErrorCode = "S0205"

	// T1xxx: type coercion errors
	ErrNonNumericOperand   ErrorCode = "T1001"
	ErrNaNOperand          ErrorCode = "T1002"
	ErrUndefinedOperand    ErrorCode = "T1003"
	ErrNaNResult           ErrorCode = "T1004"
	ErrNonBooleanCondition ErrorCode = "T1005"

	// D3xxx: evaluation limits
	ErrStackOverflow  ErrorCode = "D3020"
	ErrLoopLimit      ErrorCode = "D3030"
	ErrInvalidProgram ErrorCode = "D3040"

	// I0xxx: internal invariant violations
	ErrInternal ErrorCode = "I0001"
)

// Family is a coarse error category usable with errors.Is.
type Family string

func (f Family) Error() string { return string(f) }

// Error families.
const (
	ErrSyntax       Family = "syntax error"
	ErrParse        Family = "parse error"
	ErrTypeCoercion Family = "type coercion error"
	ErrEvaluation   Family = "evaluation error"
	ErrInvariant    Family = "internal error"
)

// Family returns the family of the code.
func (c ErrorCode) Family() Family {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "S01"):
		return ErrSyntax
	case strings.HasPrefix(s, "S"):
		return ErrParse
	case strings.HasPrefix(s, "T"):
		return ErrTypeCoercion
	case strings.HasPrefix(s, "D"):
		return ErrEvaluation
	default:
		return ErrInvariant
	}
}

// Error represents a structured error with a code and source position.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Source   string
	Err      error
}

// NewError creates a new error. Use position -1 when unknown.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the error family sentinels.
func (e *Error) Is(target error) bool {
	f, ok := target.(Family)
	return ok && e.Code.Family() == f
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithSource attaches the input text used by Caret.
func (e *Error) WithSource(source string) *Error {
	e.Source = source
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// Caret renders the line of Source containing Position with a caret below
// the offending column. It returns "" when no source is attached.
func (e *Error) Caret() string {
	if e.Source == "" || e.Position < 0 || e.Position > len(e.Source) {
		return ""
	}
	start := strings.LastIndexByte(e.Source[:e.Position], '\n') + 1
	end := strings.IndexByte(e.Source[e.Position:], '\n')
	if end < 0 {
		end = len(e.Source)
	} else {
		end += e.Position
	}
	return e.Source[start:end] + "\n" + strings.Repeat(" ", e.Position-start) + "^"
}

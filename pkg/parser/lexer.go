package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/gowhere/pkg/types"
)

const eof = -1

// Lexer converts source text into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
//
// The lexer never stops at an invalid character: it reports a TokenError,
// records the error and carries on, so that Lex can report the furthest
// error position of the whole input.
type Lexer struct {
	input   string    // Input string being scanned
	length  int       // Length of input string
	start   int       // Start position of current token
	current int       // Current position in input
	width   int       // Width of last rune read
	prev    TokenType // Type of the last significant token
	err     *types.Error
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
		prev:   TokenEOF,
	}
}

// Lex tokenizes text. The returned slice ends with a TokenEOF token.
//
// On invalid input Lex returns the tokens it could recognise together with a
// SyntaxError positioned at the furthest invalid character.
func Lex(text string) ([]Token, error) {
	l := NewLexer(text)
	var tokens []Token
	for {
		t := l.Next()
		if t.Type == TokenError {
			continue
		}
		tokens = append(tokens, t)
		if t.Type == TokenEOF {
			break
		}
	}
	if err := l.Error(); err != nil {
		return tokens, err
	}
	return tokens, nil
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	l.acceptAll(isWhitespace)
	l.ignore()

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	// A '-' in operand position may start the -Infinity literal.
	if ch == '-' && !l.prev.endsOperand() && strings.HasPrefix(l.input[l.current:], "Infinity") {
		end := l.current + len("Infinity")
		if end == l.length || !isIdentPart(rune(l.input[end])) {
			l.current = end
			return l.newToken(TokenFloat)
		}
	}

	if seqs := lookupSymbolN(ch); seqs != nil {
		for _, seq := range seqs {
			if strings.HasPrefix(l.input[l.current:], seq.rest) {
				l.current += len(seq.rest)
				return l.newToken(seq.tt)
			}
		}
	}

	// '.' followed by a digit starts a float such as .45
	if ch == '.' && l.peekDigit() {
		l.backup()
		return l.scanNumber()
	}

	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	if ch == '"' || ch == '\'' {
		l.ignore()
		return l.scanString(ch)
	}

	if isDigit(ch) {
		l.backup()
		return l.scanNumber()
	}

	if isIdentStart(ch) {
		l.backup()
		return l.scanIdent()
	}

	return l.error(types.ErrInvalidCharacter, fmt.Sprintf("Unexpected character %q", ch))
}

// Error returns the furthest error encountered so far, if any.
func (l *Lexer) Error() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

// scanString reads a string literal from the current position.
// The opening quote has already been consumed. Strings have no escape
// sequences and must be closed on the same line.
func (l *Lexer) scanString(quote rune) Token {
	for {
		switch l.nextRune() {
		case quote:
			l.backup()
			t := l.newToken(TokenString)
			l.acceptRune(quote)
			l.ignore()
			t.End = l.current
			return t
		case eof, '\n':
			// Report at the opening quote.
			l.start--
			return l.error(types.ErrStringNotClosed, "Unterminated string literal")
		}
	}
}

// scanNumber reads an integer or a float literal.
// Format: [0-9]+ | [0-9]*\.[0-9]+
func (l *Lexer) scanNumber() Token {
	l.acceptAll(isDigit)
	if l.acceptRune('.') {
		if !l.acceptAll(isDigit) {
			// "1." is the integer 1 followed by a dot.
			l.current--
			return l.newToken(TokenInteger)
		}
		return l.newToken(TokenFloat)
	}
	return l.newToken(TokenInteger)
}

// scanIdent reads an identifier or keyword.
func (l *Lexer) scanIdent() Token {
	l.acceptAll(isIdentPart)
	t := l.newToken(TokenIdent)
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
		l.prev = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	l.prev = TokenEOF
	return Token{
		Type:     TokenEOF,
		Position: l.current,
		End:      l.current,
	}
}

// error records a lexing error at the start of the current token and skips
// the offending text. Later errors replace earlier ones.
func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := Token{
		Type:     TokenError,
		Value:    l.input[l.start:l.current],
		Position: l.start,
		End:      l.current,
	}
	l.err = types.NewError(code, message, t.Position).WithToken(t.Value).WithSource(l.input)
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
		End:      l.current,
	}
	l.width = 0
	l.start = l.current
	l.prev = tt
	return t
}

func (l *Lexer) nextRune() rune {
	if l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) peekDigit() bool {
	return l.current < l.length && isDigit(rune(l.input[l.current]))
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}

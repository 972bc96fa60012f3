package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenInteger // 42, 0012
	TokenFloat   // 3.14, .5, NaN, Infinity, -Infinity
	TokenString  // "hello" or 'hello'
	TokenIdent   // name

	// Keywords
	TokenReturn    // return
	TokenFunction  // function
	TokenThis      // this
	TokenNull      // null
	TokenUndefined // undefined
	TokenTrue      // true
	TokenFalse     // false
	TokenIf        // if (reserved)
	TokenElse      // else (reserved)
	TokenWhile     // while (reserved)
	TokenVar       // var (reserved)

	// Grouping symbols
	TokenBracketOpen  // [
	TokenBracketClose // ]
	TokenBraceOpen    // {
	TokenBraceClose   // }
	TokenParenOpen    // (
	TokenParenClose   // )

	// Basic symbols
	TokenDot       // .
	TokenComma     // ,
	TokenColon     // :
	TokenSemicolon // ;
	TokenCondition // ?

	// Arithmetic operators
	TokenPlus  // +
	TokenMinus // -
	TokenMult  // *
	TokenDiv   // /

	// Comparison operators
	TokenEqual          // ==
	TokenStrictEqual    // ===
	TokenNotEqual       // !=
	TokenStrictNotEqual // !==
	TokenLess           // <
	TokenLessEqual      // <=
	TokenGreater        // >
	TokenGreaterEqual   // >=

	// Logical operators
	TokenAnd // &&
	TokenOr  // ||
	TokenNot // !

	TokenAssign // =
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenInteger:
		return "(integer)"
	case TokenFloat:
		return "(float)"
	case TokenString:
		return "(string)"
	case TokenIdent:
		return "(identifier)"
	case TokenReturn:
		return "return"
	case TokenFunction:
		return "function"
	case TokenThis:
		return "this"
	case TokenNull:
		return "null"
	case TokenUndefined:
		return "undefined"
	case TokenTrue:
		return "true"
	case TokenFalse:
		return "false"
	case TokenIf:
		return "if"
	case TokenElse:
		return "else"
	case TokenWhile:
		return "while"
	case TokenVar:
		return "var"
	case TokenBracketOpen:
		return "["
	case TokenBracketClose:
		return "]"
	case TokenBraceOpen:
		return "{"
	case TokenBraceClose:
		return "}"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenDot:
		return "."
	case TokenComma:
		return ","
	case TokenColon:
		return ":"
	case TokenSemicolon:
		return ";"
	case TokenCondition:
		return "?"
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenMult:
		return "*"
	case TokenDiv:
		return "/"
	case TokenEqual:
		return "=="
	case TokenStrictEqual:
		return "==="
	case TokenNotEqual:
		return "!="
	case TokenStrictNotEqual:
		return "!=="
	case TokenLess:
		return "<"
	case TokenLessEqual:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEqual:
		return ">="
	case TokenAnd:
		return "&&"
	case TokenOr:
		return "||"
	case TokenNot:
		return "!"
	case TokenAssign:
		return "="
	default:
		return "(unknown)"
	}
}

// IsKeyword reports whether tt is one of the reserved words.
func (tt TokenType) IsKeyword() bool {
	return tt >= TokenReturn && tt <= TokenVar
}

// Token represents a lexical token.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Source text of the token (string contents without quotes)
	Position int       // Starting byte offset in the input
	End      int       // Byte offset just past the token
}

// endsOperand reports whether a token of this type can end an operand, in
// which case a following '-' is the subtraction operator.
func (tt TokenType) endsOperand() bool {
	switch tt {
	case TokenInteger, TokenFloat, TokenString, TokenIdent,
		TokenThis, TokenNull, TokenUndefined, TokenTrue, TokenFalse,
		TokenParenClose, TokenBracketClose:
		return true
	default:
		return false
	}
}

// symbols1 maps single-character symbols to token types.
var symbols1 = [...]TokenType{
	'[': TokenBracketOpen,
	']': TokenBracketClose,
	'{': TokenBraceOpen,
	'}': TokenBraceClose,
	'(': TokenParenOpen,
	')': TokenParenClose,
	'.': TokenDot,
	',': TokenComma,
	';': TokenSemicolon,
	':': TokenColon,
	'?': TokenCondition,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMult,
	'/': TokenDiv,
	'<': TokenLess,
	'>': TokenGreater,
	'!': TokenNot,
	'=': TokenAssign,
}

// symbolSeq is a multi-character symbol continuing a leading rune.
type symbolSeq struct {
	rest string
	tt   TokenType
}

// symbolsN maps a leading rune to its longer symbols, longest first.
var symbolsN = [...][]symbolSeq{
	'=': {{"==", TokenStrictEqual}, {"=", TokenEqual}},
	'!': {{"==", TokenStrictNotEqual}, {"=", TokenNotEqual}},
	'<': {{"=", TokenLessEqual}},
	'>': {{"=", TokenGreaterEqual}},
	'&': {{"&", TokenAnd}},
	'|': {{"|", TokenOr}},
}

const (
	symbol1Count = rune(len(symbols1))
	symbolNCount = rune(len(symbolsN))
)

// lookupSymbol1 returns the token type for a single-character symbol.
// Returns 0 if the rune is not a valid symbol.
func lookupSymbol1(r rune) TokenType {
	if r < 0 || r >= symbol1Count {
		return 0
	}
	return symbols1[r]
}

// lookupSymbolN returns the longer symbols starting with r.
func lookupSymbolN(r rune) []symbolSeq {
	if r < 0 || r >= symbolNCount {
		return nil
	}
	return symbolsN[r]
}

// lookupKeyword returns the token type for a keyword or a literal spelled
// as a word. Returns 0 if the string is a plain identifier.
func lookupKeyword(s string) TokenType {
	switch s {
	case "return":
		return TokenReturn
	case "function":
		return TokenFunction
	case "this":
		return TokenThis
	case "null":
		return TokenNull
	case "undefined":
		return TokenUndefined
	case "true":
		return TokenTrue
	case "false":
		return TokenFalse
	case "if":
		return TokenIf
	case "else":
		return TokenElse
	case "while":
		return TokenWhile
	case "var":
		return TokenVar
	case "NaN", "Infinity":
		return TokenFloat
	default:
		return 0
	}
}

package parser

import (
	"fmt"

	"github.com/sandrolain/gowhere/pkg/types"
)

// Parser implements a recursive descent parser over a token slice.
type Parser struct {
	tokens []Token
	pos    int
	source string
	opts   CompileOptions
	depth  int

	// furthest is the parse error found at the highest token position.
	// It is reported when no alternative matches.
	furthest *types.Error
	// fatal aborts parsing regardless of remaining alternatives.
	fatal *types.Error
}

// production is one grammar rule returning a node or a parse error.
type production func() (types.Node, error)

// NewParser creates a parser for the given tokens. A trailing TokenEOF is
// appended when missing.
func NewParser(tokens []Token, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: 100,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if n := len(tokens); n == 0 || tokens[n-1].Type != TokenEOF {
		end := 0
		if n > 0 {
			end = tokens[n-1].End
		}
		tokens = append(tokens[:n:n], Token{Type: TokenEOF, Position: end, End: end})
	}

	return &Parser{
		tokens: tokens,
		opts:   options,
	}
}

// Parse parses the whole token sequence as a program.
func (p *Parser) Parse() (*types.Expression, error) {
	fn, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	source := p.source
	if source == "" {
		source = Format(fn)
	}
	return types.NewExpression(fn, source), nil
}

// current returns the token under the cursor.
func (p *Parser) current() Token {
	return p.tokens[p.pos]
}

// advance moves to the next token. The cursor never moves past TokenEOF.
func (p *Parser) advance() Token {
	t := p.tokens[p.pos]
	if t.Type != TokenEOF {
		p.pos++
	}
	return t
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) (Token, error) {
	t := p.current()
	if t.Type != tt {
		return t, p.errorf(types.ErrExpectedToken, "Expected %s but got %s", tt, describe(t))
	}
	return p.advance(), nil
}

// errorf creates a parser error at the current token and remembers it when
// it is the furthest one seen so far.
func (p *Parser) errorf(code types.ErrorCode, format string, args ...any) *types.Error {
	t := p.current()
	if t.Type == TokenEOF && code == types.ErrExpectedToken {
		code = types.ErrUnexpectedEnd
	}
	err := types.NewError(code, fmt.Sprintf(format, args...), t.Position).WithToken(t.Value)
	if p.source != "" {
		err.WithSource(p.source)
	}
	if p.furthest == nil || err.Position >= p.furthest.Position {
		p.furthest = err
	}
	return err
}

// try runs prod and restores the cursor when it fails.
func (p *Parser) try(prod production) (types.Node, error) {
	saved := p.pos
	n, err := prod()
	if err != nil {
		p.pos = saved
		return nil, err
	}
	return n, nil
}

// alt tries each production in order and returns the first match. When
// none matches, the furthest error is returned.
func (p *Parser) alt(prods ...production) (types.Node, error) {
	for _, prod := range prods {
		n, err := p.try(prod)
		if err == nil {
			return n, nil
		}
		if p.fatal != nil {
			return nil, p.fatal
		}
	}
	return nil, p.furthest
}

// enter guards against runaway nesting.
func (p *Parser) enter() error {
	p.depth++
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		if p.fatal == nil {
			p.fatal = p.errorf(types.ErrMaxDepthExceeded, "Expression nested deeper than %d levels", p.opts.MaxDepth)
		}
		return p.fatal
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// parseProgram parses either the function() { ... } form or a bare return
// statement, each followed by the end of input.
func (p *Parser) parseProgram() (*types.Function, error) {
	n, err := p.alt(p.parseWrappedFunction, p.parseBareFunction)
	if err != nil {
		return nil, err
	}
	return n.(*types.Function), nil
}

func (p *Parser) parseWrappedFunction() (types.Node, error) {
	start, err := p.expect(TokenFunction)
	if err != nil {
		return nil, err
	}
	for _, tt := range []TokenType{TokenParenOpen, TokenParenClose, TokenBraceOpen} {
		if _, err := p.expect(tt); err != nil {
			return nil, err
		}
	}
	ret, err := p.parseReturn()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenBraceClose); err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return &types.Function{
		Position: start.Position,
		Body:     &types.Block{Position: ret.Pos(), Stmts: []types.Node{ret}},
		Wrapped:  true,
	}, nil
}

func (p *Parser) parseBareFunction() (types.Node, error) {
	ret, err := p.parseReturn()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return &types.Function{
		Position: ret.Pos(),
		Body:     &types.Block{Position: ret.Pos(), Stmts: []types.Node{ret}},
	}, nil
}

func (p *Parser) expectEnd() error {
	if t := p.current(); t.Type != TokenEOF {
		return p.errorf(types.ErrTrailingTokens, "Unexpected %s after end of program", describe(t))
	}
	return nil
}

// parseReturn parses 'return' expr ';'.
func (p *Parser) parseReturn() (types.Node, error) {
	start, err := p.expect(TokenReturn)
	if err != nil {
		return nil, err
	}
	x, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenSemicolon); err != nil {
		return nil, err
	}
	return &types.Return{Position: start.Position, X: x}, nil
}

// parseExpression parses a ternary expression, the lowest precedence level.
func (p *Parser) parseExpression() (types.Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.current().Type != TokenCondition {
		return cond, nil
	}
	n, err := p.try(func() (types.Node, error) {
		q := p.advance()
		then, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		els, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &types.Ternary{Position: q.Position, Cond: cond, Then: then, Else: els}, nil
	})
	if err != nil {
		if p.fatal != nil {
			return nil, p.fatal
		}
		return cond, nil
	}
	return n, nil
}

var (
	orOps = map[TokenType]types.Operator{
		TokenOr: types.OpOr,
	}
	andOps = map[TokenType]types.Operator{
		TokenAnd: types.OpAnd,
	}
	relationalOps = map[TokenType]types.Operator{
		TokenEqual:          types.OpEq,
		TokenStrictEqual:    types.OpStrictEq,
		TokenNotEqual:       types.OpNotEq,
		TokenStrictNotEqual: types.OpStrictNotEq,
		TokenLess:           types.OpLess,
		TokenLessEqual:      types.OpLessEq,
		TokenGreater:        types.OpGreater,
		TokenGreaterEqual:   types.OpGreaterEq,
	}
	additiveOps = map[TokenType]types.Operator{
		TokenPlus:  types.OpAdd,
		TokenMinus: types.OpSub,
	}
	multiplicativeOps = map[TokenType]types.Operator{
		TokenMult: types.OpMul,
		TokenDiv:  types.OpDiv,
	}
)

func (p *Parser) parseOr() (types.Node, error) {
	return p.parseBinaryLevel(p.parseAnd, orOps)
}

func (p *Parser) parseAnd() (types.Node, error) {
	return p.parseBinaryLevel(p.parseRelational, andOps)
}

func (p *Parser) parseRelational() (types.Node, error) {
	return p.parseBinaryLevel(p.parseAdditive, relationalOps)
}

func (p *Parser) parseAdditive() (types.Node, error) {
	return p.parseBinaryLevel(p.parseMultiplicative, additiveOps)
}

func (p *Parser) parseMultiplicative() (types.Node, error) {
	return p.parseBinaryLevel(p.parseUnary, multiplicativeOps)
}

// parseBinaryLevel parses next followed by any number of operator suffixes
// from ops, folding them to the left. A suffix whose right operand fails to
// parse is rolled back and ends the level.
func (p *Parser) parseBinaryLevel(next production, ops map[TokenType]types.Operator) (types.Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		opTok := p.current()
		op, ok := ops[opTok.Type]
		if !ok {
			return left, nil
		}
		right, err := p.try(func() (types.Node, error) {
			p.advance()
			return next()
		})
		if err != nil {
			if p.fatal != nil {
				return nil, p.fatal
			}
			return left, nil
		}
		left = &types.Binary{Position: opTok.Position, Op: op, LHS: left, RHS: right}
	}
}

// parseUnary parses prefix '-' and '!'.
func (p *Parser) parseUnary() (types.Node, error) {
	t := p.current()
	var op types.Operator
	switch t.Type {
	case TokenMinus:
		op = types.OpNeg
	case TokenNot:
		op = types.OpNot
	default:
		return p.parsePostfix()
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.advance()
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &types.Unary{Position: t.Position, Op: op, X: x}, nil
}

// parsePostfix parses a primary followed by '.name' and '[expr]' accessors,
// folded into Member and Index nodes from the left.
func (p *Parser) parsePostfix() (types.Node, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		base := x
		var next types.Node
		switch p.current().Type {
		case TokenDot:
			next, err = p.try(func() (types.Node, error) { return p.parseMember(base) })
		case TokenBracketOpen:
			next, err = p.try(func() (types.Node, error) { return p.parseIndex(base) })
		default:
			return x, nil
		}
		if err != nil {
			if p.fatal != nil {
				return nil, p.fatal
			}
			return x, nil
		}
		x = next
	}
}

func (p *Parser) parseMember(base types.Node) (types.Node, error) {
	dot := p.advance()
	t := p.current()
	if t.Type != TokenIdent && !t.Type.IsKeyword() {
		return nil, p.errorf(types.ErrExpectedToken, "Expected field name but got %s", describe(t))
	}
	p.advance()
	return &types.Member{Position: dot.Position, X: base, Name: t.Value}, nil
}

func (p *Parser) parseIndex(base types.Node) (types.Node, error) {
	open := p.advance()
	idx, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenBracketClose); err != nil {
		return nil, err
	}
	return &types.Index{Position: open.Position, X: base, Index: idx}, nil
}

// parsePrimary parses literals, identifiers, this, parenthesised
// expressions and array literals.
func (p *Parser) parsePrimary() (types.Node, error) {
	t := p.current()
	switch t.Type {
	case TokenInteger, TokenFloat:
		return p.parseNumber()
	case TokenString:
		p.advance()
		return &types.Literal{Position: t.Position, Value: types.String(t.Value)}, nil
	case TokenTrue, TokenFalse:
		p.advance()
		return &types.Literal{Position: t.Position, Value: types.Bool(t.Type == TokenTrue)}, nil
	case TokenNull:
		p.advance()
		return &types.Literal{Position: t.Position, Value: types.Null()}, nil
	case TokenUndefined:
		p.advance()
		return &types.Literal{Position: t.Position, Value: types.Undefined()}, nil
	case TokenIdent:
		p.advance()
		return &types.Ident{Position: t.Position, Name: t.Value}, nil
	case TokenThis:
		p.advance()
		return &types.This{Position: t.Position}, nil
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenBracketOpen:
		return p.parseArrayLiteral()
	default:
		return nil, p.errorf(types.ErrSyntaxError, "Expected expression but got %s", describe(t))
	}
}

func (p *Parser) parseNumber() (types.Node, error) {
	t := p.current()
	v, err := types.ParseNumber(t.Value)
	if err != nil {
		return nil, p.errorf(types.ErrInvalidNumber, "Invalid number literal %q", t.Value)
	}
	p.advance()
	return &types.Literal{Position: t.Position, Value: v}, nil
}

// parseGrouping parses '(' expr ')'. Parentheses do not produce a node.
func (p *Parser) parseGrouping() (types.Node, error) {
	p.advance()
	x, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return x, nil
}

// parseArrayLiteral parses '[' ( expr ( ',' expr )* )? ']'.
func (p *Parser) parseArrayLiteral() (types.Node, error) {
	open := p.advance()
	arr := &types.ArrayLit{Position: open.Position, Elems: []types.Node{}}
	if p.current().Type == TokenBracketClose {
		p.advance()
		return arr, nil
	}
	for {
		elem, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		arr.Elems = append(arr.Elems, elem)
		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokenBracketClose); err != nil {
		return nil, err
	}
	return arr, nil
}

// describe renders a token for error messages.
func describe(t Token) string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenInteger, TokenFloat, TokenIdent:
		return fmt.Sprintf("%s %q", t.Type, t.Value)
	case TokenString:
		return fmt.Sprintf("string %q", t.Value)
	default:
		return fmt.Sprintf("%q", t.Type.String())
	}
}

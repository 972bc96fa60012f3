package types

// Operator identifies the operation of a Unary or Binary node.
type Operator uint8

const (
	OpInvalid Operator = iota

	// Arithmetic
	OpAdd // +
	OpSub // -
	OpMul // *
	OpDiv // /

	// Comparison
	OpEq          // ==
	OpStrictEq    // ===
	OpNotEq       // !=
	OpStrictNotEq // !==
	OpLess        // <
	OpLessEq      // <=
	OpGreater     // >
	OpGreaterEq   // >=

	// Logical
	OpAnd // &&
	OpOr  // ||

	// Unary
	OpNeg // -
	OpNot // !
)

// String returns the source spelling of the operator.
func (op Operator) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub, OpNeg:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpEq:
		return "=="
	case OpStrictEq:
		return "==="
	case OpNotEq:
		return "!="
	case OpStrictNotEq:
		return "!=="
	case OpLess:
		return "<"
	case OpLessEq:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterEq:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	case OpNot:
		return "!"
	default:
		return "(invalid)"
	}
}

// IsComparison reports whether op is one of the equality or relational
// operators.
func (op Operator) IsComparison() bool {
	return op >= OpEq && op <= OpGreaterEq
}

// Node is a node of the abstract syntax tree.
//
// The set of node kinds is closed: every implementation lives in this file.
// Every node exclusively owns its children.
type Node interface {
	// Pos returns the byte offset of the node in the source text.
	Pos() int
	node()
}

// Literal is a constant terminal.
type Literal struct {
	Position int
	Value    Value
}

// Ident is a variable reference resolved through the scope chain.
type Ident struct {
	Position int
	Name     string
}

// This refers to the current document.
type This struct {
	Position int
}

// Unary applies Op to X.
type Unary struct {
	Position int
	Op       Operator
	X        Node
}

// Binary applies Op to LHS and RHS.
//
// Optimized is set once by the predicate extractor when the comparison has
// been lifted into a native predicate; evaluation then yields true.
type Binary struct {
	Position  int
	Op        Operator
	LHS       Node
	RHS       Node
	Optimized bool
}

// Ternary is cond ? Then : Else.
type Ternary struct {
	Position int
	Cond     Node
	Then     Node
	Else     Node
}

// ArrayLit is an array literal.
type ArrayLit struct {
	Position int
	Elems    []Node
}

// Member is the accessor X.Name.
type Member struct {
	Position int
	X        Node
	Name     string
}

// Index is the accessor X[Index].
type Index struct {
	Position int
	X        Node
	Index    Node
}

// Return produces the result of the enclosing function.
type Return struct {
	Position int
	X        Node
}

// Function is the root clause: a function body made of statements.
type Function struct {
	Position int
	Body     *Block
	// Wrapped records whether the source used the function() { } form.
	Wrapped bool
}

// Block is a sequence of statements.
type Block struct {
	Position int
	Stmts    []Node
}

// If evaluates Then when Cond is truthy, otherwise Else (which may be nil).
type If struct {
	Position int
	Cond     Node
	Then     Node
	Else     Node
}

// While evaluates Body as long as Cond is truthy.
type While struct {
	Position int
	Cond     Node
	Body     Node
}

// Var binds Name in the current scope to the value of Init (undefined when
// Init is nil).
type Var struct {
	Position int
	Name     string
	Init     Node
}

func (n *Literal) Pos() int  { return n.Position }
func (n *Ident) Pos() int    { return n.Position }
func (n *This) Pos() int     { return n.Position }
func (n *Unary) Pos() int    { return n.Position }
func (n *Binary) Pos() int   { return n.Position }
func (n *Ternary) Pos() int  { return n.Position }
func (n *ArrayLit) Pos() int { return n.Position }
func (n *Member) Pos() int   { return n.Position }
func (n *Index) Pos() int    { return n.Position }
func (n *Return) Pos() int   { return n.Position }
func (n *Function) Pos() int { return n.Position }
func (n *Block) Pos() int    { return n.Position }
func (n *If) Pos() int       { return n.Position }
func (n *While) Pos() int    { return n.Position }
func (n *Var) Pos() int      { return n.Position }

func (*Literal) node()  {}
func (*Ident) node()    {}
func (*This) node()     {}
func (*Unary) node()    {}
func (*Binary) node()   {}
func (*Ternary) node()  {}
func (*ArrayLit) node() {}
func (*Member) node()   {}
func (*Index) node()    {}
func (*Return) node()   {}
func (*Function) node() {}
func (*Block) node()    {}
func (*If) node()       {}
func (*While) node()    {}
func (*Var) node()      {}

// Children returns the direct children of n in evaluation order.
func Children(n Node) []Node {
	switch t := n.(type) {
	case *Unary:
		return []Node{t.X}
	case *Binary:
		return []Node{t.LHS, t.RHS}
	case *Ternary:
		return []Node{t.Cond, t.Then, t.Else}
	case *ArrayLit:
		return t.Elems
	case *Member:
		return []Node{t.X}
	case *Index:
		return []Node{t.X, t.Index}
	case *Return:
		return []Node{t.X}
	case *Function:
		if t.Body == nil {
			return nil
		}
		return []Node{t.Body}
	case *Block:
		return t.Stmts
	case *If:
		if t.Else == nil {
			return []Node{t.Cond, t.Then}
		}
		return []Node{t.Cond, t.Then, t.Else}
	case *While:
		return []Node{t.Cond, t.Body}
	case *Var:
		if t.Init == nil {
			return nil
		}
		return []Node{t.Init}
	default:
		return nil
	}
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// IsConstant reports whether n evaluates to the same value for every
// document and scope: it reads neither this nor any variable.
func IsConstant(n Node) bool {
	constant := true
	Walk(n, func(c Node) bool {
		switch c.(type) {
		case *This, *Ident, *Var, *Return, *While:
			constant = false
		}
		return constant
	})
	return constant
}

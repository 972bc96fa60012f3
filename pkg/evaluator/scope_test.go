package evaluator_test

import (
	"context"
	"strings"
	"testing"

	"github.com/sandrolain/gowhere/pkg/document"
	"github.com/sandrolain/gowhere/pkg/evaluator"
	"github.com/sandrolain/gowhere/pkg/types"
)

func TestScopeChain(t *testing.T) {
	root := evaluator.NewScope(document.Map{"a": 1})
	root.Put("x", types.Int32(1))
	root.Put("y", types.String("root"))

	child := root.NewChild()
	child.Put("y", types.String("child"))

	compareValue(t, child.Get("x"), types.Int32(1))
	compareValue(t, child.Get("y"), types.String("child"))
	compareValue(t, root.Get("y"), types.String("root"))
	compareValue(t, child.Get("z"), types.Undefined())

	if _, ok := child.Lookup("z"); ok {
		t.Error("Lookup of an unbound name should fail")
	}
	if child.Parent() != root || root.Parent() != nil {
		t.Error("unexpected parent chain")
	}
	if v, _ := child.Document().Lookup("a"); v.GoString() != types.Int32(1).GoString() {
		t.Error("child should share the parent document")
	}
	if s := child.String(); !strings.Contains(s, "depth=1") {
		t.Errorf("String() = %q", s)
	}
}

func TestScopeEmptyDocument(t *testing.T) {
	s := evaluator.NewScope(nil)
	if _, ok := s.Document().Lookup("a"); ok {
		t.Error("nil document should behave as empty")
	}
}

func lit(v types.Value) types.Node { return &types.Literal{Value: v} }

func ident(name string) types.Node { return &types.Ident{Name: name} }

func TestEvalStatements(t *testing.T) {
	// var i = 0; while (i < 5) { if (i === 3) return i * 10; var i = i + 1; } return -1;
	loop := &types.Function{Body: &types.Block{Stmts: []types.Node{
		&types.Var{Name: "i", Init: lit(types.Int32(0))},
		&types.While{
			Cond: &types.Binary{Op: types.OpLess, LHS: ident("i"), RHS: lit(types.Int32(5))},
			Body: &types.Block{Stmts: []types.Node{
				&types.If{
					Cond: &types.Binary{Op: types.OpStrictEq, LHS: ident("i"), RHS: lit(types.Int32(3))},
					Then: &types.Return{X: &types.Binary{Op: types.OpMul, LHS: ident("i"), RHS: lit(types.Int32(10))}},
				},
				&types.Var{Name: "i", Init: &types.Binary{Op: types.OpAdd, LHS: ident("i"), RHS: lit(types.Int32(1))}},
			}},
		},
		&types.Return{X: lit(types.Int32(-1))},
	}}}

	v, err := evaluator.New().EvalNode(context.Background(), loop, nil)
	if err != nil {
		t.Fatal(err)
	}
	compareValue(t, v, types.Int32(30))

	t.Run("no return", func(t *testing.T) {
		fn := &types.Function{Body: &types.Block{Stmts: []types.Node{
			&types.Var{Name: "a", Init: lit(types.Int32(1))},
		}}}
		v, err := evaluator.New().EvalNode(context.Background(), fn, nil)
		if err != nil {
			t.Fatal(err)
		}
		compareValue(t, v, types.Undefined())
	})

	t.Run("else branch", func(t *testing.T) {
		fn := &types.Function{Body: &types.Block{Stmts: []types.Node{
			&types.If{
				Cond: lit(types.Int32(0)),
				Then: &types.Return{X: lit(types.String("then"))},
				Else: &types.Return{X: lit(types.String("else"))},
			},
		}}}
		v, err := evaluator.New().EvalNode(context.Background(), fn, nil)
		if err != nil {
			t.Fatal(err)
		}
		compareValue(t, v, types.String("else"))
	})

	t.Run("statements after return are skipped", func(t *testing.T) {
		fn := &types.Function{Body: &types.Block{Stmts: []types.Node{
			&types.Return{X: lit(types.Int32(1))},
			&types.Return{X: &types.Binary{Op: types.OpDiv, LHS: lit(types.Int32(0)), RHS: lit(types.Int32(0))}},
		}}}
		v, err := evaluator.New().EvalNode(context.Background(), fn, nil)
		if err != nil {
			t.Fatal(err)
		}
		compareValue(t, v, types.Int32(1))
	})
}

func TestEvalLoopLimit(t *testing.T) {
	forever := &types.While{Cond: lit(types.Bool(true)), Body: &types.Block{}}
	ev := evaluator.New(evaluator.WithMaxLoopIterations(10))
	_, err := ev.EvalNode(context.Background(), forever, nil)
	if err == nil {
		t.Fatal("expected loop limit error")
	}
	if code := errorCode(t, err); code != types.ErrLoopLimit {
		t.Errorf("code = %s, want %s", code, types.ErrLoopLimit)
	}
}

func TestEvalMissingNode(t *testing.T) {
	_, err := evaluator.New().EvalNode(context.Background(), &types.Return{}, nil)
	if err == nil {
		t.Fatal("expected error for a return without value")
	}
	if code := errorCode(t, err); code != types.ErrInvalidProgram {
		t.Errorf("code = %s, want %s", code, types.ErrInvalidProgram)
	}
}

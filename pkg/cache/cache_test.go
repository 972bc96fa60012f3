package cache_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sandrolain/gowhere/pkg/cache"
	"github.com/sandrolain/gowhere/pkg/parser"
	"github.com/sandrolain/gowhere/pkg/types"
)

func mustCompile(t *testing.T, src string) *types.Expression {
	t.Helper()
	expr, err := parser.Compile(src)
	if err != nil {
		t.Fatal(err)
	}
	return expr
}

func TestCacheNew(t *testing.T) {
	c := cache.New(10)
	if got := c.Len(); got != 0 {
		t.Fatalf("expected empty cache, got %d", got)
	}
	if got := c.Capacity(); got != 10 {
		t.Fatalf("expected capacity 10, got %d", got)
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	for _, size := range []int{0, -3} {
		if got := cache.New(size).Capacity(); got != cache.DefaultCapacity {
			t.Fatalf("New(%d): expected default capacity %d, got %d", size, cache.DefaultCapacity, got)
		}
	}
}

func TestCacheSetGet(t *testing.T) {
	c := cache.New(4)
	expr := mustCompile(t, "return this.name;")
	c.Set("return this.name;", expr)
	if got := c.Len(); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
	got, ok := c.Get("return this.name;")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != expr {
		t.Fatal("expected same expression pointer")
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected cache miss")
	}
}

func TestCacheSetUpdate(t *testing.T) {
	c := cache.New(4)
	expr1 := mustCompile(t, "return this.a;")
	expr2 := mustCompile(t, "return this.b;")
	c.Set("k", expr1)
	c.Set("k", expr2)
	got, ok := c.Get("k")
	if !ok || got != expr2 {
		t.Fatal("expected updated expression pointer")
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry after overwrite, got %d", c.Len())
	}
}

func TestCacheLRUEviction(t *testing.T) {
	var evicted []string
	c := cache.New(3, cache.WithEvictCallback(func(key string) {
		evicted = append(evicted, key)
	}))
	expr := mustCompile(t, "return 1;")
	for _, k := range []string{"a", "b", "c"} {
		c.Set(k, expr)
	}
	// Touch "a" so that "b" becomes the oldest entry.
	c.Get("a")
	c.Set("d", expr)

	if got := c.Len(); got != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", got)
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal(`expected "b" to be evicted`)
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evict callback saw %v, want [b]", evicted)
	}
	if got, want := fmt.Sprint(c.Keys()), "[c a d]"; got != want {
		t.Fatalf("Keys() = %s, want %s", got, want)
	}
}

func TestCacheInvalidateClear(t *testing.T) {
	c := cache.New(4)
	expr := mustCompile(t, "return 1;")
	c.Set("k", expr)
	c.Set("j", expr)
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after Invalidate")
	}
	c.Clear()
	if got := c.Len(); got != 0 {
		t.Fatalf("expected 0 after Clear, got %d", got)
	}
}

func TestCacheGetOrCompile(t *testing.T) {
	c := cache.New(4)
	calls := 0
	compile := func() (*types.Expression, error) {
		calls++
		return parser.Compile("return this.age;")
	}

	expr1, err := c.GetOrCompile("age", compile)
	if err != nil || expr1 == nil {
		t.Fatalf("first GetOrCompile: %v", err)
	}
	expr2, err := c.GetOrCompile("age", compile)
	if err != nil {
		t.Fatalf("second GetOrCompile: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 compile call, got %d", calls)
	}
	if expr1 != expr2 {
		t.Fatal("expected same pointer from cache")
	}
}

func TestCacheGetOrCompileError(t *testing.T) {
	c := cache.New(4)
	failure := errors.New("boom")
	for i := 0; i < 2; i++ {
		_, err := c.GetOrCompile("bad", func() (*types.Expression, error) {
			return nil, failure
		})
		if !errors.Is(err, failure) {
			t.Fatalf("expected compile error, got %v", err)
		}
	}
	if c.Len() != 0 {
		t.Fatal("errors must not be cached")
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := cache.New(8)
	var wg sync.WaitGroup
	results := make([]*types.Expression, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			expr, err := c.GetOrCompile("shared", func() (*types.Expression, error) {
				return parser.Compile("return this.a > 1;")
			})
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = expr
		}(i)
	}
	wg.Wait()

	cached, ok := c.Get("shared")
	if !ok {
		t.Fatal("expected cached entry")
	}
	for i, r := range results {
		if r != cached {
			t.Fatalf("result %d differs from the cached expression", i)
		}
	}
	if c.Len() != 1 {
		t.Fatalf("unexpected cache state: len %d", c.Len())
	}
}

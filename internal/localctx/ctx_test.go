package localctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/defeq/internal/level"
	"github.com/gnoswap-labs/defeq/internal/term"
	"github.com/gnoswap-labs/defeq/internal/types"
)

var backings = []Backing{BackingMap, BackingSeq}

func typ0() term.Term { return term.Type(level.Const(0)) }

func TestPutGet(t *testing.T) {
	t.Parallel()
	for _, b := range backings {
		t.Run(string(b), func(t *testing.T) {
			t.Parallel()
			ctx := New(b)
			a := term.NewLocalVar("A")
			x := term.NewLocalVar("x")

			assert.True(t, ctx.IsEmpty())
			ctx.Put(a, typ0())
			ctx.Put(x, term.NewRef(a))
			assert.False(t, ctx.IsEmpty())

			assert.Equal(t, term.NewRef(a), ctx.Get(x))
			_, ok := ctx.Lookup(term.NewLocalVar("x"))
			assert.False(t, ok)
			assert.Panics(t, func() { ctx.Get(term.NewLocalVar("y")) })
			assert.Panics(t, func() { ctx.Put(x, typ0()) })

			ctx.Put(term.Ignored, typ0())
			_, ok = ctx.Lookup(term.Ignored)
			assert.False(t, ok)
		})
	}
}

func TestExtractOrder(t *testing.T) {
	t.Parallel()
	for _, b := range backings {
		t.Run(string(b), func(t *testing.T) {
			t.Parallel()
			a := term.NewLocalVar("a")
			bb := term.NewLocalVar("b")
			c := term.NewLocalVar("c")

			root := New(b)
			root.Put(a, typ0())
			root.Put(bb, typ0())
			child := root.DeriveSeq()
			child.Put(c, term.NewRef(a))

			got := child.Extract()
			require.Len(t, got, 3)
			assert.Equal(t, []*term.LocalVar{a, bb, c}, []*term.LocalVar{got[0].Ref, got[1].Ref, got[2].Ref})
			assert.Equal(t, root, child.Parent())
			assert.Nil(t, root.Parent())
		})
	}
}

func TestRemoveImmediateFrameOnly(t *testing.T) {
	t.Parallel()
	for _, b := range backings {
		t.Run(string(b), func(t *testing.T) {
			t.Parallel()
			x := term.NewLocalVar("x")
			root := New(b)
			root.Put(x, typ0())
			child := root.DeriveMap()

			child.Remove(x)
			_, ok := child.Lookup(x)
			assert.True(t, ok)

			// shadowing in a child frame is allowed
			child.Put(x, term.NewRef(x))
			assert.Equal(t, term.NewRef(x), child.Get(x))
			child.Remove(x)
			assert.Equal(t, typ0(), child.Get(x))
		})
	}
}

func TestWithScope(t *testing.T) {
	t.Parallel()
	for _, b := range backings {
		t.Run(string(b), func(t *testing.T) {
			t.Parallel()
			ctx := New(b)
			x := term.NewLocalVar("x")
			y := term.NewLocalVar("y")
			params := []term.Param{
				{Ref: x, Type: typ0(), Explicit: true},
				{Ref: term.Ignored, Type: typ0(), Explicit: true},
				{Ref: y, Type: term.NewRef(x), Explicit: true},
			}

			n := With(ctx, params, func() int {
				return len(ctx.Extract())
			})
			assert.Equal(t, 2, n)
			assert.True(t, ctx.IsEmpty())

			assert.Panics(t, func() {
				WithVar(ctx, x, typ0(), func() bool { panic("boom") })
			})
			assert.True(t, ctx.IsEmpty())

			// a duplicate binding fails part way; earlier bindings are undone
			ctx.Put(y, typ0())
			assert.Panics(t, func() {
				With(ctx, params, func() bool { return true })
			})
			_, ok := ctx.Lookup(x)
			assert.False(t, ok)
			assert.Equal(t, typ0(), ctx.Get(y))
		})
	}
}

func TestModifyTypes(t *testing.T) {
	t.Parallel()
	for _, b := range backings {
		t.Run(string(b), func(t *testing.T) {
			t.Parallel()
			x := term.NewLocalVar("x")
			ctx := New(b)
			ctx.Put(x, typ0())
			ctx.ModifyTypes(func(term.Term) term.Term { return term.Type(level.Const(1)) })
			assert.Equal(t, term.Type(level.Const(1)), ctx.Get(x))
		})
	}
}

type solutions map[term.MetaID]term.Term

func (s solutions) Solution(m *term.Meta) (term.Term, bool) {
	t, ok := s[m.ID()]
	return t, ok
}

func TestForward(t *testing.T) {
	t.Parallel()
	a := term.NewLocalVar("A")
	x := term.NewLocalVar("x")
	y := term.NewLocalVar("y")
	unrelated := term.NewLocalVar("u")

	src := NewMap()
	src.Put(a, typ0())
	src.Put(x, term.NewRef(a))
	src.Put(y, term.NewRef(a))
	src.Put(unrelated, typ0())

	hole := FreshTypeHole(NewMap(), "h", types.NoPos)
	sol := solutions{hole.Meta.ID(): term.NewRef(y)}

	dest := NewSeq()
	Forward(src, dest, &term.Tuple{Items: []term.Term{term.NewRef(x), hole}}, sol)

	got := dest.Extract()
	require.Len(t, got, 3)
	assert.Equal(t, a, got[0].Ref)
	assert.Equal(t, x, got[1].Ref)
	assert.Equal(t, y, got[2].Ref)
}

func TestFreshHole(t *testing.T) {
	t.Parallel()
	a := term.NewLocalVar("A")
	ctx := NewMap()
	ctx.Put(a, typ0())

	dom := term.NewLocalVar("z")
	piType := &term.Pi{Param: term.Param{Ref: dom, Type: term.NewRef(a), Explicit: true}, Body: term.NewRef(a)}
	call, value := FreshHole(ctx, piType, "f", types.NoPos)

	require.Len(t, call.ContextArgs, 1)
	require.Len(t, call.Args, 1)
	assert.Equal(t, term.NewRef(a), call.ContextArgs[0].Term)
	assert.Equal(t, term.NewRef(a), call.Meta.Result)
	assert.Len(t, call.Meta.FullTelescope(), 2)

	lam, ok := value.(*term.Lambda)
	require.True(t, ok)
	assert.Same(t, call, lam.Body)
	assert.Equal(t, term.NewRef(a), call.ResultType())

	typeHole := FreshTypeHole(ctx, "T", types.NoPos)
	assert.True(t, typeHole.Meta.IsType())
	assert.Nil(t, typeHole.ResultType())
	assert.NotEqual(t, call.Meta.ID(), typeHole.Meta.ID())
}

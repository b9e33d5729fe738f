package tyck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gnoswap-labs/defeq/internal/level"
	"github.com/gnoswap-labs/defeq/internal/localctx"
	"github.com/gnoswap-labs/defeq/internal/term"
	"github.com/gnoswap-labs/defeq/internal/types"
)

// env is the context {A : Type, a : A, b : A} with a few helpers.
type env struct {
	ctx     localctx.LocalCtx
	A, a, b *term.LocalVar
}

func newEnv() *env {
	e := &env{
		ctx: localctx.NewMap(),
		A:   term.NewLocalVar("A"),
		a:   term.NewLocalVar("a"),
		b:   term.NewLocalVar("b"),
	}
	e.ctx.Put(e.A, term.Type(level.Const(0)))
	e.ctx.Put(e.a, e.typeA())
	e.ctx.Put(e.b, e.typeA())
	return e
}

func (e *env) typeA() term.Term { return term.NewRef(e.A) }

func (e *env) bind(name string, typ term.Term) *term.LocalVar {
	v := term.NewLocalVar(name)
	e.ctx.Put(v, typ)
	return v
}

// arrow is the non-dependent function type from A to A.
func (e *env) arrow(name string) term.Term {
	return &term.Pi{Param: term.Param{Ref: term.NewLocalVar(name), Type: e.typeA(), Explicit: true}, Body: e.typeA()}
}

// binary postulates `name : (p : A) -> (q : A) -> A`.
func (e *env) binary(name string) *term.Def {
	tele := []term.Param{
		{Ref: term.NewLocalVar("p"), Type: e.typeA(), Explicit: true},
		{Ref: term.NewLocalVar("q"), Type: e.typeA(), Explicit: true},
	}
	return term.NewFn(name, tele, e.typeA(), nil)
}

func explicit(ts ...term.Term) []term.Arg {
	args := make([]term.Arg, len(ts))
	for i, t := range ts {
		args[i] = term.Arg{Term: t, Explicit: true}
	}
	return args
}

func universe() term.Term { return term.Type(level.Const(1)) }

func newDefEq(state *State, ctx localctx.LocalCtx) *DefEq {
	return NewDefEq(state, ctx, level.Eq, types.NoPos)
}

func TestEndToEnd(t *testing.T) {
	t.Parallel()
	e := newEnv()
	d := newDefEq(NewState(), e.ctx)

	assert.True(t, d.Compare(e.arrow("x"), e.arrow("x"), universe()))

	x := term.NewLocalVar("x")
	id := &term.Lambda{Param: term.Param{Ref: x, Type: e.typeA(), Explicit: true}, Body: term.NewRef(x)}
	app := term.MakeApp(id, term.Arg{Term: term.NewRef(e.a), Explicit: true})
	assert.True(t, d.Compare(app, term.NewRef(e.a), e.typeA()))
	assert.False(t, d.Compare(app, term.NewRef(e.b), e.typeA()))

	assert.Len(t, e.ctx.Extract(), 3)
}

func TestReflexivity(t *testing.T) {
	t.Parallel()
	e := newEnv()
	f := e.bind("f", e.arrow("z"))
	p := e.bind("p", &term.Sigma{Params: []term.Param{
		{Ref: term.NewLocalVar("x"), Type: e.typeA(), Explicit: true},
		{Ref: term.Ignored, Type: e.typeA(), Explicit: true},
	}})
	plus := e.binary("plus")
	data := term.NewData("D", nil, term.Type(level.Const(0)))
	con := term.NewCon("c", nil, data.Call())

	tests := []struct {
		name string
		mk   func() term.Term
		typ  term.Term
	}{
		{"variable", func() term.Term { return term.NewRef(e.a) }, e.typeA()},
		{"universe", func() term.Term { return term.Type(level.Const(0)) }, universe()},
		{"pi", func() term.Term { return e.arrow("x") }, universe()},
		{
			"lambda",
			func() term.Term {
				x := term.NewLocalVar("x")
				return &term.Lambda{Param: term.Param{Ref: x, Type: e.typeA(), Explicit: true}, Body: term.NewRef(x)}
			},
			e.arrow("y"),
		},
		{
			"tuple",
			func() term.Term { return &term.Tuple{Items: []term.Term{term.NewRef(e.a), term.NewRef(e.b)}} },
			&term.Sigma{Params: []term.Param{
				{Ref: term.NewLocalVar("x"), Type: e.typeA(), Explicit: true},
				{Ref: term.Ignored, Type: e.typeA(), Explicit: true},
			}},
		},
		{"application", func() term.Term { return term.MakeApp(term.NewRef(f), explicit(term.NewRef(e.a))...) }, e.typeA()},
		{"projection", func() term.Term { return &term.Proj{Tup: term.NewRef(p), Ix: 2} }, e.typeA()},
		{"function call", func() term.Term { return plus.Call(explicit(term.NewRef(e.a), term.NewRef(e.b))...) }, e.typeA()},
		{"constructor", func() term.Term { return con.Call() }, data.Call()},
		{"data type", func() term.Term { return data.Call() }, universe()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDefEq(NewState(), e.ctx)
			assert.True(t, d.Compare(tt.mk(), tt.mk(), tt.typ))
			assert.Len(t, e.ctx.Extract(), 5)
		})
	}
}

func TestRenamingInvariance(t *testing.T) {
	t.Parallel()
	e := newEnv()
	family := e.bind("F", &term.Pi{
		Param: term.Param{Ref: term.NewLocalVar("_"), Type: e.typeA(), Explicit: true},
		Body:  term.Type(level.Const(0)),
	})
	dependent := func(name string) term.Term {
		x := term.NewLocalVar(name)
		return &term.Pi{
			Param: term.Param{Ref: x, Type: e.typeA(), Explicit: true},
			Body:  term.MakeApp(term.NewRef(family), explicit(term.NewRef(x))...),
		}
	}
	d := newDefEq(NewState(), e.ctx)
	assert.True(t, d.Compare(dependent("x"), dependent("y"), universe()))

	// Pi (x : A) -> Pi (y : A) -> F x  against  Pi (x : A) -> Pi (y : A) -> F y
	nested := func(pickOuter bool) term.Term {
		x := term.NewLocalVar("x")
		y := term.NewLocalVar("y")
		picked := y
		if pickOuter {
			picked = x
		}
		return &term.Pi{
			Param: term.Param{Ref: x, Type: e.typeA(), Explicit: true},
			Body: &term.Pi{
				Param: term.Param{Ref: y, Type: e.typeA(), Explicit: true},
				Body:  term.MakeApp(term.NewRef(family), explicit(term.NewRef(picked))...),
			},
		}
	}
	assert.True(t, d.Compare(nested(true), nested(true), universe()))
	assert.False(t, d.Compare(nested(true), nested(false), universe()))
	assert.Empty(t, d.varSubst)
}

func TestMetaRoundTrip(t *testing.T) {
	t.Parallel()
	e := newEnv()
	core, logs := observer.New(zap.DebugLevel)
	state := NewState(WithLogger(zap.New(core)))
	f := e.binary("f")
	g := e.binary("g")

	hole, _ := localctx.FreshHole(e.ctx, &term.Pi{
		Param: term.Param{Ref: term.NewLocalVar("p"), Type: e.typeA(), Explicit: true},
		Body:  e.arrow("q"),
	}, "m", types.NoPos)
	occurrence := func() term.Term {
		return &term.MetaCall{
			Meta:        hole.Meta,
			ContextArgs: hole.ContextArgs,
			Args:        explicit(term.NewRef(e.a), term.NewRef(e.b)),
		}
	}
	fab := func() term.Term { return f.Call(explicit(term.NewRef(e.a), term.NewRef(e.b))...) }

	d := newDefEq(state, e.ctx)
	require.True(t, d.Compare(occurrence(), fab(), e.typeA()))
	assert.Equal(t, 1, logs.FilterMessage("hole solved").Len())

	sol, ok := state.Solution(hole.Meta)
	require.True(t, ok)
	assert.Equal(t, "\\(p : A). \\(q : A). f p q", sol.String())

	assert.True(t, d.Compare(occurrence(), fab(), e.typeA()))
	assert.Equal(t, 1, logs.FilterMessage("hole solved").Len())

	gab := g.Call(explicit(term.NewRef(e.a), term.NewRef(e.b))...)
	assert.False(t, d.Compare(occurrence(), gab, e.typeA()))
	assert.Equal(t, 1, logs.FilterMessage("hole solved").Len())
}

func TestNonPatternRejected(t *testing.T) {
	t.Parallel()
	e := newEnv()
	reporter := types.NewCollectingReporter()
	state := NewState(WithReporter(reporter))
	f := e.binary("f")

	hole, _ := localctx.FreshHole(e.ctx, &term.Pi{
		Param: term.Param{Ref: term.NewLocalVar("p"), Type: e.typeA(), Explicit: true},
		Body:  e.arrow("q"),
	}, "m", types.NoPos)
	call := &term.MetaCall{
		Meta:        hole.Meta,
		ContextArgs: hole.ContextArgs,
		Args:        explicit(term.NewRef(e.a), term.NewRef(e.a)),
	}

	d := newDefEq(state, e.ctx)
	assert.False(t, d.Compare(call, f.Call(explicit(term.NewRef(e.a), term.NewRef(e.b))...), e.typeA()))
	_, solved := state.Solution(hole.Meta)
	assert.False(t, solved)
	require.Len(t, reporter.OfKind(types.KindBadSpine), 1)
	assert.Same(t, call, reporter.OfKind(types.KindBadSpine)[0].(BadSpineProblem).Call)
}

func TestPostponedCondition(t *testing.T) {
	t.Parallel()

	t.Run("retried once solved", func(t *testing.T) {
		e := newEnv()
		reporter := types.NewCollectingReporter()
		state := NewState(WithReporter(reporter), WithPostpone(true))
		f := e.binary("f")
		hole, _ := localctx.FreshHole(e.ctx, &term.Pi{
			Param: term.Param{Ref: term.NewLocalVar("p"), Type: e.typeA(), Explicit: true},
			Body:  e.arrow("q"),
		}, "m", types.NoPos)
		occurrence := func(x, y *term.LocalVar) term.Term {
			return &term.MetaCall{Meta: hole.Meta, ContextArgs: hole.ContextArgs, Args: explicit(term.NewRef(x), term.NewRef(y))}
		}
		call := func(x, y *term.LocalVar) term.Term {
			return f.Call(explicit(term.NewRef(x), term.NewRef(y))...)
		}

		d := newDefEq(state, e.ctx)
		assert.True(t, d.Compare(occurrence(e.a, e.a), call(e.a, e.a), e.typeA()))
		require.Len(t, state.Postponed(), 1)

		assert.True(t, d.Compare(occurrence(e.a, e.b), call(e.a, e.b), e.typeA()))
		assert.True(t, state.SolveMetas())
		assert.Empty(t, state.Postponed())
		assert.Empty(t, reporter.Problems)
	})

	t.Run("under a binder", func(t *testing.T) {
		e := newEnv()
		reporter := types.NewCollectingReporter()
		state := NewState(WithReporter(reporter), WithPostpone(true))
		type0 := term.Type(level.Const(0))
		family := term.NewData("D", []term.Param{
			{Ref: term.NewLocalVar("p"), Type: e.typeA(), Explicit: true},
			{Ref: term.NewLocalVar("q"), Type: e.typeA(), Explicit: true},
		}, type0)
		hole, _ := localctx.FreshHole(e.ctx, &term.Pi{
			Param: term.Param{Ref: term.NewLocalVar("p"), Type: e.typeA(), Explicit: true},
			Body:  &term.Pi{Param: term.Param{Ref: term.NewLocalVar("q"), Type: e.typeA(), Explicit: true}, Body: type0},
		}, "m", types.NoPos)
		occurrence := func(x, y term.Term) term.Term {
			return &term.MetaCall{Meta: hole.Meta, ContextArgs: hole.ContextArgs, Args: explicit(x, y)}
		}

		x := term.NewLocalVar("x")
		y := term.NewLocalVar("y")
		lhs := &term.Pi{
			Param: term.Param{Ref: x, Type: e.typeA(), Explicit: true},
			Body:  occurrence(term.NewRef(x), term.NewRef(x)),
		}
		rhs := &term.Pi{
			Param: term.Param{Ref: y, Type: e.typeA(), Explicit: true},
			Body:  family.Call(explicit(term.NewRef(y), term.NewRef(y))...),
		}

		d := newDefEq(state, e.ctx)
		assert.True(t, d.Compare(lhs, rhs, universe()))
		require.Len(t, state.Postponed(), 1)
		cond := state.Postponed()[0].Conditions[0]
		assert.Equal(t, "D x x", cond.Term.String())

		ea, eb := term.NewRef(e.a), term.NewRef(e.b)
		assert.True(t, d.Compare(occurrence(ea, eb), family.Call(explicit(ea, eb)...), type0))
		assert.True(t, state.SolveMetas())
		assert.Empty(t, reporter.Problems)
	})

	t.Run("never solved", func(t *testing.T) {
		e := newEnv()
		reporter := types.NewCollectingReporter()
		state := NewState(WithReporter(reporter), WithPostpone(true))
		hole, _ := localctx.FreshHole(e.ctx, e.arrow("p"), "m", types.NoPos)
		// a tuple argument is never a pattern
		call := &term.MetaCall{Meta: hole.Meta, ContextArgs: hole.ContextArgs, Args: explicit(&term.Tuple{})}

		d := newDefEq(state, e.ctx)
		assert.True(t, d.Compare(call, term.NewRef(e.a), e.typeA()))
		assert.False(t, state.SolveMetas())
		assert.Len(t, reporter.OfKind(types.KindCannotFindGeneralSolution), 1)
	})
}

func TestBadlyScopedSolution(t *testing.T) {
	t.Parallel()
	e := newEnv()
	reporter := types.NewCollectingReporter()
	state := NewState(WithReporter(reporter))
	hole, _ := localctx.FreshHole(e.ctx, e.typeA(), "m", types.NoPos)
	late := e.bind("late", e.typeA())

	d := newDefEq(state, e.ctx)
	assert.False(t, d.Compare(hole, term.NewRef(late), e.typeA()))
	problems := reporter.OfKind(types.KindBadlyScoped)
	require.Len(t, problems, 1)
	assert.Equal(t, []*term.LocalVar{late}, problems[0].(BadlyScopedProblem).Escaped)
	_, solved := state.Solution(hole.Meta)
	assert.False(t, solved)
}

func TestRecursiveSolution(t *testing.T) {
	t.Parallel()
	e := newEnv()
	reporter := types.NewCollectingReporter()
	state := NewState(WithReporter(reporter))
	f := e.binary("f")
	hole, _ := localctx.FreshHole(e.ctx, e.typeA(), "m", types.NoPos)

	d := newDefEq(state, e.ctx)
	assert.False(t, d.Compare(hole, f.Call(explicit(hole, term.NewRef(e.a))...), e.typeA()))
	assert.Len(t, reporter.OfKind(types.KindRecursion), 1)
}

func TestSameMetaSpines(t *testing.T) {
	t.Parallel()
	e := newEnv()
	state := NewState()
	hole, _ := localctx.FreshHole(e.ctx, e.arrow("p"), "m", types.NoPos)
	at := func(v *term.LocalVar) term.Term {
		return &term.MetaCall{Meta: hole.Meta, ContextArgs: hole.ContextArgs, Args: explicit(term.NewRef(v))}
	}

	d := newDefEq(state, e.ctx)
	assert.True(t, d.Compare(at(e.a), at(e.a), e.typeA()))
	assert.False(t, d.Compare(at(e.a), at(e.b), e.typeA()))
	_, solved := state.Solution(hole.Meta)
	assert.False(t, solved)
}

func TestTypeHoleInFunctionPosition(t *testing.T) {
	t.Parallel()
	e := newEnv()
	state := NewState()
	typeHole := localctx.FreshTypeHole(e.ctx, "T", types.NoPos)
	f := e.bind("f", typeHole)
	app := func() term.Term { return term.MakeApp(term.NewRef(f), explicit(term.NewRef(e.a))...) }

	d := newDefEq(state, e.ctx)
	require.True(t, d.Compare(app(), app(), e.typeA()))

	pi, ok := state.Zonk(typeHole).(*term.Pi)
	require.True(t, ok)
	assert.Equal(t, e.typeA(), pi.Param.Type)
	assert.Equal(t, e.typeA(), pi.Body)
}

func TestUniverseLevels(t *testing.T) {
	t.Parallel()

	t.Run("cumulative", func(t *testing.T) {
		u := level.NewVar("u")
		state := NewState()
		d := NewDefEq(state, localctx.NewSeq(), level.Lt, types.NoPos)
		lhs := term.Type(level.Of(level.Ref(u, 0)))
		rhs := term.Type(level.Const(2))
		assert.True(t, d.Compare(lhs, rhs, term.Type(level.Omega())))
		require.Len(t, state.LevelEqns.Eqns, 1)
		assert.Equal(t, "u <= 2", state.LevelEqns.Eqns[0].String())
		assert.True(t, state.SolveMetas())
		assert.Equal(t, level.Const(0), state.LevelEqns.Solution[u])
	})

	t.Run("unsatisfiable", func(t *testing.T) {
		reporter := types.NewCollectingReporter()
		state := NewState(WithReporter(reporter))
		d := NewDefEq(state, localctx.NewSeq(), level.Lt, types.NoPos)
		assert.True(t, d.Compare(term.Type(level.Const(2)), term.Type(level.Const(1)), term.Type(level.Omega())))
		assert.False(t, state.SolveMetas())
		problems := reporter.OfKind(types.KindLevelUnsolved)
		require.Len(t, problems, 1)
		assert.Len(t, problems[0].(LevelUnsolvedProblem).Residual, 1)
	})

	t.Run("flipped against a hole", func(t *testing.T) {
		state := NewState()
		ctx := localctx.NewSeq()
		hole := localctx.FreshTypeHole(ctx, "T", types.NoPos)
		d := NewDefEq(state, ctx, level.Lt, types.NoPos)
		assert.True(t, d.Compare(term.Type(level.Const(0)), hole, term.Type(level.Omega())))
		assert.Equal(t, level.Lt, d.cmp)
	})
}

func TestDepthGuard(t *testing.T) {
	t.Parallel()
	e := newEnv()
	reporter := types.NewCollectingReporter()
	state := NewState(WithReporter(reporter), WithMaxDepth(2))

	d := newDefEq(state, e.ctx)
	assert.False(t, d.Compare(e.arrow("x"), e.arrow("y"), universe()))
	assert.Len(t, reporter.OfKind(types.KindDepthExceeded), 1)
	assert.Equal(t, 0, d.depth)
}

func TestContextRestoredAfterPanic(t *testing.T) {
	t.Parallel()
	e := newEnv()
	f := e.bind("f", e.arrow("z"))
	g := e.bind("g", e.arrow("z"))
	z := term.NewLocalVar("z")
	w := term.NewLocalVar("w")
	// a Pi whose codomain is a lambda is ill-typed and panics in the typed pass
	illTyped := &term.Pi{
		Param: term.Param{Ref: z, Type: e.typeA(), Explicit: true},
		Body:  &term.Lambda{Param: term.Param{Ref: w, Type: e.typeA(), Explicit: true}, Body: term.NewRef(w)},
	}

	d := newDefEq(NewState(), e.ctx)
	assert.Panics(t, func() { d.Compare(term.NewRef(f), term.NewRef(g), illTyped) })
	assert.Same(t, e.ctx, d.ctx)
	assert.Len(t, e.ctx.Extract(), 5)
}

func TestTrace(t *testing.T) {
	t.Parallel()
	e := newEnv()
	core, logs := observer.New(zap.DebugLevel)
	state := NewState(WithLogger(zap.New(core)), WithTrace(true))

	d := newDefEq(state, e.ctx)
	assert.True(t, d.Compare(e.arrow("x"), e.arrow("y"), universe()))
	entries := logs.FilterMessage("compare").All()
	require.NotEmpty(t, entries)
	assert.Equal(t, "typed", entries[0].ContextMap()["pass"])
}

package tyck

import (
	"fmt"

	"github.com/gnoswap-labs/defeq/internal/level"
	"github.com/gnoswap-labs/defeq/internal/localctx"
	"github.com/gnoswap-labs/defeq/internal/term"
	"github.com/gnoswap-labs/defeq/internal/types"
)

// DefEq decides definitional equality under a context. Universe comparisons
// follow cmp: with level.Lt the left-hand side may live in a smaller universe.
type DefEq struct {
	state *State
	ctx   localctx.LocalCtx
	cmp   level.Ordering
	pos   types.SourcePos

	// varSubst pairs the binders of two terms compared side by side, in
	// both directions.
	varSubst map[*term.LocalVar]*term.LocalVar

	depth    int
	exceeded bool
}

func NewDefEq(state *State, ctx localctx.LocalCtx, cmp level.Ordering, pos types.SourcePos) *DefEq {
	return &DefEq{
		state:    state,
		ctx:      ctx,
		cmp:      cmp,
		pos:      pos,
		varSubst: make(map[*term.LocalVar]*term.LocalVar),
	}
}

// Compare reports whether lhs and rhs are equal at typ, solving metas and
// recording level equations on the way.
func (d *DefEq) Compare(lhs, rhs, typ term.Term) bool {
	ok := d.enter(lhs, rhs)
	defer d.leave()
	if !ok {
		return false
	}
	if lhs == rhs {
		return true
	}
	if d.compareApprox(lhs, rhs) != nil {
		return true
	}
	lhs, rhs = d.whnf(lhs), d.whnf(rhs)
	if d.compareApprox(lhs, rhs) != nil {
		return true
	}
	if _, ok := rhs.(*term.MetaCall); ok {
		return d.flipped(func() term.Term { return d.CompareUntyped(rhs, lhs) }) != nil
	}
	if _, ok := lhs.(*term.MetaCall); ok {
		return d.CompareUntyped(lhs, rhs) != nil
	}
	return d.compareTyped(d.whnf(typ), lhs, rhs)
}

// CompareUntyped compares two terms without an expected type and returns
// the type they were found equal at, or nil.
func (d *DefEq) CompareUntyped(lhs, rhs term.Term) term.Term {
	ok := d.enter(lhs, rhs)
	defer d.leave()
	if !ok {
		return nil
	}
	tried := isCall(lhs) || isCall(rhs)
	if tried {
		if ty := d.compareUntyped(lhs, rhs); ty != nil {
			return d.whnf(ty)
		}
	}
	l, r := d.whnf(lhs), d.whnf(rhs)
	if tried && l == lhs && r == rhs {
		return nil
	}
	if ty := d.compareUntyped(l, r); ty != nil {
		return d.whnf(ty)
	}
	return nil
}

func isCall(t term.Term) bool {
	switch t.(type) {
	case *term.FnCall, *term.ConCall:
		return true
	}
	return false
}

func (d *DefEq) whnf(t term.Term) term.Term {
	return term.WHNF(t, d.state)
}

// compareApprox compares two calls of the same function argument-wise,
// falling back to a single unfolding. It returns the result type on success.
func (d *DefEq) compareApprox(lhs, rhs term.Term) term.Term {
	l, ok := lhs.(*term.FnCall)
	if !ok {
		return nil
	}
	r, ok := rhs.(*term.FnCall)
	if !ok || l.Def != r.Def {
		return nil
	}
	d.trace("approx", lhs, rhs)
	retType := l.Def.ResultType(l.Args)
	if d.compareArgs(l.Args, r.Args, l.Def.Telescope) {
		return retType
	}
	if d.compareWHNF(lhs, rhs, retType) {
		return retType
	}
	return nil
}

func (d *DefEq) compareWHNF(lhs, rhs, typ term.Term) bool {
	l, r := d.whnf(lhs), d.whnf(rhs)
	if l == lhs && r == rhs {
		return false
	}
	return d.Compare(l, r, typ)
}

// compareArgs compares two argument spines against a telescope, instantiating
// each parameter type with the left-hand arguments before it.
func (d *DefEq) compareArgs(l, r []term.Arg, tele []term.Param) bool {
	if len(l) != len(r) || len(l) > len(tele) {
		return false
	}
	s := term.Subst{}
	for i := range l {
		if l[i].Explicit != r[i].Explicit {
			return false
		}
		if !d.Compare(l[i].Term, r[i].Term, s.Apply(tele[i].Type)) {
			return false
		}
		s[tele[i].Ref] = l[i].Term
	}
	return true
}

func (d *DefEq) compareTyped(typ, lhs, rhs term.Term) bool {
	d.trace("typed", lhs, rhs)
	switch ty := typ.(type) {
	case *term.Lambda, *term.Tuple, *term.ConCall:
		panic(fmt.Sprintf("%s is never a type", ty))
	case *term.Pi:
		x := ty.Param.Ref.Fresh()
		arg := term.Arg{Term: term.NewRef(x), Explicit: ty.Param.Explicit}
		return d.under(x, ty.Param.Type, func() bool {
			return d.Compare(term.MakeApp(lhs, arg), term.MakeApp(rhs, arg), ty.SubstBody(arg.Term))
		})
	case *term.Sigma:
		s := term.Subst{}
		for i, p := range ty.Params {
			l := &term.Proj{Tup: lhs, Ix: i + 1}
			if !d.Compare(l, &term.Proj{Tup: rhs, Ix: i + 1}, s.Apply(p.Type)) {
				return false
			}
			s[p.Ref] = l
		}
		return true
	}
	inferred := d.CompareUntyped(lhs, rhs)
	if inferred == nil {
		return false
	}
	return d.checkInferred(inferred, typ)
}

// checkInferred checks the type an untyped comparison found against the
// expected one. Universes are accepted against each other without a level
// equation; cumulativity is the caller's business.
func (d *DefEq) checkInferred(inferred, expected term.Term) bool {
	inferred, expected = d.whnf(inferred), d.whnf(expected)
	_, iu := inferred.(*term.Universe)
	_, eu := expected.(*term.Universe)
	if iu && eu {
		return true
	}
	return d.Compare(inferred, expected, term.Type(level.Omega()))
}

// withBinder runs action in a child frame binding v.
func withBinder[T any](d *DefEq, v *term.LocalVar, typ term.Term, action func() T) T {
	outer := d.ctx
	d.ctx = outer.DeriveSeq()
	defer func() { d.ctx = outer }()
	return localctx.WithVar(d.ctx, v, typ, action)
}

func (d *DefEq) under(v *term.LocalVar, typ term.Term, action func() bool) bool {
	return withBinder(d, v, typ, action)
}

func (d *DefEq) flipped(action func() term.Term) term.Term {
	d.cmp = d.cmp.Invert()
	defer func() { d.cmp = d.cmp.Invert() }()
	return action()
}

func (d *DefEq) freshUniv() *term.Universe {
	return term.Type(level.Of(level.Ref(level.NewVar("u"), 0)))
}

func (d *DefEq) enter(lhs, rhs term.Term) bool {
	d.depth++
	limit := d.state.maxDepth
	if limit <= 0 || d.depth <= limit {
		return true
	}
	if !d.exceeded {
		d.exceeded = true
		d.state.reporter.Report(DepthExceededProblem{errorProblem{d.pos}, lhs, rhs, limit})
	}
	return false
}

func (d *DefEq) leave() {
	d.depth--
}

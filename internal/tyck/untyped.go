package tyck

import (
	"fmt"

	"github.com/gnoswap-labs/defeq/internal/level"
	"github.com/gnoswap-labs/defeq/internal/term"
)

// compareUntyped decomposes two terms of the same shape. Both sides are
// expected to be in weak head normal form unless one of them is a call.
func (d *DefEq) compareUntyped(lhs, rhs term.Term) term.Term {
	d.trace("untyped", lhs, rhs)
	if rc, ok := rhs.(*term.MetaCall); ok {
		if _, ok := lhs.(*term.MetaCall); !ok {
			return d.flipped(func() term.Term { return d.pattern(rc, lhs) })
		}
	}

	switch l := lhs.(type) {
	case *term.Ref:
		r, ok := rhs.(*term.Ref)
		if !ok || !d.sameVar(l.Var, r.Var) {
			return nil
		}
		return d.varType(l.Var, r.Var)

	case *term.App:
		r, ok := rhs.(*term.App)
		if !ok || l.Arg.Explicit != r.Arg.Explicit {
			return nil
		}
		pi := d.asPi(d.CompareUntyped(l.Fn, r.Fn), l.Arg.Explicit)
		if pi == nil {
			return nil
		}
		if !d.Compare(l.Arg.Term, r.Arg.Term, pi.Param.Type) {
			return nil
		}
		return pi.SubstBody(l.Arg.Term)

	case *term.Proj:
		r, ok := rhs.(*term.Proj)
		if !ok || l.Ix != r.Ix {
			return nil
		}
		sigma, ok := d.CompareUntyped(l.Tup, r.Tup).(*term.Sigma)
		if !ok || l.Ix < 1 || l.Ix > len(sigma.Params) {
			return nil
		}
		s := term.Subst{}
		for i := 1; i < l.Ix; i++ {
			s[sigma.Params[i-1].Ref] = &term.Proj{Tup: l.Tup, Ix: i}
		}
		return s.Apply(sigma.Params[l.Ix-1].Type)

	case *term.Pi:
		r, ok := rhs.(*term.Pi)
		if !ok {
			return nil
		}
		return d.checkParam(l.Param, r.Param, func() term.Term {
			if !d.Compare(l.Body, r.Body, d.freshUniv()) {
				return nil
			}
			return d.freshUniv()
		})

	case *term.Sigma:
		r, ok := rhs.(*term.Sigma)
		if !ok || len(l.Params) != len(r.Params) || len(l.Params) == 0 {
			return nil
		}
		last := len(l.Params) - 1
		return d.checkParams(l.Params[:last], r.Params[:last], func() term.Term {
			if !d.Compare(l.Params[last].Type, r.Params[last].Type, d.freshUniv()) {
				return nil
			}
			return d.freshUniv()
		})

	case *term.Universe:
		r, ok := rhs.(*term.Universe)
		if !ok {
			return nil
		}
		d.state.LevelEqns.Add(l.Sort, r.Sort, d.cmp, d.pos)
		chosen := r.Sort
		if d.cmp == level.Lt {
			chosen = l.Sort
		}
		return term.Type(chosen.Lift(1))

	case *term.Lambda:
		r, ok := rhs.(*term.Lambda)
		if !ok {
			return nil
		}
		return d.checkParam(l.Param, r.Param, func() term.Term {
			body := d.CompareUntyped(l.Body, r.Body)
			if body == nil {
				return nil
			}
			return &term.Pi{Param: l.Param, Body: body}
		})

	case *term.Tuple:
		r, ok := rhs.(*term.Tuple)
		if !ok || len(l.Items) != len(r.Items) {
			return nil
		}
		params := make([]term.Param, len(l.Items))
		for i := range l.Items {
			ty := d.CompareUntyped(l.Items[i], r.Items[i])
			if ty == nil {
				return nil
			}
			params[i] = term.Param{Ref: term.Ignored, Type: ty, Explicit: true}
		}
		return &term.Sigma{Params: params}

	case *term.FnCall:
		r, ok := rhs.(*term.FnCall)
		if !ok || l.Def != r.Def || !d.compareArgs(l.Args, r.Args, l.Def.Telescope) {
			return nil
		}
		return l.Def.ResultType(l.Args)

	case *term.DataCall:
		r, ok := rhs.(*term.DataCall)
		if !ok || l.Def != r.Def || !d.compareArgs(l.Args, r.Args, l.Def.Telescope) {
			return nil
		}
		if l.Def.Result == nil {
			return d.freshUniv()
		}
		return l.Def.ResultType(l.Args)

	case *term.ConCall:
		r, ok := rhs.(*term.ConCall)
		if !ok || l.Def != r.Def || !d.compareArgs(l.Args, r.Args, l.Def.Telescope) {
			return nil
		}
		return l.Def.ResultType(l.Args)

	case *term.MetaCall:
		return d.pattern(l, rhs)
	}
	panic(fmt.Sprintf("unreachable: cannot compare %T", lhs))
}

func (d *DefEq) sameVar(l, r *term.LocalVar) bool {
	return l == r || d.varSubst[r] == l
}

// varType returns the type of a variable pair from the context. The
// left-hand variable is the one bound while comparing binders.
func (d *DefEq) varType(l, r *term.LocalVar) term.Term {
	if t, ok := d.ctx.Lookup(l); ok {
		return t
	}
	if t, ok := d.ctx.Lookup(r); ok {
		return t
	}
	return d.ctx.Get(l)
}

// asPi recovers a function type. A type hole in function position is solved
// with a Pi between two new holes.
func (d *DefEq) asPi(fnType term.Term, explicit bool) *term.Pi {
	switch t := fnType.(type) {
	case *term.Pi:
		return t
	case *term.MetaCall:
		m := t.Meta
		if _, solved := d.state.Solution(m); solved || !m.IsType() || len(m.Telescope) != 0 {
			return nil
		}
		ctxArgs := toArgs(m.ContextTele)
		d.state.Solve(m, m.AsPi(m.Name+"_dom", m.Name+"_cod", explicit, ctxArgs))
		pi, _ := d.whnf(t).(*term.Pi)
		return pi
	}
	return nil
}

func (d *DefEq) checkParam(l, r term.Param, success func() term.Term) term.Term {
	if l.Explicit != r.Explicit {
		return nil
	}
	if !d.Compare(l.Type, r.Type, d.freshUniv()) {
		return nil
	}
	return withBinder(d, l.Ref, l.Type, func() term.Term {
		prevL, hadL := d.varSubst[l.Ref]
		prevR, hadR := d.varSubst[r.Ref]
		d.varSubst[r.Ref] = l.Ref
		d.varSubst[l.Ref] = r.Ref
		defer func() {
			restore(d.varSubst, l.Ref, prevL, hadL)
			restore(d.varSubst, r.Ref, prevR, hadR)
		}()
		return success()
	})
}

func (d *DefEq) checkParams(l, r []term.Param, success func() term.Term) term.Term {
	if len(l) != len(r) {
		return nil
	}
	if len(l) == 0 {
		return success()
	}
	return d.checkParam(l[0], r[0], func() term.Term {
		return d.checkParams(l[1:], r[1:], success)
	})
}

func restore(m map[*term.LocalVar]*term.LocalVar, k, prev *term.LocalVar, had bool) {
	if had {
		m[k] = prev
	} else {
		delete(m, k)
	}
}

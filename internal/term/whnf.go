package term

// Solutions gives read access to solved metas.
type Solutions interface {
	Solution(m *Meta) (Term, bool)
}

// WHNF reduces t until its outermost constructor is exposed: beta redexes,
// projections of tuples, calls of functions with bodies and solved metas.
// If nothing reduces, t itself is returned, so callers may test for progress
// with ==. sol may be nil.
func WHNF(t Term, sol Solutions) Term {
	for {
		next, again := step(t, sol)
		if next == nil {
			return t
		}
		if !again {
			return next
		}
		t = next
	}
}

// step returns nil if t is already in WHNF. A non-nil result with again set
// to false is a WHNF whose head was reduced in place.
func step(t Term, sol Solutions) (Term, bool) {
	switch x := t.(type) {
	case *App:
		fn := WHNF(x.Fn, sol)
		if lam, ok := fn.(*Lambda); ok {
			return Subst{lam.Param.Ref: x.Arg.Term}.Apply(lam.Body), true
		}
		if fn != x.Fn {
			return &App{Fn: fn, Arg: x.Arg}, false
		}
	case *Proj:
		tup := WHNF(x.Tup, sol)
		if tuple, ok := tup.(*Tuple); ok && x.Ix >= 1 && x.Ix <= len(tuple.Items) {
			return tuple.Items[x.Ix-1], true
		}
		if tup != x.Tup {
			return &Proj{Tup: tup, Ix: x.Ix}, false
		}
	case *FnCall:
		if body, ok := x.Def.unfold(x.Args); ok {
			return body, true
		}
	case *MetaCall:
		if sol == nil {
			return nil, false
		}
		if s, ok := sol.Solution(x.Meta); ok {
			return x.Instantiate(s), true
		}
	}
	return nil, false
}

package term

import (
	"github.com/samber/lo"
)

// Subst maps variables to the terms replacing them.
type Subst map[*LocalVar]Term

// Add records v := t and returns the substitution for chaining.
func (s Subst) Add(v *LocalVar, t Term) Subst {
	s[v] = t
	return s
}

// Apply returns t with every free occurrence of a mapped variable replaced.
// Binders shadow the mapping for their own variable but are not renamed, so
// the result is capture-free only while every binder's LocalVar is unique
// across the terms involved. Use Rename to freshen a telescope that is
// instantiated more than once.
func (s Subst) Apply(t Term) Term {
	if len(s) == 0 {
		return t
	}
	switch x := t.(type) {
	case *Ref:
		if r, ok := s[x.Var]; ok {
			return r
		}
		return x
	case *Lambda:
		p, inner := s.binder(x.Param)
		return &Lambda{Param: p, Body: inner.Apply(x.Body)}
	case *Pi:
		p, inner := s.binder(x.Param)
		return &Pi{Param: p, Body: inner.Apply(x.Body)}
	case *Sigma:
		params := make([]Param, len(x.Params))
		cur := s
		for i, p := range x.Params {
			params[i], cur = cur.binder(p)
		}
		return &Sigma{Params: params}
	case *Universe:
		return x
	case *App:
		return &App{Fn: s.Apply(x.Fn), Arg: s.arg(x.Arg)}
	case *Proj:
		return &Proj{Tup: s.Apply(x.Tup), Ix: x.Ix}
	case *Tuple:
		return &Tuple{Items: lo.Map(x.Items, func(it Term, _ int) Term { return s.Apply(it) })}
	case *MetaCall:
		return &MetaCall{Meta: x.Meta, ContextArgs: s.args(x.ContextArgs), Args: s.args(x.Args)}
	case *FnCall:
		return &FnCall{Def: x.Def, Args: s.args(x.Args)}
	case *DataCall:
		return &DataCall{Def: x.Def, Args: s.args(x.Args)}
	case *ConCall:
		return &ConCall{Def: x.Def, Args: s.args(x.Args)}
	}
	panic("unreachable: unknown term in substitution")
}

// ApplyParams substitutes through a telescope, respecting its binders.
func (s Subst) ApplyParams(params []Param) []Param {
	out := make([]Param, len(params))
	cur := s
	for i, p := range params {
		out[i], cur = cur.binder(p)
	}
	return out
}

func (s Subst) binder(p Param) (Param, Subst) {
	p = Param{Ref: p.Ref, Type: s.Apply(p.Type), Explicit: p.Explicit}
	if _, shadowed := s[p.Ref]; !shadowed {
		return p, s
	}
	inner := make(Subst, len(s))
	for k, v := range s {
		if k != p.Ref {
			inner[k] = v
		}
	}
	return p, inner
}

func (s Subst) arg(a Arg) Arg {
	return Arg{Term: s.Apply(a.Term), Explicit: a.Explicit}
}

func (s Subst) args(as []Arg) []Arg {
	if as == nil {
		return nil
	}
	return lo.Map(as, func(a Arg, _ int) Arg { return s.arg(a) })
}

// Rename returns params with fresh variables together with the renaming that
// maps the old variables to references of the new ones. Later parameter
// types are rewritten to refer to the new variables.
func Rename(params []Param) ([]Param, Subst) {
	s := make(Subst, len(params))
	out := make([]Param, len(params))
	for i, p := range params {
		fresh := p.Ref.Fresh()
		out[i] = Param{Ref: fresh, Type: s.Apply(p.Type), Explicit: p.Explicit}
		s[p.Ref] = NewRef(fresh)
	}
	return out, s
}

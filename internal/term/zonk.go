package term

import "github.com/samber/lo"

// Zonk replaces every solved meta occurrence in t by its solution, also
// inside the solutions themselves. Nothing else is reduced.
func Zonk(t Term, sol Solutions) Term {
	z := func(t Term) Term { return Zonk(t, sol) }
	args := func(as []Arg) []Arg {
		if as == nil {
			return nil
		}
		return lo.Map(as, func(a Arg, _ int) Arg { return Arg{Term: z(a.Term), Explicit: a.Explicit} })
	}
	params := func(ps []Param) []Param {
		return lo.Map(ps, func(p Param, _ int) Param { return Param{Ref: p.Ref, Type: z(p.Type), Explicit: p.Explicit} })
	}

	switch x := t.(type) {
	case *Ref, *Universe:
		return x
	case *Lambda:
		return &Lambda{Param: params([]Param{x.Param})[0], Body: z(x.Body)}
	case *Pi:
		return &Pi{Param: params([]Param{x.Param})[0], Body: z(x.Body)}
	case *Sigma:
		return &Sigma{Params: params(x.Params)}
	case *App:
		return &App{Fn: z(x.Fn), Arg: Arg{Term: z(x.Arg.Term), Explicit: x.Arg.Explicit}}
	case *Proj:
		return &Proj{Tup: z(x.Tup), Ix: x.Ix}
	case *Tuple:
		return &Tuple{Items: lo.Map(x.Items, func(it Term, _ int) Term { return z(it) })}
	case *MetaCall:
		call := &MetaCall{Meta: x.Meta, ContextArgs: args(x.ContextArgs), Args: args(x.Args)}
		if sol == nil {
			return call
		}
		if s, ok := sol.Solution(x.Meta); ok {
			return z(call.Instantiate(s))
		}
		return call
	case *FnCall:
		return &FnCall{Def: x.Def, Args: args(x.Args)}
	case *DataCall:
		return &DataCall{Def: x.Def, Args: args(x.Args)}
	case *ConCall:
		return &ConCall{Def: x.Def, Args: args(x.Args)}
	}
	panic("unreachable: unknown term in zonk")
}

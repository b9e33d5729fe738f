package tyck

import (
	"cmp"
	"slices"

	"github.com/hashicorp/go-set/v3"
	"github.com/samber/lo"

	"github.com/gnoswap-labs/defeq/internal/term"
)

func toArgs(params []term.Param) []term.Arg {
	return lo.Map(params, func(p term.Param, _ int) term.Arg { return p.ToArg() })
}

// extractSpine returns the variables a hole is applied to, provided they are
// distinct bare variables (up to eta) and cover the hole's own parameters.
func extractSpine(call *term.MetaCall) ([]*term.LocalVar, bool) {
	if len(call.Args) != len(call.Meta.Telescope) {
		return nil, false
	}
	seen := set.New[*term.LocalVar](len(call.Args))
	vars := make([]*term.LocalVar, 0, len(call.Args))
	for _, a := range call.Args {
		ref, ok := term.Uneta(a.Term).(*term.Ref)
		if !ok || !seen.Insert(ref.Var) {
			return nil, false
		}
		vars = append(vars, ref.Var)
	}
	return vars, true
}

// pattern unifies an unsolved hole occurrence with rhs. On success the hole
// is solved with rhs abstracted over the hole's parameters and the type of
// the occurrence is returned.
func (d *DefEq) pattern(call *term.MetaCall, rhs term.Term) term.Term {
	meta := call.Meta
	if sol, ok := d.state.Solution(meta); ok {
		return d.CompareUntyped(call.Instantiate(sol), rhs)
	}
	if rc, ok := rhs.(*term.MetaCall); ok && rc.Meta == meta {
		return d.compareSpines(call, rc)
	}

	spine, ok := extractSpine(call)
	if !ok {
		if d.state.postpone {
			bound := d.partners()
			call = bound.Apply(call).(*term.MetaCall)
			rhs = bound.Apply(rhs)
			d.state.addCondition(meta, term.Condition{
				Subst: call.Subst(),
				Call:  call,
				Term:  rhs,
				Ctx:   d.ctx.Extract(),
				Pos:   d.pos,
			})
			d.tracePostponed(call, rhs)
			return d.holeType(call)
		}
		d.state.reporter.Report(BadSpineProblem{errorProblem{d.pos}, call})
		return nil
	}

	fresh, _ := term.Rename(meta.Telescope)
	subst := term.Subst{}
	for i, p := range meta.ContextTele {
		if i >= len(call.ContextArgs) {
			break
		}
		if ref, ok := term.Uneta(call.ContextArgs[i].Term).(*term.Ref); ok {
			subst[ref.Var] = p.ToTerm()
		}
	}
	for i, v := range spine {
		subst[v] = fresh[i].ToTerm()
	}
	// a binder of the other side is read through its partner
	for a, b := range d.varSubst {
		if _, ok := subst[a]; ok {
			continue
		}
		if t, ok := subst[b]; ok {
			subst[a] = t
		}
	}
	body := subst.Apply(d.state.Zonk(rhs))

	scope := set.New[*term.LocalVar](len(meta.ContextTele) + len(fresh))
	for _, p := range meta.ContextTele {
		scope.Insert(p.Ref)
	}
	for _, p := range fresh {
		scope.Insert(p.Ref)
	}
	var escaped []*term.LocalVar
	for _, v := range term.FreeVars(body).Slice() {
		if !scope.Contains(v) {
			escaped = append(escaped, v)
		}
	}
	if len(escaped) > 0 {
		slices.SortFunc(escaped, func(a, b *term.LocalVar) int { return cmp.Compare(a.ID(), b.ID()) })
		d.state.reporter.Report(BadlyScopedProblem{errorProblem{d.pos}, call, body, escaped})
		return nil
	}
	if term.MentionsMeta(body, meta.ID()) {
		d.state.reporter.Report(RecursionProblem{errorProblem{d.pos}, call, body})
		return nil
	}

	solution := term.MakeLambda(fresh, body)
	d.state.Solve(meta, solution)
	d.traceSolved(meta, solution)
	return d.holeType(call)
}

// partners maps every paired binder missing from the context to its
// partner in the context, so that a comparison taken out of the current
// binders still sees them as the same variable.
func (d *DefEq) partners() term.Subst {
	s := term.Subst{}
	for a, b := range d.varSubst {
		if _, ok := d.ctx.Lookup(a); ok {
			continue
		}
		if _, ok := d.ctx.Lookup(b); ok {
			s[a] = term.NewRef(b)
		}
	}
	return s
}

// compareSpines compares two occurrences of the same unsolved hole argument
// by argument.
func (d *DefEq) compareSpines(l, r *term.MetaCall) term.Term {
	full := l.Meta.FullTelescope()
	la := append(slices.Clone(l.ContextArgs), l.Args...)
	ra := append(slices.Clone(r.ContextArgs), r.Args...)
	if len(la) != len(ra) || len(la) > len(full) {
		return nil
	}
	s := term.Subst{}
	for i := range la {
		if !d.Compare(la[i].Term, ra[i].Term, s.Apply(full[i].Type)) {
			return nil
		}
		s[full[i].Ref] = la[i].Term
	}
	return d.holeType(l)
}

func (d *DefEq) holeType(call *term.MetaCall) term.Term {
	if t := call.ResultType(); t != nil {
		return t
	}
	return d.freshUniv()
}

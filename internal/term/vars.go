package term

import (
	"github.com/hashicorp/go-set/v3"
)

// Visitor is called for every free variable and every meta occurrence.
// Either function may be nil.
type Visitor struct {
	Var  func(v *LocalVar)
	Meta func(c *MetaCall)
}

// Walk visits t, skipping variables bound inside t.
func (vis Visitor) Walk(t Term) {
	vis.walk(t, set.New[*LocalVar](0))
}

func (vis Visitor) walk(t Term, bound *set.Set[*LocalVar]) {
	switch x := t.(type) {
	case *Ref:
		if vis.Var != nil && !bound.Contains(x.Var) {
			vis.Var(x.Var)
		}
	case *Lambda:
		vis.binders([]Param{x.Param}, x.Body, bound)
	case *Pi:
		vis.binders([]Param{x.Param}, x.Body, bound)
	case *Sigma:
		vis.binders(x.Params, nil, bound)
	case *Universe:
	case *App:
		vis.walk(x.Fn, bound)
		vis.walk(x.Arg.Term, bound)
	case *Proj:
		vis.walk(x.Tup, bound)
	case *Tuple:
		for _, it := range x.Items {
			vis.walk(it, bound)
		}
	case *MetaCall:
		if vis.Meta != nil {
			vis.Meta(x)
		}
		vis.args(x.ContextArgs, bound)
		vis.args(x.Args, bound)
	case *FnCall:
		vis.args(x.Args, bound)
	case *DataCall:
		vis.args(x.Args, bound)
	case *ConCall:
		vis.args(x.Args, bound)
	}
}

func (vis Visitor) binders(params []Param, body Term, bound *set.Set[*LocalVar]) {
	var added []*LocalVar
	for _, p := range params {
		vis.walk(p.Type, bound)
		if bound.Insert(p.Ref) {
			added = append(added, p.Ref)
		}
	}
	if body != nil {
		vis.walk(body, bound)
	}
	for _, v := range added {
		bound.Remove(v)
	}
}

func (vis Visitor) args(as []Arg, bound *set.Set[*LocalVar]) {
	for _, a := range as {
		vis.walk(a.Term, bound)
	}
}

// FreeVars collects the free variables of t.
func FreeVars(t Term) *set.Set[*LocalVar] {
	free := set.New[*LocalVar](4)
	Visitor{Var: func(v *LocalVar) { free.Insert(v) }}.Walk(t)
	return free
}

// MentionsMeta reports whether t contains an occurrence of the meta.
func MentionsMeta(t Term, id MetaID) bool {
	found := false
	Visitor{Meta: func(c *MetaCall) {
		if c.Meta.ID() == id {
			found = true
		}
	}}.Walk(t)
	return found
}

// UsageCount counts the free occurrences of v in t.
func UsageCount(t Term, v *LocalVar) int {
	n := 0
	Visitor{Var: func(u *LocalVar) {
		if u == v {
			n++
		}
	}}.Walk(t)
	return n
}

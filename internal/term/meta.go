package term

import (
	"fmt"
	"sync/atomic"

	"github.com/gnoswap-labs/defeq/internal/types"
)

// MetaID identifies a meta. IDs are handed out in creation order and are the
// only notion of meta identity; zero is never a valid ID.
type MetaID uint32

const NoMetaID MetaID = 0

func (id MetaID) IsValid() bool { return id != NoMetaID }

var metaSeq atomic.Uint32

func nextMetaID() MetaID {
	return MetaID(metaSeq.Add(1))
}

// Meta is an elaboration hole. A meta created under a context is abstracted
// over that context (ContextTele); a function-typed meta also gets its own
// parameters (Telescope). Result is nil when the meta stands for a type.
type Meta struct {
	id          MetaID
	ContextTele []Param
	Telescope   []Param
	Name        string
	Result      Term
	Pos         types.SourcePos
	// Conditions are comparisons that could not be decided when they were
	// met and must hold once the meta is solved.
	Conditions []Condition
}

// Condition is a postponed comparison `Call = Term` at Type, taken under Ctx.
// Subst maps the meta's full telescope to the arguments of the occurrence.
type Condition struct {
	Subst Subst
	Call  *MetaCall
	Term  Term
	Type  Term
	Ctx   []Param
	Pos   types.SourcePos
}

// NewTypeMeta creates a hole standing for a type.
func NewTypeMeta(contextTele []Param, name string, pos types.SourcePos) *Meta {
	return &Meta{id: nextMetaID(), ContextTele: contextTele, Name: name, Pos: pos}
}

// NewMeta creates a hole of the given type. A Pi-typed hole is represented
// as a hole with one parameter per Pi binder and the final codomain as result.
func NewMeta(contextTele []Param, name string, result Term, pos types.SourcePos) *Meta {
	tele, cod := SplitPi(result)
	return &Meta{
		id:          nextMetaID(),
		ContextTele: contextTele,
		Telescope:   tele,
		Name:        name,
		Result:      cod,
		Pos:         pos,
	}
}

func (m *Meta) ID() MetaID { return m.id }

// IsType reports whether the meta stands for a type.
func (m *Meta) IsType() bool { return m.Result == nil }

func (m *Meta) String() string {
	return fmt.Sprintf("?%s#%d", m.Name, m.id)
}

// FullTelescope is the context telescope followed by the meta's own.
func (m *Meta) FullTelescope() []Param {
	full := make([]Param, 0, len(m.ContextTele)+len(m.Telescope))
	full = append(full, m.ContextTele...)
	return append(full, m.Telescope...)
}

// AsPi splits a type hole into a Pi whose domain and codomain are two new
// type holes over the same context.
func (m *Meta) AsPi(domName, codName string, explicit bool, contextArgs []Arg) *Pi {
	if len(m.Telescope) != 0 {
		panic(fmt.Sprintf("AsPi on %s which has its own parameters", m))
	}
	dom := &Meta{id: nextMetaID(), ContextTele: m.ContextTele, Name: domName, Result: m.Result, Pos: m.Pos}
	cod := &Meta{id: nextMetaID(), ContextTele: m.ContextTele, Name: codName, Result: m.Result, Pos: m.Pos}
	param := Param{
		Ref:      NewLocalVar(domName),
		Type:     &MetaCall{Meta: dom, ContextArgs: contextArgs},
		Explicit: explicit,
	}
	return &Pi{Param: param, Body: &MetaCall{Meta: cod, ContextArgs: contextArgs}}
}

// Instantiate applies a solution to the values the meta's full telescope is
// mapped to by s. Solutions are lambdas over the meta's own parameters
// whose free variables are the context telescope.
func (m *Meta) Instantiate(solution Term, s Subst) Term {
	inst := make(Subst, len(s))
	for _, p := range m.ContextTele {
		if v, ok := s[p.Ref]; ok {
			inst[p.Ref] = v
		}
	}
	body := solution
	for _, p := range m.Telescope {
		lam, ok := body.(*Lambda)
		if !ok {
			break
		}
		v, ok := s[p.Ref]
		if !ok {
			break
		}
		inst[lam.Param.Ref] = v
		body = lam.Body
	}
	return inst.Apply(body)
}

// Subst maps the meta's full telescope to this occurrence's arguments.
func (c *MetaCall) Subst() Subst {
	s := make(Subst, len(c.ContextArgs)+len(c.Args))
	for i, p := range c.Meta.ContextTele {
		if i < len(c.ContextArgs) {
			s[p.Ref] = c.ContextArgs[i].Term
		}
	}
	for i, p := range c.Meta.Telescope {
		if i < len(c.Args) {
			s[p.Ref] = c.Args[i].Term
		}
	}
	return s
}

// Instantiate replaces the occurrence with the given solution.
func (c *MetaCall) Instantiate(solution Term) Term {
	t := c.Meta.Instantiate(solution, c.Subst())
	if extra := len(c.Args) - len(c.Meta.Telescope); extra > 0 {
		t = MakeApp(t, c.Args[len(c.Meta.Telescope):]...)
	}
	return t
}

// ResultType is the type of this occurrence, or nil for a type hole.
func (c *MetaCall) ResultType() Term {
	if c.Meta.Result == nil {
		return nil
	}
	return c.Subst().Apply(c.Meta.Result)
}

package localctx

import (
	"slices"

	"github.com/gnoswap-labs/defeq/internal/term"
)

type entry struct {
	v   *term.LocalVar
	typ term.Term
}

// SeqCtx is a list-backed frame, cheaper than MapCtx for the handful of
// bindings a binder comparison introduces.
type SeqCtx struct {
	parent  LocalCtx
	entries []entry
}

func NewSeq() *SeqCtx {
	return newSeq(nil)
}

func newSeq(parent LocalCtx) *SeqCtx {
	return &SeqCtx{parent: parent}
}

func (c *SeqCtx) Get(v *term.LocalVar) term.Term            { return get(c, v) }
func (c *SeqCtx) Lookup(v *term.LocalVar) (term.Term, bool) { return lookup(c, v) }
func (c *SeqCtx) Extract() []term.Param                     { return extract(c) }
func (c *SeqCtx) IsEmpty() bool                             { return isEmpty(c) }
func (c *SeqCtx) DeriveMap() LocalCtx                       { return newMap(c) }
func (c *SeqCtx) DeriveSeq() LocalCtx                       { return newSeq(c) }
func (c *SeqCtx) emptyLocal() bool                          { return len(c.entries) == 0 }

func (c *SeqCtx) Parent() LocalCtx { return c.parent }

func (c *SeqCtx) lookupLocal(v *term.LocalVar) (term.Term, bool) {
	for i := len(c.entries) - 1; i >= 0; i-- {
		if c.entries[i].v == v {
			return c.entries[i].typ, true
		}
	}
	return nil, false
}

func (c *SeqCtx) Put(v *term.LocalVar, typ term.Term) {
	if v == term.Ignored {
		return
	}
	if _, ok := c.lookupLocal(v); ok {
		panic(duplicate(v))
	}
	c.entries = append(c.entries, entry{v: v, typ: typ})
}

func (c *SeqCtx) Remove(vars ...*term.LocalVar) {
	for _, v := range vars {
		c.entries = slices.DeleteFunc(c.entries, func(e entry) bool { return e.v == v })
	}
}

func (c *SeqCtx) ModifyTypes(f func(term.Term) term.Term) {
	for i := range c.entries {
		c.entries[i].typ = f(c.entries[i].typ)
	}
}

func (c *SeqCtx) extractLocal() []term.Param {
	params := make([]term.Param, len(c.entries))
	for i, e := range c.entries {
		params[i] = term.Param{Ref: e.v, Type: e.typ, Explicit: true}
	}
	return params
}

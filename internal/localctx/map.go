package localctx

import (
	"slices"

	"github.com/gnoswap-labs/defeq/internal/term"
)

// MapCtx is a hash-backed frame. Insertion order is kept for Extract.
type MapCtx struct {
	parent LocalCtx
	types  map[*term.LocalVar]term.Term
	order  []*term.LocalVar
}

func NewMap() *MapCtx {
	return newMap(nil)
}

func newMap(parent LocalCtx) *MapCtx {
	return &MapCtx{parent: parent, types: make(map[*term.LocalVar]term.Term)}
}

func (c *MapCtx) Get(v *term.LocalVar) term.Term            { return get(c, v) }
func (c *MapCtx) Lookup(v *term.LocalVar) (term.Term, bool) { return lookup(c, v) }
func (c *MapCtx) Extract() []term.Param                     { return extract(c) }
func (c *MapCtx) IsEmpty() bool                             { return isEmpty(c) }
func (c *MapCtx) DeriveMap() LocalCtx                       { return newMap(c) }
func (c *MapCtx) DeriveSeq() LocalCtx                       { return newSeq(c) }
func (c *MapCtx) emptyLocal() bool                          { return len(c.order) == 0 }

func (c *MapCtx) lookupLocal(v *term.LocalVar) (term.Term, bool) {
	t, ok := c.types[v]
	return t, ok
}

// Parent returns nil for a root frame.
func (c *MapCtx) Parent() LocalCtx { return c.parent }

func (c *MapCtx) Put(v *term.LocalVar, typ term.Term) {
	if v == term.Ignored {
		return
	}
	if _, ok := c.types[v]; ok {
		panic(duplicate(v))
	}
	c.types[v] = typ
	c.order = append(c.order, v)
}

func (c *MapCtx) Remove(vars ...*term.LocalVar) {
	for _, v := range vars {
		if _, ok := c.types[v]; !ok {
			continue
		}
		delete(c.types, v)
		c.order = slices.DeleteFunc(c.order, func(u *term.LocalVar) bool { return u == v })
	}
}

func (c *MapCtx) ModifyTypes(f func(term.Term) term.Term) {
	for _, v := range c.order {
		c.types[v] = f(c.types[v])
	}
}

func (c *MapCtx) extractLocal() []term.Param {
	params := make([]term.Param, len(c.order))
	for i, v := range c.order {
		params[i] = term.Param{Ref: v, Type: c.types[v], Explicit: true}
	}
	return params
}

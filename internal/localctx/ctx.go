// Package localctx implements typing contexts: chains of frames mapping local
// variables to their types.
package localctx

import (
	"fmt"

	"github.com/gnoswap-labs/defeq/internal/term"
)

// LocalCtx is one frame of a typing context together with its parent chain.
// Lookups walk the chain outward; Put and Remove only touch this frame.
type LocalCtx interface {
	// Get returns the type of v and panics if v is unbound anywhere in the
	// chain.
	Get(v *term.LocalVar) term.Term
	Lookup(v *term.LocalVar) (term.Term, bool)
	// Put binds v in this frame. Binding a variable twice in the same frame
	// panics; binding term.Ignored does nothing.
	Put(v *term.LocalVar, typ term.Term)
	Remove(vars ...*term.LocalVar)
	Parent() LocalCtx
	DeriveMap() LocalCtx
	DeriveSeq() LocalCtx
	// Extract flattens the chain into a telescope, outermost frame first.
	Extract() []term.Param
	// IsEmpty reports whether no frame in the chain binds anything.
	IsEmpty() bool
	// ModifyTypes rewrites the types bound in this frame.
	ModifyTypes(f func(term.Term) term.Term)

	lookupLocal(v *term.LocalVar) (term.Term, bool)
	extractLocal() []term.Param
	emptyLocal() bool
}

// Backing selects the frame representation.
type Backing string

const (
	BackingMap Backing = "map"
	BackingSeq Backing = "seq"
)

// New returns an empty root context with the given backing. Unknown
// backings fall back to BackingMap.
func New(b Backing) LocalCtx {
	if b == BackingSeq {
		return NewSeq()
	}
	return NewMap()
}

func get(ctx LocalCtx, v *term.LocalVar) term.Term {
	if t, ok := lookup(ctx, v); ok {
		return t
	}
	panic(fmt.Sprintf("%s is not in the context", v))
}

func lookup(ctx LocalCtx, v *term.LocalVar) (term.Term, bool) {
	for c := ctx; c != nil; c = c.Parent() {
		if t, ok := c.lookupLocal(v); ok {
			return t, true
		}
	}
	return nil, false
}

func extract(ctx LocalCtx) []term.Param {
	var frames [][]term.Param
	for c := ctx; c != nil; c = c.Parent() {
		frames = append(frames, c.extractLocal())
	}
	var tele []term.Param
	for i := len(frames) - 1; i >= 0; i-- {
		tele = append(tele, frames[i]...)
	}
	return tele
}

func isEmpty(ctx LocalCtx) bool {
	for c := ctx; c != nil; c = c.Parent() {
		if !c.emptyLocal() {
			return false
		}
	}
	return true
}

func duplicate(v *term.LocalVar) string {
	return fmt.Sprintf("%s is already bound in this frame", v)
}

// With binds params in ctx for the duration of action. The bindings are
// removed on every exit path, including a panic out of action.
func With[T any](ctx LocalCtx, params []term.Param, action func() T) T {
	var bound []*term.LocalVar
	defer func() { ctx.Remove(bound...) }()
	for _, p := range params {
		ctx.Put(p.Ref, p.Type)
		if p.Ref != term.Ignored {
			bound = append(bound, p.Ref)
		}
	}
	return action()
}

// WithVar is With for a single variable.
func WithVar[T any](ctx LocalCtx, v *term.LocalVar, typ term.Term, action func() T) T {
	return With(ctx, []term.Param{{Ref: v, Type: typ, Explicit: true}}, action)
}

// Forward copies into dest the bindings of src that t depends on, including
// the variables mentioned by their types and by solutions of metas in t.
// sol may be nil.
func Forward(src, dest LocalCtx, t term.Term, sol term.Solutions) {
	term.Visitor{
		Var: func(v *term.LocalVar) {
			if _, ok := dest.Lookup(v); ok {
				return
			}
			typ, ok := src.Lookup(v)
			if !ok {
				return
			}
			Forward(src, dest, typ, sol)
			dest.Put(v, typ)
		},
		Meta: func(c *term.MetaCall) {
			if sol == nil {
				return
			}
			if s, ok := sol.Solution(c.Meta); ok {
				Forward(src, dest, c.Instantiate(s), sol)
			}
		},
	}.Walk(t)
}

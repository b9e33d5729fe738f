package localctx

import (
	"github.com/samber/lo"

	"github.com/gnoswap-labs/defeq/internal/term"
	"github.com/gnoswap-labs/defeq/internal/types"
)

func toArgs(params []term.Param) []term.Arg {
	return lo.Map(params, func(p term.Param, _ int) term.Arg { return p.ToArg() })
}

// FreshHole creates a meta of type typ abstracted over ctx. It returns the
// occurrence applied to the context and to the meta's own parameters, and the
// value to use in place of the hole: the occurrence wrapped in one lambda per
// parameter.
func FreshHole(ctx LocalCtx, typ term.Term, name string, pos types.SourcePos) (*term.MetaCall, term.Term) {
	ctxTele := ctx.Extract()
	meta := term.NewMeta(ctxTele, name, typ, pos)
	call := &term.MetaCall{
		Meta:        meta,
		ContextArgs: toArgs(ctxTele),
		Args:        toArgs(meta.Telescope),
	}
	return call, term.MakeLambda(meta.Telescope, call)
}

// FreshTypeHole creates a meta standing for a type in ctx.
func FreshTypeHole(ctx LocalCtx, name string, pos types.SourcePos) *term.MetaCall {
	ctxTele := ctx.Extract()
	return &term.MetaCall{
		Meta:        term.NewTypeMeta(ctxTele, name, pos),
		ContextArgs: toArgs(ctxTele),
	}
}

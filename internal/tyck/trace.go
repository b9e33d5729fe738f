package tyck

import (
	"go.uber.org/zap"

	"github.com/gnoswap-labs/defeq/internal/term"
)

func (d *DefEq) trace(pass string, lhs, rhs term.Term) {
	if !d.state.trace {
		return
	}
	d.state.logger.Debug("compare",
		zap.String("pass", pass),
		zap.Stringer("lhs", lhs),
		zap.Stringer("rhs", rhs),
		zap.Stringer("cmp", d.cmp),
		zap.Int("depth", d.depth),
		zap.Stringer("pos", d.pos),
	)
}

func (d *DefEq) traceSolved(meta *term.Meta, solution term.Term) {
	d.state.logger.Debug("hole solved",
		zap.Stringer("meta", meta),
		zap.Stringer("solution", solution),
		zap.Stringer("pos", d.pos),
	)
}

func (d *DefEq) tracePostponed(call *term.MetaCall, rhs term.Term) {
	d.state.logger.Debug("hole postponed",
		zap.Stringer("call", call),
		zap.Stringer("rhs", rhs),
		zap.Stringer("pos", d.pos),
	)
}

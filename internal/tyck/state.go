// Package tyck holds the per-unit checking state and the definitional
// equality engine.
package tyck

import (
	"go.uber.org/zap"

	"github.com/gnoswap-labs/defeq/internal/level"
	"github.com/gnoswap-labs/defeq/internal/localctx"
	"github.com/gnoswap-labs/defeq/internal/term"
	"github.com/gnoswap-labs/defeq/internal/types"
)

// State is shared by every comparison of one checked unit. It is not safe
// for concurrent use.
type State struct {
	solutions map[term.MetaID]term.Term
	postponed []*term.Meta

	LevelEqns *level.EqnSet

	reporter types.Reporter
	logger   *zap.Logger

	postpone bool
	maxDepth int
	backing  localctx.Backing
	trace    bool
}

type Option func(*State)

func WithReporter(r types.Reporter) Option {
	return func(s *State) { s.reporter = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *State) { s.logger = l }
}

// WithPostpone makes bad spines postpone the comparison instead of failing.
func WithPostpone(on bool) Option {
	return func(s *State) { s.postpone = on }
}

// WithMaxDepth bounds the nesting of comparisons. Zero means no bound.
func WithMaxDepth(n int) Option {
	return func(s *State) { s.maxDepth = n }
}

// WithBacking selects the frame representation for contexts the state
// creates itself.
func WithBacking(b localctx.Backing) Option {
	return func(s *State) { s.backing = b }
}

// WithTrace logs every comparison at debug level.
func WithTrace(on bool) Option {
	return func(s *State) { s.trace = on }
}

func NewState(opts ...Option) *State {
	s := &State{
		solutions: make(map[term.MetaID]term.Term),
		LevelEqns: level.NewEqnSet(),
		reporter:  types.NewCollectingReporter(),
		logger:    zap.NewNop(),
		backing:   localctx.BackingMap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *State) Reporter() types.Reporter { return s.reporter }

// Solution implements term.Solutions.
func (s *State) Solution(m *term.Meta) (term.Term, bool) {
	t, ok := s.solutions[m.ID()]
	return t, ok
}

// Solve records the solution of m. Solving a meta twice panics.
func (s *State) Solve(m *term.Meta, solution term.Term) {
	if _, ok := s.solutions[m.ID()]; ok {
		panic("meta " + m.String() + " solved twice")
	}
	s.solutions[m.ID()] = solution
}

// Zonk replaces every solved meta in t by its solution.
func (s *State) Zonk(t term.Term) term.Term {
	return term.Zonk(t, s)
}

// Postponed returns the metas that still carry conditions.
func (s *State) Postponed() []*term.Meta {
	return s.postponed
}

func (s *State) addCondition(m *term.Meta, c term.Condition) {
	if len(m.Conditions) == 0 {
		s.postponed = append(s.postponed, m)
	}
	m.Conditions = append(m.Conditions, c)
}

// SolveMetas retries postponed comparisons until no more progress is made,
// reports the ones left over, and then solves the level equations. It
// reports whether everything was discharged.
func (s *State) SolveMetas() bool {
	ok := true
	for {
		progress := false
		current := s.postponed
		s.postponed = nil
		var remaining []*term.Meta
		for _, m := range current {
			conds := m.Conditions
			var left []term.Condition
			for _, c := range conds {
				retried, holds := s.retry(c)
				if !retried {
					left = append(left, c)
					continue
				}
				progress = true
				if !holds {
					ok = false
					s.reporter.Report(ConditionFailedProblem{errorProblem{c.Pos}, c})
				}
			}
			// a retry may have postponed new conditions on m itself
			m.Conditions = append(left, m.Conditions[len(conds):]...)
			if len(m.Conditions) > 0 {
				remaining = append(remaining, m)
			}
		}
		s.postponed = append(remaining, s.postponed...)
		if !progress || len(s.postponed) == 0 {
			break
		}
	}

	for _, m := range s.postponed {
		for _, c := range m.Conditions {
			ok = false
			s.reporter.Report(CannotFindGeneralSolutionProblem{errorProblem{c.Pos}, c})
		}
	}

	if err := s.LevelEqns.Solve(); err != nil {
		ok = false
		pos := types.NoPos
		if len(s.LevelEqns.Eqns) > 0 {
			pos = s.LevelEqns.Eqns[0].Pos
		}
		s.logger.Debug("level equations unsolved", zap.Int("residual", len(s.LevelEqns.Eqns)))
		s.reporter.Report(LevelUnsolvedProblem{errorProblem{pos}, s.LevelEqns.Eqns})
	}
	return ok
}

// retry re-runs a postponed comparison once its meta is solved or its spine
// has become a pattern.
func (s *State) retry(c term.Condition) (retried, holds bool) {
	call := s.Zonk(c.Call)
	mc, stillHole := call.(*term.MetaCall)
	if stillHole {
		if _, ok := extractSpine(mc); !ok {
			return false, false
		}
	}
	ctx := localctx.New(s.backing)
	for _, p := range c.Ctx {
		ctx.Put(p.Ref, p.Type)
	}
	d := NewDefEq(s, ctx, level.Eq, c.Pos)
	if c.Type != nil {
		return true, d.Compare(call, c.Term, c.Type)
	}
	return true, d.CompareUntyped(call, c.Term) != nil
}

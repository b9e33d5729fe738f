package level

import (
	"errors"
	"fmt"

	"github.com/gnoswap-labs/defeq/internal/types"
)

// ErrUnsatisfiable is returned when a set of level equations has no solution.
var ErrUnsatisfiable = errors.New("level equations are unsatisfiable")

// Eqn is a single constraint `Lhs Cmp Rhs`.
type Eqn struct {
	Lhs Sort
	Rhs Sort
	Cmp Ordering
	Pos types.SourcePos
}

func (e Eqn) String() string {
	return fmt.Sprintf("%s %s %s", e.Lhs, e.Cmp, e.Rhs)
}

// Mentions reports whether v occurs on either side.
func (e Eqn) Mentions(v *Var) bool {
	return e.Lhs.Mentions(v) || e.Rhs.Mentions(v)
}

// EqnSet accumulates the level constraints of one checked unit. After a
// successful Solve every declared variable has a solution; after a failed one
// Eqns holds the equations that could not be discharged.
type EqnSet struct {
	Vars     []*Var
	Eqns     []Eqn
	Solution map[*Var]Sort
}

func NewEqnSet() *EqnSet {
	return &EqnSet{Solution: make(map[*Var]Sort)}
}

// Declare registers variables that must receive a solution.
func (s *EqnSet) Declare(vars ...*Var) {
	s.Vars = append(s.Vars, vars...)
}

// Add records `lhs cmp rhs`.
func (s *EqnSet) Add(lhs, rhs Sort, cmp Ordering, pos types.SourcePos) {
	s.Eqns = append(s.Eqns, Eqn{Lhs: lhs, Rhs: rhs, Cmp: cmp, Pos: pos})
}

// AddLevel records a constraint between two single levels.
func (s *EqnSet) AddLevel(lhs, rhs Level, cmp Ordering, pos types.SourcePos) {
	s.Add(Of(lhs), Of(rhs), cmp, pos)
}

// Solve runs the solver. On failure it returns ErrUnsatisfiable and keeps
// only the equations that are not trivially true.
func (s *EqnSet) Solve() error {
	solver := NewSolver()
	if err := solver.Solve(s); err != nil {
		residual := make([]Eqn, 0, len(s.Eqns))
		for i, e := range s.Eqns {
			if !solver.avoidable.Contains(i) {
				residual = append(residual, e)
			}
		}
		s.Eqns = residual
		return err
	}
	for _, v := range s.Vars {
		if _, ok := s.Solution[v]; ok {
			continue
		}
		if v.Free {
			s.Solution[v] = Const(v.Default)
		} else {
			s.Solution[v] = Of(Ref(v, 0))
		}
	}
	s.Eqns = nil
	return nil
}

// Used reports whether v occurs in a pending equation or in a solution.
func (s *EqnSet) Used(v *Var) bool {
	for _, e := range s.Eqns {
		if e.Mentions(v) {
			return true
		}
	}
	for _, sol := range s.Solution {
		if sol.Mentions(v) {
			return true
		}
	}
	return false
}

// MarkUsed returns the solution of v, fixing it to v itself if there is none.
func (s *EqnSet) MarkUsed(v *Var) Sort {
	if sol, ok := s.Solution[v]; ok {
		return sol
	}
	sol := Of(Ref(v, 0))
	s.Solution[v] = sol
	return sol
}

// Apply substitutes solved variables in sort.
func (s *EqnSet) Apply(sort Sort) Sort {
	out := make([]Level, 0, len(sort.Levels))
	for _, l := range sort.Levels {
		r, ok := l.(Reference)
		if !ok {
			out = append(out, l)
			continue
		}
		sol, ok := s.Solution[r.Var]
		if !ok || (len(sol.Levels) == 1 && sol.Levels[0] == Level(Ref(r.Var, 0))) {
			out = append(out, l)
			continue
		}
		out = append(out, sol.Lift(r.Lift).Levels...)
	}
	return Sort{Levels: out}
}

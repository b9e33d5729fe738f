package level

import (
	"github.com/hashicorp/go-set/v3"
)

const (
	// inf marks the absence of an edge.
	inf = 100_000_000
	// upperBound caps every bounded free variable.
	upperBound = inf / 10
	// Distances below rigidMargin are real constraints; anything above came
	// from the upperBound sentinel.
	rigidMargin = upperBound / 2
)

// graph is a distance matrix. Node 0 is the constant level 0. An edge
// u -> v of weight w encodes level(v) <= level(u) + w.
type graph [][]int

func newGraph(nodes int) graph {
	g := make(graph, nodes+1)
	for i := range g {
		g[i] = make([]int, nodes+1)
		for j := range g[i] {
			if i != j {
				g[i][j] = inf
			}
		}
	}
	return g
}

func (g graph) clone() graph {
	c := make(graph, len(g))
	for i := range g {
		c[i] = append([]int(nil), g[i]...)
	}
	return c
}

func (g graph) addEdge(u, v, w int) {
	if w < g[u][v] {
		g[u][v] = w
	}
}

// Solver turns level equations into a difference-constraint graph, searches
// the disjunctions introduced by multi-summand maxima, and reads an
// assignment for the free variables off the shortest paths.
type Solver struct {
	nodes     map[*Var]int
	vars      []*Var
	free      []*Var
	unfree    []*Var
	seen      *set.Set[*Var]
	defaults  map[*Var]int
	avoidable *set.Set[int]
}

func NewSolver() *Solver {
	return &Solver{
		nodes:     make(map[*Var]int),
		seen:      set.New[*Var](8),
		defaults:  make(map[*Var]int),
		avoidable: set.New[int](4),
	}
}

// Avoidable reports whether the i-th equation holds for every assignment.
// Such equations are left out of the residual.
func (s *Solver) Avoidable(i int) bool {
	return s.avoidable.Contains(i)
}

func (s *Solver) genNodes(sort Sort) {
	for _, l := range sort.Levels {
		if r, ok := l.(Reference); ok {
			if _, ok := s.nodes[r.Var]; !ok {
				s.vars = append(s.vars, r.Var)
				s.nodes[r.Var] = len(s.vars)
			}
		}
	}
}

func (s *Solver) prepareNodes(g graph, sort Sort) {
	for _, l := range sort.Levels {
		r, ok := l.(Reference)
		if !ok || !s.seen.Insert(r.Var) {
			continue
		}
		u := s.nodes[r.Var]
		if !r.Var.Free {
			s.unfree = append(s.unfree, r.Var)
			continue
		}
		s.free = append(s.free, r.Var)
		s.defaults[r.Var] = r.Var.Default
		g.addEdge(u, 0, 0)
		if !r.Var.Unbounded {
			g.addEdge(0, u, upperBound)
		}
	}
}

// floyd closes g under shortest paths and checks consistency: no negative
// cycle, and no rigid variable constrained beyond what holds for every value
// it may take.
func (s *Solver) floyd(d graph) error {
	n := len(d)
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if d[i][k] >= inf {
				continue
			}
			for j := 0; j < n; j++ {
				if d[k][j] >= inf {
					continue
				}
				if via := d[i][k] + d[k][j]; via < d[i][j] {
					d[i][j] = via
				}
			}
		}
	}
	for i := 0; i < n; i++ {
		if d[i][i] < 0 {
			return ErrUnsatisfiable
		}
	}
	for _, nu := range s.unfree {
		u := s.nodes[nu]
		if d[u][0] < 0 || d[0][u] < rigidMargin {
			return ErrUnsatisfiable
		}
		for _, nv := range s.unfree {
			v := s.nodes[nv]
			if u != v && d[u][v] < rigidMargin {
				return ErrUnsatisfiable
			}
		}
		for v := 1; v < n; v++ {
			if d[u][v] < 0 {
				return ErrUnsatisfiable
			}
		}
	}
	return nil
}

// dealSingleLt adds the edge for a <= b.
func (s *Solver) dealSingleLt(g graph, a, b Level) error {
	if _, ok := b.(Infinity); ok {
		return nil
	}
	if _, ok := a.(Infinity); ok {
		a = Constant{N: upperBound + 1}
	}
	switch x := a.(type) {
	case Constant:
		switch y := b.(type) {
		case Constant:
			if x.N > y.N {
				return ErrUnsatisfiable
			}
		case Reference:
			g.addEdge(s.nodes[y.Var], 0, y.Lift-x.N)
		}
	case Reference:
		u := s.nodes[x.Var]
		switch y := b.(type) {
		case Constant:
			g.addEdge(0, u, y.N-x.Lift)
		case Reference:
			g.addEdge(s.nodes[y.Var], u, y.Lift-x.Lift)
		}
	}
	return nil
}

func (s *Solver) populate(g graph, special *[]Eqn, e Eqn, simpleOnly bool) error {
	switch e.Cmp {
	case Gt:
		return s.populateLt(g, special, e, e.Rhs, e.Lhs, simpleOnly)
	case Lt:
		return s.populateLt(g, special, e, e.Lhs, e.Rhs, simpleOnly)
	}
	errA := s.populateLt(g, special, e, e.Rhs, e.Lhs, simpleOnly)
	errB := s.populateLt(g, special, e, e.Lhs, e.Rhs, simpleOnly)
	if errA != nil {
		return errA
	}
	return errB
}

// populateLt encodes lhs <= rhs. Single-summand right-hand sides become
// edges directly; multi-summand ones are queued in special unless
// simpleOnly is set, in which case they are left for the second pass.
func (s *Solver) populateLt(g graph, special *[]Eqn, e Eqn, lhs, rhs Sort, simpleOnly bool) error {
	if simpleOnly && len(rhs.Levels) > 1 {
		return nil
	}
	for _, r := range rhs.Levels {
		if _, ok := r.(Infinity); ok {
			return nil
		}
	}
	var lhsLevels []Level
	for _, l := range lhs.Levels {
		if !s.implied(g, l, rhs) {
			lhsLevels = append(lhsLevels, l)
		}
	}
	// implied by the graph, possibly through this equation's own edges
	// from the first pass; not avoidable
	if len(lhsLevels) == 0 {
		return nil
	}
	var rhsLevels []Level
	for _, r := range rhs.Levels {
		if ref, ok := r.(Reference); ok && !ref.Var.Free {
			for _, l := range lhsLevels {
				if err := s.dealSingleLt(g, l, r); err != nil {
					return err
				}
			}
			continue
		}
		rhsLevels = append(rhsLevels, r)
	}
	switch len(rhsLevels) {
	case 0:
		return nil
	case 1:
		for _, l := range lhsLevels {
			if err := s.dealSingleLt(g, l, rhsLevels[0]); err != nil {
				return err
			}
		}
		return nil
	}
	*special = append(*special, Eqn{Lhs: Of(lhsLevels...), Rhs: Of(rhsLevels...), Cmp: Lt, Pos: e.Pos})
	return nil
}

// implied reports whether l <= rhs already follows from g.
func (s *Solver) implied(g graph, l Level, rhs Sort) bool {
	switch x := l.(type) {
	case Constant:
		if x.N <= 0 {
			return true
		}
		for _, r := range rhs.Levels {
			if c, ok := r.(Constant); ok && c.N >= x.N {
				return true
			}
		}
	case Reference:
		th := s.nodes[x.Var]
		for _, r := range rhs.Levels {
			vp, ok := r.(Reference)
			if !ok {
				continue
			}
			if d := g[s.nodes[vp.Var]][th]; d < inf && d+x.Lift-vp.Lift <= 0 {
				return true
			}
		}
	}
	return false
}

// trivial reports whether e holds for every assignment. g must not carry any
// edge yet.
func (s *Solver) trivial(g graph, e Eqn) bool {
	lt := func(lhs, rhs Sort) bool {
		for _, r := range rhs.Levels {
			if _, ok := r.(Infinity); ok {
				return true
			}
		}
		for _, l := range lhs.Levels {
			if !s.implied(g, l, rhs) {
				return false
			}
		}
		return true
	}
	switch e.Cmp {
	case Lt:
		return lt(e.Lhs, e.Rhs)
	case Gt:
		return lt(e.Rhs, e.Lhs)
	}
	return lt(e.Lhs, e.Rhs) && lt(e.Rhs, e.Lhs)
}

// dfs picks, for every queued equation, which right-hand summand is the
// maximum, backtracking when a choice leads to an inconsistent graph.
func (s *Solver) dfs(special []Eqn, pos int, g graph) (graph, error) {
	if pos >= len(special) {
		if err := s.floyd(g); err != nil {
			return nil, err
		}
		return g, nil
	}
	e := special[pos]
	if len(e.Lhs.Levels) == 0 || len(e.Rhs.Levels) == 0 {
		return s.dfs(special, pos+1, g)
	}
	for _, max := range e.Rhs.Levels {
		gg := g.clone()
		if s.chooseMax(gg, e, max) != nil || s.floyd(gg) != nil {
			continue
		}
		if res, err := s.dfs(special, pos+1, gg); err == nil {
			return res, nil
		}
	}
	return nil, ErrUnsatisfiable
}

func (s *Solver) chooseMax(g graph, e Eqn, max Level) error {
	for _, l := range e.Lhs.Levels {
		if err := s.dealSingleLt(g, l, max); err != nil {
			return err
		}
	}
	for _, r := range e.Rhs.Levels {
		if err := s.dealSingleLt(g, r, max); err != nil {
			return err
		}
	}
	return nil
}

// Solve fills eqns.Solution for every free variable mentioned in an
// equation, or returns ErrUnsatisfiable.
func (s *Solver) Solve(eqns *EqnSet) error {
	for _, e := range eqns.Eqns {
		s.genNodes(e.Lhs)
		s.genNodes(e.Rhs)
	}
	g := newGraph(len(s.vars))
	for i, e := range eqns.Eqns {
		if s.trivial(g, e) {
			s.avoidable.Insert(i)
		}
	}
	for _, e := range eqns.Eqns {
		s.prepareNodes(g, e.Lhs)
		s.prepareNodes(g, e.Rhs)
	}

	var special []Eqn
	for _, simpleOnly := range []bool{true, false} {
		for _, e := range eqns.Eqns {
			if err := s.populate(g, &special, e, simpleOnly); err != nil {
				return err
			}
		}
		if err := s.floyd(g); err != nil {
			return err
		}
	}

	gg, err := s.dfs(special, 0, g)
	if err != nil {
		return err
	}
	for _, v := range s.free {
		var sol Sort
		gg, sol = s.assign(gg, v)
		eqns.Solution[v] = sol
	}
	return nil
}

// assign computes the solution of one free variable and returns the graph
// with that choice fixed.
func (s *Solver) assign(g graph, v *Var) (graph, Sort) {
	u := s.nodes[v]
	def := s.defaults[v]
	if g[0][u] >= def {
		tightened := g.clone()
		tightened.addEdge(u, 0, -def)
		if s.floyd(tightened) == nil {
			g = tightened
		}
	}
	upper := g[0][u]
	lower := -g[u][0]
	if lower < 0 {
		lower = 0
	}

	var upperNodes, lowerNodes []Level
	for _, w := range s.unfree {
		x := s.nodes[w]
		if g[x][u] < inf {
			upperNodes = append(upperNodes, Ref(w, g[x][u]))
		}
		if g[u][x] < rigidMargin {
			lowerNodes = append(lowerNodes, Ref(w, max(0, -g[u][x])))
		}
	}

	var levels []Level
	if len(lowerNodes) > 0 || len(upperNodes) == 0 {
		if lower != 0 || len(lowerNodes) == 0 {
			levels = append(levels, Constant{N: lower})
		}
		levels = append(levels, lowerNodes...)
	} else {
		minv := upper
		for _, l := range upperNodes {
			minv = min(minv, l.(Reference).Lift)
		}
		levels = append(levels, Constant{N: minv})
	}

	if len(levels) == 1 {
		if c, ok := levels[0].(Constant); ok {
			pinned := g.clone()
			pinned.addEdge(u, 0, -c.N)
			pinned.addEdge(0, u, c.N)
			if s.floyd(pinned) == nil {
				g = pinned
			}
		}
	}
	return g, Of(levels...)
}

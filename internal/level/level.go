package level

import (
	"fmt"
	"strings"
)

// Ordering is the direction of a comparison. Lt means lhs <= rhs, Gt means
// lhs >= rhs.
type Ordering int

const (
	Lt Ordering = iota
	Eq
	Gt
)

func (o Ordering) String() string {
	switch o {
	case Lt:
		return "<="
	case Eq:
		return "=="
	case Gt:
		return ">="
	}
	return "?"
}

// Invert swaps the sides of the ordering.
func (o Ordering) Invert() Ordering {
	switch o {
	case Lt:
		return Gt
	case Gt:
		return Lt
	}
	return o
}

// Var is a universe level variable. Free variables are unknowns the solver
// must assign; the others are rigid level parameters that are only checked.
type Var struct {
	Name    string
	Free    bool
	Default int
	// Unbounded free variables get no upper-bound sentinel edge.
	Unbounded bool
}

// NewVar returns a free level variable with default 0.
func NewVar(name string) *Var {
	return &Var{Name: name, Free: true}
}

// NewRigid returns a level parameter.
func NewRigid(name string) *Var {
	return &Var{Name: name}
}

func (v *Var) String() string { return v.Name }

// Level is one summand of a Sort.
type Level interface {
	isLevel()
	String() string
}

type (
	Constant struct {
		N int
	}

	// Reference is Var + Lift.
	Reference struct {
		Var  *Var
		Lift int
	}

	Infinity struct{}
)

func (Constant) isLevel()  {}
func (Reference) isLevel() {}
func (Infinity) isLevel()  {}

func (c Constant) String() string { return fmt.Sprint(c.N) }

func (r Reference) String() string {
	if r.Lift == 0 {
		return r.Var.Name
	}
	return fmt.Sprintf("%s+%d", r.Var.Name, r.Lift)
}

func (Infinity) String() string { return "inf" }

// Ref is shorthand for Reference{Var: v, Lift: lift}.
func Ref(v *Var, lift int) Reference {
	return Reference{Var: v, Lift: lift}
}

func liftLevel(l Level, n int) Level {
	switch x := l.(type) {
	case Constant:
		return Constant{N: x.N + n}
	case Reference:
		return Reference{Var: x.Var, Lift: x.Lift + n}
	}
	return l
}

// Sort is the maximum of its levels.
type Sort struct {
	Levels []Level
}

// Of builds a sort from its summands.
func Of(levels ...Level) Sort {
	return Sort{Levels: levels}
}

// Const is the sort of a single constant level.
func Const(n int) Sort {
	return Of(Constant{N: n})
}

// Omega is the sort containing every level.
func Omega() Sort {
	return Of(Infinity{})
}

// Lift adds n to every summand.
func (s Sort) Lift(n int) Sort {
	out := make([]Level, len(s.Levels))
	for i, l := range s.Levels {
		out[i] = liftLevel(l, n)
	}
	return Sort{Levels: out}
}

// Max is the sort whose summands are those of both sorts.
func (s Sort) Max(other Sort) Sort {
	out := make([]Level, 0, len(s.Levels)+len(other.Levels))
	out = append(out, s.Levels...)
	return Sort{Levels: append(out, other.Levels...)}
}

// Mentions reports whether v occurs in the sort.
func (s Sort) Mentions(v *Var) bool {
	for _, l := range s.Levels {
		if r, ok := l.(Reference); ok && r.Var == v {
			return true
		}
	}
	return false
}

func (s Sort) String() string {
	switch len(s.Levels) {
	case 0:
		return "0"
	case 1:
		return s.Levels[0].String()
	}
	parts := make([]string, len(s.Levels))
	for i, l := range s.Levels {
		parts[i] = l.String()
	}
	return "lmax(" + strings.Join(parts, ", ") + ")"
}

package term

import (
	"sync/atomic"

	"github.com/gnoswap-labs/defeq/internal/level"
)

// Term is a core expression. Terms are immutable trees; every operation that
// changes a term returns a new one. The set of implementations is closed.
type Term interface {
	isTerm()
	String() string
}

var localVarSeq atomic.Uint64

// LocalVar is a bound or free variable. Two variables are the same variable
// only if they are the same pointer; the name is for display.
type LocalVar struct {
	Name string
	id   uint64
}

// NewLocalVar returns a variable distinct from every other variable.
func NewLocalVar(name string) *LocalVar {
	return &LocalVar{Name: name, id: localVarSeq.Add(1)}
}

// Ignored stands for a binder whose variable is never referenced.
// It is never put into a context.
var Ignored = &LocalVar{Name: "_"}

// Fresh returns a new variable with the same display name.
func (v *LocalVar) Fresh() *LocalVar {
	return NewLocalVar(v.Name)
}

func (v *LocalVar) ID() uint64 { return v.id }

// Param is a telescope entry.
type Param struct {
	Ref      *LocalVar
	Type     Term
	Explicit bool
}

// ToTerm returns a reference to the parameter's variable.
func (p Param) ToTerm() Term {
	return &Ref{Var: p.Ref}
}

// ToArg returns the parameter as an argument with the same visibility.
func (p Param) ToArg() Arg {
	return Arg{Term: p.ToTerm(), Explicit: p.Explicit}
}

// Rename returns the parameter with a fresh variable of the same name.
func (p Param) Rename() Param {
	return Param{Ref: p.Ref.Fresh(), Type: p.Type, Explicit: p.Explicit}
}

// Arg is an application argument.
type Arg struct {
	Term     Term
	Explicit bool
}

type (
	// Ref is a variable occurrence.
	Ref struct {
		Var *LocalVar
	}

	Lambda struct {
		Param Param
		Body  Term
	}

	// Pi is the dependent function type.
	Pi struct {
		Param Param
		Body  Term
	}

	// Sigma is the n-ary dependent pair type. The type of the last parameter
	// is the type of the last component; its variable is usually Ignored.
	Sigma struct {
		Params []Param
	}

	Universe struct {
		Sort level.Sort
	}

	App struct {
		Fn  Term
		Arg Arg
	}

	// Proj projects the Ix-th component (1-based) out of a tuple.
	Proj struct {
		Tup Term
		Ix  int
	}

	Tuple struct {
		Items []Term
	}

	// MetaCall is an occurrence of a hole, applied to the variables of the
	// context it was created in and to its own parameters.
	MetaCall struct {
		Meta        *Meta
		ContextArgs []Arg
		Args        []Arg
	}

	FnCall struct {
		Def  *Def
		Args []Arg
	}

	DataCall struct {
		Def  *Def
		Args []Arg
	}

	ConCall struct {
		Def  *Def
		Args []Arg
	}
)

func (*Ref) isTerm()      {}
func (*Lambda) isTerm()   {}
func (*Pi) isTerm()       {}
func (*Sigma) isTerm()    {}
func (*Universe) isTerm() {}
func (*App) isTerm()      {}
func (*Proj) isTerm()     {}
func (*Tuple) isTerm()    {}
func (*MetaCall) isTerm() {}
func (*FnCall) isTerm()   {}
func (*DataCall) isTerm() {}
func (*ConCall) isTerm()  {}

// NewRef is shorthand for &Ref{Var: v}.
func NewRef(v *LocalVar) *Ref {
	return &Ref{Var: v}
}

// Type returns a universe at the given sort.
func Type(sort level.Sort) *Universe {
	return &Universe{Sort: sort}
}

// SubstBody instantiates the codomain with the given argument.
func (p *Pi) SubstBody(arg Term) Term {
	return Subst{p.Param.Ref: arg}.Apply(p.Body)
}

// MakeApp applies f to every argument in order.
func MakeApp(f Term, args ...Arg) Term {
	for _, a := range args {
		f = &App{Fn: f, Arg: a}
	}
	return f
}

// MakeLambda wraps body in one lambda per parameter.
func MakeLambda(params []Param, body Term) Term {
	for i := len(params) - 1; i >= 0; i-- {
		body = &Lambda{Param: params[i], Body: body}
	}
	return body
}

// MakePi wraps result in one Pi per parameter.
func MakePi(params []Param, result Term) Term {
	for i := len(params) - 1; i >= 0; i-- {
		result = &Pi{Param: params[i], Body: result}
	}
	return result
}

// SplitPi peels off leading Pi binders.
func SplitPi(t Term) ([]Param, Term) {
	var params []Param
	for {
		pi, ok := t.(*Pi)
		if !ok {
			return params, t
		}
		params = append(params, pi.Param)
		t = pi.Body
	}
}

// Uneta removes eta-expansions: `\x. f x` becomes `f` when x is not free in f.
func Uneta(t Term) Term {
	lam, ok := t.(*Lambda)
	if !ok {
		return t
	}
	body := Uneta(lam.Body)
	app, ok := body.(*App)
	if !ok {
		return t
	}
	ref, ok := Uneta(app.Arg.Term).(*Ref)
	if !ok || ref.Var != lam.Param.Ref {
		return t
	}
	if FreeVars(app.Fn).Contains(lam.Param.Ref) {
		return t
	}
	return app.Fn
}

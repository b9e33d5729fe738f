package term

// DefKind says which call term refers to a definition.
type DefKind int

const (
	DefFn DefKind = iota
	DefData
	DefCon
)

// Def is a top-level definition. Only function definitions with a body
// compute; data types and constructors are rigid heads.
type Def struct {
	Name      string
	Kind      DefKind
	Telescope []Param
	Result    Term
	// Body is nil for postulates and for non-function definitions.
	Body Term
}

// NewFn defines a function. Pass a nil body for an opaque postulate.
func NewFn(name string, tele []Param, result, body Term) *Def {
	return &Def{Name: name, Kind: DefFn, Telescope: tele, Result: result, Body: body}
}

func NewData(name string, tele []Param, result Term) *Def {
	return &Def{Name: name, Kind: DefData, Telescope: tele, Result: result}
}

// NewCon defines a constructor. Its telescope includes the data parameters.
func NewCon(name string, tele []Param, result Term) *Def {
	return &Def{Name: name, Kind: DefCon, Telescope: tele, Result: result}
}

// Call builds the call term matching the definition's kind.
func (d *Def) Call(args ...Arg) Term {
	switch d.Kind {
	case DefData:
		return &DataCall{Def: d, Args: args}
	case DefCon:
		return &ConCall{Def: d, Args: args}
	default:
		return &FnCall{Def: d, Args: args}
	}
}

// ResultType is the definition's result type instantiated with args.
func (d *Def) ResultType(args []Arg) Term {
	return telescopeSubst(d.Telescope, args).Apply(d.Result)
}

// unfold returns the instantiated body, or false if the call is stuck.
func (d *Def) unfold(args []Arg) (Term, bool) {
	if d.Kind != DefFn || d.Body == nil || len(args) != len(d.Telescope) {
		return nil, false
	}
	return telescopeSubst(d.Telescope, args).Apply(d.Body), true
}

func telescopeSubst(tele []Param, args []Arg) Subst {
	s := make(Subst, len(tele))
	for i := 0; i < len(tele) && i < len(args); i++ {
		s[tele[i].Ref] = args[i].Term
	}
	return s
}

package engine

import (
	"fmt"
	"go/token"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gnoswap-labs/defeq/internal/level"
	"github.com/gnoswap-labs/defeq/internal/types"
)

// Fixture is a set of universe level constraints read from a YAML file:
//
//	name: cumulativity
//	vars:
//	  - name: l
//	    rigid: true
//	  - name: u
//	    default: 1
//	equations:
//	  - lhs: [u+1]
//	    cmp: "<="
//	    rhs: [l, 2]
//
// A level is written as a variable with an optional lift (`u`, `u+1`), a
// constant (`2`) or `inf`. A side with several levels is their maximum.
type Fixture struct {
	Name      string         `yaml:"name"`
	Vars      []VarDecl      `yaml:"vars"`
	Equations []EquationDecl `yaml:"equations"`
}

// VarDecl declares a level variable. Variables are free unless marked rigid.
type VarDecl struct {
	Name      string `yaml:"name"`
	Rigid     bool   `yaml:"rigid,omitempty"`
	Default   int    `yaml:"default,omitempty"`
	Unbounded bool   `yaml:"unbounded,omitempty"`
}

type EquationDecl struct {
	Lhs []LevelExpr `yaml:"lhs"`
	Cmp string      `yaml:"cmp"`
	Rhs []LevelExpr `yaml:"rhs"`

	line, column int
}

func (e *EquationDecl) UnmarshalYAML(node *yaml.Node) error {
	type plain EquationDecl
	if err := node.Decode((*plain)(e)); err != nil {
		return err
	}
	e.line, e.column = node.Line, node.Column
	return nil
}

// LevelExpr is the written form of a single level.
type LevelExpr struct {
	Var   string
	Lift  int
	Const int
	Inf   bool
}

func (l *LevelExpr) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := parseLevel(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*l = parsed
	return nil
}

func (l LevelExpr) MarshalYAML() (any, error) {
	return l.String(), nil
}

func (l LevelExpr) String() string {
	switch {
	case l.Inf:
		return "inf"
	case l.Var == "":
		return strconv.Itoa(l.Const)
	case l.Lift == 0:
		return l.Var
	}
	return fmt.Sprintf("%s+%d", l.Var, l.Lift)
}

func parseLevel(raw string) (LevelExpr, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return LevelExpr{}, fmt.Errorf("empty level")
	}
	if raw == "inf" {
		return LevelExpr{Inf: true}, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return LevelExpr{}, fmt.Errorf("negative level %d", n)
		}
		return LevelExpr{Const: n}, nil
	}
	name, lift, found := strings.Cut(raw, "+")
	name = strings.TrimSpace(name)
	if name == "" {
		return LevelExpr{}, fmt.Errorf("malformed level %q", raw)
	}
	decl := LevelExpr{Var: name}
	if found {
		n, err := strconv.Atoi(strings.TrimSpace(lift))
		if err != nil || n < 0 {
			return LevelExpr{}, fmt.Errorf("malformed lift in %q", raw)
		}
		decl.Lift = n
	}
	return decl, nil
}

func parseOrdering(cmp string) (level.Ordering, error) {
	switch cmp {
	case "<=":
		return level.Lt, nil
	case "==", "=":
		return level.Eq, nil
	case ">=":
		return level.Gt, nil
	}
	return 0, fmt.Errorf("unknown comparison %q (want <=, == or >=)", cmp)
}

// ParseFixture decodes the content of a fixture file.
func ParseFixture(filename string, data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", filename, err)
	}
	return &f, nil
}

// Build turns the fixture into an equation set. Declared variables are
// returned in declaration order; referencing an undeclared one is an error.
func (f *Fixture) Build(filename string) (*level.EqnSet, []*level.Var, error) {
	vars := make(map[string]*level.Var, len(f.Vars))
	declared := make([]*level.Var, 0, len(f.Vars))
	for _, decl := range f.Vars {
		if decl.Name == "" {
			return nil, nil, fmt.Errorf("%s: level variable without a name", filename)
		}
		if _, dup := vars[decl.Name]; dup {
			return nil, nil, fmt.Errorf("%s: level variable %q declared twice", filename, decl.Name)
		}
		v := level.NewRigid(decl.Name)
		if !decl.Rigid {
			v = level.NewVar(decl.Name)
			v.Default = decl.Default
			v.Unbounded = decl.Unbounded
		}
		vars[decl.Name] = v
		declared = append(declared, v)
	}

	sort := func(exprs []LevelExpr) (level.Sort, error) {
		levels := make([]level.Level, 0, len(exprs))
		for _, s := range exprs {
			switch {
			case s.Inf:
				levels = append(levels, level.Infinity{})
			case s.Var == "":
				levels = append(levels, level.Constant{N: s.Const})
			default:
				v, ok := vars[s.Var]
				if !ok {
					return level.Sort{}, fmt.Errorf("undeclared level variable %q", s.Var)
				}
				levels = append(levels, level.Ref(v, s.Lift))
			}
		}
		return level.Of(levels...), nil
	}

	eqns := level.NewEqnSet()
	eqns.Declare(declared...)
	for i, e := range f.Equations {
		pos := types.SourcePos{
			Filename: filename,
			Start:    token.Position{Filename: filename, Line: e.line, Column: e.column},
		}
		if len(e.Lhs) == 0 || len(e.Rhs) == 0 {
			return nil, nil, fmt.Errorf("%s: equation %d has an empty side", pos, i+1)
		}
		cmp, err := parseOrdering(e.Cmp)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", pos, err)
		}
		lhs, err := sort(e.Lhs)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", pos, err)
		}
		rhs, err := sort(e.Rhs)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", pos, err)
		}
		eqns.Add(lhs, rhs, cmp, pos)
	}
	return eqns, declared, nil
}

package term

import (
	"fmt"
	"strings"
)

func (v *LocalVar) String() string { return v.Name }

func (p Param) String() string {
	if p.Explicit {
		return fmt.Sprintf("(%s : %s)", p.Ref, p.Type)
	}
	return fmt.Sprintf("{%s : %s}", p.Ref, p.Type)
}

func (a Arg) String() string {
	if a.Explicit {
		return atom(a.Term)
	}
	return "{" + a.Term.String() + "}"
}

func (t *Ref) String() string    { return t.Var.Name }
func (t *Lambda) String() string { return fmt.Sprintf("\\%s. %s", t.Param, t.Body) }
func (t *Pi) String() string     { return fmt.Sprintf("Pi %s -> %s", t.Param, t.Body) }

func (t *Sigma) String() string {
	var b strings.Builder
	b.WriteString("Sig")
	for i, p := range t.Params {
		if i == len(t.Params)-1 {
			b.WriteString(" ** ")
			b.WriteString(p.Type.String())
			break
		}
		b.WriteString(" ")
		b.WriteString(p.String())
	}
	return b.String()
}

func (t *Universe) String() string { return "Type " + t.Sort.String() }
func (t *App) String() string      { return t.Fn.String() + " " + t.Arg.String() }
func (t *Proj) String() string     { return fmt.Sprintf("%s.%d", atom(t.Tup), t.Ix) }

func (t *Tuple) String() string {
	items := make([]string, len(t.Items))
	for i, it := range t.Items {
		items[i] = it.String()
	}
	return "(" + strings.Join(items, ", ") + ")"
}

func (t *MetaCall) String() string {
	return call(t.Meta.String(), t.Args)
}

func (t *FnCall) String() string   { return call(t.Def.Name, t.Args) }
func (t *DataCall) String() string { return call(t.Def.Name, t.Args) }
func (t *ConCall) String() string  { return call(t.Def.Name, t.Args) }

func call(head string, args []Arg) string {
	if len(args) == 0 {
		return head
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, head)
	for _, a := range args {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, " ")
}

func atom(t Term) string {
	switch t.(type) {
	case *Ref, *Tuple, *Universe:
		return t.String()
	}
	if c, ok := t.(interface{ argCount() int }); ok && c.argCount() == 0 {
		return t.String()
	}
	return "(" + t.String() + ")"
}

func (t *MetaCall) argCount() int { return len(t.Args) }
func (t *FnCall) argCount() int   { return len(t.Args) }
func (t *DataCall) argCount() int { return len(t.Args) }
func (t *ConCall) argCount() int  { return len(t.Args) }

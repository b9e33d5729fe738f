package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/fatih/color"

	"github.com/gnoswap-labs/defeq/engine"
	"github.com/gnoswap-labs/defeq/internal/level"
	"github.com/gnoswap-labs/defeq/internal/types"
)

var (
	errorStyle    = color.New(color.FgRed, color.Bold)
	warningStyle  = color.New(color.FgHiYellow, color.Bold)
	infoStyle     = color.New(color.FgHiBlue, color.Bold)
	solvedStyle   = color.New(color.FgGreen, color.Bold)
	fileStyle     = color.New(color.FgCyan, color.Bold)
	varStyle      = color.New(color.FgYellow, color.Bold)
	residualStyle = color.New(color.FgRed)
)

const resultTemplate = `{{status .Solved}}{{.Name}}
 --> {{file .File}}
{{- range .Assignments}}
  {{var .Name}} = {{.Value}}
{{- end}}
{{- range .Problems}}
  {{severity .Severity}}{{.Kind}}{{if .Pos}} at {{.Pos}}{{end}}
{{- end}}
{{- range .Residual}}
  = {{residual .}}
{{- end}}

`

var resultTmpl = template.Must(template.New("result").Funcs(template.FuncMap{
	"status":   status,
	"file":     func(s string) string { return fileStyle.Sprint(s) },
	"var":      func(s string) string { return varStyle.Sprint(s) },
	"residual": func(s string) string { return residualStyle.Sprint(s) },
	"severity": severity,
}).Parse(resultTemplate))

// ResultData is the rendering-neutral view of an engine.Result. It is also
// the JSON output format.
type ResultData struct {
	File        string        `json:"file"`
	Name        string        `json:"name"`
	Solved      bool          `json:"solved"`
	Assignments []Assignment  `json:"assignments,omitempty"`
	Problems    []ProblemData `json:"problems,omitempty"`
	Residual    []string      `json:"residual,omitempty"`
}

type Assignment struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ProblemData struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Pos      string `json:"pos,omitempty"`
}

// NewResultData flattens r. Assignments follow the declaration order of the
// fixture's variables; rigid variables solved to themselves are left out.
func NewResultData(r *engine.Result) ResultData {
	data := ResultData{File: r.File, Name: r.Name, Solved: r.Solved()}
	for _, v := range r.Vars {
		sol, ok := r.Solution[v]
		if !ok || isSelf(v, sol) {
			continue
		}
		data.Assignments = append(data.Assignments, Assignment{Name: v.Name, Value: sol.String()})
	}
	for _, p := range r.Problems {
		pd := ProblemData{Kind: string(p.Kind()), Severity: p.Severity().String()}
		if p.Pos().IsValid() {
			pd.Pos = p.Pos().String()
		}
		data.Problems = append(data.Problems, pd)
	}
	for _, e := range r.Residual {
		data.Residual = append(data.Residual, e.String())
	}
	return data
}

func isSelf(v *level.Var, sol level.Sort) bool {
	if len(sol.Levels) != 1 {
		return false
	}
	r, ok := sol.Levels[0].(level.Reference)
	return ok && r.Var == v && r.Lift == 0
}

// FormatResults renders results for a terminal.
func FormatResults(results []*engine.Result) string {
	var builder strings.Builder
	for _, r := range results {
		builder.WriteString(FormatResult(r))
	}
	return builder.String()
}

func FormatResult(r *engine.Result) string {
	var buf bytes.Buffer
	if err := resultTmpl.Execute(&buf, NewResultData(r)); err != nil {
		return fmt.Sprintf("Error formatting result: %v", err)
	}
	return buf.String()
}

// FormatJSON renders results as a JSON array.
func FormatJSON(results []*engine.Result) ([]byte, error) {
	data := make([]ResultData, len(results))
	for i, r := range results {
		data[i] = NewResultData(r)
	}
	return json.MarshalIndent(data, "", "  ")
}

func status(solved bool) string {
	if solved {
		return solvedStyle.Sprint("solved: ")
	}
	return errorStyle.Sprint("unsolved: ")
}

func severity(s string) string {
	switch s {
	case types.SeverityError.String():
		return errorStyle.Sprint("error: ")
	case types.SeverityWarning.String():
		return warningStyle.Sprint("warning: ")
	}
	return infoStyle.Sprint("info: ")
}

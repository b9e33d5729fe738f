package formatter

import (
	"encoding/json"
	"go/token"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/defeq/engine"
	"github.com/gnoswap-labs/defeq/internal/level"
	"github.com/gnoswap-labs/defeq/internal/types"
)

func init() {
	color.NoColor = true
}

type unsolved struct {
	pos types.SourcePos
	sev types.Severity
}

func (unsolved) Kind() types.ProblemKind    { return types.KindLevelUnsolved }
func (p unsolved) Pos() types.SourcePos     { return p.pos }
func (p unsolved) Severity() types.Severity { return p.sev }

func sampleResults() []*engine.Result {
	l := level.NewRigid("l")
	u := level.NewVar("u")
	w := level.NewVar("w")
	pos := types.SourcePos{Filename: "stuck.yaml", Start: token.Position{Line: 5, Column: 5}}
	return []*engine.Result{
		{
			File: "cumulativity.yaml",
			Name: "cumulativity",
			Vars: []*level.Var{l, u},
			Solution: map[*level.Var]level.Sort{
				l: level.Of(level.Ref(l, 0)),
				u: level.Of(level.Ref(l, 1)),
			},
		},
		{
			File:     "stuck.yaml",
			Name:     "stuck",
			Vars:     []*level.Var{w},
			Solution: map[*level.Var]level.Sort{},
			Residual: []level.Eqn{{Lhs: level.Of(level.Ref(w, 1)), Rhs: level.Of(level.Ref(w, 0)), Cmp: level.Lt, Pos: pos}},
			Problems: []types.Problem{unsolved{pos: pos, sev: types.SeverityWarning}},
		},
	}
}

func TestFormatResults(t *testing.T) {
	t.Parallel()
	expected := `solved: cumulativity
 --> cumulativity.yaml
  u = l+1

unsolved: stuck
 --> stuck.yaml
  warning: level-unsolved at stuck.yaml:5:5
  = w+1 <= w

`
	assert.Equal(t, expected, FormatResults(sampleResults()))
}

func TestFormatJSON(t *testing.T) {
	t.Parallel()
	d, err := FormatJSON(sampleResults())
	require.NoError(t, err)

	var decoded []ResultData
	require.NoError(t, json.Unmarshal(d, &decoded))
	require.Len(t, decoded, 2)

	assert.Equal(t, ResultData{
		File:        "cumulativity.yaml",
		Name:        "cumulativity",
		Solved:      true,
		Assignments: []Assignment{{Name: "u", Value: "l+1"}},
	}, decoded[0])
	assert.Equal(t, ResultData{
		File:     "stuck.yaml",
		Name:     "stuck",
		Problems: []ProblemData{{Kind: "level-unsolved", Severity: "WARNING", Pos: "stuck.yaml:5:5"}},
		Residual: []string{"w+1 <= w"},
	}, decoded[1])
}

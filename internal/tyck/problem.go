package tyck

import (
	"github.com/gnoswap-labs/defeq/internal/level"
	"github.com/gnoswap-labs/defeq/internal/term"
	"github.com/gnoswap-labs/defeq/internal/types"
)

type errorProblem struct {
	pos types.SourcePos
}

func (p errorProblem) Pos() types.SourcePos   { return p.pos }
func (errorProblem) Severity() types.Severity { return types.SeverityError }

// BadSpineProblem: a hole applied to something other than distinct variables.
type BadSpineProblem struct {
	errorProblem
	Call *term.MetaCall
}

func (BadSpineProblem) Kind() types.ProblemKind { return types.KindBadSpine }

// BadlyScopedProblem: the candidate solution mentions variables the hole
// cannot see.
type BadlyScopedProblem struct {
	errorProblem
	Call     *term.MetaCall
	Solution term.Term
	Escaped  []*term.LocalVar
}

func (BadlyScopedProblem) Kind() types.ProblemKind { return types.KindBadlyScoped }

// RecursionProblem: the candidate solution mentions the hole itself.
type RecursionProblem struct {
	errorProblem
	Call     *term.MetaCall
	Solution term.Term
}

func (RecursionProblem) Kind() types.ProblemKind { return types.KindRecursion }

// CannotFindGeneralSolutionProblem: a postponed comparison whose hole was
// never solved.
type CannotFindGeneralSolutionProblem struct {
	errorProblem
	Condition term.Condition
}

func (CannotFindGeneralSolutionProblem) Kind() types.ProblemKind {
	return types.KindCannotFindGeneralSolution
}

// ConditionFailedProblem: a postponed comparison that turned out false once
// its hole was solved.
type ConditionFailedProblem struct {
	errorProblem
	Condition term.Condition
}

func (ConditionFailedProblem) Kind() types.ProblemKind { return types.KindConditionFailed }

type LevelUnsolvedProblem struct {
	errorProblem
	Residual []level.Eqn
}

func (LevelUnsolvedProblem) Kind() types.ProblemKind { return types.KindLevelUnsolved }

type DepthExceededProblem struct {
	errorProblem
	Lhs, Rhs term.Term
	Depth    int
}

func (DepthExceededProblem) Kind() types.ProblemKind { return types.KindDepthExceeded }

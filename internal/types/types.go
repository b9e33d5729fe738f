package types

import (
	"fmt"
	"go/token"
)

// SourcePos locates a comparison or a hole in the user's source.
type SourcePos struct {
	Filename string
	Start    token.Position
	End      token.Position
}

// NoPos is used for terms synthesized by the checker itself.
var NoPos = SourcePos{}

func (p SourcePos) IsValid() bool {
	return p.Start.IsValid()
}

func (p SourcePos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Start.Line, p.Start.Column)
}

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityOff
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	case SeverityInfo:
		return "INFO"
	case SeverityOff:
		return "OFF"
	}
	return "UNKNOWN"
}

func (s *Severity) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch raw {
	case "ERROR", "error":
		*s = SeverityError
	case "WARNING", "warning":
		*s = SeverityWarning
	case "INFO", "info":
		*s = SeverityInfo
	case "OFF", "off":
		*s = SeverityOff
	default:
		return fmt.Errorf("unknown severity %q", raw)
	}
	return nil
}

func (s Severity) MarshalYAML() (any, error) {
	return s.String(), nil
}

// ConfigRule overrides the severity of one problem kind.
type ConfigRule struct {
	Severity Severity `yaml:"severity"`
}

// ProblemKind names a class of diagnostics. The string form is the key used
// in the `rules` section of the configuration file.
type ProblemKind string

const (
	KindBadSpine                  ProblemKind = "bad-spine"
	KindBadlyScoped               ProblemKind = "badly-scoped"
	KindRecursion                 ProblemKind = "recursive-solution"
	KindCannotFindGeneralSolution ProblemKind = "cannot-find-general-solution"
	KindConditionFailed           ProblemKind = "condition-failed"
	KindLevelUnsolved             ProblemKind = "level-unsolved"
	KindDepthExceeded             ProblemKind = "depth-exceeded"
)

// Kinds lists every problem kind in a stable order.
var Kinds = []ProblemKind{
	KindBadSpine,
	KindBadlyScoped,
	KindRecursion,
	KindCannotFindGeneralSolution,
	KindConditionFailed,
	KindLevelUnsolved,
	KindDepthExceeded,
}

// Problem is a structured diagnostic. Implementations carry the offending
// subterms as data; rendering them is left to whoever consumes the report.
type Problem interface {
	Kind() ProblemKind
	Pos() SourcePos
	Severity() Severity
}

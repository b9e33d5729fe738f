package types

import (
	"go.uber.org/zap"
)

// Reporter receives problems found while checking a unit.
type Reporter interface {
	Report(p Problem)
}

// CollectingReporter keeps every problem in arrival order.
type CollectingReporter struct {
	Problems []Problem
}

func NewCollectingReporter() *CollectingReporter {
	return &CollectingReporter{}
}

func (r *CollectingReporter) Report(p Problem) {
	r.Problems = append(r.Problems, p)
}

// AnyError reports whether an error-severity problem was collected.
func (r *CollectingReporter) AnyError() bool {
	for _, p := range r.Problems {
		if p.Severity() == SeverityError {
			return true
		}
	}
	return false
}

// OfKind returns the collected problems of the given kind.
func (r *CollectingReporter) OfKind(kind ProblemKind) []Problem {
	var out []Problem
	for _, p := range r.Problems {
		if p.Kind() == kind {
			out = append(out, p)
		}
	}
	return out
}

// SeverityReporter applies per-kind severity overrides before forwarding.
// Kinds configured as SeverityOff are dropped.
type SeverityReporter struct {
	next  Reporter
	rules map[ProblemKind]Severity
}

func NewSeverityReporter(next Reporter, rules map[ProblemKind]Severity) *SeverityReporter {
	return &SeverityReporter{next: next, rules: rules}
}

func (r *SeverityReporter) Report(p Problem) {
	sev, ok := r.rules[p.Kind()]
	if !ok {
		r.next.Report(p)
		return
	}
	if sev == SeverityOff {
		return
	}
	r.next.Report(overridden{Problem: p, severity: sev})
}

// Unwrap returns the problem as it was originally reported.
func Unwrap(p Problem) Problem {
	if o, ok := p.(overridden); ok {
		return o.Problem
	}
	return p
}

type overridden struct {
	Problem
	severity Severity
}

func (o overridden) Severity() Severity { return o.severity }

// LogReporter writes each problem as a structured log entry.
type LogReporter struct {
	logger *zap.Logger
}

func NewLogReporter(logger *zap.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(p Problem) {
	fields := []zap.Field{
		zap.String("kind", string(p.Kind())),
		zap.Stringer("pos", p.Pos()),
		zap.Stringer("severity", p.Severity()),
	}
	switch p.Severity() {
	case SeverityError:
		r.logger.Error("problem", fields...)
	case SeverityWarning:
		r.logger.Warn("problem", fields...)
	default:
		r.logger.Info("problem", fields...)
	}
}

// Tee forwards every problem to all reporters.
type Tee []Reporter

func (t Tee) Report(p Problem) {
	for _, r := range t {
		r.Report(p)
	}
}

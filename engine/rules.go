package engine

import (
	"slices"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/defeq/internal/types"
)

// applyRules builds the severity table. Kinds missing from the
// configuration keep the severity they are reported with.
func (e *Engine) applyRules(rules map[string]types.ConfigRule) {
	e.severities = make(map[types.ProblemKind]types.Severity, len(rules))
	for key, rule := range rules {
		kind := types.ProblemKind(key)
		if !slices.Contains(types.Kinds, kind) {
			// Unknown rule, continue to the next one
			e.logger.Warn("Unknown rule in configuration", zap.String("rule", key))
			continue
		}
		e.severities[kind] = rule.Severity
	}
}

// IgnoreRule silences a problem kind and drops cached results.
func (e *Engine) IgnoreRule(rule string) {
	e.severities[types.ProblemKind(rule)] = types.SeverityOff
	if e.cache != nil {
		e.cache.InvalidateAll()
	}
}

// Severity returns the configured severity of kind and whether one is set.
func (e *Engine) Severity(kind types.ProblemKind) (types.Severity, bool) {
	sev, ok := e.severities[kind]
	return sev, ok
}

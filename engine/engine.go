// Package engine drives the checker from the outside: it loads the
// configuration, maps problem kinds to severities and solves level
// constraint fixtures, one file at a time or a whole tree in parallel.
package engine

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/defeq/internal/level"
	"github.com/gnoswap-labs/defeq/internal/tyck"
	"github.com/gnoswap-labs/defeq/internal/types"
)

// Engine turns a configuration into checker states and runs fixtures
// through them. Run is safe for concurrent use; rule changes are not.
type Engine struct {
	config     Config
	severities map[types.ProblemKind]types.Severity
	logger     *zap.Logger
	out        io.Writer
	cache      *Cache

	watcher    *fsnotify.Watcher
	isWatching atomic.Bool
	onResult   func(*Result, error)
}

type Option func(*Engine)

// WithCache reuses the result of a fixture whose content has not changed.
func WithCache(c *Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithOutput redirects progress output, which goes to stderr by default.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// New loads the configuration at configurationPath. An empty path uses the
// defaults.
func New(configurationPath string, logger *zap.Logger, opts ...Option) (*Engine, error) {
	config := DefaultConfig()
	if configurationPath != "" {
		var err error
		config, err = ParseConfigurationFile(configurationPath)
		if err != nil {
			return nil, err
		}
	}
	return NewEngine(config, logger, opts...)
}

func NewEngine(config Config, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if err := config.Checker.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		config: config,
		logger: logger,
		out:    os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.applyRules(config.Rules)
	return e, nil
}

func (e *Engine) Config() Config { return e.config }

// NewState returns a checker state configured from the engine. Problems go
// through the severity rules to reporter.
func (e *Engine) NewState(reporter types.Reporter) *tyck.State {
	c := e.config.Checker
	return tyck.NewState(
		tyck.WithReporter(types.NewSeverityReporter(reporter, e.severities)),
		tyck.WithLogger(e.logger),
		tyck.WithPostpone(c.Postpone),
		tyck.WithMaxDepth(c.MaxDepth),
		tyck.WithBacking(c.CtxBacking),
		tyck.WithTrace(c.Trace),
	)
}

// Result is the outcome of solving one fixture.
type Result struct {
	File     string
	Name     string
	Vars     []*level.Var
	Solution map[*level.Var]level.Sort
	// Residual holds the equations that could not be discharged.
	Residual []level.Eqn
	Problems []types.Problem
}

// Solved reports whether every equation was discharged and nothing worse
// than a warning was reported.
func (r *Result) Solved() bool {
	if len(r.Residual) > 0 {
		return false
	}
	for _, p := range r.Problems {
		if p.Severity() == types.SeverityError {
			return false
		}
	}
	return true
}

// Run solves the fixture at path.
func (e *Engine) Run(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	hash := hashContent(data)
	if e.cache != nil {
		if result, ok := e.cache.Get(path, hash); ok {
			e.logger.Debug("fixture unchanged", zap.String("file", path))
			return result, nil
		}
	}

	fixture, err := ParseFixture(path, data)
	if err != nil {
		return nil, err
	}
	result, err := e.RunFixture(path, fixture)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(path, hash, result)
	}
	return result, nil
}

func (e *Engine) RunFixture(filename string, fixture *Fixture) (*Result, error) {
	eqns, vars, err := fixture.Build(filename)
	if err != nil {
		return nil, err
	}

	collected := types.NewCollectingReporter()
	var reporter types.Reporter = collected
	if e.config.Checker.Trace {
		reporter = types.Tee{collected, types.NewLogReporter(e.logger.With(zap.String("file", filename)))}
	}
	state := e.NewState(reporter)
	state.LevelEqns = eqns
	state.SolveMetas()

	e.logger.Debug("fixture solved",
		zap.String("file", filename),
		zap.Int("equations", len(fixture.Equations)),
		zap.Int("residual", len(eqns.Eqns)),
	)
	return &Result{
		File:     filename,
		Name:     fixture.Name,
		Vars:     vars,
		Solution: eqns.Solution,
		Residual: eqns.Eqns,
		Problems: collected.Problems,
	}, nil
}

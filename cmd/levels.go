package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/defeq/engine"
	"github.com/gnoswap-labs/defeq/formatter"
)

// ErrUnsolved is returned when at least one fixture keeps a residual.
var ErrUnsolved = errors.New("some level constraints are unsolved")

var (
	ignoreRules string
	jsonOutput  bool
	outPath     string
	watch       bool
)

var levelsCmd = &cobra.Command{
	Use:   "levels [paths...]",
	Short: "Solve the universe level constraints in YAML fixtures",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("please provide fixture files or directories")
		}

		var opts []engine.Option
		if watch {
			// rewrites that leave a fixture unchanged are answered from the cache
			opts = append(opts, engine.WithCache(engine.NewCache(0)))
		}
		e, err := newEngine(opts...)
		if err != nil {
			return fmt.Errorf("failed to initialize engine: %w", err)
		}
		for _, rule := range strings.Split(ignoreRules, ",") {
			if rule = strings.TrimSpace(rule); rule != "" {
				e.IgnoreRule(rule)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		out := cmd.OutOrStdout()
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("error creating output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		runErr := runLevels(ctx, logger, e, args, out, jsonOutput)
		if !watch {
			return runErr
		}
		return watchLevels(e, args, cmd.OutOrStdout())
	},
}

func init() {
	levelsCmd.Flags().StringVar(&ignoreRules, "ignore", "", "Comma-separated list of problem kinds to ignore")
	levelsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	levelsCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path")
	levelsCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-solve fixtures when they change")
}

// runLevels solves every fixture under paths and prints the results. It
// returns ErrUnsolved when any fixture keeps a residual.
func runLevels(ctx context.Context, logger *zap.Logger, e *engine.Engine, paths []string, out io.Writer, asJSON bool) error {
	results, err := engine.ProcessPaths(ctx, logger, e, paths)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}

	if asJSON {
		d, jerr := formatter.FormatJSON(results)
		if jerr != nil {
			return fmt.Errorf("error marshalling results to JSON: %w", jerr)
		}
		fmt.Fprintln(out, string(d))
	} else {
		fmt.Fprint(out, formatter.FormatResults(results))
	}

	if err != nil {
		return err
	}
	for _, r := range results {
		if !r.Solved() {
			return ErrUnsolved
		}
	}
	return nil
}

// watchLevels re-solves fixtures as they are written until interrupted.
func watchLevels(e *engine.Engine, paths []string, out io.Writer) error {
	dirs := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("error accessing %s: %w", p, err)
		}
		if !info.IsDir() {
			p = filepath.Dir(p)
		}
		dirs = append(dirs, p)
	}

	err := e.StartWatching(dirs, func(r *engine.Result, err error) {
		if err != nil {
			return
		}
		fmt.Fprint(out, formatter.FormatResult(r))
	})
	if err != nil {
		return err
	}
	defer e.StopWatching()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	logger.Info("Watching for changes", zap.Strings("dirs", dirs))
	<-ctx.Done()
	return nil
}

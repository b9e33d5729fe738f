package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

var desiredExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
}

func hasDesiredExtension(path string) bool {
	return desiredExtensions[filepath.Ext(path)] && filepath.Base(path) != DefaultConfigFile
}

// ProcessPaths solves every fixture under paths. Results are sorted by file.
func ProcessPaths(ctx context.Context, logger *zap.Logger, engine *Engine, paths []string) ([]*Result, error) {
	var all []*Result
	var errs []error
	for _, path := range paths {
		results, err := ProcessPath(ctx, logger, engine, path)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			errs = append(errs, err)
		}
		all = append(all, results...)
	}
	slices.SortFunc(all, func(a, b *Result) int { return cmp.Compare(a.File, b.File) })
	return all, errors.Join(errs...)
}

// ProcessPath solves a single fixture, or every fixture below a directory
// on a pool of runtime.NumCPU() workers. Files that fail to load are logged
// and reported in the returned error; the other results are still returned.
func ProcessPath(ctx context.Context, logger *zap.Logger, engine *Engine, path string) ([]*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		if !hasDesiredExtension(path) {
			return nil, nil
		}
		result, err := engine.Run(path)
		if err != nil {
			return nil, err
		}
		return []*Result{result}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && hasDesiredExtension(filePath) {
			files = append(files, filePath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking %s: %w", path, err)
	}

	type outcome struct {
		result *Result
		err    error
	}
	outcomes := make(chan outcome, len(files))

	// limit the number of workers
	sem := make(chan struct{}, runtime.NumCPU())

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(engine.out),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	started := 0
loop:
	for _, filePath := range files {
		select {
		case <-ctx.Done():
			break loop
		case sem <- struct{}{}:
		}
		started++
		go func(fp string) {
			defer func() { <-sem }()
			result, err := engine.Run(fp)
			if err != nil {
				logger.Error("Error processing file", zap.String("file", fp), zap.Error(err))
			}
			outcomes <- outcome{result, err}
			_ = bar.Add(1)
		}(filePath)
	}

	var results []*Result
	var errs []error
	for range started {
		o := <-outcomes
		if o.err != nil {
			errs = append(errs, o.err)
			continue
		}
		results = append(results, o.result)
	}
	_ = bar.Finish()
	fmt.Fprintln(engine.out)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, errors.Join(errs...)
}

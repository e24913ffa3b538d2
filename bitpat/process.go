package bitpat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnoswap-labs/bitpat/internal/check"
	"github.com/gnoswap-labs/bitpat/scanner"
)

// Processor handles one file.
type Processor[T any] func(engine Engine, path string) (T, error)

// ProgressOutput receives the progress bar of directory runs. Set it to
// io.Discard to silence it.
var ProgressOutput io.Writer = os.Stderr

// ProcessFiles runs processor over every path. A failing file does not stop
// the others: its error is logged and returned joined with the rest.
func ProcessFiles[T any](
	ctx context.Context,
	logger *zap.Logger,
	engine Engine,
	paths []string,
	processor Processor[T],
) ([]T, error) {
	var (
		all  []T
		errs []error
	)
	for _, path := range paths {
		results, err := ProcessPath(ctx, logger, engine, path, processor)
		all = append(all, results...)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return all, err
			}
			errs = append(errs, err)
		}
	}
	return all, errors.Join(errs...)
}

// ProcessPath runs processor over a file, or over every .go file below a
// directory using one worker per CPU. Results keep the lexical order of
// the files.
func ProcessPath[T any](
	ctx context.Context,
	logger *zap.Logger,
	engine Engine,
	path string,
	processor Processor[T],
) ([]T, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}
	if !info.IsDir() {
		res, err := processor(engine, path)
		if err != nil {
			logger.Error("Error processing file", zap.String("file", path), zap.Error(err))
			return nil, err
		}
		return []T{res}, nil
	}

	files, err := scanner.New(path, ".go").Skip(engine.IsOutput).Scan()
	if err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", path, err)
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(ProgressOutput),
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

	var (
		results = make([]T, len(files))
		done    = make([]bool, len(files))
		errs    = make([]error, len(files))
		g       errgroup.Group
	)
	g.SetLimit(runtime.NumCPU())

	var cancelled error
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		g.Go(func() error {
			defer bar.Add(1)
			res, err := processor(engine, file.Path)
			if err != nil {
				logger.Error("Error processing file", zap.String("file", file.Path), zap.Error(err))
				errs[i] = err
				return nil
			}
			results[i], done[i] = res, true
			return nil
		})
	}
	_ = g.Wait()
	_ = bar.Finish()

	out := make([]T, 0, len(files))
	for i := range results {
		if done[i] {
			out = append(out, results[i])
		}
	}
	if cancelled != nil {
		return out, cancelled
	}
	return out, errors.Join(errs...)
}

// CheckFile reports the problems of a file without rewriting it.
func CheckFile(_ Engine, path string) ([]Issue, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return check.Run(path, src)
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/bitpat/bitpat"
)

var (
	dryRun  bool
	inPlace bool
	watch   bool
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [paths...]",
	Short: "Rewrite //bitpat:match switches into integer switches",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		config := loadConfig()
		config.DryRun = dryRun
		config.InPlace = inPlace

		engine, err := bitpat.New(config, logger)
		if err != nil {
			logger.Fatal("Failed to initialize engine", zap.Error(err))
		}

		if watch {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := runWatch(ctx, logger, engine, args); err != nil {
				logger.Error("Error watching paths", zap.Error(err))
				os.Exit(1)
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := runRewrite(ctx, logger, engine, args, cmd.OutOrStdout()); err != nil {
			os.Exit(1)
		}
	},
}

func init() {
	rewriteCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the rewritten files instead of writing them")
	rewriteCmd.Flags().BoolVar(&inPlace, "in-place", false, "Rewrite the input files themselves")
	rewriteCmd.Flags().BoolVar(&watch, "watch", false, "Rewrite files again whenever they change")
}

func runRewrite(ctx context.Context, logger *zap.Logger, engine bitpat.Engine, paths []string, w io.Writer) error {
	results, err := bitpat.ProcessFiles(ctx, logger, engine, paths, bitpat.ProcessFile)
	printSummary(w, results)
	if err != nil {
		logger.Error("Error processing files", zap.Error(err))
	}
	return err
}

func printSummary(w io.Writer, results []bitpat.Result) {
	var files, switches, cached int
	for _, res := range results {
		if res.Switches == 0 {
			continue
		}
		files++
		switches += res.Switches
		if res.Cached {
			cached++
		}
	}
	fmt.Fprintf(w, "rewrote %d switches in %d files", switches, files)
	if cached > 0 {
		fmt.Fprintf(w, " (%d unchanged)", cached)
	}
	fmt.Fprintln(w)
}

// watcher is the part of the engine runWatch drives.
type watcher interface {
	StartWatching(dirs []string, report func(bitpat.Result, error)) error
	StopWatching() error
}

// runWatch watches the directories of paths until ctx is done.
func runWatch(ctx context.Context, logger *zap.Logger, w watcher, paths []string) error {
	dirs, err := watchDirs(paths)
	if err != nil {
		return err
	}

	err = w.StartWatching(dirs, func(res bitpat.Result, err error) {
		if err != nil {
			logger.Error("Error processing file", zap.String("file", res.Input), zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	logger.Info("Watching for changes", zap.Strings("dirs", dirs))

	<-ctx.Done()
	return w.StopWatching()
}

// watchDirs maps every path to the directory to watch, without duplicates.
func watchDirs(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing %s: %w", path, err)
		}
		dir := path
		if !info.IsDir() {
			dir = filepath.Dir(path)
		}
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

package cmd

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/bitpat/bitpat"
	"github.com/gnoswap-labs/bitpat/internal/gen"
	"github.com/gnoswap-labs/bitpat/internal/pattern"
)

var genOutput string

var genCmd = &cobra.Command{
	Use:   "gen [flags] table.yaml",
	Short: "Generate decoder functions from a table of bit patterns",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runGen(logger, loadConfig(), args[0], genOutput, cmd.OutOrStdout()); err != nil {
			logger.Error("Failed to generate decoders", zap.String("table", args[0]), zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	genCmd.Flags().StringVarP(&genOutput, "output", "o", "", "Output file (stdout when empty)")
}

func runGen(logger *zap.Logger, config bitpat.Config, table, output string, w io.Writer) error {
	spec, err := gen.LoadSpec(table)
	if err != nil {
		return err
	}
	base, err := pattern.ParseBase(config.LiteralBase)
	if err != nil {
		return err
	}

	g := gen.New(spec, gen.Options{
		Base:            base,
		MaxAlternatives: config.MaxAlternatives,
		Source:          filepath.Base(table),
	}, logger)
	if output == "" {
		return g.Render(w)
	}
	if err := g.Save(output); err != nil {
		return err
	}
	logger.Info("Generated decoders", zap.String("output", output), zap.Int("decoders", len(spec.Decoders)))
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/bitpat/bitpat"
	"github.com/gnoswap-labs/bitpat/internal"
)

// initCmd: bitpat init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Run: func(cmd *cobra.Command, args []string) {
		if err := initConfigurationFile(cfgFile); err != nil {
			logger.Error("Error initializing config file", zap.Error(err))
			os.Exit(1)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created/updated: %s\n", cfgFile)
	},
}

// initConfigurationFile writes the defaults, named after the enclosing
// module when there is one.
func initConfigurationFile(configurationPath string) error {
	if configurationPath == "" {
		configurationPath = bitpat.DefaultConfigFile
	}

	config := bitpat.DefaultConfig()
	if wd, err := os.Getwd(); err == nil {
		if gomod := internal.FindGoMod(wd); gomod != "" {
			if path, err := internal.ModulePath(gomod); err == nil && path != "" {
				config.Name = path
			}
		}
	}

	return bitpat.WriteConfig(configurationPath, config)
}

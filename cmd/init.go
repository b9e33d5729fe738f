package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnoswap-labs/defeq/engine"
)

// initCmd: defeq init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfigurationFile(cfgFile); err != nil {
			return fmt.Errorf("error initializing config file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created/updated: %s\n", cfgFile)
		return nil
	},
}

// initConfigurationFile writes the default configuration, which lists every
// problem kind so that users can see what there is to tune.
func initConfigurationFile(configurationPath string) error {
	if configurationPath == "" {
		configurationPath = engine.DefaultConfigFile
	}
	return engine.WriteConfigurationFile(configurationPath, engine.DefaultConfig())
}

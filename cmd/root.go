package cmd

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/defeq/engine"
)

const defaultTimeout = 5 * time.Minute

var (
	cfgFile string
	timeout time.Duration
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:              "defeq [paths...]",
	Short:            "defeq - solve universe level constraints and inspect the equality checker",
	TraverseChildren: true, // Prioritize subcommands
	SilenceUsage:     true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		return err
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// RunE is attached here rather than in the rootCmd literal to avoid an
	// initialization cycle (rootCmd -> levelsCmd -> newEngine -> rootCmd).
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		// display help when only 'defeq' is entered
		if len(args) == 0 {
			return cmd.Help()
		}
		// Format: defeq [path1 path2 ...] => behaves like the levels subcommand
		return levelsCmd.RunE(levelsCmd, args)
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", engine.DefaultConfigFile, "Path to the configuration file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", defaultTimeout, "Timeout for solving a batch of fixtures")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable development logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(levelsCmd)
}

// newEngine loads the configuration. A missing default configuration file
// falls back to the built-in defaults; an explicitly requested one must
// exist.
func newEngine(opts ...engine.Option) (*engine.Engine, error) {
	path := cfgFile
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !rootCmd.PersistentFlags().Changed("config") {
		path = ""
	}
	return engine.New(path, logger, opts...)
}

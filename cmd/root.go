package cmd

import (
	"fmt"
	"os"

	"github.com/example/classpick/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "classpick",
		Short:         "Log in to the class registration portal and grab seats as soon as they open",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "", "operational log level (debug, info, warn, error, disabled)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newKeysCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newCredsCmd())
	root.AddCommand(newHistoryCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig binds the named flags of cmd to config keys and loads the
// merged configuration.
func loadConfig(cmd *cobra.Command, flags map[string]string) (config.Config, error) {
	v := viper.New()
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		if err := v.BindPFlag("log.level", f); err != nil {
			return config.Config{}, err
		}
	}
	for key, name := range flags {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			return config.Config{}, fmt.Errorf("unknown flag %q", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return config.Config{}, err
		}
	}
	return config.Load(v)
}

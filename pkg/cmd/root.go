package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/shelfpkg/shelf/pkg/config"
	"github.com/spf13/cobra"
)

var (
	flagVerbose bool

	// DevCfg holds the resolved developer configuration, available to all
	// subcommands after PersistentPreRunE completes.
	DevCfg *config.DevConfig
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shelf",
		Short: "Git-backed package manager",
		Long:  "shelf resolves versioned packages out of git repositories and keeps them in a local store.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDevConfig(flagVerbose)
			if err != nil {
				return err
			}
			DevCfg = cfg
			if cfg.Verbose {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	root.PersistentFlags().Bool("global", false, "operate on the global manifest in ~/.shelf")

	root.AddCommand(newInitCmd())
	root.AddCommand(newInstallCmd())
	root.AddCommand(newRemoveCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

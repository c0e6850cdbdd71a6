package cmd

import (
	"github.com/spf13/cobra"

	"SwiftBackuper/internal/config"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	if msg := config.KeepWarning(cfg.KeepRelease); msg != "" {
		cmd.PrintErrln("Warning:", msg)
	}
	for _, j := range cfg.Jobs {
		if j.KeepRelease < 0 {
			cmd.PrintErrf("Warning: job %s: %s\n", j.Name, config.KeepWarning(j.KeepRelease))
		}
	}
	cmd.Printf("%s: OK (%s, container %q, %d job(s))\n", config.ResolveConfigPath(), cfg.Storage.Provider, cfg.Storage.Container, len(cfg.Jobs))
	return nil
}

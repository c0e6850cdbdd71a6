package cmd

import (
	"github.com/spf13/cobra"

	"SwiftBackuper/internal/config"
)

var (
	configPathFlag string
	verboseFlag    bool
)

var rootCmd = &cobra.Command{
	Use:           "swiftbackuper",
	Short:         "Archive directories to OpenStack Swift or S3 and keep the last N releases",
	Long:          "SwiftBackuper archives a directory as tar.gz, uploads it to an object storage container (OpenStack Swift or S3-compatible) and deletes older archives of the same job beyond keep_release.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configPathFlag != "" {
			config.SetConfigPath(configPathFlag)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPathFlag, "config", "c", "", "Config file (default $"+config.EnvConfigPath+" or "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Debug logging and upload progress")
}

func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"SwiftBackuper/internal/config"
)

func init() {
	rootCmd.AddCommand(enableCmd)
	enableCmd.AddCommand(enableJobCmd)
}

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable a job",
}

var enableJobCmd = &cobra.Command{
	Use:   "job [name]",
	Short: "Enable a job by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setJobEnabled(cmd, args[0], true)
	},
}

func setJobEnabled(cmd *cobra.Command, jobName string, enabled bool) error {
	cfg, err := loadConfigForEdit()
	if err != nil {
		return err
	}
	job := cfg.FindJob(jobName)
	if job == nil {
		return fmt.Errorf("job %q not found", jobName)
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	if job.Enabled == enabled {
		cmd.Printf("Job %q already %s\n", jobName, state)
		return nil
	}
	job.Enabled = enabled
	path := config.ResolveConfigPath()
	if err := config.Write(cfg, path); err != nil {
		return err
	}
	cmd.Printf("Job %q %s\n", jobName, state)
	return nil
}

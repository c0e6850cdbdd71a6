package cmd

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"SwiftBackuper/internal/systemd"
)

var uninstallSystemdUnitDir string

func init() {
	rootCmd.AddCommand(uninstallSystemdCmd)
	uninstallSystemdCmd.Flags().StringVar(&uninstallSystemdUnitDir, "unit-dir", systemd.DefaultUnitDir, "Directory for systemd unit files")
}

var uninstallSystemdCmd = &cobra.Command{
	Use:   "uninstall-systemd",
	Short: "Remove systemd service and timer units",
	RunE:  runUninstallSystemd,
}

func runUninstallSystemd(cmd *cobra.Command, args []string) error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("uninstall-systemd is only supported on Linux")
	}

	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	var removed int
	for _, job := range cfg.Jobs {
		timer := systemd.UnitName(job.Name) + ".timer"
		_ = exec.Command("systemctl", "disable", "--now", timer).Run()

		paths, err := systemd.Remove(uninstallSystemdUnitDir, job.Name)
		if err != nil {
			return err
		}
		for _, p := range paths {
			cmd.Printf("Removed %s\n", p)
		}
		removed += len(paths)
	}

	if orphans, err := systemd.Installed(uninstallSystemdUnitDir); err == nil && len(orphans) > 0 {
		cmd.Printf("Units without a matching job were left in place: %v\n", orphans)
	}

	if removed == 0 {
		cmd.Println("No units to uninstall")
		return nil
	}
	if err := exec.Command("systemctl", "daemon-reload").Run(); err != nil {
		return fmt.Errorf("systemctl daemon-reload: %w", err)
	}
	cmd.Println("Reloaded systemd daemon")
	return nil
}

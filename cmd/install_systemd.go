package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"SwiftBackuper/internal/config"
	"SwiftBackuper/internal/schedule"
	"SwiftBackuper/internal/systemd"
)

var (
	installSystemdUnitDir string
	installSystemdBinary  string
	installSystemdJob     string
	installSystemdNoHard  bool
	installSystemdNoStart bool
)

func init() {
	rootCmd.AddCommand(installSystemdCmd)
	installSystemdCmd.Flags().StringVar(&installSystemdUnitDir, "unit-dir", systemd.DefaultUnitDir, "Directory for systemd unit files")
	installSystemdCmd.Flags().StringVar(&installSystemdBinary, "binary", "", "Path to the swiftbackuper binary (default: the running executable)")
	installSystemdCmd.Flags().StringVar(&installSystemdJob, "job", "", "Install only this job")
	installSystemdCmd.Flags().BoolVar(&installSystemdNoHard, "no-hardening", false, "Omit sandboxing directives from the service unit")
	installSystemdCmd.Flags().BoolVar(&installSystemdNoStart, "no-start", false, "Write units without reloading systemd or enabling timers")
}

var installSystemdCmd = &cobra.Command{
	Use:   "install-systemd",
	Short: "Install systemd service and timer units for scheduled jobs",
	RunE:  runInstallSystemd,
}

func runInstallSystemd(cmd *cobra.Command, args []string) error {
	if runtime.GOOS != "linux" && !installSystemdNoStart {
		return fmt.Errorf("install-systemd is only supported on Linux")
	}

	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	binary := installSystemdBinary
	if binary == "" {
		if exe, err := os.Executable(); err == nil {
			binary = exe
		}
	}
	configPath, err := filepath.Abs(config.ResolveConfigPath())
	if err != nil {
		return err
	}
	opts := systemd.GeneratorOptions{
		Binary:        binary,
		ConfigPath:    configPath,
		WritablePaths: []string{cfg.TmpPath, cfg.LockDir},
		Hardening:     !installSystemdNoHard,
	}
	if cfg.Logging.File != "" {
		opts.WritablePaths = append(opts.WritablePaths, filepath.Dir(cfg.Logging.File))
	}

	if err := os.MkdirAll(installSystemdUnitDir, 0755); err != nil {
		return fmt.Errorf("create unit dir: %w", err)
	}

	var timers []string
	for _, job := range cfg.Jobs {
		if installSystemdJob != "" && job.Name != installSystemdJob {
			continue
		}
		if !job.Enabled || job.Schedule == nil {
			continue
		}
		units, err := systemd.Generate(job, opts)
		if err != nil {
			return err
		}
		written, err := systemd.Write(installSystemdUnitDir, units)
		if err != nil {
			return err
		}
		for _, p := range written {
			cmd.Printf("Wrote %s\n", p)
		}
		cmd.Printf("  %s: %s\n", job.Name, schedule.Describe(job.Schedule))
		timers = append(timers, units.Name+".timer")
	}

	if len(timers) == 0 {
		if installSystemdJob != "" {
			return fmt.Errorf("job %q not found, disabled, or has no schedule", installSystemdJob)
		}
		cmd.Println("No enabled jobs with a schedule")
		return nil
	}
	if installSystemdNoStart {
		return nil
	}

	if out, err := exec.Command("systemctl", "daemon-reload").CombinedOutput(); err != nil {
		return fmt.Errorf("systemctl daemon-reload: %w: %s", err, out)
	}
	for _, timer := range timers {
		if out, err := exec.Command("systemctl", "enable", "--now", timer).CombinedOutput(); err != nil {
			return fmt.Errorf("systemctl enable %s: %w: %s", timer, err, out)
		}
		cmd.Printf("Enabled %s\n", timer)
	}
	return nil
}

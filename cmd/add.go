package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"SwiftBackuper/internal/config"
)

var (
	addJobTemplate string
	addJobName     string
	addJobSource   string
	addJobKeep     int
)

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.AddCommand(addJobCmd)
	addJobCmd.Flags().StringVar(&addJobTemplate, "template", "", "Schedule template: "+strings.Join(config.JobTemplateNames(), ", "))
	addJobCmd.Flags().StringVar(&addJobName, "name", "", "Job name (used as the archive name prefix)")
	addJobCmd.Flags().StringVar(&addJobSource, "source", "", "Directory to back up")
	addJobCmd.Flags().IntVar(&addJobKeep, "keep", 0, "Per-job keep_release (0 uses the global value)")
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a resource",
}

var addJobCmd = &cobra.Command{
	Use:   "job",
	Short: "Add a new job (interactive, or with --name --source [--template])",
	RunE:  runAddJob,
}

func runAddJob(cmd *cobra.Command, args []string) error {
	if addJobName != "" || addJobSource != "" {
		return runAddJobFlags(cmd)
	}
	return runAddJobInteractive(cmd)
}

func runAddJobFlags(cmd *cobra.Command) error {
	if addJobName == "" || addJobSource == "" {
		return fmt.Errorf("--name and --source are both required")
	}
	tpl := addJobTemplate
	if tpl == "" {
		tpl = "daily"
	}
	job := config.JobTemplate(tpl, addJobName, addJobSource)
	if job == nil {
		return fmt.Errorf("unknown template %q (use: %s)", tpl, strings.Join(config.JobTemplateNames(), ", "))
	}
	if addJobKeep != 0 {
		job.KeepRelease = addJobKeep
	}
	return addJobToConfig(cmd, job)
}

func runAddJobInteractive(cmd *cobra.Command) error {
	reader := bufio.NewReader(os.Stdin)
	jobName := prompt(reader, "Job name", "www")
	if jobName == "" {
		return fmt.Errorf("job name is required")
	}
	source := prompt(reader, "Directory to back up", "/var/www")
	cmd.Printf("Available templates: %s\n", strings.Join(config.JobTemplateNames(), ", "))
	tpl := strings.ToLower(prompt(reader, "Template", "daily"))
	job := config.JobTemplate(tpl, jobName, source)
	if job == nil {
		return fmt.Errorf("unknown template %q", tpl)
	}
	return addJobToConfig(cmd, job)
}

func addJobToConfig(cmd *cobra.Command, job *config.JobConfig) error {
	cfg, err := loadConfigForEdit()
	if err != nil {
		return err
	}
	if cfg.FindJob(job.Name) != nil {
		return fmt.Errorf("job %q already exists", job.Name)
	}
	cfg.Jobs = append(cfg.Jobs, *job)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	path := config.ResolveConfigPath()
	if err := config.Write(cfg, path); err != nil {
		return err
	}
	cmd.Printf("Job %q added\n", job.Name)
	if job.Schedule != nil {
		cmd.Println("Run install-systemd to schedule it")
	}
	return nil
}

func loadConfigForEdit() (*config.Config, error) {
	v, err := config.Load(false)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Unmarshal(v)
	if err != nil {
		return nil, err
	}
	return cfg, config.Validate(cfg)
}

func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := reader.ReadString('\n')
	s := strings.TrimSpace(strings.TrimSuffix(line, "\n"))
	if s == "" && defaultVal != "" {
		return defaultVal
	}
	return s
}

func confirm(reader *bufio.Reader, label string, current bool) bool {
	def := "y/N"
	if current {
		def = "Y/n"
	}
	fmt.Printf("%s [%s]: ", label, def)
	line, _ := reader.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return current
	}
}

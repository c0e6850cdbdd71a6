package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	pruneJob    string
	pruneDryRun bool
	pruneConc   int
)

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().StringVar(&pruneJob, "job", "", "Job name (required)")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "Show what would be deleted")
	pruneCmd.Flags().IntVar(&pruneConc, "concurrency", 0, "Parallel deletes (0 uses delete_concurrency)")
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply keep_release to a job's archives without running a backup",
	RunE:  runPrune,
}

func runPrune(cmd *cobra.Command, args []string) error {
	if pruneJob == "" {
		return fmt.Errorf("--job is required")
	}
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	o, err := jobOrchestrator(cmd.Context(), cfg, pruneJob, log, concurrencyOption(pruneConc)...)
	if err != nil {
		return err
	}

	if pruneDryRun {
		candidates, err := o.PruneCandidates(cmd.Context())
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			cmd.Println("Nothing to prune")
			return nil
		}
		for _, c := range candidates {
			cmd.Printf("would delete %s\n", c.Name)
		}
		return nil
	}

	deleted, err := o.Prune(cmd.Context())
	if err != nil {
		return err
	}
	if len(deleted) == 0 {
		cmd.Println("Nothing to prune")
		return nil
	}
	for _, d := range deleted {
		cmd.Printf("deleted %s\n", d.Name)
	}
	return nil
}

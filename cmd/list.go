package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var listJob string

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listJob, "job", "", "Job name (required)")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List a job's archives in the container, oldest first",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	if listJob == "" {
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
	o, err := jobOrchestrator(cmd.Context(), cfg, listJob, log)
	if err != nil {
		return err
	}
	objs, err := o.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(objs) == 0 {
		cmd.Printf("No archives for job %q in container %q\n", listJob, cfg.Storage.Container)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
	var total int64
	for _, obj := range objs {
		modified := "-"
		if !obj.LastModified.IsZero() {
			modified = obj.LastModified.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", obj.Name, humanize.IBytes(uint64(obj.Size)), modified)
		total += obj.Size
	}
	if err := w.Flush(); err != nil {
		return err
	}
	cmd.Printf("%d archive(s), %s total, keep_release=%d\n", len(objs), humanize.IBytes(uint64(total)), o.Keep())
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"SwiftBackuper/internal/blobstore"
	"SwiftBackuper/internal/config"
	"SwiftBackuper/internal/schedule"
)

var statusRemote bool

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusRemote, "remote", true, "Query the container for each job's newest archive")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show each job's state, schedule, next run and newest archive",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	if len(cfg.Jobs) == 0 {
		cmd.Println("No jobs configured")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tSTATE\tKEEP\tSCHEDULE\tNEXT RUN\tARCHIVES\tNEWEST")
	for _, j := range cfg.Jobs {
		state := "disabled"
		if j.Enabled {
			state = "enabled"
		}
		keep := config.EffectiveKeep(cfg.ForJob(j).KeepRelease)

		next := "-"
		if j.Enabled {
			if t, ok := schedule.NextRun(j.Schedule, now); ok {
				next = fmt.Sprintf("%s (%s)", t.Format("2006-01-02 15:04"), humanize.RelTime(t, now, "ago", "from now"))
			}
		}

		count, newest := "-", "-"
		if statusRemote {
			n, last, err := newestArchive(cmd.Context(), cfg, j.Name, log)
			if err != nil {
				newest = "error: " + err.Error()
			} else {
				count = fmt.Sprintf("%d", n)
				if last != nil {
					newest = fmt.Sprintf("%s (%s)", last.Name, humanize.IBytes(uint64(last.Size)))
				}
			}
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n", j.Name, state, keep, schedule.Describe(j.Schedule), next, count, newest)
	}
	return w.Flush()
}

func newestArchive(ctx context.Context, cfg *config.Config, job string, log zerolog.Logger) (int, *blobstore.Object, error) {
	o, err := jobOrchestrator(ctx, cfg, job, log)
	if err != nil {
		return 0, nil, err
	}
	objs, err := o.List(ctx)
	if err != nil {
		return 0, nil, err
	}
	if len(objs) == 0 {
		return 0, nil, nil
	}
	return len(objs), &objs[len(objs)-1], nil
}

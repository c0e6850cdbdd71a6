package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"SwiftBackuper/internal/blobstore"
	"SwiftBackuper/internal/config"
	archiveEngine "SwiftBackuper/internal/engine/archive"
	"SwiftBackuper/internal/lock"
	"SwiftBackuper/internal/notifier"
)

var (
	runJob    string
	runAll    bool
	runName   string
	runSource string
	runKeep   int
	runConc   int
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runJob, "job", "", "Run only this job by name")
	runCmd.Flags().BoolVar(&runAll, "all", false, "Run all enabled jobs")
	runCmd.Flags().StringVar(&runName, "name", "", "Ad-hoc run: backup name (with --source)")
	runCmd.Flags().StringVar(&runSource, "source", "", "Ad-hoc run: directory to archive (with --name)")
	runCmd.Flags().IntVar(&runKeep, "keep", 0, "Ad-hoc run: override keep_release")
	runCmd.Flags().IntVar(&runConc, "concurrency", 0, "Parallel deletes during the sweep (0 uses delete_concurrency)")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Archive, upload and prune (one job, all jobs, or an ad-hoc directory)",
	Long:  "Run the backup for --job <name>, for every enabled job with --all, or for an ad-hoc directory with --name and --source. Each run holds a per-job lock in lock_dir.",
	RunE:  runRun,
}

type runTarget struct {
	name   string
	source string
	cfg    config.Config
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adHoc := runName != "" || runSource != ""
	cfg, err := loadConfig(!adHoc)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	targets, err := selectTargets(cfg, adHoc)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		cmd.Println("No enabled jobs to run")
		return nil
	}

	notif := notifierFromConfig(cfg, log)
	for i, t := range targets {
		cmd.Printf("[%d/%d] Running job %q ...\n", i+1, len(targets), t.name)
		start := time.Now()
		obj, err := executeTarget(ctx, t, notif, log)
		duration := time.Since(start).Round(time.Second)
		if err != nil {
			cmd.Printf("  Failed after %s: %v\n", duration, err)
			return err
		}
		cmd.Printf("  OK in %s: %s (%s)\n", duration, obj.Name, humanize.IBytes(uint64(obj.Size)))
	}
	if len(targets) > 1 {
		cmd.Println("All jobs completed successfully.")
	}
	return nil
}

func selectTargets(cfg *config.Config, adHoc bool) ([]runTarget, error) {
	switch {
	case adHoc:
		if runJob != "" || runAll {
			return nil, fmt.Errorf("--name/--source cannot be combined with --job or --all")
		}
		if runName == "" || runSource == "" {
			return nil, fmt.Errorf("ad-hoc runs need both --name and --source")
		}
		c := *cfg
		c.Jobs = nil
		if runKeep != 0 {
			c.KeepRelease = runKeep
		}
		return []runTarget{{name: runName, source: runSource, cfg: c}}, nil

	case runAll:
		var out []runTarget
		for _, j := range cfg.Jobs {
			if j.Enabled {
				out = append(out, runTarget{name: j.Name, source: j.Source, cfg: cfg.ForJob(j)})
			}
		}
		return out, nil

	case runJob != "":
		j := cfg.FindJob(runJob)
		if j == nil {
			return nil, fmt.Errorf("job %q not found", runJob)
		}
		if !j.Enabled {
			return nil, fmt.Errorf("job %q is disabled", runJob)
		}
		return []runTarget{{name: j.Name, source: j.Source, cfg: cfg.ForJob(*j)}}, nil

	default:
		return nil, fmt.Errorf("specify --job <name>, --all, or --name with --source")
	}
}

func executeTarget(ctx context.Context, t runTarget, notif notifier.Notifier, log zerolog.Logger) (blobstore.Object, error) {
	var pruned int
	opts := append(concurrencyOption(runConc),
		archiveEngine.WithPruneHook(func(deleted []blobstore.Object, retained int) {
			pruned = len(deleted)
			warnNotify(log, "prune", notif.NotifyPrune(ctx, t.name, blobstore.Names(deleted), retained))
		}),
	)
	o, err := newOrchestrator(ctx, &t.cfg, t.name, t.source, log, opts...)
	if err != nil {
		return blobstore.Object{}, err
	}

	locker, err := lock.NewLocal(lock.LocalOptions{Dir: t.cfg.LockDir, Name: t.name})
	if err != nil {
		return blobstore.Object{}, err
	}

	var obj blobstore.Object
	err = lock.Do(ctx, locker, func() error {
		warnNotify(log, "start", notif.NotifyStart(ctx, t.name))
		start := time.Now()
		var runErr error
		obj, runErr = o.Run(ctx)
		if runErr != nil {
			warnNotify(log, "error", notif.NotifyError(ctx, t.name, runErr))
			return runErr
		}
		warnNotify(log, "success", notif.NotifySuccess(ctx, t.name, obj, time.Since(start), pruned))
		return nil
	})
	return obj, err
}

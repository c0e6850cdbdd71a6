package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"SwiftBackuper/internal/blobstore"
	"SwiftBackuper/internal/config"
	"SwiftBackuper/internal/doctor"
	"SwiftBackuper/internal/provider"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose config, storage connectivity, tmp path, locks and job sources",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	v, err := config.Load(true)
	if err != nil {
		cmd.Printf("Config load: ERROR: %v\n", err)
		return err
	}
	cfg, err := config.Unmarshal(v)
	if err != nil {
		cmd.Printf("Config unmarshal: ERROR: %v\n", err)
		return err
	}
	if err := config.Validate(cfg); err != nil {
		cmd.Printf("Config validate: ERROR: %v\n", err)
		return err
	}

	newStore := func(ctx context.Context, sc config.StorageConfig) (blobstore.Store, error) {
		return provider.NewStore(ctx, sc)
	}
	results := doctor.Run(cmd.Context(), cfg, newStore)
	allOK := true
	for _, r := range results {
		status := "OK"
		if !r.OK {
			status = "ERROR"
			allOK = false
		}
		cmd.Printf("%-12s %s: %s\n", r.Name, status, r.Detail)
	}
	if !allOK {
		return fmt.Errorf("one or more checks failed; see output above")
	}
	return nil
}

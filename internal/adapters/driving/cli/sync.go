package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/7and1/difyrun/internal/core/domain"
	"github.com/7and1/difyrun/internal/core/ports/driving"
)

var syncCmd = &cobra.Command{
	Use:   "sync [source-id]",
	Short: "Synchronise workflows from configured sources",
	Long: `Triggers workflow synchronisation from configured GitHub sources.
If a source ID is provided, only that source is synchronised.
Otherwise, all active sources are synchronised in weight order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if catalogSyncer == nil {
		return errors.New("sync service not configured")
	}

	ctx := context.Background()

	if len(args) > 0 {
		sourceID := args[0]
		cmd.Printf("Synchronising source: %s...\n", sourceID)

		result, err := syncWithProgress(ctx, cmd, catalogSyncer, sourceID)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		printSyncResult(cmd, result)
		return nil
	}

	cmd.Println("Synchronising all sources...")

	result, err := catalogSyncer.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printSyncResult(cmd, result)
	return nil
}

// syncWithProgress runs a single-source sync while displaying progress
// updates.
func syncWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	syncer driving.CatalogSyncer,
	sourceID string,
) (*domain.SyncResult, error) {
	type syncOutcome struct {
		result *domain.SyncResult
		err    error
	}

	// Start sync in goroutine
	outCh := make(chan syncOutcome, 1)
	go func() {
		result, err := syncer.SyncOne(ctx, sourceID)
		outCh <- syncOutcome{result: result, err: err}
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case out := <-outCh:
			if lastCount > 0 {
				cmd.Println()
			}
			return out.result, out.err
		case <-ticker.C:
			// Check progress (ignore status error - best effort)
			status, statusErr := syncer.Status(ctx, sourceID)
			if statusErr == nil && status != nil && status.FilesProcessed > lastCount {
				cmd.Printf("\rProcessing... %d files", status.FilesProcessed)
				lastCount = status.FilesProcessed
			}
		}
	}
}

func printSyncResult(cmd *cobra.Command, result *domain.SyncResult) {
	cmd.Printf("Added %d, updated %d, unchanged %d", result.Added, result.Updated, result.Unchanged)
	if result.Deleted > 0 {
		cmd.Printf(", pruned %d", result.Deleted)
	}
	if result.Errors > 0 {
		cmd.Printf(", %d errors", result.Errors)
	}
	cmd.Printf(" in %s.\n", result.Duration.Round(time.Millisecond))

	if !result.Success {
		cmd.Println("One or more sources failed; see source status for details.")
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync periodically and react to sources file edits",
	Long: `Runs difyrun as a long-lived process: all sources are synchronised
immediately, then again on a fixed interval. Edits to the sources file
are picked up without a restart and trigger an out-of-band sync.

Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if catalogScheduler == nil {
		return errors.New("scheduler not configured")
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if watchSources != nil {
		go watchSources(ctx)
	}

	cmd.Println("Watching sources; press Ctrl-C to stop.")

	if err := catalogScheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler stopped: %w", err)
	}

	if err := catalogScheduler.Stop(); err != nil {
		return fmt.Errorf("scheduler shutdown: %w", err)
	}

	cmd.Println("Stopped.")
	return nil
}

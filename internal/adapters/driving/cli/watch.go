package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/adapters/driving/watch"
)

var watchSettle time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Auto-ingest documents dropped into a directory",
	Long: `Watches a directory and uploads every document created or modified in
it into the session. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watch.DefaultSettle,
		"quiet period before a changed file is ingested")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := watch.New(ingestService, sessionID, args[0], watch.WithSettle(watchSettle))

	cmd.Printf("Watching %s (session %q). Press Ctrl+C to stop.\n", args[0], sessionID)
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

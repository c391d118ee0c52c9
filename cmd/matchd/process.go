package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var processBatch int

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run one processing cycle and exit",
	Long:  `Enqueue due work (resume embeddings, featured-job matching) and drain one batch of pending tasks, then exit. Useful for cron-less deployments and manual reruns.`,
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().IntVar(&processBatch, "batch", 0, "Batch size (overrides QUEUE_BATCH_SIZE)")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// The flag wins over the environment; set it before the app wires the
	// scheduler, which captures the batch size at construction.
	if processBatch > 0 {
		if err := os.Setenv("QUEUE_BATCH_SIZE", strconv.Itoa(processBatch)); err != nil {
			return err
		}
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.queue.ReclaimStale(ctx, a.cfg.ClaimTimeout); err != nil {
		return err
	}

	a.scheduler.RunProcessing(ctx)
	return nil
}

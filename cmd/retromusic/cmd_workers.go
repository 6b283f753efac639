package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/retromusic/storefront/pkg/logger"
)

var queueWorkersFlag int

// retromusic queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Start the queue worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		c, err := boot(ctx)
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		if !strings.EqualFold(c.Settings.Queue.Driver, "redis") {
			logger.Warn("queue:work: the memory driver only sees jobs pushed by this process; set QUEUE_DRIVER=redis")
		}

		workers := queueWorkersFlag
		if workers < 1 {
			workers = c.Settings.Queue.Workers
		}

		fmt.Printf("Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		c.Queue.Start(ctx, workers)

		<-ctx.Done()
		c.Queue.Wait()
		fmt.Println("Queue worker stopped.")
		return nil
	},
}

// retromusic schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Start the task scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		c, err := boot(ctx)
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		scheduler := c.Scheduler()
		fmt.Println("Registered scheduled tasks:")
		for _, t := range scheduler.List() {
			fmt.Println("  •", t)
		}

		fmt.Println("Scheduler started. Press Ctrl+C to stop.")
		scheduler.Start(ctx)

		<-ctx.Done()
		scheduler.Wait()
		fmt.Println("Scheduler stopped.")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 0, "number of concurrent workers (0: QUEUE_WORKERS)")
}

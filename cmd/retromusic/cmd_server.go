package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/retromusic/storefront/app/providers"
	"github.com/retromusic/storefront/pkg/logger"
	"github.com/retromusic/storefront/pkg/migration"
)

var (
	serveWorkersFlag  int
	serveScheduleFlag bool
	serveMigrateFlag  bool
)

// retromusic serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server with in-process queue workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		c, err := boot(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := c.Close(); err != nil {
				logger.Error("serve: close", "error", err)
			}
		}()

		if serveMigrateFlag {
			if err := migration.New(c.DB, os.Stdout).Run(); err != nil && !errors.Is(err, migration.ErrNoMigrations) {
				return err
			}
		}

		workers := serveWorkersFlag
		if workers < 0 {
			workers = c.Settings.Queue.Workers
		}
		if workers > 0 {
			c.Queue.Start(ctx, workers)
		}

		scheduler := c.Scheduler()
		if serveScheduleFlag {
			scheduler.Start(ctx)
		}

		err = c.Application().Serve(ctx)
		stop()

		c.Queue.Wait()
		scheduler.Wait()
		return err
	},
}

// retromusic route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		c, err := providers.Wire(s, nil, nil, nil)
		if err != nil {
			return fmt.Errorf("route:list: %w", err)
		}
		return c.Application().WriteRoutes(os.Stdout)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&serveWorkersFlag, "workers", "w", -1, "queue workers to run in-process (-1: QUEUE_WORKERS, 0: none)")
	serveCmd.Flags().BoolVar(&serveScheduleFlag, "schedule", true, "run the maintenance scheduler in-process")
	serveCmd.Flags().BoolVar(&serveMigrateFlag, "migrate", false, "run pending migrations before serving")
}

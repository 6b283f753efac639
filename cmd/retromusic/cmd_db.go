package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/retromusic/storefront/config"
	"github.com/retromusic/storefront/database/seeders"
	"github.com/retromusic/storefront/pkg/database"
	"github.com/retromusic/storefront/pkg/migration"
)

// withDB loads settings, opens the database and closes it after fn.
func withDB(cmd *cobra.Command, fn func(db *gorm.DB, s *config.Settings) error) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	db, err := database.Connect(cmd.Context(), s.Database)
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck
	return fn(db, s)
}

// retromusic migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(db *gorm.DB, _ *config.Settings) error {
			fmt.Println("Running migrations…")
			return migration.New(db, os.Stdout).Run()
		})
	},
}

// retromusic migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(db *gorm.DB, _ *config.Settings) error {
			fmt.Println("Rolling back last batch…")
			return migration.New(db, os.Stdout).Rollback()
		})
	},
}

// retromusic migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(db *gorm.DB, _ *config.Settings) error {
			_, err := migration.New(db, os.Stdout).Status()
			return err
		})
	},
}

// retromusic seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(db *gorm.DB, s *config.Settings) error {
			fmt.Println("Running seeders…")
			return seeders.RunAll(cmd.Context(), db, s, os.Stdout)
		})
	},
}

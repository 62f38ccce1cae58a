package main

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/cargoflow/cargoflow/pkg/configuration"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Run schema migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) > 0 {
				direction = args[0]
			}
			return runMigrate(direction)
		},
	}
	return cmd
}

func runMigrate(direction string) error {
	conf := configuration.Use()

	db, err := sql.Open("pgx", conf.Database.Opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch direction {
	case "up":
		return goose.Up(db, conf.MigrationsDir)
	case "down":
		return goose.Down(db, conf.MigrationsDir)
	case "status":
		return goose.Status(db, conf.MigrationsDir)
	default:
		return fmt.Errorf("unknown migrate direction: %s", direction)
	}
}

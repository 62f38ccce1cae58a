package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/cargoflow/cargoflow/pkg/composables"
	"github.com/cargoflow/cargoflow/pkg/configuration"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cargo-data",
		Short:         "Freight import pipeline tool: import, check, template, migrate",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newTemplateCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// connectCtx binds the pool and the tenant into the context the way the
// service layer expects them.
func connectCtx(ctx context.Context, tenant string) (context.Context, *pgxpool.Pool, error) {
	tenantID, err := uuid.Parse(tenant)
	if err != nil {
		return nil, nil, fmt.Errorf("--tenant must be a UUID: %w", err)
	}

	conf := configuration.Use()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	ctx = composables.WithPool(ctx, pool)
	ctx = composables.WithTenantID(ctx, tenantID)
	return ctx, pool, nil
}

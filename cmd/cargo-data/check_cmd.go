package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cargoflow/cargoflow/pkg/importer"
)

type checkCmdOptions struct {
	tenant  string
	file    string
	variant string
}

func newCheckCmd() *cobra.Command {
	var opts checkCmdOptions

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Parse and resolve a spreadsheet without creating anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.tenant, "tenant", "", "tenant UUID (required)")
	cmd.Flags().StringVar(&opts.file, "file", "", "path to the .xlsx file (required)")
	cmd.Flags().StringVar(&opts.variant, "variant", string(importer.VariantCargo), "import variant: customers or cargo")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runCheck(ctx context.Context, opts checkCmdOptions) error {
	variant, ok := importer.ParseVariant(opts.variant)
	if !ok {
		return fmt.Errorf("unknown variant: %s", opts.variant)
	}

	ctx, pool, err := connectCtx(ctx, opts.tenant)
	if err != nil {
		return err
	}
	defer pool.Close()

	f, err := os.Open(opts.file)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	result, err := newImportService().CheckFile(ctx, info.Name(), info.Size(), f, variant)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, result)
}

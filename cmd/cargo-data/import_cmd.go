package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cargoflow/cargoflow/modules/freight/handlers"
	"github.com/cargoflow/cargoflow/modules/freight/infrastructure/persistence"
	"github.com/cargoflow/cargoflow/modules/freight/services"
	"github.com/cargoflow/cargoflow/pkg/configuration"
	"github.com/cargoflow/cargoflow/pkg/eventbus"
	"github.com/cargoflow/cargoflow/pkg/importer"
)

type importCmdOptions struct {
	tenant  string
	file    string
	variant string
}

func newImportCmd() *cobra.Command {
	var opts importCmdOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a spreadsheet synchronously and print the outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.tenant, "tenant", "", "tenant UUID (required)")
	cmd.Flags().StringVar(&opts.file, "file", "", "path to the .xlsx file (required)")
	cmd.Flags().StringVar(&opts.variant, "variant", string(importer.VariantCargo), "import variant: customers or cargo")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newImportService() *services.ImportService {
	conf := configuration.Use()
	log := appLogger()
	bus := eventbus.NewEventPublisher(log)
	handlers.RegisterCustomerEventHandlers(bus, log)
	return services.NewImportService(
		persistence.NewCustomerRepository(),
		persistence.NewCargoRepository(),
		bus,
		conf.Import,
		log,
	)
}

func runImport(ctx context.Context, opts importCmdOptions) error {
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

	svc := newImportService()
	parsed, err := svc.ParseUpload(info.Name(), info.Size(), f, variant)
	if err != nil {
		return err
	}
	resolution, err := svc.ResolveCandidates(ctx, parsed.Candidates)
	if err != nil {
		return err
	}

	var outcome services.BatchOutcome
	switch variant {
	case importer.VariantCustomers:
		candidates := make([]importer.CandidateRow, 0, len(resolution.Unmatched))
		for _, u := range resolution.Unmatched {
			candidates = append(candidates, u.Candidate)
		}
		outcome, err = svc.CreateCustomers(ctx, candidates)
	case importer.VariantCargo:
		// Only confidently matched rows are created; unmatched and
		// duplicate rows are printed for human resolution.
		outcome, err = svc.CreateCargo(ctx, resolution.Matched, nil)
	}
	if err != nil {
		return err
	}

	return printJSON(os.Stdout, map[string]any{
		"parsing": map[string]any{
			"totalRows":       parsed.TotalRows,
			"validCandidates": len(parsed.Candidates),
			"invalidRows":     parsed.InvalidRows,
		},
		"resolution": resolution.Stats,
		"unmatched":  resolution.Unmatched,
		"duplicates": resolution.Duplicates,
		"outcome":    outcome,
	})
}

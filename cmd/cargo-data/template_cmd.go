package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cargoflow/cargoflow/pkg/excel"
	"github.com/cargoflow/cargoflow/pkg/importer"
)

func newTemplateCmd() *cobra.Command {
	var variantFlag string
	var out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write a sample workbook matching the variant's column map",
		RunE: func(cmd *cobra.Command, args []string) error {
			variant, ok := importer.ParseVariant(variantFlag)
			if !ok {
				return fmt.Errorf("unknown variant: %s", variantFlag)
			}
			buf, err := excel.BuildTemplate(importer.Columns(variant))
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s template to %s\n", variant, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&variantFlag, "variant", string(importer.VariantCargo), "import variant: customers or cargo")
	cmd.Flags().StringVar(&out, "out", "template.xlsx", "output path")
	return cmd
}

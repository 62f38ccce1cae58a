package excel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cargoflow/cargoflow/pkg/importer"
)

func TestValidateUpload(t *testing.T) {
	require.NoError(t, ValidateUpload("cargo.xlsx", 1024, 10*1024))
	require.ErrorIs(t, ValidateUpload("cargo.csv", 10, 1024), ErrUnsupportedExtension)
	require.ErrorIs(t, ValidateUpload("cargo.xlsx", 2048, 1024), ErrFileTooLarge)
	require.NoError(t, ValidateUpload("CARGO.XLSX", 10, 0), "zero limit disables the size check")
}

func TestTemplateRoundTrip(t *testing.T) {
	for _, variant := range []importer.Variant{importer.VariantCustomers, importer.VariantCargo} {
		columns := importer.Columns(variant)

		buf, err := BuildTemplate(columns)
		require.NoError(t, err)

		rows, err := ReadRows(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(rows), 2, "template has header and sample rows")
		require.Equal(t, columns.Headers()[0], rows[0][0])

		// The template must parse through the pipeline's own parser: the
		// header row is skipped and the sample row yields one candidate.
		res := importer.Parse(rows, columns)
		require.Equal(t, 1, res.TotalRows)
		require.Empty(t, res.InvalidRows)
		require.Len(t, res.Candidates, 1)
		require.Equal(t, "PM JOHN", res.Candidates[0].Mark)
	}
}

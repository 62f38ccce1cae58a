// Package excel is the spreadsheet boundary of the import pipeline: it
// turns an uploaded workbook into rows of cell values and generates the
// sample template operators download before filling in an import file.
package excel

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/cargoflow/cargoflow/pkg/importer"
)

var (
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrFileTooLarge         = errors.New("file exceeds the upload size limit")
	ErrNoSheets             = errors.New("workbook has no sheets")
)

// ValidateUpload gates an upload before any parsing: only .xlsx files up
// to maxSize bytes are accepted.
func ValidateUpload(filename string, size int64, maxSize int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".xlsx" {
		return errors.Wrapf(ErrUnsupportedExtension, "%s", ext)
	}
	if maxSize > 0 && size > maxSize {
		return errors.Wrapf(ErrFileTooLarge, "%d > %d bytes", size, maxSize)
	}
	return nil
}

// ReadRows returns the cell values of the first sheet of a workbook.
func ReadRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheets[0])
	}
	return rows, nil
}

// sampleRow returns one example data row for a variant template.
func sampleRow(columns importer.ColumnMap) []any {
	if columns.Variant == importer.VariantCustomers {
		return []any{"PM JOHN", "John Smith", "+998901234567"}
	}
	return []any{"PM JOHN", "TRK00123", "Phone cases", "ACME Ltd", 10, 1.25}
}

// BuildTemplate writes a sample workbook matching the variant's column
// map: a header row plus one example data row.
func BuildTemplate(columns importer.ColumnMap) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetList()[0]

	headers := make([]any, 0, len(columns.Headers()))
	for _, h := range columns.Headers() {
		headers = append(headers, h)
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, errors.Wrap(err, "write header row")
	}

	sample := sampleRow(columns)
	if err := f.SetSheetRow(sheet, "A2", &sample); err != nil {
		return nil, errors.Wrap(err, "write sample row")
	}

	return f.WriteToBuffer()
}

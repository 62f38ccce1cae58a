package importer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/cargoflow/cargoflow/pkg/shipmark"
)

var (
	commaGrouped = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

// ParseQuantity coerces a quantity cell to a positive integer. Digit
// strings with comma thousands separators ("1,000") and integral floats
// ("10.0") are accepted; non-positive, non-integral and non-numeric
// values are rejected.
func ParseQuantity(raw string) (int, error) {
	s := strings.ReplaceAll(raw, " ", " ")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if commaGrouped.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" {
		return 0, errors.New("empty quantity")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrap(err, "not a number")
	}
	if f != math.Trunc(f) {
		return 0, errors.Errorf("quantity %q is not integral", raw)
	}
	n := int(f)
	if n <= 0 {
		return 0, errors.Errorf("quantity must be positive, got %d", n)
	}
	return n, nil
}

// ParseVolume coerces a volume cell to a non-negative decimal with
// VolumePrecision fractional digits, rounding half up. Both "." and ","
// are accepted as the decimal separator.
func ParseVolume(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(raw, " ", "")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "not a number")
	}
	if d.IsNegative() {
		return decimal.Zero, errors.Errorf("volume must not be negative, got %s", raw)
	}
	return d.Round(VolumePrecision), nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Parse turns raw spreadsheet rows into candidates. Row numbers are
// 1-based positions in the input sequence so that errors point back to the
// spreadsheet line. A header row is skipped at most once, and only if it
// appears before any data row. Invalid rows are collected, never aborting
// the file.
func Parse(rows [][]string, columns ColumnMap) ParseResult {
	res := ParseResult{}
	headerSeen := false
	dataSeen := false

	for i, row := range rows {
		rowNumber := i + 1
		if isEmptyRow(row) {
			continue
		}
		if !dataSeen && !headerSeen && isHeaderRow(row) {
			headerSeen = true
			continue
		}
		dataSeen = true
		res.TotalRows++

		rawMark := cellAt(row, columns.Mark)
		marks := shipmark.Split(rawMark)
		if len(marks) == 0 {
			res.InvalidRows = append(res.InvalidRows, InvalidRow{
				RowNumber: rowNumber,
				Reason:    ReasonMissingMark,
				Raw:       row,
			})
			continue
		}

		base := CandidateRow{
			RowNumber: rowNumber,
			RawMark:   rawMark,
		}

		switch columns.Variant {
		case VariantCustomers:
			base.CustomerName = cellAt(row, columns.Name)
			base.Phone = shipmark.NormalizePhone(cellAt(row, columns.Phone))
		default:
			qty, err := ParseQuantity(cellAt(row, columns.Quantity))
			if err != nil {
				res.InvalidRows = append(res.InvalidRows, InvalidRow{
					RowNumber: rowNumber,
					Reason:    ReasonInvalidQuantity,
					Raw:       row,
				})
				continue
			}
			base.Quantity = qty

			if v := cellAt(row, columns.Volume); v != "" {
				vol, err := ParseVolume(v)
				if err != nil {
					res.InvalidRows = append(res.InvalidRows, InvalidRow{
						RowNumber: rowNumber,
						Reason:    ReasonInvalidVolume,
						Raw:       row,
					})
					continue
				}
				base.Volume = vol
			}

			base.TrackingNumber = strings.ToUpper(cellAt(row, columns.TrackingNumber))
			base.Description = cellAt(row, columns.Description)
			base.Supplier = cellAt(row, columns.Supplier)
		}

		// One candidate per normalized mark value; clones share the
		// source row number so downstream reporting still points at the
		// original line.
		for _, mark := range marks {
			candidate := base
			candidate.Mark = mark
			res.Candidates = append(res.Candidates, candidate)
		}
	}

	return res
}

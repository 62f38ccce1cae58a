package importer

import "strings"

// Variant selects the column map and required fields of an import file.
type Variant string

const (
	VariantCustomers Variant = "customers"
	VariantCargo     Variant = "cargo"
)

func ParseVariant(s string) (Variant, bool) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantCustomers:
		return VariantCustomers, true
	case VariantCargo:
		return VariantCargo, true
	}
	return "", false
}

// ColumnMap maps candidate fields to zero-based column indexes. An index
// of -1 marks the field absent from the variant.
type ColumnMap struct {
	Variant Variant

	Mark           int
	Name           int
	Phone          int
	TrackingNumber int
	Description    int
	Supplier       int
	Quantity       int
	Volume         int
}

// CustomerColumns is the column map of the customer import variant:
// shipping mark, customer name, phone.
func CustomerColumns() ColumnMap {
	return ColumnMap{
		Variant:        VariantCustomers,
		Mark:           0,
		Name:           1,
		Phone:          2,
		TrackingNumber: -1,
		Description:    -1,
		Supplier:       -1,
		Quantity:       -1,
		Volume:         -1,
	}
}

// CargoColumns is the column map of the shipment-item import variant:
// shipping mark, tracking number, description, supplier, quantity, volume.
func CargoColumns() ColumnMap {
	return ColumnMap{
		Variant:        VariantCargo,
		Mark:           0,
		TrackingNumber: 1,
		Description:    2,
		Supplier:       3,
		Quantity:       4,
		Volume:         5,
		Name:           -1,
		Phone:          -1,
	}
}

func Columns(v Variant) ColumnMap {
	if v == VariantCustomers {
		return CustomerColumns()
	}
	return CargoColumns()
}

// Headers returns the template header row for a variant, in column order.
func (m ColumnMap) Headers() []string {
	if m.Variant == VariantCustomers {
		return []string{"Shipping Mark", "Customer Name", "Phone"}
	}
	return []string{"Shipping Mark", "Tracking Number", "Description", "Supplier", "Quantity", "Volume (CBM)"}
}

// headerVocabulary is the set of cell values recognized as column
// headings. Matching is case-insensitive on the trimmed cell.
var headerVocabulary = map[string]struct{}{
	"shipping mark":   {},
	"mark":            {},
	"marks":           {},
	"唛头":              {},
	"customer":        {},
	"customer name":   {},
	"name":            {},
	"phone":           {},
	"phone number":    {},
	"mobile":          {},
	"tracking":        {},
	"tracking no":     {},
	"tracking no.":    {},
	"tracking number": {},
	"description":     {},
	"goods":           {},
	"goods description": {},
	"supplier":        {},
	"supplier name":   {},
	"qty":             {},
	"quantity":        {},
	"ctns":            {},
	"volume":          {},
	"cbm":             {},
	"volume (cbm)":    {},
}

// isHeaderRow reports whether a row looks like a heading: at least two of
// its non-empty cells match the header vocabulary.
func isHeaderRow(row []string) bool {
	hits := 0
	for _, cell := range row {
		v := strings.ToLower(strings.TrimSpace(cell))
		if v == "" {
			continue
		}
		if _, ok := headerVocabulary[v]; ok {
			hits++
		}
	}
	return hits >= 2
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

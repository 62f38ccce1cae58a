// Package importer implements the typed stages of the spreadsheet import
// pipeline: parsing raw rows into candidates, and resolving candidates
// against a snapshot of the customer registry. Both stages are pure
// in-memory computation; storage stays behind the services that call them.
package importer

import (
	"github.com/shopspring/decimal"
)

// VolumePrecision is the number of fractional digits volume values are
// rounded to (half up).
const VolumePrecision = 3

// CandidateRow is one parsed, not-yet-resolved spreadsheet row. A source
// row whose mark cell carries several values yields several candidates
// sharing the same RowNumber. Immutable once produced by the parser.
type CandidateRow struct {
	RowNumber int

	RawMark string
	// Mark is the normalized shipping mark used for matching.
	Mark string

	// Cargo variant fields.
	TrackingNumber string
	Description    string
	Supplier       string
	Quantity       int
	Volume         decimal.Decimal

	// Customer variant fields.
	CustomerName string
	Phone        string
}

// Reason codes for rejected rows.
const (
	ReasonMissingMark     = "missing-shipping-mark"
	ReasonInvalidQuantity = "invalid-quantity"
	ReasonInvalidVolume   = "invalid-volume"
)

type InvalidRow struct {
	RowNumber int
	Reason    string
	Raw       []string
}

// ParseResult aggregates one file parse. TotalRows counts data rows only:
// fully empty rows and a detected header row are excluded.
type ParseResult struct {
	Candidates  []CandidateRow
	InvalidRows []InvalidRow
	TotalRows   int
}

// EntityRef is a reference to an existing customer carried through
// matching and suggestions.
type EntityRef struct {
	ID           int64
	ShippingMark string
	Name         string
	Phone        string
}

type MatchedItem struct {
	Candidate CandidateRow
	Entity    EntityRef
}

// Suggestion ranks a possible match for an unmatched candidate.
// Rank 0 is a substring match between the compacted mark forms; rank 1 is
// a token-overlap match with score >= TokenOverlapThreshold. Rank 1
// suggestions are only produced when no rank 0 suggestion exists.
type Suggestion struct {
	Entity EntityRef
	Rank   int
	Score  float64
}

type UnmatchedItem struct {
	Candidate   CandidateRow
	Suggestions []Suggestion
}

type DuplicateReason string

const (
	DuplicateInBatch DuplicateReason = "duplicate-in-batch"
	DuplicateInStore DuplicateReason = "duplicate-in-store"
)

// DuplicateItem flags a candidate whose tracking number collides either
// with an earlier row of the same run or with a persisted cargo record.
type DuplicateItem struct {
	Candidate CandidateRow
	Reason    DuplicateReason

	// ConflictingRow is set for in-batch duplicates.
	ConflictingRow int
	// ConflictingCargoID is set for in-store duplicates.
	ConflictingCargoID int64
}

type ResolutionStats struct {
	Total           int
	Matched         int
	Unmatched       int
	BatchDuplicates int
	StoreDuplicates int
}

// Resolution tags every candidate with exactly one classification.
type Resolution struct {
	Matched    []MatchedItem
	Unmatched  []UnmatchedItem
	Duplicates []DuplicateItem
	Stats      ResolutionStats
}

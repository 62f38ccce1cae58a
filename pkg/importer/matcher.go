package importer

import (
	"sort"
	"strings"

	"github.com/cargoflow/cargoflow/pkg/shipmark"
)

// TokenOverlapThreshold is the minimum token-overlap score a rank 1
// suggestion must reach. The threshold and the unconditional precedence of
// substring matches are load-bearing for the human-resolution flow;
// keep them stable.
const TokenOverlapThreshold = 0.5

const DefaultSuggestionLimit = 5

// EntityIndex is a read-only snapshot of the customer registry keyed by
// normalized shipping mark, built once per pipeline run by a single full
// scan of the store. At most one entity per mark; the first entity added
// under a mark wins.
type EntityIndex struct {
	byMark map[string]EntityRef
	marks  []string
	sorted bool
}

func NewEntityIndex() *EntityIndex {
	return &EntityIndex{byMark: make(map[string]EntityRef)}
}

func (idx *EntityIndex) Add(ref EntityRef) {
	mark := shipmark.Normalize(ref.ShippingMark)
	if mark == "" {
		return
	}
	if _, exists := idx.byMark[mark]; exists {
		return
	}
	ref.ShippingMark = mark
	idx.byMark[mark] = ref
	idx.marks = append(idx.marks, mark)
	idx.sorted = false
}

func (idx *EntityIndex) Lookup(mark string) (EntityRef, bool) {
	ref, ok := idx.byMark[mark]
	return ref, ok
}

func (idx *EntityIndex) Size() int {
	return len(idx.byMark)
}

// Marks returns the indexed marks in lexical order for deterministic
// suggestion scans.
func (idx *EntityIndex) Marks() []string {
	if !idx.sorted {
		sort.Strings(idx.marks)
		idx.sorted = true
	}
	return idx.marks
}

func compact(mark string) string {
	return strings.ReplaceAll(mark, " ", "")
}

// tokenOverlap scores two token lists by |common| / max(|a|, |b|) over the
// raw space-separated segments. Repeated tokens count per occurrence, so
// "JOHN JOHN PM" has three tokens, not two.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	counts := make(map[string]int, len(a))
	for _, t := range a {
		counts[t]++
	}
	common := 0
	for _, t := range b {
		if counts[t] > 0 {
			counts[t]--
			common++
		}
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return float64(common) / float64(maxLen)
}

// RankSuggestions computes ranked match suggestions for an unmatched mark.
// Rank 0: substring containment either direction between the compacted
// candidate mark and a compacted indexed mark. Rank 1, only when no rank 0
// match exists: token overlap >= TokenOverlapThreshold, sorted by
// descending score. The result is capped to limit entries.
func RankSuggestions(mark string, index *EntityIndex, limit int) []Suggestion {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	cm := compact(mark)
	if cm == "" || index == nil {
		return nil
	}

	var out []Suggestion
	for _, indexed := range index.Marks() {
		ci := compact(indexed)
		if !strings.Contains(ci, cm) && !strings.Contains(cm, ci) {
			continue
		}
		ref, _ := index.Lookup(indexed)
		score := float64(min(len(cm), len(ci))) / float64(max(len(cm), len(ci)))
		out = append(out, Suggestion{Entity: ref, Rank: 0, Score: score})
	}
	if len(out) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Score != out[j].Score {
				return out[i].Score > out[j].Score
			}
			return out[i].Entity.ShippingMark < out[j].Entity.ShippingMark
		})
		if len(out) > limit {
			out = out[:limit]
		}
		return out
	}

	candTokens := shipmark.Tokens(mark)
	for _, indexed := range index.Marks() {
		score := tokenOverlap(candTokens, shipmark.Tokens(indexed))
		if score < TokenOverlapThreshold {
			continue
		}
		ref, _ := index.Lookup(indexed)
		out = append(out, Suggestion{Entity: ref, Rank: 1, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Entity.ShippingMark < out[j].Entity.ShippingMark
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ResolveOptions bounds the resolution stage.
type ResolveOptions struct {
	SuggestionLimit int
}

// Resolve classifies each candidate as exactly one of matched, unmatched
// or duplicate, preserving file order within each bucket. Duplicate
// checks run first: a tracking number seen earlier in this run beats a
// persisted collision, which beats the index lookup.
func Resolve(candidates []CandidateRow, index *EntityIndex, existingTracking map[string]int64, opts ResolveOptions) Resolution {
	res := Resolution{}
	res.Stats.Total = len(candidates)

	seenTracking := make(map[string]int, len(candidates))
	for _, c := range candidates {
		if c.TrackingNumber != "" {
			if firstRow, ok := seenTracking[c.TrackingNumber]; ok {
				res.Duplicates = append(res.Duplicates, DuplicateItem{
					Candidate:      c,
					Reason:         DuplicateInBatch,
					ConflictingRow: firstRow,
				})
				res.Stats.BatchDuplicates++
				continue
			}
			seenTracking[c.TrackingNumber] = c.RowNumber

			if cargoID, ok := existingTracking[c.TrackingNumber]; ok {
				res.Duplicates = append(res.Duplicates, DuplicateItem{
					Candidate:          c,
					Reason:             DuplicateInStore,
					ConflictingCargoID: cargoID,
				})
				res.Stats.StoreDuplicates++
				continue
			}
		}

		if ref, ok := index.Lookup(c.Mark); ok {
			res.Matched = append(res.Matched, MatchedItem{Candidate: c, Entity: ref})
			res.Stats.Matched++
			continue
		}

		res.Unmatched = append(res.Unmatched, UnmatchedItem{
			Candidate:   c,
			Suggestions: RankSuggestions(c.Mark, index, opts.SuggestionLimit),
		})
		res.Stats.Unmatched++
	}

	return res
}

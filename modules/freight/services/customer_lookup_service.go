package services

import (
	"context"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/cargoflow/cargoflow/modules/freight/domain/aggregates/customer"
)

// CustomerLookupService is the quick-search behind the human-resolution
// step: an operator types a few characters of a mark or a name and picks
// the customer an unmatched row should map to.
type CustomerLookupService struct {
	customers customer.Repository
}

func NewCustomerLookupService(customers customer.Repository) *CustomerLookupService {
	return &CustomerLookupService{customers: customers}
}

// Search fuzzy-ranks customers by shipping mark and name. A customer is
// returned once even when both fields match, under its best rank.
func (s *CustomerLookupService) Search(ctx context.Context, query string, limit int) ([]customer.Customer, error) {
	if limit <= 0 {
		limit = 10
	}
	if query == "" {
		return s.customers.List(ctx, limit, 0)
	}
	all, err := s.customers.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	type hit struct {
		c    customer.Customer
		rank int
	}
	best := make(map[int64]hit, len(all))
	for _, c := range all {
		ranks := fuzzy.RankFindNormalizedFold(query, []string{c.ShippingMark(), c.Name()})
		for _, r := range ranks {
			prev, seen := best[c.ID()]
			if !seen || r.Distance < prev.rank {
				best[c.ID()] = hit{c: c, rank: r.Distance}
			}
		}
	}

	hits := make([]hit, 0, len(best))
	for _, h := range best {
		hits = append(hits, h)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		return hits[i].c.ShippingMark() < hits[j].c.ShippingMark()
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]customer.Customer, len(hits))
	for i, h := range hits {
		out[i] = h.c
	}
	return out, nil
}

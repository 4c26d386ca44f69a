package store

import (
	"fmt"
	"sort"
)

// Listing limits.
const (
	DefaultLimit = 100
	MaxLimit     = 10000
)

// SortKey selects the ordering of a listing.
type SortKey string

// Supported sort keys. SortTitle orders by the kind's name column.
const (
	SortModified SortKey = "modified" // newest first
	SortTitle    SortKey = "title"    // A to Z, case-insensitive
	SortRating   SortKey = "rating"   // best first, unrated last
)

// ListParams selects a page of one entity kind.
type ListParams struct {
	Filter map[string]string // Foreign key filters, e.g. {"series_id": "series-..."}
	Sort   SortKey
	Limit  int // Defaults to 100, capped at 10000
	Offset int
}

// Normalize applies defaults and clamps out-of-range values.
func (p *ListParams) Normalize() {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Sort == "" {
		p.Sort = SortModified
	}
}

// FilterKeys returns the filter keys in a stable order.
func (p *ListParams) FilterKeys() []string {
	keys := make([]string, 0, len(p.Filter))
	for k := range p.Filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the params for logs.
func (p ListParams) String() string {
	return fmt.Sprintf("filter=%v sort=%s limit=%d offset=%d", p.Filter, p.Sort, p.Limit, p.Offset)
}

// Page is one slice of a listing plus the total number of matching rows.
type Page[T any] struct {
	Items  []*T `json:"items"`
	Total  int  `json:"total"`
	Offset int  `json:"offset"`
	Limit  int  `json:"limit"`
}

// HasMore reports whether rows exist past this page.
func (p *Page[T]) HasMore() bool {
	return p.Offset+len(p.Items) < p.Total
}

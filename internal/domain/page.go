package domain

import "strings"

// SortOrder is the direction of creation-time sorting for listings.
type SortOrder string

// Recognized sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder resolves a raw sort order against a configured fallback.
// Unrecognized values fall back rather than erroring; the recognized options
// are enumerated here and the default comes from configuration.
func ParseSortOrder(raw string, fallback SortOrder) SortOrder {
	switch SortOrder(strings.ToLower(raw)) {
	case SortAsc:
		return SortAsc
	case SortDesc:
		return SortDesc
	default:
		return fallback
	}
}

// TagMatch selects the tag-filter semantics for question listings.
type TagMatch string

// Tag match modes: ANY is set intersection, ALL is set superset.
const (
	TagMatchAny TagMatch = "ANY"
	TagMatchAll TagMatch = "ALL"
)

// Valid reports whether the tag match mode is recognized.
func (m TagMatch) Valid() bool {
	return m == TagMatchAny || m == TagMatchAll
}

// PageParams carries resolved pagination inputs. Page is 1-indexed.
type PageParams struct {
	Page  int
	Limit int
	Sort  SortOrder
}

// Normalize applies the configured defaults and bounds:
// non-positive page becomes 1, non-positive limit becomes defaultLimit,
// limit above maxLimit is capped, and an unset sort takes the fallback.
func (p *PageParams) Normalize(defaultLimit, maxLimit int, fallback SortOrder) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Sort != SortAsc && p.Sort != SortDesc {
		p.Sort = fallback
	}
}

// Page is the pagination envelope returned by listing queries.
// TotalItems counts matches before pagination; CurrentPage echoes the
// requested page clamped to [1, max(TotalPages, 1)]. The JSON field names are
// part of the client contract.
type Page[T any] struct {
	Items       []T `json:"items"`
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
}

// TotalPages computes ceil(totalItems / limit).
func TotalPages(totalItems, limit int) int {
	if limit < 1 {
		return 0
	}
	return (totalItems + limit - 1) / limit
}

// ClampPage clamps a requested 1-indexed page to [1, max(totalPages, 1)].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// PageSlice returns the bounds [start, end) of the given page over n items.
func PageSlice(n, page, limit int) (start, end int) {
	start = (page - 1) * limit
	if start > n {
		start = n
	}
	end = start + limit
	if end > n {
		end = n
	}
	return start, end
}

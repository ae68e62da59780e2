package query

import "strconv"

// PageSize is the fixed number of items per page
const PageSize = 20

// ParsePage parses a 1-based page query parameter, defaulting to 1
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// PageMeta is the pagination envelope returned alongside every list
type PageMeta struct {
	TotalPages   int   `json:"totalPages"`
	CurrentPage  int   `json:"currentPage"`
	PreviousPage *int  `json:"previousPage"`
	NextPage     *int  `json:"nextPage"`
	TotalItems   int64 `json:"totalItems"`
}

// NewPageMeta computes pagination metadata from the true total row count,
// not from the size of the returned page.
func NewPageMeta(totalItems int64, page int) PageMeta {
	totalPages := int((totalItems + PageSize - 1) / PageSize)

	meta := PageMeta{
		TotalPages:  totalPages,
		CurrentPage: page,
		TotalItems:  totalItems,
	}
	if page > 1 {
		prev := page - 1
		meta.PreviousPage = &prev
	}
	if page < totalPages {
		next := page + 1
		meta.NextPage = &next
	}
	return meta
}

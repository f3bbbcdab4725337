package common

import (
	"net/http"
	"strconv"

	pkgerrors "mindgraph/pkg/errors"
)

// MaxPageSize caps page_size
const MaxPageSize = 100

// PaginationParams represents pagination parameters. A zero PageSize means
// the whole collection is returned in one page.
type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// PaginationInfo contains pagination details
type PaginationInfo struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// ExtractPaginationParams reads page and page_size from the query string
func ExtractPaginationParams(r *http.Request) (PaginationParams, error) {
	params := PaginationParams{Page: 1}
	query := r.URL.Query()

	if page := query.Get("page"); page != "" {
		p, err := strconv.Atoi(page)
		if err != nil || p < 1 {
			return PaginationParams{}, pkgerrors.NewValidationErrorf("invalid page %q", page)
		}
		params.Page = p
	}

	if pageSize := query.Get("page_size"); pageSize != "" {
		ps, err := strconv.Atoi(pageSize)
		if err != nil || ps < 1 {
			return PaginationParams{}, pkgerrors.NewValidationErrorf("invalid page_size %q", pageSize)
		}
		params.PageSize = min(ps, MaxPageSize)
	}

	return params, nil
}

// Bounds returns the slice bounds of the current page within total items
func (p PaginationParams) Bounds(total int) (start, end int) {
	if p.PageSize <= 0 {
		return 0, total
	}
	start = min((p.Page-1)*p.PageSize, total)
	end = min(start+p.PageSize, total)
	return start, end
}

// Meta builds pagination metadata for total items
func (p PaginationParams) Meta(total int) *PaginationInfo {
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = total
	}
	totalPages := CalculateTotalPages(total, pageSize)
	return &PaginationInfo{
		Page:       p.Page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}
}

// CalculateTotalPages calculates total number of pages
func CalculateTotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := total / pageSize
	if total%pageSize > 0 {
		pages++
	}
	return pages
}

package services

import (
	"sort"
	"strings"

	"mindgraph/domain/core/entities"
	pkgerrors "mindgraph/pkg/errors"
)

// SortField names a document attribute a listing can be ordered by
type SortField string

const (
	SortByCreated  SortField = "created"
	SortByUpdated  SortField = "updated"
	SortByTitle    SortField = "title"
	SortByCategory SortField = "category"
)

// SortOrder is the listing direction
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ListFilter narrows and orders a document listing. The zero value lists
// everything by update time, newest first.
type ListFilter struct {
	Category string
	Query    string
	SortBy   SortField
	Order    SortOrder
}

// ParseListFilter builds a filter from raw request values
func ParseListFilter(category, query, sortBy, order string) (ListFilter, error) {
	f := ListFilter{
		Category: strings.TrimSpace(category),
		Query:    strings.TrimSpace(query),
		SortBy:   SortField(strings.ToLower(strings.TrimSpace(sortBy))),
		Order:    SortOrder(strings.ToLower(strings.TrimSpace(order))),
	}

	switch f.SortBy {
	case "":
		f.SortBy = SortByUpdated
	case SortByCreated, SortByUpdated, SortByTitle, SortByCategory:
	default:
		return ListFilter{}, pkgerrors.NewValidationErrorf("unknown sort field %q", sortBy)
	}

	switch f.Order {
	case "":
		f.Order = OrderDesc
	case OrderAsc, OrderDesc:
	default:
		return ListFilter{}, pkgerrors.NewValidationErrorf("unknown sort order %q", order)
	}

	return f, nil
}

func (f ListFilter) normalized() ListFilter {
	if f.SortBy == "" {
		f.SortBy = SortByUpdated
	}
	if f.Order == "" {
		f.Order = OrderDesc
	}
	return f
}

// matches applies the category and free text conditions
func (f ListFilter) matches(doc *entities.Document) bool {
	if f.Category != "" && doc.Metadata.Category != f.Category {
		return false
	}
	if f.Query == "" {
		return true
	}

	q := strings.ToLower(f.Query)
	if strings.Contains(strings.ToLower(doc.Title), q) ||
		strings.Contains(strings.ToLower(doc.Description), q) {
		return true
	}
	for _, tag := range doc.Metadata.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// apply filters and sorts docs in place and returns the kept slice
func (f ListFilter) apply(docs []*entities.Document) []*entities.Document {
	f = f.normalized()

	kept := docs[:0]
	for _, doc := range docs {
		if f.matches(doc) {
			kept = append(kept, doc)
		}
	}

	less := lessFunc(f.SortBy)
	sort.SliceStable(kept, func(i, j int) bool {
		if f.Order == OrderAsc {
			return less(kept[i], kept[j])
		}
		return less(kept[j], kept[i])
	})

	return kept
}

func lessFunc(field SortField) func(a, b *entities.Document) bool {
	switch field {
	case SortByCreated:
		return func(a, b *entities.Document) bool {
			return a.Metadata.CreatedAt.Before(b.Metadata.CreatedAt)
		}
	case SortByTitle:
		return func(a, b *entities.Document) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case SortByCategory:
		return func(a, b *entities.Document) bool {
			return a.Metadata.Category < b.Metadata.Category
		}
	default:
		return func(a, b *entities.Document) bool {
			return a.Metadata.UpdatedAt.Before(b.Metadata.UpdatedAt)
		}
	}
}

// matchesSearch is the wider search predicate: list fields plus node labels
func matchesSearch(doc *entities.Document, query string) bool {
	if (ListFilter{Query: query}).matches(doc) {
		return true
	}
	q := strings.ToLower(query)
	for _, label := range doc.NodeLabels() {
		if strings.Contains(strings.ToLower(label), q) {
			return true
		}
	}
	return false
}

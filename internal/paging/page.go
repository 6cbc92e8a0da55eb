// Package paging slices in-memory result lists into numbered pages.
package paging

import "errors"

var ErrInvalidPageSize = errors.New("page size must be at least 1")

// Page is one slice of a result list. PrevKey and NextKey are nil at the
// respective ends.
type Page[T any] struct {
	Data    []T
	PrevKey *int
	NextKey *int
	Total   int // size of the full list the page was cut from
}

// Slice cuts page pageNumber out of items. Page numbers start at 0.
func Slice[T any](items []T, pageNumber, pageSize int) (Page[T], error) {
	if pageSize < 1 {
		return Page[T]{}, ErrInvalidPageSize
	}
	if pageNumber < 0 {
		pageNumber = 0
	}

	start := pageNumber * pageSize
	if start >= len(items) {
		return Page[T]{Data: []T{}, Total: len(items)}, nil
	}
	end := min(start+pageSize, len(items))

	page := Page[T]{
		Data:  items[start:end],
		Total: len(items),
	}
	if pageNumber > 0 {
		prev := pageNumber - 1
		page.PrevKey = &prev
	}
	if end < len(items) {
		next := pageNumber + 1
		page.NextKey = &next
	}
	return page, nil
}

// RefreshKey returns the key of the page holding anchorPosition, so a reload
// lands on what the caller was looking at.
func RefreshKey(anchorPosition *int, pageSize int) *int {
	if anchorPosition == nil || pageSize < 1 {
		return nil
	}
	key := max(*anchorPosition, 0) / pageSize
	return &key
}

package service

import (
	"context"
	"strconv"
)

// Page is one slice of an ordered listing together with its position.
type Page[T any] struct {
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
	PerPage     int   `json:"per_page"`
	ObjectList  []T   `json:"object_list"`
}

// PageFetcher loads limit rows starting at offset and reports the total row count.
type PageFetcher[T any] func(ctx context.Context, limit, offset int) ([]T, int64, error)

// ParsePageNumber reads a ?page= value; anything that is not a positive integer is page 1.
func ParsePageNumber(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// NumPages is the page count for total rows; an empty listing still has one page.
func NumPages(total int64, perPage int) int {
	if perPage < 1 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Paginate fetches the requested page, clamping a number past the end to the last page.
func Paginate[T any](ctx context.Context, number, perPage int, fetch PageFetcher[T]) (*Page[T], error) {
	if perPage < 1 {
		perPage = 1
	}
	if number < 1 {
		number = 1
	}

	items, total, err := fetch(ctx, perPage, (number-1)*perPage)
	if err != nil {
		return nil, err
	}

	numPages := NumPages(total, perPage)
	if number > numPages {
		number = numPages
		items, total, err = fetch(ctx, perPage, (number-1)*perPage)
		if err != nil {
			return nil, err
		}
		numPages = NumPages(total, perPage)
	}
	if items == nil {
		items = []T{}
	}

	return &Page[T]{
		Number:      number,
		NumPages:    numPages,
		Count:       total,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
		PerPage:     perPage,
		ObjectList:  items,
	}, nil
}

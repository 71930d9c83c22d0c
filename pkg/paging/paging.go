package paging

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnordered means the source carries no explicit ordering. Paginating
	// an unordered source is non-deterministic across calls, so this is a
	// programming error rather than a request error.
	ErrUnordered = errors.New("paging: source must carry an explicit ordering")

	ErrInvalidPage     = errors.New("paging: page number must be >= 1")
	ErrInvalidPageSize = errors.New("paging: page size must be >= 1")
)

// Source is an ordered, lazily-evaluated sequence of items. Count and Slice
// observe the same filter; Slice returns items at [offset, offset+limit).
type Source[T any] interface {
	Ordered() bool
	Count(ctx context.Context) (int, error)
	Slice(ctx context.Context, offset, limit int) ([]T, error)
}

// PagedList is one window over a source, immutable once built.
type PagedList[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	PageSize   int `json:"pageSize"`
	ItemCount  int `json:"itemCount"`
}

// Paginate counts the source, then takes the requested window.
//
// Zero matching items yields an empty page with ItemCount 0, not an error:
// an empty result set is a legitimate answer, and "not found" is reserved
// for missing referents (the category-filtered query checks its category
// before ever reaching here).
func Paginate[T any](ctx context.Context, src Source[T], page, pageSize int) (PagedList[T], error) {
	if page < 1 {
		return PagedList[T]{}, ErrInvalidPage
	}
	if pageSize < 1 {
		return PagedList[T]{}, ErrInvalidPageSize
	}
	if !src.Ordered() {
		return PagedList[T]{}, ErrUnordered
	}

	count, err := src.Count(ctx)
	if err != nil {
		return PagedList[T]{}, fmt.Errorf("count items: %w", err)
	}

	items := []T{}
	if count > 0 {
		items, err = src.Slice(ctx, (page-1)*pageSize, pageSize)
		if err != nil {
			return PagedList[T]{}, fmt.Errorf("slice items: %w", err)
		}
	}

	totalPages := count / pageSize
	if count%pageSize != 0 {
		totalPages++
	}
	return PagedList[T]{
		Items:      items,
		Page:       page,
		TotalPages: totalPages,
		PageSize:   pageSize,
		ItemCount:  count,
	}, nil
}

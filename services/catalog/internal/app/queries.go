package app

import (
	"context"
	"fmt"
	"strings"

	"bookstore/pkg/domain"
	"bookstore/pkg/paging"
	"bookstore/pkg/store"
)

// clampPage folds page numbers below 1 up to the first page, mirroring how
// the queries treat out-of-range requests as "give me the start".
func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func (a *App) handleGetBooks(ctx context.Context, q GetBooksQuery) (paging.PagedList[domain.BookView], error) {
	return paging.Paginate(ctx, a.store.BookViews(store.BookFilter{}), clampPage(q.Page), a.pageSize)
}

func (a *App) handleGetBooksByCategory(ctx context.Context, q GetBooksByCategoryQuery) (paging.PagedList[domain.BookView], error) {
	categoryID := strings.TrimSpace(q.CategoryID)
	if categoryID == "" {
		return paging.PagedList[domain.BookView]{}, fmt.Errorf("%w: category id is required", ErrInvalidInput)
	}
	ok, err := a.store.HasCategory(ctx, categoryID)
	if err != nil {
		return paging.PagedList[domain.BookView]{}, fmt.Errorf("check category: %w", err)
	}
	if !ok {
		return paging.PagedList[domain.BookView]{}, fmt.Errorf("%w: category %s", ErrNotFound, categoryID)
	}
	return paging.Paginate(ctx, a.store.BookViews(store.BookFilter{CategoryID: categoryID}), clampPage(q.Page), a.pageSize)
}

func (a *App) handleGetBooksByName(ctx context.Context, q GetBooksByNameQuery) (paging.PagedList[domain.BookView], error) {
	name := strings.TrimSpace(q.Name)
	if name == "" {
		return paging.PagedList[domain.BookView]{}, fmt.Errorf("%w: name pattern is required", ErrInvalidInput)
	}
	return paging.Paginate(ctx, a.store.BookViews(store.BookFilter{NameContains: name}), clampPage(q.Page), a.pageSize)
}

// Categories lists all categories; used by the HTTP surface.
func (a *App) Categories(ctx context.Context) ([]domain.Category, error) {
	return a.store.ListCategories(ctx)
}

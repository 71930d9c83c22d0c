package store

import (
	"context"
	"testing"

	"bookstore/pkg/domain"
)

func seedCatalog(t *testing.T, s *MemoryStore) (authorID, categoryID string) {
	t.Helper()
	ctx := context.Background()
	author := domain.Author{ID: "a1", Name: "Frank", Surname: "Herbert"}
	category := domain.Category{ID: "c1", Name: "Sci-Fi"}
	book := domain.Book{ID: "b1", Name: "Dune", Price: 20, AuthorID: "a1", CategoryID: "c1"}
	if err := s.CreateBook(ctx, book, &author, &category); err != nil {
		t.Fatalf("create book: %v", err)
	}
	return author.ID, category.ID
}

func TestMemoryStoreSaveRatingUpserts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedCatalog(t, s)

	if err := s.SaveRating(ctx, domain.Rating{ID: "r1", UserID: "u1", BookID: "b1", Stars: 3}); err != nil {
		t.Fatalf("save rating: %v", err)
	}
	if err := s.SaveRating(ctx, domain.Rating{ID: "r2", UserID: "u1", BookID: "b1", Stars: 5}); err != nil {
		t.Fatalf("save rating again: %v", err)
	}

	if s.RatingCount() != 1 {
		t.Fatalf("rating count = %d, want 1", s.RatingCount())
	}
	rating, ok, err := s.GetRating(ctx, "u1", "b1")
	if err != nil || !ok {
		t.Fatalf("get rating: ok=%v err=%v", ok, err)
	}
	if rating.Stars != 5 {
		t.Fatalf("stars = %d, want 5", rating.Stars)
	}
}

func TestMemoryStoreBookViewsAverageAndOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	authorID, categoryID := seedCatalog(t, s)
	cheap := domain.Book{ID: "b2", Name: "Dune Messiah", Price: 10, AuthorID: authorID, CategoryID: categoryID}
	if err := s.CreateBook(ctx, cheap, nil, nil); err != nil {
		t.Fatalf("create second book: %v", err)
	}
	_ = s.SaveRating(ctx, domain.Rating{ID: "r1", UserID: "u1", BookID: "b1", Stars: 3})
	_ = s.SaveRating(ctx, domain.Rating{ID: "r2", UserID: "u2", BookID: "b1", Stars: 5})

	src := s.BookViews(BookFilter{})
	views, err := src.Slice(ctx, 0, 10)
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("views = %d, want 2", len(views))
	}
	if views[0].Name != "Dune Messiah" {
		t.Fatalf("expected cheapest book first, got %q", views[0].Name)
	}
	if views[1].AverageRating != 4.0 {
		t.Fatalf("average = %v, want 4.0", views[1].AverageRating)
	}
	if views[0].AverageRating != 0.0 {
		t.Fatalf("unrated book average = %v, want 0.0", views[0].AverageRating)
	}
	if views[0].AuthorName != "Frank" || views[0].CategoryName != "Sci-Fi" {
		t.Fatalf("unexpected projection: %+v", views[0])
	}
}

func TestMemoryStoreBookViewsNameFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	authorID, categoryID := seedCatalog(t, s)
	other := domain.Book{ID: "b2", Name: "Foundation", Price: 15, AuthorID: authorID, CategoryID: categoryID}
	if err := s.CreateBook(ctx, other, nil, nil); err != nil {
		t.Fatalf("create book: %v", err)
	}

	src := s.BookViews(BookFilter{NameContains: "dune"})
	count, err := src.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	views, err := src.Slice(ctx, 0, 10)
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	if len(views) != 1 || views[0].Name != "Dune" {
		t.Fatalf("unexpected filtered views: %+v", views)
	}
}

func TestMemoryStoreHasBookMatchesNameAndAuthor(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedCatalog(t, s)

	exists, err := s.HasBook(ctx, "Dune", "Frank", "Herbert")
	if err != nil || !exists {
		t.Fatalf("expected existing book, ok=%v err=%v", exists, err)
	}
	exists, err = s.HasBook(ctx, "Dune", "Brian", "Herbert")
	if err != nil || exists {
		t.Fatalf("different author should not match, ok=%v err=%v", exists, err)
	}
}

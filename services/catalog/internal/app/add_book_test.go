package app

import (
	"context"
	"errors"
	"testing"
)

func TestAddBookRejectsDuplicate(t *testing.T) {
	env := newTestEnv(t, 10)
	env.addBook(t, "Dune", 9.99, "Frank", "Herbert", "Sci-Fi")

	err := env.app.AddBook(context.Background(), AddBookCommand{
		Name:          "Dune",
		Price:         12.50,
		AuthorName:    "Frank",
		AuthorSurname: "Herbert",
		CategoryName:  "Sci-Fi",
	})
	if !errors.Is(err, ErrBookExists) {
		t.Fatalf("expected ErrBookExists, got %v", err)
	}
	if env.store.BookCount() != 1 {
		t.Fatalf("book count = %d, want 1", env.store.BookCount())
	}
}

func TestAddBookSameNameDifferentAuthor(t *testing.T) {
	env := newTestEnv(t, 10)
	env.addBook(t, "Dune", 9.99, "Frank", "Herbert", "Sci-Fi")
	env.addBook(t, "Dune", 5.00, "Someone", "Else", "Sci-Fi")

	if env.store.BookCount() != 2 {
		t.Fatalf("book count = %d, want 2", env.store.BookCount())
	}
}

func TestAddBookReusesAuthorAndCategory(t *testing.T) {
	env := newTestEnv(t, 10)
	env.addBook(t, "Dune", 9.99, "Frank", "Herbert", "Sci-Fi")
	env.addBook(t, "Dune Messiah", 8.99, "Frank", "Herbert", "Sci-Fi")

	if got := env.store.AuthorCount(); got != 1 {
		t.Fatalf("author count = %d, want 1", got)
	}
	if got := env.store.CategoryCount(); got != 1 {
		t.Fatalf("category count = %d, want 1", got)
	}
}

func TestAddBookValidation(t *testing.T) {
	env := newTestEnv(t, 10)
	cases := []AddBookCommand{
		{Price: 1, AuthorName: "A", CategoryName: "C"},
		{Name: "B", Price: 1, CategoryName: "C"},
		{Name: "B", Price: 1, AuthorName: "A"},
		{Name: "B", Price: -1, AuthorName: "A", CategoryName: "C"},
	}
	for i, cmd := range cases {
		if err := env.app.AddBook(context.Background(), cmd); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
	if env.store.BookCount() != 0 {
		t.Fatalf("no books should be created, got %d", env.store.BookCount())
	}
}

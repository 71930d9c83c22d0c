package app

import (
	"context"
	"errors"
	"testing"
)

func TestWishlistAddListRemove(t *testing.T) {
	env := newTestEnv(t, 10)
	env.addBook(t, "Dune", 9.99, "Frank", "Herbert", "Sci-Fi")
	env.addBook(t, "Emma", 5.99, "Jane", "Austen", "Classics")
	userID := env.registerUser(t, "alice", "alice@example.com")
	duneID := env.bookIDByName(t, "Dune")
	emmaID := env.bookIDByName(t, "Emma")
	ctx := context.Background()

	if err := env.app.AddToWishlist(ctx, AddToWishlistCommand{UserID: userID, BookID: duneID}); err != nil {
		t.Fatalf("add dune: %v", err)
	}
	if err := env.app.AddToWishlist(ctx, AddToWishlistCommand{UserID: userID, BookID: emmaID}); err != nil {
		t.Fatalf("add emma: %v", err)
	}

	books, err := env.app.Wishlist(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != 2 || books[0].Name != "Dune" || books[1].Name != "Emma" {
		t.Fatalf("wishlist should keep insertion order, got %+v", books)
	}

	if err := env.app.RemoveFromWishlist(ctx, RemoveFromWishlistCommand{UserID: userID, BookID: duneID}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	books, err = env.app.Wishlist(ctx, userID)
	if err != nil {
		t.Fatalf("list after remove: %v", err)
	}
	if len(books) != 1 || books[0].Name != "Emma" {
		t.Fatalf("unexpected wishlist after remove: %+v", books)
	}
}

func TestWishlistAddIsIdempotent(t *testing.T) {
	env := newTestEnv(t, 10)
	env.addBook(t, "Dune", 9.99, "Frank", "Herbert", "Sci-Fi")
	userID := env.registerUser(t, "alice", "alice@example.com")
	bookID := env.bookIDByName(t, "Dune")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := env.app.AddToWishlist(ctx, AddToWishlistCommand{UserID: userID, BookID: bookID}); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	books, err := env.app.Wishlist(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("wishlist length = %d, want 1", len(books))
	}
}

func TestWishlistUnknownParties(t *testing.T) {
	env := newTestEnv(t, 10)
	env.addBook(t, "Dune", 9.99, "Frank", "Herbert", "Sci-Fi")
	userID := env.registerUser(t, "alice", "alice@example.com")
	bookID := env.bookIDByName(t, "Dune")
	ctx := context.Background()

	err := env.app.AddToWishlist(ctx, AddToWishlistCommand{UserID: "ghost", BookID: bookID})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user: expected ErrNotFound, got %v", err)
	}
	err = env.app.AddToWishlist(ctx, AddToWishlistCommand{UserID: userID, BookID: "ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown book: expected ErrNotFound, got %v", err)
	}
	err = env.app.RemoveFromWishlist(ctx, RemoveFromWishlistCommand{UserID: userID, BookID: bookID})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("remove never-added: expected ErrNotFound, got %v", err)
	}
	if _, err := env.app.Wishlist(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("list for unknown user: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteBookPrunesWishlists(t *testing.T) {
	env := newTestEnv(t, 10)
	env.addBook(t, "Dune", 9.99, "Frank", "Herbert", "Sci-Fi")
	userID := env.registerUser(t, "alice", "alice@example.com")
	bookID := env.bookIDByName(t, "Dune")
	ctx := context.Background()

	if err := env.app.AddToWishlist(ctx, AddToWishlistCommand{UserID: userID, BookID: bookID}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := env.app.DeleteBook(ctx, DeleteBookCommand{BookID: bookID}); err != nil {
		t.Fatalf("delete book: %v", err)
	}
	books, err := env.app.Wishlist(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != 0 {
		t.Fatalf("wishlist should be empty after the book is deleted, got %+v", books)
	}
}

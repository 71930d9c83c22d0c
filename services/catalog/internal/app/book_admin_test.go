package app

import (
	"context"
	"errors"
	"testing"
)

func TestUpdateBookChangesNameAndPrice(t *testing.T) {
	env := newTestEnv(t, 10)
	env.addBook(t, "Dune", 9.99, "Frank", "Herbert", "Sci-Fi")
	bookID := env.bookIDByName(t, "Dune")

	err := env.app.UpdateBook(context.Background(), UpdateBookCommand{
		BookID: bookID, Name: "Dune Messiah", Price: 12.50,
	})
	if err != nil {
		t.Fatalf("update book: %v", err)
	}
	book, ok := env.store.FindBookByName("Dune Messiah")
	if !ok {
		t.Fatal("renamed book not found")
	}
	if book.Price != 12.50 {
		t.Fatalf("price = %v, want 12.50", book.Price)
	}
	if _, ok := env.store.FindBookByName("Dune"); ok {
		t.Fatal("old name should be gone")
	}
}

func TestUpdateBookRenameCollision(t *testing.T) {
	env := newTestEnv(t, 10)
	env.addBook(t, "Dune", 9.99, "Frank", "Herbert", "Sci-Fi")
	env.addBook(t, "Dune Messiah", 11.99, "Frank", "Herbert", "Sci-Fi")
	bookID := env.bookIDByName(t, "Dune")

	err := env.app.UpdateBook(context.Background(), UpdateBookCommand{
		BookID: bookID, Name: "Dune Messiah", Price: 9.99,
	})
	if !errors.Is(err, ErrBookExists) {
		t.Fatalf("expected ErrBookExists, got %v", err)
	}
}

func TestUpdateBookValidation(t *testing.T) {
	env := newTestEnv(t, 10)
	env.addBook(t, "Dune", 9.99, "Frank", "Herbert", "Sci-Fi")
	bookID := env.bookIDByName(t, "Dune")

	cases := []struct {
		name string
		cmd  UpdateBookCommand
		want error
	}{
		{"missing id", UpdateBookCommand{Name: "Dune", Price: 1}, ErrInvalidInput},
		{"missing name", UpdateBookCommand{BookID: bookID, Price: 1}, ErrInvalidInput},
		{"negative price", UpdateBookCommand{BookID: bookID, Name: "Dune", Price: -1}, ErrInvalidInput},
		{"unknown book", UpdateBookCommand{BookID: "ghost", Name: "Dune", Price: 1}, ErrNotFound},
	}
	for _, tc := range cases {
		if err := env.app.UpdateBook(context.Background(), tc.cmd); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestBookSaleOnAndOff(t *testing.T) {
	env := newTestEnv(t, 10)
	env.addBook(t, "Dune", 10, "Frank", "Herbert", "Sci-Fi")
	bookID := env.bookIDByName(t, "Dune")
	ctx := context.Background()

	err := env.app.AddBookSale(ctx, AddBookSaleCommand{BookID: bookID, SalePrice: 7.50, Sale: true})
	if err != nil {
		t.Fatalf("start sale: %v", err)
	}
	book, _ := env.store.FindBookByName("Dune")
	if !book.Sale || book.SalePrice != 7.50 {
		t.Fatalf("sale not applied: %+v", book)
	}

	if err := env.app.AddBookSale(ctx, AddBookSaleCommand{BookID: bookID, Sale: false}); err != nil {
		t.Fatalf("end sale: %v", err)
	}
	book, _ = env.store.FindBookByName("Dune")
	if book.Sale {
		t.Fatalf("sale should be off: %+v", book)
	}
}

func TestBookSaleValidation(t *testing.T) {
	env := newTestEnv(t, 10)
	env.addBook(t, "Dune", 10, "Frank", "Herbert", "Sci-Fi")
	bookID := env.bookIDByName(t, "Dune")
	ctx := context.Background()

	err := env.app.AddBookSale(ctx, AddBookSaleCommand{BookID: bookID, SalePrice: 10, Sale: true})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("sale price at the regular price: expected ErrInvalidInput, got %v", err)
	}
	err = env.app.AddBookSale(ctx, AddBookSaleCommand{BookID: bookID, SalePrice: 0, Sale: true})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero sale price: expected ErrInvalidInput, got %v", err)
	}
	err = env.app.AddBookSale(ctx, AddBookSaleCommand{BookID: "ghost", SalePrice: 5, Sale: true})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown book: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateBookCannotUndercutSalePrice(t *testing.T) {
	env := newTestEnv(t, 10)
	env.addBook(t, "Dune", 10, "Frank", "Herbert", "Sci-Fi")
	bookID := env.bookIDByName(t, "Dune")
	ctx := context.Background()

	if err := env.app.AddBookSale(ctx, AddBookSaleCommand{BookID: bookID, SalePrice: 7.50, Sale: true}); err != nil {
		t.Fatalf("start sale: %v", err)
	}
	err := env.app.UpdateBook(ctx, UpdateBookCommand{BookID: bookID, Name: "Dune", Price: 7})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("price below the sale price: expected ErrInvalidInput, got %v", err)
	}
}

func TestDeleteBookRemovesEverything(t *testing.T) {
	env := newTestEnv(t, 10)
	env.addBook(t, "Dune", 9.99, "Frank", "Herbert", "Sci-Fi")
	bookID := env.bookIDByName(t, "Dune")
	userID := env.registerUser(t, "alice", "alice@example.com")
	ctx := context.Background()

	if err := env.app.AddRating(ctx, AddRatingCommand{UserID: userID, BookID: bookID, Stars: 5}); err != nil {
		t.Fatalf("add rating: %v", err)
	}
	if err := env.attachPhoto(t, bookID, "image/jpeg", "jpeg-bytes"); err != nil {
		t.Fatalf("add photo: %v", err)
	}

	if err := env.app.DeleteBook(ctx, DeleteBookCommand{BookID: bookID}); err != nil {
		t.Fatalf("delete book: %v", err)
	}
	if env.store.BookCount() != 0 {
		t.Fatalf("books = %d, want 0", env.store.BookCount())
	}
	if env.store.RatingCount() != 0 {
		t.Fatalf("ratings = %d, want 0", env.store.RatingCount())
	}
	if _, ok, _ := env.store.GetPhotoByBook(ctx, bookID); ok {
		t.Fatal("photo row should be gone")
	}
	if env.objects.Len() != 0 {
		t.Fatalf("cover object should be gone, objects = %d", env.objects.Len())
	}
}

func TestDeleteBookUnknown(t *testing.T) {
	env := newTestEnv(t, 10)
	err := env.app.DeleteBook(context.Background(), DeleteBookCommand{BookID: "ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

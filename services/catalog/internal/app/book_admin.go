package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookstore/internal/util"
	"bookstore/pkg/mediator"
	"bookstore/pkg/storage"
)

func (a *App) handleUpdateBook(ctx context.Context, cmd UpdateBookCommand) (mediator.Void, error) {
	bookID := strings.TrimSpace(cmd.BookID)
	name := strings.TrimSpace(cmd.Name)
	if bookID == "" {
		return mediator.Void{}, fmt.Errorf("%w: book id is required", ErrInvalidInput)
	}
	if name == "" {
		return mediator.Void{}, fmt.Errorf("%w: book name is required", ErrInvalidInput)
	}
	if cmd.Price < 0 {
		return mediator.Void{}, fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}

	book, ok, err := a.store.GetBook(ctx, bookID)
	if err != nil {
		return mediator.Void{}, fmt.Errorf("load book: %w", err)
	}
	if !ok {
		return mediator.Void{}, fmt.Errorf("%w: book %s", ErrNotFound, bookID)
	}
	if book.Sale && cmd.Price <= book.SalePrice {
		return mediator.Void{}, fmt.Errorf("%w: price must stay above the sale price", ErrInvalidInput)
	}

	// A rename must not collide with another book by the same author.
	if name != book.Name {
		author, ok, err := a.store.GetAuthor(ctx, book.AuthorID)
		if err != nil {
			return mediator.Void{}, fmt.Errorf("resolve author: %w", err)
		}
		if ok {
			exists, err := a.store.HasBook(ctx, name, author.Name, author.Surname)
			if err != nil {
				return mediator.Void{}, fmt.Errorf("check book existence: %w", err)
			}
			if exists {
				return mediator.Void{}, fmt.Errorf("%w: %q by %s %s", ErrBookExists, name, author.Name, author.Surname)
			}
		}
	}

	book.Name = name
	book.Price = cmd.Price
	book.UpdatedAt = time.Now().UTC()
	if err := a.store.UpdateBook(ctx, book); err != nil {
		return mediator.Void{}, fmt.Errorf("update book: %w", err)
	}
	util.LoggerFromContext(ctx).Info("book updated", "book_id", bookID, "name", name)
	return mediator.Void{}, nil
}

func (a *App) handleBookSale(ctx context.Context, cmd AddBookSaleCommand) (mediator.Void, error) {
	bookID := strings.TrimSpace(cmd.BookID)
	if bookID == "" {
		return mediator.Void{}, fmt.Errorf("%w: book id is required", ErrInvalidInput)
	}
	book, ok, err := a.store.GetBook(ctx, bookID)
	if err != nil {
		return mediator.Void{}, fmt.Errorf("load book: %w", err)
	}
	if !ok {
		return mediator.Void{}, fmt.Errorf("%w: book %s", ErrNotFound, bookID)
	}
	if cmd.Sale {
		if cmd.SalePrice <= 0 || cmd.SalePrice >= book.Price {
			return mediator.Void{}, fmt.Errorf("%w: sale price must be positive and below the regular price", ErrInvalidInput)
		}
	} else if cmd.SalePrice < 0 {
		return mediator.Void{}, fmt.Errorf("%w: sale price cannot be negative", ErrInvalidInput)
	}

	book.Sale = cmd.Sale
	book.SalePrice = cmd.SalePrice
	book.UpdatedAt = time.Now().UTC()
	if err := a.store.UpdateBook(ctx, book); err != nil {
		return mediator.Void{}, fmt.Errorf("update book sale: %w", err)
	}
	util.LoggerFromContext(ctx).Info("book sale updated",
		"book_id", bookID, "sale", cmd.Sale, "sale_price", cmd.SalePrice)
	return mediator.Void{}, nil
}

func (a *App) handleDeleteBook(ctx context.Context, cmd DeleteBookCommand) (mediator.Void, error) {
	bookID := strings.TrimSpace(cmd.BookID)
	if bookID == "" {
		return mediator.Void{}, fmt.Errorf("%w: book id is required", ErrInvalidInput)
	}
	if _, ok, err := a.store.GetBook(ctx, bookID); err != nil {
		return mediator.Void{}, fmt.Errorf("load book: %w", err)
	} else if !ok {
		return mediator.Void{}, fmt.Errorf("%w: book %s", ErrNotFound, bookID)
	}

	photo, hadPhoto, err := a.store.GetPhotoByBook(ctx, bookID)
	if err != nil {
		return mediator.Void{}, fmt.Errorf("load photo: %w", err)
	}
	if err := a.store.DeleteBook(ctx, bookID); err != nil {
		return mediator.Void{}, fmt.Errorf("delete book: %w", err)
	}
	// The rows are gone; a leftover cover object is only worth a warning.
	if hadPhoto && a.objects != nil {
		if err := a.objects.Delete(ctx, storage.CoverKey(bookID, photo.ID)); err != nil {
			util.LoggerFromContext(ctx).Warn("cover object not deleted", "book_id", bookID, "err", err)
		}
	}
	util.LoggerFromContext(ctx).Info("book deleted", "book_id", bookID)
	return mediator.Void{}, nil
}

package app

import (
	"context"
	"fmt"
	"strings"

	"bookstore/internal/util"
	"bookstore/pkg/domain"
	"bookstore/pkg/mediator"
)

func (a *App) handleAddToWishlist(ctx context.Context, cmd AddToWishlistCommand) (mediator.Void, error) {
	userID := strings.TrimSpace(cmd.UserID)
	bookID := strings.TrimSpace(cmd.BookID)
	if userID == "" || bookID == "" {
		return mediator.Void{}, fmt.Errorf("%w: user id and book id are required", ErrInvalidInput)
	}
	if _, ok, err := a.store.GetUserByID(ctx, userID); err != nil {
		return mediator.Void{}, fmt.Errorf("load user: %w", err)
	} else if !ok {
		return mediator.Void{}, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if _, ok, err := a.store.GetBook(ctx, bookID); err != nil {
		return mediator.Void{}, fmt.Errorf("load book: %w", err)
	} else if !ok {
		return mediator.Void{}, fmt.Errorf("%w: book %s", ErrNotFound, bookID)
	}
	if err := a.store.AddToWishlist(ctx, userID, bookID); err != nil {
		return mediator.Void{}, fmt.Errorf("add wishlist entry: %w", err)
	}
	util.LoggerFromContext(ctx).Info("book wishlisted", "user_id", userID, "book_id", bookID)
	return mediator.Void{}, nil
}

func (a *App) handleRemoveFromWishlist(ctx context.Context, cmd RemoveFromWishlistCommand) (mediator.Void, error) {
	userID := strings.TrimSpace(cmd.UserID)
	bookID := strings.TrimSpace(cmd.BookID)
	if userID == "" || bookID == "" {
		return mediator.Void{}, fmt.Errorf("%w: user id and book id are required", ErrInvalidInput)
	}
	removed, err := a.store.RemoveFromWishlist(ctx, userID, bookID)
	if err != nil {
		return mediator.Void{}, fmt.Errorf("remove wishlist entry: %w", err)
	}
	if !removed {
		return mediator.Void{}, fmt.Errorf("%w: book %s is not on the wishlist", ErrNotFound, bookID)
	}
	util.LoggerFromContext(ctx).Info("book unwishlisted", "user_id", userID, "book_id", bookID)
	return mediator.Void{}, nil
}

func (a *App) handleGetWishlist(ctx context.Context, q GetWishlistQuery) ([]domain.Book, error) {
	userID := strings.TrimSpace(q.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if _, ok, err := a.store.GetUserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	return a.store.WishlistBooks(ctx, userID)
}

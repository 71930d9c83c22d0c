package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"bookstore/internal/util"
	"bookstore/pkg/domain"
	"bookstore/pkg/mediator"
)

func (a *App) handleAddRating(ctx context.Context, cmd AddRatingCommand) (mediator.Void, error) {
	userID := strings.TrimSpace(cmd.UserID)
	bookID := strings.TrimSpace(cmd.BookID)
	if userID == "" || bookID == "" {
		return mediator.Void{}, fmt.Errorf("%w: userId and bookId are required", ErrInvalidInput)
	}
	if cmd.Stars < 1 || cmd.Stars > 5 {
		return mediator.Void{}, fmt.Errorf("%w: stars must be between 1 and 5", ErrInvalidInput)
	}

	// The two lookups are independent reads, so they fan out.
	var userOK, bookOK bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, ok, err := a.store.GetUserByID(gctx, userID)
		userOK = ok
		return err
	})
	g.Go(func() error {
		_, ok, err := a.store.GetBook(gctx, bookID)
		bookOK = ok
		return err
	})
	if err := g.Wait(); err != nil {
		return mediator.Void{}, fmt.Errorf("resolve rating parties: %w", err)
	}
	if !userOK {
		return mediator.Void{}, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if !bookOK {
		return mediator.Void{}, fmt.Errorf("%w: book %s", ErrNotFound, bookID)
	}

	rating := domain.Rating{ID: util.NewID(), UserID: userID, BookID: bookID, Stars: cmd.Stars}
	if existing, ok, err := a.store.GetRating(ctx, userID, bookID); err != nil {
		return mediator.Void{}, fmt.Errorf("load rating: %w", err)
	} else if ok {
		rating.ID = existing.ID
	}
	if err := a.store.SaveRating(ctx, rating); err != nil {
		return mediator.Void{}, fmt.Errorf("save rating: %w", err)
	}
	util.LoggerFromContext(ctx).Info("rating saved",
		"user_id", userID, "book_id", bookID, "stars", cmd.Stars)
	return mediator.Void{}, nil
}

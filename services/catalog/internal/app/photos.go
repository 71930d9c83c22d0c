package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookstore/internal/util"
	"bookstore/pkg/domain"
	"bookstore/pkg/mediator"
	"bookstore/pkg/storage"
)

func (a *App) handleAddPhoto(ctx context.Context, cmd AddPhotoCommand) (domain.Photo, error) {
	if a.objects == nil {
		return domain.Photo{}, errors.New("object storage not configured")
	}
	bookID := strings.TrimSpace(cmd.BookID)
	if bookID == "" || cmd.Content == nil {
		return domain.Photo{}, fmt.Errorf("%w: book id and content are required", ErrInvalidInput)
	}
	if !strings.HasPrefix(cmd.ContentType, "image/") {
		return domain.Photo{}, fmt.Errorf("%w: cover must be an image, got %q", ErrInvalidInput, cmd.ContentType)
	}
	if cmd.SizeBytes <= 0 || cmd.SizeBytes > a.maxUploadBytes {
		return domain.Photo{}, fmt.Errorf("%w: photo size out of range", ErrInvalidInput)
	}
	if _, ok, err := a.store.GetBook(ctx, bookID); err != nil {
		return domain.Photo{}, fmt.Errorf("load book: %w", err)
	} else if !ok {
		return domain.Photo{}, fmt.Errorf("%w: book %s", ErrNotFound, bookID)
	}

	previous, hadPrevious, err := a.store.GetPhotoByBook(ctx, bookID)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("load existing photo: %w", err)
	}

	photo := domain.Photo{
		ID:          util.NewID(),
		BookID:      bookID,
		ContentType: cmd.ContentType,
		SizeBytes:   cmd.SizeBytes,
	}
	key := storage.CoverKey(bookID, photo.ID)
	photo.URL, err = a.objects.Put(ctx, key, cmd.Content, cmd.SizeBytes, cmd.ContentType)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("store cover object: %w", err)
	}
	if err := a.store.SavePhoto(ctx, photo); err != nil {
		_ = a.objects.Delete(ctx, key)
		return domain.Photo{}, fmt.Errorf("save photo row: %w", err)
	}
	if hadPrevious {
		// Old object is orphaned once the row points at the new one.
		_ = a.objects.Delete(ctx, storage.CoverKey(bookID, previous.ID))
	}
	util.LoggerFromContext(ctx).Info("cover photo attached", "book_id", bookID, "photo_id", photo.ID)
	return photo, nil
}

func (a *App) handleRemovePhoto(ctx context.Context, cmd RemovePhotoCommand) (mediator.Void, error) {
	if a.objects == nil {
		return mediator.Void{}, errors.New("object storage not configured")
	}
	bookID := strings.TrimSpace(cmd.BookID)
	if bookID == "" {
		return mediator.Void{}, fmt.Errorf("%w: book id is required", ErrInvalidInput)
	}
	photo, ok, err := a.store.GetPhotoByBook(ctx, bookID)
	if err != nil {
		return mediator.Void{}, fmt.Errorf("load photo: %w", err)
	}
	if !ok {
		return mediator.Void{}, fmt.Errorf("%w: no photo for book %s", ErrNotFound, bookID)
	}
	if err := a.store.DeletePhotoByBook(ctx, bookID); err != nil {
		return mediator.Void{}, fmt.Errorf("delete photo row: %w", err)
	}
	if err := a.objects.Delete(ctx, storage.CoverKey(bookID, photo.ID)); err != nil {
		util.LoggerFromContext(ctx).Warn("cover object not deleted", "book_id", bookID, "err", err)
	}
	util.LoggerFromContext(ctx).Info("cover photo removed", "book_id", bookID)
	return mediator.Void{}, nil
}

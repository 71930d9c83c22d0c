package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"bookstore/pkg/domain"
	"bookstore/pkg/mail"
	"bookstore/pkg/mediator"
	"bookstore/pkg/paging"
	"bookstore/pkg/queue"
	"bookstore/pkg/storage"
	"bookstore/pkg/store"
	"bookstore/pkg/token"
)

// Event kinds used on the wire when notifications go through the queue.
const (
	eventKindUserCreated   = "user-created"
	eventKindPasswordReset = "password-reset-requested"
	defaultPageSize        = 10
	defaultMaxUploadBytes  = 10 * 1024 * 1024
)

// TokenCodec issues and verifies account security tokens.
type TokenCodec interface {
	token.Generator
	token.Verifier
}

// Config wires the application core.
type Config struct {
	Store   store.Store
	Objects storage.ObjectStore
	Mail    mail.Sender
	Tokens  TokenCodec

	// Queue carries events to the notification workers. Nil means
	// notifications are published synchronously in the caller's request.
	Queue *queue.RedisEventQueue

	PageSize       int
	MaxUploadBytes int64
}

// App is the catalog application core: every command and query is routed
// through the mediator so handlers stay decoupled from the HTTP surface.
type App struct {
	store          store.Store
	objects        storage.ObjectStore
	mail           mail.Sender
	tokens         TokenCodec
	queue          *queue.RedisEventQueue
	m              *mediator.Mediator
	pageSize       int
	maxUploadBytes int64
}

// New constructs the core and registers all handlers.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("app: store is required")
	}
	if cfg.Mail == nil {
		return nil, errors.New("app: mail sender is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("app: token codec is required")
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	a := &App{
		store:          cfg.Store,
		objects:        cfg.Objects,
		mail:           cfg.Mail,
		tokens:         cfg.Tokens,
		queue:          cfg.Queue,
		m:              mediator.New(),
		pageSize:       pageSize,
		maxUploadBytes: maxUpload,
	}

	mediator.Register(a.m, a.handleAddBook)
	mediator.Register(a.m, a.handleUpdateBook)
	mediator.Register(a.m, a.handleBookSale)
	mediator.Register(a.m, a.handleDeleteBook)
	mediator.Register(a.m, a.handleAddRating)
	mediator.Register(a.m, a.handleAddToWishlist)
	mediator.Register(a.m, a.handleRemoveFromWishlist)
	mediator.Register(a.m, a.handleGetWishlist)
	mediator.Register(a.m, a.handleGetBooks)
	mediator.Register(a.m, a.handleGetBooksByCategory)
	mediator.Register(a.m, a.handleGetBooksByName)
	mediator.Register(a.m, a.handleRegister)
	mediator.Register(a.m, a.handleConfirmEmail)
	mediator.Register(a.m, a.handleRequestPasswordReset)
	mediator.Register(a.m, a.handleResetPassword)
	mediator.Register(a.m, a.handleAddPhoto)
	mediator.Register(a.m, a.handleRemovePhoto)

	mediator.Subscribe(a.m, a.handleUserCreated)
	mediator.Subscribe(a.m, a.handlePasswordResetRequested)

	return a, nil
}

// MaxUploadBytes is the photo upload ceiling the server enforces.
func (a *App) MaxUploadBytes() int64 { return a.maxUploadBytes }

// AddBook creates a catalog entry.
func (a *App) AddBook(ctx context.Context, cmd AddBookCommand) error {
	_, err := mediator.Send[mediator.Void](ctx, a.m, cmd)
	return err
}

// UpdateBook edits an existing catalog entry.
func (a *App) UpdateBook(ctx context.Context, cmd UpdateBookCommand) error {
	_, err := mediator.Send[mediator.Void](ctx, a.m, cmd)
	return err
}

// AddBookSale puts a book on sale or takes it off again.
func (a *App) AddBookSale(ctx context.Context, cmd AddBookSaleCommand) error {
	_, err := mediator.Send[mediator.Void](ctx, a.m, cmd)
	return err
}

// DeleteBook removes a catalog entry with everything attached to it.
func (a *App) DeleteBook(ctx context.Context, cmd DeleteBookCommand) error {
	_, err := mediator.Send[mediator.Void](ctx, a.m, cmd)
	return err
}

// AddToWishlist saves a book on the user's wishlist.
func (a *App) AddToWishlist(ctx context.Context, cmd AddToWishlistCommand) error {
	_, err := mediator.Send[mediator.Void](ctx, a.m, cmd)
	return err
}

// RemoveFromWishlist takes a book off the user's wishlist.
func (a *App) RemoveFromWishlist(ctx context.Context, cmd RemoveFromWishlistCommand) error {
	_, err := mediator.Send[mediator.Void](ctx, a.m, cmd)
	return err
}

// Wishlist lists the user's saved books.
func (a *App) Wishlist(ctx context.Context, userID string) ([]domain.Book, error) {
	return mediator.Send[[]domain.Book](ctx, a.m, GetWishlistQuery{UserID: userID})
}

// AddRating records or replaces a user's rating.
func (a *App) AddRating(ctx context.Context, cmd AddRatingCommand) error {
	_, err := mediator.Send[mediator.Void](ctx, a.m, cmd)
	return err
}

// GetBooks lists the catalog page.
func (a *App) GetBooks(ctx context.Context, page int) (paging.PagedList[domain.BookView], error) {
	return mediator.Send[paging.PagedList[domain.BookView]](ctx, a.m, GetBooksQuery{Page: page})
}

// GetBooksByCategory lists one category's page.
func (a *App) GetBooksByCategory(ctx context.Context, categoryID string, page int) (paging.PagedList[domain.BookView], error) {
	return mediator.Send[paging.PagedList[domain.BookView]](ctx, a.m, GetBooksByCategoryQuery{CategoryID: categoryID, Page: page})
}

// GetBooksByName lists books matching the name pattern.
func (a *App) GetBooksByName(ctx context.Context, name string, page int) (paging.PagedList[domain.BookView], error) {
	return mediator.Send[paging.PagedList[domain.BookView]](ctx, a.m, GetBooksByNameQuery{Name: name, Page: page})
}

// Register creates an account and publishes UserCreated.
func (a *App) Register(ctx context.Context, cmd RegisterCommand) error {
	_, err := mediator.Send[mediator.Void](ctx, a.m, cmd)
	return err
}

// ConfirmEmail consumes a confirmation token.
func (a *App) ConfirmEmail(ctx context.Context, cmd ConfirmEmailCommand) error {
	_, err := mediator.Send[mediator.Void](ctx, a.m, cmd)
	return err
}

// RequestPasswordReset publishes PasswordResetRequested.
func (a *App) RequestPasswordReset(ctx context.Context, cmd RequestPasswordResetCommand) error {
	_, err := mediator.Send[mediator.Void](ctx, a.m, cmd)
	return err
}

// ResetPassword consumes a reset token and replaces the password.
func (a *App) ResetPassword(ctx context.Context, cmd ResetPasswordCommand) error {
	_, err := mediator.Send[mediator.Void](ctx, a.m, cmd)
	return err
}

// AddPhoto attaches a cover photo to a book.
func (a *App) AddPhoto(ctx context.Context, cmd AddPhotoCommand) (domain.Photo, error) {
	return mediator.Send[domain.Photo](ctx, a.m, cmd)
}

// RemovePhoto detaches a book's cover photo.
func (a *App) RemovePhoto(ctx context.Context, cmd RemovePhotoCommand) error {
	_, err := mediator.Send[mediator.Void](ctx, a.m, cmd)
	return err
}

// publishEvent hands a committed event to the notification path. With a
// queue configured the event is serialized onto the stream and handled by a
// worker; otherwise subscribers run inline and their error surfaces to the
// caller. Either way the originating state change is already committed.
func (a *App) publishEvent(ctx context.Context, kind string, event any) error {
	if a.queue != nil {
		if _, err := a.queue.Enqueue(ctx, kind, event); err != nil {
			return fmt.Errorf("enqueue %s: %w", kind, err)
		}
		return nil
	}
	return a.m.Publish(ctx, event)
}

// StartWorkers launches queue consumers that dispatch events to the same
// subscribers the sync path uses. No-op without a queue.
func (a *App) StartWorkers(ctx context.Context, concurrency int) {
	if a.queue == nil {
		return
	}
	a.queue.Start(ctx, concurrency, a.dispatchEnvelope)
}

func (a *App) dispatchEnvelope(ctx context.Context, env queue.Envelope) error {
	var event any
	switch env.Kind {
	case eventKindUserCreated:
		var e domain.UserCreated
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return fmt.Errorf("%w: decode %s: %s", queue.ErrPermanent, env.Kind, err)
		}
		event = e
	case eventKindPasswordReset:
		var e domain.PasswordResetRequested
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return fmt.Errorf("%w: decode %s: %s", queue.ErrPermanent, env.Kind, err)
		}
		event = e
	default:
		// Unknown kinds are logged and dropped rather than retried forever.
		slog.Warn("unknown event kind", "kind", env.Kind, "event_id", env.ID)
		return nil
	}
	if err := a.m.Publish(ctx, event); err != nil {
		// A missing user or an unconfirmed address will not improve with a
		// retry; only transport-level failures are worth another attempt.
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrMailNotConfirmed) {
			return fmt.Errorf("%w: %s", queue.ErrPermanent, err)
		}
		return err
	}
	return nil
}

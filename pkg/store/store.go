package store

import (
	"context"

	"bookstore/pkg/domain"
	"bookstore/pkg/paging"
)

// BookFilter narrows the catalog view. Zero value means no filtering.
type BookFilter struct {
	CategoryID   string
	NameContains string
}

// Store defines persistence operations for the catalog and its users.
//
// Each mutating call is its own unit of work: the implementation groups the
// writes in one transaction and either commits them all or leaves no trace.
// A Store handle is safe for concurrent use across requests, but a single
// transaction inside it is not shared between goroutines.
type Store interface {
	// users — rows are created by the account surface and only read by the
	// catalog core.
	SaveUser(ctx context.Context, user domain.User) error
	GetUserByID(ctx context.Context, id string) (domain.User, bool, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, bool, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, bool, error)
	SetEmailConfirmed(ctx context.Context, userID string) error
	SetPasswordHash(ctx context.Context, userID, hash string) error

	// catalog
	HasBook(ctx context.Context, name, authorName, authorSurname string) (bool, error)
	GetBook(ctx context.Context, id string) (domain.Book, bool, error)
	GetAuthor(ctx context.Context, id string) (domain.Author, bool, error)
	GetAuthorByName(ctx context.Context, name, surname string) (domain.Author, bool, error)
	GetCategoryByName(ctx context.Context, name string) (domain.Category, bool, error)
	HasCategory(ctx context.Context, id string) (bool, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// CreateBook persists the book together with any newly built author or
	// category in one transaction. newAuthor and newCategory are nil when
	// the book references existing rows; a freshly built entity is never
	// visible before the book it belongs to commits.
	CreateBook(ctx context.Context, book domain.Book, newAuthor *domain.Author, newCategory *domain.Category) error

	// UpdateBook persists changes to an existing book row.
	UpdateBook(ctx context.Context, book domain.Book) error

	// DeleteBook removes the book together with its ratings, wishlist
	// entries and photo row in one transaction. The cover object itself is
	// the caller's to clean up.
	DeleteBook(ctx context.Context, bookID string) error

	// wishlist — AddToWishlist is idempotent; RemoveFromWishlist reports
	// whether an entry was actually removed.
	AddToWishlist(ctx context.Context, userID, bookID string) error
	RemoveFromWishlist(ctx context.Context, userID, bookID string) (bool, error)
	WishlistBooks(ctx context.Context, userID string) ([]domain.Book, error)

	// ratings
	GetRating(ctx context.Context, userID, bookID string) (domain.Rating, bool, error)
	SaveRating(ctx context.Context, rating domain.Rating) error

	// photos
	SavePhoto(ctx context.Context, photo domain.Photo) error
	GetPhotoByBook(ctx context.Context, bookID string) (domain.Photo, bool, error)
	DeletePhotoByBook(ctx context.Context, bookID string) error

	// BookViews exposes the filtered, price-ordered read model as a
	// paginatable source.
	BookViews(filter BookFilter) paging.Source[domain.BookView]
}

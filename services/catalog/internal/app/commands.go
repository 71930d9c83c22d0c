package app

import "io"

// AddBookCommand creates a catalog entry, building its author and category
// on first sight.
type AddBookCommand struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	SalePrice     float64 `json:"salePrice"`
	Sale          bool    `json:"sale"`
	AuthorName    string  `json:"authorName"`
	AuthorSurname string  `json:"authorSurname"`
	CategoryName  string  `json:"categoryName"`
}

// UpdateBookCommand edits a book's name and price. The author is part of the
// book's identity and cannot change.
type UpdateBookCommand struct {
	BookID string  `json:"bookId"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
}

// AddBookSaleCommand puts a book on sale at the given price, or takes it off
// sale again.
type AddBookSaleCommand struct {
	BookID    string  `json:"bookId"`
	SalePrice float64 `json:"salePrice"`
	Sale      bool    `json:"sale"`
}

// DeleteBookCommand removes a book together with its ratings, wishlist
// entries and cover photo.
type DeleteBookCommand struct {
	BookID string `json:"bookId"`
}

// AddToWishlistCommand saves a book on a user's wishlist. Adding a book that
// is already saved is a no-op.
type AddToWishlistCommand struct {
	UserID string `json:"userId"`
	BookID string `json:"bookId"`
}

// RemoveFromWishlistCommand takes a book off a user's wishlist.
type RemoveFromWishlistCommand struct {
	UserID string `json:"userId"`
	BookID string `json:"bookId"`
}

// GetWishlistQuery lists a user's saved books in the order they were added.
type GetWishlistQuery struct {
	UserID string
}

// AddRatingCommand records or replaces one user's rating of a book.
type AddRatingCommand struct {
	UserID string `json:"userId"`
	BookID string `json:"bookId"`
	Stars  int    `json:"stars"`
}

// GetBooksQuery lists the whole catalog, one page at a time.
type GetBooksQuery struct {
	Page int
}

// GetBooksByCategoryQuery lists books in one category.
type GetBooksByCategoryQuery struct {
	CategoryID string
	Page       int
}

// GetBooksByNameQuery lists books whose name contains the pattern,
// case-insensitively.
type GetBooksByNameQuery struct {
	Name string
	Page int
}

// RegisterCommand creates an account and triggers the confirmation email.
// BaseURL is the external URL the confirmation link is built against.
type RegisterCommand struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	BaseURL  string `json:"-"`
}

// ConfirmEmailCommand marks the account's email as confirmed.
type ConfirmEmailCommand struct {
	UserID string
	Token  string
}

// RequestPasswordResetCommand triggers the reset email.
type RequestPasswordResetCommand struct {
	Email   string `json:"email"`
	BaseURL string `json:"-"`
}

// ResetPasswordCommand replaces the password using a reset token.
type ResetPasswordCommand struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// AddPhotoCommand attaches a cover photo to a book, replacing any previous
// one.
type AddPhotoCommand struct {
	BookID      string
	Content     io.Reader
	ContentType string
	SizeBytes   int64
}

// RemovePhotoCommand detaches and deletes a book's cover photo.
type RemovePhotoCommand struct {
	BookID string
}

package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID             string    `gorm:"primaryKey"`
	Username       string    `gorm:"uniqueIndex;not null"`
	Email          string    `gorm:"uniqueIndex;not null"`
	EmailConfirmed bool      `gorm:"not null"`
	PasswordHash   string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time
}

type AuthorModel struct {
	ID      string `gorm:"primaryKey"`
	Name    string `gorm:"not null;uniqueIndex:idx_author_name_surname"`
	Surname string `gorm:"not null;uniqueIndex:idx_author_name_surname"`
}

type CategoryModel struct {
	ID   string `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

type BookModel struct {
	ID         string    `gorm:"primaryKey"`
	Name       string    `gorm:"not null;uniqueIndex:idx_book_name_author"`
	Price      float64   `gorm:"not null;index"`
	SalePrice  float64
	Sale       bool
	AuthorID   string    `gorm:"not null;index;uniqueIndex:idx_book_name_author"`
	CategoryID string    `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time
}

type RatingModel struct {
	ID     string `gorm:"primaryKey"`
	UserID string `gorm:"not null;uniqueIndex:idx_rating_user_book"`
	BookID string `gorm:"not null;uniqueIndex:idx_rating_user_book;index"`
	Stars  int    `gorm:"not null"`
}

type PhotoModel struct {
	ID     string         `gorm:"primaryKey"`
	BookID string         `gorm:"uniqueIndex;not null"`
	URL    string         `gorm:"not null"`
	Meta   datatypes.JSON `gorm:"type:jsonb"`
}

// WishlistItemModel links a user to a book they saved for later. The pair is
// the identity; duplicates are impossible by construction.
type WishlistItemModel struct {
	UserID    string    `gorm:"primaryKey"`
	BookID    string    `gorm:"primaryKey;index"`
	CreatedAt time.Time `gorm:"not null"`
}

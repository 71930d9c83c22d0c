package domain

import "time"

type Book struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	SalePrice  float64   `json:"salePrice,omitempty"`
	Sale       bool      `json:"sale"`
	AuthorID   string    `json:"authorId"`
	CategoryID string    `json:"categoryId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Author struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Rating struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	BookID string `json:"bookId"`
	Stars  int    `json:"stars"`
}

// Photo is a cover image reference; the bytes live in object storage.
type Photo struct {
	ID          string `json:"id"`
	BookID      string `json:"bookId"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	EmailConfirmed bool      `json:"emailConfirmed"`
	PasswordHash   string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// BookView is the read model served by catalog queries.
type BookView struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	AverageRating float64 `json:"averageRating"`
	AuthorName    string  `json:"authorName"`
	AuthorSurname string  `json:"authorSurname,omitempty"`
	CategoryName  string  `json:"categoryName"`
	SalePrice     float64 `json:"salePrice,omitempty"`
	Sale          bool    `json:"sale"`
	PhotoURL      string  `json:"photoUrl,omitempty"`
}

package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookstore/internal/util"
	"bookstore/pkg/domain"
	"bookstore/pkg/mediator"
)

func (a *App) handleAddBook(ctx context.Context, cmd AddBookCommand) (mediator.Void, error) {
	name := strings.TrimSpace(cmd.Name)
	authorName := strings.TrimSpace(cmd.AuthorName)
	authorSurname := strings.TrimSpace(cmd.AuthorSurname)
	categoryName := strings.TrimSpace(cmd.CategoryName)
	if name == "" {
		return mediator.Void{}, fmt.Errorf("%w: book name is required", ErrInvalidInput)
	}
	if authorName == "" {
		return mediator.Void{}, fmt.Errorf("%w: author name is required", ErrInvalidInput)
	}
	if categoryName == "" {
		return mediator.Void{}, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	if cmd.Price < 0 || cmd.SalePrice < 0 {
		return mediator.Void{}, fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}

	exists, err := a.store.HasBook(ctx, name, authorName, authorSurname)
	if err != nil {
		return mediator.Void{}, fmt.Errorf("check book existence: %w", err)
	}
	if exists {
		return mediator.Void{}, fmt.Errorf("%w: %q by %s %s", ErrBookExists, name, authorName, authorSurname)
	}

	// Reuse the author and category when they already exist; otherwise they
	// are built here and committed together with the book.
	var newAuthor *domain.Author
	author, ok, err := a.store.GetAuthorByName(ctx, authorName, authorSurname)
	if err != nil {
		return mediator.Void{}, fmt.Errorf("resolve author: %w", err)
	}
	if !ok {
		author = domain.Author{ID: util.NewID(), Name: authorName, Surname: authorSurname}
		newAuthor = &author
	}

	var newCategory *domain.Category
	category, ok, err := a.store.GetCategoryByName(ctx, categoryName)
	if err != nil {
		return mediator.Void{}, fmt.Errorf("resolve category: %w", err)
	}
	if !ok {
		category = domain.Category{ID: util.NewID(), Name: categoryName}
		newCategory = &category
	}

	now := time.Now().UTC()
	book := domain.Book{
		ID:         util.NewID(),
		Name:       name,
		Price:      cmd.Price,
		SalePrice:  cmd.SalePrice,
		Sale:       cmd.Sale,
		AuthorID:   author.ID,
		CategoryID: category.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := a.store.CreateBook(ctx, book, newAuthor, newCategory); err != nil {
		util.LoggerFromContext(ctx).Error("create book failed", "name", name, "err", err)
		return mediator.Void{}, fmt.Errorf("create book: %w", err)
	}
	util.LoggerFromContext(ctx).Info("book created",
		"book_id", book.ID, "name", name, "author", authorName+" "+authorSurname)
	return mediator.Void{}, nil
}

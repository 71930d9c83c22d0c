package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"bookstore/pkg/domain"
	"bookstore/pkg/paging"
)

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]domain.User
	authors    map[string]domain.Author
	categories map[string]domain.Category
	books      map[string]domain.Book
	ratings    map[string]domain.Rating // keyed userID|bookID
	photos     map[string]domain.Photo  // keyed bookID
	wishlists  map[string][]string      // userID -> book IDs in insertion order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]domain.User),
		authors:    make(map[string]domain.Author),
		categories: make(map[string]domain.Category),
		books:      make(map[string]domain.Book),
		ratings:    make(map[string]domain.Rating),
		photos:     make(map[string]domain.Photo),
		wishlists:  make(map[string][]string),
	}
}

func (s *MemoryStore) SaveUser(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (s *MemoryStore) SetEmailConfirmed(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s not found", userID)
	}
	u.EmailConfirmed = true
	s.users[userID] = u
	return nil
}

func (s *MemoryStore) SetPasswordHash(_ context.Context, userID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s not found", userID)
	}
	u.PasswordHash = hash
	s.users[userID] = u
	return nil
}

func (s *MemoryStore) HasBook(_ context.Context, name, authorName, authorSurname string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.books {
		if b.Name != name {
			continue
		}
		a, ok := s.authors[b.AuthorID]
		if ok && a.Name == authorName && a.Surname == authorSurname {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) GetBook(_ context.Context, id string) (domain.Book, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	return b, ok, nil
}

func (s *MemoryStore) GetAuthor(_ context.Context, id string) (domain.Author, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.authors[id]
	return a, ok, nil
}

func (s *MemoryStore) GetAuthorByName(_ context.Context, name, surname string) (domain.Author, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.authors {
		if a.Name == name && a.Surname == surname {
			return a, true, nil
		}
	}
	return domain.Author{}, false, nil
}

func (s *MemoryStore) GetCategoryByName(_ context.Context, name string) (domain.Category, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.Name == name {
			return c, true, nil
		}
	}
	return domain.Category{}, false, nil
}

func (s *MemoryStore) HasCategory(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.categories[id]
	return ok, nil
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (s *MemoryStore) CreateBook(_ context.Context, book domain.Book, newAuthor *domain.Author, newCategory *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.books[book.ID]; exists {
		return fmt.Errorf("book %s already exists", book.ID)
	}
	if newAuthor != nil {
		s.authors[newAuthor.ID] = *newAuthor
	}
	if newCategory != nil {
		s.categories[newCategory.ID] = *newCategory
	}
	s.books[book.ID] = book
	return nil
}

func (s *MemoryStore) UpdateBook(_ context.Context, book domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[book.ID]; !ok {
		return fmt.Errorf("book %s not found", book.ID)
	}
	s.books[book.ID] = book
	return nil
}

func (s *MemoryStore) DeleteBook(_ context.Context, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.books, bookID)
	delete(s.photos, bookID)
	for key, r := range s.ratings {
		if r.BookID == bookID {
			delete(s.ratings, key)
		}
	}
	for userID, ids := range s.wishlists {
		kept := ids[:0]
		for _, id := range ids {
			if id != bookID {
				kept = append(kept, id)
			}
		}
		s.wishlists[userID] = kept
	}
	return nil
}

func (s *MemoryStore) AddToWishlist(_ context.Context, userID, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.wishlists[userID] {
		if id == bookID {
			return nil
		}
	}
	s.wishlists[userID] = append(s.wishlists[userID], bookID)
	return nil
}

func (s *MemoryStore) RemoveFromWishlist(_ context.Context, userID, bookID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.wishlists[userID]
	for i, id := range ids {
		if id == bookID {
			s.wishlists[userID] = append(ids[:i], ids[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) WishlistBooks(_ context.Context, userID string) ([]domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	books := make([]domain.Book, 0, len(s.wishlists[userID]))
	for _, id := range s.wishlists[userID] {
		if b, ok := s.books[id]; ok {
			books = append(books, b)
		}
	}
	return books, nil
}

func (s *MemoryStore) GetRating(_ context.Context, userID, bookID string) (domain.Rating, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ratings[userID+"|"+bookID]
	return r, ok, nil
}

func (s *MemoryStore) SaveRating(_ context.Context, rating domain.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rating.UserID + "|" + rating.BookID
	if existing, ok := s.ratings[key]; ok {
		existing.Stars = rating.Stars
		s.ratings[key] = existing
		return nil
	}
	s.ratings[key] = rating
	return nil
}

func (s *MemoryStore) SavePhoto(_ context.Context, photo domain.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos[photo.BookID] = photo
	return nil
}

func (s *MemoryStore) GetPhotoByBook(_ context.Context, bookID string) (domain.Photo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.photos[bookID]
	return p, ok, nil
}

func (s *MemoryStore) DeletePhotoByBook(_ context.Context, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.photos, bookID)
	return nil
}

func (s *MemoryStore) BookViews(filter BookFilter) paging.Source[domain.BookView] {
	return &memoryViewSource{store: s, filter: filter}
}

// RatingCount reports how many rating rows exist; test helper.
func (s *MemoryStore) RatingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ratings)
}

// BookCount reports how many book rows exist; test helper.
func (s *MemoryStore) BookCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// FindBookByName returns the first book with the given name; test helper.
func (s *MemoryStore) FindBookByName(name string) (domain.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.books {
		if b.Name == name {
			return b, true
		}
	}
	return domain.Book{}, false
}

// AuthorCount reports how many author rows exist; test helper.
func (s *MemoryStore) AuthorCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.authors)
}

// CategoryCount reports how many category rows exist; test helper.
func (s *MemoryStore) CategoryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.categories)
}

type memoryViewSource struct {
	store  *MemoryStore
	filter BookFilter
}

func (src *memoryViewSource) Ordered() bool { return true }

func (src *memoryViewSource) matching() []domain.Book {
	var books []domain.Book
	for _, b := range src.store.books {
		if src.filter.CategoryID != "" && b.CategoryID != src.filter.CategoryID {
			continue
		}
		if src.filter.NameContains != "" &&
			!strings.Contains(strings.ToLower(b.Name), strings.ToLower(src.filter.NameContains)) {
			continue
		}
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool {
		if books[i].Price != books[j].Price {
			return books[i].Price < books[j].Price
		}
		return books[i].ID < books[j].ID
	})
	return books
}

func (src *memoryViewSource) Count(context.Context) (int, error) {
	src.store.mu.RLock()
	defer src.store.mu.RUnlock()
	return len(src.matching()), nil
}

func (src *memoryViewSource) Slice(_ context.Context, offset, limit int) ([]domain.BookView, error) {
	src.store.mu.RLock()
	defer src.store.mu.RUnlock()
	books := src.matching()
	if offset >= len(books) {
		return []domain.BookView{}, nil
	}
	end := offset + limit
	if end > len(books) {
		end = len(books)
	}
	views := make([]domain.BookView, 0, end-offset)
	for _, b := range books[offset:end] {
		view := domain.BookView{
			Name:      b.Name,
			Price:     b.Price,
			SalePrice: b.SalePrice,
			Sale:      b.Sale,
		}
		if a, ok := src.store.authors[b.AuthorID]; ok {
			view.AuthorName = a.Name
			view.AuthorSurname = a.Surname
		}
		if c, ok := src.store.categories[b.CategoryID]; ok {
			view.CategoryName = c.Name
		}
		if p, ok := src.store.photos[b.ID]; ok {
			view.PhotoURL = p.URL
		}
		var sum, n int
		for _, r := range src.store.ratings {
			if r.BookID == b.ID {
				sum += r.Stars
				n++
			}
		}
		if n > 0 {
			view.AverageRating = RoundRating(float64(sum) / float64(n))
		}
		views = append(views, view)
	}
	return views, nil
}

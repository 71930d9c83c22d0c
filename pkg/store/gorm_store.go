package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"bookstore/pkg/domain"
	"bookstore/pkg/paging"
)

const migrateLockID int64 = 52105210

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&UserModel{},
			&AuthorModel{},
			&CategoryModel{},
			&BookModel{},
			&RatingModel{},
			&PhotoModel{},
			&WishlistItemModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(ctx context.Context, u domain.User) error {
	model := userToModel(u)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "email", "email_confirmed", "password_hash", "updated_at"}),
	}).Create(&model).Error
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(ctx context.Context, id string) (domain.User, bool, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByUsername looks up a user by username.
func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (domain.User, bool, error) {
	return s.getUser(ctx, "username = ?", username)
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	return s.getUser(ctx, "email = ?", email)
}

func (s *GormStore) getUser(ctx context.Context, cond string, arg any) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, cond, arg).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// SetEmailConfirmed marks the user's email address as verified.
func (s *GormStore) SetEmailConfirmed(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"email_confirmed": true,
			"updated_at":      time.Now().UTC(),
		}).Error
}

// SetPasswordHash replaces the user's stored credential hash.
func (s *GormStore) SetPasswordHash(ctx context.Context, userID, hash string) error {
	return s.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"password_hash": hash,
			"updated_at":    time.Now().UTC(),
		}).Error
}

// HasBook reports whether a book with this name by this author exists.
func (s *GormStore) HasBook(ctx context.Context, name, authorName, authorSurname string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&BookModel{}).
		Joins("JOIN author_models a ON a.id = book_models.author_id").
		Where("book_models.name = ? AND a.name = ? AND a.surname = ?", name, authorName, authorSurname).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetBook retrieves a book.
func (s *GormStore) GetBook(ctx context.Context, id string) (domain.Book, bool, error) {
	var model BookModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, err
	}
	return bookFromModel(model), true, nil
}

// GetAuthor returns an author by ID.
func (s *GormStore) GetAuthor(ctx context.Context, id string) (domain.Author, bool, error) {
	var model AuthorModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Author{}, false, nil
		}
		return domain.Author{}, false, err
	}
	return domain.Author{ID: model.ID, Name: model.Name, Surname: model.Surname}, true, nil
}

// GetAuthorByName looks up an author by natural identity.
func (s *GormStore) GetAuthorByName(ctx context.Context, name, surname string) (domain.Author, bool, error) {
	var model AuthorModel
	if err := s.db.WithContext(ctx).First(&model, "name = ? AND surname = ?", name, surname).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Author{}, false, nil
		}
		return domain.Author{}, false, err
	}
	return domain.Author{ID: model.ID, Name: model.Name, Surname: model.Surname}, true, nil
}

// GetCategoryByName looks up a category by name.
func (s *GormStore) GetCategoryByName(ctx context.Context, name string) (domain.Category, bool, error) {
	var model CategoryModel
	if err := s.db.WithContext(ctx).First(&model, "name = ?", name).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Category{}, false, nil
		}
		return domain.Category{}, false, err
	}
	return domain.Category{ID: model.ID, Name: model.Name}, true, nil
}

// HasCategory reports whether the category id exists.
func (s *GormStore) HasCategory(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&CategoryModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListCategories returns all categories ordered by name.
func (s *GormStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var models []CategoryModel
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Category, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Category{ID: m.ID, Name: m.Name})
	}
	return res, nil
}

// CreateBook inserts the book and any newly built author or category in one
// transaction. Nothing is visible unless the whole set commits.
func (s *GormStore) CreateBook(ctx context.Context, book domain.Book, newAuthor *domain.Author, newCategory *domain.Category) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if newAuthor != nil {
			model := AuthorModel{ID: newAuthor.ID, Name: newAuthor.Name, Surname: newAuthor.Surname}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("create author: %w", err)
			}
		}
		if newCategory != nil {
			model := CategoryModel{ID: newCategory.ID, Name: newCategory.Name}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("create category: %w", err)
			}
		}
		model := bookToModel(book)
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("create book: %w", err)
		}
		return nil
	})
}

// UpdateBook writes the mutable book columns; the row must already exist.
func (s *GormStore) UpdateBook(ctx context.Context, book domain.Book) error {
	return s.db.WithContext(ctx).Model(&BookModel{}).
		Where("id = ?", book.ID).
		Updates(map[string]any{
			"name":       book.Name,
			"price":      book.Price,
			"sale_price": book.SalePrice,
			"sale":       book.Sale,
			"updated_at": book.UpdatedAt,
		}).Error
}

// DeleteBook removes the book and everything hanging off it in one
// transaction.
func (s *GormStore) DeleteBook(ctx context.Context, bookID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&RatingModel{}, "book_id = ?", bookID).Error; err != nil {
			return fmt.Errorf("delete ratings: %w", err)
		}
		if err := tx.Delete(&WishlistItemModel{}, "book_id = ?", bookID).Error; err != nil {
			return fmt.Errorf("delete wishlist entries: %w", err)
		}
		if err := tx.Delete(&PhotoModel{}, "book_id = ?", bookID).Error; err != nil {
			return fmt.Errorf("delete photo: %w", err)
		}
		if err := tx.Delete(&BookModel{}, "id = ?", bookID).Error; err != nil {
			return fmt.Errorf("delete book: %w", err)
		}
		return nil
	})
}

// AddToWishlist inserts the pair; a pair already present is left alone.
func (s *GormStore) AddToWishlist(ctx context.Context, userID, bookID string) error {
	item := WishlistItemModel{UserID: userID, BookID: bookID, CreatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error
}

// RemoveFromWishlist deletes the pair and reports whether it existed.
func (s *GormStore) RemoveFromWishlist(ctx context.Context, userID, bookID string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&WishlistItemModel{}, "user_id = ? AND book_id = ?", userID, bookID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// WishlistBooks returns the user's saved books in the order they were added.
func (s *GormStore) WishlistBooks(ctx context.Context, userID string) ([]domain.Book, error) {
	var models []BookModel
	err := s.db.WithContext(ctx).
		Joins("JOIN wishlist_item_models w ON w.book_id = book_models.id").
		Where("w.user_id = ?", userID).
		Order("w.created_at ASC, book_models.id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	books := make([]domain.Book, 0, len(models))
	for _, m := range models {
		books = append(books, bookFromModel(m))
	}
	return books, nil
}

// GetRating returns the rating one user gave one book.
func (s *GormStore) GetRating(ctx context.Context, userID, bookID string) (domain.Rating, bool, error) {
	var model RatingModel
	if err := s.db.WithContext(ctx).First(&model, "user_id = ? AND book_id = ?", userID, bookID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Rating{}, false, nil
		}
		return domain.Rating{}, false, err
	}
	return ratingFromModel(model), true, nil
}

// SaveRating upserts on the (user, book) natural key so a second submission
// mutates the existing row instead of inserting a duplicate.
func (s *GormStore) SaveRating(ctx context.Context, rating domain.Rating) error {
	model := RatingModel{ID: rating.ID, UserID: rating.UserID, BookID: rating.BookID, Stars: rating.Stars}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"stars"}),
	}).Create(&model).Error
}

// SavePhoto upserts the cover photo reference for a book.
func (s *GormStore) SavePhoto(ctx context.Context, photo domain.Photo) error {
	model, err := photoToModel(photo)
	if err != nil {
		return err
	}
	// The photo id changes on replacement; the object key is derived from it,
	// so the row must follow the new id.
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"id", "url", "meta"}),
	}).Create(&model).Error
}

// GetPhotoByBook returns the cover photo reference for a book.
func (s *GormStore) GetPhotoByBook(ctx context.Context, bookID string) (domain.Photo, bool, error) {
	var model PhotoModel
	if err := s.db.WithContext(ctx).First(&model, "book_id = ?", bookID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Photo{}, false, nil
		}
		return domain.Photo{}, false, err
	}
	photo, err := photoFromModel(model)
	if err != nil {
		return domain.Photo{}, false, err
	}
	return photo, true, nil
}

// DeletePhotoByBook removes the cover photo reference for a book.
func (s *GormStore) DeletePhotoByBook(ctx context.Context, bookID string) error {
	return s.db.WithContext(ctx).Delete(&PhotoModel{}, "book_id = ?", bookID).Error
}

// BookViews returns the filtered read model ordered by price then id, the
// stable secondary key that keeps pagination deterministic across price ties.
func (s *GormStore) BookViews(filter BookFilter) paging.Source[domain.BookView] {
	return &bookViewSource{db: s.db, filter: filter}
}

type bookViewSource struct {
	db     *gorm.DB
	filter BookFilter
}

func (src *bookViewSource) Ordered() bool { return true }

func (src *bookViewSource) base(ctx context.Context) *gorm.DB {
	q := src.db.WithContext(ctx).Table("book_models AS b").
		Joins("JOIN author_models a ON a.id = b.author_id").
		Joins("JOIN category_models c ON c.id = b.category_id")
	if src.filter.CategoryID != "" {
		q = q.Where("b.category_id = ?", src.filter.CategoryID)
	}
	if src.filter.NameContains != "" {
		q = q.Where("b.name ILIKE ?", "%"+src.filter.NameContains+"%")
	}
	return q
}

func (src *bookViewSource) Count(ctx context.Context) (int, error) {
	var count int64
	if err := src.base(ctx).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

type bookViewRow struct {
	Name          string
	Price         float64
	SalePrice     float64
	Sale          bool
	AuthorName    string
	AuthorSurname string
	CategoryName  string
	PhotoURL      sql.NullString
	AvgStars      sql.NullFloat64
}

func (src *bookViewSource) Slice(ctx context.Context, offset, limit int) ([]domain.BookView, error) {
	var rows []bookViewRow
	err := src.base(ctx).
		Select(`b.name, b.price, b.sale_price, b.sale,
			a.name AS author_name, a.surname AS author_surname,
			c.name AS category_name, p.url AS photo_url,
			AVG(r.stars) AS avg_stars`).
		Joins("LEFT JOIN rating_models r ON r.book_id = b.id").
		Joins("LEFT JOIN photo_models p ON p.book_id = b.id").
		Group("b.id, b.name, b.price, b.sale_price, b.sale, a.name, a.surname, c.name, p.url").
		Order("b.price ASC, b.id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	views := make([]domain.BookView, 0, len(rows))
	for _, row := range rows {
		view := domain.BookView{
			Name:          row.Name,
			Price:         row.Price,
			SalePrice:     row.SalePrice,
			Sale:          row.Sale,
			AuthorName:    row.AuthorName,
			AuthorSurname: row.AuthorSurname,
			CategoryName:  row.CategoryName,
		}
		if row.PhotoURL.Valid {
			view.PhotoURL = row.PhotoURL.String
		}
		if row.AvgStars.Valid {
			view.AverageRating = RoundRating(row.AvgStars.Float64)
		}
		views = append(views, view)
	}
	return views, nil
}

// RoundRating rounds an average star value to one decimal place.
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmed,
		PasswordHash:   u.PasswordHash,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:             m.ID,
		Username:       m.Username,
		Email:          m.Email,
		EmailConfirmed: m.EmailConfirmed,
		PasswordHash:   m.PasswordHash,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func bookToModel(b domain.Book) BookModel {
	return BookModel{
		ID:         b.ID,
		Name:       b.Name,
		Price:      b.Price,
		SalePrice:  b.SalePrice,
		Sale:       b.Sale,
		AuthorID:   b.AuthorID,
		CategoryID: b.CategoryID,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func bookFromModel(m BookModel) domain.Book {
	return domain.Book{
		ID:         m.ID,
		Name:       m.Name,
		Price:      m.Price,
		SalePrice:  m.SalePrice,
		Sale:       m.Sale,
		AuthorID:   m.AuthorID,
		CategoryID: m.CategoryID,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func ratingFromModel(m RatingModel) domain.Rating {
	return domain.Rating{ID: m.ID, UserID: m.UserID, BookID: m.BookID, Stars: m.Stars}
}

type photoMeta struct {
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

func photoToModel(p domain.Photo) (PhotoModel, error) {
	meta, err := json.Marshal(photoMeta{ContentType: p.ContentType, SizeBytes: p.SizeBytes})
	if err != nil {
		return PhotoModel{}, fmt.Errorf("marshal photo meta: %w", err)
	}
	return PhotoModel{ID: p.ID, BookID: p.BookID, URL: p.URL, Meta: meta}, nil
}

func photoFromModel(m PhotoModel) (domain.Photo, error) {
	var meta photoMeta
	if len(m.Meta) > 0 {
		if err := json.Unmarshal(m.Meta, &meta); err != nil {
			return domain.Photo{}, fmt.Errorf("unmarshal photo meta: %w", err)
		}
	}
	return domain.Photo{
		ID:          m.ID,
		BookID:      m.BookID,
		URL:         m.URL,
		ContentType: meta.ContentType,
		SizeBytes:   meta.SizeBytes,
	}, nil
}

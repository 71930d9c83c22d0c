package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bookstore/internal/ratelimit"
	"bookstore/internal/util"
	"bookstore/services/catalog/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App

	// Limiter guards the registration and password-reset endpoints.
	// Nil disables rate limiting.
	Limiter *ratelimit.FixedWindowLimiter

	// TrustedProxies controls which peers may supply forwarded headers
	// when resolving the client IP and the request scheme.
	TrustedProxies *util.TrustedProxies

	// BaseURL, when set, is the external origin account emails link back
	// to. It overrides anything the request claims about itself.
	BaseURL string
}

// Server exposes the catalog and account HTTP endpoints.
type Server struct {
	app     *app.App
	limiter *ratelimit.FixedWindowLimiter
	trusted *util.TrustedProxies
	baseURL string
	mux     *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server: app is required")
	}
	s := &Server{
		app:     cfg.App,
		limiter: cfg.Limiter,
		trusted: cfg.TrustedProxies,
		baseURL: strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler behind the middleware chain.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("catalog", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// catalog queries
	s.mux.HandleFunc("GET /api/Book/{page}", s.handleGetBooks)
	s.mux.HandleFunc("GET /api/Book/Category/{categoryId}/{page}", s.handleGetBooksByCategory)
	s.mux.HandleFunc("GET /api/Book/Name/{name}/{page}", s.handleGetBooksByName)
	s.mux.HandleFunc("GET /api/Category", s.handleListCategories)

	// admin mutations
	s.mux.HandleFunc("POST /api/Admin/Book", s.handleAddBook)
	s.mux.HandleFunc("PUT /api/Admin/Book/Update", s.handleUpdateBook)
	s.mux.HandleFunc("PUT /api/Admin/Book/Sale", s.handleBookSale)
	s.mux.HandleFunc("DELETE /api/Admin/Book/Delete/{bookId}", s.handleDeleteBook)
	s.mux.HandleFunc("POST /api/Admin/Book/Photo/{bookId}", s.handleAddPhoto)
	s.mux.HandleFunc("DELETE /api/Admin/Book/Photo/{bookId}", s.handleRemovePhoto)

	// user actions
	s.mux.HandleFunc("POST /api/User/Book/Rating", s.handleAddRating)
	s.mux.HandleFunc("POST /api/User/Wishlist/Add", s.handleAddToWishlist)
	s.mux.HandleFunc("DELETE /api/User/Wishlist/Remove", s.handleRemoveFromWishlist)
	s.mux.HandleFunc("GET /api/User/Wishlist", s.handleGetWishlist)

	// account surface
	s.mux.HandleFunc("POST /api/Account/register", s.handleRegister)
	s.mux.HandleFunc("GET /api/Account/confirm-email", s.handleConfirmEmail)
	s.mux.HandleFunc("POST /api/Account/request-password-reset", s.handleRequestPasswordReset)
	s.mux.HandleFunc("PUT /api/Account/reset-password", s.handleResetPassword)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetBooks(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(w, r)
	if !ok {
		return
	}
	list, err := s.app.GetBooks(r.Context(), page)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (s *Server) handleGetBooksByCategory(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(w, r)
	if !ok {
		return
	}
	list, err := s.app.GetBooksByCategory(r.Context(), r.PathValue("categoryId"), page)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (s *Server) handleGetBooksByName(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(w, r)
	if !ok {
		return
	}
	list, err := s.app.GetBooksByName(r.Context(), r.PathValue("name"), page)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.app.Categories(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, categories)
}

func (s *Server) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var cmd app.AddBookCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	if err := s.app.AddBook(r.Context(), cmd); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "book created")
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	var cmd app.UpdateBookCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	if err := s.app.UpdateBook(r.Context(), cmd); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "book updated")
}

func (s *Server) handleBookSale(w http.ResponseWriter, r *http.Request) {
	var cmd app.AddBookSaleCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	if err := s.app.AddBookSale(r.Context(), cmd); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "book sale updated")
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	err := s.app.DeleteBook(r.Context(), app.DeleteBookCommand{BookID: r.PathValue("bookId")})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "book deleted")
}

func (s *Server) handleAddToWishlist(w http.ResponseWriter, r *http.Request) {
	err := s.app.AddToWishlist(r.Context(), app.AddToWishlistCommand{
		UserID: r.URL.Query().Get("userId"),
		BookID: r.URL.Query().Get("bookId"),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "book added to wishlist")
}

func (s *Server) handleRemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	err := s.app.RemoveFromWishlist(r.Context(), app.RemoveFromWishlistCommand{
		UserID: r.URL.Query().Get("userId"),
		BookID: r.URL.Query().Get("bookId"),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "book removed from wishlist")
}

func (s *Server) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	books, err := s.app.Wishlist(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, books)
}

func (s *Server) handleAddRating(w http.ResponseWriter, r *http.Request) {
	var cmd app.AddRatingCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	if err := s.app.AddRating(r.Context(), cmd); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "rating saved")
}

func (s *Server) handleAddPhoto(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.app.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024*1024)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	photo, err := s.app.AddPhoto(r.Context(), app.AddPhotoCommand{
		BookID:      r.PathValue("bookId"),
		Content:     file,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, photo)
}

func (s *Server) handleRemovePhoto(w http.ResponseWriter, r *http.Request) {
	err := s.app.RemovePhoto(r.Context(), app.RemovePhotoCommand{BookID: r.PathValue("bookId")})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "photo removed")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, "register") {
		return
	}
	var cmd app.RegisterCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	cmd.BaseURL = s.requestBaseURL(r)
	if err := s.app.Register(r.Context(), cmd); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "registered, confirmation email sent")
}

func (s *Server) handleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	err := s.app.ConfirmEmail(r.Context(), app.ConfirmEmailCommand{
		UserID: r.URL.Query().Get("userId"),
		Token:  r.URL.Query().Get("token"),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "email confirmed")
}

func (s *Server) handleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, "pwreset") {
		return
	}
	var cmd app.RequestPasswordResetCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	cmd.BaseURL = s.requestBaseURL(r)
	if err := s.app.RequestPasswordReset(r.Context(), cmd); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "password reset email sent")
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var cmd app.ResetPasswordCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	if err := s.app.ResetPassword(r.Context(), cmd); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "password reset")
}

// allow enforces the per-IP quota on abuse-prone endpoints.
func (s *Server) allow(w http.ResponseWriter, r *http.Request, scope string) bool {
	if s.limiter == nil {
		return true
	}
	ip := util.ClientIP(r, s.trusted)
	if !s.limiter.Allow(r.Context(), scope+":"+ip) {
		writeMessage(w, http.StatusTooManyRequests, "too many requests")
		return false
	}
	return true
}

func pageParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "page must be a number")
		return 0, false
	}
	return page, true
}

// requestBaseURL yields the base URL account emails link back to. A
// configured public base URL always wins; otherwise the URL is rebuilt from
// the request, honoring X-Forwarded-Proto only when the direct peer is a
// trusted proxy so a forged header cannot steer token links elsewhere.
func (s *Server) requestBaseURL(r *http.Request) string {
	if s.baseURL != "" {
		return s.baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	} else if s.trusted.TrustsRemoteAddr(r.RemoteAddr) &&
		strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

// apiResponse is the uniform envelope every endpoint answers with.
type apiResponse struct {
	Message    string `json:"message,omitempty"`
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	StatusCode int    `json:"statusCode"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, apiResponse{Success: true, Data: data, StatusCode: status})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiResponse{
		Message:    msg,
		Success:    status < http.StatusBadRequest,
		StatusCode: status,
	})
}

// writeAppError maps the domain error taxonomy onto HTTP statuses.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, app.ErrBookExists), errors.Is(err, app.ErrUserExists):
		status = http.StatusConflict
	case errors.Is(err, app.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrMailNotConfirmed):
		status = http.StatusBadRequest
	case errors.Is(err, app.ErrMailNotSent):
		status = http.StatusBadGateway
	default:
		util.LoggerFromContext(r.Context()).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "err", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeMessage(w, status, err.Error())
}

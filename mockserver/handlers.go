package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/readinglist/middleware"
	"github.com/kevinaaaquil/readinglist/models"
	"github.com/sirupsen/logrus"
)

// Store is the persistence behind the server. store.Memory and store.DB
// satisfy it.
type Store interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	CreateBook(ctx context.Context, payload models.BookCreate) (*models.Book, error)
	UpdateBook(ctx context.Context, id int64, patch models.BookUpdate) (*models.Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

type BooksHandler struct {
	Store Store
	Log   logrus.FieldLogger
}

type errorResponse struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.Store.ListBooks(r.Context())
	if err != nil {
		h.fail(w, r, "list books", err)
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	book, err := h.Store.GetBook(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get book", err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.BookCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "invalid json"})
		return
	}
	if !validated(w, models.ValidateCreate(req)) {
		return
	}
	book, err := h.Store.CreateBook(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create book", err)
		return
	}
	h.logger(r).WithField("id", book.ID).Info("book created")
	writeJSON(w, http.StatusCreated, book)
}

// Update applies only the fields present in the body.
func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	var req models.BookUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "invalid json"})
		return
	}
	if !validated(w, models.ValidateUpdate(req)) {
		return
	}
	book, err := h.Store.UpdateBook(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, "update book", err)
		return
	}
	h.logger(r).WithField("id", id).Info("book updated")
	writeJSON(w, http.StatusOK, book)
}

func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteBook(r.Context(), id); err != nil {
		h.fail(w, r, "delete book", err)
		return
	}
	h.logger(r).WithField("id", id).Info("book deleted")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted successfully"})
}

// logger tags entries with the request id and, behind Auth, the caller.
func (h *BooksHandler) logger(r *http.Request) logrus.FieldLogger {
	log := h.Log.WithField("request_id", chimw.GetReqID(r.Context()))
	if uid, ok := middleware.UserIDFromContext(r.Context()); ok {
		log = log.WithField("user_id", uid)
	}
	return log
}

func (h *BooksHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, models.ErrBookNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Book not found"})
		return
	}
	h.logger(r).WithError(err).WithField("op", op).Error("store failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "failed to " + op})
}

func bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "invalid book id"})
		return 0, false
	}
	return id, true
}

func validated(w http.ResponseWriter, err error) bool {
	if err == nil {
		return true
	}
	var fe models.FieldErrors
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: fe.Error(), Errors: fe})
		return false
	}
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

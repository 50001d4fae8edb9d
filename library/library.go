// Package library owns the session's book collection. Every mutation goes to
// the backend first and touches local state only after the backend confirms
// it, so a failed call never leaves a partial change behind.
package library

import (
	"context"
	"errors"
	"sync"

	"github.com/kevinaaaquil/readinglist/loggers"
	"github.com/kevinaaaquil/readinglist/models"
	"github.com/kevinaaaquil/readinglist/service"
	"github.com/sirupsen/logrus"
)

// FetchErrorMessage is what LastError holds after a failed fetch.
const FetchErrorMessage = "Failed to fetch books."

// Backend is the remote store. service.BooksClient, store.Memory and store.DB
// all satisfy it.
type Backend interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	CreateBook(ctx context.Context, payload models.BookCreate) (*models.Book, error)
	UpdateBook(ctx context.Context, id int64, payload models.BookUpdate) (*models.Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

type Library struct {
	backend  Backend
	notifier Notifier
	log      logrus.FieldLogger

	mu        sync.RWMutex
	books     []models.Book
	isLoading bool
	lastError string
	search    string
	filter    models.StatusFilter
}

type Option func(*Library)

func WithNotifier(n Notifier) Option {
	return func(l *Library) { l.notifier = n }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Library) { l.log = log }
}

// New returns a library that is loading until the first Initialize finishes.
func New(backend Backend, opts ...Option) *Library {
	l := &Library{
		backend:   backend,
		log:       loggers.Discard(),
		books:     []models.Book{},
		isLoading: true,
		filter:    models.FilterAll,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.notifier == nil {
		l.notifier = LogNotifier{Log: l.log}
	}
	return l
}

// Initialize replaces the collection with the backend's. A malformed list
// response yields an empty collection and no error; any other failure empties
// the collection, records FetchErrorMessage and returns the error.
func (l *Library) Initialize(ctx context.Context) error {
	l.mu.Lock()
	l.isLoading = true
	l.lastError = ""
	l.mu.Unlock()

	books, err := l.backend.ListBooks(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.isLoading = false

	var malformed *service.MalformedResponseError
	switch {
	case errors.As(err, &malformed):
		l.log.WithError(err).Warn("book list was not an array, showing an empty library")
		l.books = []models.Book{}
		return nil
	case err != nil:
		l.log.WithError(err).Error("fetch books failed")
		l.lastError = FetchErrorMessage
		l.books = []models.Book{}
		return err
	}
	if books == nil {
		books = []models.Book{}
	}
	l.books = books
	return nil
}

// Refresh refetches the whole collection.
func (l *Library) Refresh(ctx context.Context) error {
	return l.Initialize(ctx)
}

// AddBook creates the book remotely and appends the store's entity.
// Payload validation belongs to the caller.
func (l *Library) AddBook(ctx context.Context, payload models.BookCreate) (models.Book, error) {
	created, err := l.backend.CreateBook(ctx, payload)
	if err != nil {
		l.log.WithError(err).Error("add book failed")
		l.notifier.Notify(failure("Failed to add book"))
		return models.Book{}, err
	}

	l.mu.Lock()
	l.books = append(l.books, created.Clone())
	l.mu.Unlock()

	l.notifier.Notify(success("Book added successfully!"))
	return created.Clone(), nil
}

// EditBook swaps in the entity the store returned; nothing is merged locally.
func (l *Library) EditBook(ctx context.Context, id int64, payload models.BookUpdate) error {
	updated, err := l.backend.UpdateBook(ctx, id, payload)
	if err != nil {
		l.log.WithError(err).WithField("id", id).Error("update book failed")
		l.notifier.Notify(failure("Failed to update book"))
		return err
	}

	l.mu.Lock()
	next := make([]models.Book, len(l.books))
	for i, b := range l.books {
		if b.ID == id {
			next[i] = updated.Clone()
			continue
		}
		next[i] = b
	}
	l.books = next
	l.mu.Unlock()

	l.notifier.Notify(success("Book updated successfully!"))
	return nil
}

func (l *Library) RemoveBook(ctx context.Context, id int64) error {
	if err := l.backend.DeleteBook(ctx, id); err != nil {
		l.log.WithError(err).WithField("id", id).Error("delete book failed")
		l.notifier.Notify(failure("Failed to delete book"))
		return err
	}

	l.mu.Lock()
	next := make([]models.Book, 0, len(l.books))
	for _, b := range l.books {
		if b.ID != id {
			next = append(next, b)
		}
	}
	l.books = next
	l.mu.Unlock()

	l.notifier.Notify(success("Book deleted successfully!"))
	return nil
}

func (l *Library) SetSearch(q string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.search = q
}

func (l *Library) Search() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.search
}

func (l *Library) SetFilter(f models.StatusFilter) {
	if f == "" {
		f = models.FilterAll
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filter = f
}

func (l *Library) Filter() models.StatusFilter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.filter
}

// Filtered is the collection narrowed by the current search and filter.
func (l *Library) Filtered() []models.Book {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Filter(l.books, l.search, l.filter)
}

// Books returns a copy of the whole collection.
func (l *Library) Books() []models.Book {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Book, len(l.books))
	for i, b := range l.books {
		out[i] = b.Clone()
	}
	return out
}

// Book looks id up in the local collection.
func (l *Library) Book(id int64) (models.Book, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, b := range l.books {
		if b.ID == id {
			return b.Clone(), true
		}
	}
	return models.Book{}, false
}

func (l *Library) Counts() Counts {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return countBooks(l.books)
}

func (l *Library) IsLoading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.isLoading
}

// LastError is empty unless the most recent fetch failed.
func (l *Library) LastError() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastError
}

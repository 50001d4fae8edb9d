package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kevinaaaquil/readinglist/models"
)

// Memory is the offline backend. It assigns ids and timestamps itself, the way
// the remote store would.
type Memory struct {
	mu    sync.Mutex
	books map[int64]models.Book
	now   func() time.Time
}

func NewMemory(seed ...models.Book) *Memory {
	m := &Memory{
		books: make(map[int64]models.Book, len(seed)),
		now:   time.Now,
	}
	for _, b := range seed {
		m.books[b.ID] = b.Clone()
	}
	return m
}

// ListBooks returns books ordered by id.
func (m *Memory) ListBooks(ctx context.Context) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	books := make([]models.Book, 0, len(m.books))
	for _, b := range m.books {
		books = append(books, b.Clone())
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books, nil
}

func (m *Memory) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.books[id]
	if !ok {
		return nil, fmt.Errorf("memory: book %d: %w", id, models.ErrBookNotFound)
	}
	out := b.Clone()
	return &out, nil
}

// CreateBook gives the new book max(id)+1.
func (m *Memory) CreateBook(ctx context.Context, payload models.BookCreate) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var maxID int64
	for id := range m.books {
		if id > maxID {
			maxID = id
		}
	}
	b := payload.NewBook(maxID+1, m.now().UTC())
	m.books[b.ID] = b
	out := b.Clone()
	return &out, nil
}

func (m *Memory) UpdateBook(ctx context.Context, id int64, patch models.BookUpdate) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.books[id]
	if !ok {
		return nil, fmt.Errorf("memory: book %d: %w", id, models.ErrBookNotFound)
	}
	patch.Apply(&b)
	now := m.now().UTC()
	b.UpdatedAt = &now
	m.books[id] = b
	out := b.Clone()
	return &out, nil
}

func (m *Memory) DeleteBook(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return fmt.Errorf("memory: book %d: %w", id, models.ErrBookNotFound)
	}
	delete(m.books, id)
	return nil
}

// MockBooks is the sample library used when no remote store is running.
func MockBooks() []models.Book {
	return []models.Book{
		{
			ID: 1, Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Genre: "Fiction",
			Status: models.StatusCompleted, Pages: models.Int(180), Rating: models.Int(5),
			Description: models.String("A story of the mysteriously wealthy Jay Gatsby and his love for Daisy Buchanan."),
		},
		{
			ID: 2, Title: "Atomic Habits", Author: "James Clear", Genre: "Self-Help",
			Status: models.StatusReading, Pages: models.Int(320), Rating: models.Int(4),
			Description: models.String("An easy and proven way to build good habits and break bad ones."),
		},
		{
			ID: 3, Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi",
			Status: models.StatusWantToRead, Pages: models.Int(688),
			Description: models.String("A science fiction masterpiece about politics, religion, and ecology on a desert planet."),
		},
		{
			ID: 4, Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy",
			Status: models.StatusCompleted, Pages: models.Int(310), Rating: models.Int(5),
			Description: models.String("Bilbo Baggins embarks on an unexpected adventure with a group of dwarves."),
		},
	}
}

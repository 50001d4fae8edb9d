package library

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/kevinaaaquil/readinglist/models"
	"github.com/kevinaaaquil/readinglist/service"
	"github.com/kevinaaaquil/readinglist/store"
)

// fakeBackend serves canned responses and records calls.
type fakeBackend struct {
	mu sync.Mutex

	list    []models.Book
	listErr error

	created   *models.Book
	createErr error

	updated   *models.Book
	updateErr error

	deleteErr error

	calls []string
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) ListBooks(ctx context.Context) ([]models.Book, error) {
	f.record("list")
	return f.list, f.listErr
}

func (f *fakeBackend) CreateBook(ctx context.Context, payload models.BookCreate) (*models.Book, error) {
	f.record("create")
	return f.created, f.createErr
}

func (f *fakeBackend) UpdateBook(ctx context.Context, id int64, payload models.BookUpdate) (*models.Book, error) {
	f.record(fmt.Sprintf("update %d", id))
	return f.updated, f.updateErr
}

func (f *fakeBackend) DeleteBook(ctx context.Context, id int64) error {
	f.record(fmt.Sprintf("delete %d", id))
	return f.deleteErr
}

type recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) last(t *testing.T) Notification {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		t.Fatal("no notification sent")
	}
	return r.notes[len(r.notes)-1]
}

func dune() models.Book {
	return models.Book{ID: 1, Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Status: models.StatusWantToRead}
}

func newLoaded(t *testing.T, backend *fakeBackend) (*Library, *recorder) {
	t.Helper()
	rec := &recorder{}
	lib := New(backend, WithNotifier(rec))
	if err := lib.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return lib, rec
}

func TestNewIsLoading(t *testing.T) {
	lib := New(&fakeBackend{})
	if !lib.IsLoading() {
		t.Fatal("expected loading before the first fetch")
	}
	if lib.Filter() != models.FilterAll {
		t.Fatalf("filter = %q, want all", lib.Filter())
	}
	if got := lib.Books(); got == nil || len(got) != 0 {
		t.Fatalf("books = %v, want empty", got)
	}
}

func TestInitialize(t *testing.T) {
	backend := &fakeBackend{list: []models.Book{dune()}}
	lib, _ := newLoaded(t, backend)

	if lib.IsLoading() {
		t.Fatal("still loading after initialize")
	}
	if lib.LastError() != "" {
		t.Fatalf("last error = %q", lib.LastError())
	}
	books := lib.Books()
	if len(books) != 1 {
		t.Fatalf("len(books) = %d, want 1", len(books))
	}
	view := lib.Filtered()
	if len(view) != 1 || !reflect.DeepEqual(view[0], dune()) {
		t.Fatalf("filtered = %+v", view)
	}
}

func TestInitializeSearchIsCaseInsensitive(t *testing.T) {
	lib, _ := newLoaded(t, &fakeBackend{list: []models.Book{dune()}})
	lib.SetSearch("dune")
	lib.SetFilter(models.FilterAll)

	view := lib.Filtered()
	if len(view) != 1 || view[0].ID != 1 {
		t.Fatalf("filtered = %+v", view)
	}
}

func TestInitializeFailureClearsBooks(t *testing.T) {
	backend := &fakeBackend{list: []models.Book{dune()}}
	lib, _ := newLoaded(t, backend)

	backend.list = nil
	backend.listErr = &service.TransportError{Op: "list books", Err: errors.New("connection refused")}
	err := lib.Refresh(context.Background())

	var te *service.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if lib.LastError() != FetchErrorMessage {
		t.Fatalf("last error = %q", lib.LastError())
	}
	if len(lib.Books()) != 0 {
		t.Fatal("stale books left after failed fetch")
	}
	if lib.IsLoading() {
		t.Fatal("loading flag left set after failure")
	}

	// a later successful fetch clears the error
	backend.listErr = nil
	backend.list = []models.Book{dune()}
	if err := lib.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if lib.LastError() != "" {
		t.Fatalf("last error = %q after recovery", lib.LastError())
	}
}

func TestInitializeMalformedResponse(t *testing.T) {
	backend := &fakeBackend{
		listErr: &service.MalformedResponseError{Op: "list books", Err: errors.New("expected array")},
	}
	lib := New(backend)
	if err := lib.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	books := lib.Books()
	if books == nil || len(books) != 0 {
		t.Fatalf("books = %v, want empty", books)
	}
	if lib.LastError() != "" {
		t.Fatalf("last error = %q", lib.LastError())
	}
}

func TestAddBook(t *testing.T) {
	created := models.Book{ID: 5, Title: "X", Author: "Y", Genre: "Fiction", Status: models.StatusReading}
	backend := &fakeBackend{list: []models.Book{dune()}, created: &created}
	lib, rec := newLoaded(t, backend)

	got, err := lib.AddBook(context.Background(), models.BookCreate{
		Title: "X", Author: "Y", Genre: "Fiction", Status: models.StatusReading,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got.ID != 5 {
		t.Fatalf("returned id = %d", got.ID)
	}
	books := lib.Books()
	if len(books) != 2 {
		t.Fatalf("len(books) = %d, want 2", len(books))
	}
	if !reflect.DeepEqual(books[1], created) {
		t.Fatalf("appended %+v, want %+v", books[1], created)
	}
	if n := rec.last(t); n.Variant != VariantDefault || n.Description != "Book added successfully!" {
		t.Fatalf("notification = %+v", n)
	}
}

func TestEditBook(t *testing.T) {
	updated := dune()
	updated.Status = models.StatusCompleted
	updated.Rating = models.Int(5)
	backend := &fakeBackend{list: []models.Book{dune(), {ID: 2, Title: "Emma", Author: "Jane Austen", Genre: "Fiction", Status: models.StatusReading}}, updated: &updated}
	lib, rec := newLoaded(t, backend)

	status := models.StatusCompleted
	if err := lib.EditBook(context.Background(), 1, models.BookUpdate{Status: &status}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	got, ok := lib.Book(1)
	if !ok {
		t.Fatal("book 1 missing")
	}
	if !reflect.DeepEqual(got, updated) {
		t.Fatalf("book = %+v, want %+v", got, updated)
	}
	if other, _ := lib.Book(2); other.Status != models.StatusReading {
		t.Fatal("unrelated book changed")
	}
	if n := rec.last(t); n.Description != "Book updated successfully!" {
		t.Fatalf("notification = %+v", n)
	}
}

func TestEditBookFailureLeavesBooks(t *testing.T) {
	backend := &fakeBackend{
		list:      []models.Book{dune()},
		updateErr: &service.RemoteError{Op: "update book", StatusCode: 500, Message: "boom"},
	}
	lib, rec := newLoaded(t, backend)
	before := lib.Books()

	status := models.StatusCompleted
	err := lib.EditBook(context.Background(), 1, models.BookUpdate{Status: &status})
	if err == nil {
		t.Fatal("expected error")
	}
	if !reflect.DeepEqual(lib.Books(), before) {
		t.Fatal("books changed after failed edit")
	}
	if lib.Books()[0].Status != models.StatusWantToRead {
		t.Fatalf("status = %q", lib.Books()[0].Status)
	}
	n := rec.last(t)
	if n.Title != "Error" || n.Variant != VariantDestructive || n.Description != "Failed to update book" {
		t.Fatalf("notification = %+v", n)
	}
}

func TestRemoveBook(t *testing.T) {
	backend := &fakeBackend{list: []models.Book{dune(), {ID: 2, Title: "Emma"}, {ID: 1, Title: "dup"}}}
	lib, rec := newLoaded(t, backend)

	if err := lib.RemoveBook(context.Background(), 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	for _, b := range lib.Books() {
		if b.ID == 1 {
			t.Fatalf("book 1 still present: %+v", b)
		}
	}
	if len(lib.Books()) != 1 {
		t.Fatalf("len(books) = %d, want 1", len(lib.Books()))
	}
	if n := rec.last(t); n.Description != "Book deleted successfully!" {
		t.Fatalf("notification = %+v", n)
	}
}

func TestRemoveMissingBook(t *testing.T) {
	backend := &fakeBackend{
		list:      []models.Book{dune()},
		deleteErr: &service.RemoteError{Op: "delete book", StatusCode: 404, Message: "Book not found"},
	}
	lib, rec := newLoaded(t, backend)
	before := lib.Books()

	err := lib.RemoveBook(context.Background(), 99)
	if !errors.Is(err, models.ErrBookNotFound) {
		t.Fatalf("err = %v, want ErrBookNotFound", err)
	}
	if !reflect.DeepEqual(lib.Books(), before) {
		t.Fatal("books changed after failed delete")
	}
	if n := rec.last(t); n.Description != "Failed to delete book" {
		t.Fatalf("notification = %+v", n)
	}
}

func TestFailedMutationsLeaveBooksUnchanged(t *testing.T) {
	fail := errors.New("unreachable")
	backend := &fakeBackend{list: []models.Book{dune()}, createErr: fail, updateErr: fail, deleteErr: fail}
	lib, rec := newLoaded(t, backend)
	before := lib.Books()

	ctx := context.Background()
	title := "Changed"
	_, addErr := lib.AddBook(ctx, models.BookCreate{Title: "X", Author: "Y", Genre: "Fiction", Status: models.StatusReading})
	editErr := lib.EditBook(ctx, 1, models.BookUpdate{Title: &title})
	removeErr := lib.RemoveBook(ctx, 1)

	for _, err := range []error{addErr, editErr, removeErr} {
		if !errors.Is(err, fail) {
			t.Fatalf("err = %v, want %v", err, fail)
		}
	}
	if !reflect.DeepEqual(lib.Books(), before) {
		t.Fatalf("books = %+v, want %+v", lib.Books(), before)
	}
	if len(rec.notes) != 3 {
		t.Fatalf("got %d notifications, want 3", len(rec.notes))
	}
	want := []string{"Failed to add book", "Failed to update book", "Failed to delete book"}
	for i, n := range rec.notes {
		if n.Description != want[i] || n.Variant != VariantDestructive {
			t.Errorf("notification %d = %+v", i, n)
		}
	}
}

func TestCounts(t *testing.T) {
	lib, _ := newLoaded(t, &fakeBackend{list: store.MockBooks()})
	c := lib.Counts()
	if c.Total != 4 {
		t.Fatalf("total = %d", c.Total)
	}
	want := map[models.ReadingStatus]int{
		models.StatusWantToRead: 1,
		models.StatusReading:    1,
		models.StatusCompleted:  2,
		models.StatusDropped:    0,
	}
	if !reflect.DeepEqual(c.ByStatus, want) {
		t.Fatalf("by status = %v, want %v", c.ByStatus, want)
	}
}

func TestLibraryWithMemoryBackend(t *testing.T) {
	ctx := context.Background()
	lib := New(store.NewMemory(store.MockBooks()...))
	if err := lib.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	added, err := lib.AddBook(ctx, models.BookCreate{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Status: models.StatusWantToRead})
	if err != nil {
		t.Fatal(err)
	}
	if added.ID != 5 {
		t.Fatalf("id = %d, want 5", added.ID)
	}
	if err := lib.RemoveBook(ctx, 2); err != nil {
		t.Fatal(err)
	}
	// local state must agree with the store after a refresh
	local := lib.Books()
	if err := lib.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(local, lib.Books()) {
		t.Fatalf("local %+v != remote %+v", local, lib.Books())
	}
}

func TestInitializeOversizedResponseIsAnError(t *testing.T) {
	backend := &fakeBackend{list: []models.Book{dune()}}
	lib, _ := newLoaded(t, backend)

	backend.list = nil
	backend.listErr = &service.TransportError{
		Op:  "list books",
		Err: fmt.Errorf("%w: over 8388608 bytes", service.ErrResponseTooLarge),
	}
	err := lib.Refresh(context.Background())
	if !errors.Is(err, service.ErrResponseTooLarge) {
		t.Fatalf("err = %v, want ErrResponseTooLarge", err)
	}
	if lib.LastError() != FetchErrorMessage {
		t.Fatalf("last error = %q, want %q", lib.LastError(), FetchErrorMessage)
	}
}

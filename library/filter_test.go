package library

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/kevinaaaquil/readinglist/models"
	"github.com/kevinaaaquil/readinglist/store"
)

func TestFilter(t *testing.T) {
	books := store.MockBooks()
	tests := []struct {
		name   string
		search string
		filter models.StatusFilter
		want   []int64
	}{
		{"everything", "", models.FilterAll, []int64{1, 2, 3, 4}},
		{"empty filter means all", "", "", []int64{1, 2, 3, 4}},
		{"title match ignores case", "HOBBIT", models.FilterAll, []int64{4}},
		{"author match", "herbert", models.FilterAll, []int64{3}},
		{"shared substring keeps order", "the", models.FilterAll, []int64{1, 4}},
		{"status only", "", models.StatusFilter(models.StatusCompleted), []int64{1, 4}},
		{"search and status", "gatsby", models.StatusFilter(models.StatusCompleted), []int64{1}},
		{"status excludes match", "dune", models.StatusFilter(models.StatusReading), nil},
		{"no match", "zzz", models.FilterAll, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int64
			for _, b := range Filter(books, tt.search, tt.filter) {
				got = append(got, b.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterDoesNotMutate(t *testing.T) {
	books := store.MockBooks()
	before := store.MockBooks()

	view := Filter(books, "the", models.FilterAll)
	view[0].Title = "changed"
	*view[0].Pages = 1

	if !reflect.DeepEqual(books, before) {
		t.Fatal("filter mutated its input")
	}
	again := Filter(books, "the", models.FilterAll)
	if again[0].Title != "The Great Gatsby" {
		t.Fatal("filter is not idempotent")
	}
}

// Every book is either in the view and satisfies both predicates, or is out of
// it and fails one.
func TestFilterProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	words := []string{"dune", "Dune", "the", "Habits", "", "a", "KING", "ring"}
	filters := []models.StatusFilter{models.FilterAll}
	for _, st := range models.ValidStatuses {
		filters = append(filters, models.StatusFilter(st))
	}

	for i := 0; i < 200; i++ {
		var books []models.Book
		n := rng.Intn(12)
		for j := 0; j < n; j++ {
			books = append(books, models.Book{
				ID:     int64(j + 1),
				Title:  words[rng.Intn(len(words))] + " " + words[rng.Intn(len(words))],
				Author: words[rng.Intn(len(words))],
				Status: models.ValidStatuses[rng.Intn(len(models.ValidStatuses))],
			})
		}
		search := words[rng.Intn(len(words))]
		filter := filters[rng.Intn(len(filters))]

		in := map[int64]bool{}
		var lastID int64
		for _, b := range Filter(books, search, filter) {
			if b.ID <= lastID {
				t.Fatalf("order not preserved: %d after %d", b.ID, lastID)
			}
			lastID = b.ID
			in[b.ID] = true
		}
		for _, b := range books {
			q := strings.ToLower(search)
			textOK := q == "" || strings.Contains(strings.ToLower(b.Title), q) || strings.Contains(strings.ToLower(b.Author), q)
			statusOK := filter == models.FilterAll || models.ReadingStatus(filter) == b.Status
			if want := textOK && statusOK; in[b.ID] != want {
				t.Fatalf("book %+v search=%q filter=%q: in view = %v, want %v", b, search, filter, in[b.ID], want)
			}
		}
	}
}

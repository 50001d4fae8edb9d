package library

import (
	"strings"

	"github.com/kevinaaaquil/readinglist/models"
)

// Filter returns the books whose title or author contains search
// (case-insensitive) and whose status passes filter, in their original order.
// books is not modified.
func Filter(books []models.Book, search string, filter models.StatusFilter) []models.Book {
	q := strings.ToLower(search)
	out := make([]models.Book, 0, len(books))
	for _, b := range books {
		if !filter.Matches(b.Status) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(b.Title), q) &&
			!strings.Contains(strings.ToLower(b.Author), q) {
			continue
		}
		out = append(out, b.Clone())
	}
	return out
}

// Counts is the number of books per status.
type Counts struct {
	Total    int
	ByStatus map[models.ReadingStatus]int
}

func countBooks(books []models.Book) Counts {
	c := Counts{Total: len(books), ByStatus: make(map[models.ReadingStatus]int, len(models.ValidStatuses))}
	for _, st := range models.ValidStatuses {
		c.ByStatus[st] = 0
	}
	for _, b := range books {
		c.ByStatus[b.Status]++
	}
	return c
}

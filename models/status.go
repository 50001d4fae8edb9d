package models

import (
	"fmt"
	"strings"
)

// ReadingStatus is where a reader is with a book.
type ReadingStatus string

const (
	StatusWantToRead ReadingStatus = "want_to_read"
	StatusReading    ReadingStatus = "reading"
	StatusCompleted  ReadingStatus = "completed"
	StatusDropped    ReadingStatus = "dropped"
)

var ValidStatuses = []ReadingStatus{StatusWantToRead, StatusReading, StatusCompleted, StatusDropped}

func (s ReadingStatus) Valid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Label is the human-readable name shown in forms.
func (s ReadingStatus) Label() string {
	switch s {
	case StatusWantToRead:
		return "Want to Read"
	case StatusReading:
		return "Currently Reading"
	case StatusCompleted:
		return "Completed"
	case StatusDropped:
		return "Dropped"
	}
	return string(s)
}

// ParseReadingStatus accepts the wire value, case-insensitively.
func ParseReadingStatus(s string) (ReadingStatus, error) {
	st := ReadingStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("invalid status %q (want one of want_to_read, reading, completed, dropped)", s)
	}
	return st, nil
}

// StatusFilter selects books by status; FilterAll passes everything.
type StatusFilter string

const FilterAll StatusFilter = "all"

func (f StatusFilter) Matches(s ReadingStatus) bool {
	return f == FilterAll || f == "" || ReadingStatus(f) == s
}

func ParseStatusFilter(s string) (StatusFilter, error) {
	if v := strings.ToLower(strings.TrimSpace(s)); v == "" || v == string(FilterAll) {
		return FilterAll, nil
	}
	st, err := ParseReadingStatus(s)
	if err != nil {
		return "", err
	}
	return StatusFilter(st), nil
}

// Genres is the curated suggestion list. Genre itself stays free text.
var Genres = []string{
	"Fiction",
	"Non-Fiction",
	"Mystery",
	"Fantasy",
	"Romance",
	"Thriller",
	"Sci-Fi",
	"Biography",
	"Self-Help",
	"History",
	"Poetry",
	"Other",
}

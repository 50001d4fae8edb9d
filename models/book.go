package models

import (
	"errors"
	"time"
)

// ErrBookNotFound is returned by every backend when no book has the requested id.
var ErrBookNotFound = errors.New("book not found")

// Book is one entry of the reading library. ID and the timestamps are owned by the store.
type Book struct {
	ID          int64         `bson:"_id" json:"id"`
	Title       string        `bson:"title" json:"title"`
	Author      string        `bson:"author" json:"author"`
	Genre       string        `bson:"genre" json:"genre"`
	Status      ReadingStatus `bson:"status" json:"status"`
	Description *string       `bson:"description,omitempty" json:"description,omitempty"`
	Pages       *int          `bson:"pages,omitempty" json:"pages,omitempty"`
	Rating      *int          `bson:"rating,omitempty" json:"rating,omitempty"`
	CreatedAt   *time.Time    `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt   *time.Time    `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// BookCreate is the payload for creating a book. A nil optional field means "no value".
type BookCreate struct {
	Title       string        `json:"title" validate:"required,notblank,max=200"`
	Author      string        `json:"author" validate:"required,notblank,max=100"`
	Genre       string        `json:"genre" validate:"required,notblank"`
	Status      ReadingStatus `json:"status" validate:"required,oneof=want_to_read reading completed dropped"`
	Description *string       `json:"description,omitempty" validate:"omitempty,max=1000"`
	Pages       *int          `json:"pages,omitempty" validate:"omitempty,min=1,max=10000"`
	Rating      *int          `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
}

// BookUpdate is a partial patch. Only non-nil fields are applied.
type BookUpdate struct {
	Title       *string        `bson:"title,omitempty" json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Author      *string        `bson:"author,omitempty" json:"author,omitempty" validate:"omitempty,notblank,max=100"`
	Genre       *string        `bson:"genre,omitempty" json:"genre,omitempty" validate:"omitempty,notblank"`
	Status      *ReadingStatus `bson:"status,omitempty" json:"status,omitempty" validate:"omitempty,oneof=want_to_read reading completed dropped"`
	Description *string        `bson:"description,omitempty" json:"description,omitempty" validate:"omitempty,max=1000"`
	Pages       *int           `bson:"pages,omitempty" json:"pages,omitempty" validate:"omitempty,min=1,max=10000"`
	Rating      *int           `bson:"rating,omitempty" json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
}

// NewBook builds the stored entity for a create payload.
func (c BookCreate) NewBook(id int64, now time.Time) Book {
	created, updated := now, now
	return Book{
		ID:          id,
		Title:       c.Title,
		Author:      c.Author,
		Genre:       c.Genre,
		Status:      c.Status,
		Description: cloneString(c.Description),
		Pages:       cloneInt(c.Pages),
		Rating:      cloneInt(c.Rating),
		CreatedAt:   &created,
		UpdatedAt:   &updated,
	}
}

// IsEmpty reports whether the patch carries no field at all.
func (u BookUpdate) IsEmpty() bool {
	return u.Title == nil && u.Author == nil && u.Genre == nil && u.Status == nil &&
		u.Description == nil && u.Pages == nil && u.Rating == nil
}

// Apply merges the patch into b. Stores use it; the client never merges locally.
func (u BookUpdate) Apply(b *Book) {
	if u.Title != nil {
		b.Title = *u.Title
	}
	if u.Author != nil {
		b.Author = *u.Author
	}
	if u.Genre != nil {
		b.Genre = *u.Genre
	}
	if u.Status != nil {
		b.Status = *u.Status
	}
	if u.Description != nil {
		b.Description = cloneString(u.Description)
	}
	if u.Pages != nil {
		b.Pages = cloneInt(u.Pages)
	}
	if u.Rating != nil {
		b.Rating = cloneInt(u.Rating)
	}
}

// Clone returns a deep copy so callers can't reach into shared optional fields.
func (b Book) Clone() Book {
	out := b
	out.Description = cloneString(b.Description)
	out.Pages = cloneInt(b.Pages)
	out.Rating = cloneInt(b.Rating)
	if b.CreatedAt != nil {
		t := *b.CreatedAt
		out.CreatedAt = &t
	}
	if b.UpdatedAt != nil {
		t := *b.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// String and Int return pointers for optional fields.
func String(s string) *string { return &s }

func Int(n int) *int { return &n }

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

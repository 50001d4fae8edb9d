package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kevinaaaquil/readinglist/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const booksCounterID = "books"

func (db *DB) ListBooks(ctx context.Context) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	books := []models.Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (db *DB) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mongodb: book %d: %w", id, models.ErrBookNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (db *DB) CreateBook(ctx context.Context, payload models.BookCreate) (*models.Book, error) {
	id, err := db.nextBookID(ctx)
	if err != nil {
		return nil, fmt.Errorf("mongodb: allocate book id: %w", err)
	}
	// Mongo keeps milliseconds; truncate so the returned value matches what a later read sees.
	book := payload.NewBook(id, time.Now().UTC().Truncate(time.Millisecond))
	if _, err := db.Books().InsertOne(ctx, book, options.InsertOne()); err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateBook $sets only the fields present in the patch and stamps updated_at.
func (db *DB) UpdateBook(ctx context.Context, id int64, patch models.BookUpdate) (*models.Book, error) {
	raw, err := bson.Marshal(patch)
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, err
	}
	set["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)

	var book models.Book
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = db.Books().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mongodb: book %d: %w", id, models.ErrBookNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (db *DB) DeleteBook(ctx context.Context, id int64) error {
	res, err := db.Books().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("mongodb: book %d: %w", id, models.ErrBookNotFound)
	}
	return nil
}

// SeedBooks inserts books only when the collection is empty and moves the id
// counter past them. It returns how many were inserted.
func (db *DB) SeedBooks(ctx context.Context, books []models.Book) (int, error) {
	count, err := db.Books().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	if count > 0 || len(books) == 0 {
		return 0, nil
	}
	docs := make([]interface{}, 0, len(books))
	var maxID int64
	for _, b := range books {
		docs = append(docs, b)
		if b.ID > maxID {
			maxID = b.ID
		}
	}
	if _, err := db.Books().InsertMany(ctx, docs); err != nil {
		return 0, err
	}
	opts := options.Update().SetUpsert(true)
	_, err = db.Counters().UpdateOne(ctx, bson.M{"_id": booksCounterID}, bson.M{"$max": bson.M{"seq": maxID}}, opts)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (db *DB) nextBookID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := db.Counters().FindOneAndUpdate(ctx, bson.M{"_id": booksCounterID}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

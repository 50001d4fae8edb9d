package main

import (
	"context"
	"fmt"

	"github.com/kevinaaaquil/readinglist/config"
	"github.com/kevinaaaquil/readinglist/library"
	"github.com/kevinaaaquil/readinglist/models"
	"github.com/kevinaaaquil/readinglist/service"
	"github.com/kevinaaaquil/readinglist/store"
	"github.com/sirupsen/logrus"
)

// backend is what both the library and the mock server need from storage.
type backend interface {
	library.Backend
	GetBook(ctx context.Context, id int64) (*models.Book, error)
}

// openBackend picks the store named by READINGLIST_BACKEND. The returned
// func releases it.
func openBackend(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (backend, func(), error) {
	switch cfg.Backend {
	case config.BackendMock:
		log.Debug("using in-memory mock data")
		return store.NewMemory(store.MockBooks()...), func() {}, nil
	case config.BackendMongo:
		db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName, log)
		if err != nil {
			return nil, nil, fmt.Errorf("mongodb: %w", err)
		}
		if n, err := db.SeedBooks(ctx, store.MockBooks()); err != nil {
			log.WithError(err).Warn("seeding books failed")
		} else if n > 0 {
			log.WithField("count", n).Info("seeded empty books collection")
		}
		return db, func() {
			if err := db.Disconnect(context.Background()); err != nil {
				log.WithError(err).Warn("mongodb disconnect")
			}
		}, nil
	default:
		opts := []service.ClientOption{
			service.WithTimeout(cfg.RequestTimeout),
			service.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
			service.WithLogger(log.WithField("component", "client")),
		}
		if cfg.APIToken != "" {
			opts = append(opts, service.WithBearerToken(cfg.APIToken))
		}
		if cfg.JWTSecret != "" {
			opts = append(opts, service.WithJWTSecret([]byte(cfg.JWTSecret), "readinglist-cli"))
		}
		client, err := service.NewBooksClient(cfg.APIBaseURL, opts...)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	}
}

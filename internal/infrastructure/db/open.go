package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/damon-houk/transaction-record-service/internal/domain/repository"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/config"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/logger"
	"github.com/dgraph-io/badger/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store is an opened repository together with the handle that must be closed on shutdown
type Store struct {
	Repository repository.TransactionRepository
	close      func(ctx context.Context) error
}

// Close releases the underlying database handle
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the configured backend once; the returned repository is shared by all requests
func Open(ctx context.Context, storage config.StorageConfig, breaker config.BreakerConfig, log logger.Logger) (*Store, error) {
	var (
		store *Store
		err   error
	)

	switch storage.Backend {
	case config.BackendBadger:
		store, err = openBadger(storage, log)
	case config.BackendMongo:
		store, err = openMongo(ctx, storage, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	if breaker.Enabled {
		store.Repository = NewCircuitBreakerRepository(store.Repository, BreakerSettings{
			ConsecutiveFailures: breaker.ConsecutiveFailures,
			OpenTimeout:         breaker.OpenTimeout,
			HalfOpenRequests:    breaker.HalfOpenRequests,
		}, log)
	}

	return store, nil
}

func openBadger(storage config.StorageConfig, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(storage.BadgerPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	badgerOpts := badger.DefaultOptions(storage.BadgerPath)
	badgerOpts.Logger = nil // Disable Badger's default logger

	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	log.Info("BadgerDB opened", map[string]interface{}{
		"path": storage.BadgerPath,
	})

	return &Store{
		Repository: NewBadgerTransactionRepository(badgerDB),
		close: func(context.Context) error {
			return badgerDB.Close()
		},
	}, nil
}

func openMongo(ctx context.Context, storage config.StorageConfig, log logger.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(storage.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = storage.ConnectTimeout

	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("MongoDB not reachable yet", map[string]interface{}{
			"error": err.Error(),
			"retry": wait.String(),
		})
	}

	if err := backoff.RetryNotify(ping, backoff.WithContext(b, ctx), notify); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach mongo: %w", err)
	}

	repo := NewMongoTransactionRepository(client.Database(storage.MongoDatabase).Collection(storage.MongoCollection))
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info("MongoDB connected", map[string]interface{}{
		"database":   storage.MongoDatabase,
		"collection": storage.MongoCollection,
	})

	return &Store{
		Repository: repo,
		close:      client.Disconnect,
	}, nil
}

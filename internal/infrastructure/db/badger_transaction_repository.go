package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/damon-houk/transaction-record-service/internal/domain/entity"
	"github.com/damon-houk/transaction-record-service/internal/domain/repository"
	"github.com/dgraph-io/badger/v3"
)

const (
	transactionKeyPrefix = "tx:"

	// conflictRetryTimeout bounds how long a write keeps retrying after
	// losing a commit race on the same key
	conflictRetryTimeout = 5 * time.Second
)

// BadgerTransactionRepository implements the transaction repository interface using BadgerDB
type BadgerTransactionRepository struct {
	db *badger.DB
}

// NewBadgerTransactionRepository creates a new BadgerDB transaction repository
func NewBadgerTransactionRepository(db *badger.DB) *BadgerTransactionRepository {
	return &BadgerTransactionRepository{db: db}
}

func transactionKey(id string) []byte {
	return []byte(transactionKeyPrefix + id)
}

// List returns all transactions ordered by date, most recent first
func (r *BadgerTransactionRepository) List(ctx context.Context) ([]*entity.Transaction, error) {
	txs := make([]*entity.Transaction, 0)

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(transactionKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var tx entity.Transaction
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &tx)
			})
			if err != nil {
				return err
			}
			txs = append(txs, &tx)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})

	return txs, nil
}

// FindByID retrieves a transaction by its unique identifier
func (r *BadgerTransactionRepository) FindByID(ctx context.Context, id string) (*entity.Transaction, error) {
	var tx *entity.Transaction

	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		tx, err = readTransaction(txn, id)
		return err
	})
	if err != nil {
		return nil, wrapError("retrieve", id, err)
	}

	return tx, nil
}

// Create stores a new transaction, rejecting IDs that are already present
func (r *BadgerTransactionRepository) Create(ctx context.Context, tx *entity.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	// A retry after a lost commit race sees the winner's key and reports a duplicate
	err = r.update(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(transactionKey(tx.ID))
		switch {
		case err == nil:
			return repository.ErrDuplicateID
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(transactionKey(tx.ID), data)
	})
	if err != nil {
		return wrapError("store", tx.ID, err)
	}

	return nil
}

// Update replaces the mutable fields of an existing transaction
func (r *BadgerTransactionRepository) Update(ctx context.Context, id string, fields entity.Fields) (*entity.Transaction, error) {
	var tx *entity.Transaction

	err := r.update(ctx, func(txn *badger.Txn) error {
		var err error
		tx, err = readTransaction(txn, id)
		if err != nil {
			return err
		}

		tx.Apply(fields)

		data, err := json.Marshal(tx)
		if err != nil {
			return fmt.Errorf("failed to marshal transaction: %w", err)
		}
		return txn.Set(transactionKey(id), data)
	})
	if err != nil {
		return nil, wrapError("update", id, err)
	}

	return tx, nil
}

// Delete removes a transaction
func (r *BadgerTransactionRepository) Delete(ctx context.Context, id string) error {
	// A retry after a concurrent delete finds the key gone and reports not found
	err := r.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(transactionKey(id)); err != nil {
			return err
		}
		return txn.Delete(transactionKey(id))
	})
	if err != nil {
		return wrapError("delete", id, err)
	}

	return nil
}

// update runs fn in a read-write transaction, rerunning it from scratch when the
// commit conflicts with a concurrent write to the same key
func (r *BadgerTransactionRepository) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond
	b.MaxInterval = 50 * time.Millisecond
	b.MaxElapsedTime = conflictRetryTimeout

	return backoff.Retry(func() error {
		err := r.db.Update(fn)
		if err != nil && !errors.Is(err, badger.ErrConflict) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}

func readTransaction(txn *badger.Txn, id string) (*entity.Transaction, error) {
	item, err := txn.Get(transactionKey(id))
	if err != nil {
		return nil, err
	}

	var tx entity.Transaction
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &tx)
	}); err != nil {
		return nil, err
	}

	return &tx, nil
}

// wrapError converts badger errors into repository errors
func wrapError(op, id string, err error) error {
	switch {
	case errors.Is(err, badger.ErrKeyNotFound), errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	case errors.Is(err, repository.ErrDuplicateID):
		return fmt.Errorf("%w: %s", repository.ErrDuplicateID, id)
	default:
		return fmt.Errorf("failed to %s transaction %s: %w", op, id, err)
	}
}

package repository

import (
	"context"
	"errors"

	"github.com/damon-houk/transaction-record-service/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no transaction matches the given ID
	ErrNotFound = errors.New("transaction not found")

	// ErrDuplicateID is returned when a transaction with the same ID already exists
	ErrDuplicateID = errors.New("transaction id already exists")
)

// TransactionRepository defines the interface for transaction storage.
// Implementations report missing and conflicting records with ErrNotFound and
// ErrDuplicateID (possibly wrapped); any other error is an internal failure.
type TransactionRepository interface {
	// List returns every transaction ordered by date, most recent first
	List(ctx context.Context) ([]*entity.Transaction, error)

	// FindByID retrieves a transaction by its unique identifier
	FindByID(ctx context.Context, id string) (*entity.Transaction, error)

	// Create inserts a new transaction
	Create(ctx context.Context, tx *entity.Transaction) error

	// Update replaces the mutable fields of an existing transaction and returns the stored result
	Update(ctx context.Context, id string, fields entity.Fields) (*entity.Transaction, error)

	// Delete removes a transaction
	Delete(ctx context.Context, id string) error
}

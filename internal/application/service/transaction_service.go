package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/damon-houk/transaction-record-service/internal/domain/entity"
	"github.com/damon-houk/transaction-record-service/internal/domain/repository"
)

// TransactionInput carries the loosely typed fields of a create or update request.
// Amount and Date are coerced by the service.
type TransactionInput struct {
	ID          string
	Amount      json.RawMessage
	Date        json.RawMessage
	Description string
}

// TransactionService validates requests and forwards them to the repository
type TransactionService struct {
	repo repository.TransactionRepository
}

// NewTransactionService creates a new transaction service
func NewTransactionService(repo repository.TransactionRepository) *TransactionService {
	return &TransactionService{repo: repo}
}

// ListTransactions returns all transactions, most recent first
func (s *TransactionService) ListTransactions(ctx context.Context) ([]*entity.Transaction, error) {
	return s.repo.List(ctx)
}

// GetTransaction retrieves a transaction by ID
func (s *TransactionService) GetTransaction(ctx context.Context, id string) (*entity.Transaction, error) {
	id, err := validateID(id)
	if err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, id)
}

// CreateTransaction validates, coerces and stores a new transaction
func (s *TransactionService) CreateTransaction(ctx context.Context, in TransactionInput) (*entity.Transaction, error) {
	if in.ID == "" {
		return nil, ErrMissingIdentifier
	}
	id, err := validateID(in.ID)
	if err != nil {
		return nil, err
	}

	fields, err := coerceFields(in)
	if err != nil {
		return nil, err
	}

	tx := &entity.Transaction{ID: id}
	tx.Apply(fields)

	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// UpdateTransaction replaces amount, date and description of an existing transaction
func (s *TransactionService) UpdateTransaction(ctx context.Context, id string, in TransactionInput) (*entity.Transaction, error) {
	id, err := validateID(id)
	if err != nil {
		return nil, err
	}

	fields, err := coerceFields(in)
	if err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, fields)
}

// DeleteTransaction removes a transaction by ID
func (s *TransactionService) DeleteTransaction(ctx context.Context, id string) error {
	id, err := validateID(id)
	if err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}

// validateID checks the identifier format and returns its canonical form,
// which is the only spelling the repository ever sees
func validateID(id string) (string, error) {
	if !entity.IsValidID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return entity.NormalizeID(id), nil
}

func coerceFields(in TransactionInput) (entity.Fields, error) {
	amount, err := CoerceAmount(in.Amount)
	if err != nil {
		return entity.Fields{}, err
	}

	date, err := CoerceDate(in.Date)
	if err != nil {
		return entity.Fields{}, err
	}

	return entity.Fields{
		Amount:      amount,
		Date:        date,
		Description: in.Description,
	}, nil
}

package db

import (
	"context"
	"errors"
	"time"

	"github.com/damon-houk/transaction-record-service/internal/domain/entity"
	"github.com/damon-houk/transaction-record-service/internal/domain/repository"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/logger"
	"github.com/sony/gobreaker"
)

// BreakerSettings configures the circuit breaker placed in front of a repository
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker once reached
	ConsecutiveFailures uint32

	// OpenTimeout is how long the breaker stays open before probing the store again
	OpenTimeout time.Duration

	// HalfOpenRequests is the number of probe calls allowed while half-open
	HalfOpenRequests uint32
}

// CircuitBreakerRepository fails fast while the underlying store keeps erroring.
// Every call is still attempted at most once. NotFound and duplicate outcomes
// are answers from a healthy store and do not count as failures.
type CircuitBreakerRepository struct {
	next repository.TransactionRepository
	cb   *gobreaker.CircuitBreaker
}

// NewCircuitBreakerRepository wraps next with a circuit breaker
func NewCircuitBreakerRepository(next repository.TransactionRepository, settings BreakerSettings, log logger.Logger) *CircuitBreakerRepository {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	threshold := settings.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "transaction-store",
		MaxRequests: settings.HalfOpenRequests,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, repository.ErrNotFound) ||
				errors.Is(err, repository.ErrDuplicateID) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return &CircuitBreakerRepository{next: next, cb: cb}
}

// State reports the current breaker state
func (r *CircuitBreakerRepository) State() gobreaker.State {
	return r.cb.State()
}

func (r *CircuitBreakerRepository) List(ctx context.Context) ([]*entity.Transaction, error) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		return r.next.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.([]*entity.Transaction), nil
}

func (r *CircuitBreakerRepository) FindByID(ctx context.Context, id string) (*entity.Transaction, error) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		return r.next.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return res.(*entity.Transaction), nil
}

func (r *CircuitBreakerRepository) Create(ctx context.Context, tx *entity.Transaction) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.next.Create(ctx, tx)
	})
	return err
}

func (r *CircuitBreakerRepository) Update(ctx context.Context, id string, fields entity.Fields) (*entity.Transaction, error) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		return r.next.Update(ctx, id, fields)
	})
	if err != nil {
		return nil, err
	}
	return res.(*entity.Transaction), nil
}

func (r *CircuitBreakerRepository) Delete(ctx context.Context, id string) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.next.Delete(ctx, id)
	})
	return err
}

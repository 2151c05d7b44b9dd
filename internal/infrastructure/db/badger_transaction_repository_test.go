package db

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/damon-houk/transaction-record-service/internal/domain/entity"
	"github.com/damon-houk/transaction-record-service/internal/domain/repository"
	"github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadgerRepository(t *testing.T) *BadgerTransactionRepository {
	t.Helper()

	badgerDB, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { badgerDB.Close() })

	return NewBadgerTransactionRepository(badgerDB)
}

func TestBadgerTransactionRepository(t *testing.T) {
	repo := newTestBadgerRepository(t)
	ctx := context.Background()

	tx := &entity.Transaction{
		ID:          "64b7f0c2a1e3d4f5a6b7c8d9",
		Amount:      42.5,
		Date:        time.Date(2023, 4, 15, 8, 0, 0, 0, time.UTC),
		Description: "Dinner",
	}

	t.Run("Create and find", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, tx))

		found, err := repo.FindByID(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, tx.ID, found.ID)
		assert.Equal(t, tx.Amount, found.Amount)
		assert.True(t, tx.Date.Equal(found.Date))
		assert.Equal(t, tx.Description, found.Description)
	})

	t.Run("Duplicate create", func(t *testing.T) {
		err := repo.Create(ctx, tx)
		assert.ErrorIs(t, err, repository.ErrDuplicateID)
	})

	t.Run("Update", func(t *testing.T) {
		fields := entity.Fields{Amount: -1, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Description: ""}

		updated, err := repo.Update(ctx, tx.ID, fields)
		require.NoError(t, err)
		assert.Equal(t, tx.ID, updated.ID)
		assert.Equal(t, -1.0, updated.Amount)
		assert.Equal(t, "", updated.Description)

		found, err := repo.FindByID(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, updated.Amount, found.Amount)
		assert.True(t, fields.Date.Equal(found.Date))
	})

	t.Run("Missing records", func(t *testing.T) {
		missing := "ffffffffffffffffffffffff"

		_, err := repo.FindByID(ctx, missing)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		_, err = repo.Update(ctx, missing, entity.Fields{})
		assert.ErrorIs(t, err, repository.ErrNotFound)

		err = repo.Delete(ctx, missing)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, tx.ID))

		_, err := repo.FindByID(ctx, tx.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestBadgerListOrdering(t *testing.T) {
	repo := newTestBadgerRepository(t)
	ctx := context.Background()

	txs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)

	dates := []time.Time{
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		require.NoError(t, repo.Create(ctx, &entity.Transaction{
			ID:   fmt.Sprintf("%024x", i+1),
			Date: d,
		}))
	}

	txs, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.True(t, txs[0].Date.Equal(dates[1]))
	assert.True(t, txs[1].Date.Equal(dates[2]))
	assert.True(t, txs[2].Date.Equal(dates[0]))
}

func TestBadgerConcurrentDuplicateCreate(t *testing.T) {
	repo := newTestBadgerRepository(t)
	ctx := context.Background()

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := repo.Create(ctx, &entity.Transaction{
				ID:          "64b7f0c2a1e3d4f5a6b7c8d9",
				Amount:      float64(n),
				Date:        time.Now().UTC(),
				Description: "race",
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case assert.ErrorIs(t, err, repository.ErrDuplicateID):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicts)
}

func TestBadgerConcurrentUpdateSameID(t *testing.T) {
	repo := newTestBadgerRepository(t)
	ctx := context.Background()
	id := "64b7f0c2a1e3d4f5a6b7c8d9"

	require.NoError(t, repo.Create(ctx, &entity.Transaction{ID: id, Amount: 0, Date: time.Now().UTC()}))

	const workers = 50
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []error
	)

	for i := 1; i <= workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := repo.Update(ctx, id, entity.Fields{
				Amount:      float64(n),
				Date:        time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				Description: fmt.Sprintf("writer %d", n),
			})
			if err != nil {
				mu.Lock()
				failed = append(failed, err)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, failed, "every update on an existing id must succeed")

	// The stored record is exactly one writer's full set of fields
	stored, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, stored.ID)
	assert.GreaterOrEqual(t, stored.Amount, 1.0)
	assert.LessOrEqual(t, stored.Amount, float64(workers))
	assert.Equal(t, fmt.Sprintf("writer %d", int(stored.Amount)), stored.Description)
}

func TestBadgerConcurrentDeleteSameID(t *testing.T) {
	repo := newTestBadgerRepository(t)
	ctx := context.Background()
	id := "64b7f0c2a1e3d4f5a6b7c8d9"

	require.NoError(t, repo.Create(ctx, &entity.Transaction{ID: id, Date: time.Now().UTC()}))

	const workers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		deleted  int
		notFound int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Delete(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				deleted++
			case assert.ErrorIs(t, err, repository.ErrNotFound):
				notFound++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, deleted)
	assert.Equal(t, workers-1, notFound)
}

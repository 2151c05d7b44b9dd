package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/damon-houk/transaction-record-service/internal/application/service"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/db"
	"github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

func TestPerformance(t *testing.T) {
	// Skip in short mode or CI
	if testing.Short() {
		t.Skip("Skipping performance test in short mode")
	}

	badgerDB, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	require.NoError(t, err, "failed to open database")
	defer badgerDB.Close()

	txService := service.NewTransactionService(db.NewBadgerTransactionRepository(badgerDB))

	// Performance test configuration
	numTransactions := 200
	concurrency := 10

	ids := make([]string, numTransactions)
	for i := range ids {
		ids[i] = primitive.NewObjectID().Hex()
	}

	t.Run("Transaction Creation", func(t *testing.T) {
		startTime := time.Now()

		g, ctx := errgroup.WithContext(context.Background())
		g.SetLimit(concurrency)

		for i, id := range ids {
			i, id := i, id // per-iteration copy (Go 1.21 loop semantics)
			g.Go(func() error {
				_, err := txService.CreateTransaction(ctx, randomInput(id, i))
				return err
			})
		}

		require.NoError(t, g.Wait())
		logThroughput(t, "Transaction creation", numTransactions, time.Since(startTime))
	})

	t.Run("Transaction Retrieval", func(t *testing.T) {
		startTime := time.Now()

		g, ctx := errgroup.WithContext(context.Background())
		g.SetLimit(concurrency)

		for _, id := range ids {
			id := id // per-iteration copy (Go 1.21 loop semantics)
			g.Go(func() error {
				tx, err := txService.GetTransaction(ctx, id)
				if err != nil {
					return err
				}
				if tx.ID != id {
					return fmt.Errorf("got transaction %s, want %s", tx.ID, id)
				}
				return nil
			})
		}

		require.NoError(t, g.Wait())
		logThroughput(t, "Transaction retrieval", numTransactions, time.Since(startTime))
	})

	t.Run("Mixed Update And List", func(t *testing.T) {
		startTime := time.Now()

		g, ctx := errgroup.WithContext(context.Background())
		g.SetLimit(concurrency)

		for i, id := range ids {
			i, id := i, id // per-iteration copy (Go 1.21 loop semantics)
			g.Go(func() error {
				if i%10 == 0 {
					_, err := txService.ListTransactions(ctx)
					return err
				}
				_, err := txService.UpdateTransaction(ctx, id, randomInput(id, i))
				return err
			})
		}

		require.NoError(t, g.Wait())
		logThroughput(t, "Mixed update/list", numTransactions, time.Since(startTime))

		txs, err := txService.ListTransactions(context.Background())
		require.NoError(t, err)
		assert.Len(t, txs, numTransactions)
		for i := 1; i < len(txs); i++ {
			assert.False(t, txs[i].Date.After(txs[i-1].Date), "list must be ordered by date descending")
		}
	})
}

func randomInput(id string, n int) service.TransactionInput {
	amount := fmt.Sprintf("%.2f", 100.0+float64(rand.Intn(10000))/100.0)
	date := time.Now().AddDate(0, 0, -rand.Intn(365)).UTC().Format(time.RFC3339)

	return service.TransactionInput{
		ID:          id,
		Amount:      json.RawMessage(amount),
		Date:        json.RawMessage(`"` + date + `"`),
		Description: fmt.Sprintf("Test transaction %d", n),
	}
}

func logThroughput(t *testing.T, name string, count int, duration time.Duration) {
	throughput := float64(count) / duration.Seconds()
	t.Logf("%s: %d operations in %v (%.2f ops/sec)", name, count, duration, throughput)
}

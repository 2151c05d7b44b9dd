package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/damon-houk/transaction-record-service/internal/infrastructure/handler"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/logger"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/metrics"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

// NewHandler wires the transaction routes, health and metrics endpoints behind the
// middleware chain. The chain wraps the router, so 404 and 405 responses get a
// request id, a log line and a metrics sample as well.
func NewHandler(txHandler *handler.TransactionHandler, m *metrics.HTTPMetrics, log logger.Logger) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", handleHealth).Methods("GET")
	router.Handle("/metrics", m.Handler()).Methods("GET")
	txHandler.RegisterRoutes(router)

	var h http.Handler = router
	h = middleware.Metrics(m, router)(h)
	h = middleware.Logging(log)(h)
	h = middleware.RequestID(h)

	return h
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Run serves handler on addr until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, addr string, h http.Handler, shutdownTimeout time.Duration, log logger.Logger) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: h,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server listening", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		log.Info("Shutting down server", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

package profiler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	framesPerSecond = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "birds_frames_per_second",
		Help: "Frames rendered per second over the last profiler interval",
	})
	heapBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "birds_heap_alloc_bytes",
		Help: "Bytes of live heap objects",
	})
	gcCycles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "birds_gc_cycles",
		Help: "Completed GC cycles",
	})
	advanceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "birds_advance_duration_seconds",
		Help:    "Time spent in one flock simulation step",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	})
)

// Serve exposes the default Prometheus registry at /metrics on addr until ctx is done.
//
// Parameters:
//   - ctx: stops the server when done
//   - addr: listen address, e.g. ":2112"
//   - logger: receives the server lifecycle; may be nil
//
// Returns:
//   - error: error if the listener fails; nil after a clean shutdown
func Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down metrics server: %w", err)
		}
		logger.Info("metrics server stopped")
		return nil
	}
}

package fuzzer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Monitor serves the supplemented run-progress endpoint: GET /stats
// returns a Counters.Snapshot() as JSON, GET /healthz reports liveness.
// Grounded in the teacher's server package exposing gin routes over its
// own in-process state (server/routes.go's handler-over-shared-state
// shape, minus the model-serving routes).
type Monitor struct {
	Counters *Counters
	Addr     string

	srv *http.Server
}

// NewMonitor builds a Monitor bound to addr (e.g. ":9595"), reading live
// values from counters on every request.
func NewMonitor(addr string, counters *Counters) *Monitor {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	m := &Monitor{Counters: counters, Addr: addr}

	r.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, counters.Snapshot())
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	m.srv = &http.Server{Addr: addr, Handler: r}
	return m
}

// Serve runs the monitor's HTTP server until ctx is canceled, then shuts
// it down gracefully. It never returns an error for a clean shutdown.
func (m *Monitor) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := m.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("monitor: shutdown", "error", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/liftsim/infra/logger"
)

// StartPromServer serves the default Prometheus registry on addr under
// /metrics until ctx is cancelled. Listen errors are sent on the returned
// channel. An empty addr disables the server and yields a nil channel.
func StartPromServer(ctx context.Context, addr string) <-chan error {
	if addr == "" {
		return nil
	}
	errc := make(chan error, 1)
	log := logger.New("prometheus")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		log.Infof("prometheus listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	return errc
}

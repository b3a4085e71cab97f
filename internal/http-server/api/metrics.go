package api

import (
	"InstaFlow/internal/config"
	"InstaFlow/internal/lib/sl"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
	"net/http"
)

// ServeMetrics exposes Prometheus metrics on their own listener so the
// webhook server keeps a single route. Blocks until the server stops.
func ServeMetrics(conf *config.Config, log *slog.Logger) error {
	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())

	address := fmt.Sprintf("%s:%s", conf.Metrics.BindIP, conf.Metrics.Port)
	log.With(sl.Module("api.metrics")).Info("starting metrics server", slog.String("address", address))

	server := &http.Server{
		Addr:     address,
		Handler:  router,
		ErrorLog: slog.NewLogLogger(log.Handler(), slog.LevelError),
	}
	return server.ListenAndServe()
}

package api

import (
	"InstaFlow/internal/config"
	"InstaFlow/internal/http-server/handlers/errors"
	"InstaFlow/internal/http-server/handlers/instagram"
	"InstaFlow/internal/http-server/middleware/metrics"
	"InstaFlow/internal/http-server/middleware/signature"
	"InstaFlow/internal/lib/sl"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"log/slog"
	"net"
	"net/http"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	instagram.Core
}

func NewRouter(conf *config.Config, log *slog.Logger, handler Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(metrics.New)
	router.Use(middleware.Recoverer)

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Group(func(r chi.Router) {
		r.Use(signature.New(log, conf.Instagram.AppSecret))
		r.Post("/", instagram.Webhook(log, handler))
	})

	if conf.Instagram.VerifyToken != "" {
		router.Get("/", instagram.WebhookVerify(log, conf.Instagram.VerifyToken))
	}

	return router
}

// New serves the webhook on the fixed port and blocks until the server stops.
func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  NewRouter(conf, log, handler),
		ErrorLog: httpLog,
	}

	serverAddress := conf.ListenAddress()
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("server is running", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}

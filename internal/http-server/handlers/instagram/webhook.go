package instagram

import (
	"InstaFlow/entity"
	"InstaFlow/internal/lib/sl"
	"InstaFlow/internal/metrics"
	"context"
	"errors"
	"github.com/go-chi/chi/v5/middleware"
	"io"
	"log/slog"
	"net/http"
)

type Core interface {
	RelayMessage(ctx context.Context, event entity.MessageEvent) error
}

// Webhook relays one incoming message and answers 200 or 500 with an empty body.
func Webhook(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.instagram"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Error("read request body", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		event, err := entity.ParseWebhook(body)
		if err != nil {
			metrics.RelaysTotal.WithLabelValues(metrics.ResultBadPayload).Inc()
			logger.With(
				slog.Bool("bad_payload", errors.Is(err, entity.ErrBadPayload)),
			).Error("parse webhook", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		logger = logger.With(
			slog.String("sender_id", event.SenderID),
			slog.String("text", event.Text),
		)
		logger.Debug("webhook message received")

		if err = handler.RelayMessage(r.Context(), event); err != nil {
			logger.Error("relay message", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

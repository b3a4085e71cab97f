package instagram

import (
	"InstaFlow/internal/lib/sl"
	"log/slog"
	"net/http"
)

// WebhookVerify answers the subscription handshake Meta sends before it
// starts delivering webhooks.
func WebhookVerify(log *slog.Logger, verifyToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.instagram"))

		mode := r.URL.Query().Get("hub.mode")
		token := r.URL.Query().Get("hub.verify_token")
		challenge := r.URL.Query().Get("hub.challenge")

		if mode == "subscribe" && verifyToken != "" && token == verifyToken {
			logger.Info("webhook verified")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(challenge))
			return
		}

		logger.Warn("webhook verification failed",
			slog.String("mode", mode),
			slog.Bool("token_match", token == verifyToken),
		)
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

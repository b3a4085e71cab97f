package signature

import (
	"InstaFlow/bot/insta"
	"InstaFlow/internal/lib/sl"
	"bytes"
	"io"
	"log/slog"
	"net/http"
)

const header = "X-Hub-Signature-256"

// New rejects requests whose X-Hub-Signature-256 does not match the body.
// With an empty appSecret every request passes.
func New(log *slog.Logger, appSecret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		logger := log.With(sl.Module("middleware/signature"))

		fn := func(w http.ResponseWriter, r *http.Request) {
			if appSecret == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Error("read request body", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_ = r.Body.Close()

			if !insta.VerifySignature(appSecret, body, r.Header.Get(header)) {
				logger.With(
					slog.String("remote", r.RemoteAddr),
				).Warn("invalid webhook signature")
				w.WriteHeader(http.StatusForbidden)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}

package errors

import (
	"InstaFlow/internal/lib/api/response"
	"InstaFlow/internal/lib/sl"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

func NotAllowed(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.With(
			sl.Module("http.handlers.errors"),
			slog.String("method", r.Method),
		).Debug("method not allowed")

		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, response.Error("Method not allowed"))
	}
}

package errors

import (
	"InstaFlow/internal/lib/api/response"
	"InstaFlow/internal/lib/sl"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

func NotFound(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.With(
			sl.Module("http.handlers.errors"),
			slog.String("path", r.URL.Path),
		).Debug("route not found")

		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Requested resource not found"))
	}
}

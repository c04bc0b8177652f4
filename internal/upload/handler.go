package upload

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"health-chatbot/internal/platform/httpx"
)

// Handler serves stored uploads without authentication, as the original
// static /uploads/ directory did.
type Handler struct {
	store  Store
	logger logrus.FieldLogger
}

func NewHandler(store Store, logger logrus.FieldLogger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	obj, err := h.store.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "file not found")
			return
		}
		h.logger.WithError(err).WithField("name", name).Error("failed to open upload")
		httpx.WriteInternalError(w)
		return
	}
	defer obj.Close()

	// Anything that is not a known image is downloaded, never rendered.
	ct, ok := contentType(obj.Name)
	if !ok {
		ct = "application/octet-stream"
		w.Header().Set("Content-Disposition", "attachment")
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Security-Policy", "sandbox")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, obj.Name, obj.ModTime, obj)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/uploads/{name}", h.Serve)
}

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"health-chatbot/internal/auth"
	"health-chatbot/internal/consultation"
	"health-chatbot/internal/metrics"
	"health-chatbot/internal/platform/httpx"
	"health-chatbot/internal/upload"
	"health-chatbot/internal/user"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Logger       *logrus.Logger
	DB           Pinger
	Issuer       *auth.Issuer
	Users        *user.Handler
	Consultation *consultation.Handler
	Uploads      *upload.Handler
	CORSOrigin   string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpx.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(httpx.CORS(d.CORSOrigin))

	r.Route("/api", func(r chi.Router) {
		user.RegisterRoutes(r, d.Users)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(d.Issuer))
			consultation.RegisterRoutes(r, d.Consultation)
		})
	})

	upload.RegisterRoutes(r, d.Uploads)

	r.Get("/healthz", healthHandler(d.DB, d.Logger))
	r.Handle("/metrics", metrics.Handler())

	return r
}

func healthHandler(db Pinger, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.WithError(err).Warn("health check: database unreachable")
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

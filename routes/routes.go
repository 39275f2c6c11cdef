package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/fencing-bracket/docs"
	"github.com/Dosada05/fencing-bracket/handlers"
	"github.com/Dosada05/fencing-bracket/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Round     *handlers.RoundHandler
	Bout      *handlers.BoutHandler
	Relay     *handlers.RelayHandler
	WebSocket *handlers.WebSocketHandler
	Health    *handlers.HealthHandler
}

type Options struct {
	AllowedOrigins []string
	Metrics        *metrics.Recorder
	// RequireScorer wraps every route that changes results.
	RequireScorer func(http.Handler) http.Handler
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(opts.Metrics.Middleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", h.Health.Health)
	router.Handle("/metrics", opts.Metrics.Handler())
	router.Get("/swagger/doc.json", serveSwaggerDoc)
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Websocket connections must outlive the request timeout below.
	router.Get("/ws/rounds/{roundID}", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/rounds/{roundID}", func(r chi.Router) {
			r.Get("/", h.Round.GetRound)
			r.Get("/seeding", h.Round.GetSeeding)
			r.Get("/pools", h.Round.GetPools)
			r.Get("/bracket", h.Round.GetBracket)

			r.Group(func(r chi.Router) {
				useIfSet(r, opts.RequireScorer)
				r.Post("/initialize", h.Round.Initialize)
				r.Post("/results/seeding", h.Round.CalculateResults)
				r.Post("/export", h.Round.Export)
			})
		})

		r.Route("/bouts/{boutID}", func(r chi.Router) {
			r.Get("/relay", h.Relay.Get)

			r.Group(func(r chi.Router) {
				useIfSet(r, opts.RequireScorer)
				r.Post("/score", h.Bout.ScoreBout)
				r.Post("/advance", h.Bout.Advance)
				r.Post("/relay", h.Relay.Start)
				r.Post("/relay/legs", h.Relay.RecordLeg)
				r.Put("/relay/legs/{legNumber}", h.Relay.CorrectLeg)
				r.Post("/relay/rotation", h.Relay.ForceRotation)
			})
		})
	})
}

func useIfSet(r chi.Router, mw func(http.Handler) http.Handler) {
	if mw != nil {
		r.Use(mw)
	}
}

func serveSwaggerDoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(docs.SwaggerJSON)
}

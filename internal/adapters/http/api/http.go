// Package api exposes the live service over REST and WebSocket.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/okian/crease/internal/adapters/http/swagger"
	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/internal/domain/notify"
	"github.com/okian/crease/pkg/logger"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxLimit       = 100
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	UpsertScore(ctx context.Context, matchID, playerID string, fields model.ScoreFields) (model.ScoreRecord, error)
	UpdateScore(ctx context.Context, matchID, playerID string, fields model.ScoreFields) (model.ScoreRecord, error)
	GetScore(ctx context.Context, matchID, playerID string) (model.ScoreRecord, error)
	QueryScores(ctx context.Context, filter model.ScoreFilter) ([]model.ScoreRecord, error)
	RemoveScore(ctx context.Context, matchID, playerID string) (bool, error)

	Scorecard(ctx context.Context, matchID string) (model.Scorecard, error)
	Matches(ctx context.Context) ([]model.Match, error)

	Follow(ctx context.Context, userID, matchID string) error
	Unfollow(ctx context.Context, userID, matchID string) bool

	Notifications(ctx context.Context, userID string, limit int) []model.Notification
	UnreadCount(ctx context.Context, userID string) int
	MarkRead(ctx context.Context, userID, notificationID string) bool
	ClearNotifications(ctx context.Context, userID string)
	SubscribeNotifications(fn notify.Subscriber) notify.SubscriptionID
	UnsubscribeNotifications(id notify.SubscriptionID)
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed browser origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithMaxNotificationLimit caps the limit query parameter.
func WithMaxNotificationLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithRequestTimeout bounds REST handlers. WebSocket connections are not bounded.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// Server wires HTTP routes for the live API.
type Server struct {
	deps        Dependencies
	health      *HealthHandler
	stats       *StatsHandler
	corsOrigins []string
	maxLimit    int
	timeout     time.Duration
	log         logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:        deps,
		health:      NewHealthHandler(),
		stats:       NewStatsHandler(statsProvider),
		corsOrigins: []string{"*"},
		maxLimit:    defaultMaxLimit,
		timeout:     defaultRequestTimeout,
		log:         logger.Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router. ctx bounds the lifetime of WebSocket connections.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(s.log))
	r.Use(Metrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, msgMethodNotAllow)
	})

	r.Get("/healthz", s.health.HandleHealth)
	r.Get("/stats", s.stats.HandleStats)
	r.Get("/ws", newWSHandler(ctx, s.deps, s.log).serve)
	swagger.Register(r)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(s.timeout))

		r.Get("/scores", s.listScores)
		r.Post("/scores", s.createScore)
		r.Get("/scores/{matchId}/{playerId}", s.getScore)
		r.Put("/scores/{matchId}/{playerId}", s.updateScore)
		r.Delete("/scores/{matchId}/{playerId}", s.deleteScore)

		r.Get("/matches", s.listMatches)
		r.Get("/matches/{matchId}", s.getMatch)
		r.Get("/matches/{matchId}/{section}", s.getMatchSection)

		r.Post("/live/{matchId}/followers/{userId}", s.follow)
		r.Delete("/live/{matchId}/followers/{userId}", s.unfollow)

		r.Get("/notifications/{userId}", s.listNotifications)
		r.Delete("/notifications/{userId}", s.clearNotifications)
		r.Post("/notifications/{userId}/{notificationId}/read", s.markRead)
	})
	return r
}

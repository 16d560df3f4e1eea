// Package api provides HTTP handlers and the main API server logic for the
// signage engine.
//
// It exposes the display-facing endpoints the lobby screen polls, the
// guest-facing poll and check-in endpoints, and the admin content endpoints.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pawhaus/signage/internal/engine"
	"github.com/pawhaus/signage/internal/genai"
	"github.com/pawhaus/signage/internal/poll"
	"github.com/pawhaus/signage/internal/reminder"
	"github.com/pawhaus/signage/internal/store"
)

// DefaultRequestTimeout bounds store work done on behalf of one request.
const DefaultRequestTimeout = 10 * time.Second

// Server wires the engine components behind the HTTP surface.
type Server struct {
	engine   *engine.Engine
	rotator  *poll.Rotator
	tracker  *reminder.Tracker
	store    store.Store
	gaClient *genai.Client
	now      func() time.Time
}

// Opts holds optional server collaborators.
type Opts struct {
	GenAI *genai.Client
	Clock func() time.Time
}

// Option customizes Server construction.
type Option func(*Opts)

// WithGenAI enables the poll-suggestion endpoint.
func WithGenAI(c *genai.Client) Option {
	return func(o *Opts) { o.GenAI = c }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) { o.Clock = now }
}

// NewServer creates a Server over the given components.
func NewServer(eng *engine.Engine, rot *poll.Rotator, trk *reminder.Tracker, st store.Store, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Server{
		engine:   eng,
		rotator:  rot,
		tracker:  trk,
		store:    st,
		gaClient: cfg.GenAI,
		now:      time.Now,
	}
	if cfg.Clock != nil {
		s.now = cfg.Clock
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Display surface, polled by the lobby screen.
	mux.HandleFunc("/display/rotation", s.rotationHandler)
	mux.HandleFunc("/display/slide", s.currentSlideHandler)
	mux.HandleFunc("/display/advance", s.advanceHandler)
	mux.HandleFunc("/display/retreat", s.retreatHandler)
	mux.HandleFunc("/display/poll", s.displayPollHandler)
	mux.HandleFunc("/display/reminders", s.remindersHandler)
	mux.HandleFunc("/display/welcomes", s.welcomesHandler)

	// Guest surface.
	mux.HandleFunc("/polls/{id}/vote", s.voteHandler)
	mux.HandleFunc("/polls/{id}/results", s.resultsHandler)
	mux.HandleFunc("/checkin", s.checkinHandler)

	// Admin surface.
	mux.HandleFunc("/polls", s.pollsHandler)
	mux.HandleFunc("/polls/{id}/reset", s.resetPollHandler)
	mux.HandleFunc("/slides", s.slidesHandler)
	mux.HandleFunc("/playlists", s.playlistsHandler)
	mux.HandleFunc("/admin/polls/suggest", s.suggestPollHandler)

	return mux
}

// Run starts the HTTP server on addr and blocks until it exits.
func (s *Server) Run(addr string) error {
	slog.Info("Server.Run: signage API listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// requestContext derives a timeout-bounded context for store work.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), DefaultRequestTimeout)
}

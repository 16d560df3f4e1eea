// Package api provides HTTP handlers for the display surface.
package api

import (
	"log/slog"
	"net/http"

	"github.com/pawhaus/signage/internal/models"
)

// rotationResponse is the payload the screen uses to render its loop.
type rotationResponse struct {
	Slides      []models.Slide `json:"slides"`
	Offline     bool           `json:"offline"`
	RefreshedAt string         `json:"refreshed_at,omitempty"`
}

// slideResponse carries a single slide plus the offline flag.
type slideResponse struct {
	Slide   models.Slide `json:"slide"`
	Offline bool         `json:"offline"`
}

func (s *Server) rotationHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.rotationHandler: processing request", "method", r.Method)
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	resp := rotationResponse{
		Slides:  s.engine.Rotation(),
		Offline: s.engine.Offline(),
	}
	if t := s.engine.LastRefresh(); !t.IsZero() {
		resp.RefreshedAt = t.Format("2006-01-02T15:04:05Z07:00")
	}
	writeJSONResponse(w, http.StatusOK, models.Success(resp))
}

func (s *Server) currentSlideHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	slide, ok := s.engine.CurrentSlide()
	if !ok {
		// Empty rotation is a state, not an error; the screen shows its
		// standby card.
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("rotation empty", nil))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(slideResponse{Slide: slide, Offline: s.engine.Offline()}))
}

func (s *Server) advanceHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.advanceHandler: processing request", "method", r.Method)
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	slide, ok := s.engine.Advance()
	if !ok {
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("rotation empty", nil))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(slideResponse{Slide: slide, Offline: s.engine.Offline()}))
}

func (s *Server) retreatHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.retreatHandler: processing request", "method", r.Method)
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	slide, ok := s.engine.Retreat()
	if !ok {
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("rotation empty", nil))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(slideResponse{Slide: slide, Offline: s.engine.Offline()}))
}

// displayPollResponse carries the poll currently bound to the session bucket.
type displayPollResponse struct {
	Poll    *models.Poll        `json:"poll,omitempty"`
	Options []models.PollOption `json:"options,omitempty"`
	Empty   bool                `json:"empty"`
}

func (s *Server) displayPollHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.displayPollHandler: processing request", "method", r.Method)
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	p, options, err := s.rotator.CurrentPollForDisplay(ctx)
	if err != nil {
		slog.Error("Server.displayPollHandler: poll selection failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to select poll"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(displayPollResponse{
		Poll:    p,
		Options: options,
		Empty:   p == nil,
	}))
}

func (s *Server) remindersHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	reminders := s.tracker.VisibleReminders(s.now())
	writeJSONResponse(w, http.StatusOK, models.Success(reminders))
}

func (s *Server) welcomesHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	welcomes := s.tracker.VisibleWelcomes(s.now())
	writeJSONResponse(w, http.StatusOK, models.Success(welcomes))
}

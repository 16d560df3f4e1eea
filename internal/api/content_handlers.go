// Package api provides HTTP handlers for content and check-in endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pawhaus/signage/internal/models"
	"github.com/pawhaus/signage/internal/util"
)

// slidesHandler lists slides (GET) or creates one (POST).
func (s *Server) slidesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.slidesHandler: processing request", "method", r.Method, "path", r.URL.Path)
	ctx, cancel := requestContext(r)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		slides, err := s.store.ListSlides(ctx)
		if err != nil {
			slog.Error("Server.slidesHandler: listing failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list slides"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(slides))
	case http.MethodPost:
		var sl models.Slide
		if err := json.NewDecoder(r.Body).Decode(&sl); err != nil {
			slog.Warn("Server.slidesHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if sl.ID == "" {
			sl.ID = util.GenerateSlideID()
		}
		if err := sl.Validate(); err != nil {
			slog.Warn("Server.slidesHandler: validation failed", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
			return
		}
		if err := s.store.CreateSlide(ctx, sl); err != nil {
			slog.Error("Server.slidesHandler: create failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create slide"))
			return
		}
		slog.Info("Server.slidesHandler: slide created", "slide_id", sl.ID, "type", sl.Type)
		writeJSONResponse(w, http.StatusCreated, models.Success(sl))
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// playlistsHandler lists playlists (GET) or creates one (POST).
func (s *Server) playlistsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.playlistsHandler: processing request", "method", r.Method, "path", r.URL.Path)
	ctx, cancel := requestContext(r)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		playlists, err := s.store.ListPlaylists(ctx)
		if err != nil {
			slog.Error("Server.playlistsHandler: listing failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list playlists"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(playlists))
	case http.MethodPost:
		var pl models.Playlist
		if err := json.NewDecoder(r.Body).Decode(&pl); err != nil {
			slog.Warn("Server.playlistsHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if pl.ID == "" {
			pl.ID = util.GeneratePlaylistID()
		}
		if err := pl.Validate(); err != nil {
			slog.Warn("Server.playlistsHandler: validation failed", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
			return
		}
		if err := s.store.CreatePlaylist(ctx, pl); err != nil {
			slog.Error("Server.playlistsHandler: create failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create playlist"))
			return
		}
		slog.Info("Server.playlistsHandler: playlist created", "playlist_id", pl.ID)
		writeJSONResponse(w, http.StatusCreated, models.Success(pl))
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// checkinRequest is the front-desk check-in payload.
type checkinRequest struct {
	GuestName       string `json:"guest_name,omitempty"`
	GuestCount      int    `json:"guest_count"`
	DurationMinutes int    `json:"duration_minutes"`
	Phone           string `json:"phone,omitempty"`
}

func (s *Server) checkinHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.checkinHandler: processing request", "method", r.Method)
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req checkinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.checkinHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.GuestCount == 0 {
		req.GuestCount = 1
	}

	now := s.now()
	session := models.GuestSession{
		ID:              util.GenerateSessionID(),
		GuestName:       req.GuestName,
		GuestCount:      req.GuestCount,
		DurationMinutes: req.DurationMinutes,
		Status:          models.SessionStatusActive,
		CheckInAt:       now,
		ExpiresAt:       now.Add(time.Duration(req.DurationMinutes) * time.Minute),
		Phone:           req.Phone,
	}
	if err := session.Validate(); err != nil {
		slog.Warn("Server.checkinHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := s.store.CreateGuestSession(ctx, session); err != nil {
		slog.Error("Server.checkinHandler: create failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create session"))
		return
	}
	// Surface the welcome immediately instead of waiting for the next
	// check-in sweep.
	s.tracker.ObserveCheckins(ctx, []models.GuestSession{session})

	slog.Info("Server.checkinHandler: guest checked in",
		"session_id", session.ID, "guests", session.GuestCount, "minutes", session.DurationMinutes)
	writeJSONResponse(w, http.StatusCreated, models.Success(session))
}

// Package api provides HTTP handlers for poll endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/pawhaus/signage/internal/models"
	"github.com/pawhaus/signage/internal/util"
)

// pollsHandler lists polls (GET) or creates one (POST).
func (s *Server) pollsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.pollsHandler: processing request", "method", r.Method, "path", r.URL.Path)
	ctx, cancel := requestContext(r)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		polls, err := s.store.ListPolls(ctx)
		if err != nil {
			slog.Error("Server.pollsHandler: listing failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list polls"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(polls))
	case http.MethodPost:
		var p models.Poll
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			slog.Warn("Server.pollsHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if p.ID == "" {
			p.ID = util.GeneratePollID()
		}
		if p.Status == "" {
			p.Status = models.PollStatusDraft
		}
		if err := p.Validate(); err != nil {
			slog.Warn("Server.pollsHandler: validation failed", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
			return
		}
		if err := s.store.CreatePoll(ctx, p); err != nil {
			slog.Error("Server.pollsHandler: create failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create poll"))
			return
		}
		slog.Info("Server.pollsHandler: poll created", "poll_id", p.ID, "type", p.Type)
		writeJSONResponse(w, http.StatusCreated, models.Success(p))
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// voteRequest is the guest vote payload.
type voteRequest struct {
	OptionID string `json:"option_id"`
}

func (s *Server) voteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.voteHandler: processing request", "method", r.Method, "path", r.URL.Path)
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	pollID := r.PathValue("id")

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.voteHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.OptionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: option_id"))
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	p, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		slog.Warn("Server.voteHandler: poll not found", "poll_id", pollID, "error", err)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Poll not found"))
		return
	}
	if p.Status != models.PollStatusActive {
		writeJSONResponse(w, http.StatusConflict, models.Error("Poll is not accepting votes"))
		return
	}
	// Custom polls carry their own option list; template polls resolve
	// options dynamically, so membership is only checked when known.
	if len(p.Options) > 0 && !optionExists(p.Options, req.OptionID) {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Unknown option"))
		return
	}

	vote := models.Vote{
		ID:       uuid.NewString(),
		PollID:   pollID,
		OptionID: req.OptionID,
		CastAt:   s.now(),
	}
	if err := s.store.RecordVote(ctx, vote); err != nil {
		slog.Error("Server.voteHandler: vote recording failed", "poll_id", pollID, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to record vote"))
		return
	}
	slog.Info("Server.voteHandler: vote recorded", "poll_id", pollID, "option_id", req.OptionID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Vote recorded", nil))
}

func (s *Server) resultsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.resultsHandler: processing request", "method", r.Method, "path", r.URL.Path)
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	results, err := s.rotator.Results(ctx, r.PathValue("id"))
	if err != nil {
		slog.Warn("Server.resultsHandler: results lookup failed", "poll_id", r.PathValue("id"), "error", err)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Poll not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(results))
}

func (s *Server) resetPollHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.resetPollHandler: processing request", "method", r.Method, "path", r.URL.Path)
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	pollID := r.PathValue("id")
	if err := s.rotator.ResetVotes(ctx, pollID); err != nil {
		slog.Error("Server.resetPollHandler: reset failed", "poll_id", pollID, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to reset poll"))
		return
	}
	slog.Info("Server.resetPollHandler: poll reset", "poll_id", pollID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Poll reset", nil))
}

// suggestRequest is the admin poll-drafting payload.
type suggestRequest struct {
	Theme string `json:"theme"`
}

func (s *Server) suggestPollHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.suggestPollHandler: processing request", "method", r.Method)
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if s.gaClient == nil {
		slog.Warn("Server.suggestPollHandler: GenAI client not configured")
		writeJSONResponse(w, http.StatusBadRequest, models.Error("GenAI client not configured"))
		return
	}
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.suggestPollHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Theme == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: theme"))
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	var names []string
	if cats, err := s.store.ListAdoptableCats(ctx); err == nil {
		for _, c := range cats {
			names = append(names, c.DisplayName)
		}
	}
	suggestion, err := s.gaClient.SuggestPoll(ctx, req.Theme, names)
	if err != nil {
		slog.Error("Server.suggestPollHandler: suggestion failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to draft poll"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(suggestion))
}

func optionExists(options []models.PollOption, id string) bool {
	for _, o := range options {
		if o.ID == id {
			return true
		}
	}
	return false
}

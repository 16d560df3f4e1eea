// Package store provides storage backends for the signage engine.
//
// It includes an in-memory store for tests and development, plus SQLite and
// PostgreSQL adapters. Adapters are responsible for normalizing legacy data
// shapes (notably double-JSON-encoded poll options) before rows reach the
// core, and for the ordering contracts the core relies on: playlists sorted
// by sort order, polls sorted by lastShownAt ascending with nulls first.
package store

import (
	"context"
	"time"

	"github.com/pawhaus/signage/internal/models"
)

// Store is the persistence contract consumed by the engine, the poll
// rotator and the reminder tracker.
type Store interface {
	// Slides and playlists.
	ListPlaylists(ctx context.Context) ([]models.Playlist, error)
	ListSlidesForPlaylist(ctx context.Context, playlistID string) ([]models.Slide, error)
	ListAllActiveSlides(ctx context.Context) ([]models.Slide, error)
	ListSlides(ctx context.Context) ([]models.Slide, error)
	CreateSlide(ctx context.Context, s models.Slide) error
	CreatePlaylist(ctx context.Context, p models.Playlist) error

	// Polls and votes.
	ListActiveTemplatePolls(ctx context.Context) ([]models.Poll, error)
	ListActiveCustomPolls(ctx context.Context) ([]models.Poll, error)
	ListPolls(ctx context.Context) ([]models.Poll, error)
	GetPoll(ctx context.Context, id string) (models.Poll, error)
	CreatePoll(ctx context.Context, p models.Poll) error
	RecordPollShown(ctx context.Context, pollID string, shownAt time.Time) error
	RecordVote(ctx context.Context, v models.Vote) error
	ListVotesForPoll(ctx context.Context, pollID string) ([]models.Vote, error)
	ResetPollVotes(ctx context.Context, pollID string, shownAt time.Time) error

	// Adoptable cats.
	ListAdoptableCats(ctx context.Context) ([]models.Cat, error)

	// Guest sessions.
	CreateGuestSession(ctx context.Context, g models.GuestSession) error
	UpdateGuestSession(ctx context.Context, g models.GuestSession) error
	ListSessionsNeedingReminder(ctx context.Context, now time.Time, lookahead time.Duration) ([]models.GuestSession, error)
	ListRecentlyCheckedIn(ctx context.Context, now time.Time, window time.Duration) ([]models.GuestSession, error)

	// Close releases underlying resources.
	Close() error
}

package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/pawhaus/signage/internal/models"
)

// SlideSource is the subset of the store the resolver reads from.
type SlideSource interface {
	// ListPlaylists returns all playlists sorted by sort order ascending.
	ListPlaylists(ctx context.Context) ([]models.Playlist, error)
	// ListSlidesForPlaylist returns a playlist's member slides in playlist order.
	ListSlidesForPlaylist(ctx context.Context, playlistID string) ([]models.Slide, error)
	// ListAllActiveSlides returns every active slide in the catalog.
	ListAllActiveSlides(ctx context.Context) ([]models.Slide, error)
}

// Resolver applies the four-tier fallback policy that picks the effective
// slide set for "right now":
//
//  1. first schedule-eligible playlist by sort order
//  2. the manually active playlist
//  3. the default playlist
//  4. all active slides in the catalog
//
// Each tier filters to active member slides and falls through when the
// filtered list is empty, so the screen is never blank merely because a
// scheduled playlist has no currently-enabled members.
type Resolver struct {
	source SlideSource
}

// NewResolver creates a Resolver reading from the given source.
func NewResolver(source SlideSource) *Resolver {
	return &Resolver{source: source}
}

// ResolveActiveSlides returns the ordered slide set in effect at now.
// An empty result is not an error; the caller shows a fallback state.
func (r *Resolver) ResolveActiveSlides(ctx context.Context, now time.Time) ([]models.Slide, error) {
	playlists, err := r.source.ListPlaylists(ctx)
	if err != nil {
		slog.Warn("Resolver.ResolveActiveSlides: playlist listing failed, using global fallback", "error", err)
		return r.globalFallback(ctx)
	}

	// Tier 1: first schedule-eligible playlist by sort order.
	for _, pl := range playlists {
		if !PlaylistEligibleNow(pl, now) {
			continue
		}
		slides, ok := r.activeMembers(ctx, pl)
		if ok {
			slog.Debug("Resolver.ResolveActiveSlides: scheduled playlist matched", "playlist_id", pl.ID, "slides", len(slides))
			return slides, nil
		}
	}

	// Tier 2: manually active playlist. The store enforces at-most-one; if
	// it ever returns more, the first by sort order wins and we proceed.
	for _, pl := range playlists {
		if !pl.IsActive {
			continue
		}
		slides, ok := r.activeMembers(ctx, pl)
		if ok {
			slog.Debug("Resolver.ResolveActiveSlides: manually active playlist", "playlist_id", pl.ID, "slides", len(slides))
			return slides, nil
		}
		break
	}

	// Tier 3: default playlist.
	for _, pl := range playlists {
		if !pl.IsDefault {
			continue
		}
		slides, ok := r.activeMembers(ctx, pl)
		if ok {
			slog.Debug("Resolver.ResolveActiveSlides: default playlist", "playlist_id", pl.ID, "slides", len(slides))
			return slides, nil
		}
		break
	}

	return r.globalFallback(ctx)
}

// activeMembers returns the playlist's active member slides and whether the
// filtered list is non-empty. A fetch failure counts as empty so the
// cascade can keep degrading instead of erroring out.
func (r *Resolver) activeMembers(ctx context.Context, pl models.Playlist) ([]models.Slide, bool) {
	slides, err := r.source.ListSlidesForPlaylist(ctx, pl.ID)
	if err != nil {
		slog.Warn("Resolver.activeMembers: slide listing failed, falling through", "playlist_id", pl.ID, "error", err)
		return nil, false
	}
	active := slides[:0:0]
	for _, s := range slides {
		if s.IsActive {
			active = append(active, s)
		}
	}
	return active, len(active) > 0
}

func (r *Resolver) globalFallback(ctx context.Context) ([]models.Slide, error) {
	slides, err := r.source.ListAllActiveSlides(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("Resolver.ResolveActiveSlides: global fallback", "slides", len(slides))
	return slides, nil
}

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pawhaus/signage/internal/models"
)

// InMemoryStore is a mutex-guarded in-memory Store used by tests and
// development setups. It applies the same ordering contracts as the SQL
// adapters.
type InMemoryStore struct {
	mu        sync.RWMutex
	slides    []models.Slide
	playlists []models.Playlist
	polls     map[string]*models.Poll
	votes     map[string][]models.Vote
	sessions  map[string]*models.GuestSession
	cats      []models.Cat
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		polls:    make(map[string]*models.Poll),
		votes:    make(map[string][]models.Vote),
		sessions: make(map[string]*models.GuestSession),
	}
}

func (s *InMemoryStore) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Playlist(nil), s.playlists...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *InMemoryStore) ListSlidesForPlaylist(ctx context.Context, playlistID string) ([]models.Slide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, pl := range s.playlists {
		if pl.ID != playlistID {
			continue
		}
		byID := make(map[string]models.Slide, len(s.slides))
		for _, sl := range s.slides {
			byID[sl.ID] = sl
		}
		var out []models.Slide
		for _, id := range pl.SlideIDs {
			if sl, ok := byID[id]; ok {
				out = append(out, sl)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("playlist %s not found", playlistID)
}

func (s *InMemoryStore) ListAllActiveSlides(ctx context.Context) ([]models.Slide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Slide
	for _, sl := range s.slides {
		if sl.IsActive {
			out = append(out, sl)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *InMemoryStore) ListSlides(ctx context.Context) ([]models.Slide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Slide(nil), s.slides...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *InMemoryStore) CreateSlide(ctx context.Context, sl models.Slide) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slides = append(s.slides, sl)
	return nil
}

func (s *InMemoryStore) CreatePlaylist(ctx context.Context, p models.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists = append(s.playlists, p)
	return nil
}

func (s *InMemoryStore) listPollsByType(pt models.PollType) []models.Poll {
	var out []models.Poll
	for _, p := range s.polls {
		if p.Type == pt && p.Status == models.PollStatusActive {
			out = append(out, *p)
		}
	}
	sortPollsByLastShown(out)
	return out
}

func (s *InMemoryStore) ListActiveTemplatePolls(ctx context.Context) ([]models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listPollsByType(models.PollTypeTemplate), nil
}

func (s *InMemoryStore) ListActiveCustomPolls(ctx context.Context) ([]models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listPollsByType(models.PollTypeCustom), nil
}

func (s *InMemoryStore) ListPolls(ctx context.Context) ([]models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Poll
	for _, p := range s.polls {
		out = append(out, *p)
	}
	sortPollsByLastShown(out)
	return out, nil
}

func (s *InMemoryStore) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.polls[id]; ok {
		return *p, nil
	}
	return models.Poll{}, fmt.Errorf("poll %s not found", id)
}

func (s *InMemoryStore) CreatePoll(ctx context.Context, p models.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.polls[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) RecordPollShown(ctx context.Context, pollID string, shownAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polls[pollID]
	if !ok {
		return fmt.Errorf("poll %s not found", pollID)
	}
	t := shownAt
	p.LastShownAt = &t
	return nil
}

func (s *InMemoryStore) RecordVote(ctx context.Context, v models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polls[v.PollID]
	if !ok {
		return fmt.Errorf("poll %s not found", v.PollID)
	}
	s.votes[v.PollID] = append(s.votes[v.PollID], v)
	p.TotalVotes++
	return nil
}

func (s *InMemoryStore) ListVotesForPoll(ctx context.Context, pollID string) ([]models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Vote(nil), s.votes[pollID]...), nil
}

func (s *InMemoryStore) ResetPollVotes(ctx context.Context, pollID string, shownAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polls[pollID]
	if !ok {
		return fmt.Errorf("poll %s not found", pollID)
	}
	delete(s.votes, pollID)
	p.TotalVotes = 0
	t := shownAt
	p.LastShownAt = &t
	return nil
}

func (s *InMemoryStore) ListAdoptableCats(ctx context.Context) ([]models.Cat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Cat(nil), s.cats...), nil
}

// SetAdoptableCats replaces the adoptable-cat pool. The live deployment
// syncs this from the adoption system.
func (s *InMemoryStore) SetAdoptableCats(cats []models.Cat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cats = append([]models.Cat(nil), cats...)
}

func (s *InMemoryStore) CreateGuestSession(ctx context.Context, g models.GuestSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := g
	s.sessions[g.ID] = &cp
	return nil
}

func (s *InMemoryStore) UpdateGuestSession(ctx context.Context, g models.GuestSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[g.ID]; !ok {
		return fmt.Errorf("guest session %s not found", g.ID)
	}
	cp := g
	s.sessions[g.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListSessionsNeedingReminder(ctx context.Context, now time.Time, lookahead time.Duration) ([]models.GuestSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.GuestSession
	horizon := now.Add(lookahead)
	for _, g := range s.sessions {
		if g.Status != models.SessionStatusActive && g.Status != models.SessionStatusExtended {
			continue
		}
		if g.ExpiresAt.After(now) && !g.ExpiresAt.After(horizon) {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (s *InMemoryStore) ListRecentlyCheckedIn(ctx context.Context, now time.Time, window time.Duration) ([]models.GuestSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.GuestSession
	cutoff := now.Add(-window)
	for _, g := range s.sessions {
		if g.Status != models.SessionStatusActive && g.Status != models.SessionStatusExtended {
			continue
		}
		if !g.CheckInAt.Before(cutoff) {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInAt.Before(out[j].CheckInAt) })
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }

// sortPollsByLastShown orders least-recently-shown first with nulls first;
// ties break on id so rotation order is stable.
func sortPollsByLastShown(polls []models.Poll) {
	sort.SliceStable(polls, func(i, j int) bool {
		a, b := polls[i], polls[j]
		switch {
		case a.LastShownAt == nil && b.LastShownAt != nil:
			return true
		case a.LastShownAt != nil && b.LastShownAt == nil:
			return false
		case a.LastShownAt != nil && b.LastShownAt != nil && !a.LastShownAt.Equal(*b.LastShownAt):
			return a.LastShownAt.Before(*b.LastShownAt)
		default:
			return a.ID < b.ID
		}
	})
}

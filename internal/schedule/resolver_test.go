package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pawhaus/signage/internal/models"
)

// fakeSource is a minimal in-memory SlideSource for resolver tests.
type fakeSource struct {
	playlists    []models.Playlist
	slides       map[string][]models.Slide
	activeSlides []models.Slide
	listErr      error
	memberErr    map[string]error
}

func (f *fakeSource) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return f.playlists, f.listErr
}

func (f *fakeSource) ListSlidesForPlaylist(ctx context.Context, id string) ([]models.Slide, error) {
	if err, ok := f.memberErr[id]; ok {
		return nil, err
	}
	return f.slides[id], nil
}

func (f *fakeSource) ListAllActiveSlides(ctx context.Context) ([]models.Slide, error) {
	return f.activeSlides, nil
}

func slide(id string, active bool) models.Slide {
	return models.Slide{ID: id, Type: models.SlideTypePromo, Priority: 1, DurationSeconds: 10, IsActive: active}
}

func ids(slides []models.Slide) []string {
	out := make([]string, len(slides))
	for i, s := range slides {
		out[i] = s.ID
	}
	return out
}

func TestResolverScheduledTierWins(t *testing.T) {
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		playlists: []models.Playlist{
			{ID: "morning", SortOrder: 1, SchedulingEnabled: true, TimeStart: "08:00", TimeEnd: "18:00"},
			{ID: "manual", SortOrder: 2, IsActive: true},
			{ID: "fallback", SortOrder: 3, IsDefault: true},
		},
		slides: map[string][]models.Slide{
			"morning":  {slide("m1", true), slide("m2", false)},
			"manual":   {slide("a1", true)},
			"fallback": {slide("d1", true)},
		},
	}
	r := NewResolver(src)
	got, err := r.ResolveActiveSlides(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m1" {
		t.Errorf("expected scheduled tier slides [m1], got %v", ids(got))
	}
}

func TestResolverFallsThroughEmptyScheduledPlaylist(t *testing.T) {
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		playlists: []models.Playlist{
			{ID: "sched", SortOrder: 1, SchedulingEnabled: true, TimeStart: "08:00", TimeEnd: "18:00"},
			{ID: "manual", SortOrder: 2, IsActive: true},
		},
		slides: map[string][]models.Slide{
			"sched":  {slide("s1", false)}, // all members inactive
			"manual": {slide("a1", true)},
		},
	}
	r := NewResolver(src)
	got, err := r.ResolveActiveSlides(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a1" {
		t.Errorf("expected manual tier slides [a1], got %v", ids(got))
	}
}

func TestResolverDefaultTier(t *testing.T) {
	src := &fakeSource{
		playlists: []models.Playlist{
			{ID: "manual", SortOrder: 1, IsActive: true},
			{ID: "default", SortOrder: 2, IsDefault: true},
		},
		slides: map[string][]models.Slide{
			"manual":  {}, // empty, falls through
			"default": {slide("d1", true), slide("d2", true)},
		},
	}
	r := NewResolver(src)
	got, err := r.ResolveActiveSlides(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "d1" {
		t.Errorf("expected default tier slides [d1 d2], got %v", ids(got))
	}
}

func TestResolverGlobalFallback(t *testing.T) {
	src := &fakeSource{
		playlists:    []models.Playlist{{ID: "empty", IsDefault: true}},
		slides:       map[string][]models.Slide{"empty": {}},
		activeSlides: []models.Slide{slide("g1", true)},
	}
	r := NewResolver(src)
	got, err := r.ResolveActiveSlides(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "g1" {
		t.Errorf("expected global fallback [g1], got %v", ids(got))
	}
}

func TestResolverAllTiersEmpty(t *testing.T) {
	src := &fakeSource{}
	r := NewResolver(src)
	got, err := r.ResolveActiveSlides(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("empty catalog must not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", ids(got))
	}
}

func TestResolverPlaylistListErrorUsesGlobalFallback(t *testing.T) {
	src := &fakeSource{
		listErr:      errors.New("store offline"),
		activeSlides: []models.Slide{slide("g1", true)},
	}
	r := NewResolver(src)
	got, err := r.ResolveActiveSlides(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "g1" {
		t.Errorf("expected global fallback on playlist error, got %v", ids(got))
	}
}

func TestResolverMemberFetchErrorFallsThrough(t *testing.T) {
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		playlists: []models.Playlist{
			{ID: "sched", SortOrder: 1, SchedulingEnabled: true, TimeStart: "08:00", TimeEnd: "18:00"},
			{ID: "default", SortOrder: 2, IsDefault: true},
		},
		slides:    map[string][]models.Slide{"default": {slide("d1", true)}},
		memberErr: map[string]error{"sched": errors.New("timeout")},
	}
	r := NewResolver(src)
	got, err := r.ResolveActiveSlides(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "d1" {
		t.Errorf("expected fall-through to default tier, got %v", ids(got))
	}
}

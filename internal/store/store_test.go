package store

import (
	"context"
	"testing"
	"time"

	"github.com/pawhaus/signage/internal/models"
)

func TestDecodePollOptionsPlain(t *testing.T) {
	raw := `[{"id":"o1","label":"Tuna"},{"id":"o2","label":"Chicken"}]`
	opts := decodePollOptions(raw)
	if len(opts) != 2 || opts[0].ID != "o1" || opts[1].Label != "Chicken" {
		t.Errorf("plain payload decoded wrong: %+v", opts)
	}
}

func TestDecodePollOptionsDoubleEncoded(t *testing.T) {
	// Legacy rows stored the JSON array as a JSON string, sometimes twice.
	raw := `"[{\"id\":\"o1\",\"label\":\"Tuna\"}]"`
	opts := decodePollOptions(raw)
	if len(opts) != 1 || opts[0].ID != "o1" {
		t.Errorf("double-encoded payload decoded wrong: %+v", opts)
	}

	twice := `"\"[{\\\"id\\\":\\\"o1\\\",\\\"label\\\":\\\"Tuna\\\"}]\""`
	opts = decodePollOptions(twice)
	if len(opts) != 1 || opts[0].ID != "o1" {
		t.Errorf("triple-wrapped payload decoded wrong: %+v", opts)
	}
}

func TestDecodePollOptionsMalformed(t *testing.T) {
	if opts := decodePollOptions(`{{not json`); opts != nil {
		t.Errorf("malformed payload must yield empty options, got %+v", opts)
	}
	if opts := decodePollOptions(""); opts != nil {
		t.Errorf("empty payload must yield empty options, got %+v", opts)
	}
}

func TestInMemoryPlaylistOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	_ = s.CreatePlaylist(ctx, models.Playlist{ID: "b", SortOrder: 2})
	_ = s.CreatePlaylist(ctx, models.Playlist{ID: "a", SortOrder: 1})

	got, err := s.ListPlaylists(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("playlists must be sorted by sort order, got %v then %v", got[0].ID, got[1].ID)
	}
}

func TestInMemoryPlaylistSlides(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	_ = s.CreateSlide(ctx, models.Slide{ID: "s1", Type: models.SlideTypePromo, Priority: 1, DurationSeconds: 10, IsActive: true})
	_ = s.CreateSlide(ctx, models.Slide{ID: "s2", Type: models.SlideTypeEvent, Priority: 1, DurationSeconds: 10, IsActive: false})
	_ = s.CreatePlaylist(ctx, models.Playlist{ID: "p1", SlideIDs: []string{"s2", "s1"}})

	got, err := s.ListSlidesForPlaylist(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "s2" {
		t.Errorf("playlist slides must preserve playlist order, got %+v", got)
	}

	active, err := s.ListAllActiveSlides(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].ID != "s1" {
		t.Errorf("only active slides expected, got %+v", active)
	}
}

func TestInMemoryPollLeastRecentlyShownOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	shown := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.CreatePoll(ctx, models.Poll{ID: "old", Type: models.PollTypeTemplate, Status: models.PollStatusActive, LastShownAt: &shown})
	_ = s.CreatePoll(ctx, models.Poll{ID: "never-b", Type: models.PollTypeTemplate, Status: models.PollStatusActive})
	_ = s.CreatePoll(ctx, models.Poll{ID: "never-a", Type: models.PollTypeTemplate, Status: models.PollStatusActive})
	_ = s.CreatePoll(ctx, models.Poll{ID: "draft", Type: models.PollTypeTemplate, Status: models.PollStatusDraft})

	got, err := s.ListActiveTemplatePolls(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("draft polls must be excluded, got %d polls", len(got))
	}
	if got[0].ID != "never-a" || got[1].ID != "never-b" || got[2].ID != "old" {
		t.Errorf("nulls-first then id ordering violated: %v %v %v", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestInMemoryVotesAndReset(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	_ = s.CreatePoll(ctx, models.Poll{ID: "p1", Type: models.PollTypeCustom, Status: models.PollStatusActive})

	_ = s.RecordVote(ctx, models.Vote{ID: "v1", PollID: "p1", OptionID: "o1"})
	_ = s.RecordVote(ctx, models.Vote{ID: "v2", PollID: "p1", OptionID: "o2"})

	p, _ := s.GetPoll(ctx, "p1")
	if p.TotalVotes != 2 {
		t.Errorf("vote recording must bump totals, got %d", p.TotalVotes)
	}

	resetAt := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := s.ResetPollVotes(ctx, "p1", resetAt); err != nil {
		t.Fatal(err)
	}
	p, _ = s.GetPoll(ctx, "p1")
	if p.TotalVotes != 0 {
		t.Error("reset must zero totals")
	}
	if p.LastShownAt == nil || !p.LastShownAt.Equal(resetAt) {
		t.Error("reset must bump lastShownAt")
	}
	votes, _ := s.ListVotesForPoll(ctx, "p1")
	if len(votes) != 0 {
		t.Errorf("reset must delete vote rows, got %d", len(votes))
	}
}

func TestInMemorySessionFeeds(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)

	mk := func(id string, checkIn, expires time.Time, status models.SessionStatus) models.GuestSession {
		return models.GuestSession{ID: id, GuestCount: 1, DurationMinutes: 30, Status: status, CheckInAt: checkIn, ExpiresAt: expires}
	}
	_ = s.CreateGuestSession(ctx, mk("soon", now.Add(-25*time.Minute), now.Add(3*time.Minute), models.SessionStatusActive))
	_ = s.CreateGuestSession(ctx, mk("later", now.Add(-5*time.Minute), now.Add(25*time.Minute), models.SessionStatusActive))
	_ = s.CreateGuestSession(ctx, mk("done", now.Add(-40*time.Minute), now.Add(-time.Minute), models.SessionStatusCompleted))

	reminders, err := s.ListSessionsNeedingReminder(ctx, now, 5*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if len(reminders) != 1 || reminders[0].ID != "soon" {
		t.Errorf("expected only the soon-expiring active session, got %+v", reminders)
	}

	recent, err := s.ListRecentlyCheckedIn(ctx, now, 10*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].ID != "later" {
		t.Errorf("expected only the recent check-in, got %+v", recent)
	}
}

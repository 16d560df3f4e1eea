package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/pawhaus/signage/internal/store"
)

func TestSeedTestData(t *testing.T) {
	st := store.NewInMemoryStore()
	SeedTestData(t, st)
	ctx := context.Background()

	slides, err := st.ListAllActiveSlides(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(slides) != 3 {
		t.Errorf("expected 3 seeded slides, got %d", len(slides))
	}

	playlists, err := st.ListPlaylists(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(playlists) != 1 || !playlists[0].IsDefault {
		t.Errorf("expected one default playlist, got %+v", playlists)
	}

	polls, err := st.ListActiveCustomPolls(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(polls) != 1 {
		t.Errorf("expected one active custom poll, got %d", len(polls))
	}

	cats, err := st.ListAdoptableCats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 {
		t.Errorf("expected 2 adoptable cats, got %d", len(cats))
	}
}

func TestSeedGuestSession(t *testing.T) {
	st := store.NewInMemoryStore()
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	sess := SeedGuestSession(t, st, "gs_test", now, 4*time.Minute)

	if !sess.ExpiresAt.Equal(now.Add(4 * time.Minute)) {
		t.Errorf("ExpiresAt = %v", sess.ExpiresAt)
	}

	due, err := st.ListSessionsNeedingReminder(context.Background(), now, 5*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].ID != "gs_test" {
		t.Errorf("seeded session should be in the reminder feed, got %+v", due)
	}
}

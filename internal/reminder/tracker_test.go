package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/pawhaus/signage/internal/models"
)

type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) Notify(ctx context.Context, eventID string, s models.GuestSession) error {
	r.events = append(r.events, eventID)
	return nil
}

func session(id string, expiresAt time.Time) models.GuestSession {
	return models.GuestSession{
		ID:              id,
		GuestCount:      2,
		DurationMinutes: 30,
		Status:          models.SessionStatusActive,
		CheckInAt:       expiresAt.Add(-30 * time.Minute),
		ExpiresAt:       expiresAt,
	}
}

func TestReminderLifecycle(t *testing.T) {
	// Session expires at 12:00:00; the first tick after expiry lands at
	// 12:00:02 and the entry must vanish by 12:00:31 (30s retention from
	// the detection instant, so visible through 12:00:32, hidden after).
	expiry := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	now := expiry.Add(-3 * time.Minute)
	clock := &now
	tr := NewTracker(WithClock(func() time.Time { return *clock }))
	ctx := context.Background()

	tr.ObserveReminderFeed(ctx, []models.GuestSession{session("g1", expiry)})
	tr.Tick(ctx)
	if got := tr.VisibleReminders(now); len(got) != 1 || got[0].IsExpiredVisible {
		t.Fatalf("pre-expiry: expected one active reminder, got %+v", got)
	}

	now = expiry.Add(2 * time.Second) // detection tick
	tr.Tick(ctx)
	got := tr.VisibleReminders(now)
	if len(got) != 1 || !got[0].IsExpiredVisible {
		t.Fatalf("post-expiry: expected expired-visible entry, got %+v", got)
	}

	// Still visible at detection + 29s.
	now = expiry.Add(31 * time.Second)
	tr.Tick(ctx)
	if got := tr.VisibleReminders(now); len(got) != 1 {
		t.Fatalf("at detection+29s entry must still be visible, got %d", len(got))
	}

	// Hidden once retention measured from detection (12:00:02) elapses.
	now = expiry.Add(33 * time.Second)
	tr.Tick(ctx)
	if got := tr.VisibleReminders(now); len(got) != 0 {
		t.Fatalf("after retention the entry must be hidden, got %d", len(got))
	}
}

func TestUrgencyThreshold(t *testing.T) {
	base := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(WithClock(func() time.Time { return base }))
	ctx := context.Background()

	tr.ObserveReminderFeed(ctx, []models.GuestSession{
		session("calm", base.Add(4*time.Minute)),
		session("rushed", base.Add(90*time.Second)),
	})
	got := tr.VisibleReminders(base)
	if len(got) != 2 {
		t.Fatalf("expected two reminders, got %d", len(got))
	}
	// Ordered soonest expiry first.
	if got[0].Session.ID != "rushed" || got[0].Urgency != UrgencyUrgent {
		t.Errorf("first entry must be the urgent one, got %+v", got[0])
	}
	if got[1].Session.ID != "calm" || got[1].Urgency != UrgencyNearing {
		t.Errorf("second entry must be nearing, got %+v", got[1])
	}
}

func TestExpiredEntriesAppendedAfterActive(t *testing.T) {
	base := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	now := base
	clock := &now
	tr := NewTracker(WithClock(func() time.Time { return *clock }))
	ctx := context.Background()

	tr.ObserveReminderFeed(ctx, []models.GuestSession{
		session("done", base.Add(-time.Second)),
		session("going", base.Add(3*time.Minute)),
	})
	tr.Tick(ctx)
	got := tr.VisibleReminders(now)
	if len(got) != 2 {
		t.Fatalf("expected two entries, got %d", len(got))
	}
	if got[0].Session.ID != "going" || got[1].Session.ID != "done" || !got[1].IsExpiredVisible {
		t.Errorf("expired entries must come after active ones, got %+v", got)
	}
}

func TestChimeExactlyOnce(t *testing.T) {
	base := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	now := base
	clock := &now
	n := &recordingNotifier{}
	tr := NewTracker(WithClock(func() time.Time { return *clock }), WithNotifier(n))
	ctx := context.Background()

	s := session("g1", base.Add(time.Minute))
	for i := 0; i < 5; i++ {
		tr.ObserveReminderFeed(ctx, []models.GuestSession{s})
		tr.Tick(ctx)
		now = now.Add(time.Second)
	}
	if len(n.events) != 1 || n.events[0] != "reminder:g1" {
		t.Fatalf("reminder chime must fire exactly once, got %v", n.events)
	}

	// Advance past expiry: the expired chime fires once across many ticks.
	now = base.Add(2 * time.Minute)
	for i := 0; i < 5; i++ {
		tr.Tick(ctx)
		now = now.Add(time.Second)
	}
	if len(n.events) != 2 || n.events[1] != "expired:g1" {
		t.Fatalf("expired chime must fire exactly once, got %v", n.events)
	}

	tr.ResetPlayed()
	tr.ObserveReminderFeed(ctx, []models.GuestSession{s})
	if len(n.events) != 2 {
		// The session is still tracked, so no new first-sight event fires;
		// ResetPlayed only clears the dedup set.
		t.Fatalf("unexpected chime after reset, got %v", n.events)
	}
}

func TestWelcomeExactlyOncePerCheckin(t *testing.T) {
	base := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	n := &recordingNotifier{}
	tr := NewTracker(WithClock(func() time.Time { return base }), WithNotifier(n))
	ctx := context.Background()

	s := session("g1", base.Add(30*time.Minute))
	tr.ObserveCheckins(ctx, []models.GuestSession{s})
	tr.ObserveCheckins(ctx, []models.GuestSession{s})
	tr.ObserveCheckins(ctx, []models.GuestSession{s})

	if len(n.events) != 1 || n.events[0] != "welcome:g1" {
		t.Fatalf("welcome must fire exactly once, got %v", n.events)
	}
	if got := tr.VisibleWelcomes(base.Add(30 * time.Second)); len(got) != 1 {
		t.Fatalf("welcome must be visible inside its window, got %d", len(got))
	}
	if got := tr.VisibleWelcomes(base.Add(2 * time.Minute)); len(got) != 0 {
		t.Fatalf("welcome must be hidden after its window, got %d", len(got))
	}
}

func TestWelcomeIgnoresCompletedSessions(t *testing.T) {
	base := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(WithClock(func() time.Time { return base }))
	s := session("g1", base.Add(30*time.Minute))
	s.Status = models.SessionStatusCompleted
	tr.ObserveCheckins(context.Background(), []models.GuestSession{s})
	if got := tr.VisibleWelcomes(base); len(got) != 0 {
		t.Error("completed sessions must not produce welcomes")
	}
}

func TestWelcomeSetPruned(t *testing.T) {
	base := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	now := base
	clock := &now
	tr := NewTracker(WithClock(func() time.Time { return *clock }), WithWelcomeBound(3))
	ctx := context.Background()

	// Four old check-ins, then a fifth after their window has elapsed.
	var old []models.GuestSession
	for _, id := range []string{"a", "b", "c", "d"} {
		old = append(old, session(id, base.Add(30*time.Minute)))
	}
	tr.ObserveCheckins(ctx, old)

	now = base.Add(5 * time.Minute)
	tr.ObserveCheckins(ctx, []models.GuestSession{session("e", now.Add(30 * time.Minute))})

	tr.mu.Lock()
	size := len(tr.welcomes)
	tr.mu.Unlock()
	if size != 1 {
		t.Errorf("prune must drop entries past their window, kept %d", size)
	}
}

func TestStaleSweepBoundsDetectionRecords(t *testing.T) {
	base := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	now := base
	clock := &now
	tr := NewTracker(WithClock(func() time.Time { return *clock }))
	ctx := context.Background()

	tr.ObserveReminderFeed(ctx, []models.GuestSession{session("g1", base)})
	tr.Tick(ctx) // detection at base

	now = base.Add(2*DefaultRetention + time.Second)
	tr.Tick(ctx)

	tr.mu.Lock()
	detections := len(tr.detectedAt)
	tracked := len(tr.sessions)
	tr.mu.Unlock()
	if detections != 0 || tracked != 0 {
		t.Errorf("stale sweep must purge old records, detections=%d tracked=%d", detections, tracked)
	}
}

func TestSessionLeavingFeedBeforeExpiryIsDropped(t *testing.T) {
	base := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(WithClock(func() time.Time { return base }))
	ctx := context.Background()

	tr.ObserveReminderFeed(ctx, []models.GuestSession{session("g1", base.Add(3 * time.Minute))})
	// Session was extended; it leaves the needs-reminder feed.
	tr.ObserveReminderFeed(ctx, nil)
	if got := tr.VisibleReminders(base); len(got) != 0 {
		t.Errorf("session gone from feed before expiry must not render, got %d", len(got))
	}
}

// Package reminder tracks guest-session countdown reminders and welcome
// displays for the signage screen.
//
// The tracker is fed by a periodic fetch of sessions nearing expiry and of
// fresh check-ins; it owns the per-session state machine (nearing-expiry,
// urgent, expired-visible, hidden), the 30-second post-expiry retention
// window, and the exactly-once chime/notification semantics.
package reminder

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/pawhaus/signage/internal/models"
)

// Defaults for the tracker's timing rules.
const (
	// DefaultRetention is how long an expired session stays visible,
	// measured from the instant expiry was first locally detected.
	DefaultRetention = 30 * time.Second
	// DefaultLookahead is how far ahead the reminder feed looks.
	DefaultLookahead = 5 * time.Minute
	// DefaultUrgentWindow marks a reminder urgent when remaining time is
	// at or below this.
	DefaultUrgentWindow = 2 * time.Minute
	// DefaultWelcomeRetention is how long a welcome entry stays visible.
	DefaultWelcomeRetention = time.Minute
	// DefaultWelcomeBound caps the already-welcomed set before pruning.
	DefaultWelcomeBound = 100
)

// Urgency describes how a visible reminder should be styled.
type Urgency string

const (
	UrgencyNearing Urgency = "nearing"
	UrgencyUrgent  Urgency = "urgent"
)

// Reminder is one entry in the rendered countdown list.
type Reminder struct {
	Session          models.GuestSession `json:"session"`
	Urgency          Urgency             `json:"urgency"`
	Remaining        time.Duration       `json:"remaining"`
	IsExpiredVisible bool                `json:"is_expired_visible"`
}

// Welcome is one entry in the rendered welcome list.
type Welcome struct {
	Session    models.GuestSession `json:"session"`
	AppearedAt time.Time           `json:"appeared_at"`
}

// Notifier receives the chime/notification side effect. The tracker
// guarantees at most one call per distinct event id for its lifetime.
type Notifier interface {
	Notify(ctx context.Context, eventID string, session models.GuestSession) error
}

// Tracker holds the reminder state machines for all observed sessions.
type Tracker struct {
	mu sync.Mutex

	now              func() time.Time
	retention        time.Duration
	urgentWindow     time.Duration
	welcomeRetention time.Duration
	welcomeBound     int
	notifier         Notifier

	sessions   map[string]models.GuestSession // latest reminder-feed snapshot
	detectedAt map[string]time.Time           // first locally observed expiry instant
	welcomes   map[string]Welcome
	played     map[string]bool // chime dedup, process-wide until ResetPlayed
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock injects a clock, defaulting to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) { t.now = clock }
}

// WithRetention overrides the expired-visible retention duration.
func WithRetention(d time.Duration) Option {
	return func(t *Tracker) { t.retention = d }
}

// WithNotifier injects the chime/notification sink.
func WithNotifier(n Notifier) Option {
	return func(t *Tracker) { t.notifier = n }
}

// WithWelcomeBound overrides the welcome dedup set bound.
func WithWelcomeBound(n int) Option {
	return func(t *Tracker) { t.welcomeBound = n }
}

// NewTracker creates a Tracker with the default timing rules.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		now:              time.Now,
		retention:        DefaultRetention,
		urgentWindow:     DefaultUrgentWindow,
		welcomeRetention: DefaultWelcomeRetention,
		welcomeBound:     DefaultWelcomeBound,
		sessions:         make(map[string]models.GuestSession),
		detectedAt:       make(map[string]time.Time),
		welcomes:         make(map[string]Welcome),
		played:           make(map[string]bool),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ObserveReminderFeed applies the latest "sessions needing reminder" fetch.
// First sight of a session fires its reminder chime exactly once. Sessions
// that left the feed are kept while their expiry is still being displayed
// and dropped otherwise.
func (t *Tracker) ObserveReminderFeed(ctx context.Context, sessions []models.GuestSession) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		seen[s.ID] = true
		if _, known := t.sessions[s.ID]; !known {
			slog.Debug("Tracker.ObserveReminderFeed: new reminder", "session_id", s.ID, "expires_at", s.ExpiresAt)
			t.fireLocked(ctx, "reminder:"+s.ID, s)
		}
		t.sessions[s.ID] = s
	}
	now := t.now()
	for id, s := range t.sessions {
		if seen[id] {
			continue
		}
		if _, expired := t.detectedAt[id]; expired {
			continue // still inside its expired-visible window
		}
		if !s.ExpiresAt.After(now) {
			continue // expired between polls; the next tick stamps it
		}
		delete(t.sessions, id)
	}
}

// ObserveCheckins applies the latest "recently checked in" fetch, recording
// welcomes with exactly-once display semantics per check-in.
func (t *Tracker) ObserveCheckins(ctx context.Context, sessions []models.GuestSession) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for _, s := range sessions {
		if s.Status != models.SessionStatusActive && s.Status != models.SessionStatusExtended {
			continue
		}
		if _, ok := t.welcomes[s.ID]; ok {
			continue
		}
		t.welcomes[s.ID] = Welcome{Session: s, AppearedAt: now}
		slog.Info("Tracker.ObserveCheckins: welcome recorded", "session_id", s.ID, "guests", s.GuestCount)
		t.fireLocked(ctx, "welcome:"+s.ID, s)
	}
	t.pruneWelcomesLocked(now)
}

// Tick advances the local state machines: it stamps first-detected expiry
// instants and sweeps stale detection records. Call it once per UI tick.
func (t *Tracker) Tick(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for id, s := range t.sessions {
		if _, done := t.detectedAt[id]; done {
			continue
		}
		if !s.ExpiresAt.After(now) {
			// The feed is polled, so this instant is the tick that first
			// noticed the expiry, not expiresAt itself.
			t.detectedAt[id] = now
			slog.Debug("Tracker.Tick: expiry detected", "session_id", id, "expires_at", s.ExpiresAt, "detected_at", now)
			t.fireLocked(ctx, "expired:"+id, s)
		}
	}

	// Stale sweep bounds memory regardless of render cadence.
	cutoff := now.Add(-2 * t.retention)
	for id, det := range t.detectedAt {
		if det.Before(cutoff) {
			delete(t.detectedAt, id)
			delete(t.sessions, id)
		}
	}
}

// VisibleReminders returns the rendered reminder list: active reminders
// ordered soonest-expiry-first, then expired-but-still-visible entries.
func (t *Tracker) VisibleReminders(now time.Time) []Reminder {
	t.mu.Lock()
	defer t.mu.Unlock()

	var active, expired []Reminder
	for id, s := range t.sessions {
		if det, ok := t.detectedAt[id]; ok {
			if now.Sub(det) <= t.retention {
				expired = append(expired, Reminder{Session: s, Urgency: UrgencyUrgent, IsExpiredVisible: true})
			}
			continue
		}
		remaining := s.ExpiresAt.Sub(now)
		if remaining < 0 {
			// Expiry not yet stamped by a tick; render as urgent until then.
			remaining = 0
		}
		urgency := UrgencyNearing
		if remaining <= t.urgentWindow {
			urgency = UrgencyUrgent
		}
		active = append(active, Reminder{Session: s, Urgency: urgency, Remaining: remaining})
	}

	byExpiry := func(list []Reminder) {
		sort.Slice(list, func(i, j int) bool {
			a, b := list[i].Session, list[j].Session
			if !a.ExpiresAt.Equal(b.ExpiresAt) {
				return a.ExpiresAt.Before(b.ExpiresAt)
			}
			return a.ID < b.ID
		})
	}
	byExpiry(active)
	byExpiry(expired)
	return append(active, expired...)
}

// VisibleWelcomes returns welcomes still inside their display window,
// newest first.
func (t *Tracker) VisibleWelcomes(now time.Time) []Welcome {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Welcome
	for _, w := range t.welcomes {
		if now.Sub(w.AppearedAt) <= t.welcomeRetention {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppearedAt.Equal(out[j].AppearedAt) {
			return out[i].AppearedAt.After(out[j].AppearedAt)
		}
		return out[i].Session.ID < out[j].Session.ID
	})
	return out
}

// ResetPlayed clears the chime dedup set. Intended for tests and for an
// explicit operator reset; chimes otherwise never replay for a given id
// within the tracker's lifetime.
func (t *Tracker) ResetPlayed() {
	t.mu.Lock()
	t.played = make(map[string]bool)
	t.mu.Unlock()
}

// fireLocked runs the chime side effect at most once per event id. Caller
// holds t.mu.
func (t *Tracker) fireLocked(ctx context.Context, eventID string, s models.GuestSession) {
	if t.played[eventID] {
		return
	}
	t.played[eventID] = true
	if t.notifier == nil {
		return
	}
	if err := t.notifier.Notify(ctx, eventID, s); err != nil {
		slog.Warn("Tracker: notification failed", "event_id", eventID, "error", err)
	}
}

// pruneWelcomesLocked keeps the welcome set bounded, retaining only entries
// still inside their display window once the bound is exceeded. Caller
// holds t.mu.
func (t *Tracker) pruneWelcomesLocked(now time.Time) {
	if len(t.welcomes) <= t.welcomeBound {
		return
	}
	for id, w := range t.welcomes {
		if now.Sub(w.AppearedAt) > t.welcomeRetention {
			delete(t.welcomes, id)
		}
	}
	slog.Debug("Tracker: welcome set pruned", "remaining", len(t.welcomes))
}

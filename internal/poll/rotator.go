// Package poll selects which poll the display shows and keeps it stable
// for the duration of a voting window.
//
// Wall-clock time is quantized into 15-minute session buckets; the chosen
// poll and its resolved options are cached for the bucket so votes
// aggregate against one poll, and rotation across polls is fair via a
// least-recently-shown policy.
package poll

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pawhaus/signage/internal/models"
)

// SessionBucketMinutes is the width of one voting window.
const SessionBucketMinutes = 15

// Store is the subset of the external store the rotator reads and writes.
// Poll listings are ordered by lastShownAt ascending with nulls first; the
// store normalizes legacy double-encoded option data before rows get here.
type Store interface {
	ListActiveTemplatePolls(ctx context.Context) ([]models.Poll, error)
	ListActiveCustomPolls(ctx context.Context) ([]models.Poll, error)
	GetPoll(ctx context.Context, id string) (models.Poll, error)
	ListAdoptableCats(ctx context.Context) ([]models.Cat, error)
	RecordPollShown(ctx context.Context, pollID string, shownAt time.Time) error
	ListVotesForPoll(ctx context.Context, pollID string) ([]models.Vote, error)
	ResetPollVotes(ctx context.Context, pollID string, shownAt time.Time) error
}

// SessionKey identifies one 15-minute voting window.
type SessionKey struct {
	Year    int
	Month   time.Month
	Day     int
	Hour    int
	Quarter int // floored minute/15
}

// KeyFor quantizes a wall-clock instant to its session bucket.
func KeyFor(now time.Time) SessionKey {
	return SessionKey{
		Year:    now.Year(),
		Month:   now.Month(),
		Day:     now.Day(),
		Hour:    now.Hour(),
		Quarter: now.Minute() / SessionBucketMinutes,
	}
}

type cachedSelection struct {
	key     SessionKey
	poll    models.Poll
	options []models.PollOption
}

// Rotator owns the per-bucket poll selection cache. The cache is explicit
// and injectable state, reset via Invalidate, so tests and concurrent
// displays never share hidden globals.
type Rotator struct {
	mu         sync.Mutex
	store      Store
	now        func() time.Time
	cached     *cachedSelection
	maxOptions int
}

// NewRotator creates a Rotator. clock may be nil, defaulting to time.Now.
func NewRotator(store Store, clock func() time.Time) *Rotator {
	if clock == nil {
		clock = time.Now
	}
	return &Rotator{store: store, now: clock, maxOptions: models.MaxTemplatePollCats}
}

// CurrentPollForDisplay returns the poll in effect for the current session
// bucket along with its resolved options. Both return values are nil when
// no active poll exists; that is an empty state, not an error.
//
// Two calls within the same bucket return the identical cached selection;
// only the vote counts are refreshed from the store.
func (r *Rotator) CurrentPollForDisplay(ctx context.Context) (*models.Poll, []models.PollOption, error) {
	key := KeyFor(r.now())

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil && r.cached.key == key {
		poll := r.cached.poll
		if fresh, err := r.store.GetPoll(ctx, poll.ID); err == nil {
			poll.TotalVotes = fresh.TotalVotes
			r.cached.poll = poll
		} else {
			slog.Warn("Rotator.CurrentPollForDisplay: vote count refresh failed, serving cached snapshot", "poll_id", poll.ID, "error", err)
		}
		return &poll, r.cached.options, nil
	}

	poll, options, err := r.selectNext(ctx)
	if err != nil {
		// Serve the previous bucket's selection rather than going dark.
		if r.cached != nil {
			slog.Warn("Rotator.CurrentPollForDisplay: selection failed, serving stale bucket", "error", err)
			stale := r.cached.poll
			return &stale, r.cached.options, nil
		}
		return nil, nil, err
	}
	if poll == nil {
		return nil, nil, nil
	}

	r.cached = &cachedSelection{key: key, poll: *poll, options: options}
	if err := r.store.RecordPollShown(ctx, poll.ID, r.now()); err != nil {
		slog.Warn("Rotator.CurrentPollForDisplay: lastShownAt write-back failed", "poll_id", poll.ID, "error", err)
	}
	slog.Info("Rotator.CurrentPollForDisplay: new bucket selection", "poll_id", poll.ID, "options", len(options),
		"bucket_hour", key.Hour, "bucket_quarter", key.Quarter)
	return poll, options, nil
}

// selectNext picks the least-recently-shown active poll: template polls
// first, then exactly one custom poll as fallback.
func (r *Rotator) selectNext(ctx context.Context) (*models.Poll, []models.PollOption, error) {
	templates, err := r.store.ListActiveTemplatePolls(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing template polls: %w", err)
	}
	if len(templates) > 0 {
		chosen := templates[0]
		options, err := r.resolveTemplateOptions(ctx)
		if err != nil {
			return nil, nil, err
		}
		return &chosen, options, nil
	}

	customs, err := r.store.ListActiveCustomPolls(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing custom polls: %w", err)
	}
	if len(customs) == 0 {
		return nil, nil, nil
	}
	chosen := customs[0]
	return &chosen, chosen.Options, nil
}

// resolveTemplateOptions binds a template poll to a freshly shuffled subset
// of adoptable cats. A pool smaller than the target degrades to fewer
// options rather than failing.
func (r *Rotator) resolveTemplateOptions(ctx context.Context) ([]models.PollOption, error) {
	cats, err := r.store.ListAdoptableCats(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing adoptable cats: %w", err)
	}
	pool := append([]models.Cat(nil), cats...)
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if len(pool) < r.maxOptions {
		slog.Warn("Rotator.resolveTemplateOptions: adoptable pool below target option count", "pool", len(pool), "target", r.maxOptions)
	} else {
		pool = pool[:r.maxOptions]
	}
	options := make([]models.PollOption, len(pool))
	for i, cat := range pool {
		options[i] = models.PollOption{ID: cat.ID, Label: cat.DisplayName, ImageURL: cat.ImageURL}
	}
	return options, nil
}

// Results tallies votes for a poll and annotates each option with its count
// and rounded percentage (0 when no votes have been cast).
func (r *Rotator) Results(ctx context.Context, pollID string) ([]models.PollResult, error) {
	poll, err := r.store.GetPoll(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("fetching poll: %w", err)
	}
	votes, err := r.store.ListVotesForPoll(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("listing votes: %w", err)
	}

	options := poll.Options
	if poll.Type == models.PollTypeTemplate {
		// Template options live only in the bucket cache.
		r.mu.Lock()
		if r.cached != nil && r.cached.poll.ID == pollID {
			options = r.cached.options
		}
		r.mu.Unlock()
	}

	counts := make(map[string]int, len(options))
	for _, v := range votes {
		counts[v.OptionID]++
	}
	total := len(votes)

	results := make([]models.PollResult, len(options))
	for i, opt := range options {
		count := counts[opt.ID]
		pct := 0
		if total > 0 {
			pct = int(math.Round(float64(count) / float64(total) * 100))
		}
		results[i] = models.PollResult{Option: opt, VoteCount: count, Percentage: pct}
	}
	return results, nil
}

// ResetVotes deletes a poll's votes, zeroes its totals and bumps its
// lastShownAt so the next least-recently-shown selection deprioritizes it.
// The bucket cache is invalidated when it holds the reset poll.
func (r *Rotator) ResetVotes(ctx context.Context, pollID string) error {
	if err := r.store.ResetPollVotes(ctx, pollID, r.now()); err != nil {
		return fmt.Errorf("resetting poll votes: %w", err)
	}
	r.mu.Lock()
	if r.cached != nil && r.cached.poll.ID == pollID {
		r.cached = nil
	}
	r.mu.Unlock()
	slog.Info("Rotator.ResetVotes: poll votes reset", "poll_id", pollID)
	return nil
}

// Invalidate drops the bucket cache, forcing a fresh selection on the next
// display call.
func (r *Rotator) Invalidate() {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
}

// Package engine orchestrates the display loop.
//
// It periodically resolves the eligible slide set, rebuilds the rotation when
// the set changes materially, and exposes the playback cursor to the API
// layer. Store outages leave the last good rotation on screen.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pawhaus/signage/internal/models"
	"github.com/pawhaus/signage/internal/rotation"
	"github.com/pawhaus/signage/internal/schedule"
	"github.com/pawhaus/signage/internal/scheduler"
)

const (
	// DefaultRefreshTimeout bounds a single refresh's store reads.
	DefaultRefreshTimeout = 5 * time.Second
	// DefaultRefreshExpr is the cadence at which eligibility is re-evaluated.
	DefaultRefreshExpr = "@every 30s"
	// adoptionSlideDuration is the display time for synthesized cat profiles.
	adoptionSlideDuration = 12
)

// Store is the subset of the data layer the engine reads from.
type Store interface {
	schedule.SlideSource
	// ListAdoptableCats returns the current adoptable-cat pool.
	ListAdoptableCats(ctx context.Context) ([]models.Cat, error)
}

// Engine owns the rotation lifecycle for one display.
type Engine struct {
	store    Store
	resolver *schedule.Resolver
	cursor   *rotation.Cursor
	now      func() time.Time

	freqType models.SlideType
	freqN    int
	timeout  time.Duration

	mu          sync.Mutex
	lastKey     string
	lastSlides  []models.Slide
	lastDynamic []models.Slide
	lastRefresh time.Time
	offline     bool
}

// Option customizes Engine construction.
type Option func(*Engine)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithFrequency sets which slide type is injected at a fixed cadence and how
// many positions separate consecutive injections.
func WithFrequency(t models.SlideType, n int) Option {
	return func(e *Engine) {
		e.freqType = t
		e.freqN = n
	}
}

// WithRefreshTimeout bounds the store reads of a single refresh.
func WithRefreshTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// NewEngine creates an Engine over the given store. Call Refresh once before
// serving, then Start to keep it current.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		resolver: schedule.NewResolver(store),
		now:      time.Now,
		freqType: models.SlideTypeSocial,
		freqN:    rotation.DefaultFrequencyN,
		timeout:  DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cursor = rotation.NewCursor(nil, e.rebuild)
	return e
}

// Refresh re-resolves the eligible slide set and swaps the rotation if the
// set changed. A resolve failure keeps the previous rotation on screen and
// flips the engine into offline mode until the next successful refresh.
func (e *Engine) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	now := e.now()
	slides, err := e.resolver.ResolveActiveSlides(ctx, now)
	if err != nil {
		e.mu.Lock()
		e.offline = true
		e.mu.Unlock()
		slog.Warn("Engine.Refresh: resolve failed, keeping stale rotation", "error", err)
		return err
	}

	dynamic := e.fetchDynamic(ctx)

	key := rotation.Key(slides) + "|" + rotation.Key(dynamic)
	e.mu.Lock()
	changed := key != e.lastKey
	e.lastKey = key
	e.lastSlides = slides
	e.lastDynamic = dynamic
	e.lastRefresh = now
	e.offline = false
	e.mu.Unlock()

	if changed {
		seq := rotation.Build(slides, e.freqType, e.freqN, dynamic)
		e.cursor.Replace(seq)
		slog.Info("Engine.Refresh: rotation rebuilt", "eligible", len(slides), "dynamic", len(dynamic), "sequence", len(seq))
	} else {
		slog.Debug("Engine.Refresh: slide set unchanged", "eligible", len(slides))
	}
	return nil
}

// fetchDynamic synthesizes adoption slides from the live cat pool. A fetch
// failure degrades to no dynamic content rather than failing the refresh.
func (e *Engine) fetchDynamic(ctx context.Context) []models.Slide {
	cats, err := e.store.ListAdoptableCats(ctx)
	if err != nil {
		slog.Warn("Engine.fetchDynamic: cat listing failed, skipping adoption slides", "error", err)
		return nil
	}
	slides := make([]models.Slide, 0, len(cats))
	for _, c := range cats {
		slides = append(slides, models.Slide{
			ID:              "adoption:" + c.ID,
			Title:           c.DisplayName,
			Type:            models.SlideTypeAdoption,
			Priority:        1,
			DurationSeconds: adoptionSlideDuration,
			IsActive:        true,
			ImageURL:        c.ImageURL,
		})
	}
	return slides
}

// rebuild produces the next cycle's sequence from the last good snapshot.
// Invoked by the cursor on wrap.
func (e *Engine) rebuild() []models.Slide {
	e.mu.Lock()
	slides := e.lastSlides
	dynamic := e.lastDynamic
	e.mu.Unlock()
	return rotation.Build(slides, e.freqType, e.freqN, dynamic)
}

// CurrentSlide returns the slide under the playback cursor. ok is false when
// the rotation is empty.
func (e *Engine) CurrentSlide() (models.Slide, bool) {
	return e.cursor.Current()
}

// Advance moves the display to the next slide.
func (e *Engine) Advance() (models.Slide, bool) {
	return e.cursor.Advance()
}

// Retreat moves the display to the previous slide.
func (e *Engine) Retreat() (models.Slide, bool) {
	return e.cursor.Retreat()
}

// Rotation returns a copy of the current playable sequence.
func (e *Engine) Rotation() []models.Slide {
	return e.cursor.Sequence()
}

// Offline reports whether the last refresh failed. The display overlays an
// offline badge while serving the stale rotation.
func (e *Engine) Offline() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offline
}

// LastRefresh returns when the rotation was last successfully refreshed.
func (e *Engine) LastRefresh() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRefresh
}

// Start registers the periodic refresh job. expr is a cron expression or
// @every descriptor; empty means DefaultRefreshExpr.
func (e *Engine) Start(sched *scheduler.Scheduler, expr string) error {
	if expr == "" {
		expr = DefaultRefreshExpr
	}
	return sched.AddJob("rotation-refresh", expr, func() {
		if err := e.Refresh(context.Background()); err != nil {
			slog.Error("Engine: scheduled refresh failed", "error", err)
		}
	})
}

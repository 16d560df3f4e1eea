package rotation

import (
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/pawhaus/signage/internal/models"
)

// Cursor tracks the playback position inside the current rotation.
//
// Advancing past the end of the sequence triggers a reshuffle via the
// injected build function; the reshuffled sequence never starts with the
// slide that just finished playing.
type Cursor struct {
	mu    sync.Mutex
	seq   []models.Slide
	pos   int
	build func() []models.Slide
}

// NewCursor creates a cursor over an initial sequence. build is invoked on
// every wrap to produce the next cycle's sequence; it must not be nil.
func NewCursor(seq []models.Slide, build func() []models.Slide) *Cursor {
	return &Cursor{seq: seq, build: build}
}

// Current returns the slide at the playback position. ok is false when the
// rotation is empty, which the caller renders as an explicit empty state.
func (c *Cursor) Current() (models.Slide, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.seq) == 0 {
		return models.Slide{}, false
	}
	return c.seq[c.pos], true
}

// Advance moves to the next slide, reshuffling on wrap.
func (c *Cursor) Advance() (models.Slide, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.seq) == 0 {
		return models.Slide{}, false
	}
	if c.pos+1 < len(c.seq) {
		c.pos++
		return c.seq[c.pos], true
	}

	last := c.seq[c.pos]
	next := c.build()
	if len(next) == 0 {
		// Keep playing the old cycle rather than going dark.
		slog.Warn("Cursor.Advance: reshuffle produced empty rotation, replaying current cycle")
		c.pos = 0
		return c.seq[0], true
	}
	// The reshuffle must never replay the just-finished slide first.
	if len(next) > 1 && next[0].ID == last.ID {
		j := 1 + rand.IntN(len(next)-1)
		next[0], next[j] = next[j], next[0]
	}
	c.seq = next
	c.pos = 0
	slog.Debug("Cursor.Advance: wrapped and reshuffled", "len", len(next))
	return c.seq[0], true
}

// Retreat moves to the previous slide, wrapping to the end of the current
// sequence without reshuffling.
func (c *Cursor) Retreat() (models.Slide, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.seq) == 0 {
		return models.Slide{}, false
	}
	if c.pos == 0 {
		c.pos = len(c.seq) - 1
	} else {
		c.pos--
	}
	return c.seq[c.pos], true
}

// Replace swaps in a new sequence and resets the position. Used when the
// eligible slide set changes materially.
func (c *Cursor) Replace(seq []models.Slide) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = seq
	c.pos = 0
}

// Sequence returns a copy of the current rotation.
func (c *Cursor) Sequence() []models.Slide {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Slide(nil), c.seq...)
}

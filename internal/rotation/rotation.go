// Package rotation turns an eligible slide set into the playable sequence.
//
// The builder applies a priority-weighted shuffle with adjacent-duplicate
// removal, interleaves dynamically-sourced slides (live adoption profiles)
// and injects the high-frequency content type at a fixed cadence.
package rotation

import (
	"log/slog"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"github.com/pawhaus/signage/internal/models"
)

// DefaultFrequencyN is how many positions separate consecutive
// frequency-type slides when no override is configured.
const DefaultFrequencyN = 5

// Build produces a playable sequence from the eligible slide set.
//
// Slides of freqType are pulled out and re-inserted after every freqN-th
// position (round-robin when there is more than one). The remaining slides
// are expanded into max(1, priority) copies, shuffled, stripped of
// immediately-adjacent duplicates, and interleaved with the dynamic pool at
// a computed interval. An empty input yields an empty rotation; the caller
// shows a fallback state rather than treating that as an error.
func Build(slides []models.Slide, freqType models.SlideType, freqN int, dynamic []models.Slide) []models.Slide {
	if freqN < 1 {
		freqN = DefaultFrequencyN
	}

	var frequency, regular []models.Slide
	for _, s := range slides {
		if freqType != "" && s.Type == freqType {
			frequency = append(frequency, s)
		} else {
			regular = append(regular, s)
		}
	}

	weighted := expandByPriority(regular)
	rand.Shuffle(len(weighted), func(i, j int) {
		weighted[i], weighted[j] = weighted[j], weighted[i]
	})
	deduped := dedupeAdjacent(weighted)

	merged := interleaveDynamic(deduped, dynamic)
	if len(merged) == 0 {
		// Nothing but frequency-type content (or nothing at all).
		return append([]models.Slide(nil), frequency...)
	}

	out := make([]models.Slide, 0, len(merged)+len(merged)/freqN+1)
	inserted := 0
	for i, s := range merged {
		out = append(out, s)
		if len(frequency) > 0 && (i+1)%freqN == 0 {
			out = append(out, frequency[inserted%len(frequency)])
			inserted++
		}
	}
	// A frequency-type slide must appear at least once whenever any exist
	// and any content exists.
	if len(frequency) > 0 && inserted == 0 {
		out = append(out, frequency[0])
	}
	slog.Debug("rotation.Build: sequence built",
		"regular", len(regular), "dynamic", len(dynamic), "frequency", len(frequency), "total", len(out))
	return out
}

// expandByPriority expands each slide into max(1, priority) copies.
func expandByPriority(slides []models.Slide) []models.Slide {
	var out []models.Slide
	for _, s := range slides {
		copies := s.Priority
		if copies < 1 {
			copies = 1
		}
		for i := 0; i < copies; i++ {
			out = append(out, s)
		}
	}
	return out
}

// dedupeAdjacent removes immediately-adjacent duplicate slide identities,
// preserving relative order otherwise.
func dedupeAdjacent(slides []models.Slide) []models.Slide {
	out := slides[:0:0]
	for _, s := range slides {
		if n := len(out); n > 0 && out[n-1].ID == s.ID {
			continue
		}
		out = append(out, s)
	}
	return out
}

// interleaveDynamic inserts one dynamic slide after every interval regular
// slides, where interval = max(2, len(regular)/min(len(dynamic), 8)).
// Leftover dynamic slides are appended at the end. An empty regular
// sequence yields the dynamic sequence alone.
func interleaveDynamic(regular, dynamic []models.Slide) []models.Slide {
	if len(dynamic) == 0 {
		return regular
	}
	pool := append([]models.Slide(nil), dynamic...)
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if len(regular) == 0 {
		return pool
	}

	denom := len(pool)
	if denom > 8 {
		denom = 8
	}
	interval := len(regular) / denom
	if interval < 2 {
		interval = 2
	}

	out := make([]models.Slide, 0, len(regular)+len(pool))
	next := 0
	for i, s := range regular {
		out = append(out, s)
		if (i+1)%interval == 0 && next < len(pool) {
			out = append(out, pool[next])
			next++
		}
	}
	out = append(out, pool[next:]...)
	return out
}

// Key returns a cheap structural key for a slide set: sorted id:priority
// pairs joined. The engine rebuilds the rotation only when the key changes,
// so an in-progress playback position survives no-op refreshes.
func Key(slides []models.Slide) string {
	pairs := make([]string, len(slides))
	for i, s := range slides {
		pairs[i] = s.ID + ":" + strconv.Itoa(s.Priority)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

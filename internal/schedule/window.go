// Package schedule decides which content is eligible to show at a given
// wall-clock instant.
//
// It provides the time-window eligibility predicate and the playlist
// fallback resolver. All predicates here are pure: they take `now`
// explicitly and perform no I/O.
package schedule

import (
	"time"

	"github.com/pawhaus/signage/internal/models"
)

// Spec is the scheduling snapshot of a slide or playlist, flattened so the
// evaluator does not care which entity it came from.
type Spec struct {
	IsActive          bool
	SchedulingEnabled bool
	StartAt           *time.Time
	EndAt             *time.Time
	DaysOfWeek        []int // 0=Sunday
	Windows           []models.TimeSlot
}

// SlideSpec extracts the scheduling spec from a slide. A slide carries at
// most one legacy time pair.
func SlideSpec(s models.Slide) Spec {
	return Spec{
		IsActive:          s.IsActive,
		SchedulingEnabled: s.SchedulingEnabled,
		StartAt:           s.StartAt,
		EndAt:             s.EndAt,
		DaysOfWeek:        s.DaysOfWeek,
		Windows:           windowsFromPair(s.TimeStart, s.TimeEnd, nil),
	}
}

// PlaylistSpec extracts the scheduling spec from a playlist. The legacy
// start/end pair and the slot list are OR-combined into one window set.
func PlaylistSpec(p models.Playlist) Spec {
	return Spec{
		IsActive:          true, // manual activation is a resolver tier, not a gate here
		SchedulingEnabled: p.SchedulingEnabled,
		StartAt:           p.StartAt,
		EndAt:             p.EndAt,
		DaysOfWeek:        p.DaysOfWeek,
		Windows:           windowsFromPair(p.TimeStart, p.TimeEnd, p.TimeSlots),
	}
}

func windowsFromPair(start, end string, slots []models.TimeSlot) []models.TimeSlot {
	windows := make([]models.TimeSlot, 0, len(slots)+1)
	if start != "" && end != "" {
		windows = append(windows, models.TimeSlot{Start: start, End: end})
	}
	windows = append(windows, slots...)
	return windows
}

// EligibleNow reports whether the entity described by spec may be shown at
// now. Inactive entities are never eligible; entities with scheduling
// disabled are always eligible while active.
func EligibleNow(spec Spec, now time.Time) bool {
	if !spec.IsActive {
		return false
	}
	if !spec.SchedulingEnabled {
		return true
	}
	if spec.StartAt != nil && now.Before(*spec.StartAt) {
		return false
	}
	if spec.EndAt != nil && now.After(*spec.EndAt) {
		return false
	}
	if len(spec.DaysOfWeek) > 0 && !containsDay(spec.DaysOfWeek, int(now.Weekday())) {
		return false
	}
	// No windows means "all day" on the scheduled days.
	if len(spec.Windows) == 0 {
		return true
	}
	clock := now.Format("15:04")
	for _, w := range spec.Windows {
		if windowMatches(w, clock) {
			return true
		}
	}
	return false
}

// SlideEligibleNow reports whether a slide may be shown at now.
func SlideEligibleNow(s models.Slide, now time.Time) bool {
	return EligibleNow(SlideSpec(s), now)
}

// PlaylistEligibleNow reports whether a playlist's schedule matches now.
// Manual activation and default status are handled by the resolver tiers,
// not here.
func PlaylistEligibleNow(p models.Playlist, now time.Time) bool {
	if !p.SchedulingEnabled {
		return false // a playlist with no schedule never wins the scheduled tier
	}
	return EligibleNow(PlaylistSpec(p), now)
}

// windowMatches compares HH:MM strings lexicographically, which orders the
// same as the clock. End before start encodes an overnight window.
func windowMatches(w models.TimeSlot, clock string) bool {
	if w.Start == "" || w.End == "" {
		return true
	}
	if w.End >= w.Start {
		return clock >= w.Start && clock <= w.End
	}
	// Overnight wrap, e.g. 22:00-02:00.
	return clock >= w.Start || clock <= w.End
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

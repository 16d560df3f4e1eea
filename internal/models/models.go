// Package models defines the core data structures for the signage engine.
//
// It includes slides, playlists, polls, guest sessions and the adoptable-cat
// profile shape, which are shared across modules.
package models

import (
	"errors"
	"time"
)

// SlideType tags a slide with the kind of content it carries.
type SlideType string

const (
	// SlideTypePromo is general café promotional content.
	SlideTypePromo SlideType = "promo"
	// SlideTypeAdoption is an adoptable-cat profile.
	SlideTypeAdoption SlideType = "adoption"
	// SlideTypeEvent announces an upcoming event.
	SlideTypeEvent SlideType = "event"
	// SlideTypePoll renders the currently active poll.
	SlideTypePoll SlideType = "poll"
	// SlideTypeGallery shows guest photo submissions.
	SlideTypeGallery SlideType = "gallery"
	// SlideTypeSocial is the social-sharing prompt shown at a fixed frequency.
	SlideTypeSocial SlideType = "social"
	// SlideTypeMenu shows the café menu.
	SlideTypeMenu SlideType = "menu"
)

// Validation constants for input validation
const (
	// MaxSlideTitleLength defines the maximum allowed length for slide titles
	MaxSlideTitleLength = 200
	// MaxPollQuestionLength defines the maximum allowed length for poll questions
	MaxPollQuestionLength = 500
	// MaxPollOptionsCount defines the maximum number of stored options for custom polls
	MaxPollOptionsCount = 8
	// MinPollOptionsCount defines the minimum number of stored options for custom polls
	MinPollOptionsCount = 2
	// MaxTemplatePollCats defines how many cats a template poll may bind at once
	MaxTemplatePollCats = 4
)

// Error variables for better error handling and testability
var (
	ErrInvalidSlideType     = errors.New("invalid slide type")
	ErrSlideTitleTooLong    = errors.New("slide title exceeds maximum length")
	ErrInvalidPriority      = errors.New("priority must be positive")
	ErrInvalidDuration      = errors.New("duration must be positive")
	ErrInvalidTimeWindow    = errors.New("time window must be HH:MM")
	ErrInvalidWeekday       = errors.New("weekday must be in range 0-6")
	ErrEmptyPollQuestion    = errors.New("poll question cannot be empty")
	ErrPollQuestionTooLong  = errors.New("poll question exceeds maximum length")
	ErrInvalidPollType      = errors.New("invalid poll type")
	ErrInvalidPollStatus    = errors.New("invalid poll status")
	ErrTooFewPollOptions    = errors.New("too few poll options")
	ErrTooManyPollOptions   = errors.New("too many poll options")
	ErrInvalidGuestCount    = errors.New("guest count must be positive")
	ErrInvalidSessionLength = errors.New("session duration must be 15, 30 or 60 minutes")
	ErrInvalidSessionStatus = errors.New("invalid session status")
)

// IsValidSlideType checks if the given slide type is supported.
func IsValidSlideType(st SlideType) bool {
	switch st {
	case SlideTypePromo, SlideTypeAdoption, SlideTypeEvent, SlideTypePoll,
		SlideTypeGallery, SlideTypeSocial, SlideTypeMenu:
		return true
	default:
		return false
	}
}

// TimeSlot is a single HH:MM window. End before Start encodes an overnight
// window (for example 22:00-02:00).
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Slide represents one unit of signage content.
type Slide struct {
	ID                string     `json:"id"`
	Title             string     `json:"title,omitempty"`
	Type              SlideType  `json:"type"`
	Priority          int        `json:"priority"`
	DurationSeconds   int        `json:"duration_seconds"`
	IsActive          bool       `json:"is_active"`
	SortOrder         int        `json:"sort_order"`
	ImageURL          string     `json:"image_url,omitempty"`
	SchedulingEnabled bool       `json:"scheduling_enabled"`
	StartAt           *time.Time `json:"start_at,omitempty"`
	EndAt             *time.Time `json:"end_at,omitempty"`
	DaysOfWeek        []int      `json:"days_of_week,omitempty"` // 0=Sunday
	TimeStart         string     `json:"time_start,omitempty"`   // "HH:MM"
	TimeEnd           string     `json:"time_end,omitempty"`
}

// Validate performs validation on a Slide structure.
func (s *Slide) Validate() error {
	if !IsValidSlideType(s.Type) {
		return ErrInvalidSlideType
	}
	if len(s.Title) > MaxSlideTitleLength {
		return ErrSlideTitleTooLong
	}
	if s.Priority < 1 {
		return ErrInvalidPriority
	}
	if s.DurationSeconds < 1 {
		return ErrInvalidDuration
	}
	if err := validateClock(s.TimeStart); err != nil {
		return err
	}
	if err := validateClock(s.TimeEnd); err != nil {
		return err
	}
	return validateWeekdays(s.DaysOfWeek)
}

// Playlist is a named, ordered, schedulable collection of slides.
type Playlist struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	IsActive          bool       `json:"is_active"`  // manual activation, at most one (store-enforced)
	IsDefault         bool       `json:"is_default"` // fallback, at most one
	SortOrder         int        `json:"sort_order"`
	SchedulingEnabled bool       `json:"scheduling_enabled"`
	StartAt           *time.Time `json:"start_at,omitempty"`
	EndAt             *time.Time `json:"end_at,omitempty"`
	DaysOfWeek        []int      `json:"days_of_week,omitempty"`
	TimeStart         string     `json:"time_start,omitempty"`
	TimeEnd           string     `json:"time_end,omitempty"`
	TimeSlots         []TimeSlot `json:"time_slots,omitempty"` // OR-combined with the legacy pair
	SlideIDs          []string   `json:"slide_ids,omitempty"`
}

// Validate performs validation on a Playlist structure.
func (p *Playlist) Validate() error {
	if err := validateClock(p.TimeStart); err != nil {
		return err
	}
	if err := validateClock(p.TimeEnd); err != nil {
		return err
	}
	for _, slot := range p.TimeSlots {
		if err := validateClock(slot.Start); err != nil {
			return err
		}
		if err := validateClock(slot.End); err != nil {
			return err
		}
	}
	return validateWeekdays(p.DaysOfWeek)
}

// PollType defines how a poll's options are sourced.
type PollType string

const (
	// PollTypeTemplate resolves its options dynamically from adoptable cats.
	PollTypeTemplate PollType = "template"
	// PollTypeCustom stores its options statically.
	PollTypeCustom PollType = "custom"
)

// PollStatus is the lifecycle state of a poll.
type PollStatus string

const (
	PollStatusDraft  PollStatus = "draft"
	PollStatusActive PollStatus = "active"
	PollStatusEnded  PollStatus = "ended"
)

// IsValidPollType checks if the given poll type is supported.
func IsValidPollType(pt PollType) bool {
	return pt == PollTypeTemplate || pt == PollTypeCustom
}

// IsValidPollStatus checks if the given poll status is supported.
func IsValidPollStatus(ps PollStatus) bool {
	return ps == PollStatusDraft || ps == PollStatusActive || ps == PollStatusEnded
}

// PollOption is one votable choice. For template polls options are resolved
// from adoptable cats at selection time and never persisted.
type PollOption struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	ImageURL string `json:"image_url,omitempty"`
}

// Poll represents a guest-facing poll.
type Poll struct {
	ID          string       `json:"id"`
	Question    string       `json:"question"`
	Type        PollType     `json:"type"`
	Status      PollStatus   `json:"status"`
	CatCount    int          `json:"cat_count,omitempty"` // template polls only
	Options     []PollOption `json:"options,omitempty"`   // custom polls only
	LastShownAt *time.Time   `json:"last_shown_at,omitempty"`
	TotalVotes  int          `json:"total_votes"`
}

// Validate performs validation on a Poll structure.
func (p *Poll) Validate() error {
	if p.Question == "" {
		return ErrEmptyPollQuestion
	}
	if len(p.Question) > MaxPollQuestionLength {
		return ErrPollQuestionTooLong
	}
	if !IsValidPollType(p.Type) {
		return ErrInvalidPollType
	}
	if !IsValidPollStatus(p.Status) {
		return ErrInvalidPollStatus
	}
	if p.Type == PollTypeCustom {
		if len(p.Options) < MinPollOptionsCount {
			return ErrTooFewPollOptions
		}
		if len(p.Options) > MaxPollOptionsCount {
			return ErrTooManyPollOptions
		}
	}
	return nil
}

// PollResult annotates an option with its tally for the results view.
type PollResult struct {
	Option     PollOption `json:"option"`
	VoteCount  int        `json:"vote_count"`
	Percentage int        `json:"percentage"`
}

// Vote is a single recorded vote for a poll option.
type Vote struct {
	ID       string    `json:"id"`
	PollID   string    `json:"poll_id"`
	OptionID string    `json:"option_id"`
	CastAt   time.Time `json:"cast_at"`
}

// SessionStatus is the lifecycle state of a guest session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusExtended  SessionStatus = "extended"
	SessionStatusCompleted SessionStatus = "completed"
)

// GuestSession is a time-limited café visit.
type GuestSession struct {
	ID              string        `json:"id"`
	GuestName       string        `json:"guest_name,omitempty"`
	GuestCount      int           `json:"guest_count"`
	DurationMinutes int           `json:"duration_minutes"` // 15, 30 or 60
	Status          SessionStatus `json:"status"`
	CheckInAt       time.Time     `json:"check_in_at"`
	ExpiresAt       time.Time     `json:"expires_at"`
	ReminderShown   bool          `json:"reminder_shown"` // best-effort display flag; tracker dedup supersedes it
	Phone           string        `json:"phone,omitempty"`
}

// Validate performs validation on a GuestSession structure.
func (g *GuestSession) Validate() error {
	if g.GuestCount < 1 {
		return ErrInvalidGuestCount
	}
	switch g.DurationMinutes {
	case 15, 30, 60:
	default:
		return ErrInvalidSessionLength
	}
	switch g.Status {
	case SessionStatusActive, SessionStatusExtended, SessionStatusCompleted:
	default:
		return ErrInvalidSessionStatus
	}
	return nil
}

// Cat is an adoptable-cat profile sourced live from the adoption system.
type Cat struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ImageURL    string `json:"image_url,omitempty"`
}

func validateClock(hhmm string) error {
	if hhmm == "" {
		return nil
	}
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return ErrInvalidTimeWindow
	}
	for i, c := range hhmm {
		if i == 2 {
			continue
		}
		if c < '0' || c > '9' {
			return ErrInvalidTimeWindow
		}
	}
	if hhmm > "23:59" {
		return ErrInvalidTimeWindow
	}
	return nil
}

func validateWeekdays(days []int) error {
	for _, d := range days {
		if d < 0 || d > 6 {
			return ErrInvalidWeekday
		}
	}
	return nil
}

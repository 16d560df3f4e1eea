package models

import (
	"errors"
	"testing"
	"time"
)

func TestSlideValidate(t *testing.T) {
	base := Slide{ID: "s1", Type: SlideTypePromo, Priority: 1, DurationSeconds: 10, IsActive: true}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid slide rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Slide)
		want   error
	}{
		{"bad type", func(s *Slide) { s.Type = "banner" }, ErrInvalidSlideType},
		{"zero priority", func(s *Slide) { s.Priority = 0 }, ErrInvalidPriority},
		{"zero duration", func(s *Slide) { s.DurationSeconds = 0 }, ErrInvalidDuration},
		{"bad time window", func(s *Slide) { s.TimeStart = "9:00" }, ErrInvalidTimeWindow},
		{"out of range time", func(s *Slide) { s.TimeEnd = "24:00" }, ErrInvalidTimeWindow},
		{"bad weekday", func(s *Slide) { s.DaysOfWeek = []int{7} }, ErrInvalidWeekday},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := base
			tc.mutate(&s)
			if err := s.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestPollValidate(t *testing.T) {
	p := Poll{ID: "p1", Question: "Who is the fluffiest?", Type: PollTypeTemplate, Status: PollStatusActive, CatCount: 4}
	if err := p.Validate(); err != nil {
		t.Fatalf("valid template poll rejected: %v", err)
	}

	custom := Poll{ID: "p2", Question: "Best snack?", Type: PollTypeCustom, Status: PollStatusActive}
	if err := custom.Validate(); !errors.Is(err, ErrTooFewPollOptions) {
		t.Errorf("expected ErrTooFewPollOptions, got %v", err)
	}
	custom.Options = []PollOption{{ID: "a", Label: "Tuna"}, {ID: "b", Label: "Chicken"}}
	if err := custom.Validate(); err != nil {
		t.Errorf("valid custom poll rejected: %v", err)
	}

	p.Type = "quiz"
	if err := p.Validate(); !errors.Is(err, ErrInvalidPollType) {
		t.Errorf("expected ErrInvalidPollType, got %v", err)
	}
}

func TestGuestSessionValidate(t *testing.T) {
	now := time.Now()
	g := GuestSession{ID: "g1", GuestCount: 2, DurationMinutes: 30, Status: SessionStatusActive, CheckInAt: now, ExpiresAt: now.Add(30 * time.Minute)}
	if err := g.Validate(); err != nil {
		t.Fatalf("valid session rejected: %v", err)
	}
	g.DurationMinutes = 45
	if err := g.Validate(); !errors.Is(err, ErrInvalidSessionLength) {
		t.Errorf("expected ErrInvalidSessionLength, got %v", err)
	}
}

func TestAPIResponseBuilders(t *testing.T) {
	ok := Success(map[string]int{"n": 1})
	if ok.Status != string(APIStatusOK) || ok.Result == nil {
		t.Error("Success response not built correctly")
	}
	e := Error("boom")
	if e.Status != string(APIStatusError) || e.Message != "boom" {
		t.Error("Error response not built correctly")
	}
}

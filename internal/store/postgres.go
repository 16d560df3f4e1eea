// Package store provides storage backends for the signage engine.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"
	"github.com/pawhaus/signage/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is the PostgreSQL-backed Store implementation.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) ListSlides(ctx context.Context) ([]models.Slide, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+slideColumns+` FROM slides ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("listing slides: %w", err)
	}
	return collectSlides(rows)
}

func (s *PostgresStore) ListAllActiveSlides(ctx context.Context) ([]models.Slide, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+slideColumns+` FROM slides WHERE is_active ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("listing active slides: %w", err)
	}
	return collectSlides(rows)
}

func (s *PostgresStore) ListSlidesForPlaylist(ctx context.Context, playlistID string) ([]models.Slide, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+qualifySlideColumns("s")+`
		FROM slides s JOIN playlist_slides ps ON ps.slide_id = s.id
		WHERE ps.playlist_id = $1 ORDER BY ps.position`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("listing playlist slides: %w", err)
	}
	return collectSlides(rows)
}

func (s *PostgresStore) CreateSlide(ctx context.Context, sl models.Slide) error {
	days, err := encodeJSON(sl.DaysOfWeek)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO slides (`+slideColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		sl.ID, sl.Title, sl.Type, sl.Priority, sl.DurationSeconds, sl.IsActive, sl.SortOrder,
		sl.ImageURL, sl.SchedulingEnabled, sl.StartAt, sl.EndAt, days, sl.TimeStart, sl.TimeEnd)
	if err != nil {
		return fmt.Errorf("creating slide: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, is_active, is_default, sort_order,
		scheduling_enabled, start_at, end_at, days_of_week, time_start, time_end, time_slots
		FROM playlists ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}
	defer rows.Close()
	var out []models.Playlist
	for rows.Next() {
		var pl models.Playlist
		var startAt, endAt sql.NullTime
		var days, slots string
		if err := rows.Scan(&pl.ID, &pl.Name, &pl.IsActive, &pl.IsDefault, &pl.SortOrder,
			&pl.SchedulingEnabled, &startAt, &endAt, &days, &pl.TimeStart, &pl.TimeEnd, &slots); err != nil {
			return nil, fmt.Errorf("scan playlist failed: %w", err)
		}
		if startAt.Valid {
			pl.StartAt = &startAt.Time
		}
		if endAt.Valid {
			pl.EndAt = &endAt.Time
		}
		pl.DaysOfWeek = decodeIntList(days)
		pl.TimeSlots = decodeTimeSlots(slots)
		out = append(out, pl)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreatePlaylist(ctx context.Context, p models.Playlist) error {
	days, err := encodeJSON(p.DaysOfWeek)
	if err != nil {
		return err
	}
	slots, err := encodeJSON(p.TimeSlots)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO playlists (id, name, is_active, is_default, sort_order,
		scheduling_enabled, start_at, end_at, days_of_week, time_start, time_end, time_slots)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Name, p.IsActive, p.IsDefault, p.SortOrder, p.SchedulingEnabled,
		p.StartAt, p.EndAt, days, p.TimeStart, p.TimeEnd, slots); err != nil {
		return fmt.Errorf("creating playlist: %w", err)
	}
	for i, slideID := range p.SlideIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO playlist_slides (playlist_id, slide_id, position) VALUES ($1, $2, $3)`,
			p.ID, slideID, i); err != nil {
			return fmt.Errorf("linking playlist slide: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) listActivePollsByType(ctx context.Context, pt models.PollType) ([]models.Poll, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pollColumns+` FROM polls
		WHERE type = $1 AND status = $2 ORDER BY last_shown_at ASC NULLS FIRST, id ASC`, pt, models.PollStatusActive)
	if err != nil {
		return nil, fmt.Errorf("listing active polls: %w", err)
	}
	return collectPolls(rows)
}

func (s *PostgresStore) ListActiveTemplatePolls(ctx context.Context) ([]models.Poll, error) {
	return s.listActivePollsByType(ctx, models.PollTypeTemplate)
}

func (s *PostgresStore) ListActiveCustomPolls(ctx context.Context) ([]models.Poll, error) {
	return s.listActivePollsByType(ctx, models.PollTypeCustom)
}

func (s *PostgresStore) ListPolls(ctx context.Context) ([]models.Poll, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pollColumns+` FROM polls ORDER BY last_shown_at ASC NULLS FIRST, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing polls: %w", err)
	}
	return collectPolls(rows)
}

func (s *PostgresStore) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pollColumns+` FROM polls WHERE id = $1`, id)
	if err != nil {
		return models.Poll{}, fmt.Errorf("fetching poll: %w", err)
	}
	polls, err := collectPolls(rows)
	if err != nil {
		return models.Poll{}, err
	}
	if len(polls) == 0 {
		return models.Poll{}, fmt.Errorf("poll %s not found", id)
	}
	return polls[0], nil
}

func (s *PostgresStore) CreatePoll(ctx context.Context, p models.Poll) error {
	options, err := encodePollOptions(p.Options)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO polls (`+pollColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Question, p.Type, p.Status, p.CatCount, options, p.LastShownAt, p.TotalVotes)
	if err != nil {
		return fmt.Errorf("creating poll: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordPollShown(ctx context.Context, pollID string, shownAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE polls SET last_shown_at = $1 WHERE id = $2`, shownAt, pollID)
	if err != nil {
		return fmt.Errorf("recording poll shown: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordVote(ctx context.Context, v models.Vote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO votes (id, poll_id, option_id, cast_at) VALUES ($1, $2, $3, $4)`,
		v.ID, v.PollID, v.OptionID, v.CastAt); err != nil {
		return fmt.Errorf("recording vote: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE polls SET total_votes = total_votes + 1 WHERE id = $1`, v.PollID); err != nil {
		return fmt.Errorf("bumping vote total: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) ListVotesForPoll(ctx context.Context, pollID string) ([]models.Vote, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, poll_id, option_id, cast_at FROM votes WHERE poll_id = $1`, pollID)
	if err != nil {
		return nil, fmt.Errorf("listing votes: %w", err)
	}
	defer rows.Close()
	var out []models.Vote
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.PollID, &v.OptionID, &v.CastAt); err != nil {
			return nil, fmt.Errorf("scan vote failed: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ResetPollVotes(ctx context.Context, pollID string, shownAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE poll_id = $1`, pollID); err != nil {
		return fmt.Errorf("deleting votes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE polls SET total_votes = 0, last_shown_at = $1 WHERE id = $2`, shownAt, pollID); err != nil {
		return fmt.Errorf("resetting poll totals: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) ListAdoptableCats(ctx context.Context) ([]models.Cat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, display_name, image_url FROM cats WHERE adoptable ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing adoptable cats: %w", err)
	}
	defer rows.Close()
	var out []models.Cat
	for rows.Next() {
		var c models.Cat
		if err := rows.Scan(&c.ID, &c.DisplayName, &c.ImageURL); err != nil {
			return nil, fmt.Errorf("scan cat failed: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateGuestSession(ctx context.Context, g models.GuestSession) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO guest_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		g.ID, g.GuestName, g.GuestCount, g.DurationMinutes, g.Status, g.CheckInAt, g.ExpiresAt, g.ReminderShown, g.Phone)
	if err != nil {
		return fmt.Errorf("creating guest session: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateGuestSession(ctx context.Context, g models.GuestSession) error {
	_, err := s.db.ExecContext(ctx, `UPDATE guest_sessions SET guest_name = $1, guest_count = $2,
		duration_minutes = $3, status = $4, expires_at = $5, reminder_shown = $6, phone = $7 WHERE id = $8`,
		g.GuestName, g.GuestCount, g.DurationMinutes, g.Status, g.ExpiresAt, g.ReminderShown, g.Phone, g.ID)
	if err != nil {
		return fmt.Errorf("updating guest session: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSessionsNeedingReminder(ctx context.Context, now time.Time, lookahead time.Duration) ([]models.GuestSession, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM guest_sessions
		WHERE status IN ($1, $2) AND expires_at > $3 AND expires_at <= $4 ORDER BY expires_at`,
		models.SessionStatusActive, models.SessionStatusExtended, now, now.Add(lookahead))
	if err != nil {
		return nil, fmt.Errorf("listing sessions needing reminder: %w", err)
	}
	return collectSessions(rows)
}

func (s *PostgresStore) ListRecentlyCheckedIn(ctx context.Context, now time.Time, window time.Duration) ([]models.GuestSession, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM guest_sessions
		WHERE status IN ($1, $2) AND check_in_at >= $3 ORDER BY check_in_at`,
		models.SessionStatusActive, models.SessionStatusExtended, now.Add(-window))
	if err != nil {
		return nil, fmt.Errorf("listing recent check-ins: %w", err)
	}
	return collectSessions(rows)
}

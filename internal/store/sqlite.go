// Package store provides storage backends for the signage engine.
//
// This file implements the SQLite-backed store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pawhaus/signage/internal/models"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is the SQLite-backed Store implementation.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const slideColumns = `id, title, type, priority, duration_seconds, is_active, sort_order,
	image_url, scheduling_enabled, start_at, end_at, days_of_week, time_start, time_end`

func scanSlide(rows *sql.Rows) (models.Slide, error) {
	var sl models.Slide
	var startAt, endAt sql.NullTime
	var days string
	err := rows.Scan(&sl.ID, &sl.Title, &sl.Type, &sl.Priority, &sl.DurationSeconds,
		&sl.IsActive, &sl.SortOrder, &sl.ImageURL, &sl.SchedulingEnabled,
		&startAt, &endAt, &days, &sl.TimeStart, &sl.TimeEnd)
	if err != nil {
		return sl, fmt.Errorf("scan slide failed: %w", err)
	}
	if startAt.Valid {
		sl.StartAt = &startAt.Time
	}
	if endAt.Valid {
		sl.EndAt = &endAt.Time
	}
	sl.DaysOfWeek = decodeIntList(days)
	return sl, nil
}

func collectSlides(rows *sql.Rows) ([]models.Slide, error) {
	defer rows.Close()
	var out []models.Slide
	for rows.Next() {
		sl, err := scanSlide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListSlides(ctx context.Context) ([]models.Slide, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+slideColumns+` FROM slides ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("listing slides: %w", err)
	}
	return collectSlides(rows)
}

func (s *SQLiteStore) ListAllActiveSlides(ctx context.Context) ([]models.Slide, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+slideColumns+` FROM slides WHERE is_active = 1 ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("listing active slides: %w", err)
	}
	return collectSlides(rows)
}

func (s *SQLiteStore) ListSlidesForPlaylist(ctx context.Context, playlistID string) ([]models.Slide, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+qualifySlideColumns("s")+`
		FROM slides s JOIN playlist_slides ps ON ps.slide_id = s.id
		WHERE ps.playlist_id = ? ORDER BY ps.position`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("listing playlist slides: %w", err)
	}
	return collectSlides(rows)
}

func (s *SQLiteStore) CreateSlide(ctx context.Context, sl models.Slide) error {
	days, err := encodeJSON(sl.DaysOfWeek)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO slides (`+slideColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sl.ID, sl.Title, sl.Type, sl.Priority, sl.DurationSeconds, sl.IsActive, sl.SortOrder,
		sl.ImageURL, sl.SchedulingEnabled, sl.StartAt, sl.EndAt, days, sl.TimeStart, sl.TimeEnd)
	if err != nil {
		return fmt.Errorf("creating slide: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
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

func (s *SQLiteStore) CreatePlaylist(ctx context.Context, p models.Playlist) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.IsActive, p.IsDefault, p.SortOrder, p.SchedulingEnabled,
		p.StartAt, p.EndAt, days, p.TimeStart, p.TimeEnd, slots); err != nil {
		return fmt.Errorf("creating playlist: %w", err)
	}
	for i, slideID := range p.SlideIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO playlist_slides (playlist_id, slide_id, position) VALUES (?, ?, ?)`,
			p.ID, slideID, i); err != nil {
			return fmt.Errorf("linking playlist slide: %w", err)
		}
	}
	return tx.Commit()
}

const pollColumns = `id, question, type, status, cat_count, options, last_shown_at, total_votes`

func scanPoll(rows *sql.Rows) (models.Poll, error) {
	var p models.Poll
	var options string
	var lastShown sql.NullTime
	err := rows.Scan(&p.ID, &p.Question, &p.Type, &p.Status, &p.CatCount, &options, &lastShown, &p.TotalVotes)
	if err != nil {
		return p, fmt.Errorf("scan poll failed: %w", err)
	}
	if lastShown.Valid {
		p.LastShownAt = &lastShown.Time
	}
	// Normalize legacy double-encoded option payloads here so the core
	// only ever sees a clean typed list.
	p.Options = decodePollOptions(options)
	return p, nil
}

func collectPolls(rows *sql.Rows) ([]models.Poll, error) {
	defer rows.Close()
	var out []models.Poll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) listActivePollsByType(ctx context.Context, pt models.PollType) ([]models.Poll, error) {
	// SQLite sorts NULL first on ASC by default, which is the ordering the
	// rotator's fairness contract requires.
	rows, err := s.db.QueryContext(ctx, `SELECT `+pollColumns+` FROM polls
		WHERE type = ? AND status = ? ORDER BY last_shown_at ASC, id ASC`, pt, models.PollStatusActive)
	if err != nil {
		return nil, fmt.Errorf("listing active polls: %w", err)
	}
	return collectPolls(rows)
}

func (s *SQLiteStore) ListActiveTemplatePolls(ctx context.Context) ([]models.Poll, error) {
	return s.listActivePollsByType(ctx, models.PollTypeTemplate)
}

func (s *SQLiteStore) ListActiveCustomPolls(ctx context.Context) ([]models.Poll, error) {
	return s.listActivePollsByType(ctx, models.PollTypeCustom)
}

func (s *SQLiteStore) ListPolls(ctx context.Context) ([]models.Poll, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pollColumns+` FROM polls ORDER BY last_shown_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing polls: %w", err)
	}
	return collectPolls(rows)
}

func (s *SQLiteStore) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pollColumns+` FROM polls WHERE id = ?`, id)
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

func (s *SQLiteStore) CreatePoll(ctx context.Context, p models.Poll) error {
	options, err := encodePollOptions(p.Options)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO polls (`+pollColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Question, p.Type, p.Status, p.CatCount, options, p.LastShownAt, p.TotalVotes)
	if err != nil {
		return fmt.Errorf("creating poll: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordPollShown(ctx context.Context, pollID string, shownAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE polls SET last_shown_at = ? WHERE id = ?`, shownAt, pollID)
	if err != nil {
		return fmt.Errorf("recording poll shown: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordVote(ctx context.Context, v models.Vote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO votes (id, poll_id, option_id, cast_at) VALUES (?, ?, ?, ?)`,
		v.ID, v.PollID, v.OptionID, v.CastAt); err != nil {
		return fmt.Errorf("recording vote: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE polls SET total_votes = total_votes + 1 WHERE id = ?`, v.PollID); err != nil {
		return fmt.Errorf("bumping vote total: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListVotesForPoll(ctx context.Context, pollID string) ([]models.Vote, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, poll_id, option_id, cast_at FROM votes WHERE poll_id = ?`, pollID)
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

func (s *SQLiteStore) ResetPollVotes(ctx context.Context, pollID string, shownAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE poll_id = ?`, pollID); err != nil {
		return fmt.Errorf("deleting votes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE polls SET total_votes = 0, last_shown_at = ? WHERE id = ?`, shownAt, pollID); err != nil {
		return fmt.Errorf("resetting poll totals: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListAdoptableCats(ctx context.Context) ([]models.Cat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, display_name, image_url FROM cats WHERE adoptable = 1 ORDER BY id`)
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

const sessionColumns = `id, guest_name, guest_count, duration_minutes, status, check_in_at, expires_at, reminder_shown, phone`

func collectSessions(rows *sql.Rows) ([]models.GuestSession, error) {
	defer rows.Close()
	var out []models.GuestSession
	for rows.Next() {
		var g models.GuestSession
		if err := rows.Scan(&g.ID, &g.GuestName, &g.GuestCount, &g.DurationMinutes, &g.Status,
			&g.CheckInAt, &g.ExpiresAt, &g.ReminderShown, &g.Phone); err != nil {
			return nil, fmt.Errorf("scan guest session failed: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateGuestSession(ctx context.Context, g models.GuestSession) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO guest_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.GuestName, g.GuestCount, g.DurationMinutes, g.Status, g.CheckInAt, g.ExpiresAt, g.ReminderShown, g.Phone)
	if err != nil {
		return fmt.Errorf("creating guest session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateGuestSession(ctx context.Context, g models.GuestSession) error {
	_, err := s.db.ExecContext(ctx, `UPDATE guest_sessions SET guest_name = ?, guest_count = ?,
		duration_minutes = ?, status = ?, expires_at = ?, reminder_shown = ?, phone = ? WHERE id = ?`,
		g.GuestName, g.GuestCount, g.DurationMinutes, g.Status, g.ExpiresAt, g.ReminderShown, g.Phone, g.ID)
	if err != nil {
		return fmt.Errorf("updating guest session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSessionsNeedingReminder(ctx context.Context, now time.Time, lookahead time.Duration) ([]models.GuestSession, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM guest_sessions
		WHERE status IN (?, ?) AND expires_at > ? AND expires_at <= ? ORDER BY expires_at`,
		models.SessionStatusActive, models.SessionStatusExtended, now, now.Add(lookahead))
	if err != nil {
		return nil, fmt.Errorf("listing sessions needing reminder: %w", err)
	}
	return collectSessions(rows)
}

func (s *SQLiteStore) ListRecentlyCheckedIn(ctx context.Context, now time.Time, window time.Duration) ([]models.GuestSession, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM guest_sessions
		WHERE status IN (?, ?) AND check_in_at >= ? ORDER BY check_in_at`,
		models.SessionStatusActive, models.SessionStatusExtended, now.Add(-window))
	if err != nil {
		return nil, fmt.Errorf("listing recent check-ins: %w", err)
	}
	return collectSessions(rows)
}

package store

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/pawhaus/signage/internal/models"
)

// maxOptionUnwrapDepth bounds the legacy double-encoding unwrap loop.
const maxOptionUnwrapDepth = 4

// qualifySlideColumns prefixes every slide column with a table alias for
// joined queries.
func qualifySlideColumns(alias string) string {
	cols := []string{"id", "title", "type", "priority", "duration_seconds", "is_active", "sort_order",
		"image_url", "scheduling_enabled", "start_at", "end_at", "days_of_week", "time_start", "time_end"}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// decodePollOptions normalizes a stored poll-option payload. Legacy rows
// were JSON-encoded more than once (a JSON string containing JSON), so the
// value is unwrapped repeatedly until a non-string is reached. Unparseable
// payloads yield empty options rather than an error; the core never sees
// malformed option data.
func decodePollOptions(raw string) []models.PollOption {
	if raw == "" {
		return nil
	}
	payload := []byte(raw)
	for depth := 0; depth < maxOptionUnwrapDepth; depth++ {
		var inner string
		if err := json.Unmarshal(payload, &inner); err != nil {
			break
		}
		payload = []byte(inner)
	}
	var options []models.PollOption
	if err := json.Unmarshal(payload, &options); err != nil {
		slog.Warn("store: unparseable poll options, treating as empty", "error", err)
		return nil
	}
	return options
}

// encodePollOptions serializes options for storage, single-encoded.
func encodePollOptions(options []models.PollOption) (string, error) {
	if len(options) == 0 {
		return "", nil
	}
	data, err := json.Marshal(options)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeIntList parses a JSON int array column (days of week).
func decodeIntList(raw string) []int {
	if raw == "" {
		return nil
	}
	var out []int
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Warn("store: unparseable int list column, treating as empty", "error", err)
		return nil
	}
	return out
}

// decodeTimeSlots parses a JSON time-slot array column.
func decodeTimeSlots(raw string) []models.TimeSlot {
	if raw == "" {
		return nil
	}
	var out []models.TimeSlot
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Warn("store: unparseable time slot column, treating as empty", "error", err)
		return nil
	}
	return out
}

func encodeJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

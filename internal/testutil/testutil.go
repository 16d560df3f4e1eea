// Package testutil provides common test utilities and helpers for signage tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pawhaus/signage/internal/models"
	"github.com/pawhaus/signage/internal/store"
)

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}

// SeedTestData loads a small signage catalog into the store: three slides,
// one default playlist, one active custom poll and two adoptable cats.
func SeedTestData(t *testing.T, st *store.InMemoryStore) {
	t.Helper()
	ctx := context.Background()

	slides := []models.Slide{
		{ID: "sl_promo", Title: "Happy Hour", Type: models.SlideTypePromo, Priority: 2, DurationSeconds: 10, IsActive: true},
		{ID: "sl_event", Title: "Kitten Yoga", Type: models.SlideTypeEvent, Priority: 1, DurationSeconds: 15, IsActive: true},
		{ID: "sl_social", Title: "Tag Us", Type: models.SlideTypeSocial, Priority: 1, DurationSeconds: 8, IsActive: true},
	}
	for _, sl := range slides {
		if err := st.CreateSlide(ctx, sl); err != nil {
			t.Fatalf("failed to seed slide: %v", err)
		}
	}

	playlist := models.Playlist{
		ID:        "pl_default",
		Name:      "House Loop",
		IsDefault: true,
		SlideIDs:  []string{"sl_promo", "sl_event", "sl_social"},
	}
	if err := st.CreatePlaylist(ctx, playlist); err != nil {
		t.Fatalf("failed to seed playlist: %v", err)
	}

	poll := models.Poll{
		ID:       "poll_snacks",
		Question: "Which treat should we stock?",
		Type:     models.PollTypeCustom,
		Status:   models.PollStatusActive,
		Options: []models.PollOption{
			{ID: "o_tuna", Label: "Tuna bites"},
			{ID: "o_chicken", Label: "Chicken crunchies"},
		},
	}
	if err := st.CreatePoll(ctx, poll); err != nil {
		t.Fatalf("failed to seed poll: %v", err)
	}

	st.SetAdoptableCats([]models.Cat{
		{ID: "cat_mochi", DisplayName: "Mochi"},
		{ID: "cat_biscuit", DisplayName: "Biscuit"},
	})
}

// SeedGuestSession creates one active guest session expiring after the given
// duration from now.
func SeedGuestSession(t *testing.T, st *store.InMemoryStore, id string, now time.Time, expiresIn time.Duration) models.GuestSession {
	t.Helper()
	session := models.GuestSession{
		ID:              id,
		GuestCount:      1,
		DurationMinutes: 30,
		Status:          models.SessionStatusActive,
		CheckInAt:       now,
		ExpiresAt:       now.Add(expiresIn),
	}
	if err := st.CreateGuestSession(context.Background(), session); err != nil {
		t.Fatalf("failed to seed guest session: %v", err)
	}
	return session
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t *testing.T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}

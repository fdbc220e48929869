package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
)

// newTestApp wires an app to the in-memory store with benign fake
// collaborators. Individual tests override the funcs they care about.
func newTestApp(t *testing.T) *app {
	t.Helper()
	cfg := Config{
		Port:             "8080",
		CORSOrigin:       "http://localhost:5173",
		JWTSecret:        "test-secret",
		TokenTTLMinutes:  60,
		FrontendURL:      "http://localhost:5173",
		MeetingPageLimit: 100,
	}
	a := newApp(cfg, newMemStore())
	a.suggest = func(ctx context.Context, summary string) ([]string, error) {
		return mockSuggestions(), nil
	}
	a.refreshToken = func(ctx context.Context, refreshToken string) (string, error) {
		return "test-access-token", nil
	}
	a.fetchEvents = func(ctx context.Context, accessToken string, day time.Time) ([]*calendar.Event, error) {
		return nil, nil
	}
	a.createDraft = func(ctx context.Context, accessToken string, recipients []string, subject, body string) error {
		return nil
	}
	return a
}

func createTestUser(t *testing.T, a *app, email, refreshToken string) *User {
	t.Helper()
	u := &User{
		ID:           newID(),
		Email:        email,
		FullName:     "Test User",
		RefreshToken: refreshToken,
	}
	if err := a.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func bearerFor(t *testing.T, a *app, email string) string {
	t.Helper()
	tok, err := signToken(a.cfg.JWTSecret, email, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + tok
}

func doRequest(t *testing.T, a *app, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func seedMeeting(t *testing.T, a *app, userID, eventID string, start time.Time) *Meeting {
	t.Helper()
	m := &Meeting{
		UserID:        userID,
		GoogleEventID: eventID,
		Title:         "Meeting " + eventID,
		StartTime:     start,
		EndTime:       start.Add(30 * time.Minute),
		Participants:  []string{"alice@example.com"},
	}
	if err := a.store.UpsertMeeting(context.Background(), m); err != nil {
		t.Fatalf("upsert meeting: %v", err)
	}
	return m
}

func seedNextStep(t *testing.T, a *app, userID, meetingID, text string) *NextStep {
	t.Helper()
	now := time.Now().UTC()
	step := &NextStep{
		ID:           newID(),
		UserID:       userID,
		MeetingID:    meetingID,
		OriginalText: text,
		EditedText:   text,
		Status:       statusSuggested,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.CreateNextStep(context.Background(), step); err != nil {
		t.Fatalf("create next step: %v", err)
	}
	return step
}

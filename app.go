package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
)

// app holds the explicit handles every handler works through: config, the
// storage backend chosen at startup, and the external collaborators. The
// collaborator funcs are fields so tests can swap in fakes.
type app struct {
	cfg        Config
	store      Store
	oauth      *oauth2.Config
	httpClient *http.Client

	suggest      func(ctx context.Context, summary string) ([]string, error)
	refreshToken func(ctx context.Context, refreshToken string) (string, error)
	fetchEvents  func(ctx context.Context, accessToken string, day time.Time) ([]*calendar.Event, error)
	createDraft  func(ctx context.Context, accessToken string, recipients []string, subject, body string) error
}

func newApp(cfg Config, store Store) *app {
	a := &app{
		cfg:        cfg,
		store:      store,
		oauth:      googleOAuthConfig(cfg),
		httpClient: &http.Client{Timeout: externalCallTimeout},
	}
	a.suggest = a.suggestNextSteps
	a.refreshToken = a.refreshAccessToken
	a.fetchEvents = a.fetchDayEvents
	a.createDraft = a.createGmailDraft
	return a
}

func (a *app) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)

	var origins []string
	for _, p := range strings.Split(a.cfg.CORSOrigin, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	// Finish bare OPTIONS quickly
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", a.handleRegister)
		r.Post("/auth/login", a.handleLogin)
		r.Get("/auth/me", a.handleMe)
		r.Get("/auth/google/url", a.handleGoogleURL)
		r.Get("/auth/google/callback", a.handleGoogleCallback)

		r.Post("/meetings/sync", a.handleSyncMeetings)
		r.Get("/meetings", a.handleListMeetings)
		r.Patch("/meetings/{id}", a.handleUpdateMeeting)
		r.Post("/meetings/{id}/generate-actions", a.handleGenerateActions)

		r.Post("/next-steps", a.handleCreateNextStep)
		r.Get("/next-steps", a.handleListNextSteps)
		r.Patch("/next-steps/{id}", a.handleUpdateNextStep)
		r.Delete("/next-steps/{id}", a.handleDeleteNextStep)
		r.Post("/next-steps/{id}/execute", a.handleExecuteNextStep)
	})

	r.Get("/healthz", a.handleHealthz)
	return r
}

// GET /healthz
func (a *app) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dbPingTimeout)
	defer cancel()
	if err := a.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "error", "database": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "connected"})
}

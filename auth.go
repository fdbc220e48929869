package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

func (a *app) tokenTTL() time.Duration {
	return time.Duration(a.cfg.TokenTTLMinutes) * time.Minute
}

func (a *app) issueToken(w http.ResponseWriter, email string) {
	tok, err := signToken(a.cfg.JWTSecret, email, a.tokenTTL())
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "token error")
		return
	}
	writeJSON(w, http.StatusOK, tokenDTO{AccessToken: tok, TokenType: "bearer"})
}

/* ---------- local credentials ---------- */

// POST /api/v1/auth/register
func (a *app) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in authReq
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" {
		errorJSON(w, http.StatusBadRequest, "email and password required")
		return
	}

	if _, err := a.store.UserByEmail(r.Context(), in.Email); err == nil {
		errorJSON(w, http.StatusConflict, "email already in use")
		return
	} else if err != ErrNotFound {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	u := &User{
		ID:           newID(),
		Email:        in.Email,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := a.store.CreateUser(r.Context(), u); err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	a.issueToken(w, u.Email)
}

// POST /api/v1/auth/login
func (a *app) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in authReq
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	u, err := a.store.UserByEmail(r.Context(), in.Email)
	if err == ErrNotFound {
		errorJSON(w, http.StatusUnauthorized, "invalid email or password")
		return
	} else if err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		errorJSON(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	a.issueToken(w, u.Email)
}

// GET /api/v1/auth/me
func (a *app) handleMe(w http.ResponseWriter, r *http.Request) {
	u := a.requireUser(w, r)
	if u == nil {
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

/* ---------- Google OAuth ---------- */

// GET /api/v1/auth/google/url
func (a *app) handleGoogleURL(w http.ResponseWriter, r *http.Request) {
	authURL := a.oauth.AuthCodeURL("state-token",
		oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	writeJSON(w, http.StatusOK, map[string]string{"url": authURL})
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GET /api/v1/auth/google/callback?code=&error=
// Exchanges the code, upserts the user, and bounces back to the frontend with
// a local bearer token.
func (a *app) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		errorJSON(w, http.StatusBadRequest, "google authorization denied: "+e)
		return
	}
	code := q.Get("code")
	if code == "" {
		errorJSON(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	ctx := r.Context()
	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		log.Printf("[auth] google code exchange failed: %v", err)
		errorJSON(w, http.StatusBadRequest, "invalid Google code")
		return
	}

	info, err := a.fetchGoogleUserInfo(r, tok.AccessToken)
	if err != nil {
		log.Printf("[auth] userinfo fetch failed: %v", err)
		errorJSON(w, http.StatusBadRequest, "failed to get user info from Google")
		return
	}

	if err := a.upsertGoogleUser(r, info, tok.RefreshToken); err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}

	local, err := signToken(a.cfg.JWTSecret, info.Email, a.tokenTTL())
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "token error")
		return
	}
	redirect := strings.TrimRight(a.cfg.FrontendURL, "/") + "/auth/callback?token=" + url.QueryEscape(local)
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (a *app) fetchGoogleUserInfo(r *http.Request, accessToken string) (*googleUserInfo, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, a.cfg.GoogleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(resp.Body)
		log.Printf("[auth] userinfo status=%d body=%q", resp.StatusCode, truncate(string(slurp), 240))
		return nil, errNoToken
	}
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// upsertGoogleUser creates the user on first callback and refreshes profile
// fields afterwards. The stored refresh token is only overwritten when Google
// returned a new one; re-consent is the only way it changes.
func (a *app) upsertGoogleUser(r *http.Request, info *googleUserInfo, refreshToken string) error {
	ctx := r.Context()
	now := time.Now().UTC()

	existing, err := a.store.UserByEmail(ctx, info.Email)
	if err == ErrNotFound {
		return a.store.CreateUser(ctx, &User{
			ID:           newID(),
			Email:        info.Email,
			FullName:     info.Name,
			Picture:      info.Picture,
			GoogleID:     info.ID,
			RefreshToken: refreshToken,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if err != nil {
		return err
	}

	existing.FullName = info.Name
	existing.Picture = info.Picture
	existing.GoogleID = info.ID
	if refreshToken != "" {
		existing.RefreshToken = refreshToken
	}
	existing.UpdatedAt = now
	return a.store.SaveUser(ctx, existing)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

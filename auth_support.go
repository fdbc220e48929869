package main

import (
	"errors"
	"net/http"
	"strings"
)

var errNoToken = errors.New("missing bearer token")

// currentUser resolves the Authorization header to a stored user. A bad token
// and a valid token whose user no longer exists are deliberately the same
// failure from the caller's point of view.
func (a *app) currentUser(r *http.Request) (*User, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return nil, errNoToken
	}
	email, err := parseToken(a.cfg.JWTSecret, strings.TrimSpace(h[len(prefix):]))
	if err != nil {
		return nil, err
	}
	u, err := a.store.UserByEmail(r.Context(), email)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// requireUser writes a 401 and returns nil when the request carries no usable
// identity. Every data handler goes through here first.
func (a *app) requireUser(w http.ResponseWriter, r *http.Request) *User {
	u, err := a.currentUser(r)
	if err != nil {
		errorJSON(w, http.StatusUnauthorized, "could not validate credentials")
		return nil
	}
	return u
}

// Package api implements the HTTP surface of the route sync service.
package api

import (
    "net/http"
    "strings"

    "routesync/internal/auth"
    "routesync/internal/model"
)

// getPrincipal extracts the caller's role and subject.
// - If Authorization: Bearer is present, uses the configured verifier (dev/hmac).
// - Else falls back to headers for dev.
func (s *Server) getPrincipal(r *http.Request) auth.Principal {
    authz := r.Header.Get("Authorization")
    if strings.HasPrefix(strings.ToLower(authz), "bearer ") && s.Auth != nil {
        tok := strings.TrimSpace(authz[len("Bearer "):])
        if pr, err := s.Auth.Verify(tok); err == nil {
            return pr
        }
    }
    role := r.Header.Get("X-Role")
    if role == "" {
        role = "admin"
    }
    return auth.Principal{Role: strings.ToLower(role), Subject: r.Header.Get("X-Actor-Id")}
}

// actor converts the request principal into the explicit actor passed to
// every mutating operation.
func (s *Server) actor(r *http.Request) model.Actor {
    p := s.getPrincipal(r)
    return model.Actor{ID: p.Subject, Role: p.Role}
}

func isAdmin(p auth.Principal) bool      { return p.Role == "admin" }
func isDispatcher(p auth.Principal) bool { return p.Role == "admin" || p.Role == "dispatcher" }

package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/buyerleads/internal/core"
	"github.com/google/uuid"
)

const sessionMaxAge = 30 * 24 * time.Hour

type sessionRequest struct {
	// UserID resumes an existing identity; empty starts a new one.
	UserID string `json:"userId"`
}

type sessionResponse struct {
	UserID uuid.UUID `json:"userId"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := actor(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, sessionResponse{UserID: id})
}

// handleStartSession is the demo login: it trusts the caller's user id, or
// mints one, and stores it in a cookie.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	id := uuid.New()
	if raw := strings.TrimSpace(req.UserID); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil || parsed == uuid.Nil {
			s.fail(w, r, core.ValidationErrors{{Field: "userId", Value: raw, Message: "must be a valid id"}})
			return
		}
		id = parsed
	}

	http.SetCookie(w, s.sessionCookie(id.String(), int(sessionMaxAge.Seconds())))
	writeJSONStatus(w, http.StatusCreated, sessionResponse{UserID: id})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.sessionCookie("", -1))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.Security.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.Security.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roadsvr/backend/internal/server/services"
)

// sessionResponse is the body returned whenever a session token is minted.
// The token itself travels in the auth-token response header.
type sessionResponse struct {
	Name    string    `json:"name"`
	Level   int       `json:"level"`
	License time.Time `json:"license"`
}

func (s *Server) writeSession(w http.ResponseWriter, session *services.Session) {
	w.Header().Set(TokenHeader, session.Token)
	writeJSON(w, http.StatusOK, sessionResponse{
		Name:    session.User.Name,
		Level:   session.User.Level,
		License: session.User.License,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	session, err := s.users.Register(r.Context(), chi.URLParam(r, "email"), chi.URLParam(r, "password"), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSession(w, session)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	session, err := s.users.Login(r.Context(), chi.URLParam(r, "email"), chi.URLParam(r, "password"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSession(w, session)
}

func (s *Server) handleRecovery(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Recover(r.Context(), chi.URLParam(r, "email")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{})
}

package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roadsvr/backend/internal/server/apperr"
	"github.com/roadsvr/backend/internal/server/services"
)

func (s *Server) handleValidateCode(w http.ResponseWriter, r *http.Request) {
	resolved, err := s.codes.Resolve(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Code    int       `json:"code"`
		Name    string    `json:"name"`
		Scene   int       `json:"scene"`
		Created time.Time `json:"created"`
		Data    *string   `json:"data"`
	}{
		Name:    resolved.Name,
		Scene:   resolved.Scene,
		Created: resolved.Created,
		Data:    resolved.Data,
	})
}

func (s *Server) handleCodeImage(w http.ResponseWriter, r *http.Request) {
	data, err := s.codes.OwnerImage(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// closeRequest is the body of a session-close submission. Extra fields are
// preserved via the raw payload.
type closeRequest struct {
	Signals   []services.Report `json:"signals"`
	Distances []services.Report `json:"distances"`
}

func (s *Server) handleCloseCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, apperr.Wrap(err, apperr.KindValidation, -3200, "can't read body"))
		return
	}

	var req closeRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.writeError(w, r, apperr.Wrap(err, apperr.KindValidation, -3200, "invalid report body"))
		return
	}

	if err := s.codes.Close(r.Context(), code, req.Signals, req.Distances, raw); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}{Message: fmt.Sprintf("Code %s closed.", code)})
}

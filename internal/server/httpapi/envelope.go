package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/roadsvr/backend/internal/server/apperr"
)

// errorEnvelope is the wire form of every failure. Clients rely on the
// negative code far more than on the HTTP status.
type errorEnvelope struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind to an HTTP status. Business failures stay
// in the 4xx range; only storage faults surface as 500.
func statusFor(e *apperr.Error) int {
	switch e.Kind {
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindPermission:
		return http.StatusForbidden
	case apperr.KindStorage:
		return http.StatusInternalServerError
	}
	if e.Code < 0 {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError serializes err as the standard envelope. Causes stay in the
// server log, never on the wire.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.From(err)
	if !ok {
		e = apperr.Wrap(err, apperr.KindStorage, apperr.CodeInternal, "internal server error")
	}

	if e.Kind == apperr.KindStorage {
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "code", e.Code, "error", err.Error())
	} else {
		s.logger.Debug(r.Context(), "request rejected", "method", r.Method, "path", r.URL.Path, "code", e.Code)
	}

	writeJSON(w, statusFor(e), errorEnvelope{
		Code:      e.Code,
		Message:   e.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// notFound answers unmatched routes with the legacy code -1 envelope.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug(r.Context(), "route not found", "method", r.Method, "path", r.URL.Path)
	writeJSON(w, http.StatusNotFound, errorEnvelope{
		Code:      apperr.CodeRouteNotFound,
		Message:   "route not found: " + r.Method + " " + r.URL.Path,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

package httpapi

import (
	"net/http"
	"time"
)

// userRow is the per-user line of the administrative listing.
type userRow struct {
	ID      int64     `json:"id"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	License time.Time `json:"license"`
	Level   int       `json:"level"`
}

func (s *Server) handleUsersList(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", -4000)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit", -4000)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	users, err := s.license.Users(r.Context(), offset, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, userRow{ID: u.ID, Email: u.Email, Name: u.Name, License: u.License, Level: u.Level})
	}
	writeJSON(w, http.StatusOK, struct {
		Code  int       `json:"code"`
		Users []userRow `json:"users"`
	}{Users: rows})
}

type licenseResponse struct {
	Code    int       `json:"code"`
	License time.Time `json:"license"`
}

func (s *Server) handleExtendLicense(w http.ResponseWriter, r *http.Request) {
	userID, err := intParam(r, "userid", -4100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	days, err := intParam(r, "days", -4100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	license, err := s.license.Extend(r.Context(), int64(userID), days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, licenseResponse{License: license})
}

func (s *Server) handleSetLicense(w http.ResponseWriter, r *http.Request) {
	userID, err := intParam(r, "userid", -4200)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	days, err := intParam(r, "days", -4200)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	license, err := s.license.Set(r.Context(), int64(userID), days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, licenseResponse{License: license})
}

func (s *Server) handleRevokeLicense(w http.ResponseWriter, r *http.Request) {
	userID, err := intParam(r, "userid", -4300)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	license, err := s.license.Revoke(r.Context(), int64(userID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, licenseResponse{License: license})
}

func (s *Server) handleSetLevel(w http.ResponseWriter, r *http.Request) {
	userID, err := intParam(r, "userid", -4400)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	level, err := intParam(r, "level", -4400)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	stored, err := s.license.SetLevel(r.Context(), int64(userID), level)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Code  int `json:"code"`
		Level int `json:"level"`
	}{Level: stored})
}

// handleAllVRResults returns VR results across every user. The response is
// a bare array, unlike the wrapped per-user listings.
func (s *Server) handleAllVRResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.results.AllVR(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultRows(results))
}

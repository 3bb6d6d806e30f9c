package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roadsvr/backend/internal/server/apperr"
	"github.com/roadsvr/backend/internal/server/models"
	"github.com/roadsvr/backend/internal/server/services"
)

// okResponse is the plain success acknowledgement used by mutation routes.
type okResponse struct {
	Code int `json:"code"`
}

// intParam parses a numeric URL parameter, reporting failures under the
// route group's base code.
func intParam(r *http.Request, name string, errCode int) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, apperr.Newf(apperr.KindValidation, errCode, "invalid %s", name)
	}
	return v, nil
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	session, err := s.users.Profile(r.Context(), p.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSession(w, session)
}

func (s *Server) handleIssueCode(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	scene, err := intParam(r, "scene", -2100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	code, err := s.codes.IssueOrReuse(r.Context(), p.UserID, scene)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Code   int    `json:"code"`
		VRCode string `json:"vrcode"`
	}{VRCode: code})
}

func (s *Server) handleChangeName(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	if err := s.users.ChangeName(r.Context(), p.UserID, chi.URLParam(r, "name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	err := s.users.ChangePassword(r.Context(), p.UserID, chi.URLParam(r, "newpass"), chi.URLParam(r, "oldpass"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{})
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	data, err := s.users.Image(r.Context(), p.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, apperr.Wrap(err, apperr.KindValidation, -2500, "can't read image"))
		return
	}

	if err := s.users.UploadImage(r.Context(), p.UserID, data); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Code   int `json:"code"`
		Length int `json:"length"`
	}{Length: len(data)})
}

// resultRow is the per-scene summary returned by result listings.
type resultRow struct {
	Date        time.Time `json:"date"`
	Scene       int       `json:"scene"`
	Signals     int       `json:"signals"`
	SignalsOK   int       `json:"signalsOK"`
	Distances   int       `json:"distances"`
	DistancesOK int       `json:"distancesOK"`
}

func resultRows(results []*models.Result) []resultRow {
	rows := make([]resultRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, resultRow{
			Date:        r.Date,
			Scene:       r.Scene,
			Signals:     r.Signals,
			SignalsOK:   r.SignalsOK,
			Distances:   r.Distances,
			DistancesOK: r.DistancesOK,
		})
	}
	return rows
}

// resultDetail is the single-scene view, raw data included.
type resultDetail struct {
	Code        int       `json:"code"`
	Date        time.Time `json:"date"`
	Signals     int       `json:"signals"`
	SignalsOK   int       `json:"signalsOK"`
	Distances   int       `json:"distances"`
	DistancesOK int       `json:"distancesOK"`
	Data        string    `json:"data"`
}

func (s *Server) writeResultDetail(w http.ResponseWriter, res *models.Result) {
	writeJSON(w, http.StatusOK, resultDetail{
		Date:        res.Date,
		Signals:     res.Signals,
		SignalsOK:   res.SignalsOK,
		Distances:   res.Distances,
		DistancesOK: res.DistancesOK,
		Data:        res.Data,
	})
}

func (s *Server) handleVRResults(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	results, err := s.results.VRResults(r.Context(), p.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Code    int         `json:"code"`
		Results []resultRow `json:"results"`
	}{Results: resultRows(results)})
}

func (s *Server) handleVRResult(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	scene, err := intParam(r, "scene", -2600)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.results.VRResult(r.Context(), p.UserID, scene)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResultDetail(w, res)
}

func (s *Server) handleWebResults(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	results, err := s.results.WebResults(r.Context(), p.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Code    int         `json:"code"`
		Results []resultRow `json:"results"`
	}{Results: resultRows(results)})
}

func (s *Server) handleWebResult(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	scene, err := intParam(r, "scene", -2800)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.results.WebResult(r.Context(), p.UserID, scene)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResultDetail(w, res)
}

func (s *Server) handleSubmitWebResult(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, apperr.Wrap(err, apperr.KindValidation, -2900, "can't read body"))
		return
	}

	var sub services.WebSubmission
	if err := json.Unmarshal(raw, &sub); err != nil {
		s.writeError(w, r, apperr.Wrap(err, apperr.KindValidation, -2900, "invalid report body"))
		return
	}

	if err := s.results.SubmitWeb(r.Context(), p.UserID, &sub, raw); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{})
}

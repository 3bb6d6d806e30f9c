package httpapi

import (
	"net/http"
)

type moduleRow struct {
	Module   int `json:"module"`
	Progress int `json:"progress"`
	Quizz    int `json:"quizz"`
}

func (s *Server) handleModulesList(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	list, err := s.modules.List(r.Context(), p.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows := make([]moduleRow, 0, len(list))
	for _, m := range list {
		rows = append(rows, moduleRow{Module: m.Module, Progress: m.Progress, Quizz: m.Quizz})
	}
	writeJSON(w, http.StatusOK, struct {
		Code    int         `json:"code"`
		Modules []moduleRow `json:"modules"`
	}{Modules: rows})
}

func (s *Server) handleModuleGet(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	id, err := intParam(r, "id", -6100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.modules.Get(r.Context(), p.UserID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Code     int `json:"code"`
		Module   int `json:"module"`
		Progress int `json:"progress"`
		Quizz    int `json:"quizz"`
	}{Module: m.Module, Progress: m.Progress, Quizz: m.Quizz})
}

func (s *Server) handleModuleProgress(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	id, err := intParam(r, "id", -6200)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	value, err := intParam(r, "value", -6200)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.modules.SetProgress(r.Context(), p.UserID, id, value); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{})
}

func (s *Server) handleModuleQuizz(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	id, err := intParam(r, "id", -6300)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	state, err := intParam(r, "state", -6300)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.modules.SetQuizz(r.Context(), p.UserID, id, state); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{})
}

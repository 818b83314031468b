package http

import (
	"net/http"

	"moneygrowth/internal/core"
)

type goalRequest struct {
	Name     string `json:"name"`
	Target   string `json:"target"`
	Deadline string `json:"deadline"`
}

type contributeRequest struct {
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.store.ListGoals(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	target, err := parseAmount(req.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, "target: "+err.Error())
		return
	}
	g := core.Goal{
		Name:   sanitizeInput(req.Name),
		Target: target,
	}
	if req.Deadline != "" {
		deadline, err := parseDate(req.Deadline)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		g.Deadline = deadline
	}
	if err := g.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.AddGoal(r.Context(), userID(r), g)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	g.ID = id
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.GetGoal(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteGoal(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleContributeToGoal(w http.ResponseWriter, r *http.Request) {
	var req contributeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uid := userID(r)
	g, err := s.ledger.ContributeToGoal(r.Context(), uid, r.PathValue("id"), amount, date)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.invalidateReports(uid, date)
	writeJSON(w, http.StatusOK, g)
}

package http

import (
	"net/http"

	"moneygrowth/internal/core"
)

type policyRequest struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Premium     string `json:"premium"`
	Billing     string `json:"billing"`
	RenewalDate string `json:"renewalDate"`
	Coverage    string `json:"coverage"`
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := s.store.ListPolicies(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, policies)
}

func (s *Server) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	premium, err := parseAmount(req.Premium)
	if err != nil {
		writeError(w, http.StatusBadRequest, "premium: "+err.Error())
		return
	}
	renewal, err := parseDate(req.RenewalDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Coverage is informational and may be absent.
	coverage := core.Money{}
	if req.Coverage != "" {
		coverage, err = parseAmount(req.Coverage)
		if err != nil {
			writeError(w, http.StatusBadRequest, "coverage: "+err.Error())
			return
		}
	}

	p := core.InsurancePolicy{
		Name:        sanitizeInput(req.Name),
		Provider:    sanitizeInput(req.Provider),
		Premium:     premium,
		Billing:     core.RepeatInterval(sanitizeInput(req.Billing)),
		RenewalDate: renewal,
		Coverage:    coverage,
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.AddPolicy(r.Context(), userID(r), p)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	p.ID = id
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePolicy(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

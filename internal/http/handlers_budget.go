package http

import (
	"net/http"

	"moneygrowth/internal/core"
)

type budgetRequest struct {
	Category string `json:"category"`
	Limit    string `json:"limit"`
}

// handleListBudgets returns each budget with its utilization for the
// requested month (default: current).
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	year, month := parseYearMonth(r)

	budgets, err := s.store.ListBudgets(r.Context(), uid)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	transactions, err := s.store.ListTransactions(r.Context(), uid, year, month)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, core.BudgetUtilization(budgets, transactions, year, month))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	limit, err := parseAmount(req.Limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b := core.Budget{
		Category: sanitizeInput(req.Category),
		Limit:    limit,
	}
	if err := b.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.AddBudget(r.Context(), userID(r), b)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	b.ID = id
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteBudget(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"net/http"

	"moneygrowth/internal/core"
	applog "moneygrowth/internal/log"
)

// transactionRequest is the wire form of a new ledger entry. Amount is
// a decimal string ("12.50"), date is YYYY-MM-DD and defaults to today.
type transactionRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	CreditID    string `json:"creditId"`
	BudgetID    string `json:"budgetId"`
	GoalID      string `json:"goalId"`
	ReceiptID   string `json:"receiptId"`
	Shared      bool   `json:"shared"`
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		Type:        core.TransactionType(sanitizeInput(req.Type)),
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
		Date:        date,
		CreditID:    sanitizeInput(req.CreditID),
		BudgetID:    sanitizeInput(req.BudgetID),
		GoalID:      sanitizeInput(req.GoalID),
		ReceiptID:   sanitizeInput(req.ReceiptID),
		Shared:      req.Shared,
	}
	if t.Category == "" {
		t.Category = core.OtherCategory
	}
	return t, t.Validate()
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	year, month := 0, 0
	if r.URL.Query().Has("year") || r.URL.Query().Has("month") {
		year, month = parseYearMonth(r)
	}

	transactions, err := s.store.ListTransactions(r.Context(), userID(r), year, month)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list transactions failed", applog.FieldError, err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	t, err := req.toTransaction()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uid := userID(r)
	id, err := s.ledger.AddTransaction(r.Context(), uid, t)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "create transaction failed",
			applog.FieldUserID, uid, applog.FieldError, err)
		writeStoreError(w, err)
		return
	}
	if t.Shared {
		s.invalidateGroupReports(r.Context(), uid, t.Date)
	} else {
		s.invalidateReports(uid, t.Date)
	}

	t.ID = id
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTransaction(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id := r.PathValue("id")

	// Fetch first so the report cache for the right month is dropped.
	t, err := s.store.GetTransaction(r.Context(), uid, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), uid, id); err != nil {
		writeStoreError(w, err)
		return
	}
	if t.Shared {
		s.invalidateGroupReports(r.Context(), uid, t.Date)
	} else {
		s.invalidateReports(uid, t.Date)
	}
	w.WriteHeader(http.StatusNoContent)
}

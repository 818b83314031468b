package http

import (
	"net/http"
	"strings"
	"time"

	"moneygrowth/internal/core"
	applog "moneygrowth/internal/log"
)

type creditRequest struct {
	Name         string `json:"name"`
	Principal    string `json:"principal"`
	AnnualRateBp int64  `json:"annualRateBp"`
	Payment      string `json:"payment"`
	StartDate    string `json:"startDate"`
	TermMonths   int    `json:"termMonths"`
}

type payoffOrderResponse struct {
	Strategy core.PayoffStrategy `json:"strategy"`
	Credits  []core.Credit       `json:"credits"`
}

type toxicityResponse struct {
	CreditID       string `json:"creditId"`
	Score          int    `json:"score"`
	Summary        string `json:"summary,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

func (s *Server) handleListCredits(w http.ResponseWriter, r *http.Request) {
	credits, err := s.store.ListCredits(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, credits)
}

func (s *Server) handleCreateCredit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if !decodeBody(w, r, &req) {
		return
	}

	principal, err := parseAmount(req.Principal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "principal: "+err.Error())
		return
	}
	payment, err := parseAmount(req.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, "payment: "+err.Error())
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := core.Credit{
		Name:         sanitizeInput(req.Name),
		Principal:    principal,
		AnnualRateBp: req.AnnualRateBp,
		Payment:      payment,
		StartDate:    start,
		TermMonths:   req.TermMonths,
	}
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.AddCredit(r.Context(), userID(r), c)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	c.ID = id
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteCredit(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCredit(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreditSchedule(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCredit(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, core.Amortize(c))
}

func (s *Server) handlePayoffOrder(w http.ResponseWriter, r *http.Request) {
	strategy := core.PayoffStrategy(strings.TrimSpace(r.URL.Query().Get("strategy")))
	if strategy == "" {
		strategy = core.PayoffSmallestBalance
	}
	if !strategy.Valid() {
		writeError(w, http.StatusBadRequest, "unknown strategy, want smallest_balance, highest_rate, or balance_ratio")
		return
	}

	credits, err := s.store.ListCredits(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payoffOrderResponse{
		Strategy: strategy,
		Credits:  core.PayoffOrder(credits, strategy, time.Now()),
	})
}

// handleCreditToxicity always returns the locally computed score; the
// narrative parts are filled in only when the assistant is configured
// and reachable.
func (s *Server) handleCreditToxicity(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	c, err := s.store.GetCredit(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	schedule := core.Amortize(c)
	resp := toxicityResponse{
		CreditID: c.ID,
		Score:    core.ToxicityScore(c),
	}

	if s.assistant != nil {
		narrative, err := s.assistant.ToxicityReport(r.Context(), c, schedule, resp.Score)
		if err != nil {
			s.logger.WarnContext(r.Context(), "toxicity narrative unavailable",
				applog.FieldUserID, uid, applog.FieldError, err)
		} else {
			resp.Summary = narrative.Summary
			resp.Recommendation = narrative.Recommendation
			s.saveInsight(r.Context(), uid, "toxicity", narrative.Summary)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

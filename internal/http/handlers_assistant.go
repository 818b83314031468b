package http

import (
	"context"
	"net/http"

	"moneygrowth/internal/core"
	applog "moneygrowth/internal/log"
)

type assistantRequest struct {
	Message string   `json:"message"`
	History []string `json:"history"`
}

type assistantResponse struct {
	Reply       string            `json:"reply"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
}

type insightResponse struct {
	Text string `json:"text"`
}

// handleAssistant runs one chat turn. When the model calls the
// add-transaction function, the drafted entry is booked through the
// ledger and returned alongside the reply.
func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "assistant not configured")
		return
	}

	var req assistantRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if sanitizeInput(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "empty message")
		return
	}

	uid := userID(r)
	categories, err := s.store.ListCategories(r.Context(), uid)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	result, err := s.assistant.Chat(r.Context(), req.Message, categories, req.History)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "assistant chat failed",
			applog.FieldUserID, uid, applog.FieldError, err)
		writeError(w, http.StatusBadGateway, "assistant unavailable")
		return
	}

	resp := assistantResponse{Reply: result.Reply}
	if result.Draft != nil {
		t, err := result.Draft.ToTransaction()
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "assistant produced an invalid entry: "+err.Error())
			return
		}
		id, err := s.ledger.AddTransaction(r.Context(), uid, t)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		s.invalidateReports(uid, t.Date)
		t.ID = id
		resp.Transaction = &t
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleMonthlyInsight narrates the month overview and saves the text
// for later reading.
func (s *Server) handleMonthlyInsight(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "assistant not configured")
		return
	}

	uid := userID(r)
	year, month := parseYearMonth(r)
	ov, err := s.monthOverview(r, uid, year, month)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	text, err := s.assistant.MonthlyInsight(r.Context(), ov)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "monthly insight failed",
			applog.FieldUserID, uid, applog.FieldError, err)
		writeError(w, http.StatusBadGateway, "assistant unavailable")
		return
	}

	s.saveInsight(r.Context(), uid, "monthly", text)
	writeJSON(w, http.StatusOK, insightResponse{Text: text})
}

// saveInsight stores assistant output without failing the request.
func (s *Server) saveInsight(ctx context.Context, uid, kind, text string) {
	if text == "" {
		return
	}
	_, err := s.store.AddInsight(ctx, uid, core.SavedInsight{
		Kind:    kind,
		Text:    text,
		Created: core.Today(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "saving insight failed",
			applog.FieldUserID, uid, applog.FieldError, err)
	}
}

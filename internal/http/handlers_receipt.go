package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"moneygrowth/internal/core"
	applog "moneygrowth/internal/log"
)

// maxScanBytes caps the decoded receipt image size.
const maxScanBytes = 8 << 20

type receiptRequest struct {
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	DueDay   int    `json:"dueDay"`
	Every    string `json:"every"`
	Active   *bool  `json:"active"`
}

type scanRequest struct {
	Image    string `json:"image"` // base64-encoded
	MimeType string `json:"mimeType"`
}

type generateRequest struct {
	Date string `json:"date"`
}

func (req receiptRequest) toReceipt() (core.Receipt, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Receipt{}, err
	}
	rec := core.Receipt{
		Name:     sanitizeInput(req.Name),
		Amount:   amount,
		Category: sanitizeInput(req.Category),
		DueDay:   req.DueDay,
		Every:    core.RepeatInterval(sanitizeInput(req.Every)),
		Active:   true,
	}
	if rec.Every == "" {
		rec.Every = core.RepeatNone
	}
	if req.Active != nil {
		rec.Active = *req.Active
	}
	return rec, rec.Validate()
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.store.ListReceipts(r.Context(), userID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := req.toReceipt()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.AddReceipt(r.Context(), userID(r), rec)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	rec.ID = id
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	existing, err := s.store.GetReceipt(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var req receiptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := req.toReceipt()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec.ID = existing.ID
	rec.LastGenerated = existing.LastGenerated

	if err := s.store.UpdateReceipt(r.Context(), uid, rec); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteReceipt(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleScanReceipt extracts a transaction draft from a photographed
// receipt. The draft is returned for review, never booked directly.
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "assistant not configured")
		return
	}

	// Base64 inflates the payload, so the body cap sits above the
	// decoded image limit.
	r.Body = http.MaxBytesReader(w, r.Body, maxScanBytes+maxScanBytes/2)
	var req scanRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image must be base64-encoded")
		return
	}
	if len(image) == 0 || len(image) > maxScanBytes {
		writeError(w, http.StatusBadRequest, "image missing or too large")
		return
	}
	mimeType := sanitizeInput(req.MimeType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	uid := userID(r)
	categories, err := s.store.ListCategories(r.Context(), uid)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	draft, err := s.assistant.ScanReceipt(r.Context(), image, mimeType, categories)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "receipt scan failed",
			applog.FieldUserID, uid, applog.FieldError, err)
		writeError(w, http.StatusBadGateway, "scan failed")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// handleGenerateFromReceipt books a transaction from a receipt on
// demand, outside the recurring schedule.
func (s *Server) handleGenerateFromReceipt(w http.ResponseWriter, r *http.Request) {
	// The body is optional; an absent date books for today.
	var req generateRequest
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uid := userID(r)
	id, err := s.ledger.GenerateFromReceipt(r.Context(), uid, r.PathValue("id"), date)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.invalidateReports(uid, date)

	t, err := s.store.GetTransaction(r.Context(), uid, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

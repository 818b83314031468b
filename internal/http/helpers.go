package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"moneygrowth/internal/core"
	"moneygrowth/internal/store"
)

const defaultUserID = "default"

// maxBodyBytes caps JSON request bodies; receipt scans get their own
// larger limit.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeStoreError maps storage sentinels onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "already exists")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// userID resolves the acting user from the X-User header. Every
// request is scoped to exactly one user; an absent header falls back
// to the default user.
func userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-User")); id != "" {
		return sanitizeInput(id)
	}
	return defaultUserID
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// parseYearMonth extracts year and month from query parameters,
// defaulting to the current month.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}

	return year, month
}

// parseDate parses a YYYY-MM-DD string; an empty string means today.
func parseDate(dateStr string) (core.Date, error) {
	if strings.TrimSpace(dateStr) == "" {
		return core.Today(), nil
	}
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", dateStr)
	}
	return core.Date{Time: t}, nil
}

// parseAmount converts a decimal string like "12.50" into Money.
func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func monthCacheKey(userID string, year, month int) string {
	return fmt.Sprintf("%s/%04d-%02d", userID, year, month)
}

func yearCacheKey(userID string, year int) string {
	return fmt.Sprintf("%s/%04d", userID, year)
}

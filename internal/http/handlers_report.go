package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"moneygrowth/internal/core"
	"moneygrowth/internal/export"
	applog "moneygrowth/internal/log"
)

func (s *Server) monthOverview(r *http.Request, uid string, year, month int) (core.MonthOverview, error) {
	key := monthCacheKey(uid, year, month)
	if ov, ok := s.monthCache.Get(key); ok {
		return ov, nil
	}

	transactions, err := s.store.ListTransactions(r.Context(), uid, year, month)
	if err != nil {
		return core.MonthOverview{}, err
	}
	ov := core.SummarizeMonth(transactions, year, month)
	s.monthCache.Set(key, ov)
	return ov, nil
}

func (s *Server) yearOverview(r *http.Request, uid string, year int) (core.YearOverview, error) {
	key := yearCacheKey(uid, year)
	if ov, ok := s.yearCache.Get(key); ok {
		return ov, nil
	}

	transactions, err := s.store.ListTransactions(r.Context(), uid, year, 0)
	if err != nil {
		return core.YearOverview{}, err
	}
	ov := core.SummarizeYear(transactions, year)
	s.yearCache.Set(key, ov)
	return ov, nil
}

func (s *Server) handleMonthReport(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	year, month := parseYearMonth(r)
	ov, err := s.monthOverview(r, uid, year, month)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	prevYear, prevMonth := year, month-1
	if prevMonth < 1 {
		prevYear, prevMonth = year-1, 12
	}
	if prev, err := s.monthOverview(r, uid, prevYear, prevMonth); err == nil {
		d := ov.DeltaFrom(prev)
		ov.Delta = &d
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleYearReport(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	year, _ := parseYearMonth(r)
	ov, err := s.yearOverview(r, uid, year)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if prev, err := s.yearOverview(r, uid, year-1); err == nil {
		d := ov.DeltaFrom(prev)
		ov.Delta = &d
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	year, month := 0, 0
	if r.URL.Query().Has("year") || r.URL.Query().Has("month") {
		year, month = parseYearMonth(r)
	}

	transactions, err := s.store.ListTransactions(r.Context(), uid, year, month)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := export.WriteTransactionsCSV(w, transactions); err != nil {
		s.logger.ErrorContext(r.Context(), "csv export failed",
			applog.FieldUserID, uid, applog.FieldError, err)
	}
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	year, month := parseYearMonth(r)

	transactions, err := s.store.ListTransactions(r.Context(), uid, year, month)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	ov := core.SummarizeMonth(transactions, year, month)

	// Render into a buffer first so a failed render never produces a
	// half-written attachment.
	var buf bytes.Buffer
	if err := export.WriteMonthReportPDF(&buf, ov, transactions); err != nil {
		s.logger.ErrorContext(r.Context(), "pdf export failed",
			applog.FieldUserID, uid, applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "pdf rendering failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="report-%04d-%02d.pdf"`, year, month))
	_, _ = w.Write(buf.Bytes())
}

// handleChart renders a category pie for kind=month (default) or the
// income/expense bars for kind=year.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	year, month := parseYearMonth(r)

	var (
		png []byte
		err error
	)
	switch kind := strings.TrimSpace(r.URL.Query().Get("kind")); kind {
	case "", "month":
		var ov core.MonthOverview
		if ov, err = s.monthOverview(r, uid, year, month); err == nil {
			png, err = export.RenderCategoryPie(ov)
		}
	case "year":
		var ov core.YearOverview
		if ov, err = s.yearOverview(r, uid, year); err == nil {
			png, err = export.RenderYearBars(ov)
		}
	default:
		writeError(w, http.StatusBadRequest, "unknown chart kind, want month or year")
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "chart rendering failed",
			applog.FieldUserID, uid, applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "chart rendering failed")
		return
	}
	if len(png) == 0 {
		writeError(w, http.StatusNotFound, "nothing to chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

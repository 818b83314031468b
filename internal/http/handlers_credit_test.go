package http

import (
	"net/http"
	"testing"

	"moneygrowth/internal/core"
)

func createCredit(t *testing.T, srv *Server, req creditRequest) core.Credit {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/credits", req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create credit status = %d, body %s", rec.Code, rec.Body.String())
	}
	var c core.Credit
	decodeInto(t, rec, &c)
	return c
}

func TestCreditSchedule(t *testing.T) {
	srv, _ := newTestServer(t)

	c := createCredit(t, srv, creditRequest{
		Name:         "Car loan",
		Principal:    "10000.00",
		AnnualRateBp: 600,
		Payment:      "300.00",
		StartDate:    "2026-01-01",
		TermMonths:   48,
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/credits/"+c.ID+"/schedule", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("schedule status = %d", rec.Code)
	}
	var schedule core.Schedule
	decodeInto(t, rec, &schedule)
	if !schedule.PaidOff {
		t.Fatal("expected the loan to amortize within the term")
	}
	if len(schedule.Entries) == 0 {
		t.Fatal("expected schedule entries")
	}
}

func TestPayoffOrder(t *testing.T) {
	srv, _ := newTestServer(t)

	createCredit(t, srv, creditRequest{
		Name: "Big cheap", Principal: "20000.00", AnnualRateBp: 300,
		Payment: "500.00", StartDate: "2026-01-01", TermMonths: 60,
	})
	createCredit(t, srv, creditRequest{
		Name: "Small expensive", Principal: "2000.00", AnnualRateBp: 2200,
		Payment: "150.00", StartDate: "2026-01-01", TermMonths: 24,
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/credits/payoff-order?strategy=highest_rate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("payoff-order status = %d", rec.Code)
	}
	var resp payoffOrderResponse
	decodeInto(t, rec, &resp)
	if resp.Strategy != core.PayoffHighestRate {
		t.Fatalf("strategy = %q", resp.Strategy)
	}
	if len(resp.Credits) != 2 || resp.Credits[0].Name != "Small expensive" {
		t.Fatalf("highest_rate put %q first", resp.Credits[0].Name)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/credits/payoff-order?strategy=smallest_balance", nil)
	decodeInto(t, rec, &resp)
	if resp.Credits[0].Name != "Small expensive" {
		t.Fatalf("smallest_balance put %q first", resp.Credits[0].Name)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/credits/payoff-order?strategy=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus strategy status = %d, want 400", rec.Code)
	}
}

func TestCreditToxicityWithoutAssistant(t *testing.T) {
	srv, _ := newTestServer(t)

	c := createCredit(t, srv, creditRequest{
		Name: "Revolving", Principal: "5000.00", AnnualRateBp: 2400,
		Payment: "120.00", StartDate: "2026-01-01", TermMonths: 72,
	})

	rec := doJSON(t, srv, http.MethodPost, "/api/credits/"+c.ID+"/toxicity", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toxicity status = %d", rec.Code)
	}
	var resp toxicityResponse
	decodeInto(t, rec, &resp)
	if resp.Score <= 0 || resp.Score > 100 {
		t.Fatalf("score = %d, want within (0,100]", resp.Score)
	}
	if resp.Summary != "" {
		t.Fatal("expected no narrative without an assistant")
	}
}

func TestDeleteCredit(t *testing.T) {
	srv, _ := newTestServer(t)

	c := createCredit(t, srv, creditRequest{
		Name: "Short", Principal: "1000.00", AnnualRateBp: 500,
		Payment: "100.00", StartDate: "2026-01-01", TermMonths: 12,
	})

	rec := doJSON(t, srv, http.MethodDelete, "/api/credits/"+c.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/credits/"+c.ID+"/schedule", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("schedule after delete status = %d, want 404", rec.Code)
	}
}

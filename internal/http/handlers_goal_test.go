package http

import (
	"net/http"
	"testing"

	"moneygrowth/internal/core"
)

func TestGoalContribution(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/goals", goalRequest{
		Name: "Holiday", Target: "1500.00", Deadline: "2026-12-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal status = %d, body %s", rec.Code, rec.Body.String())
	}
	var g core.Goal
	decodeInto(t, rec, &g)

	rec = doJSON(t, srv, http.MethodPost, "/api/goals/"+g.ID+"/contribute", contributeRequest{
		Amount: "500.00", Date: "2026-06-01",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("contribute status = %d, body %s", rec.Code, rec.Body.String())
	}
	decodeInto(t, rec, &g)
	if g.Contributed.Cents != 50000 {
		t.Fatalf("contributed = %d, want 50000", g.Contributed.Cents)
	}
	if len(g.Contributions) != 1 {
		t.Fatalf("contributions = %d, want 1", len(g.Contributions))
	}

	// The contribution shows up as a saving entry in the ledger.
	rec = doJSON(t, srv, http.MethodGet, "/api/transactions?year=2026&month=6", nil)
	var transactions []core.Transaction
	decodeInto(t, rec, &transactions)
	if len(transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(transactions))
	}
	if transactions[0].Type != core.Saving || transactions[0].GoalID != g.ID {
		t.Fatalf("unexpected booked entry: %+v", transactions[0])
	}
}

func TestContributeToMissingGoal(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/goals/nope/contribute", contributeRequest{Amount: "10.00"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGoalLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/goals", goalRequest{Name: "Bike", Target: "800.00"})
	var g core.Goal
	decodeInto(t, rec, &g)

	rec = doJSON(t, srv, http.MethodGet, "/api/goals/"+g.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/goals/"+g.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/goals/"+g.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

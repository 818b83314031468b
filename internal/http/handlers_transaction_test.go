package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"moneygrowth/internal/core"
)

func TestCreateAndListTransactions(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", transactionRequest{
		Type:        "expense",
		Description: "Groceries",
		Amount:      "45.50",
		Category:    "Food",
		Date:        "2026-03-10",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	var created core.Transaction
	decodeInto(t, rec, &created)
	if created.ID == "" {
		t.Fatal("expected an ID on the created transaction")
	}
	if created.Amount.Cents != 4550 {
		t.Fatalf("amount = %d cents, want 4550", created.Amount.Cents)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions?year=2026&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed []core.Transaction
	decodeInto(t, rec, &listed)
	if len(listed) != 1 {
		t.Fatalf("listed %d transactions, want 1", len(listed))
	}

	// A different month filter excludes the entry.
	rec = doJSON(t, srv, http.MethodGet, "/api/transactions?year=2026&month=4", nil)
	decodeInto(t, rec, &listed)
	if len(listed) != 0 {
		t.Fatalf("listed %d transactions for the wrong month, want 0", len(listed))
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		req  transactionRequest
	}{
		{"bad type", transactionRequest{Type: "transfer", Description: "x", Amount: "1.00"}},
		{"bad amount", transactionRequest{Type: "expense", Description: "x", Amount: "abc"}},
		{"zero amount", transactionRequest{Type: "expense", Description: "x", Amount: "0"}},
		{"empty description", transactionRequest{Type: "expense", Amount: "1.00"}},
		{"bad date", transactionRequest{Type: "expense", Description: "x", Amount: "1.00", Date: "10/03/2026"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/transactions", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestDefaultCategoryOnCreate(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", transactionRequest{
		Type:        "income",
		Description: "Salary",
		Amount:      "2500.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var created core.Transaction
	decodeInto(t, rec, &created)
	if created.Category != core.OtherCategory {
		t.Fatalf("category = %q, want %q", created.Category, core.OtherCategory)
	}
}

func TestGetAndDeleteTransaction(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", transactionRequest{
		Type: "expense", Description: "Coffee", Amount: "3.20", Category: "Food",
	})
	var created core.Transaction
	decodeInto(t, rec, &created)

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestTransactionsAreScopedToUser(t *testing.T) {
	srv, _ := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/transactions", transactionRequest{
		Type: "expense", Description: "Lunch", Amount: "12.00", Category: "Food",
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/transactions", nil)
	var mine []core.Transaction
	decodeInto(t, rec, &mine)
	if len(mine) != 1 {
		t.Fatalf("own transactions = %d, want 1", len(mine))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("X-User", "someone-else")
	other := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(other, req)

	var theirs []core.Transaction
	if err := json.Unmarshal(other.Body.Bytes(), &theirs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(theirs) != 0 {
		t.Fatalf("other user sees %d transactions, want 0", len(theirs))
	}
}

func TestSharedTransactionsVisibleToGroup(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSONAs(t, srv, "tester", http.MethodPost, "/api/groups", groupRequest{
		Name: "family", Members: []string{"alice", "bob"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create group status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSONAs(t, srv, "alice", http.MethodPost, "/api/transactions", transactionRequest{
		Type: "expense", Description: "Rent", Amount: "900.00", Category: "Housing",
		Date: "2026-05-01", Shared: true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create shared status = %d, body %s", rec.Code, rec.Body.String())
	}
	doJSONAs(t, srv, "alice", http.MethodPost, "/api/transactions", transactionRequest{
		Type: "expense", Description: "Haircut", Amount: "25.00", Category: "Personal",
		Date: "2026-05-02",
	})

	rec = doJSONAs(t, srv, "bob", http.MethodGet, "/api/transactions", nil)
	var visible []core.Transaction
	decodeInto(t, rec, &visible)
	if len(visible) != 1 {
		t.Fatalf("bob sees %d transactions, want 1 shared entry from alice", len(visible))
	}
	if visible[0].Description != "Rent" || !visible[0].Shared {
		t.Fatalf("bob sees %+v, want alice's shared rent entry", visible[0])
	}

	// Month filtering applies to shared entries too.
	rec = doJSONAs(t, srv, "bob", http.MethodGet, "/api/transactions?year=2026&month=6", nil)
	decodeInto(t, rec, &visible)
	if len(visible) != 0 {
		t.Fatalf("bob sees %d transactions for the wrong month, want 0", len(visible))
	}

	// Users outside the group never see shared entries.
	rec = doJSONAs(t, srv, "carol", http.MethodGet, "/api/transactions", nil)
	decodeInto(t, rec, &visible)
	if len(visible) != 0 {
		t.Fatalf("carol sees %d transactions, want 0", len(visible))
	}
}

func TestSharedTransactionFeedsGroupReports(t *testing.T) {
	srv, _ := newTestServer(t)

	doJSONAs(t, srv, "tester", http.MethodPost, "/api/groups", groupRequest{
		Name: "family", Members: []string{"alice", "bob"},
	})

	// Warm bob's cache before alice books the shared entry.
	doJSONAs(t, srv, "bob", http.MethodGet, "/api/reports/month?year=2026&month=5", nil)

	doJSONAs(t, srv, "alice", http.MethodPost, "/api/transactions", transactionRequest{
		Type: "expense", Description: "Rent", Amount: "900.00", Category: "Housing",
		Date: "2026-05-01", Shared: true,
	})

	rec := doJSONAs(t, srv, "bob", http.MethodGet, "/api/reports/month?year=2026&month=5", nil)
	var ov core.MonthOverview
	decodeInto(t, rec, &ov)
	if ov.Expenses.Cents != 90000 {
		t.Fatalf("bob's month expenses = %d cents, want 90000 from the shared entry", ov.Expenses.Cents)
	}
}

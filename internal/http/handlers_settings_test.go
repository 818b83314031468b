package http

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"moneygrowth/internal/core"
)

func TestCategoryCreateAndDuplicate(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/categories", categoryRequest{Name: "Books", Kind: "expense"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/categories", categoryRequest{Name: "Books", Kind: "expense"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/categories", categoryRequest{Name: "Weird", Kind: "transfer"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad kind status = %d, want 400", rec.Code)
	}
}

func TestDeleteCategoryReassignsTransactions(t *testing.T) {
	srv, _ := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/categories", categoryRequest{Name: "Hobby", Kind: "expense"})
	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", transactionRequest{
		Type: "expense", Description: "Paint", Amount: "20.00", Category: "Hobby", Date: "2026-02-10",
	})
	var created core.Transaction
	decodeInto(t, rec, &created)

	rec = doJSON(t, srv, http.MethodDelete, "/api/categories/"+url.PathEscape("Hobby"), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete category status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions/"+created.ID, nil)
	var after core.Transaction
	decodeInto(t, rec, &after)
	if after.Category != core.OtherCategory {
		t.Fatalf("category after delete = %q, want %q", after.Category, core.OtherCategory)
	}
}

func TestDeleteFallbackCategoryRefused(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodDelete, "/api/categories/Other", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAlertMarkRead(t *testing.T) {
	srv, st := newTestServer(t)

	id, err := st.AddAlert(context.Background(), "tester", core.Alert{
		Level: "info", Message: "hello", Created: core.Today(),
	})
	if err != nil {
		t.Fatalf("seed alert: %v", err)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/alerts/"+id+"/read", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("mark read status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/alerts", nil)
	var alerts []core.Alert
	decodeInto(t, rec, &alerts)
	if len(alerts) != 1 || !alerts[0].Read {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}

func TestStateExportImportRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/transactions", transactionRequest{
		Type: "expense", Description: "Seed", Amount: "10.00", Category: "Food", Date: "2026-01-05",
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/state/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	blob := rec.Body.Bytes()

	// A fresh server imports the blob and serves the same data.
	other, _ := newTestServer(t)
	req := doRaw(t, other, http.MethodPost, "/api/state/import", blob)
	if req.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %s", req.Code, req.Body.String())
	}

	rec = doJSON(t, other, http.MethodGet, "/api/transactions", nil)
	var transactions []core.Transaction
	decodeInto(t, rec, &transactions)
	if len(transactions) != 1 || transactions[0].Description != "Seed" {
		t.Fatalf("unexpected transactions after import: %+v", transactions)
	}
}

func TestUsersAndGroups(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/groups", groupRequest{Name: "Family"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create group status = %d", rec.Code)
	}
	var g core.Group
	decodeInto(t, rec, &g)

	rec = doJSON(t, srv, http.MethodPost, "/api/users", userRequest{Name: "Ada", GroupID: g.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/users", nil)
	var users []core.User
	decodeInto(t, rec, &users)
	found := false
	for _, u := range users {
		if u.Name == "Ada" && u.GroupID == g.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("created user missing from list: %+v", users)
	}
}

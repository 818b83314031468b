package http

import (
	"net/http"
	"testing"

	"moneygrowth/internal/core"
)

func TestReceiptLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/receipts", receiptRequest{
		Name: "Gym", Amount: "35.00", Category: "Health", DueDay: 5, Every: "monthly",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created core.Receipt
	decodeInto(t, rec, &created)
	if !created.Active {
		t.Fatal("new receipt should default to active")
	}

	paused := false
	rec = doJSON(t, srv, http.MethodPut, "/api/receipts/"+created.ID, receiptRequest{
		Name: "Gym", Amount: "39.00", Category: "Health", DueDay: 5, Every: "monthly", Active: &paused,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated core.Receipt
	decodeInto(t, rec, &updated)
	if updated.Active || updated.Amount.Cents != 3900 {
		t.Fatalf("update not applied: %+v", updated)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/receipts/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
}

func TestGenerateFromReceipt(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/receipts", receiptRequest{
		Name: "Electricity", Amount: "80.00", Category: "Utilities", DueDay: 15, Every: "monthly",
	})
	var receipt core.Receipt
	decodeInto(t, rec, &receipt)

	rec = doJSON(t, srv, http.MethodPost, "/api/receipts/"+receipt.ID+"/generate", generateRequest{Date: "2026-07-15"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate status = %d, body %s", rec.Code, rec.Body.String())
	}
	var booked core.Transaction
	decodeInto(t, rec, &booked)
	if booked.Type != core.Expense || booked.ReceiptID != receipt.ID {
		t.Fatalf("unexpected booked entry: %+v", booked)
	}
	if booked.Amount.Cents != 8000 {
		t.Fatalf("amount = %d, want 8000", booked.Amount.Cents)
	}
}

func TestScanReceiptWithoutAssistant(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/receipts/scan", scanRequest{Image: "aGVsbG8=", MimeType: "image/png"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("scan status = %d, want 503", rec.Code)
	}
}

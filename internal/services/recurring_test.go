package services

import (
	"context"
	"testing"
	"time"

	"moneygrowth/internal/core"
	"moneygrowth/internal/store"
)

func TestProcessDueReceipts(t *testing.T) {
	st := store.New()
	ledger := NewLedger(st, nil)
	processor := NewRecurringProcessor(st, ledger)
	ctx := context.Background()

	mustAdd := func(r core.Receipt) string {
		t.Helper()
		id, err := st.AddReceipt(ctx, "alice", r)
		if err != nil {
			t.Fatalf("AddReceipt() error = %v", err)
		}
		return id
	}

	dueID := mustAdd(core.Receipt{
		Name:     "Rent",
		Amount:   core.Money{Cents: 80000},
		Category: "Housing",
		DueDay:   1,
		Every:    core.RepeatMonthly,
		Active:   true,
	})
	mustAdd(core.Receipt{
		Name:     "Paused",
		Amount:   core.Money{Cents: 1000},
		Category: "Other",
		DueDay:   1,
		Every:    core.RepeatMonthly,
		Active:   false,
	})
	mustAdd(core.Receipt{
		Name:     "One-off",
		Amount:   core.Money{Cents: 5000},
		Category: "Other",
		DueDay:   1,
		Every:    core.RepeatNone,
		Active:   true,
	})

	now := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	n, err := processor.ProcessDueReceipts(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDueReceipts() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("processed = %d, want 1 (inactive and one-off skipped)", n)
	}

	txs, err := st.ListTransactions(ctx, "alice", 2026, 3)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txs) != 1 || txs[0].ReceiptID != dueID {
		t.Fatalf("transactions = %+v, want one linked to due receipt", txs)
	}

	alerts, err := st.ListAlerts(ctx, "alice")
	if err != nil {
		t.Fatalf("ListAlerts() error = %v", err)
	}
	if len(alerts) != 1 || alerts[0].Level != "info" {
		t.Fatalf("alerts = %+v, want one info booking alert", alerts)
	}

	// A second run on the same day books nothing.
	n, err = processor.ProcessDueReceipts(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDueReceipts() second run error = %v", err)
	}
	if n != 0 {
		t.Errorf("processed = %d on second run, want 0", n)
	}
}

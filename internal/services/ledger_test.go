package services

import (
	"context"
	"testing"

	"moneygrowth/internal/core"
	"moneygrowth/internal/store"
)

func newTestLedger(t *testing.T) (*Ledger, *store.Store) {
	t.Helper()
	st := store.New()
	return NewLedger(st, nil), st
}

func TestAddTransactionUnlocksFirstEntry(t *testing.T) {
	ledger, st := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.AddTransaction(ctx, "alice", core.Transaction{
		Type:        core.Expense,
		Description: "Coffee",
		Amount:      core.Money{Cents: 350},
		Category:    "Groceries",
		Date:        core.NewDate(2026, 3, 10),
	})
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	achievements, err := st.ListAchievements(ctx, "alice")
	if err != nil {
		t.Fatalf("ListAchievements() error = %v", err)
	}
	if len(achievements) != 1 || achievements[0].Code != core.AchievementFirstTransaction {
		t.Errorf("achievements = %+v, want one %s", achievements, core.AchievementFirstTransaction)
	}
}

func TestAddTransactionRaisesBudgetAlertOnCrossing(t *testing.T) {
	ledger, st := newTestLedger(t)
	ctx := context.Background()

	if _, err := st.AddBudget(ctx, "alice", core.Budget{
		Category: "Groceries",
		Limit:    core.Money{Cents: 10000},
	}); err != nil {
		t.Fatalf("AddBudget() error = %v", err)
	}

	add := func(cents int64) {
		t.Helper()
		_, err := ledger.AddTransaction(ctx, "alice", core.Transaction{
			Type:        core.Expense,
			Description: "Shopping",
			Amount:      core.Money{Cents: cents},
			Category:    "Groceries",
			Date:        core.NewDate(2026, 3, 10),
		})
		if err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}
	}

	add(6000) // under budget, no alert
	alerts, _ := st.ListAlerts(ctx, "alice")
	if len(alerts) != 0 {
		t.Fatalf("alerts = %d, want 0 while under budget", len(alerts))
	}

	add(6000) // crosses the limit
	alerts, _ = st.ListAlerts(ctx, "alice")
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1 after crossing", len(alerts))
	}
	if alerts[0].Level != "warning" {
		t.Errorf("alert level = %q, want warning", alerts[0].Level)
	}

	add(1000) // already over, no second alert
	alerts, _ = st.ListAlerts(ctx, "alice")
	if len(alerts) != 1 {
		t.Errorf("alerts = %d, want 1 (no duplicate)", len(alerts))
	}
}

func TestContributeToGoal(t *testing.T) {
	ledger, st := newTestLedger(t)
	ctx := context.Background()

	goalID, err := st.AddGoal(ctx, "alice", core.Goal{
		Name:   "Vacation",
		Target: core.Money{Cents: 100000},
	})
	if err != nil {
		t.Fatalf("AddGoal() error = %v", err)
	}

	goal, err := ledger.ContributeToGoal(ctx, "alice", goalID,
		core.Money{Cents: 40000}, core.NewDate(2026, 3, 10))
	if err != nil {
		t.Fatalf("ContributeToGoal() error = %v", err)
	}
	if goal.Contributed.Cents != 40000 {
		t.Errorf("Contributed = %d, want 40000", goal.Contributed.Cents)
	}
	if len(goal.Contributions) != 1 {
		t.Fatalf("Contributions = %d, want 1", len(goal.Contributions))
	}

	// The contribution lands in the ledger as a saving.
	txs, err := st.ListTransactions(ctx, "alice", 2026, 3)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txs) != 1 || txs[0].Type != core.Saving || txs[0].GoalID != goalID {
		t.Errorf("transactions = %+v, want one saving linked to goal", txs)
	}

	// Reaching the target unlocks the achievement.
	if _, err := ledger.ContributeToGoal(ctx, "alice", goalID,
		core.Money{Cents: 60000}, core.NewDate(2026, 4, 1)); err != nil {
		t.Fatalf("ContributeToGoal() error = %v", err)
	}
	achievements, _ := st.ListAchievements(ctx, "alice")
	found := false
	for _, a := range achievements {
		if a.Code == core.AchievementGoalReached {
			found = true
		}
	}
	if !found {
		t.Errorf("achievement %s not unlocked", core.AchievementGoalReached)
	}
}

func TestGenerateFromReceipt(t *testing.T) {
	ledger, st := newTestLedger(t)
	ctx := context.Background()

	receiptID, err := st.AddReceipt(ctx, "alice", core.Receipt{
		Name:     "Rent",
		Amount:   core.Money{Cents: 80000},
		Category: "Housing",
		DueDay:   1,
		Every:    core.RepeatMonthly,
		Active:   true,
	})
	if err != nil {
		t.Fatalf("AddReceipt() error = %v", err)
	}

	when := core.NewDate(2026, 3, 1)
	txID, err := ledger.GenerateFromReceipt(ctx, "alice", receiptID, when)
	if err != nil {
		t.Fatalf("GenerateFromReceipt() error = %v", err)
	}

	tx, err := st.GetTransaction(ctx, "alice", txID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if tx.ReceiptID != receiptID || tx.Amount.Cents != 80000 || tx.Category != "Housing" {
		t.Errorf("transaction = %+v, want receipt-linked housing expense", tx)
	}

	receipt, err := st.GetReceipt(ctx, "alice", receiptID)
	if err != nil {
		t.Fatalf("GetReceipt() error = %v", err)
	}
	if !receipt.LastGenerated.Equal(when.Time) {
		t.Errorf("LastGenerated = %v, want %v", receipt.LastGenerated, when)
	}
}

func TestDeleteCreditUnlocksDebtFree(t *testing.T) {
	ledger, st := newTestLedger(t)
	ctx := context.Background()

	id, err := st.AddCredit(ctx, "alice", core.Credit{
		Name:       "Car loan",
		Principal:  core.Money{Cents: 1200000},
		Payment:    core.Money{Cents: 100000},
		StartDate:  core.NewDate(2025, 1, 1),
		TermMonths: 12,
	})
	if err != nil {
		t.Fatalf("AddCredit() error = %v", err)
	}

	if err := ledger.DeleteCredit(ctx, "alice", id); err != nil {
		t.Fatalf("DeleteCredit() error = %v", err)
	}

	achievements, _ := st.ListAchievements(ctx, "alice")
	found := false
	for _, a := range achievements {
		if a.Code == core.AchievementDebtFree {
			found = true
		}
	}
	if !found {
		t.Errorf("achievement %s not unlocked", core.AchievementDebtFree)
	}
}

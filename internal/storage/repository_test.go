package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"moneygrowth/internal/core"
	"moneygrowth/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSharedTransactionsVisibleToGroup(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.AddGroup(ctx, core.Group{Name: "family", Members: []string{"u1", "u2"}}); err != nil {
		t.Fatalf("add group: %v", err)
	}

	_, err := repo.AddTransaction(ctx, "u1", core.Transaction{
		Type:        core.Expense,
		Description: "rent",
		Amount:      core.Money{Cents: 90000},
		Category:    "Housing",
		Date:        core.NewDate(2025, 4, 1),
		Shared:      true,
	})
	if err != nil {
		t.Fatalf("add shared: %v", err)
	}
	_, err = repo.AddTransaction(ctx, "u1", core.Transaction{
		Type:        core.Expense,
		Description: "haircut",
		Amount:      core.Money{Cents: 2500},
		Category:    "Personal",
		Date:        core.NewDate(2025, 4, 2),
	})
	if err != nil {
		t.Fatalf("add private: %v", err)
	}

	list, err := repo.ListTransactions(ctx, "u2", 0, 0)
	if err != nil {
		t.Fatalf("list as peer: %v", err)
	}
	if len(list) != 1 || list[0].Description != "rent" {
		t.Fatalf("peer sees %d entries (%v), want only the shared rent", len(list), list)
	}

	list, _ = repo.ListTransactions(ctx, "u2", 2025, 5)
	if len(list) != 0 {
		t.Fatalf("month filter leaked %d shared entries", len(list))
	}

	list, _ = repo.ListTransactions(ctx, "u3", 0, 0)
	if len(list) != 0 {
		t.Fatalf("non-member sees %d entries, want 0", len(list))
	}

	list, _ = repo.ListTransactions(ctx, "u1", 0, 0)
	if len(list) != 2 {
		t.Fatalf("owner sees %d entries, want 2", len(list))
	}
}

func TestDuplicateBudgetReturnsErrDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	budget := core.Budget{Category: "Food", Limit: core.Money{Cents: 50000}}
	if _, err := repo.AddBudget(ctx, "u1", budget); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := repo.AddBudget(ctx, "u1", budget)
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("second add err = %v, want store.ErrDuplicate", err)
	}

	// Another user is free to budget the same category.
	if _, err := repo.AddBudget(ctx, "u2", budget); err != nil {
		t.Fatalf("other user add: %v", err)
	}
}

func TestDuplicateUserReturnsErrDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.AddUser(ctx, core.User{ID: "u1", Name: "Alice"}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := repo.AddUser(ctx, core.User{ID: "u1", Name: "Alice again"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("second add err = %v, want store.ErrDuplicate", err)
	}
}

func TestDuplicateCategoryReturnsErrDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c := core.Category{Name: "Pets", Kind: core.Expense}
	if err := repo.AddCategory(ctx, "u1", c); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := repo.AddCategory(ctx, "u1", c); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("second add err = %v, want store.ErrDuplicate", err)
	}
}

func TestImportStateReplacesEverything(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.AddTransaction(ctx, "old", core.Transaction{
		Type:        core.Expense,
		Description: "stale",
		Amount:      core.Money{Cents: 100},
		Category:    "Other",
		Date:        core.NewDate(2025, 1, 1),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	donor := store.New()
	if _, err := donor.AddTransaction(ctx, "u1", core.Transaction{
		Type:        core.Income,
		Description: "salary",
		Amount:      core.Money{Cents: 250000},
		Category:    "Other",
		Date:        core.NewDate(2025, 2, 1),
	}); err != nil {
		t.Fatalf("donor seed: %v", err)
	}
	blob, err := donor.ExportState(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if err := repo.ImportState(ctx, blob); err != nil {
		t.Fatalf("import: %v", err)
	}

	list, err := repo.ListTransactions(ctx, "u1", 0, 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("imported list: %v, %d items", err, len(list))
	}
	old, _ := repo.ListTransactions(ctx, "old", 0, 0)
	if len(old) != 0 {
		t.Fatalf("pre-import data survived: %d items", len(old))
	}
}

func TestFailedImportLeavesStateUntouched(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.AddTransaction(ctx, "u1", core.Transaction{
		Type:        core.Expense,
		Description: "groceries",
		Amount:      core.Money{Cents: 4500},
		Category:    "Food",
		Date:        core.NewDate(2025, 3, 5),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Valid JSON, but the zero-amount transaction fails validation.
	blob := []byte(`{
		"users": [{"id": "u2", "name": "u2"}],
		"groups": [],
		"data": {
			"u2": {
				"transactions": [
					{"id": "t1", "type": "expense", "description": "broken",
					 "amount": {"cents": 0}, "category": "Other", "date": "2025-03-01T00:00:00Z"}
				]
			}
		}
	}`)
	if err := repo.ImportState(ctx, blob); err == nil {
		t.Fatal("import of invalid record should fail")
	}

	list, err := repo.ListTransactions(ctx, "u1", 0, 0)
	if err != nil {
		t.Fatalf("list after failed import: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("after failed import u1 has %d transactions, want 1", len(list))
	}
	users, err := repo.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("users after failed import: %v, %d entries", err, len(users))
	}
}

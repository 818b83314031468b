package core

import (
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 1, 1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{Time: time.Time{}}).Validate(); err == nil {
		t.Fatal("expected error for zero date")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Type:        Expense,
		Description: "groceries",
		Amount:      Money{Cents: 1500},
		Category:    "Groceries",
		Date:        NewDate(2025, 3, 10),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	// A saving needs no category.
	saving := good
	saving.Type = Saving
	saving.Category = ""
	if err := saving.Validate(); err != nil {
		t.Fatalf("saving without category should be valid, got %v", err)
	}

	bads := []Transaction{
		{Type: "transfer", Description: "a", Amount: Money{Cents: 1}, Category: "c", Date: NewDate(2025, 1, 1)},
		{Type: Expense, Description: "", Amount: Money{Cents: 1}, Category: "c", Date: NewDate(2025, 1, 1)},
		{Type: Expense, Description: "a", Amount: Money{Cents: 0}, Category: "c", Date: NewDate(2025, 1, 1)},
		{Type: Expense, Description: "a", Amount: Money{Cents: 1}, Category: "", Date: NewDate(2025, 1, 1)},
		{Type: Expense, Description: "a", Amount: Money{Cents: 1}, Category: "c"},
	}
	for i, tr := range bads {
		if err := tr.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCreditValidate(t *testing.T) {
	good := Credit{
		Name:         "car loan",
		Principal:    Money{Cents: 1_000_000},
		AnnualRateBp: 550,
		Payment:      Money{Cents: 25_000},
		StartDate:    NewDate(2024, 6, 1),
		TermMonths:   48,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := good
	bad.TermMonths = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for zero term")
	}
	bad = good
	bad.AnnualRateBp = -1
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for negative rate")
	}
}

func TestReceiptValidate(t *testing.T) {
	good := Receipt{
		Name:     "electricity",
		Amount:   Money{Cents: 8000},
		Category: "Housing",
		DueDay:   15,
		Every:    RepeatMonthly,
		Active:   true,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := good
	bad.DueDay = 32
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for due day out of range")
	}
	bad = good
	bad.Every = "fortnightly"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for unknown interval")
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Food", Kind: Expense}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Name: "", Kind: Expense}).Validate(); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := (Category{Name: "Food", Kind: Saving}).Validate(); err == nil {
		t.Fatal("expected error for saving category kind")
	}
}

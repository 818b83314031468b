package ai

import (
	"strings"
	"testing"

	"moneygrowth/internal/core"
)

func TestDecodeDraft(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    TransactionDraft
		wantErr bool
	}{
		{
			name: "plain json",
			raw:  `{"type":"expense","description":"Lidl","amountCents":1250,"category":"Groceries","date":"2026-03-10"}`,
			want: TransactionDraft{Type: "expense", Description: "Lidl", AmountCents: 1250, Category: "Groceries", Date: "2026-03-10"},
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"type\":\"expense\",\"description\":\"Lidl\",\"amountCents\":1250,\"category\":\"Groceries\",\"date\":\"\"}\n```",
			want: TransactionDraft{Type: "expense", Description: "Lidl", AmountCents: 1250, Category: "Groceries"},
		},
		{name: "empty", raw: "", wantErr: true},
		{name: "not json", raw: "sorry, I can't read this", wantErr: true},
		{name: "zero amount", raw: `{"type":"expense","description":"x","amountCents":0}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDraft(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeDraft() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("DecodeDraft() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeToxicityNarrative(t *testing.T) {
	got, err := DecodeToxicityNarrative(`{"summary":"High rate for the balance.","recommendation":"Refinance."}`)
	if err != nil {
		t.Fatalf("DecodeToxicityNarrative() error = %v", err)
	}
	if got.Summary == "" || got.Recommendation == "" {
		t.Errorf("narrative = %+v, want both fields set", got)
	}

	if _, err := DecodeToxicityNarrative(`{"recommendation":"x"}`); err == nil {
		t.Error("expected error when summary missing")
	}
}

func TestDraftFromArgs(t *testing.T) {
	draft, err := DraftFromArgs(map[string]any{
		"type":        "expense",
		"description": "Coffee",
		"amount":      3.50,
		"category":    "Groceries",
		"date":        "2026-03-10",
	})
	if err != nil {
		t.Fatalf("DraftFromArgs() error = %v", err)
	}
	if draft.AmountCents != 350 {
		t.Errorf("AmountCents = %d, want 350", draft.AmountCents)
	}

	if _, err := DraftFromArgs(map[string]any{"type": "expense", "description": "x"}); err == nil {
		t.Error("expected error when amount missing")
	}
	if _, err := DraftFromArgs(map[string]any{"description": "x", "amount": 1.0}); err == nil {
		t.Error("expected error when type missing")
	}
}

func TestDraftToTransaction(t *testing.T) {
	draft := TransactionDraft{
		Type:        "expense",
		Description: "Lidl",
		AmountCents: 1250,
		Category:    "Groceries",
		Date:        "2026-03-10",
	}
	tx, err := draft.ToTransaction()
	if err != nil {
		t.Fatalf("ToTransaction() error = %v", err)
	}
	if tx.Date.Year() != 2026 || tx.Date.Month() != 3 || tx.Date.Day() != 10 {
		t.Errorf("date = %v, want 2026-03-10", tx.Date)
	}

	draft.Date = ""
	tx, err = draft.ToTransaction()
	if err != nil {
		t.Fatalf("ToTransaction() without date error = %v", err)
	}
	if tx.Date.IsZero() {
		t.Error("empty draft date should default to today")
	}

	draft.Type = "loan"
	if _, err := draft.ToTransaction(); err == nil {
		t.Error("expected error for invalid type")
	}
}

func TestBuildScanPromptListsCategories(t *testing.T) {
	prompt := BuildScanPrompt([]core.Category{
		{Name: "Groceries", Kind: core.Expense},
		{Name: "Housing", Kind: core.Expense},
	})
	if !strings.Contains(prompt, "Groceries") || !strings.Contains(prompt, "Housing") {
		t.Error("prompt should list the user's categories")
	}
	if !strings.Contains(prompt, "minified JSON") {
		t.Error("prompt should demand minified JSON output")
	}
}

package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"moneygrowth/internal/core"
)

// TransactionDraft is a model-suggested transaction awaiting user
// confirmation. Amounts are kept in cents like everywhere else.
type TransactionDraft struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	AmountCents int64  `json:"amountCents"`
	Category    string `json:"category"`
	Date        string `json:"date"` // YYYY-MM-DD, may be empty
}

// ToTransaction converts the draft into a validated record.
func (d TransactionDraft) ToTransaction() (core.Transaction, error) {
	t := core.Transaction{
		Type:        core.TransactionType(d.Type),
		Description: d.Description,
		Amount:      core.Money{Cents: d.AmountCents},
		Category:    d.Category,
		Date:        core.Today(),
	}
	if d.Date != "" {
		parsed, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("draft date: %w", err)
		}
		t.Date = core.Date{Time: parsed}
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// ToxicityNarrative is the model's explanation of a credit's score.
type ToxicityNarrative struct {
	Summary        string `json:"summary"`
	Recommendation string `json:"recommendation"`
}

func categoryNames(categories []core.Category) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names
}

// BuildAssistantPrompt assembles the assistant turn prompt.
func BuildAssistantPrompt(message string, categories []core.Category, history []string) string {
	var b strings.Builder
	b.WriteString("You are the MoneyGrowth finance assistant. ")
	b.WriteString("Answer briefly and concretely about the user's finances. ")
	b.WriteString("When the user describes money they spent, earned or saved, ")
	b.WriteString("call the addTransaction function instead of replying in text.\n\n")
	fmt.Fprintf(&b, "Available categories: %v. Never invent new categories.\n", categoryNames(categories))
	fmt.Fprintf(&b, "Today is %s.\n", time.Now().UTC().Format("2006-01-02"))
	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, line := range history {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nUser: ")
	b.WriteString(message)
	return b.String()
}

// BuildScanPrompt asks for a single transaction draft from a receipt
// image.
func BuildScanPrompt(categories []core.Category) string {
	return fmt.Sprintf(
		`Return only minified JSON in one line. No comments. No markdown.

You are reading a photo of a purchase receipt.

RULES:
- category MUST be exactly one of: %v. Never invent new categories.
- amountCents is the receipt total in cents (integer). Example: 12.50 becomes 1250.
- description is the store name or a short purchase summary.
- date MUST be ISO-8601 (YYYY-MM-DD); empty string if not readable.
- type is always "expense".

OUTPUT JSON SCHEMA:
{"type":"expense","description":string,"amountCents":number,"category":string,"date":string}`,
		categoryNames(categories))
}

// BuildToxicityPrompt asks for a narrative over a locally computed
// score and schedule.
func BuildToxicityPrompt(credit core.Credit, schedule core.Schedule, score int) string {
	payoff := "never within the term"
	if schedule.PaidOff {
		payoff = fmt.Sprintf("month %d", schedule.PayoffMonth)
	}
	return fmt.Sprintf(
		`Return only minified JSON in one line. No comments. No markdown.

Assess how unfavorable this loan is for the borrower. The toxicity
score is already computed (0 = harmless, 100 = toxic); explain it and
give one actionable recommendation.

LOAN:
- name: %s
- principal: %s
- annual rate: %.2f%%
- monthly payment: %s
- term: %d months
- projected total interest: %s
- projected payoff: %s
- toxicity score: %d/100

OUTPUT JSON SCHEMA:
{"summary":string,"recommendation":string}`,
		credit.Name,
		core.FormatCents(credit.Principal.Cents),
		float64(credit.AnnualRateBp)/100.0,
		core.FormatCents(credit.Payment.Cents),
		credit.TermMonths,
		core.FormatCents(schedule.TotalInterest.Cents),
		payoff,
		score)
}

// BuildInsightPrompt asks for a short narrative over monthly totals.
func BuildInsightPrompt(ov core.MonthOverview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write 2-3 plain sentences about this month (%04d-%02d) for a personal finance app. ",
		ov.Year, ov.Month)
	b.WriteString("Mention the biggest spending category and whether the balance is positive. No markdown.\n\n")
	fmt.Fprintf(&b, "Income: %s\nExpenses: %s\nSavings: %s\nBalance: %s\n",
		core.FormatCents(ov.Income.Cents),
		core.FormatCents(ov.Expenses.Cents),
		core.FormatCents(ov.Savings.Cents),
		core.FormatCents(ov.Balance.Cents))
	for _, c := range ov.ByCategory {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, core.FormatCents(c.Amount.Cents))
	}
	return b.String()
}

// DecodeDraft parses the model's JSON into a draft. Code fences are
// stripped first: models add them despite instructions.
func DecodeDraft(raw string) (TransactionDraft, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return TransactionDraft{}, errors.New("empty model response")
	}
	var draft TransactionDraft
	if err := json.Unmarshal([]byte(cleaned), &draft); err != nil {
		return TransactionDraft{}, fmt.Errorf("decode draft %q: %w", raw, err)
	}
	if draft.AmountCents <= 0 {
		return TransactionDraft{}, errors.New("draft amount missing or non-positive")
	}
	return draft, nil
}

// DecodeToxicityNarrative parses the model's JSON narrative.
func DecodeToxicityNarrative(raw string) (ToxicityNarrative, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return ToxicityNarrative{}, errors.New("empty model response")
	}
	var n ToxicityNarrative
	if err := json.Unmarshal([]byte(cleaned), &n); err != nil {
		return ToxicityNarrative{}, fmt.Errorf("decode narrative %q: %w", raw, err)
	}
	if n.Summary == "" {
		return ToxicityNarrative{}, errors.New("narrative summary missing")
	}
	return n, nil
}

// DraftFromArgs converts addTransaction function-call arguments. The
// model sends amounts as decimal currency, not cents.
func DraftFromArgs(args map[string]any) (TransactionDraft, error) {
	draft := TransactionDraft{}

	typ, _ := args["type"].(string)
	if typ == "" {
		return TransactionDraft{}, errors.New("missing type")
	}
	draft.Type = typ

	draft.Description, _ = args["description"].(string)
	if draft.Description == "" {
		return TransactionDraft{}, errors.New("missing description")
	}

	amount, ok := args["amount"].(float64)
	if !ok || amount <= 0 {
		return TransactionDraft{}, errors.New("missing or non-positive amount")
	}
	draft.AmountCents = int64(amount*100 + 0.5)

	draft.Category, _ = args["category"].(string)
	draft.Date, _ = args["date"].(string)
	return draft, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

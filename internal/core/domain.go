package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
	Saving  TransactionType = "saving"
)

const (
	RepeatNone    RepeatInterval = "none"
	RepeatDaily   RepeatInterval = "daily"
	RepeatWeekly  RepeatInterval = "weekly"
	RepeatMonthly RepeatInterval = "monthly"
	RepeatYearly  RepeatInterval = "yearly"
)

// OtherCategory receives transactions orphaned by a category delete.
const OtherCategory = "Other"

type (
	TransactionType string
	RepeatInterval  string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64 `json:"cents"`
	}

	// Transaction is a single income/expense/saving ledger entry.
	// Related records are referenced by ID only; dangling references
	// are tolerated and cleaned up by the mutating operation.
	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Category    string          `json:"category"`
		Date        Date            `json:"date"`
		CreditID    string          `json:"creditId,omitempty"`
		BudgetID    string          `json:"budgetId,omitempty"`
		GoalID      string          `json:"goalId,omitempty"`
		ReceiptID   string          `json:"receiptId,omitempty"`
		Shared      bool            `json:"shared,omitempty"`
	}

	// Credit is a loan/financing record. Rate is nominal annual
	// interest in basis points (1% = 100 bp) to keep the record
	// integer-only.
	Credit struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Principal    Money  `json:"principal"`
		AnnualRateBp int64  `json:"annualRateBp"`
		Payment      Money  `json:"payment"`
		StartDate    Date   `json:"startDate"`
		TermMonths   int    `json:"termMonths"`
	}

	// Receipt is a recurring or one-off billable record. Recurring
	// receipts generate transactions when due.
	Receipt struct {
		ID            string         `json:"id"`
		Name          string         `json:"name"`
		Amount        Money          `json:"amount"`
		Category      string         `json:"category"`
		DueDay        int            `json:"dueDay"`
		Every         RepeatInterval `json:"every"`
		Active        bool           `json:"active"`
		LastGenerated Date           `json:"lastGenerated"`
	}

	InsurancePolicy struct {
		ID          string         `json:"id"`
		Name        string         `json:"name"`
		Provider    string         `json:"provider"`
		Premium     Money          `json:"premium"`
		Billing     RepeatInterval `json:"billing"`
		RenewalDate Date           `json:"renewalDate"`
		Coverage    Money          `json:"coverage"`
	}

	// Goal tracks a savings target with its contribution history.
	Goal struct {
		ID            string         `json:"id"`
		Name          string         `json:"name"`
		Target        Money          `json:"target"`
		Contributed   Money          `json:"contributed"`
		Deadline      Date           `json:"deadline"`
		Contributions []Contribution `json:"contributions,omitempty"`
	}

	Contribution struct {
		Amount Money `json:"amount"`
		Date   Date  `json:"date"`
	}

	// Budget is a monthly spending cap for one category. Spent is
	// derived from transactions at read time, never stored.
	Budget struct {
		ID       string `json:"id"`
		Category string `json:"category"`
		Limit    Money  `json:"limit"`
	}

	Category struct {
		Name string          `json:"name"`
		Kind TransactionType `json:"kind"`
	}

	User struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		GroupID string `json:"groupId,omitempty"`
	}

	Group struct {
		ID      string   `json:"id"`
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}

	Alert struct {
		ID      string `json:"id"`
		Level   string `json:"level"` // info, warning, critical
		Message string `json:"message"`
		Created Date   `json:"created"`
		Read    bool   `json:"read"`
	}

	Achievement struct {
		ID       string `json:"id"`
		Code     string `json:"code"`
		Name     string `json:"name"`
		Unlocked Date   `json:"unlocked"`
	}

	SavedInsight struct {
		ID      string `json:"id"`
		Kind    string `json:"kind"` // assistant, toxicity, monthly
		Text    string `json:"text"`
		Created Date   `json:"created"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidRate      = errors.New("invalid interest rate")
	ErrInvalidTerm      = errors.New("invalid term")
	ErrInvalidInterval  = errors.New("invalid repeat interval")
	ErrInvalidDueDay    = errors.New("invalid due day")
)

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date truncated to midnight UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month as an int (1-12).
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (i RepeatInterval) Valid() bool {
	switch i {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	switch t.Type {
	case Income, Expense, Saving:
	default:
		return ErrInvalidType
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	// Savings carry no category; everything else must have one.
	if t.Type != Saving && strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (c Credit) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if err := c.Principal.Validate(); err != nil {
		return err
	}
	if c.AnnualRateBp < 0 {
		return ErrInvalidRate
	}
	if err := c.Payment.Validate(); err != nil {
		return err
	}
	if err := c.StartDate.Validate(); err != nil {
		return err
	}
	if c.TermMonths <= 0 || c.TermMonths > 1200 {
		return ErrInvalidTerm
	}
	return nil
}

func (r Receipt) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if r.DueDay < 1 || r.DueDay > 31 {
		return ErrInvalidDueDay
	}
	if !r.Every.Valid() {
		return ErrInvalidInterval
	}
	return nil
}

func (p InsurancePolicy) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if err := p.Premium.Validate(); err != nil {
		return err
	}
	if !p.Billing.Valid() || p.Billing == RepeatNone {
		return ErrInvalidInterval
	}
	if err := p.RenewalDate.Validate(); err != nil {
		return err
	}
	if p.Coverage.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Contributed.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	return b.Limit.Validate()
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	switch c.Kind {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (g Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

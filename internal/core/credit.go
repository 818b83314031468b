package core

import (
	"sort"
	"time"
)

// Payoff ordering heuristics for a set of credits.
const (
	PayoffSmallestBalance PayoffStrategy = "smallest_balance"
	PayoffHighestRate     PayoffStrategy = "highest_rate"
	PayoffBalanceRatio    PayoffStrategy = "balance_ratio"
)

type PayoffStrategy string

func (s PayoffStrategy) Valid() bool {
	switch s {
	case PayoffSmallestBalance, PayoffHighestRate, PayoffBalanceRatio:
		return true
	}
	return false
}

// ScheduleEntry is one month of an amortization walk.
type ScheduleEntry struct {
	Month     int   `json:"month"` // 1-based month since start
	Interest  Money `json:"interest"`
	Principal Money `json:"principal"`
	Balance   Money `json:"balance"` // remaining after this payment
}

// Schedule is the full amortization projection for a credit.
type Schedule struct {
	Entries       []ScheduleEntry `json:"entries"`
	TotalInterest Money           `json:"totalInterest"`
	PaidOff       bool            `json:"paidOff"`     // balance reached zero within the term
	PayoffMonth   int             `json:"payoffMonth"` // month the balance hit zero, 0 if never
	Amortizing    bool            `json:"amortizing"`  // payment covers first-month interest
}

// Amortize walks the credit month by month: interest accrues on the
// running balance at the monthly rate (annual/12), the remainder of
// the payment reduces principal, and the balance floors at zero. The
// walk is bounded by the credit term.
func Amortize(c Credit) Schedule {
	monthlyRate := float64(c.AnnualRateBp) / 10000.0 / 12.0
	balance := c.Principal.Cents

	s := Schedule{Amortizing: true}
	for month := 1; month <= c.TermMonths && balance > 0; month++ {
		interest := int64(float64(balance) * monthlyRate)
		principal := c.Payment.Cents - interest
		if month == 1 && principal <= 0 {
			// Payment does not cover interest; the balance grows and
			// the walk is bounded only by the term.
			s.Amortizing = false
		}
		if principal > balance {
			principal = balance
		}
		balance -= principal
		if balance < 0 {
			balance = 0
		}
		s.TotalInterest.Cents += interest
		s.Entries = append(s.Entries, ScheduleEntry{
			Month:     month,
			Interest:  Money{Cents: interest},
			Principal: Money{Cents: principal},
			Balance:   Money{Cents: balance},
		})
		if balance == 0 {
			s.PaidOff = true
			s.PayoffMonth = month
			break
		}
	}
	return s
}

// RemainingBalance returns the projected balance after the given
// number of elapsed months. Negative or zero elapsed returns the
// principal untouched.
func RemainingBalance(c Credit, elapsedMonths int) Money {
	if elapsedMonths <= 0 {
		return c.Principal
	}
	s := Amortize(c)
	if len(s.Entries) == 0 {
		return c.Principal
	}
	if elapsedMonths > len(s.Entries) {
		elapsedMonths = len(s.Entries)
	}
	return s.Entries[elapsedMonths-1].Balance
}

// ElapsedMonths counts whole months between the credit start date and
// now, clamped to [0, term].
func ElapsedMonths(c Credit, now time.Time) int {
	if now.Before(c.StartDate.Time) {
		return 0
	}
	months := (now.Year()-c.StartDate.Year())*12 + int(now.Month()) - int(c.StartDate.Time.Month())
	if now.Day() < c.StartDate.Day() {
		months--
	}
	if months < 0 {
		months = 0
	}
	if months > c.TermMonths {
		months = c.TermMonths
	}
	return months
}

// PayoffDate projects the calendar month the balance reaches zero.
// The zero Date is returned for non-amortizing credits.
func PayoffDate(c Credit) Date {
	s := Amortize(c)
	if !s.PaidOff {
		return Date{}
	}
	d := c.StartDate.AddDate(0, s.PayoffMonth, 0)
	return Date{Time: d}
}

// ToxicityScore rates how unfavorable a loan is on a 0-100 scale from
// three pressure signals: total interest relative to principal, the
// nominal rate level, and how thin the payment is against the
// interest it must outrun. The AI report narrates this number; the
// score itself never needs the network.
func ToxicityScore(c Credit) int {
	s := Amortize(c)

	score := 0.0

	// Interest burden: total interest at 50% of principal maxes this
	// component out.
	if c.Principal.Cents > 0 {
		burden := float64(s.TotalInterest.Cents) / float64(c.Principal.Cents)
		score += 40 * clamp01(burden/0.5)
	}

	// Rate level: 25% APR and above is maximally penalized.
	score += 30 * clamp01(float64(c.AnnualRateBp)/2500.0)

	// Payment pressure: share of the payment eaten by first-month
	// interest. A non-amortizing loan pins this at 1.
	firstInterest := float64(c.Principal.Cents) * float64(c.AnnualRateBp) / 10000.0 / 12.0
	if c.Payment.Cents > 0 {
		score += 30 * clamp01(firstInterest/float64(c.Payment.Cents))
	}
	if !s.Amortizing {
		score = 100
	}

	if score > 100 {
		score = 100
	}
	return int(score + 0.5)
}

// PayoffOrder returns the credits ordered by the given heuristic. The
// input slice is not modified. Current balances are projected from
// each credit's start date.
func PayoffOrder(credits []Credit, strategy PayoffStrategy, now time.Time) []Credit {
	out := make([]Credit, len(credits))
	copy(out, credits)

	balance := func(c Credit) int64 {
		return RemainingBalance(c, ElapsedMonths(c, now)).Cents
	}

	switch strategy {
	case PayoffHighestRate:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].AnnualRateBp > out[j].AnnualRateBp
		})
	case PayoffBalanceRatio:
		sort.SliceStable(out, func(i, j int) bool {
			return ratio(balance(out[i]), out[i].Payment.Cents) > ratio(balance(out[j]), out[j].Payment.Cents)
		})
	default: // PayoffSmallestBalance
		sort.SliceStable(out, func(i, j int) bool {
			return balance(out[i]) < balance(out[j])
		})
	}
	return out
}

func ratio(balance, payment int64) float64 {
	if payment <= 0 {
		return 0
	}
	return float64(balance) / float64(payment)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

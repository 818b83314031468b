package core

import "sort"

// CategoryAmount is an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"` // 1-12
	Income     Money            `json:"income"`
	Expenses   Money            `json:"expenses"`
	Savings    Money            `json:"savings"`
	Balance    Money            `json:"balance"` // income - expenses - savings
	ByCategory []CategoryAmount `json:"byCategory"`
	Delta      *PeriodDelta     `json:"delta,omitempty"` // vs the previous month
}

// YearOverview aggregates a full year month by month.
type YearOverview struct {
	Year       int              `json:"year"`
	Income     Money            `json:"income"`
	Expenses   Money            `json:"expenses"`
	Savings    Money            `json:"savings"`
	Months     []MonthOverview  `json:"months"` // twelve entries, Jan..Dec
	ByCategory []CategoryAmount `json:"byCategory"`
	Delta      *PeriodDelta     `json:"delta,omitempty"` // vs the previous year
}

// PeriodDelta is the change in totals versus the preceding period.
type PeriodDelta struct {
	Income   Money `json:"income"`
	Expenses Money `json:"expenses"`
	Savings  Money `json:"savings"`
	Balance  Money `json:"balance"`
}

// DeltaFrom compares this month's totals against an earlier one.
func (ov MonthOverview) DeltaFrom(prev MonthOverview) PeriodDelta {
	return PeriodDelta{
		Income:   Money{Cents: ov.Income.Cents - prev.Income.Cents},
		Expenses: Money{Cents: ov.Expenses.Cents - prev.Expenses.Cents},
		Savings:  Money{Cents: ov.Savings.Cents - prev.Savings.Cents},
		Balance:  Money{Cents: ov.Balance.Cents - prev.Balance.Cents},
	}
}

// DeltaFrom compares this year's totals against an earlier one.
func (ov YearOverview) DeltaFrom(prev YearOverview) PeriodDelta {
	balance := ov.Income.Cents - ov.Expenses.Cents - ov.Savings.Cents
	prevBalance := prev.Income.Cents - prev.Expenses.Cents - prev.Savings.Cents
	return PeriodDelta{
		Income:   Money{Cents: ov.Income.Cents - prev.Income.Cents},
		Expenses: Money{Cents: ov.Expenses.Cents - prev.Expenses.Cents},
		Savings:  Money{Cents: ov.Savings.Cents - prev.Savings.Cents},
		Balance:  Money{Cents: balance - prevBalance},
	}
}

// BudgetStatus is a budget with its derived utilization for a month.
type BudgetStatus struct {
	Budget  Budget `json:"budget"`
	Spent   Money  `json:"spent"`
	Percent int    `json:"percent"` // spent/limit, rounded, uncapped
	Over    bool   `json:"over"`
}

// SummarizeMonth buckets transactions into a month overview. Entries
// outside the given year/month are skipped, so callers can pass an
// unfiltered ledger.
func SummarizeMonth(transactions []Transaction, year, month int) MonthOverview {
	ov := MonthOverview{Year: year, Month: month}
	byCat := map[string]int64{}
	for _, t := range transactions {
		if t.Date.Year() != year || t.Date.Month() != month {
			continue
		}
		switch t.Type {
		case Income:
			ov.Income.Cents += t.Amount.Cents
		case Saving:
			ov.Savings.Cents += t.Amount.Cents
		default:
			ov.Expenses.Cents += t.Amount.Cents
			byCat[t.Category] += t.Amount.Cents
		}
	}
	ov.Balance.Cents = ov.Income.Cents - ov.Expenses.Cents - ov.Savings.Cents
	ov.ByCategory = sortedCategoryAmounts(byCat)
	return ov
}

// SummarizeYear buckets transactions into twelve month overviews plus
// year totals.
func SummarizeYear(transactions []Transaction, year int) YearOverview {
	ov := YearOverview{Year: year}
	byCat := map[string]int64{}
	for month := 1; month <= 12; month++ {
		m := SummarizeMonth(transactions, year, month)
		ov.Months = append(ov.Months, m)
		ov.Income.Cents += m.Income.Cents
		ov.Expenses.Cents += m.Expenses.Cents
		ov.Savings.Cents += m.Savings.Cents
		for _, ca := range m.ByCategory {
			byCat[ca.Name] += ca.Amount.Cents
		}
	}
	ov.ByCategory = sortedCategoryAmounts(byCat)
	return ov
}

// BudgetUtilization computes spent-vs-limit for each budget against
// the given month's expense transactions.
func BudgetUtilization(budgets []Budget, transactions []Transaction, year, month int) []BudgetStatus {
	spentByCat := map[string]int64{}
	for _, t := range transactions {
		if t.Type != Expense || t.Date.Year() != year || t.Date.Month() != month {
			continue
		}
		spentByCat[t.Category] += t.Amount.Cents
	}

	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent := spentByCat[b.Category]
		st := BudgetStatus{Budget: b, Spent: Money{Cents: spent}}
		if b.Limit.Cents > 0 {
			st.Percent = int((spent*100 + b.Limit.Cents/2) / b.Limit.Cents)
			st.Over = spent > b.Limit.Cents
		}
		out = append(out, st)
	}
	return out
}

func sortedCategoryAmounts(byCat map[string]int64) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(byCat))
	for name, cents := range byCat {
		out = append(out, CategoryAmount{Name: name, Amount: Money{Cents: cents}})
	}
	// Largest first; ties by name for stable output.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

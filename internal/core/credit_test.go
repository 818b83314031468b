package core

import (
	"testing"
	"time"
)

func testCredit() Credit {
	return Credit{
		ID:           "c1",
		Name:         "test loan",
		Principal:    Money{Cents: 1_200_000}, // 12,000.00
		AnnualRateBp: 600,                     // 6% APR
		Payment:      Money{Cents: 100_000},   // 1,000.00 per month
		StartDate:    NewDate(2025, 1, 1),
		TermMonths:   24,
	}
}

func TestAmortizeReachesZero(t *testing.T) {
	s := Amortize(testCredit())

	if !s.Amortizing {
		t.Fatal("credit should be amortizing")
	}
	if !s.PaidOff {
		t.Fatal("balance should reach zero within the term")
	}
	for _, e := range s.Entries {
		if e.Balance.Cents < 0 {
			t.Fatalf("month %d: negative balance %d", e.Month, e.Balance.Cents)
		}
		if e.Interest.Cents < 0 {
			t.Fatalf("month %d: negative interest %d", e.Month, e.Interest.Cents)
		}
	}
	last := s.Entries[len(s.Entries)-1]
	if last.Balance.Cents != 0 {
		t.Fatalf("final balance = %d, want 0", last.Balance.Cents)
	}
	if s.PayoffMonth != last.Month {
		t.Fatalf("payoff month %d != last entry month %d", s.PayoffMonth, last.Month)
	}
	if s.TotalInterest.Cents <= 0 {
		t.Fatal("expected positive total interest")
	}
}

func TestAmortizeZeroRate(t *testing.T) {
	c := testCredit()
	c.AnnualRateBp = 0
	s := Amortize(c)

	if s.TotalInterest.Cents != 0 {
		t.Fatalf("zero-rate loan accrued interest: %d", s.TotalInterest.Cents)
	}
	if !s.PaidOff || s.PayoffMonth != 12 {
		t.Fatalf("12000/1000 should pay off in month 12, got paidOff=%v month=%d", s.PaidOff, s.PayoffMonth)
	}
}

func TestAmortizeNonAmortizing(t *testing.T) {
	c := testCredit()
	c.AnnualRateBp = 5000         // 50% APR
	c.Payment = Money{Cents: 100} // 1.00, far below monthly interest
	s := Amortize(c)

	if s.Amortizing {
		t.Fatal("payment below first-month interest should be flagged non-amortizing")
	}
	if s.PaidOff {
		t.Fatal("non-amortizing loan should never pay off")
	}
	if len(s.Entries) != c.TermMonths {
		t.Fatalf("walk should stop at the term, got %d entries", len(s.Entries))
	}
	if ToxicityScore(c) != 100 {
		t.Fatalf("non-amortizing loan should score 100, got %d", ToxicityScore(c))
	}
}

func TestRemainingBalanceMonotonic(t *testing.T) {
	c := testCredit()
	prev := RemainingBalance(c, 0).Cents
	for m := 1; m <= c.TermMonths; m++ {
		cur := RemainingBalance(c, m).Cents
		if cur > prev {
			t.Fatalf("balance grew at month %d: %d -> %d", m, prev, cur)
		}
		prev = cur
	}
	if prev != 0 {
		t.Fatalf("balance should reach zero by the end, got %d", prev)
	}
}

func TestElapsedMonths(t *testing.T) {
	c := testCredit() // starts 2025-01-01
	cases := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC), 6},
		{time.Date(2035, 1, 1, 0, 0, 0, 0, time.UTC), 24}, // clamped to term
	}
	for i, tc := range cases {
		if got := ElapsedMonths(c, tc.now); got != tc.want {
			t.Fatalf("case %d: got %d, want %d", i, got, tc.want)
		}
	}
}

func TestToxicityScoreOrdering(t *testing.T) {
	mild := testCredit()

	harsh := testCredit()
	harsh.AnnualRateBp = 2400           // 24% APR
	harsh.Payment = Money{Cents: 30000} // thin payment

	if ToxicityScore(harsh) <= ToxicityScore(mild) {
		t.Fatalf("harsh loan (%d) should score above mild loan (%d)",
			ToxicityScore(harsh), ToxicityScore(mild))
	}
	if s := ToxicityScore(mild); s < 0 || s > 100 {
		t.Fatalf("score out of range: %d", s)
	}
}

func TestPayoffOrder(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	small := testCredit()
	small.ID = "small"
	small.Principal = Money{Cents: 100_000}

	pricey := testCredit()
	pricey.ID = "pricey"
	pricey.AnnualRateBp = 2000

	heavy := testCredit()
	heavy.ID = "heavy"
	heavy.Principal = Money{Cents: 5_000_000}
	heavy.Payment = Money{Cents: 50_000}

	credits := []Credit{heavy, pricey, small}

	byBalance := PayoffOrder(credits, PayoffSmallestBalance, now)
	if byBalance[0].ID != "small" {
		t.Fatalf("smallest balance first: got %s", byBalance[0].ID)
	}

	byRate := PayoffOrder(credits, PayoffHighestRate, now)
	if byRate[0].ID != "pricey" {
		t.Fatalf("highest rate first: got %s", byRate[0].ID)
	}

	byRatio := PayoffOrder(credits, PayoffBalanceRatio, now)
	if byRatio[0].ID != "heavy" {
		t.Fatalf("highest balance/payment ratio first: got %s", byRatio[0].ID)
	}

	// Input order untouched.
	if credits[0].ID != "heavy" || credits[2].ID != "small" {
		t.Fatal("PayoffOrder mutated its input")
	}
}

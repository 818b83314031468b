package services

import (
	"testing"
	"time"

	"moneygrowth/internal/core"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestDailyChecker(t *testing.T) {
	tests := []struct {
		name          string
		lastGenerated time.Time
		now           time.Time
		want          bool
	}{
		{"never generated", time.Time{}, date(2026, 3, 10), true},
		{"generated yesterday", date(2026, 3, 9), date(2026, 3, 10), true},
		{"generated today", date(2026, 3, 10), date(2026, 3, 10), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (DailyChecker{}).IsDue(tt.lastGenerated, tt.now, 1); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyChecker(t *testing.T) {
	tests := []struct {
		name          string
		lastGenerated time.Time
		now           time.Time
		want          bool
	}{
		{"never generated", time.Time{}, date(2026, 3, 10), true},
		{"six days ago", date(2026, 3, 4), date(2026, 3, 10), false},
		{"seven days ago", date(2026, 3, 3), date(2026, 3, 10), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (WeeklyChecker{}).IsDue(tt.lastGenerated, tt.now, 1); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker(t *testing.T) {
	tests := []struct {
		name          string
		lastGenerated time.Time
		now           time.Time
		dueDay        int
		want          bool
	}{
		{"never generated before due day", time.Time{}, date(2026, 3, 10), 15, false},
		{"never generated on due day", time.Time{}, date(2026, 3, 15), 15, true},
		{"already this month", date(2026, 3, 1), date(2026, 3, 20), 15, false},
		{"new month before due day", date(2026, 2, 15), date(2026, 3, 10), 15, false},
		{"new month on due day", date(2026, 2, 15), date(2026, 3, 15), 15, true},
		{"due day 31 in february", date(2026, 1, 31), date(2026, 2, 28), 31, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (MonthlyChecker{}).IsDue(tt.lastGenerated, tt.now, tt.dueDay); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearlyChecker(t *testing.T) {
	tests := []struct {
		name          string
		lastGenerated time.Time
		now           time.Time
		dueDay        int
		want          bool
	}{
		{"already this year", date(2026, 1, 5), date(2026, 12, 1), 5, false},
		{"new year before anchor month", date(2025, 6, 5), date(2026, 3, 10), 5, false},
		{"new year on anchor day", date(2025, 6, 5), date(2026, 6, 5), 5, true},
		{"new year past anchor month", date(2025, 6, 5), date(2026, 7, 1), 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (YearlyChecker{}).IsDue(tt.lastGenerated, tt.now, tt.dueDay); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	for _, every := range []core.RepeatInterval{
		core.RepeatDaily, core.RepeatWeekly, core.RepeatMonthly, core.RepeatYearly,
	} {
		if _, err := GetDuenessChecker(every); err != nil {
			t.Errorf("GetDuenessChecker(%s) error = %v", every, err)
		}
	}
	if _, err := GetDuenessChecker(core.RepeatNone); err == nil {
		t.Error("GetDuenessChecker(none) should fail")
	}
}

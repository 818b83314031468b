package services

import (
	"fmt"
	"time"

	"moneygrowth/internal/core"
)

// DuenessChecker is the strategy interface for deciding whether a
// recurring receipt should generate its next expense. Each
// implementation encapsulates the algorithm for one repeat interval.
type DuenessChecker interface {
	// IsDue returns true if the receipt should be processed based on
	// the last generation time, the current time and the due day.
	IsDue(lastGenerated, now time.Time, dueDay int) bool
}

// DailyChecker implements DuenessChecker for daily receipts.
type DailyChecker struct{}

// IsDue returns true if the last generation was before today.
func (DailyChecker) IsDue(lastGenerated, now time.Time, _ int) bool {
	if lastGenerated.IsZero() {
		return true
	}
	return lastGenerated.Format("2006-01-02") != now.Format("2006-01-02")
}

// WeeklyChecker implements DuenessChecker for weekly receipts.
type WeeklyChecker struct{}

// IsDue returns true if 7 or more days have passed since generation.
func (WeeklyChecker) IsDue(lastGenerated, now time.Time, _ int) bool {
	if lastGenerated.IsZero() {
		return true
	}
	daysSince := now.Sub(lastGenerated).Hours() / 24
	return daysSince >= 7
}

// MonthlyChecker implements DuenessChecker for monthly receipts.
type MonthlyChecker struct{}

// IsDue returns true in a new month once the due day is reached.
func (MonthlyChecker) IsDue(lastGenerated, now time.Time, dueDay int) bool {
	if lastGenerated.IsZero() {
		return now.Day() >= clampDay(dueDay, now)
	}

	// Already generated this month?
	if lastGenerated.Year() == now.Year() && lastGenerated.Month() == now.Month() {
		return false
	}

	return now.Day() >= clampDay(dueDay, now)
}

// YearlyChecker implements DuenessChecker for yearly receipts.
type YearlyChecker struct{}

// IsDue returns true in a new year once the due day of the anchor
// month is reached. The anchor month is the month of the last
// generation; a never-generated receipt anchors on the current month.
func (YearlyChecker) IsDue(lastGenerated, now time.Time, dueDay int) bool {
	if lastGenerated.IsZero() {
		return now.Day() >= clampDay(dueDay, now)
	}

	// Already generated this year?
	if lastGenerated.Year() == now.Year() {
		return false
	}

	targetMonth := int(lastGenerated.Month())
	if int(now.Month()) < targetMonth {
		return false
	}
	if int(now.Month()) == targetMonth {
		return now.Day() >= clampDay(dueDay, now)
	}
	return true
}

// clampDay pulls a due day that doesn't exist in the current month
// (e.g. 31 in February) back to the month's last day.
func clampDay(dueDay int, now time.Time) int {
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if dueDay > lastDayOfMonth {
		return lastDayOfMonth
	}
	return dueDay
}

// duenessStrategies maps repeat intervals to their checkers.
var duenessStrategies = map[core.RepeatInterval]DuenessChecker{
	core.RepeatDaily:   DailyChecker{},
	core.RepeatWeekly:  WeeklyChecker{},
	core.RepeatMonthly: MonthlyChecker{},
	core.RepeatYearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a repeat interval.
// One-off receipts (RepeatNone) have no checker and return an error.
func GetDuenessChecker(every core.RepeatInterval) (DuenessChecker, error) {
	checker, ok := duenessStrategies[every]
	if !ok {
		return nil, fmt.Errorf("unknown repeat interval: %s", every)
	}
	return checker, nil
}

package core

// DefaultCategories seeds a new user's data bag. OtherCategory must
// always be present: category deletion reassigns into it.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Housing", Kind: Expense},
		{Name: "Groceries", Kind: Expense},
		{Name: "Transport", Kind: Expense},
		{Name: "Health", Kind: Expense},
		{Name: "Entertainment", Kind: Expense},
		{Name: "Insurance", Kind: Expense},
		{Name: OtherCategory, Kind: Expense},
		{Name: "Salary", Kind: Income},
		{Name: "Investments", Kind: Income},
		{Name: OtherCategory, Kind: Income},
	}
}

// Achievement codes checked after mutations.
const (
	AchievementFirstTransaction = "first_transaction"
	AchievementFirstGoal        = "first_goal"
	AchievementGoalReached      = "goal_reached"
	AchievementDebtFree         = "debt_free"
	AchievementHundredEntries   = "hundred_entries"
)

// AchievementName maps codes to display names.
func AchievementName(code string) string {
	switch code {
	case AchievementFirstTransaction:
		return "First entry recorded"
	case AchievementFirstGoal:
		return "First goal created"
	case AchievementGoalReached:
		return "Goal reached"
	case AchievementDebtFree:
		return "Debt free"
	case AchievementHundredEntries:
		return "One hundred entries"
	}
	return code
}

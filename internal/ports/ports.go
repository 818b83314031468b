// Package ports declares the outbound interfaces the HTTP handlers
// and workers depend on. Backends (file store, SQLite) implement the
// full set; narrower consumers take only the slice they need.
package ports

import (
	"context"

	"moneygrowth/internal/core"
)

type (
	LedgerStore interface {
		AddTransaction(ctx context.Context, userID string, t core.Transaction) (string, error)
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
		// ListTransactions filters by year and month; month 0 means the
		// whole year, year 0 means everything. Shared entries owned by
		// other members of the user's group are included.
		ListTransactions(ctx context.Context, userID string, year, month int) ([]core.Transaction, error)
	}

	CreditStore interface {
		AddCredit(ctx context.Context, userID string, c core.Credit) (string, error)
		GetCredit(ctx context.Context, userID, id string) (core.Credit, error)
		DeleteCredit(ctx context.Context, userID, id string) error
		ListCredits(ctx context.Context, userID string) ([]core.Credit, error)
	}

	BudgetStore interface {
		AddBudget(ctx context.Context, userID string, b core.Budget) (string, error)
		DeleteBudget(ctx context.Context, userID, id string) error
		ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	}

	ReceiptStore interface {
		AddReceipt(ctx context.Context, userID string, r core.Receipt) (string, error)
		GetReceipt(ctx context.Context, userID, id string) (core.Receipt, error)
		UpdateReceipt(ctx context.Context, userID string, r core.Receipt) error
		DeleteReceipt(ctx context.Context, userID, id string) error
		ListReceipts(ctx context.Context, userID string) ([]core.Receipt, error)
	}

	InsuranceStore interface {
		AddPolicy(ctx context.Context, userID string, p core.InsurancePolicy) (string, error)
		DeletePolicy(ctx context.Context, userID, id string) error
		ListPolicies(ctx context.Context, userID string) ([]core.InsurancePolicy, error)
	}

	GoalStore interface {
		AddGoal(ctx context.Context, userID string, g core.Goal) (string, error)
		GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
		UpdateGoal(ctx context.Context, userID string, g core.Goal) error
		DeleteGoal(ctx context.Context, userID, id string) error
		ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		AddCategory(ctx context.Context, userID string, c core.Category) error
		// DeleteCategory reassigns affected transactions to
		// core.OtherCategory in the same operation.
		DeleteCategory(ctx context.Context, userID, name string) error
	}

	AlertStore interface {
		AddAlert(ctx context.Context, userID string, a core.Alert) (string, error)
		MarkAlertRead(ctx context.Context, userID, id string) error
		ListAlerts(ctx context.Context, userID string) ([]core.Alert, error)
	}

	AchievementStore interface {
		// UnlockAchievement is idempotent per code.
		UnlockAchievement(ctx context.Context, userID, code string) error
		ListAchievements(ctx context.Context, userID string) ([]core.Achievement, error)
	}

	InsightStore interface {
		AddInsight(ctx context.Context, userID string, i core.SavedInsight) (string, error)
		ListInsights(ctx context.Context, userID string) ([]core.SavedInsight, error)
	}

	UserStore interface {
		AddUser(ctx context.Context, u core.User) (string, error)
		ListUsers(ctx context.Context) ([]core.User, error)
		// EnsureUser creates the user with a default data bag if the ID
		// is unknown, and returns the user either way.
		EnsureUser(ctx context.Context, id string) (core.User, error)
		AddGroup(ctx context.Context, g core.Group) (string, error)
		ListGroups(ctx context.Context) ([]core.Group, error)
	}

	// StateExporter moves the whole application state as one JSON
	// blob: export streams it, import overwrites everything, and a
	// rejected import leaves the existing state untouched.
	StateExporter interface {
		ExportState(ctx context.Context) ([]byte, error)
		ImportState(ctx context.Context, blob []byte) error
	}
)

// Backend is the full port surface a storage backend provides.
type Backend interface {
	LedgerStore
	CreditStore
	BudgetStore
	ReceiptStore
	InsuranceStore
	GoalStore
	CategoryStore
	AlertStore
	AchievementStore
	InsightStore
	UserStore
	StateExporter
}

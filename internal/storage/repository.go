// Package storage implements the SQLite backend. The port surface is
// identical to the file store; only persistence differs.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"moneygrowth/internal/core"
	"moneygrowth/internal/store"
)

const dateLayout = "2006-01-02"

// ErrNotFound aliases the file store sentinel so callers match one
// error regardless of backend.
var ErrNotFound = store.ErrNotFound

// isUniqueViolation reports whether err is a sqlite UNIQUE or primary
// key constraint failure, so both backends surface store.ErrDuplicate
// for the same conflicts.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func encodeDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func decodeDate(s string) core.Date {
	if s == "" {
		return core.Date{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}
	}
	return core.Date{Time: t}
}

// ensureUser inserts the user row and default categories on first
// touch. Safe to call on every write path.
func (r *SQLiteRepository) ensureUser(ctx context.Context, userID string) error {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if exists > 0 {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO users (id, name) VALUES (?, ?)`, userID, userID); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	for _, c := range core.DefaultCategories() {
		if _, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO categories (user_id, name, kind) VALUES (?, ?, ?)`,
			userID, c.Name, string(c.Kind)); err != nil {
			return fmt.Errorf("seed category: %w", err)
		}
	}
	return nil
}

// --- LedgerStore ---

func (r *SQLiteRepository) AddTransaction(ctx context.Context, userID string, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if err := r.ensureUser(ctx, userID); err != nil {
		return "", err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, user_id, type, description, amount_cents, category, date,
			 credit_id, budget_id, goal_id, receipt_id, shared)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, userID, string(t.Type), t.Description, t.Amount.Cents, t.Category,
		encodeDate(t.Date), t.CreditID, t.BudgetID, t.GoalID, t.ReceiptID, t.Shared)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"user_id", userID,
		"type", string(t.Type),
		"amount_cents", t.Amount.Cents,
		"category", t.Category)
	return t.ID, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, description, amount_cents, category, date,
		       credit_id, budget_id, goal_id, receipt_id, shared
		FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	return scanTransaction(row)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, year, month int) ([]core.Transaction, error) {
	// Shared entries from the rest of the user's group are visible
	// alongside the user's own ledger.
	query := `
		SELECT id, type, description, amount_cents, category, date,
		       credit_id, budget_id, goal_id, receipt_id, shared
		FROM transactions
		WHERE (user_id = ?
		   OR (shared = 1 AND user_id <> ? AND user_id IN (
		        SELECT peer.user_id FROM group_members own
		        JOIN group_members peer ON peer.group_id = own.group_id
		        WHERE own.user_id = ?)))`
	args := []any{userID, userID, userID}
	if year != 0 && month != 0 {
		query += ` AND date LIKE ?`
		args = append(args, fmt.Sprintf("%04d-%02d-%%", year, month))
	} else if year != 0 {
		query += ` AND date LIKE ?`
		args = append(args, fmt.Sprintf("%04d-%%", year))
	}
	query += ` ORDER BY date, created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t      core.Transaction
		typ    string
		date   string
		shared int
	)
	err := row.Scan(&t.ID, &typ, &t.Description, &t.Amount.Cents, &t.Category,
		&date, &t.CreditID, &t.BudgetID, &t.GoalID, &t.ReceiptID, &shared)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.TransactionType(typ)
	t.Date = decodeDate(date)
	t.Shared = shared != 0
	return t, nil
}

// --- CreditStore ---

func (r *SQLiteRepository) AddCredit(ctx context.Context, userID string, c core.Credit) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if err := r.ensureUser(ctx, userID); err != nil {
		return "", err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credits (id, user_id, name, principal_cents, annual_rate_bp, payment_cents, start_date, term_months)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, userID, c.Name, c.Principal.Cents, c.AnnualRateBp, c.Payment.Cents,
		encodeDate(c.StartDate), c.TermMonths)
	if err != nil {
		return "", fmt.Errorf("insert credit: %w", err)
	}
	return c.ID, nil
}

func (r *SQLiteRepository) GetCredit(ctx context.Context, userID, id string) (core.Credit, error) {
	var (
		c     core.Credit
		start string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, principal_cents, annual_rate_bp, payment_cents, start_date, term_months
		FROM credits WHERE user_id = ? AND id = ?`, userID, id).
		Scan(&c.ID, &c.Name, &c.Principal.Cents, &c.AnnualRateBp, &c.Payment.Cents, &start, &c.TermMonths)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Credit{}, ErrNotFound
	}
	if err != nil {
		return core.Credit{}, fmt.Errorf("get credit: %w", err)
	}
	c.StartDate = decodeDate(start)
	return c, nil
}

func (r *SQLiteRepository) DeleteCredit(ctx context.Context, userID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM credits WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete credit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	// Detach ledger entries that pointed at the credit.
	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET credit_id = '' WHERE user_id = ? AND credit_id = ?`, userID, id); err != nil {
		return fmt.Errorf("detach transactions: %w", err)
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListCredits(ctx context.Context, userID string) ([]core.Credit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, principal_cents, annual_rate_bp, payment_cents, start_date, term_months
		FROM credits WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list credits: %w", err)
	}
	defer rows.Close()

	var out []core.Credit
	for rows.Next() {
		var (
			c     core.Credit
			start string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Principal.Cents, &c.AnnualRateBp,
			&c.Payment.Cents, &start, &c.TermMonths); err != nil {
			return nil, fmt.Errorf("scan credit: %w", err)
		}
		c.StartDate = decodeDate(start)
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- BudgetStore ---

func (r *SQLiteRepository) AddBudget(ctx context.Context, userID string, b core.Budget) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	if err := r.ensureUser(ctx, userID); err != nil {
		return "", err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category, limit_cents) VALUES (?, ?, ?, ?)`,
		b.ID, userID, b.Category, b.Limit.Cents)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("budget for category %q: %w", b.Category, store.ErrDuplicate)
		}
		return "", fmt.Errorf("insert budget: %w", err)
	}
	return b.ID, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET budget_id = '' WHERE user_id = ? AND budget_id = ?`, userID, id); err != nil {
		return fmt.Errorf("detach transactions: %w", err)
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category, limit_cents FROM budgets WHERE user_id = ? ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.Category, &b.Limit.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- ReceiptStore ---

func (r *SQLiteRepository) AddReceipt(ctx context.Context, userID string, rc core.Receipt) (string, error) {
	if err := rc.Validate(); err != nil {
		return "", err
	}
	if err := r.ensureUser(ctx, userID); err != nil {
		return "", err
	}
	if rc.ID == "" {
		rc.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO receipts (id, user_id, name, amount_cents, category, due_day, every, active, last_generated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rc.ID, userID, rc.Name, rc.Amount.Cents, rc.Category, rc.DueDay,
		string(rc.Every), rc.Active, encodeDate(rc.LastGenerated))
	if err != nil {
		return "", fmt.Errorf("insert receipt: %w", err)
	}
	return rc.ID, nil
}

func (r *SQLiteRepository) GetReceipt(ctx context.Context, userID, id string) (core.Receipt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, amount_cents, category, due_day, every, active, last_generated
		FROM receipts WHERE user_id = ? AND id = ?`, userID, id)
	return scanReceipt(row)
}

func (r *SQLiteRepository) UpdateReceipt(ctx context.Context, userID string, rc core.Receipt) error {
	if err := rc.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE receipts
		SET name = ?, amount_cents = ?, category = ?, due_day = ?, every = ?, active = ?, last_generated = ?
		WHERE user_id = ? AND id = ?`,
		rc.Name, rc.Amount.Cents, rc.Category, rc.DueDay, string(rc.Every),
		rc.Active, encodeDate(rc.LastGenerated), userID, rc.ID)
	if err != nil {
		return fmt.Errorf("update receipt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteReceipt(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM receipts WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListReceipts(ctx context.Context, userID string) ([]core.Receipt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, amount_cents, category, due_day, every, active, last_generated
		FROM receipts WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var out []core.Receipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func scanReceipt(row rowScanner) (core.Receipt, error) {
	var (
		rc     core.Receipt
		every  string
		active int
		last   string
	)
	err := row.Scan(&rc.ID, &rc.Name, &rc.Amount.Cents, &rc.Category, &rc.DueDay, &every, &active, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Receipt{}, ErrNotFound
	}
	if err != nil {
		return core.Receipt{}, fmt.Errorf("scan receipt: %w", err)
	}
	rc.Every = core.RepeatInterval(every)
	rc.Active = active != 0
	rc.LastGenerated = decodeDate(last)
	return rc, nil
}

// --- InsuranceStore ---

func (r *SQLiteRepository) AddPolicy(ctx context.Context, userID string, p core.InsurancePolicy) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	if err := r.ensureUser(ctx, userID); err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO policies (id, user_id, name, provider, premium_cents, billing, renewal_date, coverage_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, userID, p.Name, p.Provider, p.Premium.Cents, string(p.Billing),
		encodeDate(p.RenewalDate), p.Coverage.Cents)
	if err != nil {
		return "", fmt.Errorf("insert policy: %w", err)
	}
	return p.ID, nil
}

func (r *SQLiteRepository) DeletePolicy(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM policies WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete policy: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListPolicies(ctx context.Context, userID string) ([]core.InsurancePolicy, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, provider, premium_cents, billing, renewal_date, coverage_cents
		FROM policies WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var out []core.InsurancePolicy
	for rows.Next() {
		var (
			p       core.InsurancePolicy
			billing string
			renewal string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Provider, &p.Premium.Cents,
			&billing, &renewal, &p.Coverage.Cents); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		p.Billing = core.RepeatInterval(billing)
		p.RenewalDate = decodeDate(renewal)
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- GoalStore ---

func (r *SQLiteRepository) AddGoal(ctx context.Context, userID string, g core.Goal) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	if err := r.ensureUser(ctx, userID); err != nil {
		return "", err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, target_cents, contributed_cents, deadline)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, userID, g.Name, g.Target.Cents, g.Contributed.Cents, encodeDate(g.Deadline))
	if err != nil {
		return "", fmt.Errorf("insert goal: %w", err)
	}
	return g.ID, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	var (
		g        core.Goal
		deadline string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, target_cents, contributed_cents, deadline
		FROM goals WHERE user_id = ? AND id = ?`, userID, id).
		Scan(&g.ID, &g.Name, &g.Target.Cents, &g.Contributed.Cents, &deadline)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	g.Deadline = decodeDate(deadline)

	rows, err := r.db.QueryContext(ctx,
		`SELECT amount_cents, date FROM goal_contributions WHERE goal_id = ? ORDER BY date`, id)
	if err != nil {
		return core.Goal{}, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			c    core.Contribution
			date string
		)
		if err := rows.Scan(&c.Amount.Cents, &date); err != nil {
			return core.Goal{}, fmt.Errorf("scan contribution: %w", err)
		}
		c.Date = decodeDate(date)
		g.Contributions = append(g.Contributions, c)
	}
	return g, rows.Err()
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, userID string, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE goals SET name = ?, target_cents = ?, contributed_cents = ?, deadline = ?
		WHERE user_id = ? AND id = ?`,
		g.Name, g.Target.Cents, g.Contributed.Cents, encodeDate(g.Deadline), userID, g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	// Contribution history is replaced wholesale; it only ever grows.
	if _, err := tx.ExecContext(ctx, `DELETE FROM goal_contributions WHERE goal_id = ?`, g.ID); err != nil {
		return fmt.Errorf("clear contributions: %w", err)
	}
	for _, c := range g.Contributions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO goal_contributions (goal_id, amount_cents, date) VALUES (?, ?, ?)`,
			g.ID, c.Amount.Cents, encodeDate(c.Date)); err != nil {
			return fmt.Errorf("insert contribution: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM goal_contributions WHERE goal_id = ?`, id); err != nil {
		return fmt.Errorf("delete contributions: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET goal_id = '' WHERE user_id = ? AND goal_id = ?`, userID, id); err != nil {
		return fmt.Errorf("detach transactions: %w", err)
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, target_cents, contributed_cents, deadline
		FROM goals WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var (
			g        core.Goal
			deadline string
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.Target.Cents, &g.Contributed.Cents, &deadline); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		g.Deadline = decodeDate(deadline)
		out = append(out, g)
	}
	return out, rows.Err()
}

// --- CategoryStore ---

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	if err := r.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, kind FROM categories WHERE user_id = ? ORDER BY kind, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c    core.Category
			kind string
		)
		if err := rows.Scan(&c.Name, &kind); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.TransactionType(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddCategory(ctx context.Context, userID string, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := r.ensureUser(ctx, userID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, kind) VALUES (?, ?, ?)`,
		userID, c.Name, string(c.Kind))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %q: %w", c.Name, store.ErrDuplicate)
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// DeleteCategory removes the category and reassigns its transactions
// to OtherCategory inside one transaction.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, name string) error {
	if name == core.OtherCategory {
		return fmt.Errorf("category %q cannot be deleted", name)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM categories WHERE user_id = ? AND name = ?`, userID, name)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET category = ? WHERE user_id = ? AND category = ?`,
		core.OtherCategory, userID, name); err != nil {
		return fmt.Errorf("reassign transactions: %w", err)
	}
	slog.InfoContext(ctx, "Category deleted, transactions reassigned",
		"user_id", userID, "category", name, "reassigned_to", core.OtherCategory)
	return tx.Commit()
}

// --- AlertStore ---

func (r *SQLiteRepository) AddAlert(ctx context.Context, userID string, a core.Alert) (string, error) {
	if err := r.ensureUser(ctx, userID); err != nil {
		return "", err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Created.IsZero() {
		a.Created = core.Today()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alerts (id, user_id, level, message, created, read) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, userID, a.Level, a.Message, encodeDate(a.Created), a.Read)
	if err != nil {
		return "", fmt.Errorf("insert alert: %w", err)
	}
	return a.ID, nil
}

func (r *SQLiteRepository) MarkAlertRead(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET read = 1 WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("mark alert read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListAlerts(ctx context.Context, userID string) ([]core.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, level, message, created, read FROM alerts WHERE user_id = ? ORDER BY created DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []core.Alert
	for rows.Next() {
		var (
			a       core.Alert
			created string
			read    int
		)
		if err := rows.Scan(&a.ID, &a.Level, &a.Message, &created, &read); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Created = decodeDate(created)
		a.Read = read != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- AchievementStore ---

func (r *SQLiteRepository) UnlockAchievement(ctx context.Context, userID, code string) error {
	if err := r.ensureUser(ctx, userID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO achievements (id, user_id, code, name, unlocked)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, code, core.AchievementName(code), encodeDate(core.Today()))
	if err != nil {
		return fmt.Errorf("unlock achievement: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListAchievements(ctx context.Context, userID string) ([]core.Achievement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, code, name, unlocked FROM achievements WHERE user_id = ? ORDER BY unlocked`, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var out []core.Achievement
	for rows.Next() {
		var (
			a        core.Achievement
			unlocked string
		)
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &unlocked); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		a.Unlocked = decodeDate(unlocked)
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- InsightStore ---

func (r *SQLiteRepository) AddInsight(ctx context.Context, userID string, i core.SavedInsight) (string, error) {
	if err := r.ensureUser(ctx, userID); err != nil {
		return "", err
	}
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Created.IsZero() {
		i.Created = core.Today()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO insights (id, user_id, kind, text, created) VALUES (?, ?, ?, ?, ?)`,
		i.ID, userID, i.Kind, i.Text, encodeDate(i.Created))
	if err != nil {
		return "", fmt.Errorf("insert insight: %w", err)
	}
	return i.ID, nil
}

func (r *SQLiteRepository) ListInsights(ctx context.Context, userID string) ([]core.SavedInsight, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, text, created FROM insights WHERE user_id = ? ORDER BY created DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	var out []core.SavedInsight
	for rows.Next() {
		var (
			i       core.SavedInsight
			created string
		)
		if err := rows.Scan(&i.ID, &i.Kind, &i.Text, &created); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		i.Created = decodeDate(created)
		out = append(out, i)
	}
	return out, rows.Err()
}

// --- UserStore ---

func (r *SQLiteRepository) AddUser(ctx context.Context, u core.User) (string, error) {
	if err := u.Validate(); err != nil {
		return "", err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, group_id) VALUES (?, ?, ?)`, u.ID, u.Name, u.GroupID)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("user %q: %w", u.ID, store.ErrDuplicate)
		}
		return "", fmt.Errorf("insert user: %w", err)
	}
	for _, c := range core.DefaultCategories() {
		if _, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO categories (user_id, name, kind) VALUES (?, ?, ?)`,
			u.ID, c.Name, string(c.Kind)); err != nil {
			return "", fmt.Errorf("seed category: %w", err)
		}
	}
	return u.ID, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, group_id FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Name, &u.GroupID); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) EnsureUser(ctx context.Context, id string) (core.User, error) {
	if err := r.ensureUser(ctx, id); err != nil {
		return core.User{}, err
	}
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, group_id FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.GroupID)
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) AddGroup(ctx context.Context, g core.Group) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_groups (id, name) VALUES (?, ?)`, g.ID, g.Name); err != nil {
		return "", fmt.Errorf("insert group: %w", err)
	}
	for _, m := range g.Members {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO group_members (group_id, user_id) VALUES (?, ?)`, g.ID, m); err != nil {
			return "", fmt.Errorf("insert member: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET group_id = ? WHERE id = ?`, g.ID, m); err != nil {
			return "", fmt.Errorf("update member: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return g.ID, nil
}

func (r *SQLiteRepository) ListGroups(ctx context.Context) ([]core.Group, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM user_groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var out []core.Group
	for rows.Next() {
		var g core.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		members, err := r.db.QueryContext(ctx,
			`SELECT user_id FROM group_members WHERE group_id = ?`, out[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		for members.Next() {
			var m string
			if err := members.Scan(&m); err != nil {
				members.Close()
				return nil, fmt.Errorf("scan member: %w", err)
			}
			out[i].Members = append(out[i].Members, m)
		}
		if err := members.Err(); err != nil {
			members.Close()
			return nil, err
		}
		members.Close()
	}
	return out, nil
}

// --- StateExporter ---

// ExportState assembles the same JSON blob shape the file backend
// persists, so exports are interchangeable between backends.
func (r *SQLiteRepository) ExportState(ctx context.Context) ([]byte, error) {
	snap := store.Snapshot{Data: map[string]*store.UserBag{}}

	users, err := r.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	snap.Users = users
	groups, err := r.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	snap.Groups = groups

	for _, u := range users {
		bag := &store.UserBag{}
		if bag.Transactions, err = r.ListTransactions(ctx, u.ID, 0, 0); err != nil {
			return nil, err
		}
		if bag.Credits, err = r.ListCredits(ctx, u.ID); err != nil {
			return nil, err
		}
		if bag.Budgets, err = r.ListBudgets(ctx, u.ID); err != nil {
			return nil, err
		}
		if bag.Receipts, err = r.ListReceipts(ctx, u.ID); err != nil {
			return nil, err
		}
		if bag.Policies, err = r.ListPolicies(ctx, u.ID); err != nil {
			return nil, err
		}
		if bag.Goals, err = r.ListGoals(ctx, u.ID); err != nil {
			return nil, err
		}
		if bag.Categories, err = r.ListCategories(ctx, u.ID); err != nil {
			return nil, err
		}
		if bag.Alerts, err = r.ListAlerts(ctx, u.ID); err != nil {
			return nil, err
		}
		if bag.Achievements, err = r.ListAchievements(ctx, u.ID); err != nil {
			return nil, err
		}
		if bag.Insights, err = r.ListInsights(ctx, u.ID); err != nil {
			return nil, err
		}
		snap.Data[u.ID] = bag
	}

	return json.MarshalIndent(snap, "", "  ")
}

// ImportState wipes every table and reloads from the blob: overwrite
// and reload, the same contract as the file backend. The wipe and all
// inserts share one transaction, so a rejected blob leaves the
// existing state untouched.
func (r *SQLiteRepository) ImportState(ctx context.Context, blob []byte) error {
	var snap store.Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return fmt.Errorf("decode imported state: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	tables := []string{
		"insights", "achievements", "alerts", "categories",
		"goal_contributions", "goals", "policies", "receipts",
		"budgets", "credits", "transactions", "group_members",
		"user_groups", "users",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, u := range snap.Users {
		if err := u.Validate(); err != nil {
			return fmt.Errorf("import user %q: %w", u.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, name, group_id) VALUES (?, ?, ?)`, u.ID, u.Name, u.GroupID); err != nil {
			return fmt.Errorf("import user: %w", err)
		}
	}
	for _, g := range snap.Groups {
		if err := g.Validate(); err != nil {
			return fmt.Errorf("import group %q: %w", g.Name, err)
		}
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_groups (id, name) VALUES (?, ?)`, g.ID, g.Name); err != nil {
			return fmt.Errorf("import group: %w", err)
		}
		for _, m := range g.Members {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO group_members (group_id, user_id) VALUES (?, ?)`, g.ID, m); err != nil {
				return fmt.Errorf("import member: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE users SET group_id = ? WHERE id = ?`, g.ID, m); err != nil {
				return fmt.Errorf("import member: %w", err)
			}
		}
	}
	for userID, bag := range snap.Data {
		if err := importBag(ctx, tx, userID, bag); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	slog.InfoContext(ctx, "State imported",
		"users", len(snap.Users), "groups", len(snap.Groups))
	return nil
}

// importBag inserts one user's records inside the import transaction.
func importBag(ctx context.Context, tx *sql.Tx, userID string, bag *store.UserBag) error {
	for _, c := range bag.Categories {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("import category %q: %w", c.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO categories (user_id, name, kind) VALUES (?, ?, ?)`,
			userID, c.Name, string(c.Kind)); err != nil {
			return fmt.Errorf("import category: %w", err)
		}
	}
	for _, t := range bag.Transactions {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("import transaction %q: %w", t.ID, err)
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transactions
				(id, user_id, type, description, amount_cents, category, date,
				 credit_id, budget_id, goal_id, receipt_id, shared)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, userID, string(t.Type), t.Description, t.Amount.Cents, t.Category,
			encodeDate(t.Date), t.CreditID, t.BudgetID, t.GoalID, t.ReceiptID, t.Shared); err != nil {
			return fmt.Errorf("import transaction: %w", err)
		}
	}
	for _, c := range bag.Credits {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("import credit %q: %w", c.Name, err)
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO credits (id, user_id, name, principal_cents, annual_rate_bp, payment_cents, start_date, term_months)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, userID, c.Name, c.Principal.Cents, c.AnnualRateBp, c.Payment.Cents,
			encodeDate(c.StartDate), c.TermMonths); err != nil {
			return fmt.Errorf("import credit: %w", err)
		}
	}
	for _, b := range bag.Budgets {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("import budget %q: %w", b.Category, err)
		}
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (id, user_id, category, limit_cents) VALUES (?, ?, ?, ?)`,
			b.ID, userID, b.Category, b.Limit.Cents); err != nil {
			return fmt.Errorf("import budget: %w", err)
		}
	}
	for _, rc := range bag.Receipts {
		if err := rc.Validate(); err != nil {
			return fmt.Errorf("import receipt %q: %w", rc.Name, err)
		}
		if rc.ID == "" {
			rc.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO receipts (id, user_id, name, amount_cents, category, due_day, every, active, last_generated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rc.ID, userID, rc.Name, rc.Amount.Cents, rc.Category, rc.DueDay,
			string(rc.Every), rc.Active, encodeDate(rc.LastGenerated)); err != nil {
			return fmt.Errorf("import receipt: %w", err)
		}
	}
	for _, p := range bag.Policies {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("import policy %q: %w", p.Name, err)
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO policies (id, user_id, name, provider, premium_cents, billing, renewal_date, coverage_cents)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, userID, p.Name, p.Provider, p.Premium.Cents, string(p.Billing),
			encodeDate(p.RenewalDate), p.Coverage.Cents); err != nil {
			return fmt.Errorf("import policy: %w", err)
		}
	}
	for _, g := range bag.Goals {
		if err := g.Validate(); err != nil {
			return fmt.Errorf("import goal %q: %w", g.Name, err)
		}
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO goals (id, user_id, name, target_cents, contributed_cents, deadline)
			VALUES (?, ?, ?, ?, ?, ?)`,
			g.ID, userID, g.Name, g.Target.Cents, g.Contributed.Cents, encodeDate(g.Deadline)); err != nil {
			return fmt.Errorf("import goal: %w", err)
		}
		for _, c := range g.Contributions {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO goal_contributions (goal_id, amount_cents, date) VALUES (?, ?, ?)`,
				g.ID, c.Amount.Cents, encodeDate(c.Date)); err != nil {
				return fmt.Errorf("import contribution: %w", err)
			}
		}
	}
	for _, a := range bag.Alerts {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.Created.IsZero() {
			a.Created = core.Today()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO alerts (id, user_id, level, message, created, read) VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, userID, a.Level, a.Message, encodeDate(a.Created), a.Read); err != nil {
			return fmt.Errorf("import alert: %w", err)
		}
	}
	for _, a := range bag.Achievements {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO achievements (id, user_id, code, name, unlocked)
			VALUES (?, ?, ?, ?, ?)`,
			a.ID, userID, a.Code, a.Name, encodeDate(a.Unlocked)); err != nil {
			return fmt.Errorf("import achievement: %w", err)
		}
	}
	for _, i := range bag.Insights {
		if i.ID == "" {
			i.ID = uuid.NewString()
		}
		if i.Created.IsZero() {
			i.Created = core.Today()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO insights (id, user_id, kind, text, created) VALUES (?, ?, ?, ?, ?)`,
			i.ID, userID, i.Kind, i.Text, encodeDate(i.Created)); err != nil {
			return fmt.Errorf("import insight: %w", err)
		}
	}
	return nil
}

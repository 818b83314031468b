// Package services provides business logic and orchestration on top of
// the storage backends.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"moneygrowth/internal/amqp"
	"moneygrowth/internal/core"
	"moneygrowth/internal/ports"
)

// Ledger orchestrates transaction writes: persist locally first, then
// notify the sync queue and run achievement/alert checks. Queue and
// check failures never fail the request once the record is saved.
type Ledger struct {
	store      ports.Backend
	amqpClient *amqp.Client
}

func NewLedger(store ports.Backend, amqpClient *amqp.Client) *Ledger {
	return &Ledger{
		store:      store,
		amqpClient: amqpClient,
	}
}

// AddTransaction saves a transaction and fires the follow-up effects.
func (s *Ledger) AddTransaction(ctx context.Context, userID string, t core.Transaction) (string, error) {
	id, err := s.store.AddTransaction(ctx, userID, t)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	s.publishSync(ctx, amqp.NewRecordSyncMessage(amqp.KindTransaction, id, userID))
	s.checkEntryAchievements(ctx, userID)
	if t.Type == core.Expense {
		s.checkBudgetAlert(ctx, userID, t)
	}

	return id, nil
}

// DeleteTransaction removes a transaction and notifies the sync queue.
func (s *Ledger) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.publishSync(ctx, amqp.NewRecordDeleteMessage(amqp.KindTransaction, id, userID))
	return nil
}

// ContributeToGoal appends a contribution and records the matching
// saving transaction in the ledger.
func (s *Ledger) ContributeToGoal(ctx context.Context, userID, goalID string, amount core.Money, date core.Date) (core.Goal, error) {
	if err := amount.Validate(); err != nil {
		return core.Goal{}, err
	}
	if date.IsZero() {
		date = core.Today()
	}

	goal, err := s.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return core.Goal{}, err
	}

	goal.Contributed.Cents += amount.Cents
	goal.Contributions = append(goal.Contributions, core.Contribution{Amount: amount, Date: date})
	if err := s.store.UpdateGoal(ctx, userID, goal); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}

	t := core.Transaction{
		Type:        core.Saving,
		Description: "Contribution to " + goal.Name,
		Amount:      amount,
		Date:        date,
		GoalID:      goal.ID,
	}
	if _, err := s.AddTransaction(ctx, userID, t); err != nil {
		slog.ErrorContext(ctx, "Failed to record contribution transaction",
			"goal_id", goal.ID, "error", err)
		// Goal update succeeded, don't fail the request.
	}

	if goal.Contributed.Cents >= goal.Target.Cents {
		if err := s.store.UnlockAchievement(ctx, userID, core.AchievementGoalReached); err != nil {
			slog.ErrorContext(ctx, "Failed to unlock achievement",
				"code", core.AchievementGoalReached, "error", err)
		}
	}

	return goal, nil
}

// GenerateFromReceipt books the receipt's expense for the given date
// and advances its last-generated marker.
func (s *Ledger) GenerateFromReceipt(ctx context.Context, userID, receiptID string, date core.Date) (string, error) {
	if date.IsZero() {
		date = core.Today()
	}

	receipt, err := s.store.GetReceipt(ctx, userID, receiptID)
	if err != nil {
		return "", err
	}

	t := core.Transaction{
		Type:        core.Expense,
		Description: receipt.Name,
		Amount:      receipt.Amount,
		Category:    receipt.Category,
		Date:        date,
		ReceiptID:   receipt.ID,
	}
	id, err := s.AddTransaction(ctx, userID, t)
	if err != nil {
		return "", fmt.Errorf("book receipt expense: %w", err)
	}

	receipt.LastGenerated = date
	if err := s.store.UpdateReceipt(ctx, userID, receipt); err != nil {
		slog.ErrorContext(ctx, "Failed to advance receipt marker",
			"receipt_id", receipt.ID, "error", err)
		// Expense is booked, don't fail the request.
	}

	return id, nil
}

// DeleteCredit removes a credit and unlocks the debt-free achievement
// when it was the last one.
func (s *Ledger) DeleteCredit(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteCredit(ctx, userID, id); err != nil {
		return err
	}

	remaining, err := s.store.ListCredits(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list remaining credits", "error", err)
		return nil
	}
	if len(remaining) == 0 {
		if err := s.store.UnlockAchievement(ctx, userID, core.AchievementDebtFree); err != nil {
			slog.ErrorContext(ctx, "Failed to unlock achievement",
				"code", core.AchievementDebtFree, "error", err)
		}
	}
	return nil
}

func (s *Ledger) publishSync(ctx context.Context, msg *amqp.RecordSyncMessage) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishRecordSync(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"kind", msg.Kind, "id", msg.ID, "error", err)
		// Don't fail the request, the record is saved locally.
	}
}

func (s *Ledger) checkEntryAchievements(ctx context.Context, userID string) {
	all, err := s.store.ListTransactions(ctx, userID, 0, 0)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to count transactions", "error", err)
		return
	}
	if len(all) >= 1 {
		s.unlock(ctx, userID, core.AchievementFirstTransaction)
	}
	if len(all) >= 100 {
		s.unlock(ctx, userID, core.AchievementHundredEntries)
	}
}

// checkBudgetAlert raises a warning the first time an expense pushes a
// category over its monthly budget.
func (s *Ledger) checkBudgetAlert(ctx context.Context, userID string, t core.Transaction) {
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list budgets", "error", err)
		return
	}
	var budget *core.Budget
	for i := range budgets {
		if budgets[i].Category == t.Category {
			budget = &budgets[i]
			break
		}
	}
	if budget == nil {
		return
	}

	monthly, err := s.store.ListTransactions(ctx, userID, t.Date.Year(), t.Date.Month())
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list monthly transactions", "error", err)
		return
	}
	var spent int64
	for _, tx := range monthly {
		if tx.Type == core.Expense && tx.Category == t.Category {
			spent += tx.Amount.Cents
		}
	}
	if spent <= budget.Limit.Cents {
		return
	}
	// Only alert on the crossing entry, not on every one after it.
	if spent-t.Amount.Cents > budget.Limit.Cents {
		return
	}

	alert := core.Alert{
		Level: "warning",
		Message: fmt.Sprintf("Budget exceeded for %s: spent %s of %s",
			t.Category, core.FormatCents(spent), core.FormatCents(budget.Limit.Cents)),
		Created: t.Date,
	}
	if _, err := s.store.AddAlert(ctx, userID, alert); err != nil {
		slog.ErrorContext(ctx, "Failed to create budget alert",
			"category", t.Category, "error", err)
	}
}

func (s *Ledger) unlock(ctx context.Context, userID, code string) {
	if err := s.store.UnlockAchievement(ctx, userID, code); err != nil {
		slog.ErrorContext(ctx, "Failed to unlock achievement", "code", code, "error", err)
	}
}

// Close closes the AMQP connection if one was configured.
func (s *Ledger) Close() error {
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			return fmt.Errorf("close amqp: %w", err)
		}
	}
	return nil
}

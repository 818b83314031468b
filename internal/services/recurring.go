package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moneygrowth/internal/core"
	"moneygrowth/internal/ports"
)

// RecurringProcessor books expenses from recurring receipts that have
// come due.
type RecurringProcessor struct {
	store  ports.Backend
	ledger *Ledger
}

func NewRecurringProcessor(store ports.Backend, ledger *Ledger) *RecurringProcessor {
	return &RecurringProcessor{
		store:  store,
		ledger: ledger,
	}
}

// ProcessDueReceipts walks every user's active recurring receipts and
// books an expense for each one that is due. Returns the number of
// expenses created.
func (p *RecurringProcessor) ProcessDueReceipts(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	users, err := p.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	processedCount := 0
	for _, u := range users {
		n, err := p.processUser(ctx, u.ID, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to process recurring receipts",
				"user_id", u.ID,
				"error", err)
			continue
		}
		processedCount += n
	}

	slog.InfoContext(ctx, "Recurring receipt processing complete",
		"processed", processedCount,
		"processing_date", now.Format("2006-01-02"))

	return processedCount, nil
}

func (p *RecurringProcessor) processUser(ctx context.Context, userID string, now time.Time) (int, error) {
	receipts, err := p.store.ListReceipts(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list receipts: %w", err)
	}

	count := 0
	for _, r := range receipts {
		if !r.Active || r.Every == core.RepeatNone {
			continue
		}

		checker, err := GetDuenessChecker(r.Every)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping receipt with unknown interval",
				"receipt_id", r.ID,
				"every", string(r.Every))
			continue
		}
		if !checker.IsDue(r.LastGenerated.Time, now, r.DueDay) {
			continue
		}

		date := core.NewDate(now.Year(), int(now.Month()), now.Day())
		if _, err := p.ledger.GenerateFromReceipt(ctx, userID, r.ID, date); err != nil {
			slog.ErrorContext(ctx, "Failed to book expense from receipt",
				"receipt_id", r.ID,
				"name", r.Name,
				"error", err)
			continue
		}

		count++
		slog.InfoContext(ctx, "Booked expense from recurring receipt",
			"receipt_id", r.ID,
			"name", r.Name,
			"amount_cents", r.Amount.Cents,
			"every", string(r.Every))

		alert := core.Alert{
			Level: "info",
			Message: fmt.Sprintf("Booked %s for %q from its recurring schedule",
				core.FormatCents(r.Amount.Cents), r.Name),
			Created: date,
		}
		if _, err := p.store.AddAlert(ctx, userID, alert); err != nil {
			slog.ErrorContext(ctx, "Failed to create booking alert",
				"receipt_id", r.ID,
				"error", err)
		}
	}

	return count, nil
}

// Package worker mirrors ledger changes to the spreadsheet backup.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"moneygrowth/internal/amqp"
	"moneygrowth/internal/ports"
	"moneygrowth/internal/sheets"
	"moneygrowth/internal/store"
)

// SyncWorker consumes record change notifications and mirrors the
// referenced transactions to the backup sheet.
type SyncWorker struct {
	store   ports.LedgerStore
	writer  sheets.TransactionWriter
	remover sheets.TransactionRemover
}

func NewSyncWorker(store ports.LedgerStore, writer sheets.TransactionWriter, remover sheets.TransactionRemover) *SyncWorker {
	return &SyncWorker{
		store:   store,
		writer:  writer,
		remover: remover,
	}
}

// HandleMessage processes a single change notification.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	if msg.Kind != amqp.KindTransaction {
		slog.WarnContext(ctx, "Ignoring message of unknown kind", "kind", msg.Kind)
		return nil
	}

	switch msg.Op {
	case amqp.OpUpsert:
		return w.mirror(ctx, msg.UserID, msg.ID)
	case amqp.OpDelete:
		return w.unmirror(ctx, msg.ID)
	default:
		slog.WarnContext(ctx, "Ignoring message with unknown op", "op", msg.Op)
		return nil
	}
}

func (w *SyncWorker) mirror(ctx context.Context, userID, id string) error {
	t, err := w.store.GetTransaction(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted between publish and consume; nothing to mirror.
		slog.InfoContext(ctx, "Transaction gone before mirroring", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	ref, err := w.writer.Append(ctx, userID, t)
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored transaction to sheet",
		"id", id,
		"user_id", userID,
		"sheet_ref", ref,
		"amount_cents", t.Amount.Cents)
	return nil
}

func (w *SyncWorker) unmirror(ctx context.Context, id string) error {
	if w.remover == nil {
		slog.WarnContext(ctx, "No remover configured, skipping sheet removal", "id", id)
		return nil
	}
	if err := w.remover.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove from sheet: %w", err)
	}
	slog.InfoContext(ctx, "Removed transaction from sheet", "id", id)
	return nil
}

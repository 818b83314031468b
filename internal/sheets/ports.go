// Package sheets defines the ports for the spreadsheet backup sink.
package sheets

import (
	"context"

	"moneygrowth/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionWriter mirrors a transaction to the backup sheet.
	TransactionWriter interface {
		Append(ctx context.Context, userID string, t core.Transaction) (rowRef string, err error)
	}

	// TransactionRemover removes a previously mirrored transaction.
	TransactionRemover interface {
		Remove(ctx context.Context, id string) error
	}
)

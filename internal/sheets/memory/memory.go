// Package memory provides an in-memory backup sink used in tests and
// when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"moneygrowth/internal/core"
	ports "moneygrowth/internal/sheets"
)

type Row struct {
	UserID      string
	Transaction core.Transaction
}

type Sink struct {
	mu   sync.Mutex
	rows []Row
}

var (
	_ ports.TransactionWriter  = (*Sink)(nil)
	_ ports.TransactionRemover = (*Sink)(nil)
)

func New() *Sink {
	return &Sink{}
}

func (s *Sink) Append(_ context.Context, userID string, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, Row{UserID: userID, Transaction: t})
	return fmt.Sprintf("row-%d", len(s.rows)), nil
}

func (s *Sink) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if r.Transaction.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// Rows returns a copy of the mirrored rows.
func (s *Sink) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

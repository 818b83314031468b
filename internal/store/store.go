// Package store implements the file backend: the whole application
// state lives in one mutex-guarded struct and is serialized as a
// single JSON blob to a fixed file name after every mutation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"moneygrowth/internal/core"
)

// FileName is the fixed blob name inside the data directory.
const FileName = "moneygrowth.json"

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Snapshot is the serialized application state: users and groups at the
// top level, one data bag per user.
type Snapshot struct {
	Users  []core.User         `json:"users"`
	Groups []core.Group        `json:"groups"`
	Data   map[string]*UserBag `json:"data"`
}

type UserBag struct {
	Transactions []core.Transaction     `json:"transactions"`
	Credits      []core.Credit          `json:"credits"`
	Budgets      []core.Budget          `json:"budgets"`
	Receipts     []core.Receipt         `json:"receipts"`
	Policies     []core.InsurancePolicy `json:"policies"`
	Goals        []core.Goal            `json:"goals"`
	Categories   []core.Category        `json:"categories"`
	Alerts       []core.Alert           `json:"alerts"`
	Achievements []core.Achievement     `json:"achievements"`
	Insights     []core.SavedInsight    `json:"insights"`
}

// Store is the file-backed state container. All mutations happen
// under one lock and rewrite the blob wholesale; there is no partial
// persistence.
type Store struct {
	mu   sync.Mutex
	path string // empty disables persistence (tests, ephemeral runs)
	st   Snapshot
}

// New returns an empty in-memory store with no file persistence.
func New() *Store {
	return &Store{st: Snapshot{Data: map[string]*UserBag{}}}
}

// NewFromFile loads the blob from dir/moneygrowth.json, starting
// empty when the file does not exist yet. A malformed blob is an
// error: better to refuse startup than to overwrite user data.
func NewFromFile(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := New()
	s.path = filepath.Join(dir, FileName)

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	var st Snapshot
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}
	if st.Data == nil {
		st.Data = map[string]*UserBag{}
	}
	s.st = st
	slog.Info("Loaded state file", "path", s.path, "users", len(st.Users))
	return s, nil
}

// save writes the whole blob. Callers hold the lock. A temp file plus
// rename keeps a crash from truncating the only copy.
func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(s.st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// bag returns the user's data bag, creating user and bag on first
// touch with the default category set.
func (s *Store) bag(userID string) *UserBag {
	if d, ok := s.st.Data[userID]; ok {
		return d
	}
	d := &UserBag{Categories: core.DefaultCategories()}
	s.st.Data[userID] = d

	found := false
	for _, u := range s.st.Users {
		if u.ID == userID {
			found = true
			break
		}
	}
	if !found {
		s.st.Users = append(s.st.Users, core.User{ID: userID, Name: userID})
	}
	return d
}

// --- LedgerStore ---

func (s *Store) AddTransaction(_ context.Context, userID string, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	d := s.bag(userID)
	d.Transactions = append(d.Transactions, t)
	if err := s.save(); err != nil {
		return "", err
	}
	return t.ID, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.bag(userID).Transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.bag(userID)
	for i, t := range d.Transactions {
		if t.ID == id {
			d.Transactions = append(d.Transactions[:i], d.Transactions[i+1:]...)
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, userID string, year, month int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := filterTransactions(s.bag(userID).Transactions, year, month)

	// Shared entries owned by the rest of the user's group are part of
	// the visible ledger too.
	for _, peer := range s.groupPeers(userID) {
		d, ok := s.st.Data[peer]
		if !ok {
			continue
		}
		for _, t := range filterTransactions(d.Transactions, year, month) {
			if t.Shared {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

// groupPeers returns the other members of the first group listing
// userID, or nil when the user is not in any group. Callers hold the
// lock.
func (s *Store) groupPeers(userID string) []string {
	for _, g := range s.st.Groups {
		for _, m := range g.Members {
			if m != userID {
				continue
			}
			peers := make([]string, 0, len(g.Members)-1)
			for _, p := range g.Members {
				if p != userID {
					peers = append(peers, p)
				}
			}
			return peers
		}
	}
	return nil
}

func filterTransactions(transactions []core.Transaction, year, month int) []core.Transaction {
	var out []core.Transaction
	for _, t := range transactions {
		if year != 0 && t.Date.Year() != year {
			continue
		}
		if month != 0 && t.Date.Month() != month {
			continue
		}
		out = append(out, t)
	}
	return out
}

// --- CreditStore ---

func (s *Store) AddCredit(_ context.Context, userID string, c core.Credit) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	d := s.bag(userID)
	d.Credits = append(d.Credits, c)
	if err := s.save(); err != nil {
		return "", err
	}
	return c.ID, nil
}

func (s *Store) GetCredit(_ context.Context, userID, id string) (core.Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.bag(userID).Credits {
		if c.ID == id {
			return c, nil
		}
	}
	return core.Credit{}, ErrNotFound
}

func (s *Store) DeleteCredit(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.bag(userID)
	for i, c := range d.Credits {
		if c.ID == id {
			d.Credits = append(d.Credits[:i], d.Credits[i+1:]...)
			// Detach ledger entries that pointed at the credit.
			for j := range d.Transactions {
				if d.Transactions[j].CreditID == id {
					d.Transactions[j].CreditID = ""
				}
			}
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *Store) ListCredits(_ context.Context, userID string) ([]core.Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Credit(nil), s.bag(userID).Credits...), nil
}

// --- BudgetStore ---

func (s *Store) AddBudget(_ context.Context, userID string, b core.Budget) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.bag(userID)
	for _, existing := range d.Budgets {
		if existing.Category == b.Category {
			return "", ErrDuplicate
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	d.Budgets = append(d.Budgets, b)
	if err := s.save(); err != nil {
		return "", err
	}
	return b.ID, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.bag(userID)
	for i, b := range d.Budgets {
		if b.ID == id {
			d.Budgets = append(d.Budgets[:i], d.Budgets[i+1:]...)
			for j := range d.Transactions {
				if d.Transactions[j].BudgetID == id {
					d.Transactions[j].BudgetID = ""
				}
			}
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *Store) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.bag(userID).Budgets...), nil
}

// --- ReceiptStore ---

func (s *Store) AddReceipt(_ context.Context, userID string, r core.Receipt) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	d := s.bag(userID)
	d.Receipts = append(d.Receipts, r)
	if err := s.save(); err != nil {
		return "", err
	}
	return r.ID, nil
}

func (s *Store) GetReceipt(_ context.Context, userID, id string) (core.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.bag(userID).Receipts {
		if r.ID == id {
			return r, nil
		}
	}
	return core.Receipt{}, ErrNotFound
}

func (s *Store) UpdateReceipt(_ context.Context, userID string, r core.Receipt) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.bag(userID)
	for i := range d.Receipts {
		if d.Receipts[i].ID == r.ID {
			d.Receipts[i] = r
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *Store) DeleteReceipt(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.bag(userID)
	for i, r := range d.Receipts {
		if r.ID == id {
			d.Receipts = append(d.Receipts[:i], d.Receipts[i+1:]...)
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *Store) ListReceipts(_ context.Context, userID string) ([]core.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Receipt(nil), s.bag(userID).Receipts...), nil
}

// --- InsuranceStore ---

func (s *Store) AddPolicy(_ context.Context, userID string, p core.InsurancePolicy) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	d := s.bag(userID)
	d.Policies = append(d.Policies, p)
	if err := s.save(); err != nil {
		return "", err
	}
	return p.ID, nil
}

func (s *Store) DeletePolicy(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.bag(userID)
	for i, p := range d.Policies {
		if p.ID == id {
			d.Policies = append(d.Policies[:i], d.Policies[i+1:]...)
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *Store) ListPolicies(_ context.Context, userID string) ([]core.InsurancePolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.InsurancePolicy(nil), s.bag(userID).Policies...), nil
}

// --- GoalStore ---

func (s *Store) AddGoal(_ context.Context, userID string, g core.Goal) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	d := s.bag(userID)
	d.Goals = append(d.Goals, g)
	if err := s.save(); err != nil {
		return "", err
	}
	return g.ID, nil
}

func (s *Store) GetGoal(_ context.Context, userID, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.bag(userID).Goals {
		if g.ID == id {
			return g, nil
		}
	}
	return core.Goal{}, ErrNotFound
}

func (s *Store) UpdateGoal(_ context.Context, userID string, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.bag(userID)
	for i := range d.Goals {
		if d.Goals[i].ID == g.ID {
			d.Goals[i] = g
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.bag(userID)
	for i, g := range d.Goals {
		if g.ID == id {
			d.Goals = append(d.Goals[:i], d.Goals[i+1:]...)
			for j := range d.Transactions {
				if d.Transactions[j].GoalID == id {
					d.Transactions[j].GoalID = ""
				}
			}
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Goal(nil), s.bag(userID).Goals...), nil
}

// --- CategoryStore ---

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.bag(userID).Categories...), nil
}

func (s *Store) AddCategory(_ context.Context, userID string, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.bag(userID)
	for _, existing := range d.Categories {
		if existing.Name == c.Name && existing.Kind == c.Kind {
			return ErrDuplicate
		}
	}
	d.Categories = append(d.Categories, c)
	return s.save()
}

// DeleteCategory removes the category and reassigns its transactions
// to OtherCategory in the same operation, so no entry is left pointing
// at a missing category. OtherCategory itself cannot be deleted.
func (s *Store) DeleteCategory(_ context.Context, userID, name string) error {
	if name == core.OtherCategory {
		return fmt.Errorf("category %q cannot be deleted", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.bag(userID)
	found := false
	kept := d.Categories[:0]
	for _, c := range d.Categories {
		if c.Name == name {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return ErrNotFound
	}
	d.Categories = kept
	for i := range d.Transactions {
		if d.Transactions[i].Category == name {
			d.Transactions[i].Category = core.OtherCategory
		}
	}
	return s.save()
}

// --- AlertStore ---

func (s *Store) AddAlert(_ context.Context, userID string, a core.Alert) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Created.IsZero() {
		a.Created = core.Today()
	}
	d := s.bag(userID)
	d.Alerts = append(d.Alerts, a)
	if err := s.save(); err != nil {
		return "", err
	}
	return a.ID, nil
}

func (s *Store) MarkAlertRead(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.bag(userID)
	for i := range d.Alerts {
		if d.Alerts[i].ID == id {
			d.Alerts[i].Read = true
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *Store) ListAlerts(_ context.Context, userID string) ([]core.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Alert(nil), s.bag(userID).Alerts...), nil
}

// --- AchievementStore ---

func (s *Store) UnlockAchievement(_ context.Context, userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.bag(userID)
	for _, a := range d.Achievements {
		if a.Code == code {
			return nil // already unlocked
		}
	}
	d.Achievements = append(d.Achievements, core.Achievement{
		ID:       uuid.NewString(),
		Code:     code,
		Name:     core.AchievementName(code),
		Unlocked: core.Today(),
	})
	return s.save()
}

func (s *Store) ListAchievements(_ context.Context, userID string) ([]core.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Achievement(nil), s.bag(userID).Achievements...), nil
}

// --- InsightStore ---

func (s *Store) AddInsight(_ context.Context, userID string, i core.SavedInsight) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Created.IsZero() {
		i.Created = core.Today()
	}
	d := s.bag(userID)
	d.Insights = append(d.Insights, i)
	if err := s.save(); err != nil {
		return "", err
	}
	return i.ID, nil
}

func (s *Store) ListInsights(_ context.Context, userID string) ([]core.SavedInsight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.SavedInsight(nil), s.bag(userID).Insights...), nil
}

// --- UserStore ---

func (s *Store) AddUser(_ context.Context, u core.User) (string, error) {
	if err := u.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	for _, existing := range s.st.Users {
		if existing.ID == u.ID {
			return "", ErrDuplicate
		}
	}
	s.st.Users = append(s.st.Users, u)
	s.st.Data[u.ID] = &UserBag{Categories: core.DefaultCategories()}
	if err := s.save(); err != nil {
		return "", err
	}
	return u.ID, nil
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.User(nil), s.st.Users...), nil
}

func (s *Store) EnsureUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.st.Users {
		if u.ID == id {
			return u, nil
		}
	}
	u := core.User{ID: id, Name: id}
	s.st.Users = append(s.st.Users, u)
	s.st.Data[id] = &UserBag{Categories: core.DefaultCategories()}
	if err := s.save(); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (s *Store) AddGroup(_ context.Context, g core.Group) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	s.st.Groups = append(s.st.Groups, g)
	// Back-reference members so shared visibility is one lookup.
	for i := range s.st.Users {
		for _, m := range g.Members {
			if s.st.Users[i].ID == m {
				s.st.Users[i].GroupID = g.ID
			}
		}
	}
	if err := s.save(); err != nil {
		return "", err
	}
	return g.ID, nil
}

func (s *Store) ListGroups(_ context.Context) ([]core.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Group(nil), s.st.Groups...), nil
}

// --- StateExporter ---

func (s *Store) ExportState(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.MarshalIndent(s.st, "", "  ")
}

// ImportState replaces everything with the imported blob: overwrite
// and reload, no migration. Malformed JSON leaves the state untouched.
func (s *Store) ImportState(_ context.Context, blob []byte) error {
	var st Snapshot
	if err := json.Unmarshal(blob, &st); err != nil {
		return fmt.Errorf("decode imported state: %w", err)
	}
	if st.Data == nil {
		st.Data = map[string]*UserBag{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = st
	return s.save()
}

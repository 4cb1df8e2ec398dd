package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/ledgerbook/pkg/models"
	"github.com/mcclellann/ledgerbook/pkg/store"
)

var errInjected = errors.New("injected store failure")

// MockStore is a simple in-memory implementation of the Storage interface for testing.
// It stores copies, so callers cannot mutate stored documents behind its back.
type MockStore struct {
	mu         sync.Mutex
	loans      []models.LoanTransaction
	activities []models.LandActivity
	groups     []models.GroupSettlement
	settings   map[string]string

	calls int
	// failOn makes the named operation fail. failLoanUpdate fails UpdateLoan for one ID.
	failOn         map[string]bool
	failLoanUpdate uuid.UUID
}

func NewMockStore() *MockStore {
	return &MockStore{
		settings: make(map[string]string),
		failOn:   make(map[string]bool),
	}
}

func (m *MockStore) enter(op string) error {
	m.calls++
	if m.failOn[op] {
		return fmt.Errorf("%s: %w", op, errInjected)
	}
	return nil
}

func stampNew(id *uuid.UUID, created, updated *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	*created = time.Now()
	*updated = *created
}

func matches(name string, opts store.ListOptions) bool {
	if opts.Name != "" && name != opts.Name {
		return false
	}
	if opts.Search != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(opts.Search)) {
		return false
	}
	return true
}

func ordered[T any](items []T, desc bool) []T {
	if desc {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return items
}

func (m *MockStore) CreateLoan(_ context.Context, loan *models.LoanTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateLoan"); err != nil {
		return err
	}
	stampNew(&loan.ID, &loan.CreatedAt, &loan.UpdatedAt)
	m.loans = append(m.loans, *loan)
	return nil
}

func (m *MockStore) GetLoan(_ context.Context, id uuid.UUID) (*models.LoanTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetLoan"); err != nil {
		return nil, err
	}
	for _, l := range m.loans {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, fmt.Errorf("loan %s: %w", id, store.ErrNotFound)
}

func (m *MockStore) UpdateLoan(_ context.Context, loan *models.LoanTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateLoan"); err != nil {
		return err
	}
	if loan.ID == m.failLoanUpdate {
		return fmt.Errorf("update loan %s: %w", loan.ID, errInjected)
	}
	for i := range m.loans {
		if m.loans[i].ID == loan.ID {
			m.loans[i] = *loan
			return nil
		}
	}
	return fmt.Errorf("loan %s: %w", loan.ID, store.ErrNotFound)
}

func (m *MockStore) DeleteLoan(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteLoan"); err != nil {
		return err
	}
	for i := range m.loans {
		if m.loans[i].ID == id {
			m.loans = append(m.loans[:i], m.loans[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("loan %s: %w", id, store.ErrNotFound)
}

func (m *MockStore) ListLoans(_ context.Context, opts store.ListOptions) ([]*models.LoanTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListLoans"); err != nil {
		return nil, err
	}
	var out []*models.LoanTransaction
	for _, l := range m.loans {
		if matches(l.CounterpartyName, opts) {
			out = append(out, &l)
		}
	}
	return ordered(out, opts.OrderByCreatedDesc), nil
}

func (m *MockStore) CreateActivity(_ context.Context, a *models.LandActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateActivity"); err != nil {
		return err
	}
	stampNew(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	m.activities = append(m.activities, *a)
	return nil
}

func (m *MockStore) GetActivity(_ context.Context, id uuid.UUID) (*models.LandActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetActivity"); err != nil {
		return nil, err
	}
	for _, a := range m.activities {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("land activity %s: %w", id, store.ErrNotFound)
}

func (m *MockStore) UpdateActivity(_ context.Context, a *models.LandActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateActivity"); err != nil {
		return err
	}
	for i := range m.activities {
		if m.activities[i].ID == a.ID {
			m.activities[i] = *a
			return nil
		}
	}
	return fmt.Errorf("land activity %s: %w", a.ID, store.ErrNotFound)
}

func (m *MockStore) DeleteActivity(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteActivity"); err != nil {
		return err
	}
	for i := range m.activities {
		if m.activities[i].ID == id {
			m.activities = append(m.activities[:i], m.activities[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("land activity %s: %w", id, store.ErrNotFound)
}

func (m *MockStore) ListActivities(_ context.Context, opts store.ListOptions) ([]*models.LandActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListActivities"); err != nil {
		return nil, err
	}
	var out []*models.LandActivity
	for _, a := range m.activities {
		if matches(a.OwnerName, opts) {
			out = append(out, &a)
		}
	}
	return ordered(out, opts.OrderByCreatedDesc), nil
}

func (m *MockStore) CreateGroup(_ context.Context, g *models.GroupSettlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateGroup"); err != nil {
		return err
	}
	stampNew(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	m.groups = append(m.groups, *g)
	return nil
}

func (m *MockStore) GetGroupByName(_ context.Context, name string) (*models.GroupSettlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetGroupByName"); err != nil {
		return nil, err
	}
	for _, g := range m.groups {
		if g.GroupName == name {
			return &g, nil
		}
	}
	return nil, fmt.Errorf("group settlement %q: %w", name, store.ErrNotFound)
}

func (m *MockStore) UpdateGroup(_ context.Context, g *models.GroupSettlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateGroup"); err != nil {
		return err
	}
	for i := range m.groups {
		if m.groups[i].ID == g.ID {
			m.groups[i] = *g
			return nil
		}
	}
	return fmt.Errorf("group settlement %s: %w", g.ID, store.ErrNotFound)
}

func (m *MockStore) ListGroups(_ context.Context, opts store.ListOptions) ([]*models.GroupSettlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListGroups"); err != nil {
		return nil, err
	}
	var out []*models.GroupSettlement
	for _, g := range m.groups {
		if matches(g.GroupName, opts) {
			out = append(out, &g)
		}
	}
	return ordered(out, opts.OrderByCreatedDesc), nil
}

func (m *MockStore) GetSetting(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.settings[key]
	if !ok {
		return "", fmt.Errorf("setting %q: %w", key, store.ErrNotFound)
	}
	return v, nil
}

func (m *MockStore) PutSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *MockStore) Close() error {
	return nil
}

func (m *MockStore) group(name string) *models.GroupSettlement {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.GroupName == name {
			return &g
		}
	}
	return nil
}

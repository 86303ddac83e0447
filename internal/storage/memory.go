package storage

import (
	"context"
	"sync"

	"budget-bot/internal/models"

	"github.com/shopspring/decimal"
)

// Memory is a process-local ledger with the same semantics as DB.
type Memory struct {
	mu       sync.Mutex
	users    map[int64]models.User
	expenses []models.Expense
	nextID   int64
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{users: make(map[int64]models.User)}
}

func (m *Memory) UpsertUser(_ context.Context, userID int64, username string, income decimal.Decimal) error {
	if _, err := toReal(income); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = models.User{ID: userID, Username: username, Income: income}
	return nil
}

func (m *Memory) GetUser(_ context.Context, userID int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserIncome(_ context.Context, userID int64) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return decimal.Zero, ErrUserNotFound
	}
	return u.Income, nil
}

func (m *Memory) SetMethod(_ context.Context, userID int64, method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.Method = method
	m.users[userID] = u
	return nil
}

func (m *Memory) AddExpenses(_ context.Context, userID int64, lines []models.ExpenseLine) error {
	for _, l := range lines {
		if _, err := toReal(l.Amount); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range lines {
		m.nextID++
		m.expenses = append(m.expenses, models.Expense{
			ID:     m.nextID,
			UserID: userID,
			Name:   l.Name,
			Amount: l.Amount,
		})
	}
	return nil
}

func (m *Memory) ListExpenses(_ context.Context, userID int64) ([]models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Expense
	for _, e := range m.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) SumExpenses(_ context.Context, userID int64) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, e := range m.expenses {
		if e.UserID == userID {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (m *Memory) ClearExpenses(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropExpenses(userID)
	return nil
}

func (m *Memory) ClearUser(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
	m.dropExpenses(userID)
	return nil
}

func (m *Memory) dropExpenses(userID int64) {
	kept := m.expenses[:0]
	for _, e := range m.expenses {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	m.expenses = kept
}

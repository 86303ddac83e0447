package storage

import (
	"context"
	"path/filepath"
	"testing"

	"budget-bot/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ledger is the method set shared by DB and Memory.
type ledger interface {
	UpsertUser(ctx context.Context, userID int64, username string, income decimal.Decimal) error
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	GetUserIncome(ctx context.Context, userID int64) (decimal.Decimal, error)
	SetMethod(ctx context.Context, userID int64, method string) error
	AddExpenses(ctx context.Context, userID int64, lines []models.ExpenseLine) error
	ListExpenses(ctx context.Context, userID int64) ([]models.Expense, error)
	SumExpenses(ctx context.Context, userID int64) (decimal.Decimal, error)
	ClearExpenses(ctx context.Context, userID int64) error
	ClearUser(ctx context.Context, userID int64) error
}

// LedgerTestSuite runs the same checks against every ledger implementation
type LedgerTestSuite struct {
	suite.Suite
	open  func() (ledger, func())
	store ledger
	close func()
	ctx   context.Context
}

// SetupTest runs before each test
func (suite *LedgerTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store, suite.close = suite.open()
}

// TearDownTest runs after each test
func (suite *LedgerTestSuite) TearDownTest() {
	if suite.close != nil {
		suite.close()
	}
}

func (suite *LedgerTestSuite) TestUpsertAndGetIncome() {
	err := suite.store.UpsertUser(suite.ctx, 1, "alice", decimal.NewFromInt(100000))
	require.NoError(suite.T(), err)

	income, err := suite.store.GetUserIncome(suite.ctx, 1)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), income.Equal(decimal.NewFromInt(100000)), "got %s", income)
}

func (suite *LedgerTestSuite) TestFractionalIncome() {
	require.NoError(suite.T(), suite.store.UpsertUser(suite.ctx, 1, "alice", decimal.RequireFromString("1234.5")))

	income, err := suite.store.GetUserIncome(suite.ctx, 1)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "1234.5", income.String())
}

func (suite *LedgerTestSuite) TestMissingUser() {
	_, err := suite.store.GetUserIncome(suite.ctx, 42)
	assert.ErrorIs(suite.T(), err, ErrUserNotFound)

	_, err = suite.store.GetUser(suite.ctx, 42)
	assert.ErrorIs(suite.T(), err, ErrUserNotFound)

	err = suite.store.SetMethod(suite.ctx, 42, "method_50_30_20")
	assert.ErrorIs(suite.T(), err, ErrUserNotFound)
}

func (suite *LedgerTestSuite) TestUpsertDropsMethod() {
	require.NoError(suite.T(), suite.store.UpsertUser(suite.ctx, 1, "alice", decimal.NewFromInt(100)))
	require.NoError(suite.T(), suite.store.SetMethod(suite.ctx, 1, "method_60_20_20"))

	u, err := suite.store.GetUser(suite.ctx, 1)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "method_60_20_20", u.Method)

	// Inserting again replaces the whole row
	require.NoError(suite.T(), suite.store.UpsertUser(suite.ctx, 1, "alice", decimal.NewFromInt(200)))

	u, err = suite.store.GetUser(suite.ctx, 1)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), u.Method)
	assert.Equal(suite.T(), "alice", u.Username)
	assert.True(suite.T(), u.Income.Equal(decimal.NewFromInt(200)))
}

func (suite *LedgerTestSuite) TestAddListSumExpenses() {
	lines := []models.ExpenseLine{
		{Name: "Аренда", Amount: decimal.NewFromInt(25000)},
		{Name: "Кредит", Amount: decimal.NewFromInt(10000)},
	}
	require.NoError(suite.T(), suite.store.AddExpenses(suite.ctx, 1, lines))
	require.NoError(suite.T(), suite.store.AddExpenses(suite.ctx, 1, []models.ExpenseLine{
		{Name: "Связь", Amount: decimal.RequireFromString("499.5")},
	}))
	require.NoError(suite.T(), suite.store.AddExpenses(suite.ctx, 2, []models.ExpenseLine{
		{Name: "Other user", Amount: decimal.NewFromInt(1)},
	}))

	expenses, err := suite.store.ListExpenses(suite.ctx, 1)
	require.NoError(suite.T(), err)
	if assert.Len(suite.T(), expenses, 3) {
		assert.Equal(suite.T(), "Аренда", expenses[0].Name)
		assert.Equal(suite.T(), "Кредит", expenses[1].Name)
		assert.Equal(suite.T(), "Связь", expenses[2].Name)
		assert.Less(suite.T(), expenses[0].ID, expenses[1].ID)
		assert.Less(suite.T(), expenses[1].ID, expenses[2].ID)
	}

	total, err := suite.store.SumExpenses(suite.ctx, 1)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "35499.5", total.String())
}

func (suite *LedgerTestSuite) TestFractionalSumMatchesList() {
	require.NoError(suite.T(), suite.store.AddExpenses(suite.ctx, 1, []models.ExpenseLine{
		{Name: "A", Amount: decimal.RequireFromString("0.1")},
		{Name: "B", Amount: decimal.RequireFromString("0.2")},
	}))

	expenses, err := suite.store.ListExpenses(suite.ctx, 1)
	require.NoError(suite.T(), err)
	listed := decimal.Zero
	for _, e := range expenses {
		listed = listed.Add(e.Amount)
	}

	total, err := suite.store.SumExpenses(suite.ctx, 1)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "0.3", total.String())
	assert.True(suite.T(), listed.Equal(total), "list adds up to %s, sum is %s", listed, total)
}

func (suite *LedgerTestSuite) TestNonFiniteAmountsRejected() {
	huge := decimal.RequireFromString("1e400")

	err := suite.store.UpsertUser(suite.ctx, 1, "alice", huge)
	assert.ErrorIs(suite.T(), err, ErrAmountNotStorable)
	_, err = suite.store.GetUserIncome(suite.ctx, 1)
	assert.ErrorIs(suite.T(), err, ErrUserNotFound)

	err = suite.store.AddExpenses(suite.ctx, 1, []models.ExpenseLine{
		{Name: "Аренда", Amount: decimal.NewFromInt(25000)},
		{Name: "Яхта", Amount: huge.Neg()},
	})
	assert.ErrorIs(suite.T(), err, ErrAmountNotStorable)

	expenses, err := suite.store.ListExpenses(suite.ctx, 1)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), expenses, "a rejected batch must not be partially stored")
}

func (suite *LedgerTestSuite) TestSumWithoutExpensesIsZero() {
	total, err := suite.store.SumExpenses(suite.ctx, 7)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), total.IsZero())
}

func (suite *LedgerTestSuite) TestNegativeAndZeroAmounts() {
	require.NoError(suite.T(), suite.store.AddExpenses(suite.ctx, 1, []models.ExpenseLine{
		{Name: "Возврат", Amount: decimal.NewFromInt(-500)},
		{Name: "Ничего", Amount: decimal.Zero},
		{Name: "Кредит", Amount: decimal.NewFromInt(1500)},
	}))

	total, err := suite.store.SumExpenses(suite.ctx, 1)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), total.Equal(decimal.NewFromInt(1000)), "got %s", total)
}

func (suite *LedgerTestSuite) TestClearExpensesKeepsIncome() {
	require.NoError(suite.T(), suite.store.UpsertUser(suite.ctx, 1, "alice", decimal.NewFromInt(100000)))
	require.NoError(suite.T(), suite.store.AddExpenses(suite.ctx, 1, []models.ExpenseLine{
		{Name: "Аренда", Amount: decimal.NewFromInt(25000)},
	}))

	require.NoError(suite.T(), suite.store.ClearExpenses(suite.ctx, 1))

	expenses, err := suite.store.ListExpenses(suite.ctx, 1)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), expenses)

	income, err := suite.store.GetUserIncome(suite.ctx, 1)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), income.Equal(decimal.NewFromInt(100000)))
}

func (suite *LedgerTestSuite) TestClearUserRemovesEverything() {
	require.NoError(suite.T(), suite.store.UpsertUser(suite.ctx, 1, "alice", decimal.NewFromInt(100000)))
	require.NoError(suite.T(), suite.store.UpsertUser(suite.ctx, 2, "bob", decimal.NewFromInt(5000)))
	require.NoError(suite.T(), suite.store.AddExpenses(suite.ctx, 1, []models.ExpenseLine{
		{Name: "Аренда", Amount: decimal.NewFromInt(25000)},
	}))
	require.NoError(suite.T(), suite.store.AddExpenses(suite.ctx, 2, []models.ExpenseLine{
		{Name: "Кредит", Amount: decimal.NewFromInt(100)},
	}))

	require.NoError(suite.T(), suite.store.ClearUser(suite.ctx, 1))

	_, err := suite.store.GetUserIncome(suite.ctx, 1)
	assert.ErrorIs(suite.T(), err, ErrUserNotFound)
	expenses, err := suite.store.ListExpenses(suite.ctx, 1)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), expenses)

	// Other users are untouched
	expenses, err = suite.store.ListExpenses(suite.ctx, 2)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), expenses, 1)
	_, err = suite.store.GetUserIncome(suite.ctx, 2)
	assert.NoError(suite.T(), err)
}

func (suite *LedgerTestSuite) TestClearUnknownUserIsNoop() {
	assert.NoError(suite.T(), suite.store.ClearUser(suite.ctx, 99))
	assert.NoError(suite.T(), suite.store.ClearExpenses(suite.ctx, 99))
}

// Test suite runners
func TestSQLiteLedgerSuite(t *testing.T) {
	suite.Run(t, &LedgerTestSuite{open: func() (ledger, func()) {
		db, err := NewDB(":memory:")
		require.NoError(t, err, "failed to create test database")
		return db, func() { db.Close() }
	}})
}

func TestMemoryLedgerSuite(t *testing.T) {
	suite.Run(t, &LedgerTestSuite{open: func() (ledger, func()) {
		return NewMemory(), nil
	}})
}

func TestNewDB_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_data.db")
	ctx := context.Background()

	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.UpsertUser(ctx, 1, "alice", decimal.NewFromInt(100)))
	require.NoError(t, db.Close())

	// Second open must not fail on the already applied schema
	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	income, err := db.GetUserIncome(ctx, 1)
	require.NoError(t, err)
	assert.True(t, income.Equal(decimal.NewFromInt(100)))
}

func TestNewDB_InvalidPath(t *testing.T) {
	// A directory cannot be opened as a database file
	_, err := NewDB(t.TempDir())
	assert.Error(t, err)
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"budget-bot/internal/models"

	"github.com/shopspring/decimal"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

var (
	// ErrUserNotFound is returned when a user has no stored income row.
	ErrUserNotFound = errors.New("user not found")
	// ErrAmountNotStorable is returned for amounts that have no finite REAL form.
	ErrAmountNotStorable = errors.New("amount not storable")
)

// toReal converts an amount to the REAL column value.
func toReal(d decimal.Decimal) (float64, error) {
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %s", ErrAmountNotStorable, d)
	}
	return f, nil
}

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and creates the schema if needed.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// :memory: databases exist per connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	if err := RunMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// UpsertUser replaces the whole user row. A previously chosen method is dropped.
func (db *DB) UpsertUser(ctx context.Context, userID int64, username string, income decimal.Decimal) error {
	value, err := toReal(income)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO users (user_id, username, income) VALUES (?, ?, ?)",
		userID, username, value,
	)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", userID, err)
	}
	return nil
}

// GetUser retrieves the full user row.
func (db *DB) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT user_id, username, income, method FROM users WHERE user_id = ?",
		userID,
	)

	var (
		u        models.User
		username sql.NullString
		income   decimal.NullDecimal
		method   sql.NullString
	)
	if err := row.Scan(&u.ID, &username, &income, &method); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	u.Username = username.String
	u.Income = income.Decimal
	u.Method = method.String
	return &u, nil
}

// GetUserIncome returns the stored income for a user.
func (db *DB) GetUserIncome(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var income decimal.NullDecimal
	err := db.conn.QueryRowContext(ctx, "SELECT income FROM users WHERE user_id = ?", userID).Scan(&income)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("get income of user %d: %w", userID, err)
	}
	if !income.Valid {
		return decimal.Zero, ErrUserNotFound
	}
	return income.Decimal, nil
}

// SetMethod updates only the method of an existing user.
func (db *DB) SetMethod(ctx context.Context, userID int64, method string) error {
	res, err := db.conn.ExecContext(ctx, "UPDATE users SET method = ? WHERE user_id = ?", method, userID)
	if err != nil {
		return fmt.Errorf("set method of user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set method of user %d: %w", userID, err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddExpenses appends one row per line. The batch is stored atomically.
func (db *DB) AddExpenses(ctx context.Context, userID int64, lines []models.ExpenseLine) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add expenses: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO expenses (user_id, name, amount) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare add expenses: %w", err)
	}
	defer stmt.Close()

	for _, l := range lines {
		value, err := toReal(l.Amount)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, userID, l.Name, value); err != nil {
			return fmt.Errorf("insert expense %q: %w", l.Name, err)
		}
	}

	return tx.Commit()
}

// ListExpenses returns the user's expenses in insertion order.
func (db *DB) ListExpenses(ctx context.Context, userID int64) ([]models.Expense, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, user_id, name, amount FROM expenses WHERE user_id = ? ORDER BY id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses of user %d: %w", userID, err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var (
			e    models.Expense
			name sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &name, &e.Amount); err != nil {
			return nil, err
		}
		e.Name = name.String
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

// SumExpenses returns the total of the user's expenses, zero if there are none.
// The rows are added as decimals so the total matches ListExpenses exactly.
func (db *DB) SumExpenses(ctx context.Context, userID int64) (decimal.Decimal, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT amount FROM expenses WHERE user_id = ?", userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses of user %d: %w", userID, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("sum expenses of user %d: %w", userID, err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses of user %d: %w", userID, err)
	}
	return total, nil
}

// ClearExpenses removes every expense of the user and keeps the user row.
func (db *DB) ClearExpenses(ctx context.Context, userID int64) error {
	if _, err := db.conn.ExecContext(ctx, "DELETE FROM expenses WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clear expenses of user %d: %w", userID, err)
	}
	return nil
}

// ClearUser removes the user row and all of the user's expenses.
func (db *DB) ClearUser(ctx context.Context, userID int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear user: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("delete user %d: %w", userID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("delete expenses of user %d: %w", userID, err)
	}

	return tx.Commit()
}

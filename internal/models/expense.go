package models

import "github.com/shopspring/decimal"

// User holds the income and allocation method of a chat user.
type User struct {
	ID       int64           `json:"user_id"`
	Username string          `json:"username"`
	Income   decimal.Decimal `json:"income"`
	Method   string          `json:"method,omitempty"`
}

// Expense represents an obligatory payment stored for a user.
type Expense struct {
	ID     int64           `json:"id"`
	UserID int64           `json:"user_id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// ExpenseLine is a parsed "name - amount" pair not yet stored.
type ExpenseLine struct {
	Name   string
	Amount decimal.Decimal
}

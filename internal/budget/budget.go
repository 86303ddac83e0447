// Package budget derives totals and percentage-based allocations from an
// income and a sum of obligatory payments.
package budget

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrZeroIncome is returned when a share of income is requested for zero income.
	ErrZeroIncome = errors.New("income is zero")
	// ErrUnknownMethod is returned for a tag that names no allocation method.
	ErrUnknownMethod = errors.New("unknown allocation method")
)

var hundred = decimal.NewFromInt(100)

// Method is a fixed three-way split of income in whole percentages.
type Method struct {
	Tag     string
	Label   string
	MustPay int32
	Wants   int32
	Savings int32
}

// Allocation methods offered to the user.
var (
	Method503020 = Method{Tag: "method_50_30_20", Label: "50/30/20", MustPay: 50, Wants: 30, Savings: 20}
	Method602020 = Method{Tag: "method_60_20_20", Label: "60/20/20", MustPay: 60, Wants: 20, Savings: 20}
	Method402040 = Method{Tag: "method_40_20_40", Label: "40/20/40", MustPay: 40, Wants: 20, Savings: 40}
)

// Methods lists the allocation methods in display order.
var Methods = []Method{Method503020, Method602020, Method402040}

// Lookup finds a method by its tag.
func Lookup(tag string) (Method, error) {
	for _, m := range Methods {
		if m.Tag == tag {
			return m, nil
		}
	}
	return Method{}, fmt.Errorf("%w: %q", ErrUnknownMethod, tag)
}

// Summary compares income with obligatory payments.
type Summary struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Leftover decimal.Decimal
}

// Surplus reports whether income covers the payments. Zero leftover counts as surplus.
func (s Summary) Surplus() bool {
	return !s.Leftover.IsNegative()
}

// Summarize computes the leftover for income and total expenses.
func Summarize(income, expenses decimal.Decimal) Summary {
	return Summary{
		Income:   income,
		Expenses: expenses,
		Leftover: Leftover(income, expenses),
	}
}

// Leftover is income minus expenses.
func Leftover(income, expenses decimal.Decimal) decimal.Decimal {
	return income.Sub(expenses)
}

// FactPercent is the share of income taken by expenses, rounded to one decimal place.
func FactPercent(income, expenses decimal.Decimal) (decimal.Decimal, error) {
	if income.IsZero() {
		return decimal.Zero, ErrZeroIncome
	}
	return expenses.Mul(hundred).Div(income).Round(1), nil
}

// Allocation is the budget a method allows for each part, in whole units.
type Allocation struct {
	Method  Method
	MustPay decimal.Decimal
	Wants   decimal.Decimal
	Savings decimal.Decimal
}

// Split applies a method to income. Each part is rounded half away from zero.
func Split(income decimal.Decimal, m Method) Allocation {
	return Allocation{
		Method:  m,
		MustPay: share(income, m.MustPay),
		Wants:   share(income, m.Wants),
		Savings: share(income, m.Savings),
	}
}

func share(income decimal.Decimal, percent int32) decimal.Decimal {
	return income.Mul(decimal.NewFromInt32(percent)).Div(hundred).Round(0)
}

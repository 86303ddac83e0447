// Package parser turns free-text chat input into amounts and expense lines.
package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"budget-bot/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidNumberFormat is returned when text is not a decimal number.
	ErrInvalidNumberFormat = errors.New("invalid number format")
	// ErrEmptyInput is returned when an expense message has no non-blank lines.
	ErrEmptyInput = errors.New("empty input")
	// ErrMissingSeparator is returned for an expense line without "-".
	ErrMissingSeparator = errors.New("missing separator")
	// ErrAmountOutOfRange is returned for amounts that are too large or too precise to store.
	ErrAmountOutOfRange = errors.New("amount out of range")
)

// Amounts are limited so they survive a float64 round trip unchanged:
// below MaxAmount with at most MaxFractionDigits digits after the point.
const MaxFractionDigits = 2

// MaxAmount is the exclusive upper bound of an amount's magnitude.
var MaxAmount = decimal.New(1, 12)

// LineError describes an expense line that could not be parsed.
type LineError struct {
	Line string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("invalid expense line %q: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// ExpenseBatch is the result of parsing a multi-line expense message.
type ExpenseBatch struct {
	Lines  []models.ExpenseLine
	Errors []*LineError
}

// OK reports whether every line parsed.
func (b ExpenseBatch) OK() bool {
	return len(b.Errors) == 0
}

// FailedLines returns the raw text of every failing line in input order.
func (b ExpenseBatch) FailedLines() []string {
	out := make([]string, 0, len(b.Errors))
	for _, e := range b.Errors {
		out = append(out, e.Line)
	}
	return out
}

// ParseAmount parses a decimal number that may use "," as the decimal
// separator and spaces as thousands separators.
//
// Examples:
//
//	ParseAmount("100 000")  -> 100000
//	ParseAmount("1234,56")  -> 1234.56
//	ParseAmount("1.2.3")    -> ErrInvalidNumberFormat
//	ParseAmount("1e400")    -> ErrAmountOutOfRange
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Zero, ErrInvalidNumberFormat
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumberFormat, s)
	}
	if d.Abs().GreaterThanOrEqual(MaxAmount) || !d.Equal(d.Round(MaxFractionDigits)) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrAmountOutOfRange, s)
	}
	return d, nil
}

// ParseIncome parses the user's declared income.
func ParseIncome(text string) (decimal.Decimal, error) {
	return ParseAmount(text)
}

// ParseExpenses parses one "name - amount" pair per line. A failing line
// does not stop the lines after it.
func ParseExpenses(text string) (ExpenseBatch, error) {
	var batch ExpenseBatch
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		parsed, err := parseExpenseLine(line)
		if err != nil {
			batch.Errors = append(batch.Errors, &LineError{Line: line, Err: err})
			continue
		}
		batch.Lines = append(batch.Lines, parsed)
	}

	if len(batch.Lines) == 0 && len(batch.Errors) == 0 {
		return batch, ErrEmptyInput
	}
	return batch, nil
}

func parseExpenseLine(line string) (models.ExpenseLine, error) {
	name, amount, found := strings.Cut(line, "-")
	if !found {
		return models.ExpenseLine{}, ErrMissingSeparator
	}

	value, err := ParseAmount(amount)
	if err != nil {
		return models.ExpenseLine{}, err
	}

	return models.ExpenseLine{Name: strings.TrimSpace(name), Amount: value}, nil
}

package handlers

import (
	"fmt"
	"strings"

	"budget-bot/internal/budget"
	"budget-bot/internal/models"

	"github.com/shopspring/decimal"
)

func formatAmount(d decimal.Decimal) string {
	return d.String()
}

// expenseReceipt lists the stored payments with their total.
func expenseReceipt(expenses []models.Expense, total decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("📋 Я записал твои платежи:\n")
	for _, e := range expenses {
		fmt.Fprintf(&b, "- %s: %s\n", e.Name, formatAmount(e.Amount))
	}
	fmt.Fprintf(&b, "Итого: %s", formatAmount(total))
	return b.String()
}

func surplusSign(s budget.Summary) string {
	if s.Surplus() {
		return "🟢"
	}
	return "🔴"
}

// confirmationSummary compares income with the confirmed payments.
func confirmationSummary(s budget.Summary) string {
	return fmt.Sprintf("💰 Доход: %s\n💸 Обязательные платежи: %s\n%s Остаток: %s",
		formatAmount(s.Income),
		formatAmount(s.Expenses),
		surplusSign(s),
		formatAmount(s.Leftover),
	)
}

// allocationReport shows how the chosen method splits income next to the actual payments.
func allocationReport(s budget.Summary, a budget.Allocation) string {
	var b strings.Builder

	// Income is validated as positive on entry; the line is skipped otherwise.
	if pct, err := budget.FactPercent(s.Income, s.Expenses); err == nil {
		fmt.Fprintf(&b, "📊 Твои расходы = %s%% от дохода\n", pct.StringFixed(1))
	}
	fmt.Fprintf(&b, "Ты выбрал метод %s\n\n", a.Method.Label)

	b.WriteString("✅ Итоговое распределение:\n")
	fmt.Fprintf(&b, "- Обязательные платежи: %s (по методу допускается %s)\n",
		formatAmount(s.Expenses), formatAmount(a.MustPay))
	fmt.Fprintf(&b, "- Желания: %s\n", formatAmount(a.Wants))
	fmt.Fprintf(&b, "- Накопления: %s\n", formatAmount(a.Savings))

	if s.Surplus() {
		fmt.Fprintf(&b, "🟢 У тебя остаётся %s\n", formatAmount(s.Leftover))
	} else {
		fmt.Fprintf(&b, "🔴 Расходы превышают доходы на %s\n", formatAmount(s.Leftover.Abs()))
	}

	b.WriteString("\nХочешь разобрать, на что уходят деньги сверх обязательных платежей?")
	return b.String()
}

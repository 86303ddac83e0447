package handlers

import "budget-bot/internal/budget"

// Button is an inline option; Data is the action tag sent back when pressed.
type Button struct {
	Text string
	Data string
}

// Action tags carried by button presses.
const (
	ActionStartIncome     = "start_income"
	ActionNext            = "next"
	ActionBack            = "back"
	ActionConfirmExpenses = "confirm_expenses"
	ActionEditExpenses    = "edit_expenses"
	ActionRestart         = "restart"
	ActionReflectionYes   = "reflection_yes"
	ActionReflectionNo    = "reflection_no"
)

var restartRow = []Button{{Text: "🔄 Начать сначала", Data: ActionRestart}}

func startKeyboard() [][]Button {
	return [][]Button{
		{{Text: "Поехали", Data: ActionStartIncome}},
	}
}

func nextKeyboard() [][]Button {
	return [][]Button{
		{{Text: "Далее", Data: ActionNext}},
		{{Text: "🔙 Назад", Data: ActionBack}},
		restartRow,
	}
}

func confirmKeyboard() [][]Button {
	return [][]Button{
		{{Text: "✅ Всё верно", Data: ActionConfirmExpenses}},
		{{Text: "✏️ Изменить", Data: ActionEditExpenses}},
		restartRow,
	}
}

func methodKeyboard() [][]Button {
	rows := make([][]Button, 0, len(budget.Methods)+1)
	for _, m := range budget.Methods {
		rows = append(rows, []Button{{Text: m.Label, Data: m.Tag}})
	}
	return append(rows, restartRow)
}

func reflectionKeyboard() [][]Button {
	return [][]Button{
		{{Text: "Да", Data: ActionReflectionYes}},
		{{Text: "Нет", Data: ActionReflectionNo}},
		restartRow,
	}
}

// keyboardFor returns the options shown while the user is in state.
func keyboardFor(state State) [][]Button {
	switch state {
	case StateIncome, StateExpenses:
		return nextKeyboard()
	case StateConfirmExpenses:
		return confirmKeyboard()
	case StateMethod:
		return methodKeyboard()
	case StateReflection:
		return reflectionKeyboard()
	default:
		return startKeyboard()
	}
}

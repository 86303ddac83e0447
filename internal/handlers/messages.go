package handlers

const (
	msgGreeting = "Привет! Я помогу распределить твой бюджет!"
	msgRestart  = "🔄 Начнём заново!"

	msgAskIncome = "Введи сумму дохода. В формате: 100000"
	msgAskExpenses = "Какие у тебя обязательные платежи?\n" +
		"Введи каждый платёж с новой строки в формате: название - сумма\n" +
		"Пример:\nАренда - 25 000\nКредит - 10 000"
	msgAskExpensesAgain = "Введи платежи заново:"

	msgInvalidIncome     = "Неверный формат: %s\nВведи число, например: 100000"
	msgNonPositiveIncome = "Доход должен быть больше нуля. Введи число, например: 100000"
	msgIncomeOutOfRange  = "Слишком большое или слишком точное число. " +
		"Доход должен быть меньше 1 000 000 000 000 и иметь не больше двух знаков после запятой."
	msgInvalidExpenses   = "Некоторые строки не удалось распознать:\n%s\nИспользуй формат: Название - сумма"
	msgEmptyExpenses     = "Не вижу ни одного платежа. Введи каждый платёж с новой строки в формате: название - сумма"

	msgReflectionYes = "🚀 Данный раздел в разработке. Мы обязательно оповестим тебя о новом функционале!"
	msgReflectionNo  = "👍 Главное — ты сделал первый шаг к управлению финансами. " +
		"Возвращайся, когда захочешь снова распределить бюджет 💰"

	msgPressStart    = "Нажми /start, чтобы начать."
	msgUseButtons    = "Воспользуйся кнопками ниже 👇"
	msgStaleButton   = "Эта кнопка сейчас не активна."
	msgMissingIncome = "Не нашёл твой доход. Давай начнём заново."
	msgInternalError = "Что-то пошло не так. Попробуй ещё раз."
)

package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"budget-bot/internal/budget"
	"budget-bot/internal/models"
	"budget-bot/internal/parser"
	"budget-bot/internal/storage"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CommandStart opens the wizard from any state.
const CommandStart = "/start"

const (
	tagText         = "text"
	defaultUsername = "unknown"
)

// Ledger persists the user's income, method and obligatory payments.
type Ledger interface {
	UpsertUser(ctx context.Context, userID int64, username string, income decimal.Decimal) error
	GetUserIncome(ctx context.Context, userID int64) (decimal.Decimal, error)
	SetMethod(ctx context.Context, userID int64, method string) error
	AddExpenses(ctx context.Context, userID int64, lines []models.ExpenseLine) error
	ListExpenses(ctx context.Context, userID int64) ([]models.Expense, error)
	SumExpenses(ctx context.Context, userID int64) (decimal.Decimal, error)
	ClearExpenses(ctx context.Context, userID int64) error
	ClearUser(ctx context.Context, userID int64) error
}

// EventKind distinguishes the inbound event types.
type EventKind int

const (
	EventCommand EventKind = iota
	EventText
	EventAction
)

// Event is one inbound user interaction.
type Event struct {
	UserID   int64
	Username string
	Kind     EventKind
	// Payload is the command ("/start"), the message text or the button tag.
	Payload string
}

func (e Event) tag() string {
	switch e.Kind {
	case EventText:
		return tagText
	case EventCommand:
		return strings.ToLower(strings.TrimSpace(e.Payload))
	default:
		return e.Payload
	}
}

// Reply is the response to a single event.
type Reply struct {
	Text     string
	Keyboard [][]Button
}

type handlerFunc func(ctx context.Context, ev Event) Reply

type route struct {
	state State
	tag   string
}

// Handlers drives the budgeting wizard.
type Handlers struct {
	db       Ledger
	sessions *Sessions
	log      *zap.SugaredLogger
	routes   map[route]handlerFunc
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db Ledger, log *zap.SugaredLogger) *Handlers {
	h := &Handlers{
		db:       db,
		sessions: NewSessions(),
		log:      log,
	}

	h.routes = map[route]handlerFunc{
		{StateNone, ActionStartIncome}: h.askIncome,

		{StateIncome, tagText}:    h.saveIncome,
		{StateIncome, ActionNext}: h.repeatPrompt,
		{StateIncome, ActionBack}: h.backToStart,

		{StateExpenses, tagText}:    h.saveExpenses,
		{StateExpenses, ActionNext}: h.repeatPrompt,
		{StateExpenses, ActionBack}: h.askIncome,

		{StateConfirmExpenses, ActionConfirmExpenses}: h.confirmExpenses,
		{StateConfirmExpenses, ActionEditExpenses}:    h.editExpenses,

		{StateReflection, ActionReflectionYes}: h.reflect,
		{StateReflection, ActionReflectionNo}:  h.reflect,
	}
	for _, m := range budget.Methods {
		h.routes[route{StateMethod, m.Tag}] = h.chooseMethod
	}

	return h
}

// State returns the user's current wizard state.
func (h *Handlers) State(userID int64) State {
	return h.sessions.Get(userID)
}

// Handle processes one event and returns the reply to send. Errors never
// escape a turn: they are logged and reported to the user as plain text.
func (h *Handlers) Handle(ctx context.Context, ev Event) Reply {
	tag := ev.tag()

	switch tag {
	case CommandStart:
		return h.start(ctx, ev)
	case ActionRestart:
		return h.restart(ctx, ev)
	}

	state := h.sessions.Get(ev.UserID)
	if fn, ok := h.routes[route{state, tag}]; ok {
		return fn(ctx, ev)
	}
	return h.fallback(ev, state)
}

func (h *Handlers) transition(userID int64, to State) {
	from := h.sessions.Get(userID)
	h.sessions.Set(userID, to)
	h.log.Debugw("state transition", "user_id", userID, "from", from.String(), "to", to.String(),
		"active_sessions", h.sessions.Len())
}

func (h *Handlers) start(_ context.Context, ev Event) Reply {
	h.transition(ev.UserID, StateNone)
	return Reply{Text: msgGreeting, Keyboard: startKeyboard()}
}

func (h *Handlers) restart(ctx context.Context, ev Event) Reply {
	if err := h.db.ClearUser(ctx, ev.UserID); err != nil {
		return h.internalError(ev, "clear user", err)
	}
	h.transition(ev.UserID, StateNone)
	return Reply{Text: msgRestart, Keyboard: startKeyboard()}
}

func (h *Handlers) backToStart(_ context.Context, ev Event) Reply {
	h.transition(ev.UserID, StateNone)
	return Reply{Text: msgGreeting, Keyboard: startKeyboard()}
}

func (h *Handlers) askIncome(_ context.Context, ev Event) Reply {
	h.transition(ev.UserID, StateIncome)
	return Reply{Text: msgAskIncome, Keyboard: nextKeyboard()}
}

func (h *Handlers) repeatPrompt(_ context.Context, ev Event) Reply {
	text := msgAskIncome
	if h.sessions.Get(ev.UserID) == StateExpenses {
		text = msgAskExpenses
	}
	return Reply{Text: text, Keyboard: nextKeyboard()}
}

func (h *Handlers) saveIncome(ctx context.Context, ev Event) Reply {
	income, err := parser.ParseIncome(ev.Payload)
	if errors.Is(err, parser.ErrAmountOutOfRange) {
		h.log.Debugw("income out of range", "user_id", ev.UserID, "error", err)
		return Reply{Text: msgIncomeOutOfRange, Keyboard: nextKeyboard()}
	}
	if err != nil {
		h.log.Debugw("invalid income", "user_id", ev.UserID, "error", err)
		return Reply{Text: fmt.Sprintf(msgInvalidIncome, ev.Payload), Keyboard: nextKeyboard()}
	}
	if !income.IsPositive() {
		return Reply{Text: msgNonPositiveIncome, Keyboard: nextKeyboard()}
	}

	username := ev.Username
	if username == "" {
		username = defaultUsername
	}

	// A new income starts a new attempt; payments from an earlier one are dropped.
	if err := h.db.ClearUser(ctx, ev.UserID); err != nil {
		return h.internalError(ev, "clear user", err)
	}
	if err := h.db.UpsertUser(ctx, ev.UserID, username, income); err != nil {
		return h.internalError(ev, "upsert user", err)
	}

	h.transition(ev.UserID, StateExpenses)
	return Reply{Text: msgAskExpenses, Keyboard: nextKeyboard()}
}

func (h *Handlers) saveExpenses(ctx context.Context, ev Event) Reply {
	batch, err := parser.ParseExpenses(ev.Payload)
	if errors.Is(err, parser.ErrEmptyInput) {
		return Reply{Text: msgEmptyExpenses, Keyboard: nextKeyboard()}
	}
	if !batch.OK() {
		h.log.Debugw("invalid expense lines", "user_id", ev.UserID, "failed", len(batch.Errors))
		text := fmt.Sprintf(msgInvalidExpenses, strings.Join(batch.FailedLines(), "\n"))
		return Reply{Text: text, Keyboard: nextKeyboard()}
	}

	if err := h.db.AddExpenses(ctx, ev.UserID, batch.Lines); err != nil {
		return h.internalError(ev, "add expenses", err)
	}

	expenses, err := h.db.ListExpenses(ctx, ev.UserID)
	if err != nil {
		return h.internalError(ev, "list expenses", err)
	}
	total, err := h.db.SumExpenses(ctx, ev.UserID)
	if err != nil {
		return h.internalError(ev, "sum expenses", err)
	}

	h.transition(ev.UserID, StateConfirmExpenses)
	return Reply{Text: expenseReceipt(expenses, total), Keyboard: confirmKeyboard()}
}

func (h *Handlers) confirmExpenses(ctx context.Context, ev Event) Reply {
	summary, err := h.summarize(ctx, ev.UserID)
	if err != nil {
		return h.storageError(ctx, ev, "summarize", err)
	}

	h.transition(ev.UserID, StateMethod)
	return Reply{Text: confirmationSummary(summary), Keyboard: methodKeyboard()}
}

func (h *Handlers) editExpenses(ctx context.Context, ev Event) Reply {
	if err := h.db.ClearExpenses(ctx, ev.UserID); err != nil {
		return h.internalError(ev, "clear expenses", err)
	}

	h.transition(ev.UserID, StateExpenses)
	return Reply{Text: msgAskExpensesAgain, Keyboard: nextKeyboard()}
}

func (h *Handlers) chooseMethod(ctx context.Context, ev Event) Reply {
	method, err := budget.Lookup(ev.Payload)
	if err != nil {
		return h.fallback(ev, StateMethod)
	}

	summary, err := h.summarize(ctx, ev.UserID)
	if err != nil {
		return h.storageError(ctx, ev, "summarize", err)
	}
	if err := h.db.SetMethod(ctx, ev.UserID, method.Tag); err != nil {
		return h.storageError(ctx, ev, "set method", err)
	}

	h.transition(ev.UserID, StateReflection)
	return Reply{
		Text:     allocationReport(summary, budget.Split(summary.Income, method)),
		Keyboard: reflectionKeyboard(),
	}
}

func (h *Handlers) reflect(_ context.Context, ev Event) Reply {
	text := msgReflectionNo
	if ev.Payload == ActionReflectionYes {
		text = msgReflectionYes
	}

	h.transition(ev.UserID, StateNone)
	return Reply{Text: text}
}

func (h *Handlers) summarize(ctx context.Context, userID int64) (budget.Summary, error) {
	income, err := h.db.GetUserIncome(ctx, userID)
	if err != nil {
		return budget.Summary{}, err
	}
	total, err := h.db.SumExpenses(ctx, userID)
	if err != nil {
		return budget.Summary{}, err
	}
	return budget.Summarize(income, total), nil
}

// fallback answers events that have no route in the current state.
func (h *Handlers) fallback(ev Event, state State) Reply {
	prefix := ""
	if ev.Kind == EventAction {
		prefix = msgStaleButton + "\n"
	}

	switch state {
	case StateNone:
		return Reply{Text: prefix + msgPressStart}
	case StateIncome:
		return Reply{Text: prefix + msgAskIncome, Keyboard: nextKeyboard()}
	case StateExpenses:
		return Reply{Text: prefix + msgAskExpenses, Keyboard: nextKeyboard()}
	default:
		return Reply{Text: prefix + msgUseButtons, Keyboard: keyboardFor(state)}
	}
}

// storageError treats a missing user row as lost progress and restarts the wizard.
func (h *Handlers) storageError(ctx context.Context, ev Event, op string, err error) Reply {
	if !errors.Is(err, storage.ErrUserNotFound) {
		return h.internalError(ev, op, err)
	}

	h.log.Warnw("user row missing", "user_id", ev.UserID, "op", op)
	if err := h.db.ClearUser(ctx, ev.UserID); err != nil {
		h.log.Errorw("clear user failed", "user_id", ev.UserID, "error", err)
	}
	h.transition(ev.UserID, StateNone)
	return Reply{Text: msgMissingIncome, Keyboard: startKeyboard()}
}

func (h *Handlers) internalError(ev Event, op string, err error) Reply {
	state := h.sessions.Get(ev.UserID)
	h.log.Errorw("storage failure", "user_id", ev.UserID, "op", op, "state", state.String(), "error", err)
	return Reply{Text: msgInternalError, Keyboard: keyboardFor(state)}
}

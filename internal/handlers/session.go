package handlers

import "sync"

// State is a step of the budgeting wizard.
type State string

// Wizard states. StateNone means the user has no active session.
const (
	StateNone            State = ""
	StateIncome          State = "income"
	StateExpenses        State = "expenses"
	StateConfirmExpenses State = "confirm_expenses"
	StateMethod          State = "method"
	StateReflection      State = "reflection"
)

func (s State) String() string {
	if s == StateNone {
		return "none"
	}
	return string(s)
}

// Sessions keeps the current wizard state per user in process memory.
// States are lost when the process restarts.
type Sessions struct {
	mu     sync.Mutex
	states map[int64]State
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{states: make(map[int64]State)}
}

// Get returns the user's state, StateNone if there is no session.
func (s *Sessions) Get(userID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[userID]
}

// Set moves the user to a state. Setting StateNone ends the session.
func (s *Sessions) Set(userID int64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == StateNone {
		delete(s.states, userID)
		return
	}
	s.states[userID] = state
}

// Len returns the number of active sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// Package engine contains the per-symbol state machine, the entry pipeline
// and the trading loop that drives them.
package engine

import (
	"trade-engine-go/internal/logger"
	"trade-engine-go/internal/models"
)

// State is one step of the per-symbol trading lifecycle.
type State string

const (
	StateIdle         State = "IDLE"
	StateEval         State = "EVAL"
	StateEntryPending State = "ENTRY_PENDING"
	StateInPosition   State = "IN_POSITION"
	StateExitPending  State = "EXIT_PENDING"
)

// StateMachine sequences one symbol through
// IDLE -> EVAL -> ENTRY_PENDING -> IN_POSITION -> EXIT_PENDING -> IDLE.
// Transitions are unconditional; callers enforce legality. The machine also
// carries the per-cycle context: the cached TradePlan while an entry is
// pending and the open trade id while a position exists.
type StateMachine struct {
	symbol      string
	state       State
	plan        *models.TradePlan // consumed exactly once by ENTRY_PENDING
	openTradeID string
}

func NewStateMachine(symbol string) *StateMachine {
	return &StateMachine{symbol: symbol, state: StateIdle}
}

func (m *StateMachine) Symbol() string { return m.symbol }
func (m *StateMachine) State() State   { return m.state }

// TransitionTo moves the machine to next unconditionally.
func (m *StateMachine) TransitionTo(next State) {
	logger.S().Debugf("[%s] %s -> %s", m.symbol, m.state, next)
	m.state = next
}

// Reset forces the machine back to IDLE from any state and clears the cycle
// context. Callers must not reset out of ENTRY_PENDING or EXIT_PENDING
// without having executed (or confirmed the absence of) the external side
// effect; doing so is a caller bug that must be surfaced loudly.
func (m *StateMachine) Reset(reason string) {
	if m.state != StateIdle {
		logger.S().Warnf("[%s] reset to IDLE from %s: %s", m.symbol, m.state, reason)
	}
	m.state = StateIdle
	m.plan = nil
}

// SetPlan caches the plan to be consumed by the ENTRY_PENDING step.
func (m *StateMachine) SetPlan(p *models.TradePlan) { m.plan = p }

// TakePlan returns and clears the cached plan.
func (m *StateMachine) TakePlan() *models.TradePlan {
	p := m.plan
	m.plan = nil
	return p
}

// SetOpenTrade records the id of the position this symbol holds.
func (m *StateMachine) SetOpenTrade(id string) { m.openTradeID = id }

// OpenTrade returns the held trade id, empty when flat.
func (m *StateMachine) OpenTrade() string { return m.openTradeID }

// ClearOpenTrade drops the held trade id after the position closes.
func (m *StateMachine) ClearOpenTrade() { m.openTradeID = "" }

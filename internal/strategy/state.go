// Package strategy holds the trading state shared by the two FIX sessions
// and the threshold-crossing decision engine driven by market data ticks.
package strategy

import "sync"

// Side is the strategy's directional position.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// State is the single strategy record shared across the market data and
// order entry sessions for the lifetime of the process. activeOrderID and
// side are set and cleared together; only the engine writes them. The order
// entry session only ever writes the logon readiness gate. All access goes
// through the mutex, which is never held across a network send.
type State struct {
	mu sync.Mutex

	referencePrice float64
	activeOrderID  string
	side           Side
	oeLogonReady   bool
}

// NewState creates the shared state around a fixed reference price.
func NewState(referencePrice float64) *State {
	return &State{referencePrice: referencePrice}
}

// SetOrderEntryReady opens the readiness gate. It is never closed again
// within a process lifetime.
func (s *State) SetOrderEntryReady() {
	s.mu.Lock()
	s.oeLogonReady = true
	s.mu.Unlock()
}

// OrderEntryReady reports whether the order entry session has logged on.
func (s *State) OrderEntryReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.oeLogonReady
}

// Position returns the currently recorded order id and side. Both are zero
// when the strategy holds no position.
func (s *State) Position() (orderID string, side Side) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeOrderID, s.side
}

// ReferencePrice returns the price band anchor fixed at construction.
func (s *State) ReferencePrice() float64 {
	return s.referencePrice
}

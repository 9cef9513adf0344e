package strategy

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ismaiel54/fix-trading-bot/internal/fix"
)

// Band multipliers applied to the reference price at evaluation. The
// thresholds never adapt to live data.
const (
	sellBand = 1.01
	buyBand  = 0.99
)

// Tick is one best bid/offer update from the market data stream.
type Tick struct {
	Symbol    string
	EntryType string // fix.EntryTypeBid or fix.EntryTypeAsk
	Price     float64
	Qty       float64
}

// InstructionKind distinguishes cancels from new orders.
type InstructionKind int

const (
	InstructionCancel InstructionKind = iota
	InstructionNew
)

// Instruction is one order message the engine wants transmitted.
// Instructions come back in send order: the cancel for the prior order,
// when one exists, always precedes its replacement.
type Instruction struct {
	Kind        InstructionKind
	ClOrdID     string
	OrigClOrdID string // cancels only
	Symbol      string
	Side        Side // new orders only
	Qty         float64
	Price       float64
}

// Engine evaluates ticks against the shared state and decides when to flip
// position.
type Engine struct {
	state  *State
	qty    float64
	logger *zap.Logger
}

// NewEngine creates an engine placing orders of the given fixed quantity.
func NewEngine(state *State, orderQty float64, logger *zap.Logger) *Engine {
	return &Engine{state: state, qty: orderQty, logger: logger}
}

// Evaluate applies the threshold rules to one tick and returns the order
// instructions to transmit, already recorded in the shared state. The state
// lock covers the decision and the position update only; callers perform
// the actual sends after it is released. With the readiness gate closed,
// ticks are observed but produce no order traffic.
func (e *Engine) Evaluate(tick Tick) []Instruction {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()

	if !e.state.oeLogonReady {
		e.logger.Info("order entry session not ready, observing only",
			zap.String("symbol", tick.Symbol),
			zap.Float64("price", tick.Price),
		)
		return nil
	}

	sellThreshold := e.state.referencePrice * sellBand
	buyThreshold := e.state.referencePrice * buyBand

	var out []Instruction

	// The two branches run independently on purpose: each reads the side
	// the other may have just written.
	if tick.EntryType == fix.EntryTypeBid && tick.Price > sellThreshold && e.state.side != SideSell {
		out = append(out, e.flip(tick, SideSell)...)
	}
	if tick.EntryType == fix.EntryTypeAsk && tick.Price < buyThreshold && e.state.side != SideBuy {
		out = append(out, e.flip(tick, SideBuy)...)
	}

	return out
}

// flip records the new position and returns the cancel for any active order
// followed by the replacement. The cancel is fire and forget; nothing waits
// for its acknowledgment. Caller holds the state lock.
func (e *Engine) flip(tick Tick, side Side) []Instruction {
	var out []Instruction

	if e.state.activeOrderID != "" {
		out = append(out, Instruction{
			Kind:        InstructionCancel,
			ClOrdID:     uuid.New().String(),
			OrigClOrdID: e.state.activeOrderID,
			Symbol:      tick.Symbol,
		})
	}

	clOrdID := uuid.New().String()
	out = append(out, Instruction{
		Kind:    InstructionNew,
		ClOrdID: clOrdID,
		Symbol:  tick.Symbol,
		Side:    side,
		Qty:     e.qty,
		Price:   tick.Price,
	})

	e.state.activeOrderID = clOrdID
	e.state.side = side

	e.logger.Info("strategy signal",
		zap.String("side", string(side)),
		zap.Float64("price", tick.Price),
		zap.Float64("qty", tick.Qty),
		zap.String("symbol", tick.Symbol),
		zap.String("cl_ord_id", clOrdID),
	)

	return out
}

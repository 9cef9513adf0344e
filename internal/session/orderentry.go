package session

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ismaiel54/fix-trading-bot/internal/fix"
	"github.com/ismaiel54/fix-trading-bot/internal/journal"
	"github.com/ismaiel54/fix-trading-bot/internal/observability"
	"github.com/ismaiel54/fix-trading-bot/internal/strategy"
)

// OEState enumerates the order entry session's protocol states.
type OEState int

const (
	OEConnecting OEState = iota
	OEAwaitingLogonAck
	OEDemo
	OEStreaming
	OETerminated
)

// OrderEntryConfig wires an order entry session.
type OrderEntryConfig struct {
	TargetCompID string
	Username     string
	Key          ed25519.PrivateKey
	Symbol       string

	// Demo order parameters: a fixed limit order submitted after logon and
	// canceled after CancelDelay.
	DemoQty     float64
	DemoPrice   float64
	CancelDelay time.Duration

	Dial    DialFunc
	State   *strategy.State
	Journal *journal.Store               // optional
	Health  *observability.HealthChecker // optional
	Logger  *zap.Logger
}

// OrderEntrySession owns the order entry connection. After logon it opens
// the strategy's readiness gate and runs a fixed demonstration order/cancel
// round trip as a live self-test, then keeps reading execution reports. The
// demo flow is independent of, and not synchronized with, the strategy's
// orders.
type OrderEntrySession struct {
	identity    Identity
	key         ed25519.PrivateKey
	username    string
	symbol      string
	demoQty     float64
	demoPrice   float64
	cancelDelay time.Duration
	dial        DialFunc

	mu   sync.Mutex
	conn *Conn

	strategy *strategy.State
	journal  *journal.Store
	health   *observability.HealthChecker
	logger   *zap.Logger

	state OEState
}

// NewOrderEntrySession creates an order entry session with a fresh sender
// comp id.
func NewOrderEntrySession(cfg OrderEntryConfig) *OrderEntrySession {
	return &OrderEntrySession{
		identity:    Identity{SenderCompID: NewSenderCompID(), TargetCompID: cfg.TargetCompID},
		key:         cfg.Key,
		username:    cfg.Username,
		symbol:      cfg.Symbol,
		demoQty:     cfg.DemoQty,
		demoPrice:   cfg.DemoPrice,
		cancelDelay: cfg.CancelDelay,
		dial:        cfg.Dial,
		strategy:    cfg.State,
		journal:     cfg.Journal,
		health:      cfg.Health,
		logger:      cfg.Logger.With(zap.String("session", "order-entry")),
		state:       OEConnecting,
	}
}

// State returns the session's current protocol state.
func (s *OrderEntrySession) State() OEState {
	return s.state
}

// Send routes a message over this session's connection, serialized with its
// own outbound traffic. It satisfies Sender so strategy orders can be
// routed here, and fails when the session has not connected yet.
func (s *OrderEntrySession) Send(build func(id Identity, seq int) string) error {
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()

	if c == nil {
		return fmt.Errorf("order entry session not connected")
	}
	return c.Send(build)
}

// Run drives the session: dial, logon, then the read loop. Errors are
// terminal for this session only.
func (s *OrderEntrySession) Run(ctx context.Context) error {
	rw, err := s.dial(ctx)
	if err != nil {
		s.state = OETerminated
		return fmt.Errorf("order entry connect failed: %w", err)
	}

	s.mu.Lock()
	s.conn = NewConn(rw, s.identity)
	s.mu.Unlock()
	defer s.conn.Close()

	if err := sendLogon(s.conn, s.key, s.username); err != nil {
		s.state = OETerminated
		return fmt.Errorf("order entry logon failed: %w", err)
	}
	s.state = OEAwaitingLogonAck
	s.logger.Info("sent logon", zap.String("sender_comp_id", s.identity.SenderCompID))

	for {
		m, err := s.conn.ReadMessage()
		if err != nil {
			s.state = OETerminated
			return fmt.Errorf("order entry stream read failed: %w", err)
		}

		done, err := s.Handle(ctx, m)
		if err != nil {
			s.state = OETerminated
			return err
		}
		if done {
			return nil
		}
	}
}

// Close closes the session's connection, unblocking the read loop.
func (s *OrderEntrySession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Handle applies one received message to the session state machine.
func (s *OrderEntrySession) Handle(ctx context.Context, m string) (done bool, err error) {
	s.logger.Debug("received", zap.String("raw", fix.Printable(m)))

	msgType, ok := fix.ExtractField(m, "35")
	if !ok {
		s.logger.Warn("message without MsgType", zap.String("raw", fix.Printable(m)))
		return false, nil
	}

	switch msgType {
	case fix.MsgTypeLogon:
		return false, s.handleLogonAck(ctx)
	case fix.MsgTypeExecutionReport:
		s.handleExecutionReport(ctx, m)
	case fix.MsgTypeLogout:
		s.logger.Info("logout received, session ending")
		s.state = OETerminated
		return true, nil
	default:
		s.logger.Debug("received message", zap.String("msg_type", msgType))
	}

	return false, nil
}

// handleLogonAck opens the readiness gate and runs the demo order flow.
func (s *OrderEntrySession) handleLogonAck(ctx context.Context) error {
	s.logger.Info("logon successful")

	s.strategy.SetOrderEntryReady()
	if s.health != nil {
		s.health.SetOrderEntryReady(true)
	}

	s.state = OEDemo
	if err := s.runDemo(ctx); err != nil {
		return err
	}
	s.state = OEStreaming
	return nil
}

// runDemo submits a fixed limit order and cancels it after the configured
// delay.
func (s *OrderEntrySession) runDemo(ctx context.Context) error {
	origClOrdID := uuid.New().String()

	err := s.Send(func(id Identity, seq int) string {
		return fix.BuildNewOrderSingle(id.SenderCompID, id.TargetCompID, seq,
			s.symbol, fix.SideCodeBuy, s.demoQty, s.demoPrice, origClOrdID)
	})
	if err != nil {
		return fmt.Errorf("failed to send demo order: %w", err)
	}
	s.logger.Info("sent demo order", zap.String("cl_ord_id", origClOrdID))
	s.recordOrder(ctx, origClOrdID)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cancelDelay):
	}

	cancelClOrdID := uuid.New().String()
	err = s.Send(func(id Identity, seq int) string {
		return fix.BuildOrderCancelRequest(id.SenderCompID, id.TargetCompID, seq,
			s.symbol, cancelClOrdID, origClOrdID)
	})
	if err != nil {
		return fmt.Errorf("failed to send demo cancel: %w", err)
	}
	s.logger.Info("sent demo cancel",
		zap.String("orig_cl_ord_id", origClOrdID),
		zap.String("cancel_cl_ord_id", cancelClOrdID),
	)
	return nil
}

func (s *OrderEntrySession) recordOrder(ctx context.Context, clOrdID string) {
	if s.journal == nil {
		return
	}
	o := journal.Order{
		ClOrdID: clOrdID,
		Symbol:  s.symbol,
		Side:    string(strategy.SideBuy),
		Qty:     s.demoQty,
		Price:   s.demoPrice,
		Origin:  journal.OriginDemo,
	}
	if err := s.journal.RecordOrder(ctx, o); err != nil {
		s.logger.Error("failed to journal demo order",
			zap.String("cl_ord_id", clOrdID),
			zap.Error(err),
		)
	}
}

// handleExecutionReport logs the venue's view of an order and journals it.
// It is purely observational: execution reports never touch the strategy
// position. A reject is recovered locally and does not fail the session.
func (s *OrderEntrySession) handleExecutionReport(ctx context.Context, m string) {
	clOrdID, _ := fix.ExtractField(m, "11")
	execType, _ := fix.ExtractField(m, "150")
	symbol, _ := fix.ExtractField(m, "55")
	side, _ := fix.ExtractField(m, "54")
	qtyStr, _ := fix.ExtractField(m, "38")
	priceStr, _ := fix.ExtractField(m, "44")
	text, _ := fix.ExtractField(m, "58")

	qty, _ := strconv.ParseFloat(qtyStr, 64)
	price, _ := strconv.ParseFloat(priceStr, 64)

	var status string
	switch execType {
	case fix.ExecTypeNew:
		status = "ACCEPTED"
		s.logger.Info("order accepted",
			zap.String("symbol", symbol),
			zap.String("side", side),
			zap.Float64("qty", qty),
			zap.Float64("price", price),
			zap.String("cl_ord_id", clOrdID),
		)
	case fix.ExecTypeCanceled:
		status = "CANCELED"
		s.logger.Info("order canceled",
			zap.String("symbol", symbol),
			zap.String("cl_ord_id", clOrdID),
		)
	case fix.ExecTypeRejected:
		status = "REJECTED"
		s.logger.Error("order rejected",
			zap.String("cl_ord_id", clOrdID),
			zap.String("reason", text),
		)
	default:
		status = "UNKNOWN"
		s.logger.Warn("unknown exec type",
			zap.String("exec_type", execType),
			zap.String("cl_ord_id", clOrdID),
		)
	}

	if s.journal == nil {
		return
	}
	e := journal.Execution{
		ClOrdID:  clOrdID,
		ExecType: execType,
		Status:   status,
		Reason:   text,
		Symbol:   symbol,
		Side:     side,
		Qty:      qty,
		Price:    price,
	}
	if err := s.journal.RecordExecution(ctx, e); err != nil {
		s.logger.Error("failed to journal execution",
			zap.String("cl_ord_id", clOrdID),
			zap.Error(err),
		)
	}
}

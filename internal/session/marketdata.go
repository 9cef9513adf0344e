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
	"github.com/ismaiel54/fix-trading-bot/internal/msg"
	"github.com/ismaiel54/fix-trading-bot/internal/observability"
	"github.com/ismaiel54/fix-trading-bot/internal/strategy"
)

// mdRequestID identifies the best bid/offer subscription.
const mdRequestID = "BOOK_TICKER_STREAM"

// MDState enumerates the market data session's protocol states.
type MDState int

const (
	MDConnecting MDState = iota
	MDAwaitingLogonAck
	MDStreaming
	MDTerminated
)

// MarketDataConfig wires a market data session.
type MarketDataConfig struct {
	TargetCompID string
	Username     string
	Key          ed25519.PrivateKey
	Symbol       string
	Dial         DialFunc

	// OrderSender, when set, carries strategy orders instead of the
	// session's own connection.
	OrderSender Sender

	Engine   *strategy.Engine
	Journal  *journal.Store               // optional
	Producer *msg.Producer                // optional
	Health   *observability.HealthChecker // optional
	Logger   *zap.Logger
}

// MarketDataSession owns the market data connection: logon, the best
// bid/offer subscription and the tick loop feeding the strategy engine.
// Strategy orders leave on the session's own connection unless an
// OrderSender was configured.
type MarketDataSession struct {
	identity Identity
	key      ed25519.PrivateKey
	username string
	symbol   string
	dial     DialFunc

	mu   sync.Mutex
	conn *Conn

	orders   Sender
	engine   *strategy.Engine
	journal  *journal.Store
	producer *msg.Producer
	health   *observability.HealthChecker
	logger   *zap.Logger

	state MDState
}

// NewMarketDataSession creates a market data session with a fresh sender
// comp id.
func NewMarketDataSession(cfg MarketDataConfig) *MarketDataSession {
	return &MarketDataSession{
		identity: Identity{SenderCompID: NewSenderCompID(), TargetCompID: cfg.TargetCompID},
		key:      cfg.Key,
		username: cfg.Username,
		symbol:   cfg.Symbol,
		dial:     cfg.Dial,
		orders:   cfg.OrderSender,
		engine:   cfg.Engine,
		journal:  cfg.Journal,
		producer: cfg.Producer,
		health:   cfg.Health,
		logger:   cfg.Logger.With(zap.String("session", "market-data")),
		state:    MDConnecting,
	}
}

// State returns the session's current protocol state.
func (s *MarketDataSession) State() MDState {
	return s.state
}

// Run drives the session to termination: dial, logon, then the read loop.
// The session is never restarted; the returned error reports why the loop
// stopped, nil meaning a clean venue-initiated logout.
func (s *MarketDataSession) Run(ctx context.Context) error {
	rw, err := s.dial(ctx)
	if err != nil {
		s.state = MDTerminated
		return fmt.Errorf("market data connect failed: %w", err)
	}

	s.mu.Lock()
	s.conn = NewConn(rw, s.identity)
	if s.orders == nil {
		s.orders = s.conn
	}
	s.mu.Unlock()
	defer s.conn.Close()

	if err := sendLogon(s.conn, s.key, s.username); err != nil {
		s.state = MDTerminated
		return fmt.Errorf("market data logon failed: %w", err)
	}
	s.state = MDAwaitingLogonAck
	s.logger.Info("sent logon", zap.String("sender_comp_id", s.identity.SenderCompID))

	for {
		m, err := s.conn.ReadMessage()
		if err != nil {
			s.state = MDTerminated
			return fmt.Errorf("market data stream read failed: %w", err)
		}

		done, err := s.Handle(ctx, m)
		if err != nil {
			s.state = MDTerminated
			return err
		}
		if done {
			return nil
		}
	}
}

// Close closes the session's connection, unblocking the read loop.
func (s *MarketDataSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Handle applies one received message to the session state machine. done is
// true when the venue ended the session with a Logout(5).
func (s *MarketDataSession) Handle(ctx context.Context, m string) (done bool, err error) {
	s.logger.Debug("received", zap.String("raw", fix.Printable(m)))

	msgType, ok := fix.ExtractField(m, "35")
	if !ok {
		s.logger.Warn("message without MsgType", zap.String("raw", fix.Printable(m)))
		return false, nil
	}

	switch msgType {
	case fix.MsgTypeTestRequest:
		return false, s.handleTestRequest(m)
	case fix.MsgTypeHeartbeat:
		s.logger.Info("received heartbeat")
	case fix.MsgTypeLogon:
		return false, s.handleLogonAck()
	case fix.MsgTypeMarketDataIncremental, fix.MsgTypeMarketDataSnapshot:
		s.handleMarketData(ctx, m)
	case fix.MsgTypeLogout:
		s.logger.Info("logout received, session ending")
		s.state = MDTerminated
		if s.health != nil {
			s.health.SetMarketDataUp(false)
		}
		return true, nil
	default:
		s.logger.Info("received message", zap.String("msg_type", msgType))
	}

	return false, nil
}

func (s *MarketDataSession) handleTestRequest(m string) error {
	testReqID, ok := fix.ExtractField(m, "112")
	if !ok {
		return nil
	}

	err := s.conn.Send(func(id Identity, seq int) string {
		return fix.BuildHeartbeat(id.SenderCompID, id.TargetCompID, seq, testReqID)
	})
	if err != nil {
		return fmt.Errorf("failed to answer test request: %w", err)
	}

	s.logger.Info("sent heartbeat", zap.String("test_req_id", testReqID))
	return nil
}

func (s *MarketDataSession) handleLogonAck() error {
	s.logger.Info("logon successful")

	err := s.conn.Send(func(id Identity, seq int) string {
		return fix.BuildMarketDataRequest(
			id.SenderCompID, id.TargetCompID, seq,
			mdRequestID, s.symbol,
			[]string{fix.EntryTypeBid, fix.EntryTypeAsk}, 1,
		)
	})
	if err != nil {
		return fmt.Errorf("failed to send market data request: %w", err)
	}

	s.state = MDStreaming
	if s.health != nil {
		s.health.SetMarketDataUp(true)
	}
	s.logger.Info("sent market data request", zap.String("symbol", s.symbol))
	return nil
}

// handleMarketData extracts one best bid/offer entry, publishes it and lets
// the engine decide. Field parse failures degrade to zero values, matching
// the tolerant read path: a malformed tick must not kill the stream.
func (s *MarketDataSession) handleMarketData(ctx context.Context, m string) {
	symbol, _ := fix.ExtractField(m, "55")
	entryType, _ := fix.ExtractField(m, "269")
	priceStr, _ := fix.ExtractField(m, "270")
	qtyStr, _ := fix.ExtractField(m, "271")

	price, _ := strconv.ParseFloat(priceStr, 64)
	qty, _ := strconv.ParseFloat(qtyStr, 64)

	s.logger.Info("market data",
		zap.String("symbol", symbol),
		zap.String("entry_type", entryType),
		zap.Float64("price", price),
		zap.Float64("qty", qty),
	)

	tick := strategy.Tick{Symbol: symbol, EntryType: entryType, Price: price, Qty: qty}
	s.publishTick(ctx, tick)

	for _, ins := range s.engine.Evaluate(tick) {
		if err := s.submit(ctx, ins); err != nil {
			s.logger.Error("failed to submit order",
				zap.String("cl_ord_id", ins.ClOrdID),
				zap.Error(err),
			)
		}
	}
}

// submit transmits one engine instruction on the configured order route.
// Cancels are fire and forget: a failed cancel does not stop the
// replacement order that follows it.
func (s *MarketDataSession) submit(ctx context.Context, ins strategy.Instruction) error {
	switch ins.Kind {
	case strategy.InstructionCancel:
		return s.orders.Send(func(id Identity, seq int) string {
			return fix.BuildOrderCancelRequest(id.SenderCompID, id.TargetCompID, seq,
				ins.Symbol, ins.ClOrdID, ins.OrigClOrdID)
		})
	case strategy.InstructionNew:
		err := s.orders.Send(func(id Identity, seq int) string {
			return fix.BuildNewOrderSingle(id.SenderCompID, id.TargetCompID, seq,
				ins.Symbol, sideCode(ins.Side), ins.Qty, ins.Price, ins.ClOrdID)
		})
		if err != nil {
			return err
		}
		s.recordOrder(ctx, ins)
		return nil
	}
	return nil
}

func (s *MarketDataSession) recordOrder(ctx context.Context, ins strategy.Instruction) {
	if s.journal == nil {
		return
	}
	o := journal.Order{
		ClOrdID: ins.ClOrdID,
		Symbol:  ins.Symbol,
		Side:    string(ins.Side),
		Qty:     ins.Qty,
		Price:   ins.Price,
		Origin:  journal.OriginStrategy,
	}
	if err := s.journal.RecordOrder(ctx, o); err != nil {
		s.logger.Error("failed to journal order",
			zap.String("cl_ord_id", ins.ClOrdID),
			zap.Error(err),
		)
	}
}

func (s *MarketDataSession) publishTick(ctx context.Context, tick strategy.Tick) {
	if s.producer == nil {
		return
	}
	t := msg.TickMsg{
		EventID:      uuid.New().String(),
		Symbol:       tick.Symbol,
		EntryType:    tick.EntryType,
		Price:        tick.Price,
		Qty:          tick.Qty,
		TsUnixMillis: time.Now().UnixMilli(),
	}
	if err := s.producer.ProduceJSON(ctx, msg.TopicMarketTicks, tick.Symbol, t); err != nil {
		s.logger.Error("failed to publish tick", zap.Error(err))
	}
}

func sideCode(side strategy.Side) string {
	if side == strategy.SideSell {
		return fix.SideCodeSell
	}
	return fix.SideCodeBuy
}

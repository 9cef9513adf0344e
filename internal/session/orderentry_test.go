package session

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ismaiel54/fix-trading-bot/internal/fix"
	"github.com/ismaiel54/fix-trading-bot/internal/journal"
	"github.com/ismaiel54/fix-trading-bot/internal/strategy"
)

func newTestOESession(t *testing.T, store *journal.Store) (*OrderEntrySession, *fakeTransport, *strategy.State) {
	t.Helper()

	state := strategy.NewState(100000)
	rw := newFakeTransport()
	s := NewOrderEntrySession(OrderEntryConfig{
		TargetCompID: "SPOT",
		Username:     "api-key",
		Key:          testKey(t),
		Symbol:       "BTCUSDT",
		DemoQty:      0.0001,
		DemoPrice:    50000,
		CancelDelay:  5 * time.Millisecond,
		Dial: func(ctx context.Context) (io.ReadWriteCloser, error) {
			return rw, nil
		},
		State:   state,
		Journal: store,
		Logger:  zap.NewNop(),
	})
	s.conn = NewConn(rw, s.identity)
	return s, rw, state
}

func TestSendBeforeConnectFails(t *testing.T) {
	s := NewOrderEntrySession(OrderEntryConfig{
		TargetCompID: "SPOT",
		Username:     "api-key",
		Key:          testKey(t),
		Symbol:       "BTCUSDT",
		State:        strategy.NewState(100000),
		Logger:       zap.NewNop(),
	})

	err := s.Send(func(id Identity, seq int) string { return "" })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestLogonAckOpensGateAndRunsDemo(t *testing.T) {
	s, rw, state := newTestOESession(t, nil)

	done, err := s.Handle(context.Background(), venueMsg("35=A"))
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, OEStreaming, s.State())
	assert.True(t, state.OrderEntryReady())

	sent := rw.sent()
	require.Len(t, sent, 2)

	requireField(t, sent[0], "35", fix.MsgTypeNewOrderSingle)
	requireField(t, sent[0], "54", fix.SideCodeBuy)
	requireField(t, sent[0], "55", "BTCUSDT")
	requireField(t, sent[0], "38", "0.0001")
	requireField(t, sent[0], "44", "50000")

	requireField(t, sent[1], "35", fix.MsgTypeOrderCancelRequest)
	orderID, _ := fix.ExtractField(sent[0], "11")
	requireField(t, sent[1], "41", orderID)
	cancelID, _ := fix.ExtractField(sent[1], "11")
	assert.NotEqual(t, orderID, cancelID)
}

func TestDemoCanceledByContext(t *testing.T) {
	s, rw, _ := newTestOESession(t, nil)
	s.cancelDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Handle(ctx, venueMsg("35=A"))
	require.ErrorIs(t, err, context.Canceled)

	// The demo order went out but the cancel never did.
	sent := rw.sent()
	require.Len(t, sent, 1)
	requireField(t, sent[0], "35", fix.MsgTypeNewOrderSingle)
}

func TestExecutionReportJournaled(t *testing.T) {
	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer store.Close()

	s, _, _ := newTestOESession(t, store)

	report := venueMsg("35=8", "11=order-1", "150=0", "55=BTCUSDT",
		"54=1", "38=0.0001", "44=50000.00")
	done, err := s.Handle(context.Background(), report)
	require.NoError(t, err)
	assert.False(t, done)

	events, err := store.ListUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "order-1", events[0].ClOrdID)
	assert.Contains(t, events[0].PayloadJSON, `"ACCEPTED"`)
}

func TestRejectRecoveredLocally(t *testing.T) {
	s, rw, _ := newTestOESession(t, nil)

	report := venueMsg("35=8", "11=order-2", "150=8", "58=Insufficient balance")
	done, err := s.Handle(context.Background(), report)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Empty(t, rw.sent())
}

func TestOrderEntryLogoutEndsSession(t *testing.T) {
	s, _, _ := newTestOESession(t, nil)

	done, err := s.Handle(context.Background(), venueMsg("35=5"))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, OETerminated, s.State())
}

func TestGateStaysOpenAfterDemo(t *testing.T) {
	s, _, state := newTestOESession(t, nil)

	_, err := s.Handle(context.Background(), venueMsg("35=A"))
	require.NoError(t, err)

	_, err = s.Handle(context.Background(), venueMsg("35=8", "11=x", "150=8", "58=rejected"))
	require.NoError(t, err)
	assert.True(t, state.OrderEntryReady())
}

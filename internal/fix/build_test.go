package fix

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLogonFields(t *testing.T) {
	m := BuildLogon("SENDER01", "TARGET", 1, "20240101-00:00:00.000", "c2lnbmF0dXJl", "api-key")

	for tag, want := range map[string]string{
		"35":    "A",
		"34":    "1",
		"49":    "SENDER01",
		"52":    "20240101-00:00:00.000",
		"56":    "TARGET",
		"95":    "12",
		"96":    "c2lnbmF0dXJl",
		"98":    "0",
		"108":   "30",
		"141":   "Y",
		"553":   "api-key",
		"25035": "1",
	} {
		got, ok := ExtractField(m, tag)
		require.True(t, ok, "tag %s", tag)
		assert.Equal(t, want, got, "tag %s", tag)
	}

	assert.True(t, strings.HasPrefix(m, "8=FIX.4.4\x01"))
	assert.True(t, strings.HasSuffix(m, SOH))
}

func TestBuildHeartbeatEchoesTestReqID(t *testing.T) {
	m := BuildHeartbeat("SENDER01", "TARGET", 3, "PING-1")

	id, ok := ExtractField(m, "112")
	require.True(t, ok)
	assert.Equal(t, "PING-1", id)

	seq, _ := ExtractField(m, "34")
	assert.Equal(t, "3", seq)
}

func TestBuildHeartbeatWithoutTestReqID(t *testing.T) {
	m := BuildHeartbeat("SENDER01", "TARGET", 3, "")
	_, ok := ExtractField(m, "112")
	assert.False(t, ok)
}

func TestBuildMarketDataRequest(t *testing.T) {
	m := BuildMarketDataRequest("SENDER01", "TARGET", 2, "BOOK_TICKER_STREAM", "BTCUSDT",
		[]string{EntryTypeBid, EntryTypeAsk}, 1)

	for tag, want := range map[string]string{
		"35":  "V",
		"262": "BOOK_TICKER_STREAM",
		"263": "1",
		"146": "1",
		"55":  "BTCUSDT",
		"267": "2",
		"264": "1",
		"266": "Y",
	} {
		got, ok := ExtractField(m, tag)
		require.True(t, ok, "tag %s", tag)
		assert.Equal(t, want, got, "tag %s", tag)
	}

	assert.Equal(t, 2, strings.Count(m, "\x01269="), "one entry type field per subscription type")
}

func TestBuildNewOrderSingle(t *testing.T) {
	m := BuildNewOrderSingle("SENDER01", "TARGET", 5, "BTCUSDT", SideCodeSell, 0.0001, 102000, "ord-1")

	for tag, want := range map[string]string{
		"35": "D",
		"11": "ord-1",
		"55": "BTCUSDT",
		"54": "2",
		"38": "0.0001",
		"40": "2",
		"44": "102000",
		"59": "1",
	} {
		got, ok := ExtractField(m, tag)
		require.True(t, ok, "tag %s", tag)
		assert.Equal(t, want, got, "tag %s", tag)
	}
}

func TestBuildOrderCancelRequest(t *testing.T) {
	m := BuildOrderCancelRequest("SENDER01", "TARGET", 6, "BTCUSDT", "cancel-1", "ord-1")

	for tag, want := range map[string]string{
		"35": "F",
		"11": "cancel-1",
		"41": "ord-1",
		"55": "BTCUSDT",
	} {
		got, ok := ExtractField(m, tag)
		require.True(t, ok, "tag %s", tag)
		assert.Equal(t, want, got, "tag %s", tag)
	}
}

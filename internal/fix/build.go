package fix

import (
	"fmt"
	"strconv"
	"time"
)

// BuildLogon builds a Logon(A) carrying the signed credential in
// RawData(96). sendingTime must be the same timestamp the signature was
// computed over.
func BuildLogon(sender, target string, seq int, sendingTime, rawData, username string) string {
	fields := []string{
		BeginString,
		"9=000",
		"35=" + MsgTypeLogon,
		fmt.Sprintf("34=%d", seq),
		"49=" + sender,
		"52=" + sendingTime,
		"56=" + target,
		fmt.Sprintf("95=%d", len(rawData)),
		"96=" + rawData,
		"98=0",
		"108=30",
		"141=Y",
		"553=" + username,
		"25035=1",
	}
	return BuildMessage(fields)
}

// BuildHeartbeat builds a Heartbeat(0). A non-empty testReqID echoes the
// TestRequest identifier in tag 112.
func BuildHeartbeat(sender, target string, seq int, testReqID string) string {
	fields := []string{
		BeginString,
		"9=000",
		"35=" + MsgTypeHeartbeat,
		fmt.Sprintf("34=%d", seq),
		"49=" + sender,
		"52=" + SendingTime(time.Now()),
		"56=" + target,
	}
	if testReqID != "" {
		fields = append(fields, "112="+testReqID)
	}
	return BuildMessage(fields)
}

// BuildMarketDataRequest builds a MarketDataRequest(V) subscribing to the
// given entry types for a single symbol. depth 0 omits MarketDepth(264).
func BuildMarketDataRequest(sender, target string, seq int, reqID, symbol string, entryTypes []string, depth int) string {
	fields := []string{
		BeginString,
		"9=000",
		"35=" + MsgTypeMarketDataRequest,
		"49=" + sender,
		"56=" + target,
		fmt.Sprintf("34=%d", seq),
		"52=" + SendingTime(time.Now()),
		"262=" + reqID,
		"263=1",
		"146=1",
		"55=" + symbol,
		fmt.Sprintf("267=%d", len(entryTypes)),
	}
	for _, et := range entryTypes {
		fields = append(fields, "269="+et)
	}
	if depth > 0 {
		fields = append(fields, fmt.Sprintf("264=%d", depth))
	}
	fields = append(fields, "266=Y")
	return BuildMessage(fields)
}

// BuildNewOrderSingle builds a limit NewOrderSingle(D), good till cancel.
// sideCode is SideCodeBuy or SideCodeSell.
func BuildNewOrderSingle(sender, target string, seq int, symbol, sideCode string, qty, price float64, clOrdID string) string {
	fields := []string{
		BeginString,
		"9=000",
		"35=" + MsgTypeNewOrderSingle,
		fmt.Sprintf("34=%d", seq),
		"49=" + sender,
		"56=" + target,
		"52=" + SendingTime(time.Now()),
		"11=" + clOrdID,
		"55=" + symbol,
		"54=" + sideCode,
		"38=" + strconv.FormatFloat(qty, 'f', -1, 64),
		"40=2",
		"44=" + strconv.FormatFloat(price, 'f', -1, 64),
		"59=1",
	}
	return BuildMessage(fields)
}

// BuildOrderCancelRequest builds an OrderCancelRequest(F). clOrdID
// identifies the cancel itself, origClOrdID the order being canceled.
func BuildOrderCancelRequest(sender, target string, seq int, symbol, clOrdID, origClOrdID string) string {
	fields := []string{
		BeginString,
		"9=000",
		"35=" + MsgTypeOrderCancelRequest,
		"49=" + sender,
		"56=" + target,
		fmt.Sprintf("34=%d", seq),
		"52=" + SendingTime(time.Now()),
		"11=" + clOrdID,
		"41=" + origClOrdID,
		"55=" + symbol,
	}
	return BuildMessage(fields)
}

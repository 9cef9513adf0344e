// Package fix implements the subset of FIX 4.4 this client needs to talk to
// the venue: tag=value message construction with body-length and checksum
// trailers, SOH-delimited stream framing, field extraction and the
// Ed25519-signed logon credential.
//
// It is not a general-purpose FIX engine. Only the message types used for
// logon, heartbeats, market data subscription and order entry are covered,
// and there is no sequence persistence or resend handling.
package fix

import "strings"

// SOH is the FIX field delimiter.
const SOH = "\x01"

const sohByte = 0x01

// BeginString is the protocol version field sent on every outbound message.
const BeginString = "8=FIX.4.4"

// Message types (tag 35) consumed or produced by the client.
const (
	MsgTypeHeartbeat             = "0"
	MsgTypeTestRequest           = "1"
	MsgTypeLogout                = "5"
	MsgTypeExecutionReport       = "8"
	MsgTypeLogon                 = "A"
	MsgTypeNewOrderSingle        = "D"
	MsgTypeOrderCancelRequest    = "F"
	MsgTypeMarketDataRequest     = "V"
	MsgTypeMarketDataSnapshot    = "W"
	MsgTypeMarketDataIncremental = "X"
)

// Side codes (tag 54).
const (
	SideCodeBuy  = "1"
	SideCodeSell = "2"
)

// ExecType codes (tag 150) on execution reports.
const (
	ExecTypeNew      = "0"
	ExecTypeCanceled = "4"
	ExecTypeRejected = "8"
)

// Market data entry types (tag 269).
const (
	EntryTypeBid = "0"
	EntryTypeAsk = "1"
)

// Printable replaces SOH delimiters with pipes for log output.
func Printable(m string) string {
	return strings.ReplaceAll(m, SOH, "|")
}

// Package msg defines the Kafka topics and payloads the bot publishes and
// wraps the franz-go producer.
package msg

// Topic names.
const (
	TopicMarketTicks = "fix.market.ticks"
	TopicOrderEvents = "fix.orders.events"
)

// TickMsg is a normalized best bid/offer tick observed on the market data
// session.
type TickMsg struct {
	EventID      string  `json:"event_id"`
	Symbol       string  `json:"symbol"`
	EntryType    string  `json:"entry_type"` // "0" bid, "1" ask
	Price        float64 `json:"price"`
	Qty          float64 `json:"qty"`
	TsUnixMillis int64   `json:"ts_unix_millis"`
}

// OrderEventMsg describes an order lifecycle event: a submission recorded
// locally or an execution report received from the venue.
type OrderEventMsg struct {
	EventID      string  `json:"event_id"`
	ClOrdID      string  `json:"cl_ord_id"`
	Symbol       string  `json:"symbol,omitempty"`
	Side         string  `json:"side,omitempty"`
	Status       string  `json:"status"` // SUBMITTED, ACCEPTED, CANCELED, REJECTED, UNKNOWN
	Reason       string  `json:"reason,omitempty"`
	Qty          float64 `json:"qty,omitempty"`
	Price        float64 `json:"price,omitempty"`
	TsUnixMillis int64   `json:"ts_unix_millis"`
}

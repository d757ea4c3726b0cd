package websocket

// Inbound message types a connected client may send.
const (
	MessageTypeBid = "client_bid"
	MessageTypeBuy = "client_buy"
)

// InboundMessage is the envelope for client frames. Amount is only used for
// bids; buys always take the current price.
type InboundMessage struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount,omitempty"`
}

// ErrorMessage is sent back to the offending client only.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

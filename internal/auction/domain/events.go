package domain

import "github.com/google/uuid"

// EventType names the state transitions the engine announces.
type EventType string

const (
	EventBidAccepted  EventType = "bid.accepted"
	EventPriceUpdated EventType = "dutch.priceUpdated"
	EventSold         EventType = "dutch.sold"
	EventBidRejected  EventType = "bid.rejected"
)

// Event is one broadcast message. ID is assigned by the coordinator at emit
// time and orders events globally.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	AuctionID uuid.UUID `json:"auction_id"`
	Payload   any       `json:"payload"`
}

type BidAcceptedPayload struct {
	BidderID         uuid.UUID  `json:"bidder_id"`
	Amount           float64    `json:"amount"`
	PreviousLeaderID *uuid.UUID `json:"previous_leader_id,omitempty"`
	Automatic        bool       `json:"automatic"`
}

type PriceUpdatedPayload struct {
	NewPrice float64 `json:"new_price"`
}

type SoldPayload struct {
	WinnerID   uuid.UUID `json:"winner_id"`
	FinalPrice float64   `json:"final_price"`
}

type BidRejectedPayload struct {
	RequesterID uuid.UUID `json:"requester_id"`
	Reason      string    `json:"reason"`
}

// Broadcaster fans events out to every current subscriber, in emit order.
// Emit is fire-and-forget; EmitTo delivers to one requester only and is used
// for rejections, which are never broadcast.
type Broadcaster interface {
	Emit(ev Event)
	EmitTo(userID uuid.UUID, ev Event)
}

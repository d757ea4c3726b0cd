package domain

import (
	"time"

	"github.com/google/uuid"
)

// Bid is one accepted entry in an ascending auction's append-only ledger.
// Seq is the insertion order assigned by the store and breaks amount ties:
// the earlier bid wins.
type Bid struct {
	ID        uuid.UUID
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	Amount    float64
	Seq       int64
	Automatic bool
	CreatedAt time.Time
}

// NewBid creates a new Bid instance.
func NewBid(id, auctionID, bidderID uuid.UUID, amount float64, automatic bool, createdAt time.Time) *Bid {
	return &Bid{
		ID:        id,
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		Automatic: automatic,
		CreatedAt: createdAt,
	}
}

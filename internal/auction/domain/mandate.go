package domain

import (
	"time"

	"github.com/google/uuid"
)

// AutoBidMandate is a standing instruction to bid on a bidder's behalf, one
// increment at a time, up to MaxAmount. At most one mandate exists per
// (auction, bidder) pair; re-creating one replaces the old mandate.
type AutoBidMandate struct {
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	MaxAmount float64
	Increment float64
	CreatedAt time.Time
}

// NewAutoBidMandate validates the amounts against the configured minimum
// increment and returns the mandate.
func NewAutoBidMandate(auctionID, bidderID uuid.UUID, maxAmount, increment, minIncrement float64) (*AutoBidMandate, error) {
	if maxAmount <= 0 || increment <= 0 {
		return nil, ErrInvalidAmount
	}
	if increment < minIncrement {
		return nil, ErrIncrementTooSmall
	}
	return &AutoBidMandate{
		AuctionID: auctionID,
		BidderID:  bidderID,
		MaxAmount: maxAmount,
		Increment: increment,
	}, nil
}

// NextAmount is the amount this mandate would bid over the given leading
// amount: one increment up, capped at the mandate's ceiling.
func (m *AutoBidMandate) NextAmount(leading float64) float64 {
	next := leading + m.Increment
	if next > m.MaxAmount {
		next = m.MaxAmount
	}
	return next
}

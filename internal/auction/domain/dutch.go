package domain

import (
	"time"

	"github.com/google/uuid"
)

// DutchState is the price-decay state of a Dutch auction. CurrentPrice only
// moves down. WinnerID is set at most once; the state is frozen after that.
type DutchState struct {
	AuctionID    uuid.UUID
	StartPrice   float64
	CurrentPrice float64
	PriceDrop    float64
	DropInterval time.Duration
	WinnerID     *uuid.UUID
	FinalPrice   *float64
}

// NewDutchState validates the pricing parameters and returns the state with
// the current price at the starting price.
func NewDutchState(auctionID uuid.UUID, startPrice, priceDrop float64, dropInterval time.Duration) (*DutchState, error) {
	if startPrice <= 0 || priceDrop <= 0 || dropInterval <= 0 {
		return nil, ErrInvalidAmount
	}
	return &DutchState{
		AuctionID:    auctionID,
		StartPrice:   startPrice,
		CurrentPrice: startPrice,
		PriceDrop:    priceDrop,
		DropInterval: dropInterval,
	}, nil
}

func (d *DutchState) Sold() bool {
	return d.WinnerID != nil
}

// NextPrice is the price after one decay tick, floored at zero.
func (d *DutchState) NextPrice() float64 {
	next := d.CurrentPrice - d.PriceDrop
	if next < 0 {
		next = 0
	}
	return next
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the two auction formats.
type Kind string

const (
	KindAscending Kind = "ascending"
	KindDutch     Kind = "dutch"
)

// Status is the lifecycle phase derived from the clock and stored state.
// It is never persisted; always recompute it.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusEnded    Status = "ended"
)

// Auction holds the immutable metadata of one auction. Only CurrentBid moves
// after creation, and only through the ledger's atomic append path.
type Auction struct {
	ID          uuid.UUID
	Title       string
	Description string
	OwnerID     uuid.UUID
	StartTime   time.Time
	EndTime     time.Time
	Kind        Kind
	CurrentBid  float64
	CreatedAt   time.Time
}

// NewAuction builds an auction, rejecting windows where the end does not
// come after the start.
func NewAuction(id uuid.UUID, title, description string, ownerID uuid.UUID, start, end time.Time, kind Kind) (*Auction, error) {
	if !end.After(start) {
		return nil, ErrInvalidWindow
	}
	return &Auction{
		ID:          id,
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
		StartTime:   start,
		EndTime:     end,
		Kind:        kind,
	}, nil
}

// DeriveStatus computes the lifecycle phase of a at time now. For Dutch
// auctions the persisted state d must be supplied: a sold Dutch auction is
// ended regardless of its time window. d is ignored for ascending auctions
// and may be nil.
func DeriveStatus(a *Auction, d *DutchState, now time.Time) Status {
	if a.Kind == KindDutch && d != nil && d.Sold() {
		return StatusEnded
	}
	if now.Before(a.StartTime) {
		return StatusUpcoming
	}
	if now.After(a.EndTime) {
		return StatusEnded
	}
	return StatusActive
}

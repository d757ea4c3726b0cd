package domain

import "github.com/google/uuid"

// Role is what a viewer was to an ended auction, for display purposes only.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleWinner   Role = "winner"
	RoleLoser    Role = "loser"
	RoleObserver Role = "observer"
)

// Outcome is the settled result of an ended auction.
type Outcome struct {
	WinnerID   uuid.UUID
	FinalPrice float64
	HasWinner  bool
}

// SettleAscending picks the winner of an ascending auction from its ledger:
// highest amount, earliest insertion on ties. No bids means no winner.
// Pure and repeatable; bids may come in any order.
func SettleAscending(bids []*Bid) Outcome {
	var top *Bid
	for _, b := range bids {
		if top == nil || b.Amount > top.Amount || (b.Amount == top.Amount && b.Seq < top.Seq) {
			top = b
		}
	}
	if top == nil {
		return Outcome{}
	}
	return Outcome{WinnerID: top.BidderID, FinalPrice: top.Amount, HasWinner: true}
}

// SettleDutch reads the frozen winner and final price from the Dutch state.
func SettleDutch(d *DutchState) Outcome {
	if d == nil || !d.Sold() {
		return Outcome{}
	}
	out := Outcome{WinnerID: *d.WinnerID, HasWinner: true}
	if d.FinalPrice != nil {
		out.FinalPrice = *d.FinalPrice
	}
	return out
}

// RoleFor classifies the viewer against a settled auction. participated is
// whether the viewer placed at least one bid (always false for Dutch
// non-winners, who leave no record).
func RoleFor(a *Auction, o Outcome, viewer uuid.UUID, participated bool) Role {
	if viewer == a.OwnerID {
		return RoleOwner
	}
	if o.HasWinner && viewer == o.WinnerID {
		return RoleWinner
	}
	if participated {
		return RoleLoser
	}
	return RoleObserver
}

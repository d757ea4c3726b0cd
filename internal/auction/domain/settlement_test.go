package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"
)

func TestSettleAscending_HighestAmountWins(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()
	bids := []*Bid{
		{BidderID: a, Amount: 50, Seq: 1},
		{BidderID: b, Amount: 80, Seq: 2},
		{BidderID: c, Amount: 65, Seq: 3},
	}

	out := SettleAscending(bids)

	check.True(t, out.HasWinner)
	check.Equal(t, b, out.WinnerID)
	check.Equal(t, 80.0, out.FinalPrice)
}

func TestSettleAscending_EarlierBidWinsTie(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	bids := []*Bid{
		{BidderID: second, Amount: 100, Seq: 7},
		{BidderID: first, Amount: 100, Seq: 3},
	}

	out := SettleAscending(bids)

	check.True(t, out.HasWinner)
	check.Equal(t, first, out.WinnerID)
	check.Equal(t, 100.0, out.FinalPrice)
}

func TestSettleAscending_NoBidsNoWinner(t *testing.T) {
	out := SettleAscending(nil)

	check.False(t, out.HasWinner)
	check.Equal(t, 0.0, out.FinalPrice)
}

func TestSettleAscending_OrderIndependent(t *testing.T) {
	w := uuid.New()
	l := uuid.New()
	forward := []*Bid{
		{BidderID: l, Amount: 40, Seq: 1},
		{BidderID: w, Amount: 60, Seq: 2},
	}
	reversed := []*Bid{forward[1], forward[0]}

	check.Equal(t, SettleAscending(forward), SettleAscending(reversed))
}

func TestSettleDutch_SoldState(t *testing.T) {
	winner := uuid.New()
	price := 420.0
	d := &DutchState{WinnerID: &winner, FinalPrice: &price}

	out := SettleDutch(d)

	check.True(t, out.HasWinner)
	check.Equal(t, winner, out.WinnerID)
	check.Equal(t, 420.0, out.FinalPrice)
}

func TestSettleDutch_UnsoldHasNoWinner(t *testing.T) {
	out := SettleDutch(&DutchState{CurrentPrice: 100})

	check.False(t, out.HasWinner)
}

func TestRoleFor(t *testing.T) {
	owner := uuid.New()
	winner := uuid.New()
	loser := uuid.New()
	observer := uuid.New()
	a := &Auction{OwnerID: owner}
	out := Outcome{WinnerID: winner, HasWinner: true}

	check.Equal(t, RoleOwner, RoleFor(a, out, owner, false))
	check.Equal(t, RoleWinner, RoleFor(a, out, winner, true))
	check.Equal(t, RoleLoser, RoleFor(a, out, loser, true))
	check.Equal(t, RoleObserver, RoleFor(a, out, observer, false))
}

func TestRoleFor_OwnerBeatsWinner(t *testing.T) {
	// The owner cannot bid, so this only happens with corrupt data, but the
	// classification must still be deterministic.
	owner := uuid.New()
	a := &Auction{OwnerID: owner}
	out := Outcome{WinnerID: owner, HasWinner: true}

	check.Equal(t, RoleOwner, RoleFor(a, out, owner, false))
}

func TestDeriveStatus_Window(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	a := &Auction{Kind: KindAscending, StartTime: start, EndTime: end}

	check.Equal(t, StatusUpcoming, DeriveStatus(a, nil, start.Add(-time.Minute)))
	check.Equal(t, StatusActive, DeriveStatus(a, nil, start))
	check.Equal(t, StatusActive, DeriveStatus(a, nil, start.Add(30*time.Minute)))
	check.Equal(t, StatusActive, DeriveStatus(a, nil, end))
	check.Equal(t, StatusEnded, DeriveStatus(a, nil, end.Add(time.Second)))
}

func TestDeriveStatus_SoldDutchIsEnded(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := &Auction{Kind: KindDutch, StartTime: start, EndTime: start.Add(time.Hour)}
	winner := uuid.New()
	d := &DutchState{WinnerID: &winner}

	// Sold wins over the clock, even inside the window.
	check.Equal(t, StatusEnded, DeriveStatus(a, d, start.Add(10*time.Minute)))
}

func TestDeriveStatus_UnsoldDutchFollowsClock(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := &Auction{Kind: KindDutch, StartTime: start, EndTime: start.Add(time.Hour)}
	d := &DutchState{CurrentPrice: 300}

	check.Equal(t, StatusActive, DeriveStatus(a, d, start.Add(10*time.Minute)))
	check.Equal(t, StatusEnded, DeriveStatus(a, d, start.Add(2*time.Hour)))
}

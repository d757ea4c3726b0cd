package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/auctionforge/engine/internal/auction/domain"
)

func TestSubmitBid_Accepted(t *testing.T) {
	env := newTestEnv()
	owner := uuid.New()
	bidder := uuid.New()
	a := env.seedAscending(owner)

	result, err := env.submitUC.Execute(context.Background(), SubmitBidDTO{
		AuctionID: a.ID, BidderID: bidder, Amount: 50,
	})

	assert.NoError(t, err)
	check.Equal(t, bidder, result.NewLeaderID)
	check.Equal(t, 50.0, result.Amount)
	check.Nil(t, result.PreviousLeaderID)

	stored, err := env.auctions.GetByID(context.Background(), a.ID)
	assert.NoError(t, err)
	check.Equal(t, 50.0, stored.CurrentBid)

	events := env.bc.broadcasts()
	assert.Equal(t, 1, len(events))
	check.Equal(t, domain.EventBidAccepted, events[0].Type)
}

func TestSubmitBid_ReportsPreviousLeader(t *testing.T) {
	env := newTestEnv()
	a := env.seedAscending(uuid.New())
	first := uuid.New()
	second := uuid.New()

	_, err := env.submitUC.Execute(context.Background(), SubmitBidDTO{AuctionID: a.ID, BidderID: first, Amount: 50})
	assert.NoError(t, err)

	result, err := env.submitUC.Execute(context.Background(), SubmitBidDTO{AuctionID: a.ID, BidderID: second, Amount: 60})
	assert.NoError(t, err)
	assert.NotNil(t, result.PreviousLeaderID)
	check.Equal(t, first, *result.PreviousLeaderID)
}

func TestSubmitBid_OwnerRejected(t *testing.T) {
	env := newTestEnv()
	owner := uuid.New()
	a := env.seedAscending(owner)

	_, err := env.submitUC.Execute(context.Background(), SubmitBidDTO{
		AuctionID: a.ID, BidderID: owner, Amount: 50,
	})

	check.True(t, errors.Is(err, domain.ErrOwnerSelfBid))
	// Rejections go back to the requester only, never to the auction channel.
	check.Equal(t, 0, len(env.bc.broadcasts()))
	rejections := env.bc.unicasts()
	assert.Equal(t, 1, len(rejections))
	check.Equal(t, domain.EventBidRejected, rejections[0].Type)
}

func TestSubmitBid_InactiveAuctionRejected(t *testing.T) {
	env := newTestEnv()
	a := env.seedAscending(uuid.New())
	env.submitUC.now = func() time.Time { return a.EndTime.Add(time.Minute) }

	_, err := env.submitUC.Execute(context.Background(), SubmitBidDTO{
		AuctionID: a.ID, BidderID: uuid.New(), Amount: 50,
	})

	check.True(t, errors.Is(err, domain.ErrAuctionNotActive))
}

func TestSubmitBid_WrongKindRejected(t *testing.T) {
	env := newTestEnv()
	a := env.seedDutch(uuid.New(), 500)

	_, err := env.submitUC.Execute(context.Background(), SubmitBidDTO{
		AuctionID: a.ID, BidderID: uuid.New(), Amount: 50,
	})

	check.True(t, errors.Is(err, domain.ErrWrongAuctionKind))
}

func TestSubmitBid_BelowFloorRejected(t *testing.T) {
	env := newTestEnv()
	a := env.seedAscending(uuid.New())

	_, err := env.submitUC.Execute(context.Background(), SubmitBidDTO{
		AuctionID: a.ID, BidderID: uuid.New(), Amount: 4.99,
	})

	check.True(t, errors.Is(err, domain.ErrBidTooLow))
}

func TestSubmitBid_MustExceedLeading(t *testing.T) {
	env := newTestEnv()
	a := env.seedAscending(uuid.New())

	_, err := env.submitUC.Execute(context.Background(), SubmitBidDTO{AuctionID: a.ID, BidderID: uuid.New(), Amount: 50})
	assert.NoError(t, err)

	// Equal to the leading amount is not enough.
	_, err = env.submitUC.Execute(context.Background(), SubmitBidDTO{AuctionID: a.ID, BidderID: uuid.New(), Amount: 50})
	check.True(t, errors.Is(err, domain.ErrBidTooLow))

	_, err = env.submitUC.Execute(context.Background(), SubmitBidDTO{AuctionID: a.ID, BidderID: uuid.New(), Amount: 49})
	check.True(t, errors.Is(err, domain.ErrBidTooLow))
}

func TestSubmitBid_NonPositiveAmountRejected(t *testing.T) {
	env := newTestEnv()
	a := env.seedAscending(uuid.New())

	_, err := env.submitUC.Execute(context.Background(), SubmitBidDTO{AuctionID: a.ID, BidderID: uuid.New(), Amount: 0})
	check.True(t, errors.Is(err, domain.ErrInvalidAmount))

	_, err = env.submitUC.Execute(context.Background(), SubmitBidDTO{AuctionID: a.ID, BidderID: uuid.New(), Amount: -10})
	check.True(t, errors.Is(err, domain.ErrInvalidAmount))
}

func TestSubmitBid_ConcurrentSameAmountOneWinner(t *testing.T) {
	env := newTestEnv()
	a := env.seedAscending(uuid.New())

	const bidders = 10
	var wg sync.WaitGroup
	errs := make([]error, bidders)
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.submitUC.Execute(context.Background(), SubmitBidDTO{
				AuctionID: a.ID, BidderID: uuid.New(), Amount: 50,
			})
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		} else {
			check.True(t, errors.Is(err, domain.ErrBidTooLow))
		}
	}
	// Serialization guarantees the critical section is entered one bid at a
	// time, so the same amount can only be accepted once.
	check.Equal(t, 1, accepted)

	bids, err := env.bids.ListByAuction(context.Background(), a.ID)
	assert.NoError(t, err)
	check.Equal(t, 1, len(bids))
}

func TestSubmitBid_LedgerStrictlyIncreases(t *testing.T) {
	env := newTestEnv()
	a := env.seedAscending(uuid.New())

	amounts := []float64{10, 20, 35, 35.5, 40}
	for _, amount := range amounts {
		_, err := env.submitUC.Execute(context.Background(), SubmitBidDTO{
			AuctionID: a.ID, BidderID: uuid.New(), Amount: amount,
		})
		assert.NoError(t, err)
	}

	bids, err := env.bids.ListByAuction(context.Background(), a.ID)
	assert.NoError(t, err)
	assert.Equal(t, len(amounts), len(bids))
	for i := 1; i < len(bids); i++ {
		check.True(t, bids[i].Amount > bids[i-1].Amount)
		check.True(t, bids[i].Seq > bids[i-1].Seq)
	}
}

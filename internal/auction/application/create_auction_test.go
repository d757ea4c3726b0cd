package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/auctionforge/engine/internal/auction/domain"
)

func TestCreateAuction_Ascending(t *testing.T) {
	env := newTestEnv()
	start := time.Now()

	id, err := env.createUC.Execute(context.Background(), CreateAuctionDTO{
		Title:     "vintage synth",
		OwnerID:   uuid.New(),
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Kind:      domain.KindAscending,
	})
	assert.NoError(t, err)

	stored, err := env.auctions.GetByID(context.Background(), id)
	assert.NoError(t, err)
	check.Equal(t, domain.KindAscending, stored.Kind)
	check.Equal(t, 0.0, stored.CurrentBid)
	// No timer for ascending auctions.
	check.Equal(t, 0, len(env.scheduler.started))
}

func TestCreateAuction_DutchStartsTimer(t *testing.T) {
	env := newTestEnv()
	start := time.Now()

	id, err := env.createUC.Execute(context.Background(), CreateAuctionDTO{
		Title:        "pallet of tulips",
		OwnerID:      uuid.New(),
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		Kind:         domain.KindDutch,
		StartPrice:   1000,
		PriceDrop:    50,
		DropInterval: time.Minute,
	})
	assert.NoError(t, err)

	state, err := env.dutch.Get(context.Background(), id)
	assert.NoError(t, err)
	check.Equal(t, 1000.0, state.CurrentPrice)
	check.False(t, state.Sold())

	check.Equal(t, []uuid.UUID{id}, env.scheduler.started)
}

func TestCreateAuction_RejectsBadWindow(t *testing.T) {
	env := newTestEnv()
	start := time.Now()

	_, err := env.createUC.Execute(context.Background(), CreateAuctionDTO{
		Title:     "lot",
		OwnerID:   uuid.New(),
		StartTime: start,
		EndTime:   start,
		Kind:      domain.KindAscending,
	})
	check.True(t, errors.Is(err, domain.ErrInvalidWindow))
}

func TestCreateAuction_RejectsUnknownKind(t *testing.T) {
	env := newTestEnv()
	start := time.Now()

	_, err := env.createUC.Execute(context.Background(), CreateAuctionDTO{
		Title:     "lot",
		OwnerID:   uuid.New(),
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Kind:      domain.Kind("sealed"),
	})
	check.True(t, errors.Is(err, domain.ErrWrongAuctionKind))
}

func TestCreateAuction_RejectsBadDutchPricing(t *testing.T) {
	env := newTestEnv()
	start := time.Now()

	_, err := env.createUC.Execute(context.Background(), CreateAuctionDTO{
		Title:        "lot",
		OwnerID:      uuid.New(),
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		Kind:         domain.KindDutch,
		StartPrice:   0,
		PriceDrop:    50,
		DropInterval: time.Minute,
	})
	check.True(t, errors.Is(err, domain.ErrInvalidAmount))
	check.Equal(t, 0, len(env.scheduler.started))
}
